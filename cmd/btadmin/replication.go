package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

type tokenCommand struct {
	opts  *globalOptions
	table string
}

func (cmd *tokenCommand) run(_ *kingpin.ParseContext) error {
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		token, err := t.GenerateConsistencyToken(ctx)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	})
}

type checkCommand struct {
	opts  *globalOptions
	table string
	token string
}

func (cmd *checkCommand) run(_ *kingpin.ParseContext) error {
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		consistent, err := t.CheckConsistency(ctx, cmd.token)
		if err != nil {
			return err
		}
		if !consistent {
			return errors.Errorf("table %s is not consistent yet", t.Path())
		}
		fmt.Println(color.GreenString("consistent"), t.Path())
		return nil
	})
}

type waitCommand struct {
	opts          *globalOptions
	table         string
	timeout       time.Duration
	checkInterval time.Duration
}

func (cmd *waitCommand) run(_ *kingpin.ParseContext) error {
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		start := time.Now()
		ok, err := t.WaitForReplication(ctx, cmd.timeout, cmd.checkInterval)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("replication of %s did not finish, started %s", t.Path(), humanize.Time(start))
		}
		fmt.Println(color.GreenString("replicated"), t.Path(), "started", humanize.Time(start))
		return nil
	})
}

func addReplicationCommands(app *kingpin.Application, opts *globalOptions) {
	token := &tokenCommand{opts: opts}
	tokenCmd := app.Command("token", "Generate a consistency token.").Action(token.run)
	tokenCmd.Arg("table", "Table ID.").Required().StringVar(&token.table)

	check := &checkCommand{opts: opts}
	checkCmd := app.Command("check", "Check whether writes before a token have replicated. Exits non-zero if not.").Action(check.run)
	checkCmd.Arg("table", "Table ID.").Required().StringVar(&check.table)
	checkCmd.Arg("token", "Token returned by the token command.").Required().StringVar(&check.token)

	wait := &waitCommand{opts: opts}
	waitCmd := app.Command("wait", "Wait until all clusters have caught up with the writes made so far.").Action(wait.run)
	waitCmd.Arg("table", "Table ID.").Required().StringVar(&wait.table)
	waitCmd.Flag("wait-timeout", "Give up after this long.").Default(bigtable.DefaultReplicationTimeout.String()).DurationVar(&wait.timeout)
	waitCmd.Flag("check-interval", "Time between consistency checks.").Default(bigtable.DefaultReplicationCheckInterval.String()).DurationVar(&wait.checkInterval)
}
