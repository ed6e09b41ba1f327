package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

type dropRowsCommand struct {
	opts    *globalOptions
	table   string
	prefix  string
	all     bool
	timeout time.Duration
}

func (cmd *dropRowsCommand) request() (bigtable.DropRowRangeRequest, error) {
	switch {
	case cmd.all && cmd.prefix != "":
		return bigtable.DropRowRangeRequest{}, errors.New("--all and --prefix are mutually exclusive")
	case cmd.all:
		return bigtable.DropRowRangeRequest{DeleteAllData: true, Timeout: cmd.timeout}, nil
	case cmd.prefix != "":
		return bigtable.DropRowRangeRequest{RowKeyPrefix: []byte(cmd.prefix), Timeout: cmd.timeout}, nil
	default:
		return bigtable.DropRowRangeRequest{}, errors.New("one of --all or --prefix is required")
	}
}

func (cmd *dropRowsCommand) run(_ *kingpin.ParseContext) error {
	req, err := cmd.request()
	if err != nil {
		return err
	}
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		if req.DeleteAllData {
			err = t.DeleteAllRows(ctx, req.Timeout)
		} else {
			err = t.DeleteRowsByPrefix(ctx, req.RowKeyPrefix, req.Timeout)
		}
		if err != nil {
			return err
		}
		fmt.Println(color.RedString("dropped rows"), t.Path())
		return nil
	})
}

func addDropRowsCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &dropRowsCommand{opts: opts}
	drop := app.Command("drop-rows", "Delete all rows, or the rows starting with a prefix.").Action(cmd.run)
	drop.Arg("table", "Table ID.").Required().StringVar(&cmd.table)
	drop.Flag("prefix", "Row key prefix to delete.").StringVar(&cmd.prefix)
	drop.Flag("all", "Delete every row of the table.").BoolVar(&cmd.all)
	drop.Flag("drop-timeout", "Timeout of the drop request.").Default("2m").DurationVar(&cmd.timeout)
}
