package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

// tablesCommand lists the tables of an instance.
type tablesCommand struct {
	opts *globalOptions
	view string
}

func (cmd *tablesCommand) run(_ *kingpin.ParseContext) error {
	view, err := bigtable.ParseView(cmd.view)
	if err != nil {
		return err
	}
	ctx := context.Background()
	c, err := cmd.opts.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	tables, err := c.Tables(ctx, cmd.opts.instance, view)
	if err != nil {
		return err
	}
	for _, t := range tables {
		fmt.Println(color.BlueString(t.TableID()))
	}
	return nil
}

func addTablesCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &tablesCommand{opts: opts}
	tables := app.Command("tables", "List the tables of the instance.").Action(cmd.run)
	tables.Flag("view", "Table view to list with.").Default("name_only").StringVar(&cmd.view)
}

// getCommand prints the metadata of one table.
type getCommand struct {
	opts  *globalOptions
	table string
	view  string
}

func (cmd *getCommand) run(_ *kingpin.ParseContext) error {
	view, err := bigtable.ParseView(cmd.view)
	if err != nil {
		return err
	}
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		if err := t.Reload(ctx, view); err != nil {
			return err
		}
		printTable(ctx, t)
		return nil
	})
}

func printTable(ctx context.Context, t *bigtable.Table) {
	bold := color.New(color.Bold)
	bold.Println(t.Path())

	for _, v := range t.LoadedViews() {
		switch v {
		case bigtable.ViewSchema, bigtable.ViewFull:
			if g, err := t.Granularity(ctx); err == nil {
				fmt.Printf("\tgranularity: %s\n", g)
			}
			if families, err := t.ColumnFamilies(ctx); err == nil {
				printFamilies(families)
			}
		}
		switch v {
		case bigtable.ViewReplication, bigtable.ViewFull:
			if states, err := t.ClusterStates(ctx); err == nil {
				fmt.Println("\tclusters:")
				for _, s := range states {
					state := color.YellowString(s.State.String())
					if s.Ready() || s.ReadyOptimizing() {
						state = color.GreenString(s.State.String())
					}
					fmt.Printf("\t\t%s: %s\n", s.ClusterID, state)
				}
			}
		}
	}
}

func printFamilies(families *bigtable.ColumnFamilyMap) {
	fmt.Println("\tcolumn families:")
	for _, name := range families.Names() {
		rule, _ := families.Get(name)
		fmt.Printf("\t\t%s: %s\n", color.BlueString(name), bigtable.GCRuleString(rule))
	}
}

func addGetCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &getCommand{opts: opts}
	get := app.Command("get", "Print the metadata of a table.").Action(cmd.run)
	get.Arg("table", "Table ID.").Required().StringVar(&cmd.table)
	get.Flag("view", "Table view to fetch: name_only, schema, replication or full.").Default("schema").StringVar(&cmd.view)
}

// existsCommand exits non-zero when the table does not exist.
type existsCommand struct {
	opts  *globalOptions
	table string
}

func (cmd *existsCommand) run(_ *kingpin.ParseContext) error {
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		ok, err := t.Exists(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Errorf("table %s does not exist", t.Path())
		}
		fmt.Println(color.GreenString("exists"), t.Path())
		return nil
	})
}

func addExistsCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &existsCommand{opts: opts}
	exists := app.Command("exists", "Check that a table exists.").Action(cmd.run)
	exists.Arg("table", "Table ID.").Required().StringVar(&cmd.table)
}

type deleteCommand struct {
	opts  *globalOptions
	table string
}

func (cmd *deleteCommand) run(_ *kingpin.ParseContext) error {
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		if err := t.Delete(ctx); err != nil {
			return err
		}
		fmt.Println(color.RedString("deleted"), t.Path())
		return nil
	})
}

func addDeleteCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &deleteCommand{opts: opts}
	del := app.Command("delete", "Delete a table and all of its data.").Action(cmd.run)
	del.Arg("table", "Table ID.").Required().StringVar(&cmd.table)
}
