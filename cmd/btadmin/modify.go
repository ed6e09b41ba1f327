package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

// modifyCommand adds, updates and drops column families in one request.
type modifyCommand struct {
	opts   *globalOptions
	table  string
	add    []string
	update []string
	drop   []string
	dryRun bool
}

// edit applies the requested changes to m.
func (cmd *modifyCommand) edit(m *bigtable.ColumnFamilyMap) error {
	for _, s := range cmd.add {
		spec, err := parseFamilySpec(s)
		if err != nil {
			return err
		}
		if err := m.Add(spec.name, spec.rule); err != nil {
			return err
		}
	}
	for _, s := range cmd.update {
		spec, err := parseFamilySpec(s)
		if err != nil {
			return err
		}
		if err := m.Update(spec.name, spec.rule); err != nil {
			return err
		}
	}
	for _, name := range cmd.drop {
		if err := m.Delete(name); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *modifyCommand) run(_ *kingpin.ParseContext) error {
	return cmd.opts.withTable(cmd.table, func(ctx context.Context, t *bigtable.Table) error {
		if cmd.dryRun {
			current, err := t.ColumnFamilies(ctx)
			if err != nil {
				return err
			}
			next := current.Clone()
			if err := cmd.edit(next); err != nil {
				return err
			}
			mods := next.Modifications(current)
			if len(mods) == 0 {
				fmt.Println("no changes")
			}
			for _, mod := range mods {
				fmt.Println(color.YellowString("would"), bigtable.ModificationString(mod))
			}
			return nil
		}

		families, err := t.ModifyColumnFamilies(ctx, cmd.edit)
		if err != nil {
			return err
		}
		fmt.Println(color.GreenString("modified"), t.Path())
		printFamilies(families)
		return nil
	})
}

func addModifyCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &modifyCommand{opts: opts}
	modify := app.Command("modify", "Add, update or drop column families.").Action(cmd.run)
	modify.Arg("table", "Table ID.").Required().StringVar(&cmd.table)
	modify.Flag("add", "Column family to add as name[:rule]. Repeatable.").StringsVar(&cmd.add)
	modify.Flag("update", "Column family to update as name[:rule]. Repeatable.").StringsVar(&cmd.update)
	modify.Flag("drop", "Column family to drop. Repeatable.").StringsVar(&cmd.drop)
	modify.Flag("dry-run", "Print the changes without applying them.").BoolVar(&cmd.dryRun)
}
