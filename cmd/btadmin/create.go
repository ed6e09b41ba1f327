package main

import (
	"context"
	"fmt"
	"strings"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

type createCommand struct {
	opts        *globalOptions
	table       string
	families    []string
	splits      []string
	granularity string
}

func (cmd *createCommand) run(_ *kingpin.ParseContext) error {
	families := bigtable.NewColumnFamilyMap()
	for _, s := range cmd.families {
		spec, err := parseFamilySpec(s)
		if err != nil {
			return err
		}
		if err := families.Add(spec.name, spec.rule); err != nil {
			return err
		}
	}

	granularity, err := parseGranularity(cmd.granularity)
	if err != nil {
		return err
	}
	conf := bigtable.TableConfig{
		ColumnFamilies: families,
		Granularity:    granularity,
	}
	for _, s := range cmd.splits {
		conf.InitialSplits = append(conf.InitialSplits, []byte(s))
	}

	ctx := context.Background()
	c, err := cmd.opts.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	t, err := c.CreateTable(ctx, cmd.opts.instance, cmd.table, conf, nil)
	if err != nil {
		return err
	}
	fmt.Println(color.GreenString("created"), t.Path())
	created, err := t.ColumnFamilies(ctx)
	if err != nil {
		return err
	}
	printFamilies(created)
	return nil
}

func parseGranularity(s string) (btapb.Table_TimestampGranularity, error) {
	switch strings.ToLower(s) {
	case "":
		return btapb.Table_TIMESTAMP_GRANULARITY_UNSPECIFIED, nil
	case "millis":
		return btapb.Table_MILLIS, nil
	default:
		return 0, errors.Errorf("unsupported granularity %q", s)
	}
}

func addCreateCommand(app *kingpin.Application, opts *globalOptions) {
	cmd := &createCommand{opts: opts}
	create := app.Command("create", "Create a table.").Action(cmd.run)
	create.Arg("table", "Table ID.").Required().StringVar(&cmd.table)
	create.Flag("family", "Column family as name[:rule], e.g. cf:versions=3|age=7d. Repeatable.").Short('f').StringsVar(&cmd.families)
	create.Flag("split", "Row key to pre-split the table at. Repeatable.").StringsVar(&cmd.splits)
	create.Flag("granularity", "Timestamp granularity, only millis is supported.").Default("millis").StringVar(&cmd.granularity)
}
