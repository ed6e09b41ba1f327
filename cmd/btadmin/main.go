package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/grafana/gcpclients/pkg/bigtable"
	util_log "github.com/grafana/gcpclients/pkg/util/log"
)

// globalOptions are shared by every command.
type globalOptions struct {
	configFile      string
	project         string
	instance        string
	emulatorHost    string
	endpoint        string
	credentialsFile string
	timeout         time.Duration
	logCfg          util_log.Config
}

func (o *globalOptions) register(app *kingpin.Application) {
	flagext.DefaultValues(&o.logCfg)

	app.Flag("config.file", "YAML file with the bigtable client configuration.").StringVar(&o.configFile)
	app.Flag("project", "Bigtable project ID. Overrides the config file.").Envar("BIGTABLE_PROJECT").StringVar(&o.project)
	app.Flag("instance", "Bigtable instance ID.").Envar("BIGTABLE_INSTANCE").Required().StringVar(&o.instance)
	app.Flag("emulator-host", "Address of a Bigtable emulator.").Envar("BIGTABLE_EMULATOR_HOST").StringVar(&o.emulatorHost)
	app.Flag("endpoint", "Override the admin API endpoint.").StringVar(&o.endpoint)
	app.Flag("credentials-file", "Service account key file.").StringVar(&o.credentialsFile)
	app.Flag("timeout", "Timeout of each admin call.").DurationVar(&o.timeout)
	app.Flag("log.level", "Only log messages with the given severity or above.").SetValue(&o.logCfg.Level)
	app.Flag("log.format", "Output log messages in the given format.").SetValue(&o.logCfg.Format)
}

// config builds the client config from defaults, the config file and flags,
// in that order of precedence.
func (o *globalOptions) config() (bigtable.Config, error) {
	var cfg bigtable.Config
	flagext.DefaultValues(&cfg)
	if o.configFile != "" {
		if err := readConfig(o.configFile, &cfg); err != nil {
			return cfg, err
		}
	}
	if o.project != "" {
		cfg.Project = o.project
	}
	if o.emulatorHost != "" {
		cfg.EmulatorHost = o.emulatorHost
	}
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.credentialsFile != "" {
		cfg.CredentialsFile = o.credentialsFile
	}
	if o.timeout > 0 {
		cfg.Timeout = o.timeout
	}
	return cfg, cfg.Validate()
}

func (o *globalOptions) client(ctx context.Context) (*bigtable.Client, error) {
	util_log.InitLogger(o.logCfg)
	cfg, err := o.config()
	if err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	level.Debug(util_log.Logger).Log("msg", "connecting", "project", cfg.Project, "instance", o.instance, "emulator", cfg.EmulatorHost)
	return bigtable.New(ctx, cfg, nil, util_log.Logger)
}

// withTable runs fn against a handle for tableID.
func (o *globalOptions) withTable(tableID string, fn func(context.Context, *bigtable.Table) error) error {
	ctx := context.Background()
	c, err := o.client(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c.Table(o.instance, tableID))
}

func readConfig(filename string, cfg *bigtable.Config) error {
	buf, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return errors.Wrap(err, "error reading config file")
	}
	if err := yaml.UnmarshalStrict(buf, cfg); err != nil {
		return errors.Wrap(err, "error parsing config file")
	}
	return nil
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
	os.Exit(1)
}

func newApp() *kingpin.Application {
	app := kingpin.New("btadmin", "Administer Bigtable tables.")
	opts := &globalOptions{}
	opts.register(app)

	addTablesCommand(app, opts)
	addGetCommand(app, opts)
	addExistsCommand(app, opts)
	addCreateCommand(app, opts)
	addDeleteCommand(app, opts)
	addModifyCommand(app, opts)
	addDropRowsCommand(app, opts)
	addReplicationCommands(app, opts)
	return app
}

func main() {
	app := newApp()
	app.HelpFlag.Short('h')
	if _, err := app.Parse(os.Args[1:]); err != nil {
		exitWithErr(err)
	}
}
