package dlp

import (
	"flag"

	"github.com/pkg/errors"

	"github.com/grafana/gcpclients/pkg/gcp"
)

// Config for a DLP client. There is no process wide default; each client is
// built from the Config it is given.
type Config struct {
	// Version selects the API version, e.g. "v2".
	Version string `yaml:"version"`

	gcp.ClientConfig `yaml:",inline"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.Version, "dlp.version", DefaultVersion, "DLP API version.")
	cfg.ClientConfig.RegisterFlagsWithPrefix("dlp.", f)
}

// Validate validates the config.
func (cfg *Config) Validate() error {
	if _, err := target(cfg.Version); err != nil {
		return err
	}
	return errors.Wrap(cfg.ClientConfig.Validate(), "invalid dlp config")
}
