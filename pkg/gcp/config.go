package gcp

import (
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/googleapis/gax-go/v2"
	"github.com/grafana/dskit/backoff"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

// ClientConfig is the per-client configuration shared by every Google Cloud
// client in this module. It is passed explicitly at construction time.
type ClientConfig struct {
	// Endpoint overrides the service's default host:port.
	Endpoint string `yaml:"endpoint"`
	// EmulatorHost dials an unauthenticated plaintext emulator when set.
	EmulatorHost string `yaml:"emulator_host"`

	CredentialsFile string         `yaml:"credentials_file"`
	Credentials     flagext.Secret `yaml:"credentials"`

	LibName    string `yaml:"lib_name"`
	LibVersion string `yaml:"lib_version"`

	// Timeout applies to calls whose context has no deadline.
	Timeout  time.Duration     `yaml:"timeout"`
	Metadata map[string]string `yaml:"metadata"`

	Retry RetryConfig `yaml:"retry_policy"`

	// BackoffConfig controls retries of calls rejected with RESOURCE_EXHAUSTED.
	BackoffOnRatelimits bool           `yaml:"backoff_on_ratelimits"`
	BackoffConfig       backoff.Config `yaml:"backoff_config"`

	// Interceptors run before calls are executed, after the built-in ones.
	Interceptors []grpc.UnaryClientInterceptor `yaml:"-"`
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given FlagSet.
func (cfg *ClientConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Endpoint, prefix+"endpoint", "", "Override the service endpoint (host:port).")
	f.StringVar(&cfg.EmulatorHost, prefix+"emulator-host", "", "Address of a local emulator. Disables authentication and TLS.")
	f.StringVar(&cfg.CredentialsFile, prefix+"credentials-file", "", "Path to a service account key file.")
	f.Var(&cfg.Credentials, prefix+"credentials", "Service account key JSON. Mutually exclusive with the credentials file.")
	f.StringVar(&cfg.LibName, prefix+"lib-name", "", "Library name recorded in the user agent.")
	f.StringVar(&cfg.LibVersion, prefix+"lib-version", "", "Library version recorded in the user agent.")
	f.DurationVar(&cfg.Timeout, prefix+"timeout", 0, "Default timeout for calls without a deadline. 0 disables it.")
	f.BoolVar(&cfg.BackoffOnRatelimits, prefix+"backoff-on-ratelimits", false, "Enable backoff and retry when hitting rate limits.")

	cfg.Retry.RegisterFlagsWithPrefix(prefix+"retry.", f)
	cfg.BackoffConfig.RegisterFlagsWithPrefix(strings.TrimSuffix(prefix, "."), f)
}

// Validate validates the config.
func (cfg *ClientConfig) Validate() error {
	if cfg.CredentialsFile != "" && cfg.Credentials.String() != "" {
		return errors.New("only one of credentials_file and credentials may be set")
	}
	if cfg.Timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if err := cfg.Retry.Validate(); err != nil {
		return errors.Wrap(err, "invalid retry_policy")
	}
	return nil
}

// UserAgent returns the user agent advertised by clients built from cfg.
func (cfg *ClientConfig) UserAgent(defaultName string) string {
	name := cfg.LibName
	if name == "" {
		name = defaultName
	}
	if cfg.LibVersion == "" {
		return name
	}
	return name + "/" + cfg.LibVersion
}

// RetryConfig is the retry policy applied to idempotent calls.
type RetryConfig struct {
	InitialDelay time.Duration          `yaml:"initial_delay"`
	MaxDelay     time.Duration          `yaml:"max_delay"`
	Multiplier   float64                `yaml:"multiplier"`
	RetryCodes   flagext.StringSliceCSV `yaml:"retry_codes"`
}

// RegisterFlagsWithPrefix adds the flags required to config this to the given FlagSet.
func (cfg *RetryConfig) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	cfg.RetryCodes = []string{"UNAVAILABLE", "DEADLINE_EXCEEDED"}
	f.DurationVar(&cfg.InitialDelay, prefix+"initial-delay", time.Second, "Delay before the first retry.")
	f.DurationVar(&cfg.MaxDelay, prefix+"max-delay", 32*time.Second, "Maximum delay between retries.")
	f.Float64Var(&cfg.Multiplier, prefix+"multiplier", 1.3, "Multiplier applied to the delay after each retry.")
	f.Var(&cfg.RetryCodes, prefix+"codes", "Comma separated gRPC status codes that trigger a retry.")
}

// Validate validates the config.
func (cfg *RetryConfig) Validate() error {
	if len(cfg.RetryCodes) == 0 {
		return nil
	}
	if cfg.Multiplier < 1 {
		return errors.Errorf("multiplier must be at least 1, got %s", strconv.FormatFloat(cfg.Multiplier, 'f', -1, 64))
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		return errors.Errorf("max_delay %s is smaller than initial_delay %s", cfg.MaxDelay, cfg.InitialDelay)
	}
	_, err := cfg.codes()
	return err
}

func (cfg *RetryConfig) codes() ([]codes.Code, error) {
	out := make([]codes.Code, 0, len(cfg.RetryCodes))
	for _, name := range cfg.RetryCodes {
		var c codes.Code
		quoted := strconv.Quote(strings.ToUpper(strings.TrimSpace(name)))
		if err := c.UnmarshalJSON([]byte(quoted)); err != nil {
			return nil, errors.Errorf("unknown status code %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}

// CallOptions converts the policy into gax call options. An empty policy
// disables retries.
func (cfg *RetryConfig) CallOptions() ([]gax.CallOption, error) {
	if len(cfg.RetryCodes) == 0 {
		return nil, nil
	}
	retryCodes, err := cfg.codes()
	if err != nil {
		return nil, err
	}
	bo := gax.Backoff{
		Initial:    cfg.InitialDelay,
		Max:        cfg.MaxDelay,
		Multiplier: cfg.Multiplier,
	}
	return []gax.CallOption{
		gax.WithRetry(func() gax.Retryer {
			return gax.OnCodes(retryCodes, bo)
		}),
	}, nil
}
