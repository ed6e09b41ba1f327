package log

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Logger is the process logger used by the commands in this module. Libraries
// never read it, they take a logger at construction time.
var Logger = log.NewNopLogger()

// Level is a flag.Value selecting the minimum level that gets logged.
type Level struct {
	s      string
	Option level.Option
}

// String implements flag.Value.
func (l Level) String() string {
	return l.s
}

// Set implements flag.Value.
func (l *Level) Set(s string) error {
	switch s {
	case "debug":
		l.Option = level.AllowDebug()
	case "info":
		l.Option = level.AllowInfo()
	case "warn":
		l.Option = level.AllowWarn()
	case "error":
		l.Option = level.AllowError()
	default:
		return errors.Errorf("unrecognized log level %q", s)
	}
	l.s = s
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Level) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return l.Set(s)
}

// MarshalYAML implements yaml.Marshaler.
func (l Level) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// Format is a flag.Value selecting the output encoding, logfmt or json.
type Format struct {
	s string
}

// String implements flag.Value.
func (f Format) String() string {
	return f.s
}

// Set implements flag.Value.
func (f *Format) Set(s string) error {
	switch s {
	case "logfmt", "json":
		f.s = s
		return nil
	default:
		return errors.Errorf("unrecognized log format %q", s)
	}
}

// Config configures the process logger.
type Config struct {
	Level  Level  `yaml:"level"`
	Format Format `yaml:"-"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	_ = cfg.Level.Set("info")
	_ = cfg.Format.Set("logfmt")
	f.Var(&cfg.Level, "log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.Var(&cfg.Format, "log.format", "Output log messages in the given format. Valid formats: [logfmt, json]")
}

// New returns a leveled logger writing to w.
func New(cfg Config, w io.Writer) log.Logger {
	var logger log.Logger
	if cfg.Format.String() == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}
	if cfg.Level.Option != nil {
		logger = level.NewFilter(logger, cfg.Level.Option)
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

// InitLogger initialises the global Logger writing to stderr.
func InitLogger(cfg Config) {
	Logger = New(cfg, os.Stderr)
}

// CheckFatal prints an error and exits with error code 1 if err is non-nil.
func CheckFatal(location string, err error) {
	if err == nil {
		return
	}
	logger := level.Error(Logger)
	if location != "" {
		logger = log.With(logger, "msg", "error "+location)
	}
	// %+v gets the stack trace from errors using github.com/pkg/errors
	_ = logger.Log("err", fmt.Sprintf("%+v", err))
	os.Exit(1)
}
