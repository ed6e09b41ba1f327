package dlp

import (
	"context"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"github.com/grafana/gcpclients/pkg/gcp"
	"github.com/grafana/gcpclients/pkg/util/constants"
)

const DefaultVersion = "v2"

var targets = map[string]gcp.Target{
	"v2": {
		Service:         "dlp_v2",
		DefaultEndpoint: "dlp.googleapis.com:443",
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		DefaultLibName:  constants.LibName,
	},
}

// normalizeVersion maps "V2", "v_2" and "" to the canonical version name.
func normalizeVersion(version string) string {
	if version == "" {
		return DefaultVersion
	}
	return strings.ReplaceAll(strings.ToLower(version), "_", "")
}

func target(version string) (gcp.Target, error) {
	t, ok := targets[normalizeVersion(version)]
	if !ok {
		return gcp.Target{}, errors.Errorf("unsupported dlp version %q, supported: %s", version, strings.Join(Versions(), ", "))
	}
	return t, nil
}

// Versions returns the supported API versions.
func Versions() []string {
	out := make([]string, 0, len(targets))
	for v := range targets {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Client is a connection to one version of the DLP service. Request and
// response messages come from the generated stubs for that version, which
// are invoked over Conn.
type Client struct {
	version string
	conn    *grpc.ClientConn
}

// NewClient connects to the DLP API version named in cfg. m may be nil.
// opts are applied after the ones derived from cfg.
func NewClient(ctx context.Context, cfg Config, m *gcp.Metrics, logger log.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t, _ := target(cfg.Version)
	conn, err := gcp.Dial(ctx, cfg.ClientConfig, t, m, opts...)
	if err != nil {
		return nil, err
	}

	version := normalizeVersion(cfg.Version)
	level.Debug(logger).Log("msg", "dlp client created", "version", version, "user_agent", cfg.UserAgent(t.DefaultLibName))
	return &Client{version: version, conn: conn}, nil
}

func (c *Client) Version() string {
	return c.version
}

// Conn returns the underlying connection for use with generated stubs.
func (c *Client) Conn() grpc.ClientConnInterface {
	return c.conn
}

func (c *Client) Close() error {
	return c.conn.Close()
}
