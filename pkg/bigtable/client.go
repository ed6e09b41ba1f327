package bigtable

import (
	"context"
	"flag"

	gcbigtable "cloud.google.com/go/bigtable"
	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/grafana/gcpclients/pkg/gcp"
	"github.com/grafana/gcpclients/pkg/util/constants"
)

// Config for a Bigtable admin client.
type Config struct {
	Project string `yaml:"project"`

	gcp.ClientConfig `yaml:",inline"`
}

// RegisterFlags adds the flags required to config this to the given FlagSet.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	f.StringVar(&cfg.Project, "bigtable.project", "", "Bigtable project ID.")
	cfg.ClientConfig.RegisterFlagsWithPrefix("bigtable.", f)
}

// Validate validates the config.
func (cfg *Config) Validate() error {
	if cfg.Project == "" {
		return errors.New("bigtable project must be set")
	}
	return cfg.ClientConfig.Validate()
}

var adminTarget = gcp.Target{
	Service:         "bigtable_admin",
	DefaultEndpoint: "bigtableadmin.googleapis.com:443",
	Scopes:          []string{gcbigtable.AdminScope},
	DefaultLibName:  constants.LibName,
}

// Client creates and looks up tables of one project.
type Client struct {
	projectID string
	service   Service
	logger    log.Logger
	closer    func() error
}

// New dials the table admin API. m may be nil to disable request metrics.
func New(ctx context.Context, cfg Config, m *gcp.Metrics, logger log.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	retry, err := cfg.Retry.CallOptions()
	if err != nil {
		return nil, err
	}
	conn, err := gcp.Dial(ctx, cfg.ClientConfig, adminTarget, m)
	if err != nil {
		return nil, err
	}

	svc := NewGRPCService(conn, cfg.Project, retry, logger)
	svc.closer = conn.Close
	c := NewClient(cfg.Project, svc, logger)
	c.closer = svc.Close
	return c, nil
}

// NewClient returns a client backed by service.
func NewClient(projectID string, service Service, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Client{
		projectID: projectID,
		service:   service,
		logger:    logger,
	}
}

func (c *Client) ProjectID() string {
	return c.projectID
}

// Close releases the connection opened by New.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func (c *Client) wrap(t *Table) *Table {
	t.logger = c.logger
	return t
}

// Table returns a handle without looking the table up.
func (c *Client) Table(instanceID, tableID string) *Table {
	t := NewTable(&btapb.Table{Name: TablePath(c.projectID, instanceID, tableID)}, c.service, ViewNameOnly)
	return c.wrap(t)
}

// LookupTable fetches the table with view and returns a handle for it.
func (c *Client) LookupTable(ctx context.Context, instanceID, tableID string, view View) (*Table, error) {
	if c.service == nil {
		return nil, ErrNoService
	}
	view = view.orDefault()
	resp, err := c.service.GetTable(ctx, instanceID, tableID, view)
	if err != nil {
		return nil, err
	}
	return c.wrap(NewTable(resp, c.service, view)), nil
}

// Tables lists the tables of an instance.
func (c *Client) Tables(ctx context.Context, instanceID string, view View) ([]*Table, error) {
	if c.service == nil {
		return nil, ErrNoService
	}
	view = view.orDefault()
	resp, err := c.service.ListTables(ctx, instanceID, view)
	if err != nil {
		return nil, err
	}
	tables := make([]*Table, 0, len(resp))
	for _, t := range resp {
		tables = append(tables, c.wrap(NewTable(t, c.service, view)))
	}
	return tables, nil
}

// CreateTable creates a table in instanceID. See CreateTable.
func (c *Client) CreateTable(ctx context.Context, instanceID, tableID string, cfg TableConfig, fn func(*ColumnFamilyMap) error) (*Table, error) {
	t, err := CreateTable(ctx, c.service, instanceID, tableID, cfg, fn)
	if err != nil {
		return nil, err
	}
	return c.wrap(t), nil
}
