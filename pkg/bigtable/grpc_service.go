package bigtable

import (
	"context"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const resourcePrefixHeader = "google-cloud-resource-prefix"

// GRPCService implements Service on top of the Bigtable table admin gRPC API.
// Read-only calls are retried with the configured policy; mutations are not.
type GRPCService struct {
	projectID string
	client    btapb.BigtableTableAdminClient
	retry     []gax.CallOption
	logger    log.Logger

	// closer is set when the service owns its connection.
	closer func() error
}

// NewGRPCService returns a service using conn. The caller keeps ownership
// of conn.
func NewGRPCService(conn grpc.ClientConnInterface, projectID string, retry []gax.CallOption, logger log.Logger) *GRPCService {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &GRPCService{
		projectID: projectID,
		client:    btapb.NewBigtableTableAdminClient(conn),
		retry:     retry,
		logger:    logger,
	}
}

// Close releases the connection when the service dialed it itself.
func (s *GRPCService) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *GRPCService) ProjectID() string {
	return s.projectID
}

func (s *GRPCService) withPrefix(ctx context.Context, instanceID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, resourcePrefixHeader, InstancePath(s.projectID, instanceID))
}

func (s *GRPCService) tablePath(instanceID, tableID string) string {
	return TablePath(s.projectID, instanceID, tableID)
}

func (s *GRPCService) GetTable(ctx context.Context, instanceID, tableID string, view View) (*btapb.Table, error) {
	ctx = s.withPrefix(ctx, instanceID)
	req := &btapb.GetTableRequest{
		Name: s.tablePath(instanceID, tableID),
		View: view.proto(),
	}

	var res *btapb.Table
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		var err error
		res, err = s.client.GetTable(ctx, req)
		return err
	}, s.retry...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *GRPCService) ListTables(ctx context.Context, instanceID string, view View) ([]*btapb.Table, error) {
	ctx = s.withPrefix(ctx, instanceID)
	req := &btapb.ListTablesRequest{
		Parent: InstancePath(s.projectID, instanceID),
		View:   view.proto(),
	}

	var tables []*btapb.Table
	for {
		var res *btapb.ListTablesResponse
		err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
			var err error
			res, err = s.client.ListTables(ctx, req)
			return err
		}, s.retry...)
		if err != nil {
			return nil, err
		}
		tables = append(tables, res.GetTables()...)
		if res.GetNextPageToken() == "" {
			return tables, nil
		}
		req.PageToken = res.GetNextPageToken()
	}
}

func (s *GRPCService) CreateTable(ctx context.Context, instanceID, tableID string, table *btapb.Table, initialSplits [][]byte) (*btapb.Table, error) {
	ctx = s.withPrefix(ctx, instanceID)
	req := &btapb.CreateTableRequest{
		Parent:  InstancePath(s.projectID, instanceID),
		TableId: tableID,
		Table:   table,
	}
	for _, key := range initialSplits {
		req.InitialSplits = append(req.InitialSplits, &btapb.CreateTableRequest_Split{Key: key})
	}

	level.Debug(s.logger).Log("msg", "creating table", "instance", instanceID, "table", tableID, "column_families", len(table.GetColumnFamilies()))
	return s.client.CreateTable(ctx, req)
}

func (s *GRPCService) DeleteTable(ctx context.Context, instanceID, tableID string) error {
	ctx = s.withPrefix(ctx, instanceID)
	level.Debug(s.logger).Log("msg", "deleting table", "instance", instanceID, "table", tableID)
	_, err := s.client.DeleteTable(ctx, &btapb.DeleteTableRequest{Name: s.tablePath(instanceID, tableID)})
	return err
}

func (s *GRPCService) ModifyColumnFamilies(ctx context.Context, instanceID, tableID string, mods []*Modification) (*btapb.Table, error) {
	ctx = s.withPrefix(ctx, instanceID)
	return s.client.ModifyColumnFamilies(ctx, &btapb.ModifyColumnFamiliesRequest{
		Name:          s.tablePath(instanceID, tableID),
		Modifications: mods,
	})
}

func (s *GRPCService) DropRowRange(ctx context.Context, instanceID, tableID string, r DropRowRangeRequest) error {
	if err := r.validate(); err != nil {
		return err
	}
	req := &btapb.DropRowRangeRequest{Name: s.tablePath(instanceID, tableID)}
	if r.DeleteAllData {
		req.Target = &btapb.DropRowRangeRequest_DeleteAllDataFromTable{DeleteAllDataFromTable: true}
	} else {
		req.Target = &btapb.DropRowRangeRequest_RowKeyPrefix{RowKeyPrefix: r.RowKeyPrefix}
	}

	ctx = s.withPrefix(ctx, instanceID)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	level.Debug(s.logger).Log("msg", "dropping rows", "instance", instanceID, "table", tableID, "all", r.DeleteAllData, "prefix", string(r.RowKeyPrefix))
	_, err := s.client.DropRowRange(ctx, req)
	return err
}

func (s *GRPCService) GenerateConsistencyToken(ctx context.Context, instanceID, tableID string) (string, error) {
	ctx = s.withPrefix(ctx, instanceID)
	req := &btapb.GenerateConsistencyTokenRequest{Name: s.tablePath(instanceID, tableID)}

	var res *btapb.GenerateConsistencyTokenResponse
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		var err error
		res, err = s.client.GenerateConsistencyToken(ctx, req)
		return err
	}, s.retry...)
	if err != nil {
		return "", err
	}
	return res.GetConsistencyToken(), nil
}

func (s *GRPCService) CheckConsistency(ctx context.Context, instanceID, tableID, token string) (bool, error) {
	ctx = s.withPrefix(ctx, instanceID)
	req := &btapb.CheckConsistencyRequest{
		Name:             s.tablePath(instanceID, tableID),
		ConsistencyToken: token,
	}

	var res *btapb.CheckConsistencyResponse
	err := gax.Invoke(ctx, func(ctx context.Context, _ gax.CallSettings) error {
		var err error
		res, err = s.client.CheckConsistency(ctx, req)
		return err
	}, s.retry...)
	if err != nil {
		return false, err
	}
	return res.GetConsistent(), nil
}
