package bigtable

import (
	"context"
	"time"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
)

// Service is the remote table admin API a Table talks to. Errors are gRPC
// status errors, so NotFound and friends can be told apart with IsNotFound
// and the other helpers in this package.
type Service interface {
	GetTable(ctx context.Context, instanceID, tableID string, view View) (*btapb.Table, error)
	ListTables(ctx context.Context, instanceID string, view View) ([]*btapb.Table, error)
	CreateTable(ctx context.Context, instanceID, tableID string, table *btapb.Table, initialSplits [][]byte) (*btapb.Table, error)
	DeleteTable(ctx context.Context, instanceID, tableID string) error
	ModifyColumnFamilies(ctx context.Context, instanceID, tableID string, mods []*Modification) (*btapb.Table, error)
	DropRowRange(ctx context.Context, instanceID, tableID string, req DropRowRangeRequest) error
	GenerateConsistencyToken(ctx context.Context, instanceID, tableID string) (string, error)
	CheckConsistency(ctx context.Context, instanceID, tableID, token string) (bool, error)
}

// DropRowRangeRequest selects the rows to delete. Exactly one of
// RowKeyPrefix and DeleteAllData must be set.
type DropRowRangeRequest struct {
	RowKeyPrefix  []byte
	DeleteAllData bool
	// Timeout bounds the call when positive.
	Timeout time.Duration
}

func (r DropRowRangeRequest) validate() error {
	switch {
	case r.DeleteAllData && len(r.RowKeyPrefix) > 0:
		return invalidArgumentf("row key prefix and delete all data are mutually exclusive")
	case !r.DeleteAllData && len(r.RowKeyPrefix) == 0:
		return invalidArgumentf("one of row key prefix or delete all data is required")
	case r.Timeout < 0:
		return invalidArgumentf("timeout must not be negative, got %s", r.Timeout)
	}
	return nil
}
