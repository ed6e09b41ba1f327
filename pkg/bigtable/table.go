package bigtable

import (
	"context"
	"time"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Table is a handle to a Bigtable table. It caches the parts of the table's
// metadata fetched so far, scoped by View, and loads missing parts lazily.
//
// A Table is not safe for concurrent use. Calls on the same handle mutate
// the cached snapshot without locking and must be synchronized by the caller.
type Table struct {
	path    string
	service Service
	logger  log.Logger

	view        View
	snapshot    snapshot
	loadedViews map[View]struct{}
}

// snapshot is the locally cached subset of a table's metadata.
type snapshot struct {
	granularity    btapb.Table_TimestampGranularity
	columnFamilies map[string]*btapb.ColumnFamily
	clusterStates  map[string]*btapb.Table_ClusterState
}

func (s *snapshot) setSchema(t *btapb.Table) {
	s.granularity = t.GetGranularity()
	s.columnFamilies = t.GetColumnFamilies()
}

func (s *snapshot) setReplication(t *btapb.Table) {
	s.clusterStates = t.GetClusterStates()
}

// merge overwrites the fields populated by view and leaves the rest alone.
func (s *snapshot) merge(view View, t *btapb.Table) {
	switch view {
	case ViewSchema:
		s.setSchema(t)
	case ViewReplication:
		s.setReplication(t)
	case ViewFull:
		s.setSchema(t)
		s.setReplication(t)
	}
}

// NewTable wraps a table returned by the admin API. view is the view the
// table was fetched with; ViewUnspecified means ViewSchema.
func NewTable(t *btapb.Table, service Service, view View) *Table {
	view = view.orDefault()
	tbl := &Table{
		path:        t.GetName(),
		service:     service,
		logger:      log.NewNopLogger(),
		view:        view,
		loadedViews: map[View]struct{}{view: {}},
	}
	tbl.snapshot.setSchema(t)
	tbl.snapshot.setReplication(t)
	return tbl
}

// projectScoped is implemented by services that address a single project.
type projectScoped interface {
	ProjectID() string
}

// TableFromPath returns a handle for a table that has not been looked up yet.
// Nothing is fetched until a field is accessed. The path must name the
// service's project when the service is bound to one.
func TableFromPath(path string, service Service) (*Table, error) {
	projectID, _, _, err := ParseTablePath(path)
	if err != nil {
		return nil, err
	}
	if ps, ok := service.(projectScoped); ok && ps.ProjectID() != projectID {
		return nil, invalidArgumentf("table %q is not in project %q", path, ps.ProjectID())
	}
	return NewTable(&btapb.Table{Name: path}, service, ViewNameOnly), nil
}

// TableConfig describes a table to create.
type TableConfig struct {
	// ColumnFamilies is copied, never modified. It may be frozen.
	ColumnFamilies *ColumnFamilyMap
	Granularity    btapb.Table_TimestampGranularity
	// InitialSplits pre-splits the table at these row keys.
	InitialSplits [][]byte
}

// CreateTable creates a table and returns a handle for it. When fn is not
// nil it is called with a mutable copy of cfg.ColumnFamilies before the
// request is sent.
func CreateTable(ctx context.Context, service Service, instanceID, tableID string, cfg TableConfig, fn func(*ColumnFamilyMap) error) (*Table, error) {
	if service == nil {
		return nil, ErrNoService
	}
	families := NewColumnFamilyMap()
	if cfg.ColumnFamilies != nil {
		families = cfg.ColumnFamilies.Clone()
	}
	if fn != nil {
		if err := fn(families); err != nil {
			return nil, err
		}
	}

	resp, err := service.CreateTable(ctx, instanceID, tableID, &btapb.Table{
		ColumnFamilies: families.proto(),
		Granularity:    cfg.Granularity,
	}, cfg.InitialSplits)
	if err != nil {
		return nil, err
	}
	return NewTable(resp, service, ViewSchema), nil
}

// ProjectID returns the project the table belongs to.
func (t *Table) ProjectID() string {
	return pathSegment(t.path, 1)
}

func (t *Table) InstanceID() string {
	return pathSegment(t.path, 3)
}

func (t *Table) TableID() string {
	return pathSegment(t.path, 5)
}

// Name is an alias for TableID.
func (t *Table) Name() string {
	return t.TableID()
}

// Path returns the fully qualified table name.
func (t *Table) Path() string {
	return t.path
}

// View returns the view the handle was created or last reloaded with.
func (t *Table) View() View {
	return t.view
}

// LoadedViews returns the views fetched since creation or the last Reload.
func (t *Table) LoadedViews() []View {
	var out []View
	for _, v := range []View{ViewNameOnly, ViewSchema, ViewReplication, ViewFull} {
		if t.viewLoaded(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *Table) viewLoaded(v View) bool {
	_, ok := t.loadedViews[v]
	return ok
}

func (t *Table) ensureService() error {
	if t.service == nil {
		return ErrNoService
	}
	return nil
}

// checkViewAndLoad fetches the table with view unless view or ViewFull has
// been loaded already, then merges the fields view populates.
func (t *Table) checkViewAndLoad(ctx context.Context, view View) error {
	if err := t.ensureService(); err != nil {
		return err
	}
	if t.viewLoaded(view) || t.viewLoaded(ViewFull) {
		return nil
	}

	level.Debug(t.logger).Log("msg", "loading table view", "table", t.path, "view", view)
	resp, err := t.service.GetTable(ctx, t.InstanceID(), t.TableID(), view)
	if err != nil {
		return err
	}
	t.loadedViews[view] = struct{}{}
	t.snapshot.merge(view, resp)
	return nil
}

// Reload fetches the table with view, replacing everything cached so far.
// ViewUnspecified means ViewSchema.
func (t *Table) Reload(ctx context.Context, view View) error {
	if err := t.ensureService(); err != nil {
		return err
	}
	view = view.orDefault()
	resp, err := t.service.GetTable(ctx, t.InstanceID(), t.TableID(), view)
	if err != nil {
		return err
	}
	t.view = view
	t.loadedViews = map[View]struct{}{view: {}}
	t.snapshot = snapshot{}
	t.snapshot.setSchema(resp)
	t.snapshot.setReplication(resp)
	return nil
}

// ClusterStates returns the per cluster replication state, ordered by
// cluster ID. Loads ViewReplication if needed.
func (t *Table) ClusterStates(ctx context.Context) ([]ClusterState, error) {
	if err := t.checkViewAndLoad(ctx, ViewReplication); err != nil {
		return nil, err
	}
	return clusterStatesFromProto(t.snapshot.clusterStates), nil
}

// ColumnFamilies returns a frozen copy of the table's column families.
// Loads ViewSchema if needed.
func (t *Table) ColumnFamilies(ctx context.Context) (*ColumnFamilyMap, error) {
	if err := t.checkViewAndLoad(ctx, ViewSchema); err != nil {
		return nil, err
	}
	return columnFamilyMapFromProto(t.snapshot.columnFamilies).Freeze(), nil
}

// ModifyColumnFamilies calls fn with a mutable copy of the column families
// and sends the resulting changes to the server in a single request. Nothing
// is sent when fn leaves the families unchanged. The returned map is frozen
// and reflects the server's response.
//
// The server applies all changes or none, but other readers may observe a
// partially applied state while the request is in flight.
func (t *Table) ModifyColumnFamilies(ctx context.Context, fn func(*ColumnFamilyMap) error) (*ColumnFamilyMap, error) {
	if fn == nil {
		return nil, invalidArgumentf("column family modification function must not be nil")
	}
	if err := t.checkViewAndLoad(ctx, ViewSchema); err != nil {
		return nil, err
	}

	prior := columnFamilyMapFromProto(t.snapshot.columnFamilies)
	families := prior.Clone()
	if err := fn(families); err != nil {
		return nil, err
	}

	mods := families.Modifications(prior)
	if len(mods) == 0 {
		return prior.Freeze(), nil
	}

	for _, mod := range mods {
		level.Debug(t.logger).Log("msg", "modifying column family", "table", t.path, "modification", ModificationString(mod))
	}
	resp, err := t.service.ModifyColumnFamilies(ctx, t.InstanceID(), t.TableID(), mods)
	if err != nil {
		return nil, err
	}
	t.snapshot.setSchema(resp)
	return columnFamilyMapFromProto(t.snapshot.columnFamilies).Freeze(), nil
}

// Granularity returns the timestamp granularity of the table. Loads
// ViewSchema if needed.
func (t *Table) Granularity(ctx context.Context) (btapb.Table_TimestampGranularity, error) {
	if err := t.checkViewAndLoad(ctx, ViewSchema); err != nil {
		return btapb.Table_TIMESTAMP_GRANULARITY_UNSPECIFIED, err
	}
	return t.snapshot.granularity, nil
}

// GranularityMillis reports whether timestamps are kept at millisecond
// granularity.
func (t *Table) GranularityMillis(ctx context.Context) (bool, error) {
	g, err := t.Granularity(ctx)
	if err != nil {
		return false, err
	}
	return g == btapb.Table_MILLIS, nil
}

// Delete deletes the table and all of its data.
func (t *Table) Delete(ctx context.Context) error {
	if err := t.ensureService(); err != nil {
		return err
	}
	return t.service.DeleteTable(ctx, t.InstanceID(), t.TableID())
}

type lookupOutcome int

const (
	lookupFound lookupOutcome = iota
	lookupNotFound
	lookupFailed
)

type lookupResult struct {
	outcome lookupOutcome
	err     error
}

func (t *Table) lookup(ctx context.Context) lookupResult {
	_, err := t.service.GetTable(ctx, t.InstanceID(), t.TableID(), ViewNameOnly)
	switch {
	case err == nil:
		return lookupResult{outcome: lookupFound}
	case IsNotFound(err):
		return lookupResult{outcome: lookupNotFound}
	default:
		return lookupResult{outcome: lookupFailed, err: err}
	}
}

// Exists reports whether the table exists. A NotFound response is reported
// as false; every other error is returned.
func (t *Table) Exists(ctx context.Context) (bool, error) {
	if err := t.ensureService(); err != nil {
		return false, err
	}
	res := t.lookup(ctx)
	switch res.outcome {
	case lookupFound:
		return true, nil
	case lookupNotFound:
		return false, nil
	default:
		return false, res.err
	}
}

// GenerateConsistencyToken returns a token for CheckConsistency. Tokens are
// valid for 90 days.
func (t *Table) GenerateConsistencyToken(ctx context.Context) (string, error) {
	if err := t.ensureService(); err != nil {
		return "", err
	}
	return t.service.GenerateConsistencyToken(ctx, t.InstanceID(), t.TableID())
}

// CheckConsistency reports whether all writes that finished before token was
// generated have been replicated to every cluster.
func (t *Table) CheckConsistency(ctx context.Context, token string) (bool, error) {
	if err := t.ensureService(); err != nil {
		return false, err
	}
	return t.service.CheckConsistency(ctx, t.InstanceID(), t.TableID(), token)
}

// DeleteAllRows deletes every row in the table. timeout bounds the call
// when positive.
func (t *Table) DeleteAllRows(ctx context.Context, timeout time.Duration) error {
	return t.DropRowRange(ctx, DropRowRangeRequest{DeleteAllData: true, Timeout: timeout})
}

// DeleteRowsByPrefix deletes every row whose key starts with prefix.
func (t *Table) DeleteRowsByPrefix(ctx context.Context, prefix []byte, timeout time.Duration) error {
	return t.DropRowRange(ctx, DropRowRangeRequest{RowKeyPrefix: prefix, Timeout: timeout})
}

// DropRowRange deletes the rows selected by req.
func (t *Table) DropRowRange(ctx context.Context, req DropRowRangeRequest) error {
	if err := t.ensureService(); err != nil {
		return err
	}
	return t.service.DropRowRange(ctx, t.InstanceID(), t.TableID(), req)
}
