package bigtable

import (
	"context"
	"sort"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

const (
	testProject  = "my-project"
	testInstance = "my-instance"
)

// fakeService is an in-memory Service that records every call.
type fakeService struct {
	tables map[string]*btapb.Table

	getCalls     []View
	listCalls    int
	createCalls  []*btapb.Table
	createSplits [][][]byte
	deleteCalls  int
	modifyCalls  [][]*Modification
	dropCalls    []DropRowRangeRequest
	tokenCalls   int
	checkCalls   int

	// checkResults are returned by CheckConsistency in order; the last one
	// repeats.
	checkResults []bool
	getErr       error
	tokenErr     error
	checkErr     error
}

func newFakeService(tables ...*btapb.Table) *fakeService {
	s := &fakeService{tables: map[string]*btapb.Table{}}
	for _, t := range tables {
		s.tables[t.GetName()] = t
	}
	return s
}

func (s *fakeService) rpcCalls() int {
	return len(s.getCalls) + s.listCalls + len(s.createCalls) + s.deleteCalls +
		len(s.modifyCalls) + len(s.dropCalls) + s.tokenCalls + s.checkCalls
}

func notFound(instanceID, tableID string) error {
	return status.Errorf(codes.NotFound, "table %q not found", TablePath(testProject, instanceID, tableID))
}

// scoped returns a copy of t holding only the fields view populates.
func scoped(t *btapb.Table, view View) *btapb.Table {
	out := &btapb.Table{Name: t.GetName()}
	full := proto.Clone(t).(*btapb.Table)
	switch view.orDefault() {
	case ViewSchema:
		out.Granularity = full.Granularity
		out.ColumnFamilies = full.ColumnFamilies
	case ViewReplication:
		out.ClusterStates = full.ClusterStates
	case ViewFull:
		out = full
	}
	return out
}

func (s *fakeService) GetTable(_ context.Context, instanceID, tableID string, view View) (*btapb.Table, error) {
	s.getCalls = append(s.getCalls, view)
	if s.getErr != nil {
		return nil, s.getErr
	}
	t, ok := s.tables[TablePath(testProject, instanceID, tableID)]
	if !ok {
		return nil, notFound(instanceID, tableID)
	}
	return scoped(t, view), nil
}

func (s *fakeService) ListTables(_ context.Context, instanceID string, view View) ([]*btapb.Table, error) {
	s.listCalls++
	var names []string
	for name := range s.tables {
		if pathSegment(name, 3) == instanceID {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]*btapb.Table, 0, len(names))
	for _, name := range names {
		out = append(out, scoped(s.tables[name], view))
	}
	return out, nil
}

func (s *fakeService) CreateTable(_ context.Context, instanceID, tableID string, table *btapb.Table, initialSplits [][]byte) (*btapb.Table, error) {
	s.createCalls = append(s.createCalls, table)
	s.createSplits = append(s.createSplits, initialSplits)
	name := TablePath(testProject, instanceID, tableID)
	if _, ok := s.tables[name]; ok {
		return nil, status.Errorf(codes.AlreadyExists, "table %q already exists", name)
	}
	created := proto.Clone(table).(*btapb.Table)
	created.Name = name
	s.tables[name] = created
	return scoped(created, ViewSchema), nil
}

func (s *fakeService) DeleteTable(_ context.Context, instanceID, tableID string) error {
	s.deleteCalls++
	name := TablePath(testProject, instanceID, tableID)
	if _, ok := s.tables[name]; !ok {
		return notFound(instanceID, tableID)
	}
	delete(s.tables, name)
	return nil
}

func (s *fakeService) ModifyColumnFamilies(_ context.Context, instanceID, tableID string, mods []*Modification) (*btapb.Table, error) {
	s.modifyCalls = append(s.modifyCalls, mods)
	t, ok := s.tables[TablePath(testProject, instanceID, tableID)]
	if !ok {
		return nil, notFound(instanceID, tableID)
	}
	if t.ColumnFamilies == nil {
		t.ColumnFamilies = map[string]*btapb.ColumnFamily{}
	}
	for _, mod := range mods {
		switch m := mod.Mod.(type) {
		case *btapb.ModifyColumnFamiliesRequest_Modification_Create:
			t.ColumnFamilies[mod.Id] = m.Create
		case *btapb.ModifyColumnFamiliesRequest_Modification_Update:
			t.ColumnFamilies[mod.Id] = m.Update
		case *btapb.ModifyColumnFamiliesRequest_Modification_Drop:
			delete(t.ColumnFamilies, mod.Id)
		}
	}
	return scoped(t, ViewSchema), nil
}

func (s *fakeService) DropRowRange(_ context.Context, _, _ string, req DropRowRangeRequest) error {
	s.dropCalls = append(s.dropCalls, req)
	return req.validate()
}

func (s *fakeService) GenerateConsistencyToken(_ context.Context, _, tableID string) (string, error) {
	s.tokenCalls++
	if s.tokenErr != nil {
		return "", s.tokenErr
	}
	return "token-" + tableID, nil
}

func (s *fakeService) CheckConsistency(_ context.Context, _, _, _ string) (bool, error) {
	s.checkCalls++
	if s.checkErr != nil {
		return false, s.checkErr
	}
	if len(s.checkResults) == 0 {
		return true, nil
	}
	i := s.checkCalls - 1
	if i >= len(s.checkResults) {
		i = len(s.checkResults) - 1
	}
	return s.checkResults[i], nil
}

// testTable is a table with two families in one ready cluster.
func testTable(tableID string) *btapb.Table {
	return &btapb.Table{
		Name:        TablePath(testProject, testInstance, tableID),
		Granularity: btapb.Table_MILLIS,
		ColumnFamilies: map[string]*btapb.ColumnFamily{
			"cf1": {GcRule: MaxVersionsRule(1)},
			"cf2": {GcRule: MaxAgeRule(0)},
		},
		ClusterStates: map[string]*btapb.Table_ClusterState{
			"cluster-1": {ReplicationState: btapb.Table_ClusterState_READY},
		},
	}
}
