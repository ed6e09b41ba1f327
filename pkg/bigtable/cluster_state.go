package bigtable

import (
	"sort"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
)

// ReplicationState is the state of a table in one cluster.
type ReplicationState = btapb.Table_ClusterState_ReplicationState

// ClusterState is the replication state of a table in a single cluster.
type ClusterState struct {
	ClusterID string
	State     ReplicationState
}

func (c ClusterState) String() string {
	return c.ClusterID + "=" + c.State.String()
}

// Unknown means the state could not be determined, e.g. because the
// cluster's zone is unavailable.
func (c ClusterState) Unknown() bool {
	return c.State == btapb.Table_ClusterState_STATE_NOT_KNOWN
}

// Initializing means the cluster was recently created and the table must
// finish copying over pre-existing data before it serves requests.
func (c ClusterState) Initializing() bool {
	return c.State == btapb.Table_ClusterState_INITIALIZING
}

// PlannedMaintenance means the table is temporarily unable to serve requests
// from this cluster due to planned internal maintenance.
func (c ClusterState) PlannedMaintenance() bool {
	return c.State == btapb.Table_ClusterState_PLANNED_MAINTENANCE
}

// UnplannedMaintenance means the table is temporarily unable to serve
// requests from this cluster due to unplanned or emergency maintenance.
func (c ClusterState) UnplannedMaintenance() bool {
	return c.State == btapb.Table_ClusterState_UNPLANNED_MAINTENANCE
}

// Ready means the table can serve requests from this cluster.
func (c ClusterState) Ready() bool {
	return c.State == btapb.Table_ClusterState_READY
}

// ReadyOptimizing means the table serves requests while the server is still
// optimizing its storage.
func (c ClusterState) ReadyOptimizing() bool {
	return c.State == btapb.Table_ClusterState_READY_OPTIMIZING
}

func clusterStatesFromProto(states map[string]*btapb.Table_ClusterState) []ClusterState {
	out := make([]ClusterState, 0, len(states))
	for id, s := range states {
		out = append(out, ClusterState{ClusterID: id, State: s.GetReplicationState()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out
}
