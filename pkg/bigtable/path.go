package bigtable

import (
	"fmt"
	"strings"
)

const tablePathSegments = 6

// TablePath returns the fully qualified name of a table,
// projects/{project}/instances/{instance}/tables/{table}.
func TablePath(projectID, instanceID, tableID string) string {
	return fmt.Sprintf("%s/tables/%s", InstancePath(projectID, instanceID), tableID)
}

// InstancePath returns the fully qualified name of an instance.
func InstancePath(projectID, instanceID string) string {
	return fmt.Sprintf("projects/%s/instances/%s", projectID, instanceID)
}

// ParseTablePath splits a fully qualified table name into its identifiers.
func ParseTablePath(path string) (projectID, instanceID, tableID string, err error) {
	segments := strings.Split(path, "/")
	if len(segments) != tablePathSegments ||
		segments[0] != "projects" || segments[2] != "instances" || segments[4] != "tables" {
		return "", "", "", invalidArgumentf("malformed table path %q", path)
	}
	for _, s := range []string{segments[1], segments[3], segments[5]} {
		if s == "" {
			return "", "", "", invalidArgumentf("malformed table path %q", path)
		}
	}
	return segments[1], segments[3], segments[5], nil
}

// pathSegment returns segment i of path, or "" for short paths.
func pathSegment(path string, i int) string {
	segments := strings.Split(path, "/")
	if i >= len(segments) {
		return ""
	}
	return segments[i]
}
