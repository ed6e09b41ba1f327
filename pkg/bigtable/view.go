package bigtable

import (
	"fmt"
	"strings"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
)

// View controls which table fields a fetch populates. Views are ordered by
// the amount of information they carry: ViewFull covers ViewSchema and
// ViewReplication, which both cover ViewNameOnly.
type View int

const (
	// ViewUnspecified selects ViewSchema wherever a view is optional.
	ViewUnspecified View = iota
	ViewNameOnly
	ViewSchema
	ViewReplication
	ViewFull
)

var viewNames = map[View]string{
	ViewUnspecified: "unspecified",
	ViewNameOnly:    "name_only",
	ViewSchema:      "schema",
	ViewReplication: "replication",
	ViewFull:        "full",
}

func (v View) String() string {
	if s, ok := viewNames[v]; ok {
		return s
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// ParseView accepts the lower case names returned by View.String as well as
// the server enum names, e.g. SCHEMA_VIEW.
func ParseView(s string) (View, error) {
	norm := strings.ToLower(strings.TrimSuffix(strings.ToUpper(s), "_VIEW"))
	for v, name := range viewNames {
		if v != ViewUnspecified && name == norm {
			return v, nil
		}
	}
	return ViewUnspecified, invalidArgumentf("unknown view %q", s)
}

func (v View) orDefault() View {
	if v == ViewUnspecified {
		return ViewSchema
	}
	return v
}

func (v View) proto() btapb.Table_View {
	switch v.orDefault() {
	case ViewNameOnly:
		return btapb.Table_NAME_ONLY
	case ViewReplication:
		return btapb.Table_REPLICATION_VIEW
	case ViewFull:
		return btapb.Table_FULL
	default:
		return btapb.Table_SCHEMA_VIEW
	}
}
