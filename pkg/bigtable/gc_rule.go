package bigtable

import (
	"time"

	gcbigtable "cloud.google.com/go/bigtable"
	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
)

// MaxVersionsRule deletes all but the n most recent versions of a cell.
func MaxVersionsRule(n int32) *btapb.GcRule {
	return &btapb.GcRule{Rule: &btapb.GcRule_MaxNumVersions{MaxNumVersions: n}}
}

// MaxAgeRule deletes cells older than d.
func MaxAgeRule(d time.Duration) *btapb.GcRule {
	return &btapb.GcRule{Rule: &btapb.GcRule_MaxAge{MaxAge: durationpb.New(d)}}
}

// UnionRule deletes cells matching any of rules.
func UnionRule(rules ...*btapb.GcRule) *btapb.GcRule {
	return &btapb.GcRule{Rule: &btapb.GcRule_Union_{Union: &btapb.GcRule_Union{Rules: rules}}}
}

// IntersectionRule deletes cells matching all of rules.
func IntersectionRule(rules ...*btapb.GcRule) *btapb.GcRule {
	return &btapb.GcRule{Rule: &btapb.GcRule_Intersection_{Intersection: &btapb.GcRule_Intersection{Rules: rules}}}
}

// GCRuleString renders rule for humans, e.g. "(versions() > 3 || age() > 7d)".
// A nil rule never deletes anything.
func GCRuleString(rule *btapb.GcRule) string {
	return gcbigtable.GCRuleToString(rule)
}

func gcRulesEqual(a, b *btapb.GcRule) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return proto.Equal(a, b)
}

func cloneGCRule(rule *btapb.GcRule) *btapb.GcRule {
	if rule == nil {
		return nil
	}
	return proto.Clone(rule).(*btapb.GcRule)
}
