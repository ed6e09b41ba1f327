package main

import (
	"strconv"
	"strings"
	"time"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/pkg/errors"
	"github.com/prometheus/common/model"

	"github.com/grafana/gcpclients/pkg/bigtable"
)

// familySpec is a column family given on the command line as
//
//	name[:rule]
//
// where rule is "versions=N", "age=D", or several of them joined with "|"
// (any applies) or "&" (all apply). D accepts day and week units, e.g. 7d.
type familySpec struct {
	name string
	rule *btapb.GcRule
}

func parseFamilySpec(s string) (familySpec, error) {
	name, ruleSpec, hasRule := strings.Cut(s, ":")
	if name == "" {
		return familySpec{}, errors.Errorf("column family %q: missing name", s)
	}
	if !hasRule {
		return familySpec{name: name}, nil
	}
	rule, err := parseGCRule(ruleSpec)
	if err != nil {
		return familySpec{}, errors.Wrapf(err, "column family %q", name)
	}
	return familySpec{name: name, rule: rule}, nil
}

func parseGCRule(s string) (*btapb.GcRule, error) {
	union := strings.Contains(s, "|")
	intersection := strings.Contains(s, "&")
	if union && intersection {
		return nil, errors.Errorf("rule %q mixes | and &", s)
	}

	sep := "|"
	if intersection {
		sep = "&"
	}
	parts := strings.Split(s, sep)
	rules := make([]*btapb.GcRule, 0, len(parts))
	for _, p := range parts {
		r, err := parseSimpleRule(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	switch {
	case len(rules) == 1:
		return rules[0], nil
	case intersection:
		return bigtable.IntersectionRule(rules...), nil
	default:
		return bigtable.UnionRule(rules...), nil
	}
}

func parseSimpleRule(s string) (*btapb.GcRule, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return nil, errors.Errorf("rule %q: expected key=value", s)
	}
	switch key {
	case "versions":
		n, err := strconv.ParseInt(value, 10, 32)
		if err != nil || n < 1 {
			return nil, errors.Errorf("rule %q: versions must be a positive integer", s)
		}
		return bigtable.MaxVersionsRule(int32(n)), nil
	case "age":
		d, err := model.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, errors.Errorf("rule %q: age must be a positive duration", s)
		}
		return bigtable.MaxAgeRule(time.Duration(d)), nil
	default:
		return nil, errors.Errorf("rule %q: unknown key %q, expected versions or age", s, key)
	}
}
