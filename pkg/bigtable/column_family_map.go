package bigtable

import (
	"sort"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
)

// Modification is a single column family change sent to the server.
type Modification = btapb.ModifyColumnFamiliesRequest_Modification

// ColumnFamilyMap is an ordered mapping from column family name to its
// garbage collection rule. A frozen map rejects every change; use Clone to
// get a mutable copy.
type ColumnFamilyMap struct {
	names  []string
	rules  map[string]*btapb.GcRule
	frozen bool
}

// NewColumnFamilyMap returns an empty, mutable map. The zero value is also
// an empty, mutable map.
func NewColumnFamilyMap() *ColumnFamilyMap {
	return &ColumnFamilyMap{rules: map[string]*btapb.GcRule{}}
}

// columnFamilyMapFromProto copies families, ordering them by name.
func columnFamilyMapFromProto(families map[string]*btapb.ColumnFamily) *ColumnFamilyMap {
	m := NewColumnFamilyMap()
	for name := range families {
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	for _, name := range m.names {
		m.rules[name] = cloneGCRule(families[name].GetGcRule())
	}
	return m
}

// Add creates family name. It fails if the family already exists.
func (m *ColumnFamilyMap) Add(name string, rule *btapb.GcRule) error {
	if m.frozen {
		return ErrFrozen
	}
	if name == "" {
		return invalidArgumentf("column family name must not be empty")
	}
	if _, ok := m.rules[name]; ok {
		return invalidArgumentf("column family %q already exists", name)
	}
	if m.rules == nil {
		m.rules = map[string]*btapb.GcRule{}
	}
	m.names = append(m.names, name)
	m.rules[name] = cloneGCRule(rule)
	return nil
}

// Update replaces the rule of an existing family.
func (m *ColumnFamilyMap) Update(name string, rule *btapb.GcRule) error {
	if m.frozen {
		return ErrFrozen
	}
	if _, ok := m.rules[name]; !ok {
		return invalidArgumentf("column family %q does not exist", name)
	}
	m.rules[name] = cloneGCRule(rule)
	return nil
}

// Delete removes an existing family.
func (m *ColumnFamilyMap) Delete(name string) error {
	if m.frozen {
		return ErrFrozen
	}
	if _, ok := m.rules[name]; !ok {
		return invalidArgumentf("column family %q does not exist", name)
	}
	delete(m.rules, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i:i], m.names[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of the rule of family name.
func (m *ColumnFamilyMap) Get(name string) (*btapb.GcRule, bool) {
	rule, ok := m.rules[name]
	return cloneGCRule(rule), ok
}

func (m *ColumnFamilyMap) Has(name string) bool {
	_, ok := m.rules[name]
	return ok
}

// Names returns the family names in map order.
func (m *ColumnFamilyMap) Names() []string {
	return append([]string(nil), m.names...)
}

func (m *ColumnFamilyMap) Len() int {
	return len(m.names)
}

// Freeze makes m immutable and returns it.
func (m *ColumnFamilyMap) Freeze() *ColumnFamilyMap {
	m.frozen = true
	return m
}

func (m *ColumnFamilyMap) Frozen() bool {
	return m.frozen
}

// Clone returns a deep, mutable copy of m.
func (m *ColumnFamilyMap) Clone() *ColumnFamilyMap {
	c := NewColumnFamilyMap()
	c.names = append(c.names, m.names...)
	for name, rule := range m.rules {
		c.rules[name] = cloneGCRule(rule)
	}
	return c
}

func (m *ColumnFamilyMap) proto() map[string]*btapb.ColumnFamily {
	out := make(map[string]*btapb.ColumnFamily, len(m.names))
	for _, name := range m.names {
		out[name] = &btapb.ColumnFamily{GcRule: cloneGCRule(m.rules[name])}
	}
	return out
}

// Modifications returns the changes that turn prior into m: creates first,
// then updates, then drops. Creates and updates follow the order of m, drops
// the order of prior.
func (m *ColumnFamilyMap) Modifications(prior *ColumnFamilyMap) []*Modification {
	var creates, updates, drops []*Modification
	for _, name := range m.names {
		rule := m.rules[name]
		old, ok := prior.rules[name]
		switch {
		case !ok:
			creates = append(creates, &Modification{
				Id:  name,
				Mod: &btapb.ModifyColumnFamiliesRequest_Modification_Create{Create: &btapb.ColumnFamily{GcRule: cloneGCRule(rule)}},
			})
		case !gcRulesEqual(old, rule):
			updates = append(updates, &Modification{
				Id:  name,
				Mod: &btapb.ModifyColumnFamiliesRequest_Modification_Update{Update: &btapb.ColumnFamily{GcRule: cloneGCRule(rule)}},
			})
		}
	}
	for _, name := range prior.names {
		if _, ok := m.rules[name]; !ok {
			drops = append(drops, &Modification{
				Id:  name,
				Mod: &btapb.ModifyColumnFamiliesRequest_Modification_Drop{Drop: true},
			})
		}
	}

	out := make([]*Modification, 0, len(creates)+len(updates)+len(drops))
	out = append(out, creates...)
	out = append(out, updates...)
	return append(out, drops...)
}

// ModificationString renders mod for logs.
func ModificationString(mod *Modification) string {
	switch mod.GetMod().(type) {
	case *btapb.ModifyColumnFamiliesRequest_Modification_Create:
		return "create " + mod.GetId() + " " + GCRuleString(mod.GetCreate().GetGcRule())
	case *btapb.ModifyColumnFamiliesRequest_Modification_Update:
		return "update " + mod.GetId() + " " + GCRuleString(mod.GetUpdate().GetGcRule())
	case *btapb.ModifyColumnFamiliesRequest_Modification_Drop:
		return "drop " + mod.GetId()
	default:
		return "unknown " + mod.GetId()
	}
}
