package bigtable

import (
	"testing"
	"time"

	btapb "cloud.google.com/go/bigtable/admin/apiv2/adminpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestColumnFamilyMapEdits(t *testing.T) {
	m := NewColumnFamilyMap()
	require.NoError(t, m.Add("b", MaxVersionsRule(1)))
	require.NoError(t, m.Add("a", nil))
	require.NoError(t, m.Add("c", MaxAgeRule(time.Hour)))

	assert.Equal(t, []string{"b", "a", "c"}, m.Names())
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Has("a"))

	require.True(t, IsInvalidArgument(m.Add("a", nil)))
	require.True(t, IsInvalidArgument(m.Add("", nil)))
	require.True(t, IsInvalidArgument(m.Update("missing", nil)))
	require.True(t, IsInvalidArgument(m.Delete("missing")))

	require.NoError(t, m.Update("b", MaxVersionsRule(2)))
	rule, ok := m.Get("b")
	require.True(t, ok)
	assert.True(t, proto.Equal(MaxVersionsRule(2), rule))

	require.NoError(t, m.Delete("a"))
	assert.Equal(t, []string{"b", "c"}, m.Names())
	_, ok = m.Get("a")
	assert.False(t, ok)
}

func TestColumnFamilyMapZeroValue(t *testing.T) {
	var m ColumnFamilyMap
	assert.Zero(t, m.Len())
	assert.False(t, m.Has("cf"))

	require.NoError(t, m.Add("cf", MaxVersionsRule(1)))
	require.NoError(t, m.Update("cf", MaxVersionsRule(2)))
	assert.Equal(t, []string{"cf"}, m.Names())

	next := m.Clone()
	require.NoError(t, next.Delete("cf"))
	assert.Len(t, next.Modifications(&m), 1)
}

func TestColumnFamilyMapGetReturnsCopy(t *testing.T) {
	m := NewColumnFamilyMap()
	require.NoError(t, m.Add("cf", MaxVersionsRule(1)))

	rule, _ := m.Get("cf")
	rule.Rule = &btapb.GcRule_MaxNumVersions{MaxNumVersions: 9}

	again, _ := m.Get("cf")
	assert.True(t, proto.Equal(MaxVersionsRule(1), again))
}

func TestColumnFamilyMapFreeze(t *testing.T) {
	m := NewColumnFamilyMap()
	require.NoError(t, m.Add("cf", nil))
	require.Same(t, m, m.Freeze())

	assert.ErrorIs(t, m.Add("other", nil), ErrFrozen)
	assert.ErrorIs(t, m.Update("cf", nil), ErrFrozen)
	assert.ErrorIs(t, m.Delete("cf"), ErrFrozen)

	clone := m.Clone()
	assert.False(t, clone.Frozen())
	require.NoError(t, clone.Add("other", nil))
	assert.Equal(t, []string{"cf"}, m.Names())
	assert.Equal(t, []string{"cf", "other"}, clone.Names())
}

func TestColumnFamilyMapFromProtoIsSorted(t *testing.T) {
	m := columnFamilyMapFromProto(map[string]*btapb.ColumnFamily{
		"zeta":  {GcRule: MaxVersionsRule(1)},
		"alpha": {},
		"mid":   {GcRule: MaxAgeRule(time.Minute)},
	})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, m.Names())

	rule, ok := m.Get("alpha")
	require.True(t, ok)
	assert.Nil(t, rule)
	assert.Len(t, m.proto(), 3)
}

func TestColumnFamilyMapModifications(t *testing.T) {
	prior := NewColumnFamilyMap()
	require.NoError(t, prior.Add("keep", MaxVersionsRule(1)))
	require.NoError(t, prior.Add("change", MaxVersionsRule(1)))
	require.NoError(t, prior.Add("drop-1", nil))
	require.NoError(t, prior.Add("drop-2", nil))

	for _, tc := range []struct {
		name     string
		edit     func(m *ColumnFamilyMap)
		expected []string
	}{
		{
			name:     "unchanged",
			edit:     func(*ColumnFamilyMap) {},
			expected: []string{},
		},
		{
			name: "creates before updates before drops",
			edit: func(m *ColumnFamilyMap) {
				require.NoError(t, m.Delete("drop-2"))
				require.NoError(t, m.Delete("drop-1"))
				require.NoError(t, m.Update("change", MaxAgeRule(24*time.Hour)))
				require.NoError(t, m.Add("new-b", MaxVersionsRule(2)))
				require.NoError(t, m.Add("new-a", nil))
			},
			expected: []string{
				"create new-b versions() > 2",
				"create new-a <never>",
				"update change age() > 1d",
				"drop drop-1",
				"drop drop-2",
			},
		},
		{
			name: "rule removed",
			edit: func(m *ColumnFamilyMap) {
				require.NoError(t, m.Update("keep", nil))
			},
			expected: []string{"update keep <never>"},
		},
		{
			name: "recreated with the same rule",
			edit: func(m *ColumnFamilyMap) {
				require.NoError(t, m.Delete("keep"))
				require.NoError(t, m.Add("keep", MaxVersionsRule(1)))
			},
			expected: []string{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			current := prior.Clone()
			tc.edit(current)

			actual := []string{}
			for _, mod := range current.Modifications(prior) {
				actual = append(actual, ModificationString(mod))
			}
			assert.Equal(t, tc.expected, actual)
		})
	}
}
