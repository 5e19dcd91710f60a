package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mibagent/internal/mib"
)

func textDesc(name, oid string, lo, hi int64) mib.Descriptor {
	return mib.Descriptor{
		Name: name, OID: mib.MustParseOID(oid), Type: mib.TypeText, Access: mib.ReadWrite,
		Constraint: mib.Constraint{Min: lo, Max: hi},
	}
}

func intDesc(name, oid string, access mib.Access, lo, hi int64) mib.Descriptor {
	return mib.Descriptor{
		Name: name, OID: mib.MustParseOID(oid), Type: mib.TypeInteger, Access: access,
		Constraint: mib.Constraint{Min: lo, Max: hi},
	}
}

func TestNew_SortsByOID(t *testing.T) {
	cat, err := New([]mib.Descriptor{
		intDesc("c", "1.3.6.1.10", mib.ReadOnly, 0, 1),
		intDesc("a", "1.3.6.1.2", mib.ReadOnly, 0, 1),
		intDesc("b", "1.3.6.1.2.0", mib.ReadOnly, 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, cat.Names())
	assert.Equal(t, 3, cat.Len())
}

func TestNew_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		descs []mib.Descriptor
	}{
		{"empty", nil},
		{"duplicate oid", []mib.Descriptor{textDesc("a", "1.1", 0, 1), textDesc("b", "1.1", 0, 1)}},
		{"duplicate name", []mib.Descriptor{textDesc("a", "1.1", 0, 1), textDesc("a", "1.2", 0, 1)}},
		{"empty interval", []mib.Descriptor{textDesc("a", "1.1", 5, 4)}},
		{"negative length", []mib.Descriptor{textDesc("a", "1.1", -1, 4)}},
		{"no name", []mib.Descriptor{textDesc("", "1.1", 0, 4)}},
		{"no oid", []mib.Descriptor{{Name: "a", Type: mib.TypeText, Access: mib.ReadOnly}}},
		{"bad default", []mib.Descriptor{func() mib.Descriptor {
			d := intDesc("a", "1.1", mib.ReadWrite, 0, 10)
			d.Default = mib.Integer(11)
			return d
		}()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.descs)
			assert.Error(t, err)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	descs := []mib.Descriptor{textDesc("a", "1.1", 0, 1)}
	cat, err := New(descs)
	require.NoError(t, err)

	descs[0].OID[1] = 9
	descs[0].Name = "z"

	d, ok := cat.Lookup(mib.OID{1, 1})
	require.True(t, ok)
	assert.Equal(t, "a", d.Name)
}

func TestLookup(t *testing.T) {
	cat := Default()

	d, ok := cat.Lookup(mib.MustParseOID("1.3.6.1.4.1.28308.1.1.0"))
	require.True(t, ok)
	assert.Equal(t, "manager", d.Name)

	_, ok = cat.Lookup(mib.MustParseOID("1.3.6.1.4.1.28308.1.1"))
	assert.False(t, ok, "ancestor of an object is not the object")

	_, ok = cat.Lookup(mib.MustParseOID("1.3.6.1.4.1.28308.1.9.0"))
	assert.False(t, ok)
}

func TestFirstAfter_WalksWholeCatalog(t *testing.T) {
	cat := Default()

	var walked []string
	cursor := mib.OID{1, 3, 6, 1}
	for {
		d, ok := cat.FirstAfter(cursor)
		if !ok {
			break
		}
		walked = append(walked, d.Name)
		cursor = d.OID
	}
	assert.Equal(t, []string{"manager", "managerEmail", "cpuUsage", "cpuThreshold"}, walked)
}

func TestFirstAfter_Boundaries(t *testing.T) {
	cat := Default()
	last := mib.MustParseOID("1.3.6.1.4.1.28308.1.4.0")

	tests := []struct {
		name string
		from string
		want string
		ok   bool
	}{
		{"before everything", "0", "manager", true},
		{"ancestor of first", "1.3.6.1.4.1.28308.1.1", "manager", true},
		{"exact object", "1.3.6.1.4.1.28308.1.1.0", "managerEmail", true},
		{"between objects", "1.3.6.1.4.1.28308.1.2.0.5", "cpuUsage", true},
		{"last object", last.String(), "", false},
		{"descendant of last", "1.3.6.1.4.1.28308.1.4.0.1", "", false},
		{"after everything", "2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := cat.FirstAfter(mib.MustParseOID(tt.from))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, d.Name)
		})
	}
}

func TestFirstAfter_IsSmallestGreater(t *testing.T) {
	cat := Default()
	descs := cat.Descriptors()
	for i := 0; i+1 < len(descs); i++ {
		next, ok := cat.FirstAfter(descs[i].OID)
		require.True(t, ok)
		assert.Equal(t, descs[i+1].Name, next.Name)
	}
}

func TestByName(t *testing.T) {
	cat := Default()

	d, ok := cat.ByName("cpuThreshold")
	require.True(t, ok)
	assert.Equal(t, mib.TypeInteger, d.Type)
	assert.Equal(t, mib.ReadWrite, d.Access)
	assert.Equal(t, mib.Integer(80), d.Default)

	_, ok = cat.ByName("sysDescr")
	assert.False(t, ok)
}
