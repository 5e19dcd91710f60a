package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/mibagent/internal/mib"
)

var (
	// ErrEmpty is returned when a catalog would contain no descriptors.
	ErrEmpty = errors.New("catalog has no objects")
	// ErrDuplicate is returned when two descriptors share a name or OID.
	ErrDuplicate = errors.New("duplicate object")
)

// Catalog is an immutable, OID-sorted set of descriptors.
//
// Thread-safety: read-only after New, safe for concurrent use.
type Catalog struct {
	descs  []mib.Descriptor // sorted ascending by OID
	byName map[string]int   // name -> index into descs
}

// New validates descs and returns them as a sorted catalog.
// The input slice is copied; later changes to it do not affect the catalog.
func New(descs []mib.Descriptor) (*Catalog, error) {
	if len(descs) == 0 {
		return nil, ErrEmpty
	}

	sorted := make([]mib.Descriptor, len(descs))
	for i, d := range descs {
		if err := check(d); err != nil {
			return nil, err
		}
		d.OID = d.OID.Clone()
		if s, ok := d.Default.(mib.Text); ok {
			d.Default = mib.Text(mib.NormalizeText(string(s)))
		}
		sorted[i] = d
	}

	slices.SortFunc(sorted, func(a, b mib.Descriptor) int {
		return mib.Compare(a.OID, b.OID)
	})

	c := &Catalog{
		descs:  sorted,
		byName: make(map[string]int, len(sorted)),
	}
	for i, d := range sorted {
		if i > 0 && sorted[i-1].OID.Equal(d.OID) {
			return nil, fmt.Errorf("%w: %s and %s share oid %s", ErrDuplicate, sorted[i-1].Name, d.Name, d.OID)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicate, d.Name)
		}
		c.byName[d.Name] = i
	}
	return c, nil
}

// check enforces per-descriptor invariants.
func check(d mib.Descriptor) error {
	switch {
	case d.Name == "":
		return fmt.Errorf("descriptor %s: empty name", d.OID)
	case len(d.OID) == 0:
		return fmt.Errorf("descriptor %q: empty oid", d.Name)
	case d.Type != mib.TypeText && d.Type != mib.TypeInteger:
		return fmt.Errorf("descriptor %q: invalid type %s", d.Name, d.Type)
	case d.Access != mib.ReadOnly && d.Access != mib.ReadWrite:
		return fmt.Errorf("descriptor %q: invalid access %s", d.Name, d.Access)
	case !d.Constraint.Valid():
		return fmt.Errorf("descriptor %q: empty constraint [%d, %d]", d.Name, d.Constraint.Min, d.Constraint.Max)
	case d.Type == mib.TypeText && d.Constraint.Min < 0:
		return fmt.Errorf("descriptor %q: negative length bound %d", d.Name, d.Constraint.Min)
	}
	if d.Default != nil {
		if err := d.Admits(d.Default); err != nil {
			return fmt.Errorf("descriptor %q: default %q: %w", d.Name, d.Default, err)
		}
	}
	return nil
}

// Lookup returns the descriptor with exactly this OID.
func (c *Catalog) Lookup(oid mib.OID) (mib.Descriptor, bool) {
	i, found := slices.BinarySearchFunc(c.descs, oid, func(d mib.Descriptor, target mib.OID) int {
		return mib.Compare(d.OID, target)
	})
	if !found {
		return mib.Descriptor{}, false
	}
	return c.descs[i], true
}

// FirstAfter returns the descriptor with the smallest OID strictly greater
// than oid, or false when oid sorts at or after every cataloged OID.
// oid need not be cataloged itself.
func (c *Catalog) FirstAfter(oid mib.OID) (mib.Descriptor, bool) {
	i := sort.Search(len(c.descs), func(i int) bool {
		return mib.Compare(c.descs[i].OID, oid) > 0
	})
	if i == len(c.descs) {
		return mib.Descriptor{}, false
	}
	return c.descs[i], true
}

// ByName returns the descriptor with the given name.
func (c *Catalog) ByName(name string) (mib.Descriptor, bool) {
	i, ok := c.byName[name]
	if !ok {
		return mib.Descriptor{}, false
	}
	return c.descs[i], true
}

// Descriptors returns all descriptors in OID order. The slice is a copy.
func (c *Catalog) Descriptors() []mib.Descriptor {
	return slices.Clone(c.descs)
}

// Names returns every object name in OID order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.descs))
	for i, d := range c.descs {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of cataloged objects.
func (c *Catalog) Len() int {
	return len(c.descs)
}
