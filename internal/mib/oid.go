package mib

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is a hierarchical object identifier: an ordered sequence of
// non-negative sub-identifiers.
type OID []uint32

// ParseOID parses dotted notation ("1.3.6.1.4.1" or ".1.3.6.1.4.1").
func ParseOID(s string) (OID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, fmt.Errorf("parse oid: empty identifier")
	}

	parts := strings.Split(s, ".")
	oid := make(OID, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse oid %q: component %d: %w", s, i+1, err)
		}
		oid[i] = uint32(n)
	}
	return oid, nil
}

// MustParseOID is ParseOID for literals known to be valid. Panics otherwise.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String renders the OID in dotted notation without a leading dot.
func (o OID) String() string {
	var b strings.Builder
	for i, n := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(n), 10))
	}
	return b.String()
}

// Compare orders two OIDs.
//
// Components are compared pairwise left to right; the first difference
// decides. When one OID is a strict prefix of the other, the shorter one
// sorts first. Returns -1, 0 or +1.
func Compare(a, b OID) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Compare is the method form of Compare.
func (o OID) Compare(other OID) int {
	return Compare(o, other)
}

// Less reports whether o sorts strictly before other.
func (o OID) Less(other OID) bool {
	return Compare(o, other) < 0
}

// Equal reports whether both OIDs name the same object.
func (o OID) Equal(other OID) bool {
	return Compare(o, other) == 0
}

// HasPrefix reports whether prefix is o itself or one of its ancestors.
func (o OID) HasPrefix(prefix OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	return Compare(o[:len(prefix)], prefix) == 0
}

// Append returns a new OID with the given components appended.
// The receiver is never aliased.
func (o OID) Append(components ...uint32) OID {
	out := make(OID, 0, len(o)+len(components))
	out = append(out, o...)
	return append(out, components...)
}

// Clone returns a copy that does not share storage with o.
func (o OID) Clone() OID {
	if o == nil {
		return nil
	}
	out := make(OID, len(o))
	copy(out, o)
	return out
}
