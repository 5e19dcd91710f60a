// Package policy resolves a caller's principal into the coarse capability
// class the store checks writes against.
//
// The trust decision lives here, outside the store: the command layer calls
// Classify once per request and hands the result to store validation.
package policy

import (
	"fmt"
	"maps"
	"slices"
)

// Capability is the permission level of one request.
type Capability int

const (
	// ReadOnly callers may read every object and write none.
	ReadOnly Capability = iota + 1
	// ReadWrite callers may write objects whose access mode allows it.
	ReadWrite
)

func (c Capability) String() string {
	switch c {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// ParseCapability parses "read-only"/"ro" or "read-write"/"rw".
func ParseCapability(s string) (Capability, error) {
	switch s {
	case "read-only", "ro":
		return ReadOnly, nil
	case "read-write", "rw":
		return ReadWrite, nil
	}
	return 0, fmt.Errorf("unknown capability %q", s)
}

// Policy maps principals (community strings) to capabilities.
//
// Thread-safety: immutable after construction.
type Policy struct {
	table map[string]Capability
}

// New builds a policy from a principal -> capability table.
func New(table map[string]Capability) (*Policy, error) {
	for principal, c := range table {
		if principal == "" {
			return nil, fmt.Errorf("policy: empty principal")
		}
		if c != ReadOnly && c != ReadWrite {
			return nil, fmt.Errorf("policy: principal %q: invalid capability %s", principal, c)
		}
	}
	return &Policy{table: maps.Clone(table)}, nil
}

// Default returns the stock community table: public is read-only,
// private is read-write.
func Default() *Policy {
	return &Policy{table: map[string]Capability{
		"public":  ReadOnly,
		"private": ReadWrite,
	}}
}

// Classify resolves a principal. Unknown principals are read-only.
func (p *Policy) Classify(principal string) Capability {
	if c, ok := p.table[principal]; ok {
		return c
	}
	return ReadOnly
}

// Known reports whether the principal appears in the table.
func (p *Policy) Known(principal string) bool {
	_, ok := p.table[principal]
	return ok
}

// Principals lists the configured principals in sorted order.
func (p *Policy) Principals() []string {
	return slices.Sorted(maps.Keys(p.table))
}
