package store

import (
	"maps"

	"github.com/roach88/mibagent/internal/mib"
)

// ReadExact returns the typed value of the object with exactly this OID.
// Returns false when the OID is not cataloged.
func (s *Store) ReadExact(oid mib.OID) (mib.Value, bool) {
	d, ok := s.cat.Lookup(oid)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return mib.Coerce(d.Type, s.values[d.Name]), true
}

// ReadNext returns the first cataloged object after oid and its value.
// Returns false at the end of the catalog.
//
// Feeding the returned OID back in walks the whole catalog in order.
func (s *Store) ReadNext(oid mib.OID) (mib.OID, mib.Value, bool) {
	d, ok := s.cat.FirstAfter(oid)
	if !ok {
		return nil, nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return d.OID.Clone(), mib.Coerce(d.Type, s.values[d.Name]), true
}

// Value returns the current value of a named object.
func (s *Store) Value(name string) (mib.Value, bool) {
	d, ok := s.cat.ByName(name)
	if !ok {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return mib.Coerce(d.Type, s.values[d.Name]), true
}

// Snapshot returns a copy of the whole state keyed by name.
// The copy is taken under one read lock, so it reflects a single
// committed state.
func (s *Store) Snapshot() map[string]mib.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// LastChanged returns the commit seq that last wrote the named object.
// Zero means the value has been at its initial default since load.
func (s *Store) LastChanged(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seqs[name]
}
