package store

import (
	"context"
	"fmt"

	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/policy"
)

// Binding pairs an OID with a candidate value.
type Binding struct {
	OID   mib.OID
	Value mib.Value
}

// Validate checks whether a caller with capability c may write candidate
// to oid. It never mutates. Checks run in this order and stop at the first
// failure:
//
//  1. oid not cataloged                     -> NoAccess
//  2. descriptor is read-only               -> NotWritable
//  3. c is not ReadWrite                    -> NoAccess (see WithCapabilityDenial)
//  4. candidate type differs                -> WrongType
//  5. measured size outside the constraint  -> WrongValue
//
// Returns nil on success, otherwise a mib.ErrorKind.
func (s *Store) Validate(oid mib.OID, candidate mib.Value, c policy.Capability) error {
	d, ok := s.cat.Lookup(oid)
	if !ok {
		return mib.NoAccess
	}
	if !d.Writable() {
		return mib.NotWritable
	}
	if c != policy.ReadWrite {
		return s.capabilityDenial
	}
	if err := d.Admits(candidate); err != nil {
		return err
	}
	return nil
}

// Commit writes a single previously validated binding and persists the
// whole state before returning. The only failure for a validated binding
// is a *TxError with Kind PersistenceFailure; in that case the in-memory
// value is unchanged.
func (s *Store) Commit(ctx context.Context, oid mib.OID, candidate mib.Value) error {
	d, ok := s.cat.Lookup(oid)
	if !ok {
		return fmt.Errorf("commit %s: %w", oid, ErrUnknownObject)
	}
	if err := d.Admits(candidate); err != nil {
		return fmt.Errorf("commit %s: %w", d.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.newStage()
	st.set(d.Name, mib.Coerce(d.Type, candidate))
	s.noteUncomposed(d.Name, candidate)
	if err := s.commitStage(ctx, st); err != nil {
		return &TxError{Kind: mib.PersistenceFailure, Err: err}
	}

	s.logger.Debug("committed", "name", d.Name, "oid", d.OID.String(), "seq", st.seq)
	return nil
}

// Apply runs the multi-binding write protocol atomically.
//
// Every binding is validated, in order, before any is committed. On the
// first failure nothing is mutated and a *TxError carrying the 1-based
// index and kind is returned. Otherwise all bindings are committed and
// persisted as one transaction and the post-commit value of each binding
// is returned in request order.
//
// Validation and commit run under the same write lock, so no other
// mutation can interleave and readers see either none or all of it.
func (s *Store) Apply(ctx context.Context, bindings []Binding, c policy.Capability) ([]Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range bindings {
		if err := s.Validate(b.OID, b.Value, c); err != nil {
			return nil, &TxError{Index: i + 1, Kind: KindOf(err), OID: b.OID.Clone()}
		}
	}
	if len(bindings) == 0 {
		return []Binding{}, nil
	}

	st := s.newStage()
	names := make([]string, len(bindings))
	for i, b := range bindings {
		d, _ := s.cat.Lookup(b.OID)
		names[i] = d.Name
		st.set(d.Name, mib.Coerce(d.Type, b.Value))
		s.noteUncomposed(d.Name, b.Value)
	}

	if err := s.commitStage(ctx, st); err != nil {
		return nil, &TxError{Kind: mib.PersistenceFailure, Err: err}
	}

	out := make([]Binding, len(bindings))
	for i, b := range bindings {
		out[i] = Binding{OID: b.OID.Clone(), Value: s.values[names[i]]}
	}

	s.logger.Debug("applied", "bindings", len(bindings), "changed", st.changed, "seq", st.seq)
	return out, nil
}

// SetPrivileged writes a named object without access or capability checks.
// It is the trusted path for internal producers such as the threshold
// monitor. The value must still match the descriptor's type and
// constraint, so the at-rest invariant holds.
func (s *Store) SetPrivileged(ctx context.Context, name string, v mib.Value) error {
	d, ok := s.cat.ByName(name)
	if !ok {
		return fmt.Errorf("set %s: %w", name, ErrUnknownObject)
	}
	if err := d.Admits(v); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.newStage()
	st.set(name, mib.Coerce(d.Type, v))
	if err := s.commitStage(ctx, st); err != nil {
		return &TxError{Kind: mib.PersistenceFailure, Err: err}
	}
	return nil
}

// noteUncomposed logs Text written in a decomposed form. Such values are
// kept as given and count every combining mark toward the constraint.
func (s *Store) noteUncomposed(name string, v mib.Value) {
	t, ok := v.(mib.Text)
	if !ok || mib.Composed(string(t)) {
		return
	}
	s.logger.Debug("text is not NFC-composed, stored as given",
		"name", name,
		"chars", t.Measure(),
		"bytes", len(t),
	)
}
