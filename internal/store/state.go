package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/mibagent/internal/mib"
)

// load brings the in-memory state in line with the database at Open.
func (s *Store) load(ctx context.Context) error {
	if err := s.sync(ctx, nil); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	return nil
}

// persisted is the database state reconciled with the catalog.
type persisted struct {
	values map[string]mib.Value
	seqs   map[string]int64
	seq    int64
	repair []string // catalog names whose row is missing or unusable
	stale  []string // rows for names no longer cataloged
}

// reconcile maps raw rows onto the catalog. Catalog names without a usable
// row (missing, mistyped, outside the constraint) get their descriptor's
// initial value and are marked for repair.
func (s *Store) reconcile(rows map[string]row) *persisted {
	p := &persisted{
		values: make(map[string]mib.Value, s.cat.Len()),
		seqs:   make(map[string]int64, s.cat.Len()),
	}

	for _, d := range s.cat.Descriptors() {
		r, ok := rows[d.Name]
		delete(rows, d.Name)
		if !ok {
			p.values[d.Name] = d.Initial()
			p.repair = append(p.repair, d.Name)
			continue
		}

		v, err := unmarshalValue(r)
		if err == nil {
			err = d.Admits(v)
		}
		if err != nil {
			s.logger.Warn("replacing unusable stored value",
				"name", d.Name,
				"oid", d.OID.String(),
				"error", err,
			)
			p.values[d.Name] = d.Initial()
			p.repair = append(p.repair, d.Name)
			continue
		}

		p.values[d.Name] = mib.Coerce(d.Type, v)
		p.seqs[d.Name] = r.seq
		p.seq = max(p.seq, r.seq)
	}

	for name := range rows {
		s.logger.Warn("dropping stored value for uncataloged object", "name", name)
		p.stale = append(p.stale, name)
	}
	return p
}

// readRows returns every persisted row keyed by name.
func readRows(ctx context.Context, tx *sql.Tx) (map[string]row, error) {
	rs, err := tx.QueryContext(ctx, `
		SELECT name, kind, text_value, int_value, seq
		FROM scalars
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query scalars: %w", err)
	}
	defer rs.Close()

	rows := make(map[string]row)
	for rs.Next() {
		var r row
		if err := rs.Scan(&r.name, &r.kind, &r.text, &r.num, &r.seq); err != nil {
			return nil, fmt.Errorf("scan scalar: %w", err)
		}
		rows[r.name] = r
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate scalars: %w", err)
	}
	return rows, nil
}

// stage collects the changes of one mutation before they are persisted.
type stage struct {
	values  map[string]mib.Value
	changed []string // names in first-set order
	seq     int64    // assigned by sync
}

func (s *Store) newStage() *stage {
	return &stage{values: make(map[string]mib.Value)}
}

func (st *stage) set(name string, v mib.Value) {
	if _, ok := st.values[name]; !ok {
		st.changed = append(st.changed, name)
	}
	st.values[name] = v
}

// commitStage persists a stage and swaps the merged state in. Caller holds
// s.mu for writing. On error the in-memory state is unchanged.
func (s *Store) commitStage(ctx context.Context, st *stage) error {
	return s.sync(ctx, st)
}

// sync runs one write transaction against the database:
//
//  1. BEGIN IMMEDIATE takes SQLite's write lock, so no other handle can
//     commit between the read and the write below
//  2. the rows are reloaded and reconciled with the catalog
//  3. the stage (if any) is applied on top under the next commit seq
//  4. only changed or repaired rows are upserted; stale rows are deleted
//
// The merged state replaces the in-memory state only after COMMIT
// succeeds. Caller holds s.mu for writing (or is in Open).
func (s *Store) sync(ctx context.Context, st *stage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist state: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	rows, err := readRows(ctx, tx)
	if err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	p := s.reconcile(rows)
	p.seq = max(p.seq, s.seq)

	dirty := p.repair
	if st != nil && len(st.changed) > 0 {
		st.seq = p.seq + 1
		for _, name := range st.changed {
			p.values[name] = st.values[name]
			p.seqs[name] = st.seq
		}
		p.seq = st.seq
		dirty = append(dirty, st.changed...)
	}

	if err := upsertRows(ctx, tx, p, dirty); err != nil {
		return err
	}
	for _, name := range p.stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scalars WHERE name = ?`, name); err != nil {
			return fmt.Errorf("persist state: delete %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist state: commit: %w", err)
	}

	s.values = p.values
	s.seqs = p.seqs
	s.seq = p.seq
	return nil
}

// upsertRows writes the named entries of p.
func upsertRows(ctx context.Context, tx *sql.Tx, p *persisted, names []string) error {
	if len(names) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scalars (name, kind, text_value, int_value, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			kind = excluded.kind,
			text_value = excluded.text_value,
			int_value = excluded.int_value,
			seq = excluded.seq
	`)
	if err != nil {
		return fmt.Errorf("persist state: prepare: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		kind, text, num, err := marshalValue(p.values[name])
		if err != nil {
			return fmt.Errorf("persist state: %s: %w", name, err)
		}
		if _, err := stmt.ExecContext(ctx, name, kind, text, num, p.seqs[name]); err != nil {
			return fmt.Errorf("persist state: upsert %s: %w", name, err)
		}
	}
	return nil
}
