package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/mib"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - scalars table with per-row commit seq
const currentSchemaVersion = 1

// Store provides typed, durable storage for scalar object values.
//
// Thread-safety: all methods are safe for concurrent use. Reads share a
// read lock; every mutation (ordinary or privileged) holds the write lock
// across validate, persist and swap.
type Store struct {
	db     *sql.DB
	cat    *catalog.Catalog
	logger *slog.Logger

	// capabilityDenial is reported when a read-only caller writes a
	// read-write object.
	capabilityDenial mib.ErrorKind

	mu     sync.RWMutex
	values map[string]mib.Value
	seqs   map[string]int64 // commit seq that last changed each name
	seq    int64            // last commit seq
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load-time repairs and commits.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithCapabilityDenial selects the error kind reported when a read-only
// caller writes an object whose descriptor is read-write.
//
// Default: mib.NoAccess. mib.NotWritable is the only other accepted kind.
func WithCapabilityDenial(kind mib.ErrorKind) Option {
	return func(s *Store) {
		if kind == mib.NoAccess || kind == mib.NotWritable {
			s.capabilityDenial = kind
		}
	}
}

// Open creates or opens the SQLite database at path and loads the current
// state for every object in cat. Missing or unusable entries are seeded
// from their descriptor's default and the repaired state is persisted.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - FULL synchronous mode so a returned commit is durable
//   - 5-second busy timeout for lock contention
//   - BEGIN IMMEDIATE for every transaction, so a writer holds the
//     database lock from its first read of the rows it merges into
func Open(ctx context.Context, path string, cat *catalog.Catalog, opts ...Option) (*Store, error) {
	if cat == nil {
		return nil, fmt.Errorf("open store: nil catalog")
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:               db,
		cat:              cat,
		logger:           slog.Default(),
		capabilityDenial: mib.NoAccess,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// dsn adds the driver options every handle needs. The busy timeout is
// repeated here so it also applies to connections the pool reopens.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Catalog returns the catalog the store was opened with.
func (s *Store) Catalog() *catalog.Catalog {
	return s.cat
}

// Seq returns the sequence number of the last successful commit.
// Zero means nothing has been committed since the database was created.
func (s *Store) Seq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the version.
// Refuses databases written by a newer schema.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
