package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/mib"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	s, path := createTestStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err, "database file was not created")

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM scalars").Scan(&count))
	assert.Equal(t, 4, count, "defaults are persisted on first open")
}

func TestOpen_SeedsDefaults(t *testing.T) {
	s, _ := createTestStore(t)

	assert.Equal(t, map[string]mib.Value{
		"manager":      mib.Text("Admin"),
		"managerEmail": mib.Text("admin@example.com"),
		"cpuUsage":     mib.Integer(0),
		"cpuThreshold": mib.Integer(80),
	}, s.Snapshot())
	assert.Equal(t, int64(0), s.Seq())
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "2"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(context.Background(), "/nonexistent/dir/state.db", catalog.Default())
	assert.Error(t, err)
}

func TestOpen_NilCatalog(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "s.db"), nil)
	assert.Error(t, err)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(context.Background(), path, catalog.Default(), WithLogger(discardLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	assert.NoError(t, s.Close())
}

func TestClose_MultipleCalls(t *testing.T) {
	s, _ := createTestStore(t)
	require.NoError(t, s.Close())
	_ = s.Close()
}

func TestCatalog_ReturnsOpeningCatalog(t *testing.T) {
	s, _ := createTestStore(t)
	assert.Equal(t, 4, s.Catalog().Len())
}
