package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/mib"
)

var (
	managerOID   = mib.MustParseOID("1.3.6.1.4.1.28308.1.1.0")
	emailOID     = mib.MustParseOID("1.3.6.1.4.1.28308.1.2.0")
	cpuUsageOID  = mib.MustParseOID("1.3.6.1.4.1.28308.1.3.0")
	thresholdOID = mib.MustParseOID("1.3.6.1.4.1.28308.1.4.0")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestStore opens a store over the default catalog in a temp dir.
func createTestStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	return openTestStore(t, path, opts...), path
}

// openTestStore opens (or reopens) the store at path.
func openTestStore(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	s, err := Open(context.Background(), path, catalog.Default(), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
