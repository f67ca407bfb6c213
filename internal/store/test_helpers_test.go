package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/catalogql/internal/testutil"
)

// createEmptyStore opens a fresh SQLite database with no tables.
func createEmptyStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestStore opens a fresh SQLite database holding the test catalog
// and its fixtures.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s := createEmptyStore(t)
	ctx := context.Background()
	if err := s.ExecScript(ctx, testutil.SQLiteDDL); err != nil {
		t.Fatalf("ExecScript() failed: %v", err)
	}
	if _, err := s.Seed(ctx, testutil.Catalog(), testutil.Fixtures); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}
