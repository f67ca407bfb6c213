package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if err := s1.ExecScript(context.Background(), "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("ExecScript() failed: %v", err)
	}
	s1.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.db.QueryRow("SELECT COUNT(*) FROM t").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	if err == nil {
		t.Error("expected error for unknown driver, got nil")
	}
}

func TestOpen_Dialect(t *testing.T) {
	s := createEmptyStore(t)
	if s.Dialect() != "sqlite" {
		t.Errorf("Dialect() = %q, want sqlite", s.Dialect())
	}
	if s.Driver() != "sqlite3" {
		t.Errorf("Driver() = %q, want sqlite3", s.Driver())
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}

	// Second close must not panic
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createEmptyStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := createEmptyStore(t)
	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createEmptyStore(t)
	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createEmptyStore(t)
	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := createEmptyStore(t)
	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_CaseSensitiveLike(t *testing.T) {
	s := createEmptyStore(t)

	var matched int
	if err := s.db.QueryRow("SELECT 'Dune' LIKE 'dune'").Scan(&matched); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if matched != 0 {
		t.Error("LIKE matched across case; case_sensitive_like not applied")
	}
}

func TestExecScript_SkipsCommentsAndBlanks(t *testing.T) {
	s := createEmptyStore(t)
	script := `
-- first table
CREATE TABLE a (id INTEGER PRIMARY KEY);

;
CREATE TABLE b (id INTEGER PRIMARY KEY);
`
	if err := s.ExecScript(context.Background(), script); err != nil {
		t.Fatalf("ExecScript() failed: %v", err)
	}

	for _, table := range []string{"a", "b"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not created: %v", table, err)
		}
	}
}

func TestExecScript_ReportsStatement(t *testing.T) {
	s := createEmptyStore(t)
	err := s.ExecScript(context.Background(), "CREATE TABLE a (id INTEGER); CREATE TABLE a (id INTEGER)")
	if err == nil {
		t.Fatal("expected error for duplicate table")
	}
	if got := err.Error(); got[:16] != "exec statement 2" {
		t.Errorf("error = %q, want statement 2 reported", got)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("A;\n-- c\nB ;  ; \n")
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("splitStatements = %q", got)
	}
}
