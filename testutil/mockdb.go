package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database for testing.
// The pool is pinned to one connection so every query sees the same
// in-memory database.
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TempDBPath returns a database path inside a fresh temp directory
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(CreateTempDir(t), "kv.db")
}
