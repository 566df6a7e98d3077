package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a fully configured in-memory SQLite database for testing.
//
// The database includes:
//   - Foreign key constraints enabled (required for cascade deletes)
//   - Full schema created (tables, indexes, FTS virtual table, triggers)
//   - Automatic cleanup registered with t.Cleanup()
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	// An in-memory database exists per connection; keep the pool at one
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	err = CreateSchema(db)
	require.NoError(t, err)

	return db
}

// NewTestWriter opens a writer on a file-backed database under t.TempDir().
// Use when a test needs the real open path: directory creation, schema
// bootstrap, or separate reader connections.
func NewTestWriter(t testing.TB) (*Writer, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), ".sigmap", "sigmap.db")
	w, err := NewWriter(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	return w, dbPath
}
