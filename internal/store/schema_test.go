package store

// Test Plan for Schema:
// - CreateSchema creates all tables, the FTS virtual table, and triggers
// - CreateSchema bootstraps scan_metadata with the schema version
// - GetSchemaVersion returns "0" for a fresh database
// - GetSchemaVersion returns the bootstrapped version after CreateSchema
// - FTS triggers mirror function inserts into signatures_fts
// - FTS triggers mirror type inserts into signatures_fts
// - Explicit deletes clear the mirrored FTS entries
// - File deletes cascade to signature rows

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	t.Run("creates all tables", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)

		for _, name := range []string{"files", "functions", "types", "scan_metadata", "signatures_fts"} {
			var count int
			err := db.QueryRow(
				"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name,
			).Scan(&count)
			require.NoError(t, err)
			assert.Equal(t, 1, count, "expected table %s to exist", name)
		}
	})

	t.Run("bootstraps schema version", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)

		version, err := GetSchemaVersion(db)
		require.NoError(t, err)
		assert.Equal(t, SchemaVersion, version)
	})
}

func TestGetSchemaVersion(t *testing.T) {
	t.Parallel()

	t.Run("returns zero for fresh database", func(t *testing.T) {
		t.Parallel()
		db, err := sql.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		defer db.Close()

		version, err := GetSchemaVersion(db)
		require.NoError(t, err)
		assert.Equal(t, "0", version)
	})
}

func TestFTSTriggers(t *testing.T) {
	t.Parallel()

	insertFile := func(t *testing.T, db *sql.DB, path string) {
		t.Helper()
		_, err := db.Exec(
			"INSERT INTO files (file_path, file_hash, size_bytes, mtime, scanned_at) VALUES (?, 'abc', 10, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')",
			path,
		)
		require.NoError(t, err)
	}

	countFTS := func(t *testing.T, db *sql.DB) int {
		t.Helper()
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM signatures_fts").Scan(&count)
		require.NoError(t, err)
		return count
	}

	t.Run("function insert mirrors into FTS", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)
		insertFile(t, db, "src/app.ts")

		_, err := db.Exec(
			"INSERT INTO functions (function_id, file_path, position, name, full_signature) VALUES ('fn::src/app.ts::0', 'src/app.ts', 0, 'loadUser', 'loadUser(id: string): Promise<User>')",
		)
		require.NoError(t, err)

		var name, signature string
		err = db.QueryRow(
			"SELECT name, full_signature FROM signatures_fts WHERE entry_id = 'fn::src/app.ts::0'",
		).Scan(&name, &signature)
		require.NoError(t, err)
		assert.Equal(t, "loadUser", name)
		assert.Equal(t, "loadUser(id: string): Promise<User>", signature)
	})

	t.Run("type insert mirrors into FTS", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)
		insertFile(t, db, "src/app.ts")

		_, err := db.Exec(
			"INSERT INTO types (type_id, file_path, position, name, kind, full_signature) VALUES ('type::src/app.ts::0', 'src/app.ts', 0, 'User', 'interface', 'interface User { id: string }')",
		)
		require.NoError(t, err)

		var kind string
		err = db.QueryRow(
			"SELECT entry_kind FROM signatures_fts WHERE entry_id = 'type::src/app.ts::0'",
		).Scan(&kind)
		require.NoError(t, err)
		assert.Equal(t, "type", kind)
	})

	t.Run("delete triggers clear FTS entries", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)
		insertFile(t, db, "src/app.ts")

		_, err := db.Exec(
			"INSERT INTO functions (function_id, file_path, position, name, full_signature) VALUES ('fn::src/app.ts::0', 'src/app.ts', 0, 'loadUser', 'loadUser(): void')",
		)
		require.NoError(t, err)
		_, err = db.Exec(
			"INSERT INTO types (type_id, file_path, position, name, kind, full_signature) VALUES ('type::src/app.ts::0', 'src/app.ts', 0, 'User', 'interface', 'interface User { }')",
		)
		require.NoError(t, err)
		require.Equal(t, 2, countFTS(t, db))

		// The writer deletes signature rows explicitly, so the delete
		// triggers are what keep signatures_fts in step
		_, err = db.Exec("DELETE FROM functions WHERE file_path = 'src/app.ts'")
		require.NoError(t, err)
		_, err = db.Exec("DELETE FROM types WHERE file_path = 'src/app.ts'")
		require.NoError(t, err)

		assert.Equal(t, 0, countFTS(t, db))
	})

	t.Run("file delete cascades to signature rows", func(t *testing.T) {
		t.Parallel()
		db := NewTestDB(t)
		insertFile(t, db, "src/app.ts")

		_, err := db.Exec(
			"INSERT INTO functions (function_id, file_path, position, name, full_signature) VALUES ('fn::src/app.ts::0', 'src/app.ts', 0, 'loadUser', 'loadUser(): void')",
		)
		require.NoError(t, err)

		_, err = db.Exec("DELETE FROM files WHERE file_path = 'src/app.ts'")
		require.NoError(t, err)

		var functionCount int
		err = db.QueryRow("SELECT COUNT(*) FROM functions").Scan(&functionCount)
		require.NoError(t, err)
		assert.Equal(t, 0, functionCount)
	})
}
