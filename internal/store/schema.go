package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion identifies the current store layout. Bump when any DDL
// below changes shape; old databases are rebuilt by a forced scan.
const SchemaVersion = "1"

// CreateSchema creates all tables, indexes, and the FTS virtual table for
// the signature store. Regular tables and indexes are created inside one
// transaction; the FTS5 virtual table and its sync triggers must be created
// outside it.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Enable foreign keys (must be set for each connection)
	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create all tables in dependency order
	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"functions", createFunctionsTable},
		{"types", createTypesTable},
		{"scan_metadata", createScanMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	indexes := getAllIndexes()
	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	// Commit before creating the virtual table (FTS5 tables must be
	// created outside a transaction)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	if _, err := db.Exec(createSignaturesFTSTable); err != nil {
		return fmt.Errorf("failed to create signatures_fts table: %w", err)
	}

	if err := createFTSTriggers(db); err != nil {
		return fmt.Errorf("failed to create FTS triggers: %w", err)
	}

	// Bootstrap scan_metadata in a separate transaction
	tx, err = db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin metadata transaction: %w", err)
	}
	defer tx.Rollback()
	now := time.Now().UTC().Format(time.RFC3339)
	bootstrapSQL := `
		INSERT INTO scan_metadata (key, value, updated_at) VALUES
			('schema_version', ?, ?),
			('last_scan_id', '', ?),
			('last_scan_time', '', ?)
	`
	if _, err := tx.Exec(bootstrapSQL, SchemaVersion, now, now, now); err != nil {
		return fmt.Errorf("failed to bootstrap scan_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit metadata transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion retrieves the schema version from scan_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='scan_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check scan_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil // New database
	}

	var version string
	query := "SELECT value FROM scan_metadata WHERE key = 'schema_version'"
	err = db.QueryRow(query).Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in scan_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createFilesTable = `
CREATE TABLE files (
    file_path TEXT PRIMARY KEY,                  -- Natural key: relative path from workspace root
    file_hash TEXT NOT NULL,                     -- SHA-256 for change detection
    size_bytes INTEGER NOT NULL DEFAULT 0,
    mtime TEXT NOT NULL,                         -- RFC 3339 with nanoseconds, from the filesystem
    scanned_at TEXT NOT NULL                     -- RFC 3339 when this file was last scanned
)
`

const createFunctionsTable = `
CREATE TABLE functions (
    function_id TEXT PRIMARY KEY,                -- fn::{file_path}::{position}
    file_path TEXT NOT NULL,
    position INTEGER NOT NULL,                   -- 0-indexed source order within the file
    name TEXT NOT NULL,
    parent_name TEXT NOT NULL DEFAULT '',        -- Enclosing class/object, or owning router
    return_type TEXT NOT NULL DEFAULT '',
    full_signature TEXT NOT NULL,
    is_exported INTEGER NOT NULL DEFAULT 0,      -- Boolean
    is_procedure INTEGER NOT NULL DEFAULT 0,     -- Boolean: router procedure vs plain callable
    procedure_kind TEXT NOT NULL DEFAULT '',     -- query or mutation, empty for plain callables
    has_input INTEGER NOT NULL DEFAULT 0,        -- Boolean
    input_schema_name TEXT NOT NULL DEFAULT '',
    input_schema_text TEXT NOT NULL DEFAULT '',
    params_json TEXT NOT NULL DEFAULT 'null',    -- JSON-encoded parameter list
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
)
`

const createTypesTable = `
CREATE TABLE types (
    type_id TEXT PRIMARY KEY,                    -- type::{file_path}::{position}
    file_path TEXT NOT NULL,
    position INTEGER NOT NULL,                   -- 0-indexed source order within the file
    name TEXT NOT NULL,
    kind TEXT NOT NULL,                          -- interface, type-alias, enum, class, namespace, module
    full_signature TEXT NOT NULL,
    is_exported INTEGER NOT NULL DEFAULT 0,      -- Boolean
    FOREIGN KEY (file_path) REFERENCES files(file_path) ON DELETE CASCADE
)
`

const createScanMetadataTable = `
CREATE TABLE scan_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const createSignaturesFTSTable = `
CREATE VIRTUAL TABLE signatures_fts USING fts5(
    entry_id UNINDEXED,                          -- function_id or type_id
    file_path UNINDEXED,
    entry_kind UNINDEXED,                        -- function or type
    is_exported UNINDEXED,
    name,
    full_signature,
    tokenize = "unicode61 separators '._'"       -- Tokenize on underscore and dot
)
`

// getAllIndexes returns all index creation statements.
func getAllIndexes() []string {
	return []string{
		// functions table indexes
		"CREATE INDEX idx_functions_file_path ON functions(file_path)",
		"CREATE INDEX idx_functions_name ON functions(name)",
		"CREATE INDEX idx_functions_is_exported ON functions(is_exported)",
		"CREATE INDEX idx_functions_is_procedure ON functions(is_procedure)",

		// types table indexes
		"CREATE INDEX idx_types_file_path ON types(file_path)",
		"CREATE INDEX idx_types_name ON types(name)",
		"CREATE INDEX idx_types_kind ON types(kind)",
		"CREATE INDEX idx_types_is_exported ON types(is_exported)",
	}
}

// createFTSTriggers creates triggers that mirror functions and types rows
// into signatures_fts. Writes go through DELETE + INSERT (per-file replace),
// so insert and delete triggers cover every mutation the writer performs.
func createFTSTriggers(db *sql.DB) error {
	triggers := []string{
		`CREATE TRIGGER functions_fts_insert AFTER INSERT ON functions
		BEGIN
			DELETE FROM signatures_fts WHERE entry_id = NEW.function_id;
			INSERT INTO signatures_fts(entry_id, file_path, entry_kind, is_exported, name, full_signature)
			VALUES (NEW.function_id, NEW.file_path, 'function', NEW.is_exported, NEW.name, NEW.full_signature);
		END`,

		`CREATE TRIGGER functions_fts_delete AFTER DELETE ON functions
		BEGIN
			DELETE FROM signatures_fts WHERE entry_id = OLD.function_id;
		END`,

		`CREATE TRIGGER types_fts_insert AFTER INSERT ON types
		BEGIN
			DELETE FROM signatures_fts WHERE entry_id = NEW.type_id;
			INSERT INTO signatures_fts(entry_id, file_path, entry_kind, is_exported, name, full_signature)
			VALUES (NEW.type_id, NEW.file_path, 'type', NEW.is_exported, NEW.name, NEW.full_signature);
		END`,

		`CREATE TRIGGER types_fts_delete AFTER DELETE ON types
		BEGIN
			DELETE FROM signatures_fts WHERE entry_id = OLD.type_id;
		END`,
	}

	for i, trigger := range triggers {
		if _, err := db.Exec(trigger); err != nil {
			return fmt.Errorf("failed to create trigger %d: %w", i+1, err)
		}
	}

	return nil
}
