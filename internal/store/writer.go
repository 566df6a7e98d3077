package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/sigmap/internal/extract"
)

// FileRecord describes one scanned file as stored in the files table.
type FileRecord struct {
	FilePath  string
	FileHash  string
	SizeBytes int64
	MTime     time.Time
	ScannedAt time.Time
}

// Writer handles writing scan results to the SQLite signature store.
// Each file's rows are replaced inside one transaction.
type Writer struct {
	db *sql.DB
}

// NewWriter opens or creates the signature database at dbPath. The parent
// directory is created if missing and the schema is created on first open.
func NewWriter(dbPath string) (*Writer, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys (required for cascade deletes)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}

	switch version {
	case "0":
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	case SchemaVersion:
		// Ready to use
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version %s (want %s): delete %s and rescan", version, SchemaVersion, dbPath)
	}

	return &Writer{db: db}, nil
}

// NewWriterWithDB creates a Writer on an existing connection with the schema
// already in place. The caller keeps ownership of the database lifecycle.
func NewWriterWithDB(db *sql.DB) *Writer {
	return &Writer{db: db}
}

// ReplaceFile atomically replaces all stored rows for one file: the files
// row, its functions, and its types. Deletes cascade to the signature
// tables and the FTS index follows via triggers.
func (w *Writer) ReplaceFile(file FileRecord, result *extract.ParseResult) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Delete child rows explicitly; foreign key enforcement is
	// per-connection, so cascades can't be relied on here
	for _, table := range []string{"functions", "types", "files"} {
		if _, err := sq.Delete(table).Where(sq.Eq{"file_path": file.FilePath}).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to clear %s for %s: %w", table, file.FilePath, err)
		}
	}

	_, err = sq.Insert("files").
		Columns("file_path", "file_hash", "size_bytes", "mtime", "scanned_at").
		Values(
			file.FilePath,
			file.FileHash,
			file.SizeBytes,
			file.MTime.UTC().Format(time.RFC3339Nano),
			file.ScannedAt.UTC().Format(time.RFC3339),
		).
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", file.FilePath, err)
	}

	for i, fn := range result.Functions {
		paramsJSON, err := json.Marshal(fn.Parameters)
		if err != nil {
			return fmt.Errorf("failed to encode parameters for %s: %w", fn.Name, err)
		}

		_, err = sq.Insert("functions").
			Columns("function_id", "file_path", "position", "name", "parent_name", "return_type",
				"full_signature", "is_exported", "is_procedure", "procedure_kind",
				"has_input", "input_schema_name", "input_schema_text", "params_json").
			Values(
				functionID(file.FilePath, i),
				file.FilePath,
				i,
				fn.Name,
				fn.ParentName,
				fn.ReturnType,
				fn.FullSignature,
				fn.IsExported,
				fn.IsProcedure,
				string(fn.ProcedureKind),
				fn.HasInput,
				fn.InputSchemaName,
				fn.InputSchemaText,
				string(paramsJSON),
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert function %s: %w", fn.Name, err)
		}
	}

	for i, typ := range result.Types {
		_, err := sq.Insert("types").
			Columns("type_id", "file_path", "position", "name", "kind", "full_signature", "is_exported").
			Values(
				typeID(file.FilePath, i),
				file.FilePath,
				i,
				typ.Name,
				string(typ.Kind),
				typ.FullSignature,
				typ.IsExported,
			).
			RunWith(tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert type %s: %w", typ.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteFiles removes the stored rows for the given paths. Used when files
// disappear between scans or under watch mode.
func (w *Writer) DeleteFiles(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"functions", "types", "files"} {
		if _, err := sq.Delete(table).Where(sq.Eq{"file_path": paths}).RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// SetMetadata sets or updates one scan_metadata entry.
func (w *Writer) SetMetadata(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO scan_metadata (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := w.db.Exec(query, key, value, now)
	if err != nil {
		return fmt.Errorf("failed to update metadata %s: %w", key, err)
	}
	return nil
}

// DB exposes the underlying connection so readers can share it. In-memory
// databases exist per connection, so shared-state tests need this.
func (w *Writer) DB() *sql.DB {
	return w.db
}

// Close closes the database connection.
func (w *Writer) Close() error {
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// functionID and typeID build stable primary keys. The fn/type prefixes
// keep the two tables' ids distinct inside signatures_fts.
func functionID(filePath string, position int) string {
	return fmt.Sprintf("fn::%s::%d", filePath, position)
}

func typeID(filePath string, position int) string {
	return fmt.Sprintf("type::%s::%d", filePath, position)
}
