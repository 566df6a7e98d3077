package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/sigmap/internal/extract"
)

// FileState is what incremental scans compare against the filesystem.
type FileState struct {
	FileHash  string
	SizeBytes int64
	MTime     time.Time
}

// SearchResult is one full-text match over stored signatures.
type SearchResult struct {
	Name          string
	FullSignature string
	FilePath      string
	EntryKind     string // function or type
	IsExported    bool
	Rank          float64 // FTS5 bm25 rank, lower sorts first
}

// Reader handles reading signatures from the SQLite store.
// Opens the database in read-only mode for safety and concurrent access.
type Reader struct {
	db     *sql.DB
	ownsDB bool // true if we opened the connection, false if shared
}

// NewReader opens the signature database at dbPath for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &Reader{db: db, ownsDB: true}, nil
}

// NewReaderWithDB creates a Reader using an existing database connection.
// The caller is responsible for managing the database lifecycle.
func NewReaderWithDB(db *sql.DB) *Reader {
	return &Reader{db: db, ownsDB: false}
}

// LoadAll loads every stored file's signatures keyed by file path, each
// file's entries in scan position order. Files that produced no signatures
// map to an empty result, so callers see every scanned file.
func (r *Reader) LoadAll() (map[string]*extract.ParseResult, error) {
	paths, err := r.loadFilePaths()
	if err != nil {
		return nil, err
	}

	results := make(map[string]*extract.ParseResult, len(paths))
	for _, path := range paths {
		results[path] = emptyResult()
	}

	if err := r.loadFunctions(results); err != nil {
		return nil, err
	}
	if err := r.loadTypes(results); err != nil {
		return nil, err
	}

	return results, nil
}

// FileStates returns the stored hash, size, and mtime per file path.
func (r *Reader) FileStates() (map[string]FileState, error) {
	rows, err := sq.Select("file_path", "file_hash", "size_bytes", "mtime").
		From("files").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query file states: %w", err)
	}
	defer rows.Close()

	states := make(map[string]FileState)
	for rows.Next() {
		var (
			path, hash, mtimeStr string
			size                 int64
		)
		if err := rows.Scan(&path, &hash, &size, &mtimeStr); err != nil {
			return nil, fmt.Errorf("failed to scan file state: %w", err)
		}
		mtime, err := time.Parse(time.RFC3339Nano, mtimeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mtime for %s: %w", path, err)
		}
		states[path] = FileState{FileHash: hash, SizeBytes: size, MTime: mtime}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file states: %w", err)
	}

	return states, nil
}

// Search runs an FTS5 MATCH over stored names and full signatures, most
// relevant first. When exportedOnly is set the limit applies after
// filtering, so the query scans all matches.
func (r *Reader) Search(query string, limit int, exportedOnly bool) ([]SearchResult, error) {
	sqlQuery := `
		SELECT name, full_signature, file_path, entry_kind, is_exported, rank
		FROM signatures_fts
		WHERE signatures_fts MATCH ?
		ORDER BY rank
	`
	args := []interface{}{query}
	if !exportedOnly && limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query signatures_fts: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var res SearchResult
		if err := rows.Scan(&res.Name, &res.FullSignature, &res.FilePath, &res.EntryKind, &res.IsExported, &res.Rank); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if exportedOnly && !res.IsExported {
			continue
		}
		results = append(results, res)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return results, nil
}

// Metadata returns one scan_metadata value, or "" when the key is absent.
func (r *Reader) Metadata(key string) (string, error) {
	var value string
	err := sq.Select("value").
		From("scan_metadata").
		Where(sq.Eq{"key": key}).
		RunWith(r.db).
		QueryRow().
		Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query metadata %s: %w", key, err)
	}
	return value, nil
}

// Close closes the database connection if this reader owns it.
func (r *Reader) Close() error {
	if !r.ownsDB {
		return nil
	}
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// loadFilePaths drains its rows before returning so LoadAll's queries run
// strictly one at a time; a shared single-connection database needs that.
func (r *Reader) loadFilePaths() ([]string, error) {
	rows, err := sq.Select("file_path").
		From("files").
		OrderBy("file_path").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan file path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return paths, nil
}

func (r *Reader) loadFunctions(results map[string]*extract.ParseResult) error {
	rows, err := sq.Select("file_path", "name", "parent_name", "return_type", "full_signature",
		"is_exported", "is_procedure", "procedure_kind", "has_input",
		"input_schema_name", "input_schema_text", "params_json").
		From("functions").
		OrderBy("file_path", "position").
		RunWith(r.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query functions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			fn         extract.FunctionSignature
			kind       string
			paramsJSON string
		)
		err := rows.Scan(&fn.FilePath, &fn.Name, &fn.ParentName, &fn.ReturnType, &fn.FullSignature,
			&fn.IsExported, &fn.IsProcedure, &kind, &fn.HasInput,
			&fn.InputSchemaName, &fn.InputSchemaText, &paramsJSON)
		if err != nil {
			return fmt.Errorf("failed to scan function row: %w", err)
		}
		fn.ProcedureKind = extract.ProcedureKind(kind)
		if err := json.Unmarshal([]byte(paramsJSON), &fn.Parameters); err != nil {
			return fmt.Errorf("failed to decode parameters for %s: %w", fn.Name, err)
		}

		res, ok := results[fn.FilePath]
		if !ok {
			res = emptyResult()
			results[fn.FilePath] = res
		}
		res.Functions = append(res.Functions, fn)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating functions: %w", err)
	}

	return nil
}

func (r *Reader) loadTypes(results map[string]*extract.ParseResult) error {
	rows, err := sq.Select("file_path", "name", "kind", "full_signature", "is_exported").
		From("types").
		OrderBy("file_path", "position").
		RunWith(r.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typ  extract.TypeSignature
			kind string
		)
		if err := rows.Scan(&typ.FilePath, &typ.Name, &kind, &typ.FullSignature, &typ.IsExported); err != nil {
			return fmt.Errorf("failed to scan type row: %w", err)
		}
		typ.Kind = extract.TypeKind(kind)

		res, ok := results[typ.FilePath]
		if !ok {
			res = emptyResult()
			results[typ.FilePath] = res
		}
		res.Types = append(res.Types, typ)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating types: %w", err)
	}

	return nil
}

func emptyResult() *extract.ParseResult {
	return &extract.ParseResult{
		Functions: []extract.FunctionSignature{},
		Types:     []extract.TypeSignature{},
	}
}
