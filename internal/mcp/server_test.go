package mcp

// Test Plan for Server:
// - NewServer bootstraps the store with an initial scan when none exists
// - NewServer loads an existing store without rescanning
// - scanAndReload runs incrementally and folds new files into the searcher
// - Close is safe when Serve never ran, and safe twice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/sigmap/internal/config"
	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/store"
)

func writeWorkspaceFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNewServer_InitialScan(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeWorkspaceFile(t, root, "src/users.ts", `
export interface User { id: string; name: string }
export function loadUser(id: string): Promise<User> {
  return api.get(id);
}
`)

	s, err := NewServer(context.Background(), root, nil) // nil config uses defaults
	require.NoError(t, err)
	defer s.Close()

	_, statErr := os.Stat(config.Default().StorePath(root))
	require.NoError(t, statErr, "initial scan should create the store")

	files := s.searcher.Signatures()
	require.Contains(t, files, "src/users.ts")
	assert.Len(t, files["src/users.ts"].Functions, 1)
	assert.Len(t, files["src/users.ts"].Types, 1)
}

func TestNewServer_ExistingStore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := config.Default()

	// Seed a store holding a file that does not exist on disk. A scan would
	// remove it, so its survival proves startup loaded instead of scanning.
	w, err := store.NewWriter(cfg.StorePath(root))
	require.NoError(t, err)
	ghost := &extract.ParseResult{
		Functions: []extract.FunctionSignature{
			{Name: "vanish", FullSignature: "vanish(): void", FilePath: "src/ghost.ts"},
		},
		Types: []extract.TypeSignature{},
	}
	require.NoError(t, w.ReplaceFile(store.FileRecord{
		FilePath:  "src/ghost.ts",
		FileHash:  "cafef00d",
		SizeBytes: 64,
		MTime:     time.Now(),
		ScannedAt: time.Now(),
	}, ghost))
	require.NoError(t, w.Close())

	s, err := NewServer(context.Background(), root, cfg)
	require.NoError(t, err)
	defer s.Close()

	files := s.searcher.Signatures()
	require.Contains(t, files, "src/ghost.ts")
	assert.Len(t, files["src/ghost.ts"].Functions, 1)
}

func TestServer_ScanAndReload(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeWorkspaceFile(t, root, "src/a.ts", "export function alpha(): void {}\n")

	ctx := context.Background()
	s, err := NewServer(ctx, root, nil)
	require.NoError(t, err)
	defer s.Close()

	writeWorkspaceFile(t, root, "src/b.ts", "export function beta(): number { return 1; }\n")

	stats, err := s.scanAndReload(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned) // Only the new file is parsed
	assert.Equal(t, 1, stats.FilesSkipped)

	files := s.searcher.Signatures()
	assert.Len(t, files, 2)

	results, err := s.searcher.Search(ctx, "beta", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "src/b.ts", results[0].FilePath)
}

func TestServer_Close(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeWorkspaceFile(t, root, "src/a.ts", "export const n = 1;\n")

	s, err := NewServer(context.Background(), root, nil)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // Second close must not block or panic
}
