package scan

// Test Plan for Scanner:
// - Full pass discovers, parses, and stores every source file
// - Second pass skips files whose size and mtime are unchanged
// - Modified files are rescanned and their rows replaced
// - Force rescans unchanged files
// - Files deleted from disk are removed from the store
// - Router procedures are counted separately from plain functions
// - Default and configured exclusions are honored
// - Run stops between files when the context is cancelled
// - Stats summary renders counts and qualifiers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/store"
)

func writeSource(t *testing.T, root, rel, source string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func newTestScanner(t *testing.T, cfg Config) *Scanner {
	t.Helper()
	if cfg.StorePath == "" {
		cfg.StorePath = filepath.Join(cfg.RootDir, ".sigmap", "sigmap.db")
	}
	cfg.Quiet = true

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func loadStore(t *testing.T, dbPath string) map[string]*extract.ParseResult {
	t.Helper()
	r, err := store.NewReader(dbPath)
	require.NoError(t, err)
	defer r.Close()

	results, err := r.LoadAll()
	require.NoError(t, err)
	return results
}

func TestScanner_FullPass(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/users.ts", `
export interface User { id: string }
export function loadUser(id: string): Promise<User> { return api.get(id) }
`)
	writeSource(t, root, "src/view.tsx", `
export const Card = () => <div />
`)

	s := newTestScanner(t, Config{RootDir: root})
	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesScanned)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 2, stats.Functions)
	assert.Equal(t, 1, stats.Types)
	assert.Equal(t, 0, stats.Procedures)
	assert.NotEmpty(t, stats.ScanID)

	results := loadStore(t, filepath.Join(root, ".sigmap", "sigmap.db"))
	require.Contains(t, results, "src/users.ts")
	require.Contains(t, results, "src/view.tsx")

	users := results["src/users.ts"]
	require.Len(t, users.Functions, 1)
	assert.Equal(t, "loadUser(id: string): Promise<User>", users.Functions[0].FullSignature)
	require.Len(t, users.Types, 1)
	assert.Equal(t, "User", users.Types[0].Name)

	view := results["src/view.tsx"]
	require.Len(t, view.Functions, 1)
	assert.Equal(t, "JSX.Element", view.Functions[0].ReturnType)
}

func TestScanner_IncrementalSkip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/a.ts", "export function a(): void {}")
	writeSource(t, root, "src/b.ts", "export function b(): void {}")

	s := newTestScanner(t, Config{RootDir: root})

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.FilesScanned)

	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesScanned)
	assert.Equal(t, 2, second.FilesSkipped)
}

func TestScanner_ModifiedFileRescanned(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeSource(t, root, "src/a.ts", "export function before(): void {}")
	writeSource(t, root, "src/b.ts", "export function stays(): void {}")

	s := newTestScanner(t, Config{RootDir: root})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	// Rewrite with a bumped mtime so coarse filesystem clocks can't hide
	// the change
	require.NoError(t, os.WriteFile(path, []byte("export function after(): void {}"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, 1, stats.FilesSkipped)

	results := loadStore(t, filepath.Join(root, ".sigmap", "sigmap.db"))
	require.Len(t, results["src/a.ts"].Functions, 1)
	assert.Equal(t, "after", results["src/a.ts"].Functions[0].Name)
}

func TestScanner_ForceRescansAll(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/a.ts", "export function a(): void {}")

	s := newTestScanner(t, Config{RootDir: root})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	forced := newTestScanner(t, Config{RootDir: root, Force: true})
	stats, err := forced.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, 0, stats.FilesSkipped)
}

func TestScanner_RemovesDeletedFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	keep := "src/keep.ts"
	writeSource(t, root, keep, "export function keep(): void {}")
	gonePath := writeSource(t, root, "src/gone.ts", "export function gone(): void {}")

	s := newTestScanner(t, Config{RootDir: root})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(gonePath))

	stats, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesDeleted)

	results := loadStore(t, filepath.Join(root, ".sigmap", "sigmap.db"))
	assert.Contains(t, results, keep)
	assert.NotContains(t, results, "src/gone.ts")
}

func TestScanner_CountsProcedures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/router.ts", `
const appRouter = t.router({
  getUser: t.procedure.input(UserIdSchema).query(({ input }) => db.find(input)),
  ping: t.procedure.query(() => 'pong'),
})
`)

	s := newTestScanner(t, Config{RootDir: root})
	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Procedures)
	assert.Equal(t, 0, stats.Functions)

	results := loadStore(t, filepath.Join(root, ".sigmap", "sigmap.db"))
	procs := results["src/router.ts"].Functions
	require.Len(t, procs, 2)
	assert.Equal(t, "getUser", procs[0].Name)
	assert.True(t, procs[0].IsProcedure)
	assert.Equal(t, extract.ProcedureKindQuery, procs[0].ProcedureKind)
	assert.Equal(t, "UserIdSchema", procs[0].InputSchemaName)
}

func TestScanner_HonorsExclusions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/app.ts", "export function app(): void {}")
	writeSource(t, root, "node_modules/lib/index.ts", "export function dep(): void {}")
	writeSource(t, root, "fixtures/sample.ts", "export function fixture(): void {}")

	s := newTestScanner(t, Config{RootDir: root, Excludes: []string{"fixtures"}})
	stats, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesScanned)

	results := loadStore(t, filepath.Join(root, ".sigmap", "sigmap.db"))
	assert.Contains(t, results, "src/app.ts")
	assert.NotContains(t, results, "node_modules/lib/index.ts")
	assert.NotContains(t, results, "fixtures/sample.ts")
}

func TestScanner_ContextCancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSource(t, root, "src/a.ts", "export function a(): void {}")

	s := newTestScanner(t, Config{RootDir: root})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStats_Summary(t *testing.T) {
	t.Parallel()

	stats := &Stats{
		FilesScanned: 3,
		FilesSkipped: 1,
		Functions:    5,
		Types:        2,
		Procedures:   1,
		Duration:     2 * time.Second,
	}

	want := "✓ Scan complete: 3 files in 2.0s (1 unchanged)\n" +
		"  Functions:  5\n" +
		"  Types:      2\n" +
		"  Procedures: 1"
	assert.Equal(t, want, stats.Summary())
}
