package cli

// Test Plan for Scan Command:
// - runScan builds a signature store from a fresh workspace
// - runScan skips directories named by --exclude
// - runScan leaves the store usable by a follow-up reader
// - printSignatureMap errors when no store exists
// These tests chdir and mutate package-level flags, so they do not run in
// parallel.

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/sigmap/internal/store"
)

// setupWorkspace creates a temp workspace, chdirs into it, and restores the
// working directory and every scan flag when the test ends.
func setupWorkspace(t *testing.T) string {
	t.Helper()

	projectDir := t.TempDir()

	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(projectDir))

	prevExclude := scanExcludeFlag
	prevDepth := scanDepthFlag
	prevForce := scanForceFlag
	prevQuiet := scanQuietFlag
	prevPrint := scanPrintFlag
	prevExported := scanExportedFlag
	prevWatch := scanWatchFlag
	prevCfg := cfgFile

	scanExcludeFlag = nil
	scanDepthFlag = 0
	scanForceFlag = false
	scanQuietFlag = true
	scanPrintFlag = false
	scanExportedFlag = false
	scanWatchFlag = false
	cfgFile = ""

	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
		scanExcludeFlag = prevExclude
		scanDepthFlag = prevDepth
		scanForceFlag = prevForce
		scanQuietFlag = prevQuiet
		scanPrintFlag = prevPrint
		scanExportedFlag = prevExported
		scanWatchFlag = prevWatch
		cfgFile = prevCfg
	})

	return projectDir
}

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunScan_CreatesStore(t *testing.T) {
	projectDir := setupWorkspace(t)

	writeSource(t, projectDir, "src/app.ts", `
export interface User {
  id: string
}

export function loadUser(id: string): Promise<User> {
  return api.get(id)
}
`)

	require.NoError(t, runScan(scanCmd, nil))

	storePath := filepath.Join(projectDir, ".sigmap", "sigmap.db")
	_, err := os.Stat(storePath)
	require.NoError(t, err, "scan should create the store")

	reader, err := store.NewReader(storePath)
	require.NoError(t, err)
	defer reader.Close()

	results, err := reader.LoadAll()
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results["src/app.ts"]
	require.NotNil(t, result)
	assert.Len(t, result.Functions, 1)
	assert.Len(t, result.Types, 1)
	assert.Equal(t, "loadUser", result.Functions[0].Name)
}

func TestRunScan_ExcludeFlag(t *testing.T) {
	projectDir := setupWorkspace(t)

	writeSource(t, projectDir, "src/app.ts", "export function kept(): void {}\n")
	writeSource(t, projectDir, "gen/api.ts", "export function skipped(): void {}\n")

	scanExcludeFlag = []string{"gen"}

	require.NoError(t, runScan(scanCmd, nil))

	reader, err := store.NewReader(filepath.Join(projectDir, ".sigmap", "sigmap.db"))
	require.NoError(t, err)
	defer reader.Close()

	results, err := reader.LoadAll()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results, "src/app.ts")
	assert.NotContains(t, results, "gen/api.ts")
}

func TestRunScan_RescanSkipsUnchanged(t *testing.T) {
	projectDir := setupWorkspace(t)

	writeSource(t, projectDir, "src/app.ts", "export function once(): void {}\n")

	require.NoError(t, runScan(scanCmd, nil))
	// Second run sees the same size and mtime and must not fail.
	require.NoError(t, runScan(scanCmd, nil))

	reader, err := store.NewReader(filepath.Join(projectDir, ".sigmap", "sigmap.db"))
	require.NoError(t, err)
	defer reader.Close()

	results, err := reader.LoadAll()
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPrintSignatureMap_NoStore(t *testing.T) {
	projectDir := setupWorkspace(t)

	err := printSignatureMap(filepath.Join(projectDir, ".sigmap", "sigmap.db"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature store found")
}
