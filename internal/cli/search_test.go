package cli

// Test Plan for Search Command:
// - runSearch errors with a scan hint when no store exists
// - runSearch succeeds against a freshly scanned workspace
// - runSearch restores its flags between runs via setupWorkspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSearch_NoStore(t *testing.T) {
	setupWorkspace(t)

	prevLimit, prevExported := searchLimitFlag, searchExportedFlag
	searchLimitFlag, searchExportedFlag = 20, false
	t.Cleanup(func() { searchLimitFlag, searchExportedFlag = prevLimit, prevExported })

	err := runSearch(searchCmd, []string{"loadUser"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run 'sigmap scan' first")
}

func TestRunSearch_AfterScan(t *testing.T) {
	projectDir := setupWorkspace(t)

	prevLimit, prevExported := searchLimitFlag, searchExportedFlag
	searchLimitFlag, searchExportedFlag = 20, false
	t.Cleanup(func() { searchLimitFlag, searchExportedFlag = prevLimit, prevExported })

	writeSource(t, projectDir, "src/users.ts", `
export function loadUser(id: string): Promise<User> {
  return api.get(id)
}
`)

	require.NoError(t, runScan(scanCmd, nil))
	assert.NoError(t, runSearch(searchCmd, []string{"loadUser"}))
}
