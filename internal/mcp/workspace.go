package mcp

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootEnvVar overrides the workspace root when the --root flag is absent.
const rootEnvVar = "SIGMAP_ROOT"

// ResolveRoot picks the workspace root for the MCP server. Precedence:
// the --root flag value, the SIGMAP_ROOT environment variable, then the
// current working directory. The result is absolute and must name an
// existing directory.
func ResolveRoot(flagRoot string) (string, error) {
	root := flagRoot
	if root == "" {
		root = os.Getenv(rootEnvVar)
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("workspace root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workspace root %s is not a directory", abs)
	}

	return abs, nil
}
