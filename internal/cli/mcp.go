package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/sigmap/internal/mcp"
)

var mcpRootFlag string

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for signature lookup",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered
coding assistants read and search the workspace's signature map.

The MCP server:
- Loads signatures from the SQLite store (scanning first if none exists)
- Provides the get_signatures, search_signatures and scan_workspace tools
- Reloads automatically when the store changes on disk
- Communicates via stdio (standard MCP transport)

Example:
  sigmap mcp --root /path/to/workspace`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpRootFlag, "root", "", "Workspace root (defaults to $SIGMAP_ROOT, then the working directory)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := mcp.ResolveRoot(mcpRootFlag)
	if err != nil {
		return fmt.Errorf("failed to resolve workspace root: %w", err)
	}

	cfg, err := loadWorkspaceConfig(root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Startup information goes to stderr; stdout carries the MCP protocol.
	fmt.Fprintf(os.Stderr, "Sigmap MCP Server\n")
	fmt.Fprintf(os.Stderr, "Workspace: %s\n", root)
	fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.StorePath(root))
	fmt.Fprintf(os.Stderr, "\n")

	server, err := mcp.NewServer(ctx, root, cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	// Serve (blocks until shutdown)
	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}
