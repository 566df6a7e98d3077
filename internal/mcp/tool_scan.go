package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/sigmap/internal/scan"
)

// ScanFunc runs a workspace scan and reports its stats. When force is true
// every file is reparsed regardless of size and mtime.
type ScanFunc func(ctx context.Context, force bool) (*scan.Stats, error)

// AddScanWorkspaceTool registers the scan_workspace tool with an MCP server.
func AddScanWorkspaceTool(s *server.MCPServer, scanWorkspace ScanFunc) {
	tool := mcp.NewTool(
		"scan_workspace",
		mcp.WithDescription("Rescan the workspace for changed TypeScript files and refresh the signature map. Unchanged files are skipped. Returns scan statistics."),
		mcp.WithBoolean("force",
			mcp.Description("Reparse every file even when size and mtime are unchanged (default: false)")),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createScanWorkspaceHandler(scanWorkspace))
}

// createScanWorkspaceHandler creates the handler function for the
// scan_workspace tool.
func createScanWorkspaceHandler(scanWorkspace ScanFunc) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		force := parseBoolArg(argsMap, "force", false)

		stats, err := scanWorkspace(ctx, force)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		response := &ScanWorkspaceResponse{
			Stats:   stats,
			Summary: stats.Summary(),
		}
		return marshalToolResponse(response)
	}
}
