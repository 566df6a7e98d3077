package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AddSearchSignaturesTool registers the search_signatures tool with an MCP server.
func AddSearchSignaturesTool(s *server.MCPServer, searcher SignatureSearcher) {
	tool := mcp.NewTool(
		"search_signatures",
		mcp.WithDescription("Full-text search over extracted TypeScript signatures. Matches declaration names and rendered signatures; supports field scoping (name:loadUser), boolean operators, phrase search and wildcards."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (e.g. 'loadUser', 'name:Router', '\"id: string\"')")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (1-100, default: 20)")),
		mcp.WithBoolean("exported_only",
			mcp.Description("Only match exported declarations (default: false)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchSignaturesHandler(searcher))
}

// createSearchSignaturesHandler creates the handler function for the
// search_signatures tool.
func createSearchSignaturesHandler(searcher SignatureSearcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		queryStr, err := parseStringArg(argsMap, "query", true)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		options := &SearchOptions{
			Limit:        parseClampedInt(argsMap, "limit", 20, 1, 100),
			ExportedOnly: parseBoolArg(argsMap, "exported_only", false),
		}

		results, err := searcher.Search(ctx, queryStr, options)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		response := &SearchSignaturesResponse{
			Results: results,
			Total:   len(results),
		}
		return marshalToolResponse(response)
	}
}
