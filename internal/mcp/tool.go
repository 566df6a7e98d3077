package mcp

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/sigmap/internal/extract"
)

// AddGetSignaturesTool registers the get_signatures tool with an MCP server.
// This function is composable - it can be combined with other tool registrations.
func AddGetSignaturesTool(s *server.MCPServer, searcher SignatureSearcher) {
	tool := mcp.NewTool(
		"get_signatures",
		mcp.WithDescription("List extracted TypeScript signatures (functions, types, router procedures) from the workspace signature map. Returns compact declarations without implementation bodies, grouped by file."),
		mcp.WithString("path",
			mcp.Description("Filter to one file or directory, relative to the workspace root (e.g. 'src/api' or 'src/api/users.ts'). Empty returns every file.")),
		mcp.WithBoolean("exported_only",
			mcp.Description("Only include exported declarations (default: false). Router procedures always count as exported.")),
		mcp.WithString("kind",
			mcp.Description("Which declarations to return: 'functions', 'types', or 'all' (default: 'all')")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createGetSignaturesHandler(searcher))
}

// createGetSignaturesHandler creates the handler function for the
// get_signatures tool.
func createGetSignaturesHandler(searcher SignatureSearcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		pathFilter, err := parseStringArg(argsMap, "path", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		kind, err := parseStringArg(argsMap, "kind", false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if kind == "" {
			kind = "all"
		}
		if kind != "functions" && kind != "types" && kind != "all" {
			return mcp.NewToolResultError("kind must be 'functions', 'types' or 'all'"), nil
		}

		exportedOnly := parseBoolArg(argsMap, "exported_only", false)

		response := buildSignaturesResponse(searcher.Signatures(), pathFilter, kind, exportedOnly)
		return marshalToolResponse(response)
	}
}

// buildSignaturesResponse projects the loaded store onto the requested path,
// kind and export filters, ordered by file path. Files left with nothing
// after filtering are omitted.
func buildSignaturesResponse(files map[string]*extract.ParseResult, pathFilter, kind string, exportedOnly bool) *GetSignaturesResponse {
	paths := make([]string, 0, len(files))
	for p := range files {
		if matchesPathFilter(p, pathFilter) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	response := &GetSignaturesResponse{Files: make([]*FileSignatures, 0, len(paths))}
	for _, p := range paths {
		result := files[p]
		entry := &FileSignatures{FilePath: p}

		if kind != "types" {
			for _, fn := range result.Functions {
				if exportedOnly && !fn.IsExported && !fn.IsProcedure {
					continue
				}
				entry.Functions = append(entry.Functions, fn)
			}
		}
		if kind != "functions" {
			for _, typ := range result.Types {
				if exportedOnly && !typ.IsExported {
					continue
				}
				entry.Types = append(entry.Types, typ)
			}
		}

		if len(entry.Functions) == 0 && len(entry.Types) == 0 {
			continue
		}
		response.TotalFunctions += len(entry.Functions)
		response.TotalTypes += len(entry.Types)
		response.Files = append(response.Files, entry)
	}

	return response
}

// matchesPathFilter reports whether filePath is the filter itself or lives
// under it. An empty filter matches everything. Stored paths are
// slash-separated and relative to the workspace root.
func matchesPathFilter(filePath, filter string) bool {
	if filter == "" {
		return true
	}
	filter = path.Clean(filter)
	if filter == "." || filter == "/" {
		return true
	}
	return filePath == filter || strings.HasPrefix(filePath, filter+"/")
}
