// Package report renders stored signatures as the text projection used by
// the CLI and the MCP tools.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/sigmap/internal/extract"
)

// Options control what the report includes.
type Options struct {
	// ExportedOnly keeps exported declarations and router procedures.
	ExportedOnly bool
}

// Formatter renders per-file parse results as text.
type Formatter interface {
	FormatSignatures(results map[string]*extract.ParseResult, opts Options) string
}

type formatter struct{}

// NewFormatter creates a new formatter instance.
func NewFormatter() Formatter {
	return &formatter{}
}

// FormatSignatures groups signatures by file path (sorted), rendering a
// Types section then a Functions section per file, one full signature per
// line. Files with nothing to show are omitted.
func (f *formatter) FormatSignatures(results map[string]*extract.ParseResult, opts Options) string {
	paths := make([]string, 0, len(results))
	for path := range results {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var sb strings.Builder
	for _, path := range paths {
		result := results[path]

		types := result.Types
		functions := result.Functions
		if opts.ExportedOnly {
			types = exportedTypes(types)
			functions = exportedFunctions(functions)
		}
		if len(types) == 0 && len(functions) == 0 {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(path + "\n")

		if len(types) > 0 {
			sb.WriteString("  Types:\n")
			for _, typ := range types {
				sb.WriteString(fmt.Sprintf("    - %s\n", typ.FullSignature))
			}
		}
		if len(functions) > 0 {
			sb.WriteString("  Functions:\n")
			for _, fn := range functions {
				sb.WriteString(fmt.Sprintf("    - %s\n", fn.FullSignature))
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func exportedTypes(types []extract.TypeSignature) []extract.TypeSignature {
	kept := make([]extract.TypeSignature, 0, len(types))
	for _, typ := range types {
		if typ.IsExported {
			kept = append(kept, typ)
		}
	}
	return kept
}

// exportedFunctions keeps exported declarations plus all router procedures;
// a procedure is reachable API surface whether or not its router is
// exported.
func exportedFunctions(functions []extract.FunctionSignature) []extract.FunctionSignature {
	kept := make([]extract.FunctionSignature, 0, len(functions))
	for _, fn := range functions {
		if fn.IsExported || fn.IsProcedure {
			kept = append(kept, fn)
		}
	}
	return kept
}
