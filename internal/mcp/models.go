package mcp

import (
	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/scan"
)

// FileSignatures groups the signatures extracted from one source file.
type FileSignatures struct {
	FilePath  string                      `json:"file_path"`
	Functions []extract.FunctionSignature `json:"functions,omitempty"`
	Types     []extract.TypeSignature     `json:"types,omitempty"`
}

// GetSignaturesResponse is the JSON payload of the get_signatures tool.
type GetSignaturesResponse struct {
	Files          []*FileSignatures `json:"files"`
	TotalFunctions int               `json:"total_functions"`
	TotalTypes     int               `json:"total_types"`
}

// SearchOptions contains parameters for signature search queries.
type SearchOptions struct {
	// Limit specifies the maximum number of results to return (1-100)
	Limit int `json:"limit,omitempty"`

	// ExportedOnly restricts matches to exported declarations
	ExportedOnly bool `json:"exported_only,omitempty"`
}

// DefaultSearchOptions returns default search options (limit: 20, no filters).
func DefaultSearchOptions() *SearchOptions {
	return &SearchOptions{
		Limit: 20,
	}
}

// SearchMatch is one ranked hit from the signature index.
type SearchMatch struct {
	Name          string  `json:"name"`
	FullSignature string  `json:"full_signature"`
	FilePath      string  `json:"file_path"`
	Kind          string  `json:"kind"` // "function" or "type"
	IsExported    bool    `json:"is_exported"`
	Score         float64 `json:"score"`
}

// SearchSignaturesResponse is the JSON payload of the search_signatures tool.
type SearchSignaturesResponse struct {
	Results []*SearchMatch `json:"results"`
	Total   int            `json:"total"`
}

// ScanWorkspaceResponse is the JSON payload of the scan_workspace tool.
type ScanWorkspaceResponse struct {
	Stats   *scan.Stats `json:"stats"`
	Summary string      `json:"summary"`
}
