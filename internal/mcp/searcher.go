package mcp

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/mvp-joe/sigmap/internal/extract"
	"github.com/mvp-joe/sigmap/internal/store"
)

// SignatureSearcher is the queryable in-memory view of a signature store.
type SignatureSearcher interface {
	// Search executes a full-text query over signature names and rendered
	// declarations. Supports field scoping, boolean operators, phrase search
	// and wildcards. Options parameter may be nil (defaults will be applied).
	Search(ctx context.Context, queryStr string, options *SearchOptions) ([]*SearchMatch, error)

	// Signatures returns the loaded store contents keyed by file path.
	// The returned map is shared; callers must not mutate it.
	Signatures() map[string]*extract.ParseResult

	// Reload replaces the in-memory view with the store's current contents.
	// The previous view stays in place when loading fails.
	Reload(ctx context.Context) error

	// Close releases the search index.
	Close() error
}

// signatureSearcher implements SignatureSearcher using an in-memory bleve
// index rebuilt from the SQLite store on every reload.
type signatureSearcher struct {
	storePath string

	mu    sync.RWMutex // Protects index and files during reloads
	index bleve.Index
	files map[string]*extract.ParseResult
}

// NewSignatureSearcher loads the signature store at storePath and indexes
// it for search.
func NewSignatureSearcher(ctx context.Context, storePath string) (SignatureSearcher, error) {
	s := &signatureSearcher{storePath: storePath}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// buildIndexMapping creates the index mapping for signature documents.
// All fields are stored so results can be built straight from the hits.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	// Name field (primary search target) - standard analyzer
	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = "standard"
	nameMapping.Store = true
	nameMapping.Index = true

	// Full signature field - standard analyzer, term vectors for phrase search
	signatureMapping := bleve.NewTextFieldMapping()
	signatureMapping.Analyzer = "standard"
	signatureMapping.Store = true
	signatureMapping.Index = true
	signatureMapping.IncludeTermVectors = true

	// File path field (filterable) - standard analyzer for partial matching
	filePathMapping := bleve.NewTextFieldMapping()
	filePathMapping.Analyzer = "standard"
	filePathMapping.Store = true
	filePathMapping.Index = true

	// Kind field ("function"/"type") - keyword analyzer for exact matching
	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true
	kindMapping.Index = true

	// Exported field ("true"/"false") - keyword analyzer for exact matching
	exportedMapping := bleve.NewTextFieldMapping()
	exportedMapping.Analyzer = "keyword"
	exportedMapping.Store = true
	exportedMapping.Index = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", nameMapping)
	docMapping.AddFieldMappingsAt("full_signature", signatureMapping)
	docMapping.AddFieldMappingsAt("file_path", filePathMapping)
	docMapping.AddFieldMappingsAt("kind", kindMapping)
	docMapping.AddFieldMappingsAt("exported", exportedMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// signatureDocument builds the bleve document for one signature entry.
func signatureDocument(name, fullSignature, filePath, kind string, exported bool) map[string]interface{} {
	return map[string]interface{}{
		"name":           name,
		"full_signature": fullSignature,
		"file_path":      filePath,
		"kind":           kind,
		"exported":       strconv.FormatBool(exported),
	}
}

// indexSignatures adds every stored signature to the bleve index in batches.
func indexSignatures(ctx context.Context, index bleve.Index, files map[string]*extract.ParseResult) error {
	const batchSize = 1000

	batch := index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
		batch = index.NewBatch()
		return nil
	}

	for path, result := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		for i, fn := range result.Functions {
			// A procedure is reachable API surface whether or not its router
			// is exported; index it as exported so filters keep it.
			exported := fn.IsExported || fn.IsProcedure
			doc := signatureDocument(fn.Name, fn.FullSignature, path, "function", exported)
			id := fmt.Sprintf("fn::%s::%d", path, i)
			if err := batch.Index(id, doc); err != nil {
				return fmt.Errorf("failed to index %s: %w", id, err)
			}
			if batch.Size() >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		for i, typ := range result.Types {
			doc := signatureDocument(typ.Name, typ.FullSignature, path, "type", typ.IsExported)
			id := fmt.Sprintf("type::%s::%d", path, i)
			if err := batch.Index(id, doc); err != nil {
				return fmt.Errorf("failed to index %s: %w", id, err)
			}
			if batch.Size() >= batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}

	return flush()
}

// Reload rebuilds the bleve index from the store and swaps it in. A failure
// at any step leaves the previous index and snapshot untouched.
func (s *signatureSearcher) Reload(ctx context.Context) error {
	reader, err := store.NewReader(s.storePath)
	if err != nil {
		return fmt.Errorf("failed to open signature store: %w", err)
	}
	defer reader.Close()

	files, err := reader.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load signature store: %w", err)
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create bleve index: %w", err)
	}
	if err := indexSignatures(ctx, index, files); err != nil {
		index.Close()
		return fmt.Errorf("failed to index signatures: %w", err)
	}

	s.mu.Lock()
	old := s.index
	s.index = index
	s.files = files
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Search executes a keyword search using bleve QueryStringQuery syntax.
func (s *signatureSearcher) Search(ctx context.Context, queryStr string, options *SearchOptions) ([]*SearchMatch, error) {
	if options == nil {
		options = DefaultSearchOptions()
	}

	limit := options.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return nil, fmt.Errorf("searcher is closed")
	}

	var queries []query.Query
	queries = append(queries, bleve.NewQueryStringQuery(queryStr))

	if options.ExportedOnly {
		exportedQuery := bleve.NewMatchQuery("true")
		exportedQuery.SetField("exported")
		queries = append(queries, exportedQuery)
	}

	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	searchRequest.Fields = []string{"name", "full_signature", "file_path", "kind", "exported"}

	searchResult, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("signature search failed: %w", err)
	}

	matches := make([]*SearchMatch, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		name, _ := hit.Fields["name"].(string)
		fullSignature, _ := hit.Fields["full_signature"].(string)
		filePath, _ := hit.Fields["file_path"].(string)
		kind, _ := hit.Fields["kind"].(string)
		exported, _ := hit.Fields["exported"].(string)

		matches = append(matches, &SearchMatch{
			Name:          name,
			FullSignature: fullSignature,
			FilePath:      filePath,
			Kind:          kind,
			IsExported:    exported == "true",
			Score:         hit.Score,
		})
	}

	return matches, nil
}

// Signatures returns the current store snapshot keyed by file path.
func (s *signatureSearcher) Signatures() map[string]*extract.ParseResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.files
}

// Close releases the search index.
func (s *signatureSearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		err := s.index.Close()
		s.index = nil
		return err
	}
	return nil
}
