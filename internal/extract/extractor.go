// Package extract parses TypeScript source with tree-sitter and pulls out
// compact signatures for functions, type declarations, and router
// procedures. It never executes or type-checks code; everything is derived
// from the syntax tree of a single file.
package extract

import (
	"fmt"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Options controls signature extraction.
type Options struct {
	// RenderDepth bounds type rendering; zero means DefaultRenderDepth.
	RenderDepth int
	// RouterFactories are call names whose object-literal argument declares
	// procedures, matched against the trailing identifier of the callee so
	// that t.router and router both hit "router". Empty means "router".
	RouterFactories []string
}

// DefaultOptions returns the settings used by the CLI.
func DefaultOptions() Options {
	return Options{
		RenderDepth:     DefaultRenderDepth,
		RouterFactories: []string{"router"},
	}
}

// Extractor parses TypeScript files into signature sets.
type Extractor interface {
	// ParseFile extracts all signatures from one file. The same source
	// always yields the same result.
	ParseFile(filePath string, source []byte) (*ParseResult, error)
}

type extractor struct {
	renderDepth int
	factories   map[string]bool
	tsLanguage  *sitter.Language
	tsxLanguage *sitter.Language
}

// NewExtractor creates an Extractor with both TypeScript grammars loaded.
func NewExtractor(opts Options) Extractor {
	if opts.RenderDepth <= 0 {
		opts.RenderDepth = DefaultRenderDepth
	}
	if len(opts.RouterFactories) == 0 {
		opts.RouterFactories = []string{"router"}
	}

	factories := make(map[string]bool, len(opts.RouterFactories))
	for _, name := range opts.RouterFactories {
		factories[name] = true
	}

	return &extractor{
		renderDepth: opts.RenderDepth,
		factories:   factories,
		tsLanguage:  sitter.NewLanguage(typescript.LanguageTypescript()),
		tsxLanguage: sitter.NewLanguage(typescript.LanguageTSX()),
	}
}

func (e *extractor) isRouterFactory(name string) bool {
	return name != "" && e.factories[name]
}

func (e *extractor) ParseFile(filePath string, source []byte) (*ParseResult, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	tsx := filepath.Ext(filePath) == ".tsx"
	if tsx {
		parser.SetLanguage(e.tsxLanguage)
	} else {
		parser.SetLanguage(e.tsLanguage)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", filePath)
	}
	defer tree.Close()

	result := &ParseResult{
		Functions: []FunctionSignature{},
		Types:     []TypeSignature{},
	}
	w := &fileWalk{
		ext:      e,
		source:   source,
		filePath: filePath,
		tsx:      tsx,
		result:   result,
	}
	w.walk(tree.RootNode(), walkContext{})
	return result, nil
}

// fileWalk carries per-file state through one traversal.
type fileWalk struct {
	ext      *extractor
	source   []byte
	filePath string
	tsx      bool
	result   *ParseResult
}

// walkContext flows down the tree by value, so state set inside a router
// statement's subtree vanishes when the traversal leaves it.
type walkContext struct {
	// routerName labels procedures and anonymous callables found inside the
	// active router statement.
	routerName     string
	routerExported bool
	// pendingLiteral is the start byte of a factory argument whose
	// properties have not been collected yet.
	pendingLiteral uint
	hasPending     bool
	// chainSpans are byte ranges consumed by procedure chains.
	chainSpans []span
}

// walk visits every node in pre-order, so signatures come out in source
// order with outer declarations before nested ones.
func (w *fileWalk) walk(node *sitter.Node, ctx walkContext) {
	if node == nil {
		return
	}

	if name, literal, exported := w.detectRouterDefinition(node); literal != nil {
		ctx.routerName = name
		ctx.routerExported = exported
		ctx.pendingLiteral = literal.StartByte()
		ctx.hasPending = true
	}

	switch node.Kind() {
	case "interface_declaration", "type_alias_declaration", "enum_declaration",
		"class_declaration", "abstract_class_declaration", "internal_module", "module":
		if sig := w.extractTypeDecl(node); sig != nil {
			w.result.Types = append(w.result.Types, *sig)
		}

	case "function_declaration", "generator_function_declaration", "function_expression",
		"generator_function", "arrow_function", "method_definition":
		if !classOwned(node) && !inChainSpan(node, ctx.chainSpans) {
			if sig := w.extractFunction(node, ctx); sig != nil {
				w.result.Functions = append(w.result.Functions, *sig)
			}
		}

	case "object":
		if ctx.hasPending && node.StartByte() == ctx.pendingLiteral {
			procs, spans := w.extractProcedures(node, ctx)
			w.result.Functions = append(w.result.Functions, procs...)
			ctx.hasPending = false
			ctx.chainSpans = append(ctx.chainSpans, spans...)
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(uint(i)), ctx)
	}
}

// classOwned reports whether node is a method of a named class declaration.
// Those methods surface inside the class's own signature, not on their own.
// Methods of class expressions and anonymous classes keep the generic path.
func classOwned(node *sitter.Node) bool {
	if node.Kind() != "method_definition" {
		return false
	}
	body := node.Parent()
	if body == nil || body.Kind() != "class_body" {
		return false
	}
	decl := body.Parent()
	if decl == nil {
		return false
	}
	switch decl.Kind() {
	case "class_declaration", "abstract_class_declaration":
		return decl.ChildByFieldName("name") != nil
	}
	return false
}
