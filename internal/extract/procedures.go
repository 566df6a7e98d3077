package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// span is a byte range owned by a procedure chain. Callables inside it are
// wiring, not declarations, and are skipped by function extraction.
type span struct {
	start uint
	end   uint
}

func inChainSpan(node *sitter.Node, spans []span) bool {
	for _, s := range spans {
		if node.StartByte() >= s.start && node.EndByte() <= s.end {
			return true
		}
	}
	return false
}

// detectRouterDefinition recognizes a top-level binding initialized by a
// router factory call: const appRouter = t.router({ ... }). It returns the
// binding name, the factory's object-literal argument, and the binding's
// visibility.
func (w *fileWalk) detectRouterDefinition(node *sitter.Node) (string, *sitter.Node, bool) {
	switch node.Kind() {
	case "lexical_declaration", "variable_declaration":
	default:
		return "", nil, false
	}

	parent := node.Parent()
	if parent == nil {
		return "", nil, false
	}
	switch parent.Kind() {
	case "program":
	case "export_statement":
		if grand := parent.Parent(); grand == nil || grand.Kind() != "program" {
			return "", nil, false
		}
	default:
		return "", nil, false
	}

	for _, decl := range findChildrenByKind(node, "variable_declarator") {
		value := decl.ChildByFieldName("value")
		if value == nil || value.Kind() != "call_expression" {
			continue
		}
		if !w.ext.isRouterFactory(calleeTrailingName(value.ChildByFieldName("function"), w.source)) {
			continue
		}
		literal := findChildByKind(value.ChildByFieldName("arguments"), "object")
		if literal == nil {
			continue
		}
		name := nodeText(decl.ChildByFieldName("name"), w.source)
		if name == "" {
			continue
		}
		return name, literal, isExported(decl, w.source)
	}
	return "", nil, false
}

// calleeTrailingName yields the last identifier of a call target: router for
// both router(...) and t.router(...).
func calleeTrailingName(callee *sitter.Node, source []byte) string {
	if callee == nil {
		return ""
	}
	switch callee.Kind() {
	case "identifier":
		return nodeText(callee, source)
	case "member_expression":
		return nodeText(callee.ChildByFieldName("property"), source)
	}
	return ""
}

// extractProcedures walks each property of the router's object literal whose
// value is a fluent call chain and reconstructs the procedure it declares.
// Entries whose chain never names an operation kind are discarded. The byte
// spans of every recognized chain are returned so the walker can exclude
// their contents from generic function extraction.
func (w *fileWalk) extractProcedures(literal *sitter.Node, ctx walkContext) ([]FunctionSignature, []span) {
	var procs []FunctionSignature
	var spans []span

	for _, prop := range namedChildren(literal) {
		if prop.Kind() != "pair" {
			continue
		}
		value := prop.ChildByFieldName("value")
		if !isCallChain(value) {
			continue
		}
		spans = append(spans, span{start: value.StartByte(), end: value.EndByte()})

		name := nodeText(prop.ChildByFieldName("key"), w.source)
		if name == "" {
			continue
		}

		kind, hasInput, schemaName, schemaText := w.walkChain(value)
		if kind == "" {
			continue
		}

		proc := FunctionSignature{
			Name:            name,
			FilePath:        w.filePath,
			IsExported:      ctx.routerExported,
			ParentName:      ctx.routerName,
			IsProcedure:     true,
			ProcedureKind:   ProcedureKind(kind),
			HasInput:        hasInput,
			InputSchemaName: schemaName,
			InputSchemaText: schemaText,
		}
		proc.FullSignature = procedureFullSignature(&proc)
		procs = append(procs, proc)
	}
	return procs, spans
}

// isCallChain reports whether value is a call on a property access, the
// outermost link of a fluent chain.
func isCallChain(value *sitter.Node) bool {
	if value == nil || value.Kind() != "call_expression" {
		return false
	}
	fn := value.ChildByFieldName("function")
	return fn != nil && fn.Kind() == "member_expression"
}

// walkChain descends from the outermost call toward the chain's base. The
// outermost query/mutation is the one applied last in the fluent chain, so
// it is authoritative; inner occurrences never override it.
func (w *fileWalk) walkChain(value *sitter.Node) (kind string, hasInput bool, schemaName, schemaText string) {
	for cur := value; cur != nil && cur.Kind() == "call_expression"; {
		fn := cur.ChildByFieldName("function")
		if fn == nil || fn.Kind() != "member_expression" {
			break
		}

		switch nodeText(fn.ChildByFieldName("property"), w.source) {
		case "query", "mutation":
			if kind == "" {
				kind = nodeText(fn.ChildByFieldName("property"), w.source)
			}
		case "input":
			hasInput = true
			if schemaName == "" && schemaText == "" {
				schemaName, schemaText = w.inputSchema(cur.ChildByFieldName("arguments"))
			}
		}

		cur = fn.ChildByFieldName("object")
	}
	return kind, hasInput, schemaName, schemaText
}

// inputSchema captures the input argument: a sole plain identifier by name,
// anything else as collapsed raw text.
func (w *fileWalk) inputSchema(args *sitter.Node) (string, string) {
	if args == nil {
		return "", ""
	}
	first := args.NamedChild(0)
	if first == nil {
		return "", ""
	}
	if first.Kind() == "identifier" && args.NamedChildCount() == 1 {
		return nodeText(first, w.source), ""
	}
	return "", collapseWhitespace(nodeText(first, w.source))
}

// procedureFullSignature renders {router}.{name}: {kind} (input: {schema}).
func procedureFullSignature(proc *FunctionSignature) string {
	full := proc.Name + ": " + string(proc.ProcedureKind)
	if proc.ParentName != "" {
		full = proc.ParentName + "." + full
	}
	if proc.HasInput {
		schema := proc.InputSchemaName
		if schema == "" {
			schema = proc.InputSchemaText
		}
		if schema != "" {
			full += " (input: " + schema + ")"
		}
	}
	return full
}
