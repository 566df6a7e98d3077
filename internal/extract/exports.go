package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// isExported decides whether a declaration is visible outside its file.
// Precedence: explicit export modifier, then named re-export specifier,
// then delegation from a variable declarator to its owning statement, then
// an ancestor walk bounded by the nearest block. An aliased re-export
// (export { X as Y }) marks X exported under its local name; re-exports
// from other modules are not followed.
func isExported(node *sitter.Node, source []byte) bool {
	if node == nil {
		return false
	}

	// Explicit modifier: the declaration hangs off an export statement.
	parent := node.Parent()
	if parent != nil && parent.Kind() == "export_statement" {
		return true
	}

	// Named re-export: a sibling `export { A, B }` lists this declaration.
	if isReExported(node, source) {
		return true
	}

	// A declarator's visibility is its owning statement's visibility.
	if node.Kind() == "variable_declarator" && parent != nil {
		switch parent.Kind() {
		case "lexical_declaration", "variable_declaration":
			return isExported(parent, source)
		}
	}

	// Ancestor walk up to the nearest block or the file root.
	for anc := parent; anc != nil; anc = anc.Parent() {
		switch anc.Kind() {
		case "statement_block", "class_body", "program":
			return false
		case "export_statement":
			return true
		}
	}
	return false
}

// isReExported reports whether a file-level export clause names the
// declaration's identifier.
func isReExported(node *sitter.Node, source []byte) bool {
	name := nodeText(node.ChildByFieldName("name"), source)
	if name == "" {
		return false
	}

	root := node
	for root.Parent() != nil {
		root = root.Parent()
	}
	if root.Kind() != "program" {
		return false
	}

	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(uint(i))
		if stmt.Kind() != "export_statement" {
			continue
		}
		clause := findChildByKind(stmt, "export_clause")
		if clause == nil {
			continue
		}
		for _, spec := range findChildrenByKind(clause, "export_specifier") {
			if nodeText(spec.ChildByFieldName("name"), source) == name {
				return true
			}
		}
	}
	return false
}
