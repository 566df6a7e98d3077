package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// findEnclosingName finds the named scope a member belongs to: the nearest
// enclosing class's name, or the name of the variable whose initializer is
// the object literal holding the member. Returns "" when no named scope
// exists before the file root.
func findEnclosingName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}

	for anc := node.Parent(); anc != nil; anc = anc.Parent() {
		switch anc.Kind() {
		case "class_declaration", "abstract_class_declaration", "class":
			if name := nodeText(anc.ChildByFieldName("name"), source); name != "" {
				return name
			}
			// Anonymous class: keep looking for an outer named scope.

		case "object":
			parent := anc.Parent()
			if parent != nil && parent.Kind() == "variable_declarator" {
				if name := nodeText(parent.ChildByFieldName("name"), source); name != "" {
					return name
				}
			}
		}
	}
	return ""
}
