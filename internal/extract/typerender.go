package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	// DefaultRenderDepth keeps one level of nesting visible.
	DefaultRenderDepth = 2

	ellipsis          = "..."
	mappedTypeTextCap = 80
	fallbackTextCap   = 60
)

// renderType serializes a type expression node to a bounded-depth string.
// The depth budget is spent on structural descent (generic arguments, object
// members, tuple elements, function parameters, conditional branches) and
// never on plain renames, so rendering always terminates with a string no
// deeper than the budget. A nil node or exhausted budget yields "...".
func renderType(node *sitter.Node, source []byte, depth int) string {
	if node == nil || depth < 0 {
		return ellipsis
	}

	switch node.Kind() {
	case "type_annotation":
		return renderType(annotationType(node), source, depth)

	case "type_identifier", "nested_type_identifier", "predefined_type", "identifier":
		return nodeText(node, source)

	case "generic_type":
		return renderGenericType(node, source, depth)

	case "array_type":
		elem := node.NamedChild(0)
		return renderType(elem, source, depth) + "[]"

	case "union_type":
		return renderVariantType(node, source, depth, " | ")

	case "intersection_type":
		return renderVariantType(node, source, depth, " & ")

	case "object_type":
		return renderObjectType(node, source, depth)

	case "function_type":
		return renderFunctionType(node, source, depth)

	case "tuple_type":
		return renderTupleType(node, source, depth)

	case "conditional_type":
		return renderConditionalType(node, source, depth)

	case "lookup_type":
		return renderLookupType(node, source, depth)

	case "parenthesized_type":
		return "(" + renderType(node.NamedChild(0), source, depth) + ")"

	case "readonly_type":
		return "readonly " + renderType(node.NamedChild(0), source, depth)

	default:
		return truncateText(collapseWhitespace(nodeText(node, source)), fallbackTextCap)
	}
}

// renderGenericType renders Name<Arg, Arg>. Arguments cost one level of
// depth; at zero budget they collapse to Name<...>.
func renderGenericType(node *sitter.Node, source []byte, depth int) string {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, source)

	argsNode := node.ChildByFieldName("type_arguments")
	if argsNode == nil {
		return name
	}

	args := namedChildren(argsNode)
	if len(args) == 0 {
		return name
	}

	if depth == 0 {
		return name + "<" + ellipsis + ">"
	}

	rendered := make([]string, 0, len(args))
	for _, arg := range args {
		rendered = append(rendered, renderType(arg, source, depth-1))
	}
	return name + "<" + strings.Join(rendered, ", ") + ">"
}

// renderVariantType renders union/intersection members at the same depth:
// chained unions are one conceptual nesting level, not one per member.
func renderVariantType(node *sitter.Node, source []byte, depth int, sep string) string {
	if depth == 0 {
		return ellipsis
	}

	members := namedChildren(node)
	rendered := make([]string, 0, len(members))
	for _, member := range members {
		rendered = append(rendered, renderType(member, source, depth))
	}
	return strings.Join(rendered, sep)
}

// renderObjectType renders an inline record type. Mapped types ({ [K in T]: U })
// have no member grammar here; they fall back to capped raw text.
func renderObjectType(node *sitter.Node, source []byte, depth int) string {
	if isMappedType(node) {
		return truncateText(collapseWhitespace(nodeText(node, source)), mappedTypeTextCap)
	}

	if depth == 0 {
		return "{ " + ellipsis + " }"
	}

	members := namedChildren(node)
	rendered := make([]string, 0, len(members))
	for _, member := range members {
		switch member.Kind() {
		case "property_signature":
			rendered = append(rendered, renderPropertySignature(member, source, depth-1))
		case "comment":
			continue
		default:
			rendered = append(rendered, collapseWhitespace(nodeText(member, source)))
		}
	}

	if len(rendered) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(rendered, "; ") + " }"
}

// renderPropertySignature renders one object/interface property as
// name[?]: type.
func renderPropertySignature(node *sitter.Node, source []byte, depth int) string {
	name := nodeText(node.ChildByFieldName("name"), source)
	if hasChildOfKind(node, "?") {
		name += "?"
	}

	typeNode := annotationType(node.ChildByFieldName("type"))
	if typeNode == nil {
		return name + ": any"
	}
	return name + ": " + renderType(typeNode, source, depth)
}

// renderFunctionType renders (params) => ret with both sides at depth-1.
func renderFunctionType(node *sitter.Node, source []byte, depth int) string {
	if depth == 0 {
		return "(" + ellipsis + ") => " + ellipsis
	}

	var params []string
	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		for _, param := range namedChildren(paramsNode) {
			name := nodeText(param.ChildByFieldName("pattern"), source)
			typeNode := annotationType(param.ChildByFieldName("type"))
			if typeNode == nil {
				params = append(params, name)
				continue
			}
			params = append(params, name+": "+renderType(typeNode, source, depth-1))
		}
	}

	ret := renderType(node.ChildByFieldName("return_type"), source, depth-1)
	return "(" + strings.Join(params, ", ") + ") => " + ret
}

func renderTupleType(node *sitter.Node, source []byte, depth int) string {
	if depth == 0 {
		return "[" + ellipsis + "]"
	}

	elems := namedChildren(node)
	rendered := make([]string, 0, len(elems))
	for _, elem := range elems {
		rendered = append(rendered, renderType(elem, source, depth-1))
	}
	return "[" + strings.Join(rendered, ", ") + "]"
}

func renderConditionalType(node *sitter.Node, source []byte, depth int) string {
	if depth == 0 {
		return ellipsis
	}

	left := renderType(node.ChildByFieldName("left"), source, depth-1)
	right := renderType(node.ChildByFieldName("right"), source, depth-1)
	consequence := renderType(node.ChildByFieldName("consequence"), source, depth-1)
	alternative := renderType(node.ChildByFieldName("alternative"), source, depth-1)
	return left + " extends " + right + " ? " + consequence + " : " + alternative
}

// renderLookupType renders an indexed access T[K]; the index costs a level.
func renderLookupType(node *sitter.Node, source []byte, depth int) string {
	base := renderType(node.NamedChild(0), source, depth)
	index := renderType(node.NamedChild(1), source, depth-1)
	return base + "[" + index + "]"
}

// isMappedType reports whether an object_type is a mapped type, i.e. its
// single index-style member carries a mapped_type_clause.
func isMappedType(node *sitter.Node) bool {
	for _, member := range namedChildren(node) {
		if member.Kind() == "mapped_type_clause" {
			return true
		}
		if member.Kind() == "index_signature" && findChildByKind(member, "mapped_type_clause") != nil {
			return true
		}
	}
	return false
}
