package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	// inferredReturnType marks a concise arrow body whose type would need
	// real inference to know.
	inferredReturnType = "inferred"

	// elementReturnType is substituted when the component-likeness
	// heuristic fires in a .tsx file.
	elementReturnType = "JSX.Element"
)

// extractFunction builds a normalized signature for a callable declaration.
// Name, parent, and visibility depend on how the callable is introduced;
// callables with no resolvable name (inline callbacks) yield nil.
func (w *fileWalk) extractFunction(node *sitter.Node, ctx walkContext) *FunctionSignature {
	var name, parent string
	var exported bool

	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		name = nodeText(node.ChildByFieldName("name"), w.source)
		exported = isExported(node, w.source)

	case "method_definition":
		name = nodeText(node.ChildByFieldName("name"), w.source)
		parent = findEnclosingName(node, w.source)
		if parent == "" {
			parent = ctx.routerName
		}
		exported = isExported(node, w.source)

	default: // function_expression, generator_function, arrow_function
		if own := node.ChildByFieldName("name"); own != nil {
			name = nodeText(own, w.source)
			parent = findEnclosingName(node, w.source)
			exported = isExported(node, w.source)
			break
		}

		binding := node.Parent()
		if binding == nil {
			return nil
		}
		switch binding.Kind() {
		case "variable_declarator":
			name = nodeText(binding.ChildByFieldName("name"), w.source)
			exported = isExported(binding, w.source)
		case "pair":
			name = nodeText(binding.ChildByFieldName("key"), w.source)
			exported = objectOwnerExported(binding, w.source)
		default:
			return nil
		}
		parent = findEnclosingName(node, w.source)
	}

	if name == "" {
		return nil
	}

	params := w.extractParams(node)
	returnType := w.resolveReturnType(node, name)

	return &FunctionSignature{
		Name:          name,
		Parameters:    params,
		ReturnType:    returnType,
		FullSignature: buildFullSignature(name, parent, params, returnType),
		FilePath:      w.filePath,
		IsExported:    exported,
		ParentName:    parent,
	}
}

// extractParams collects {name, type} pairs; the type is the declared
// annotation text ("any" when absent) with whitespace runs collapsed.
func (w *fileWalk) extractParams(node *sitter.Node) []Param {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		// Arrow functions may take a single unparenthesized parameter.
		if single := node.ChildByFieldName("parameter"); single != nil {
			return []Param{{Name: nodeText(single, w.source), Type: "any"}}
		}
		return nil
	}

	var params []Param
	for _, child := range namedChildren(paramsNode) {
		switch child.Kind() {
		case "required_parameter", "optional_parameter", "rest_parameter":
			name := nodeText(child.ChildByFieldName("pattern"), w.source)
			if name == "" {
				name = nodeText(child.ChildByFieldName("name"), w.source)
			}
			params = append(params, Param{Name: name, Type: w.paramType(child)})
		case "identifier":
			params = append(params, Param{Name: nodeText(child, w.source), Type: "any"})
		}
	}
	return params
}

func (w *fileWalk) paramType(param *sitter.Node) string {
	typeNode := annotationType(param.ChildByFieldName("type"))
	if typeNode == nil {
		return "any"
	}
	return collapseWhitespace(nodeText(typeNode, w.source))
}

// resolveReturnType picks the declared annotation when present. Without one,
// a component-like callable in a .tsx file gets the element sentinel, a
// concise arrow body gets the inferred sentinel, and everything else is void.
func (w *fileWalk) resolveReturnType(node *sitter.Node, name string) string {
	if ann := node.ChildByFieldName("return_type"); ann != nil {
		if typeNode := annotationType(ann); typeNode != nil {
			return collapseWhitespace(nodeText(typeNode, w.source))
		}
	}

	if w.tsx && isComponentLike(node, name) {
		return elementReturnType
	}

	if node.Kind() == "arrow_function" {
		if body := node.ChildByFieldName("body"); body != nil && body.Kind() != "statement_block" {
			return inferredReturnType
		}
	}

	return "void"
}

// isComponentLike applies two independent tests, either sufficient: a
// component-cased name, or a body whose top-level return is markup.
func isComponentLike(node *sitter.Node, name string) bool {
	if nameLooksLikeComponent(name) {
		return true
	}
	return returnsMarkup(node)
}

// nameLooksLikeComponent reports whether the first rune is uppercase with a
// distinct lowercase form, rejecting non-alphabetic names.
func nameLooksLikeComponent(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return false
	}
	return unicode.IsUpper(r) && unicode.ToLower(r) != r
}

// returnsMarkup checks a concise body, or the immediate statements of a
// block body, for a JSX return. It never recurses into nested function
// bodies, so an inner callback's markup is not attributed to the outer
// declaration.
func returnsMarkup(node *sitter.Node) bool {
	body := node.ChildByFieldName("body")
	if body == nil {
		return false
	}

	if body.Kind() != "statement_block" {
		return isMarkupNode(unwrapParens(body))
	}

	for _, stmt := range namedChildren(body) {
		if stmt.Kind() != "return_statement" {
			continue
		}
		if expr := stmt.NamedChild(0); expr != nil && isMarkupNode(unwrapParens(expr)) {
			return true
		}
	}
	return false
}

func isMarkupNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

// objectOwnerExported resolves visibility for an object-property callable by
// finding the variable declaration that owns the object literal.
func objectOwnerExported(pair *sitter.Node, source []byte) bool {
	for anc := pair.Parent(); anc != nil; anc = anc.Parent() {
		if anc.Kind() == "variable_declarator" {
			return isExported(anc, source)
		}
		switch anc.Kind() {
		case "statement_block", "class_body", "program":
			return false
		}
	}
	return false
}

// buildFullSignature composes {parent.}{name}({param: type, ...}): {return}.
func buildFullSignature(name, parent string, params []Param, returnType string) string {
	var sb strings.Builder
	if parent != "" {
		sb.WriteString(parent)
		sb.WriteByte('.')
	}
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(p.Type)
	}
	sb.WriteString("): ")
	sb.WriteString(returnType)
	return sb.String()
}
