package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const eventualReturnType = "Promise<unknown>"

// extractTypeDecl builds a TypeSignature for one type-level declaration.
// The full signature is reconstructed from structural parts so identical
// source always renders identically. Anonymous classes yield nil.
func (w *fileWalk) extractTypeDecl(node *sitter.Node) *TypeSignature {
	var kind TypeKind
	var full string

	name := nodeText(node.ChildByFieldName("name"), w.source)
	if name == "" {
		return nil
	}

	switch node.Kind() {
	case "interface_declaration":
		kind = TypeKindInterface
		full = w.interfaceSignature(node, name)
	case "type_alias_declaration":
		kind = TypeKindTypeAlias
		full = w.typeAliasSignature(node, name)
	case "enum_declaration":
		kind = TypeKindEnum
		full = w.enumSignature(node, name)
	case "class_declaration", "abstract_class_declaration":
		kind = TypeKindClass
		full = w.classSignature(node, name)
	case "internal_module", "module":
		kind = TypeKindNamespace
		if nameNode := node.ChildByFieldName("name"); nameNode != nil && nameNode.Kind() == "string" {
			kind = TypeKindModule
		}
		full = w.moduleSignature(node, name, kind)
	default:
		return nil
	}

	return &TypeSignature{
		Name:          name,
		Kind:          kind,
		FullSignature: full,
		FilePath:      w.filePath,
		IsExported:    isExported(node, w.source),
	}
}

// interfaceSignature renders
// interface Name<G> extends Base { member; member }.
func (w *fileWalk) interfaceSignature(node *sitter.Node, name string) string {
	var sb strings.Builder
	sb.WriteString("interface ")
	sb.WriteString(name)
	sb.WriteString(w.renderGenerics(node))

	if clause := findChildByKind(node, "extends_type_clause"); clause != nil {
		sb.WriteString(" extends ")
		sb.WriteString(w.renderTypeList(clause))
	}

	var members []string
	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "property_signature":
			members = append(members, renderPropertySignature(member, w.source, w.ext.renderDepth-1))
		case "method_signature":
			members = append(members, w.methodMember(member))
		case "index_signature":
			members = append(members, w.indexMember(member))
		case "comment":
			continue
		default:
			members = append(members, collapseWhitespace(nodeText(member, w.source)))
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(braceList(members))
	return sb.String()
}

func (w *fileWalk) typeAliasSignature(node *sitter.Node, name string) string {
	value := renderType(node.ChildByFieldName("value"), w.source, w.ext.renderDepth)
	return "type " + name + w.renderGenerics(node) + " = " + value
}

// enumSignature renders enum Name { A, B = 1 } with initializers verbatim.
func (w *fileWalk) enumSignature(node *sitter.Node, name string) string {
	var members []string
	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "enum_assignment":
			memberName := nodeText(member.ChildByFieldName("name"), w.source)
			value := collapseWhitespace(nodeText(member.ChildByFieldName("value"), w.source))
			members = append(members, memberName+" = "+value)
		case "comment":
			continue
		default:
			members = append(members, nodeText(member, w.source))
		}
	}

	var sb strings.Builder
	sb.WriteString("enum ")
	sb.WriteString(name)
	sb.WriteByte(' ')
	if len(members) == 0 {
		sb.WriteString("{ }")
	} else {
		sb.WriteString("{ " + strings.Join(members, ", ") + " }")
	}
	return sb.String()
}

// classSignature renders the class header and member signatures, bodies
// omitted. An async method without an annotation resolves to an eventual
// value rather than void.
func (w *fileWalk) classSignature(node *sitter.Node, name string) string {
	var sb strings.Builder
	sb.WriteString("class ")
	sb.WriteString(name)
	sb.WriteString(w.renderGenerics(node))

	if heritage := findChildByKind(node, "class_heritage"); heritage != nil {
		if extends := findChildByKind(heritage, "extends_clause"); extends != nil {
			sb.WriteString(" extends ")
			sb.WriteString(w.renderTypeList(extends))
		}
		if impls := findChildByKind(heritage, "implements_clause"); impls != nil {
			sb.WriteString(" implements ")
			sb.WriteString(w.renderTypeList(impls))
		}
	}

	var members []string
	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "method_definition":
			members = append(members, w.classMethodMember(member))
		case "public_field_definition", "field_definition":
			members = append(members, w.classFieldMember(member))
		case "abstract_method_signature", "method_signature":
			members = append(members, w.methodMember(member))
		case "comment":
			continue
		default:
			members = append(members, collapseWhitespace(nodeText(member, w.source)))
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(braceList(members))
	return sb.String()
}

func (w *fileWalk) classMethodMember(member *sitter.Node) string {
	name := nodeText(member.ChildByFieldName("name"), w.source)
	params := paramListText(w.extractParams(member))

	if name == "constructor" {
		return "constructor(" + params + ")"
	}

	ret := ""
	if ann := member.ChildByFieldName("return_type"); ann != nil {
		ret = renderType(annotationType(ann), w.source, w.ext.renderDepth-1)
	} else if hasChildOfKind(member, "async") {
		ret = eventualReturnType
	} else {
		ret = "void"
	}

	prefix := ""
	if hasChildOfKind(member, "static") {
		prefix = "static "
	}
	return prefix + name + "(" + params + "): " + ret
}

func (w *fileWalk) classFieldMember(member *sitter.Node) string {
	name := nodeText(member.ChildByFieldName("name"), w.source)
	if hasChildOfKind(member, "?") {
		name += "?"
	}

	fieldType := "any"
	if typeNode := annotationType(member.ChildByFieldName("type")); typeNode != nil {
		fieldType = renderType(typeNode, w.source, w.ext.renderDepth-1)
	}

	prefix := ""
	if hasChildOfKind(member, "static") {
		prefix = "static "
	}
	return prefix + name + ": " + fieldType
}

// methodMember renders an interface or abstract method signature.
func (w *fileWalk) methodMember(member *sitter.Node) string {
	name := nodeText(member.ChildByFieldName("name"), w.source)
	params := paramListText(w.extractParams(member))

	ret := "void"
	if ann := member.ChildByFieldName("return_type"); ann != nil {
		ret = renderType(annotationType(ann), w.source, w.ext.renderDepth-1)
	}
	return name + "(" + params + "): " + ret
}

// indexMember renders [key: KeyType]: ValueType from an index signature.
func (w *fileWalk) indexMember(member *sitter.Node) string {
	openBracket := findChildByKind(member, "[")
	closeBracket := findChildByKind(member, "]")

	inner := ""
	if openBracket != nil && closeBracket != nil {
		inner = collapseWhitespace(string(w.source[openBracket.EndByte():closeBracket.StartByte()]))
	}

	value := "any"
	if typeNode := annotationType(member.ChildByFieldName("type")); typeNode != nil {
		value = renderType(typeNode, w.source, w.ext.renderDepth-1)
	}
	return "[" + inner + "]: " + value
}

// moduleSignature summarizes a namespace or ambient module body in one line:
// each direct child declaration's kind and name, nothing deeper.
func (w *fileWalk) moduleSignature(node *sitter.Node, name string, kind TypeKind) string {
	var items []string
	for _, child := range namedChildren(node.ChildByFieldName("body")) {
		decl := child
		if decl.Kind() == "export_statement" {
			inner := decl.ChildByFieldName("declaration")
			if inner == nil {
				continue
			}
			decl = inner
		}

		switch decl.Kind() {
		case "interface_declaration":
			items = append(items, "interface "+nodeText(decl.ChildByFieldName("name"), w.source))
		case "type_alias_declaration":
			items = append(items, "type "+nodeText(decl.ChildByFieldName("name"), w.source))
		case "enum_declaration":
			items = append(items, "enum "+nodeText(decl.ChildByFieldName("name"), w.source))
		case "class_declaration", "abstract_class_declaration":
			items = append(items, "class "+nodeText(decl.ChildByFieldName("name"), w.source))
		case "function_declaration", "generator_function_declaration", "function_signature":
			items = append(items, "function "+nodeText(decl.ChildByFieldName("name"), w.source))
		case "lexical_declaration", "variable_declaration":
			if first := findChildByKind(decl, "variable_declarator"); first != nil {
				items = append(items, "const "+nodeText(first.ChildByFieldName("name"), w.source))
			}
		}
	}

	return string(kind) + " " + name + " " + braceList(items)
}

// renderGenerics renders <T, U extends X = Y> or "" when the declaration
// has no type parameters. Constraints and defaults cost one render level.
func (w *fileWalk) renderGenerics(node *sitter.Node) string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return ""
	}

	var parts []string
	for _, param := range namedChildren(tp) {
		part := nodeText(param.ChildByFieldName("name"), w.source)
		if constraint := param.ChildByFieldName("constraint"); constraint != nil {
			part += " extends " + renderType(constraint.NamedChild(0), w.source, w.ext.renderDepth-1)
		}
		if value := param.ChildByFieldName("value"); value != nil {
			part += " = " + renderType(value.NamedChild(0), w.source, w.ext.renderDepth-1)
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// renderTypeList renders a heritage clause's types, comma separated.
func (w *fileWalk) renderTypeList(clause *sitter.Node) string {
	var parts []string
	for _, child := range namedChildren(clause) {
		parts = append(parts, renderType(child, w.source, w.ext.renderDepth-1))
	}
	return strings.Join(parts, ", ")
}

func paramListText(params []Param) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(p.Type)
	}
	return sb.String()
}

func braceList(members []string) string {
	if len(members) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(members, "; ") + " }"
}
