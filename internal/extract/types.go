package extract

// TypeKind classifies a type-level declaration.
type TypeKind string

const (
	TypeKindInterface TypeKind = "interface"
	TypeKindTypeAlias TypeKind = "type-alias"
	TypeKindEnum      TypeKind = "enum"
	TypeKindClass     TypeKind = "class"
	TypeKindNamespace TypeKind = "namespace"
	TypeKindModule    TypeKind = "module"
)

// ProcedureKind classifies a router procedure.
type ProcedureKind string

const (
	ProcedureKindQuery    ProcedureKind = "query"
	ProcedureKindMutation ProcedureKind = "mutation"
)

// Param is one parameter of a callable declaration.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"` // declared annotation text, "any" when absent
}

// FunctionSignature describes one callable declaration or router procedure.
type FunctionSignature struct {
	Name          string  `json:"name"`
	Parameters    []Param `json:"parameters,omitempty"`
	ReturnType    string  `json:"return_type,omitempty"`
	FullSignature string  `json:"full_signature"`
	FilePath      string  `json:"file_path"`
	IsExported    bool    `json:"is_exported"`
	ParentName    string  `json:"parent_name,omitempty"` // enclosing class/object, or the owning router

	// Router procedure fields. ProcedureKind is always set when IsProcedure
	// is true; entries with no determinable kind are never emitted.
	IsProcedure     bool          `json:"is_procedure,omitempty"`
	ProcedureKind   ProcedureKind `json:"procedure_kind,omitempty"`
	HasInput        bool          `json:"has_input,omitempty"`
	InputSchemaName string        `json:"input_schema_name,omitempty"`
	InputSchemaText string        `json:"input_schema_text,omitempty"` // raw text when the input arg is not a plain identifier
}

// TypeSignature describes one type-level declaration.
type TypeSignature struct {
	Name          string   `json:"name"`
	Kind          TypeKind `json:"kind"`
	FullSignature string   `json:"full_signature"`
	FilePath      string   `json:"file_path"`
	IsExported    bool     `json:"is_exported"`
}

// ParseResult holds the signatures extracted from one file, in pre-order
// discovery order. Records are immutable once returned.
type ParseResult struct {
	Functions []FunctionSignature `json:"functions"`
	Types     []TypeSignature     `json:"types"`
}
