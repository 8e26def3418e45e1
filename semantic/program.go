package semantic

import (
	"ferrite/ast"
	"ferrite/token"
	"ferrite/types"
	"ferrite/vm/stdlib"
)

// ApplicationKind tags which of the three application forms spec.md §6
// describes a Module compiles to.
type ApplicationKind int

const (
	Circuit ApplicationKind = iota
	ContractKind
	Library
)

func (k ApplicationKind) String() string {
	switch k {
	case Circuit:
		return "Circuit"
	case ContractKind:
		return "Contract"
	default:
		return "Library"
	}
}

// FunctionInfo is one analyzed function: its signature and its
// still-raw AST body, ready for the generator to lower (spec.md §4.4
// takes a TypedTree, not a re-parsed form, as input).
type FunctionInfo struct {
	Name     string
	Params   []types.StructField
	Return   types.Type
	Body     *ast.BlockExpr
	Position token.Position
}

// ContractInfo is the analyzed Contract application: its storage
// layout, constructor and methods (spec.md §4.2, §6).
type ContractInfo struct {
	Type        *types.Contract
	Constructor *FunctionInfo
	Methods     []*FunctionInfo
}

// Annotations records, per expression node, what the analyzer resolved
// it to: its type, and (for compile-time-constant expressions) its
// folded value. The generator consults this instead of re-deriving
// types during lowering (spec.md §3 "Semantic element").
type Annotations struct {
	Types    map[ast.Expression]types.Type
	Consts   map[ast.Expression]*ConstValue
	StdCalls map[*ast.Call]stdlib.Identifier
	CastTo   map[*ast.Cast]types.Type

	// Calls records, for every non-stdlib ast.Call, the FunctionInfo it
	// resolves to (a top-level function or an impl method), so the
	// generator can look up a stable type_id without re-running name
	// resolution (spec.md §4.4 "The callee's type_id is the stable
	// function index assigned in order of definition").
	Calls map[*ast.Call]*FunctionInfo
}

func newAnnotations() *Annotations {
	return &Annotations{
		Types:    map[ast.Expression]types.Type{},
		Consts:   map[ast.Expression]*ConstValue{},
		StdCalls: map[*ast.Call]stdlib.Identifier{},
		CastTo:   map[*ast.Cast]types.Type{},
		Calls:    map[*ast.Call]*FunctionInfo{},
	}
}

// Program is the semantic analyzer's deliverable: a TypedTree in
// spec.md §4.3's sense (an AST annotated with resolved types, folded
// constants, and function/operator resolution complete).
type Program struct {
	Kind        ApplicationKind
	Functions   []*FunctionInfo
	EntryIndex  int // index into Functions of the Circuit entry ("main"); -1 if none
	Contract    *ContractInfo
	Structs     map[string]*types.Struct
	Enums       map[string]*types.Enum
	Annotations *Annotations

	// ImplMethods maps "TypeName::methodName" to its FunctionInfo
	// (spec.md §4.2 "impl T { items }"). Kept alongside Functions rather
	// than merged into it: impl methods are never a Circuit entry and
	// are only ever reached through a Member-call Call site, never by
	// bare name.
	ImplMethods map[string]*FunctionInfo
}
