// items.go contains the top-level and module-level declaration nodes:
// functions, types, constants, use/mod declarations, and the Circuit /
// Contract / Library application forms (spec.md §6).
package ast

import "ferrite/token"

// Param is one function parameter ("name: type").
type Param struct {
	Name     string
	TypeName string
}

// FunctionItem is a "fn name(params) -> ret { body }" declaration. An
// entry-point function (the Circuit application's callable, or a
// Contract's constructor/method) is just a FunctionItem the generator
// recognizes by name/position rather than a distinct grammar rule.
type FunctionItem struct {
	Name       string
	Public     bool
	Params     []Param
	ReturnType string // empty for unit return
	Body       *BlockExpr
	Position   token.Position
}

func (i *FunctionItem) Pos() token.Position { return i.Position }
func (i *FunctionItem) Accept(v ItemVisitor) any { return v.VisitFunctionItem(i) }

// FieldDecl is one "name: type" field of a struct or a contract's
// storage declaration.
type FieldDecl struct {
	Name     string
	TypeName string
}

// StructItem is a "struct Name { fields }" declaration.
type StructItem struct {
	Name     string
	Public   bool
	Fields   []FieldDecl
	Position token.Position
}

func (i *StructItem) Pos() token.Position { return i.Position }
func (i *StructItem) Accept(v ItemVisitor) any { return v.VisitStructItem(i) }

// EnumVariant is one variant of an EnumItem, optionally given an explicit
// discriminant; unspecified discriminants are assigned sequentially from
// the previous variant (or 0) by the semantic analyzer.
type EnumVariant struct {
	Name          string
	Discriminant  Expression // nil if implicit
}

// EnumItem is an "enum Name { Variant[ = value], ... }" declaration. Enum
// values are represented at runtime as their underlying integer
// discriminant (spec.md has no tagged-union runtime representation).
type EnumItem struct {
	Name     string
	Public   bool
	Variants []EnumVariant
	Position token.Position
}

func (i *EnumItem) Pos() token.Position { return i.Position }
func (i *EnumItem) Accept(v ItemVisitor) any { return v.VisitEnumItem(i) }

// TypeAliasItem is a "type Name = underlying;" declaration.
type TypeAliasItem struct {
	Name       string
	Underlying string
	Position   token.Position
}

func (i *TypeAliasItem) Pos() token.Position { return i.Position }
func (i *TypeAliasItem) Accept(v ItemVisitor) any { return v.VisitTypeAliasItem(i) }

// ImplItem is an "impl TypeName { fn ... }" block binding a set of
// methods to a struct type.
type ImplItem struct {
	TypeName  string
	Functions []*FunctionItem
	Position  token.Position
}

func (i *ImplItem) Pos() token.Position { return i.Position }
func (i *ImplItem) Accept(v ItemVisitor) any { return v.VisitImplItem(i) }

// UseItem is a "use path::to::item;" import declaration. Ferrite
// resolves these against the standard-library dispatch table
// (spec.md §4.3) rather than a multi-file module graph, per the
// project-manager exclusions in SPEC_FULL.md.
type UseItem struct {
	Path     []string
	Position token.Position
}

func (i *UseItem) Pos() token.Position { return i.Position }
func (i *UseItem) Accept(v ItemVisitor) any { return v.VisitUseItem(i) }

// ModItem is a "mod name { items }" nested module declaration.
type ModItem struct {
	Name     string
	Items    []Item
	Position token.Position
}

func (i *ModItem) Pos() token.Position { return i.Position }
func (i *ModItem) Accept(v ItemVisitor) any { return v.VisitModItem(i) }

// ContractItem is a "contract Name { storage; constructor; methods }"
// declaration, the application kind that owns a persistent storage
// vector (spec.md §4.6, §6).
type ContractItem struct {
	Name        string
	Storage     []FieldDecl
	Constructor *FunctionItem // nil if the contract has no explicit constructor
	Methods     []*FunctionItem
	Position    token.Position
}

func (i *ContractItem) Pos() token.Position { return i.Position }
func (i *ContractItem) Accept(v ItemVisitor) any { return v.VisitContractItem(i) }
