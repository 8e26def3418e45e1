// interfaces.go contains the visitor interfaces that any code traversing
// Ferrite's expression, statement and item trees must implement, plus the
// base node interfaces all expression/statement/item/pattern types satisfy.
package ast

import "ferrite/token"

// Node is satisfied by every AST node and exposes its source position for
// diagnostics threaded through the semantic analyzer and generator.
type Node interface {
	Pos() token.Position
}

// Expression is the interface for every expression-producing node.
// Each concrete type implements Accept, dispatching to the matching
// Visit method on an ExpressionVisitor.
type Expression interface {
	Node
	Accept(v ExpressionVisitor) any
}

// Stmt is the interface for every statement node. Statements do not
// themselves produce a value usable by an enclosing expression (a block's
// trailing expression is handled as part of BlockExpr, not here).
type Stmt interface {
	Node
	Accept(v StmtVisitor) any
}

// Item is the interface for top-level and module-level declarations:
// functions, types, constants, use/mod declarations, and application
// blocks (contract/impl).
type Item interface {
	Node
	Accept(v ItemVisitor) any
}

// Pattern is the interface for match-arm and let-binding patterns.
type Pattern interface {
	Node
	Accept(v PatternVisitor) any
}

// ExpressionVisitor operates on every Expression node.
type ExpressionVisitor interface {
	VisitBinary(e *Binary) any
	VisitUnary(e *Unary) any
	VisitIntegerLiteral(e *IntegerLiteral) any
	VisitBoolLiteral(e *BoolLiteral) any
	VisitStringLiteral(e *StringLiteral) any
	VisitGrouping(e *Grouping) any
	VisitIdentifier(e *Identifier) any
	VisitPath(e *Path) any
	VisitAssign(e *Assign) any
	VisitCompoundAssign(e *CompoundAssign) any
	VisitLogical(e *Logical) any
	VisitRange(e *Range) any
	VisitIndex(e *Index) any
	VisitMember(e *Member) any
	VisitCall(e *Call) any
	VisitCast(e *Cast) any
	VisitArrayLiteral(e *ArrayLiteral) any
	VisitTupleLiteral(e *TupleLiteral) any
	VisitStructInit(e *StructInit) any
	VisitBlockExpr(e *BlockExpr) any
	VisitIfExpr(e *IfExpr) any
	VisitMatchExpr(e *MatchExpr) any
	VisitDbgExpr(e *DbgExpr) any
	VisitAssertExpr(e *AssertExpr) any
}

// StmtVisitor operates on every Stmt node.
type StmtVisitor interface {
	VisitExpressionStmt(s *ExpressionStmt) any
	VisitLetStmt(s *LetStmt) any
	VisitConstStmt(s *ConstStmt) any
	VisitForStmt(s *ForStmt) any
	VisitReturnStmt(s *ReturnStmt) any
}

// ItemVisitor operates on every Item node.
type ItemVisitor interface {
	VisitFunctionItem(i *FunctionItem) any
	VisitStructItem(i *StructItem) any
	VisitEnumItem(i *EnumItem) any
	VisitTypeAliasItem(i *TypeAliasItem) any
	VisitImplItem(i *ImplItem) any
	VisitUseItem(i *UseItem) any
	VisitModItem(i *ModItem) any
	VisitContractItem(i *ContractItem) any
}

// PatternVisitor operates on every Pattern node.
type PatternVisitor interface {
	VisitBindingPattern(p *BindingPattern) any
	VisitWildcardPattern(p *WildcardPattern) any
	VisitLiteralPattern(p *LiteralPattern) any
	VisitPathPattern(p *PathPattern) any
	VisitTuplePattern(p *TuplePattern) any
}

// Module is the root of a parsed source file: an ordered list of items.
type Module struct {
	Items    []Item
	Position token.Position
}

func (m *Module) Pos() token.Position { return m.Position }
