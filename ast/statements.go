// statements.go contains all the statement AST nodes. A statement node
// does not itself produce a value usable by an enclosing expression.
package ast

import "ferrite/token"

// ExpressionStmt is a statement consisting of a single expression whose
// value is discarded. Example: "foo(bar);"
type ExpressionStmt struct {
	Expression Expression
	Position   token.Position
}

func (s *ExpressionStmt) Pos() token.Position { return s.Position }
func (s *ExpressionStmt) Accept(v StmtVisitor) any { return v.VisitExpressionStmt(s) }

// LetStmt is a local variable binding ("let [mut] name[: type] = expr;").
type LetStmt struct {
	Name        string
	Mutable     bool
	TypeName    string // empty if omitted (inferred)
	Initializer Expression
	Position    token.Position
}

func (s *LetStmt) Pos() token.Position { return s.Position }
func (s *LetStmt) Accept(v StmtVisitor) any { return v.VisitLetStmt(s) }

// ConstStmt is a local compile-time constant binding
// ("const NAME: type = expr;"). Unlike LetStmt the initializer must fold
// to a constant value (spec.md §4.3 "Constant evaluation").
type ConstStmt struct {
	Name        string
	TypeName    string
	Initializer Expression
	Position    token.Position
}

func (s *ConstStmt) Pos() token.Position { return s.Position }
func (s *ConstStmt) Accept(v StmtVisitor) any { return v.VisitConstStmt(s) }

// ForStmt is a statically-unrolled loop over an integer range
// ("for name in low..high { body }"), compiled to a LoopBegin/LoopEnd
// instruction pair (spec.md §3, §9 "Design Notes").
type ForStmt struct {
	Variable string
	Iterable *Range
	Body     *BlockExpr
	Position token.Position
}

func (s *ForStmt) Pos() token.Position { return s.Position }
func (s *ForStmt) Accept(v StmtVisitor) any { return v.VisitForStmt(s) }

// ReturnStmt returns a value (or nothing) from the enclosing function.
type ReturnStmt struct {
	Value    Expression // nil for a bare "return;"
	Position token.Position
}

func (s *ReturnStmt) Pos() token.Position { return s.Position }
func (s *ReturnStmt) Accept(v StmtVisitor) any { return v.VisitReturnStmt(s) }
