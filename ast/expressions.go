// expressions.go contains all the expression AST nodes. An expression
// node always evaluates to a value.
package ast

import "ferrite/token"

// Binary represents a binary arithmetic, bitwise, or comparison
// expression (e.g. "a + b", "a << 2", "a == b").
type Binary struct {
	Left     Expression
	Operator token.Token
	Right    Expression
	Position token.Position
}

func (e *Binary) Pos() token.Position      { return e.Position }
func (e *Binary) Accept(v ExpressionVisitor) any { return v.VisitBinary(e) }

// Unary represents a unary operation (e.g. "-a", "!a", "~a").
type Unary struct {
	Operator token.Token
	Right    Expression
	Position token.Position
}

func (e *Unary) Pos() token.Position      { return e.Position }
func (e *Unary) Accept(v ExpressionVisitor) any { return v.VisitUnary(e) }

// IntegerLiteral is an integer literal, still carrying the base and raw
// digit text the lexer preserved; the analyzer resolves its final scalar
// type (signedness, bit width) from context.
type IntegerLiteral struct {
	Digits   string
	Base     token.IntegerBase
	Position token.Position
}

func (e *IntegerLiteral) Pos() token.Position      { return e.Position }
func (e *IntegerLiteral) Accept(v ExpressionVisitor) any { return v.VisitIntegerLiteral(e) }

// BoolLiteral is a "true"/"false" literal.
type BoolLiteral struct {
	Value    bool
	Position token.Position
}

func (e *BoolLiteral) Pos() token.Position      { return e.Position }
func (e *BoolLiteral) Accept(v ExpressionVisitor) any { return v.VisitBoolLiteral(e) }

// StringLiteral is a quoted string literal, used for Dbg format strings
// and CallStd identifier arguments; the language has no runtime string
// value type (spec.md Non-goals).
type StringLiteral struct {
	Value    string
	Position token.Position
}

func (e *StringLiteral) Pos() token.Position      { return e.Position }
func (e *StringLiteral) Accept(v ExpressionVisitor) any { return v.VisitStringLiteral(e) }

// Grouping is a parenthesized expression, kept distinct from its inner
// expression only to preserve source position for diagnostics.
type Grouping struct {
	Expression Expression
	Position   token.Position
}

func (e *Grouping) Pos() token.Position      { return e.Position }
func (e *Grouping) Accept(v ExpressionVisitor) any { return v.VisitGrouping(e) }

// Identifier is a single-segment name reference (a local variable,
// parameter, or unqualified function/constant name).
type Identifier struct {
	Name     string
	Position token.Position
}

func (e *Identifier) Pos() token.Position      { return e.Position }
func (e *Identifier) Accept(v ExpressionVisitor) any { return v.VisitIdentifier(e) }

// Path is a "::"-separated multi-segment name reference (e.g.
// "crypto::sha256", "Self::NEW"), used for standard-library calls, enum
// variant access, and associated constants.
type Path struct {
	Segments []string
	Position token.Position
}

func (e *Path) Pos() token.Position      { return e.Position }
func (e *Path) Accept(v ExpressionVisitor) any { return v.VisitPath(e) }

// Assign represents a plain assignment expression ("a = b").
type Assign struct {
	Target   Expression
	Value    Expression
	Position token.Position
}

func (e *Assign) Pos() token.Position      { return e.Position }
func (e *Assign) Accept(v ExpressionVisitor) any { return v.VisitAssign(e) }

// CompoundAssign represents a compound assignment ("a += b", "a <<= b",
// etc). Operator is the underlying binary operator token (PLUS, SHL, ...).
type CompoundAssign struct {
	Target   Expression
	Operator token.Token
	Value    Expression
	Position token.Position
}

func (e *CompoundAssign) Pos() token.Position      { return e.Position }
func (e *CompoundAssign) Accept(v ExpressionVisitor) any { return v.VisitCompoundAssign(e) }

// Logical represents a short-circuiting "&&" or "||" expression. It is
// kept distinct from Binary because the generator must lower it to
// conditional jumps rather than an arithmetic opcode.
type Logical struct {
	Left     Expression
	Operator token.Token
	Right    Expression
	Position token.Position
}

func (e *Logical) Pos() token.Position      { return e.Position }
func (e *Logical) Accept(v ExpressionVisitor) any { return v.VisitLogical(e) }

// Range represents "a..b" (exclusive) or "a..=b" (inclusive): the
// iteration domain of a ForStmt or an index subscript. The analyzer
// requires the low bound to be a compile-time constant.
type Range struct {
	Low       Expression
	High      Expression
	Inclusive bool
	Position  token.Position
}

func (e *Range) Pos() token.Position      { return e.Position }
func (e *Range) Accept(v ExpressionVisitor) any { return v.VisitRange(e) }

// Index represents an array/slice index expression ("a[i]").
type Index struct {
	Collection Expression
	Subscript  Expression
	Position   token.Position
}

func (e *Index) Pos() token.Position      { return e.Position }
func (e *Index) Accept(v ExpressionVisitor) any { return v.VisitIndex(e) }

// Member represents field access on a struct value ("a.field").
type Member struct {
	Receiver Expression
	Field    string
	Position token.Position
}

func (e *Member) Pos() token.Position      { return e.Position }
func (e *Member) Accept(v ExpressionVisitor) any { return v.VisitMember(e) }

// Call represents a function call ("f(a, b)"), where Callee is either an
// Identifier (local/global function), a Path (standard-library gadget or
// qualified associated function), or a Member (method call, receiver is
// the object expression before desugaring).
type Call struct {
	Callee   Expression
	Args     []Expression
	Position token.Position
}

func (e *Call) Pos() token.Position      { return e.Position }
func (e *Call) Accept(v ExpressionVisitor) any { return v.VisitCall(e) }

// Cast represents an "as" expression changing an operand's scalar type
// ("x as u64").
type Cast struct {
	Operand  Expression
	Target   string
	Position token.Position
}

func (e *Cast) Pos() token.Position      { return e.Position }
func (e *Cast) Accept(v ExpressionVisitor) any { return v.VisitCast(e) }

// ArrayLiteral represents a fixed-size array literal ("[a, b, c]").
type ArrayLiteral struct {
	Elements []Expression
	Position token.Position
}

func (e *ArrayLiteral) Pos() token.Position      { return e.Position }
func (e *ArrayLiteral) Accept(v ExpressionVisitor) any { return v.VisitArrayLiteral(e) }

// TupleLiteral represents a tuple literal ("(a, b)").
type TupleLiteral struct {
	Elements []Expression
	Position token.Position
}

func (e *TupleLiteral) Pos() token.Position      { return e.Position }
func (e *TupleLiteral) Accept(v ExpressionVisitor) any { return v.VisitTupleLiteral(e) }

// StructInit represents a struct literal ("Point { x: 1, y: 2 }").
type StructInit struct {
	TypeName string
	Fields   []StructInitField
	Position token.Position
}

// StructInitField is one "name: value" pair inside a StructInit.
type StructInitField struct {
	Name  string
	Value Expression
}

func (e *StructInit) Pos() token.Position      { return e.Position }
func (e *StructInit) Accept(v ExpressionVisitor) any { return v.VisitStructInit(e) }

// BlockExpr represents a brace-delimited sequence of statements
// optionally ending in a trailing expression that becomes the block's
// value (Rust-style block expressions).
type BlockExpr struct {
	Statements []Stmt
	Trailing   Expression // nil if the block has no trailing expression
	Position   token.Position
}

func (e *BlockExpr) Pos() token.Position      { return e.Position }
func (e *BlockExpr) Accept(v ExpressionVisitor) any { return v.VisitBlockExpr(e) }

// IfExpr represents an "if/else" conditional, usable as an expression
// when both branches produce a value.
type IfExpr struct {
	Condition Expression
	Then      *BlockExpr
	Else      Expression // *BlockExpr or *IfExpr (else-if chain), nil if absent
	Position  token.Position
}

func (e *IfExpr) Pos() token.Position      { return e.Position }
func (e *IfExpr) Accept(v ExpressionVisitor) any { return v.VisitIfExpr(e) }

// MatchExpr represents a "match" expression over a scrutinee and a list
// of pattern-guarded arms.
type MatchExpr struct {
	Scrutinee Expression
	Arms      []MatchArm
	Position  token.Position
}

// MatchArm is one "pattern => expression" arm of a MatchExpr.
type MatchArm struct {
	Pattern Pattern
	Body    Expression
}

func (e *MatchExpr) Pos() token.Position      { return e.Position }
func (e *MatchExpr) Accept(v ExpressionVisitor) any { return v.VisitMatchExpr(e) }

// DbgExpr represents a "dbg!(fmt, args...)" instrumentation call,
// lowered to the Dbg instruction (spec.md §3) and otherwise a no-op.
type DbgExpr struct {
	Format   string
	Args     []Expression
	Position token.Position
}

func (e *DbgExpr) Pos() token.Position      { return e.Position }
func (e *DbgExpr) Accept(v ExpressionVisitor) any { return v.VisitDbgExpr(e) }

// AssertExpr represents an "assert!(cond, message?)" expression, lowered
// to the Assert instruction.
type AssertExpr struct {
	Condition Expression
	Message   string // empty if omitted
	Position  token.Position
}

func (e *AssertExpr) Pos() token.Position      { return e.Position }
func (e *AssertExpr) Accept(v ExpressionVisitor) any { return v.VisitAssertExpr(e) }
