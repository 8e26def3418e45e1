// patterns.go contains match-arm and let-binding pattern nodes.
package ast

import "ferrite/token"

// BindingPattern binds the scrutinee to a new name unconditionally
// ("x => ...").
type BindingPattern struct {
	Name     string
	Position token.Position
}

func (p *BindingPattern) Pos() token.Position { return p.Position }
func (p *BindingPattern) Accept(v PatternVisitor) any { return v.VisitBindingPattern(p) }

// WildcardPattern matches anything and binds nothing ("_ => ...").
type WildcardPattern struct {
	Position token.Position
}

func (p *WildcardPattern) Pos() token.Position { return p.Position }
func (p *WildcardPattern) Accept(v PatternVisitor) any { return v.VisitWildcardPattern(p) }

// LiteralPattern matches an exact integer or boolean constant.
type LiteralPattern struct {
	Literal  Expression // *IntegerLiteral or *BoolLiteral
	Position token.Position
}

func (p *LiteralPattern) Pos() token.Position { return p.Position }
func (p *LiteralPattern) Accept(v PatternVisitor) any { return v.VisitLiteralPattern(p) }

// PathPattern matches a named constant or enum variant by path
// ("Color::Red => ...").
type PathPattern struct {
	Segments []string
	Position token.Position
}

func (p *PathPattern) Pos() token.Position { return p.Position }
func (p *PathPattern) Accept(v PatternVisitor) any { return v.VisitPathPattern(p) }

// TuplePattern destructures a tuple scrutinee element-wise.
type TuplePattern struct {
	Elements []Pattern
	Position token.Position
}

func (p *TuplePattern) Pos() token.Position { return p.Position }
func (p *TuplePattern) Accept(v PatternVisitor) any { return v.VisitTuplePattern(p) }
