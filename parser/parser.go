// Recursive descent parser with precedence climbing for expressions.
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser: it starts from the
// top grammar rule (a module) and works its way down into nested
// sub-expressions before reaching the leaves of the syntax tree
// (terminal tokens).
package parser

import (
	"fmt"

	"ferrite/ast"
	"ferrite/token"
)

type Parser struct {
	tokens   []token.Token
	position int
	file     string
}

// Make constructs a Parser over tokens (as produced by lexer.Scan),
// tagging diagnostics with file.
func Make(tokens []token.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

func (p *Parser) pos(tok token.Token) token.Position {
	return token.Position{File: p.file, Line: int(tok.Line), Column: tok.Column}
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.position]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.position-1]
}

func (p *Parser) advance() token.Token {
	if !p.isFinished() {
		p.position++
	}
	return p.previous()
}

func (p *Parser) isFinished() bool {
	return p.peek().TokenType == token.EOF
}

func (p *Parser) checkType(t token.TokenType) bool {
	if p.isFinished() && t != token.EOF {
		return false
	}
	return p.peek().TokenType == t
}

func (p *Parser) isMatch(types ...token.TokenType) bool {
	for _, t := range types {
		if p.checkType(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.TokenType, errorMessage string) (token.Token, error) {
	if p.checkType(t) {
		return p.advance(), nil
	}
	cur := p.peek()
	return token.Token{}, CreateSyntaxError(cur.Line, cur.Column, fmt.Sprintf("expected %s, got '%s' - %s", t, cur.Lexeme, errorMessage))
}

// Parse parses the full token stream into a Module. Parsing stops at the
// first error: Ferrite's passes report one error at a time, same as the
// lexer (spec.md §4.1/§4.2 contracts).
func (p *Parser) Parse() (*ast.Module, error) {
	startPos := p.pos(p.peek())
	items := []ast.Item{}
	for !p.isFinished() {
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ast.Module{Items: items, Position: startPos}, nil
}

// item parses one top-level (or mod-nested) declaration.
func (p *Parser) item() (ast.Item, error) {
	public := p.isMatch(token.PUB)

	switch {
	case p.checkType(token.FN):
		return p.functionItem(public)
	case p.checkType(token.STRUCT):
		return p.structItem(public)
	case p.checkType(token.ENUM):
		return p.enumItem(public)
	case p.checkType(token.TYPE):
		return p.typeAliasItem()
	case p.checkType(token.IMPL):
		return p.implItem()
	case p.checkType(token.USE):
		return p.useItem()
	case p.checkType(token.MOD):
		return p.modItem()
	case p.checkType(token.CONTRACT):
		return p.contractItem()
	}
	cur := p.peek()
	return nil, CreateSyntaxError(cur.Line, cur.Column, "expected one of: fn, struct, enum, type, impl, use, mod, contract")
}

func (p *Parser) functionItem(public bool) (ast.Item, error) {
	start := p.advance() // 'fn'
	name, err := p.consume(token.IDENTIFIER, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	params, err := p.paramList()
	if err != nil {
		return nil, err
	}
	retType := ""
	if p.isMatch(token.ARROW) {
		tn, err := p.typeName()
		if err != nil {
			return nil, err
		}
		retType = tn
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionItem{
		Name: name.Lexeme, Public: public, Params: params,
		ReturnType: retType, Body: body, Position: p.pos(start),
	}, nil
}

func (p *Parser) paramList() ([]ast.Param, error) {
	params := []ast.Param{}
	if p.checkType(token.RPAREN) {
		p.advance()
		return params, nil
	}
	for {
		name, err := p.consume(token.IDENTIFIER, "expected parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.COLON, "expected ':' after parameter name"); err != nil {
			return nil, err
		}
		tn, err := p.typeName()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: name.Lexeme, TypeName: tn})
		if p.isMatch(token.COMMA) {
			if p.checkType(token.RPAREN) {
				p.advance()
				break
			}
			continue
		}
		if _, err := p.consume(token.RPAREN, "expected ',' or ')' in parameter list"); err != nil {
			return nil, err
		}
		break
	}
	return params, nil
}

// typeName parses a (possibly bracketed/tuple) type reference as flat
// text; the semantic analyzer, not the parser, resolves it against the
// types package's model.
func (p *Parser) typeName() (string, error) {
	if p.isMatch(token.LBRACKET) {
		inner, err := p.typeName()
		if err != nil {
			return "", err
		}
		if _, err := p.consume(token.SEMICOLON, "expected ';' in array type"); err != nil {
			return "", err
		}
		size, err := p.consume(token.INTEGER, "expected array size")
		if err != nil {
			return "", err
		}
		if _, err := p.consume(token.RBRACKET, "expected ']' closing array type"); err != nil {
			return "", err
		}
		return fmt.Sprintf("[%s;%s]", inner, size.Lexeme), nil
	}
	if p.isMatch(token.LPAREN) {
		parts := []string{}
		if !p.checkType(token.RPAREN) {
			for {
				tn, err := p.typeName()
				if err != nil {
					return "", err
				}
				parts = append(parts, tn)
				if !p.isMatch(token.COMMA) {
					break
				}
			}
		}
		if _, err := p.consume(token.RPAREN, "expected ')' closing tuple type"); err != nil {
			return "", err
		}
		out := "("
		for i, part := range parts {
			if i > 0 {
				out += ", "
			}
			out += part
		}
		return out + ")", nil
	}
	name, err := p.consume(token.IDENTIFIER, "expected type name")
	if err != nil {
		return "", err
	}
	return name.Lexeme, nil
}

func (p *Parser) structItem(public bool) (ast.Item, error) {
	start := p.advance() // 'struct'
	name, err := p.consume(token.IDENTIFIER, "expected struct name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after struct name"); err != nil {
		return nil, err
	}
	fields, err := p.fieldList()
	if err != nil {
		return nil, err
	}
	return &ast.StructItem{Name: name.Lexeme, Public: public, Fields: fields, Position: p.pos(start)}, nil
}

func (p *Parser) fieldList() ([]ast.FieldDecl, error) {
	fields := []ast.FieldDecl{}
	for !p.checkType(token.RBRACE) {
		name, err := p.consume(token.IDENTIFIER, "expected field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.COLON, "expected ':' after field name"); err != nil {
			return nil, err
		}
		tn, err := p.typeName()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.FieldDecl{Name: name.Lexeme, TypeName: tn})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing field list"); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) enumItem(public bool) (ast.Item, error) {
	start := p.advance() // 'enum'
	name, err := p.consume(token.IDENTIFIER, "expected enum name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after enum name"); err != nil {
		return nil, err
	}
	variants := []ast.EnumVariant{}
	for !p.checkType(token.RBRACE) {
		vname, err := p.consume(token.IDENTIFIER, "expected variant name")
		if err != nil {
			return nil, err
		}
		var disc ast.Expression
		if p.isMatch(token.ASSIGN) {
			disc, err = p.expression()
			if err != nil {
				return nil, err
			}
		}
		variants = append(variants, ast.EnumVariant{Name: vname.Lexeme, Discriminant: disc})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing enum body"); err != nil {
		return nil, err
	}
	return &ast.EnumItem{Name: name.Lexeme, Public: public, Variants: variants, Position: p.pos(start)}, nil
}

func (p *Parser) typeAliasItem() (ast.Item, error) {
	start := p.advance() // 'type'
	name, err := p.consume(token.IDENTIFIER, "expected type alias name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.ASSIGN, "expected '=' in type alias"); err != nil {
		return nil, err
	}
	underlying, err := p.typeName()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after type alias"); err != nil {
		return nil, err
	}
	return &ast.TypeAliasItem{Name: name.Lexeme, Underlying: underlying, Position: p.pos(start)}, nil
}

func (p *Parser) implItem() (ast.Item, error) {
	start := p.advance() // 'impl'
	name, err := p.consume(token.IDENTIFIER, "expected type name after 'impl'")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after impl target"); err != nil {
		return nil, err
	}
	fns := []*ast.FunctionItem{}
	for !p.checkType(token.RBRACE) {
		public := p.isMatch(token.PUB)
		fnItem, err := p.functionItem(public)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fnItem.(*ast.FunctionItem))
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing impl block"); err != nil {
		return nil, err
	}
	return &ast.ImplItem{TypeName: name.Lexeme, Functions: fns, Position: p.pos(start)}, nil
}

func (p *Parser) useItem() (ast.Item, error) {
	start := p.advance() // 'use'
	segments := []string{}
	for {
		seg, err := p.consume(token.IDENTIFIER, "expected path segment")
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg.Lexeme)
		if !p.isMatch(token.COLONCOLON) {
			break
		}
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after use declaration"); err != nil {
		return nil, err
	}
	return &ast.UseItem{Path: segments, Position: p.pos(start)}, nil
}

func (p *Parser) modItem() (ast.Item, error) {
	start := p.advance() // 'mod'
	name, err := p.consume(token.IDENTIFIER, "expected module name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after module name"); err != nil {
		return nil, err
	}
	items := []ast.Item{}
	for !p.checkType(token.RBRACE) {
		item, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing module"); err != nil {
		return nil, err
	}
	return &ast.ModItem{Name: name.Lexeme, Items: items, Position: p.pos(start)}, nil
}

func (p *Parser) contractItem() (ast.Item, error) {
	start := p.advance() // 'contract'
	name, err := p.consume(token.IDENTIFIER, "expected contract name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after contract name"); err != nil {
		return nil, err
	}
	contractItem := &ast.ContractItem{Name: name.Lexeme, Position: p.pos(start)}
	for !p.checkType(token.RBRACE) {
		switch {
		case p.checkType(token.IDENTIFIER) && p.isStorageField():
			field, err := p.storageField()
			if err != nil {
				return nil, err
			}
			contractItem.Storage = append(contractItem.Storage, field)
		case p.checkType(token.FN):
			public := true
			fnItem, err := p.functionItem(public)
			if err != nil {
				return nil, err
			}
			fn := fnItem.(*ast.FunctionItem)
			if fn.Name == "new" {
				contractItem.Constructor = fn
			} else {
				contractItem.Methods = append(contractItem.Methods, fn)
			}
		default:
			cur := p.peek()
			return nil, CreateSyntaxError(cur.Line, cur.Column, "expected storage field or fn inside contract body")
		}
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing contract body"); err != nil {
		return nil, err
	}
	return contractItem, nil
}

// isStorageField looks ahead for "identifier ':'" without consuming
// anything, distinguishing a storage field declaration from a stray fn.
func (p *Parser) isStorageField() bool {
	if p.position+1 >= len(p.tokens) {
		return false
	}
	return p.tokens[p.position+1].TokenType == token.COLON
}

func (p *Parser) storageField() (ast.FieldDecl, error) {
	name, err := p.consume(token.IDENTIFIER, "expected storage field name")
	if err != nil {
		return ast.FieldDecl{}, err
	}
	if _, err := p.consume(token.COLON, "expected ':' after storage field name"); err != nil {
		return ast.FieldDecl{}, err
	}
	tn, err := p.typeName()
	if err != nil {
		return ast.FieldDecl{}, err
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after storage field"); err != nil {
		return ast.FieldDecl{}, err
	}
	return ast.FieldDecl{Name: name.Lexeme, TypeName: tn}, nil
}

// --- statements ---

func (p *Parser) letStatement() (ast.Stmt, error) {
	start := p.advance() // 'let'
	mutable := p.isMatch(token.MUT)
	name, err := p.consume(token.IDENTIFIER, "expected variable name")
	if err != nil {
		return nil, err
	}
	typeName := ""
	if p.isMatch(token.COLON) {
		typeName, err = p.typeName()
		if err != nil {
			return nil, err
		}
	}
	var init ast.Expression
	if p.isMatch(token.ASSIGN) {
		init, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after let statement"); err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Lexeme, Mutable: mutable, TypeName: typeName, Initializer: init, Position: p.pos(start)}, nil
}

func (p *Parser) constStatement() (ast.Stmt, error) {
	start := p.advance() // 'const'
	name, err := p.consume(token.IDENTIFIER, "expected constant name")
	if err != nil {
		return nil, err
	}
	typeName := ""
	if p.isMatch(token.COLON) {
		typeName, err = p.typeName()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.ASSIGN, "expected '=' in const declaration"); err != nil {
		return nil, err
	}
	init, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after const statement"); err != nil {
		return nil, err
	}
	return &ast.ConstStmt{Name: name.Lexeme, TypeName: typeName, Initializer: init, Position: p.pos(start)}, nil
}

func (p *Parser) forStatement() (ast.Stmt, error) {
	start := p.advance() // 'for'
	varTok, err := p.consume(token.IDENTIFIER, "expected loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.IN, "expected 'in' after loop variable"); err != nil {
		return nil, err
	}
	iterExpr, err := p.rangeExpr()
	if err != nil {
		return nil, err
	}
	rng, ok := iterExpr.(*ast.Range)
	if !ok {
		cur := p.peek()
		return nil, CreateSyntaxError(cur.Line, cur.Column, "expected a range expression ('low..high') after 'in'")
	}
	body, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Variable: varTok.Lexeme, Iterable: rng, Body: body, Position: p.pos(start)}, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	start := p.advance() // 'return'
	var value ast.Expression
	if !p.checkType(token.SEMICOLON) {
		var err error
		value, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.SEMICOLON, "expected ';' after return statement"); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: value, Position: p.pos(start)}, nil
}

// blockExpr parses "{ stmt* expr? }", classifying the final
// semicolon-less expression statement as the block's trailing value.
func (p *Parser) blockExpr() (*ast.BlockExpr, error) {
	start, err := p.consume(token.LBRACE, "expected '{' to open block")
	if err != nil {
		return nil, err
	}
	stmts := []ast.Stmt{}
	var trailing ast.Expression

	for !p.checkType(token.RBRACE) {
		if p.isFinished() {
			cur := p.peek()
			return nil, CreateSyntaxError(cur.Line, cur.Column, "expected '}' closing block")
		}
		switch {
		case p.checkType(token.LET):
			s, err := p.letStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case p.checkType(token.CONST):
			s, err := p.constStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case p.checkType(token.FOR):
			s, err := p.forStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		case p.checkType(token.RETURN):
			s, err := p.returnStatement()
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		default:
			exprStart := p.peek()
			expr, err := p.expression()
			if err != nil {
				return nil, err
			}
			if p.isMatch(token.SEMICOLON) {
				stmts = append(stmts, &ast.ExpressionStmt{Expression: expr, Position: p.pos(exprStart)})
				continue
			}
			if p.checkType(token.RBRACE) {
				trailing = expr
				continue
			}
			stmts = append(stmts, &ast.ExpressionStmt{Expression: expr, Position: p.pos(exprStart)})
		}
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing block"); err != nil {
		return nil, err
	}
	return &ast.BlockExpr{Statements: stmts, Trailing: trailing, Position: p.pos(start)}, nil
}

// --- expressions: precedence climbing ---
//
// assignment < range < or < and < bitor < bitxor < bitand < equality
// < comparison < shift < term < factor < cast < unary < postfix < primary

func (p *Parser) expression() (ast.Expression, error) {
	return p.assignment()
}

var compoundAssignOps = map[token.TokenType]bool{
	token.PLUS_ASSIGN: true, token.MINUS_ASSIGN: true, token.STAR_ASSIGN: true,
	token.SLASH_ASSIGN: true, token.PERCENT_ASSIGN: true, token.AMP_ASSIGN: true,
	token.PIPE_ASSIGN: true, token.CARET_ASSIGN: true, token.SHL_ASSIGN: true, token.SHR_ASSIGN: true,
}

var compoundAssignBase = map[token.TokenType]token.TokenType{
	token.PLUS_ASSIGN: token.PLUS, token.MINUS_ASSIGN: token.MINUS, token.STAR_ASSIGN: token.STAR,
	token.SLASH_ASSIGN: token.SLASH, token.PERCENT_ASSIGN: token.PERCENT, token.AMP_ASSIGN: token.AMP,
	token.PIPE_ASSIGN: token.PIPE, token.CARET_ASSIGN: token.CARET,
	token.SHL_ASSIGN: token.SHL, token.SHR_ASSIGN: token.SHR,
}

func (p *Parser) assignment() (ast.Expression, error) {
	expr, err := p.rangeExpr()
	if err != nil {
		return nil, err
	}
	if p.checkType(token.ASSIGN) {
		eq := p.advance()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Target: expr, Value: value, Position: p.pos(eq)}, nil
	}
	if compoundAssignOps[p.peek().TokenType] {
		opTok := p.advance()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}
		baseOp := token.CreateToken(compoundAssignBase[opTok.TokenType], opTok.Line, opTok.Column)
		return &ast.CompoundAssign{Target: expr, Operator: baseOp, Value: value, Position: p.pos(opTok)}, nil
	}
	return expr, nil
}

func (p *Parser) rangeExpr() (ast.Expression, error) {
	low, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.checkType(token.DOTDOT) || p.checkType(token.DOTDOTEQ) {
		inclusive := p.checkType(token.DOTDOTEQ)
		tok := p.advance()
		high, err := p.or()
		if err != nil {
			return nil, err
		}
		return &ast.Range{Low: low, High: high, Inclusive: inclusive, Position: p.pos(tok)}, nil
	}
	return low, nil
}

func (p *Parser) or() (ast.Expression, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.OR) {
		op := p.advance()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: op, Right: right, Position: p.pos(op)}
	}
	return expr, nil
}

func (p *Parser) and() (ast.Expression, error) {
	expr, err := p.bitor()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.AND) {
		op := p.advance()
		right, err := p.bitor()
		if err != nil {
			return nil, err
		}
		expr = &ast.Logical{Left: expr, Operator: op, Right: right, Position: p.pos(op)}
	}
	return expr, nil
}

func (p *Parser) bitor() (ast.Expression, error) {
	return p.leftAssocBinary(p.bitxor, token.PIPE)
}

func (p *Parser) bitxor() (ast.Expression, error) {
	return p.leftAssocBinary(p.bitand, token.CARET)
}

func (p *Parser) bitand() (ast.Expression, error) {
	return p.leftAssocBinary(p.equality, token.AMP)
}

func (p *Parser) equality() (ast.Expression, error) {
	return p.leftAssocBinary(p.comparison, token.EQUAL_EQUAL, token.NOT_EQUAL)
}

func (p *Parser) comparison() (ast.Expression, error) {
	return p.leftAssocBinary(p.shift, token.LESS, token.LESS_EQUAL, token.LARGER, token.LARGER_EQUAL)
}

func (p *Parser) shift() (ast.Expression, error) {
	return p.leftAssocBinary(p.term, token.SHL, token.SHR)
}

func (p *Parser) term() (ast.Expression, error) {
	return p.leftAssocBinary(p.factor, token.PLUS, token.MINUS)
}

func (p *Parser) factor() (ast.Expression, error) {
	return p.leftAssocBinary(p.cast, token.STAR, token.SLASH, token.PERCENT)
}

// leftAssocBinary is the shared shape behind every flat binary
// precedence level above: parse one operand at the next-tighter level,
// then fold in a left-associative chain of operators drawn from ops.
func (p *Parser) leftAssocBinary(next func() (ast.Expression, error), ops ...token.TokenType) (ast.Expression, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for matchesAny(p.peek().TokenType, ops) {
		op := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Left: expr, Operator: op, Right: right, Position: p.pos(op)}
	}
	return expr, nil
}

func matchesAny(t token.TokenType, ops []token.TokenType) bool {
	for _, o := range ops {
		if t == o {
			return true
		}
	}
	return false
}

func (p *Parser) cast() (ast.Expression, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.AS) {
		tok := p.advance()
		tn, err := p.typeName()
		if err != nil {
			return nil, err
		}
		expr = &ast.Cast{Operand: expr, Target: tn, Position: p.pos(tok)}
	}
	return expr, nil
}

var unaryOps = []token.TokenType{token.BANG, token.MINUS, token.TILDE}

func (p *Parser) unary() (ast.Expression, error) {
	if matchesAny(p.peek().TokenType, unaryOps) {
		op := p.advance()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Operator: op, Right: right, Position: p.pos(op)}, nil
	}
	return p.postfix()
}

func (p *Parser) postfix() (ast.Expression, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.checkType(token.LPAREN):
			tok := p.advance()
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Callee: expr, Args: args, Position: p.pos(tok)}
		case p.checkType(token.LBRACKET):
			tok := p.advance()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.RBRACKET, "expected ']' closing index expression"); err != nil {
				return nil, err
			}
			expr = &ast.Index{Collection: expr, Subscript: idx, Position: p.pos(tok)}
		case p.checkType(token.DOT):
			tok := p.advance()
			field, err := p.consume(token.IDENTIFIER, "expected field name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.Member{Receiver: expr, Field: field.Lexeme, Position: p.pos(tok)}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) argList() ([]ast.Expression, error) {
	args := []ast.Expression{}
	if p.checkType(token.RPAREN) {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.isMatch(token.COMMA) {
			break
		}
		if p.checkType(token.RPAREN) {
			break
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ',' or ')' in argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) primary() (ast.Expression, error) {
	switch {
	case p.checkType(token.TRUE):
		tok := p.advance()
		return &ast.BoolLiteral{Value: true, Position: p.pos(tok)}, nil
	case p.checkType(token.FALSE):
		tok := p.advance()
		return &ast.BoolLiteral{Value: false, Position: p.pos(tok)}, nil
	case p.checkType(token.INTEGER):
		tok := p.advance()
		lit := tok.Literal.(*token.IntegerLiteral)
		return &ast.IntegerLiteral{Digits: lit.Digits, Base: lit.Base, Position: p.pos(tok)}, nil
	case p.checkType(token.STRING):
		tok := p.advance()
		return &ast.StringLiteral{Value: tok.Literal.(string), Position: p.pos(tok)}, nil
	case p.checkType(token.DBG):
		return p.dbgExpr()
	case p.checkType(token.ASSERT):
		return p.assertExpr()
	case p.checkType(token.IF):
		return p.ifExpr()
	case p.checkType(token.MATCH):
		return p.matchExpr()
	case p.checkType(token.LBRACE):
		return p.blockExprAsExpression()
	case p.checkType(token.LBRACKET):
		return p.arrayLiteral()
	case p.checkType(token.LPAREN):
		return p.parenOrTuple()
	case p.checkType(token.IDENTIFIER):
		return p.identifierLike()
	}
	cur := p.peek()
	return nil, CreateSyntaxError(cur.Line, cur.Column, "expected one of: literal, identifier, '(', '[', '{', if, match, dbg, assert")
}

func (p *Parser) blockExprAsExpression() (ast.Expression, error) {
	b, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (p *Parser) dbgExpr() (ast.Expression, error) {
	start := p.advance() // 'dbg'
	p.isMatch(token.BANG)
	if _, err := p.consume(token.LPAREN, "expected '(' after dbg"); err != nil {
		return nil, err
	}
	fmtTok, err := p.consume(token.STRING, "expected format string as first argument to dbg")
	if err != nil {
		return nil, err
	}
	args := []ast.Expression{}
	for p.isMatch(token.COMMA) {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.consume(token.RPAREN, "expected ')' closing dbg"); err != nil {
		return nil, err
	}
	return &ast.DbgExpr{Format: fmtTok.Literal.(string), Args: args, Position: p.pos(start)}, nil
}

func (p *Parser) assertExpr() (ast.Expression, error) {
	start := p.advance() // 'assert'
	p.isMatch(token.BANG)
	if _, err := p.consume(token.LPAREN, "expected '(' after assert"); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	message := ""
	if p.isMatch(token.COMMA) {
		msgTok, err := p.consume(token.STRING, "expected message string after condition in assert")
		if err != nil {
			return nil, err
		}
		message = msgTok.Literal.(string)
	}
	if _, err := p.consume(token.RPAREN, "expected ')' closing assert"); err != nil {
		return nil, err
	}
	return &ast.AssertExpr{Condition: cond, Message: message, Position: p.pos(start)}, nil
}

func (p *Parser) ifExpr() (ast.Expression, error) {
	start := p.advance() // 'if'
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.blockExpr()
	if err != nil {
		return nil, err
	}
	var elseExpr ast.Expression
	if p.isMatch(token.ELSE) {
		if p.checkType(token.IF) {
			elseExpr, err = p.ifExpr()
		} else {
			elseExpr, err = p.blockExpr()
		}
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfExpr{Condition: cond, Then: thenBlock, Else: elseExpr, Position: p.pos(start)}, nil
}

func (p *Parser) matchExpr() (ast.Expression, error) {
	start := p.advance() // 'match'
	scrutinee, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "expected '{' after match scrutinee"); err != nil {
		return nil, err
	}
	arms := []ast.MatchArm{}
	for !p.checkType(token.RBRACE) {
		pat, err := p.pattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.FATARROW, "expected '=>' after match pattern"); err != nil {
			return nil, err
		}
		body, err := p.expression()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body})
		if !p.isMatch(token.COMMA) {
			if p.checkType(token.RBRACE) {
				break
			}
		}
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing match"); err != nil {
		return nil, err
	}
	return &ast.MatchExpr{Scrutinee: scrutinee, Arms: arms, Position: p.pos(start)}, nil
}

func (p *Parser) pattern() (ast.Pattern, error) {
	switch {
	case p.checkType(token.UNDERSCORE):
		tok := p.advance()
		return &ast.WildcardPattern{Position: p.pos(tok)}, nil
	case p.checkType(token.INTEGER):
		tok := p.advance()
		lit := tok.Literal.(*token.IntegerLiteral)
		expr := &ast.IntegerLiteral{Digits: lit.Digits, Base: lit.Base, Position: p.pos(tok)}
		return &ast.LiteralPattern{Literal: expr, Position: p.pos(tok)}, nil
	case p.checkType(token.TRUE) || p.checkType(token.FALSE):
		tok := p.advance()
		expr := &ast.BoolLiteral{Value: tok.TokenType == token.TRUE, Position: p.pos(tok)}
		return &ast.LiteralPattern{Literal: expr, Position: p.pos(tok)}, nil
	case p.checkType(token.LPAREN):
		start := p.advance()
		elems := []ast.Pattern{}
		if !p.checkType(token.RPAREN) {
			for {
				el, err := p.pattern()
				if err != nil {
					return nil, err
				}
				elems = append(elems, el)
				if !p.isMatch(token.COMMA) {
					break
				}
			}
		}
		if _, err := p.consume(token.RPAREN, "expected ')' closing tuple pattern"); err != nil {
			return nil, err
		}
		return &ast.TuplePattern{Elements: elems, Position: p.pos(start)}, nil
	case p.checkType(token.IDENTIFIER):
		start := p.advance()
		if p.isMatch(token.COLONCOLON) {
			segments := []string{start.Lexeme}
			for {
				seg, err := p.consume(token.IDENTIFIER, "expected path segment in pattern")
				if err != nil {
					return nil, err
				}
				segments = append(segments, seg.Lexeme)
				if !p.isMatch(token.COLONCOLON) {
					break
				}
			}
			return &ast.PathPattern{Segments: segments, Position: p.pos(start)}, nil
		}
		return &ast.BindingPattern{Name: start.Lexeme, Position: p.pos(start)}, nil
	}
	cur := p.peek()
	return nil, CreateSyntaxError(cur.Line, cur.Column, "expected a pattern")
}

func (p *Parser) arrayLiteral() (ast.Expression, error) {
	start := p.advance() // '['
	elems := []ast.Expression{}
	if !p.checkType(token.RBRACKET) {
		for {
			el, err := p.expression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if !p.isMatch(token.COMMA) {
				break
			}
			if p.checkType(token.RBRACKET) {
				break
			}
		}
	}
	if _, err := p.consume(token.RBRACKET, "expected ']' closing array literal"); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Elements: elems, Position: p.pos(start)}, nil
}

func (p *Parser) parenOrTuple() (ast.Expression, error) {
	start := p.advance() // '('
	if p.isMatch(token.RPAREN) {
		return &ast.TupleLiteral{Elements: nil, Position: p.pos(start)}, nil
	}
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.isMatch(token.COMMA) {
		elems := []ast.Expression{first}
		for !p.checkType(token.RPAREN) {
			el, err := p.expression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if !p.isMatch(token.COMMA) {
				break
			}
		}
		if _, err := p.consume(token.RPAREN, "expected ')' closing tuple literal"); err != nil {
			return nil, err
		}
		return &ast.TupleLiteral{Elements: elems, Position: p.pos(start)}, nil
	}
	if _, err := p.consume(token.RPAREN, "expected ')' closing grouped expression"); err != nil {
		return nil, err
	}
	return &ast.Grouping{Expression: first, Position: p.pos(start)}, nil
}

// identifierLike parses an Identifier, a "::"-joined Path, or a
// "Name { field: value, ... }" struct initializer.
func (p *Parser) identifierLike() (ast.Expression, error) {
	start := p.advance() // IDENTIFIER
	if p.checkType(token.COLONCOLON) {
		segments := []string{start.Lexeme}
		for p.isMatch(token.COLONCOLON) {
			seg, err := p.consume(token.IDENTIFIER, "expected path segment after '::'")
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg.Lexeme)
		}
		return &ast.Path{Segments: segments, Position: p.pos(start)}, nil
	}
	if p.checkType(token.LBRACE) && looksLikeTypeName(start.Lexeme) {
		return p.structInit(start)
	}
	return &ast.Identifier{Name: start.Lexeme, Position: p.pos(start)}, nil
}

// looksLikeTypeName applies Rust's convention that type names are
// PascalCase, disambiguating "Point { .. }" (a struct literal) from
// "x { .. }" (x followed by an unrelated block, e.g. in "for x in r {}").
func looksLikeTypeName(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func (p *Parser) structInit(nameTok token.Token) (ast.Expression, error) {
	p.advance() // '{'
	fields := []ast.StructInitField{}
	for !p.checkType(token.RBRACE) {
		fname, err := p.consume(token.IDENTIFIER, "expected field name in struct literal")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.COLON, "expected ':' after field name"); err != nil {
			return nil, err
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructInitField{Name: fname.Lexeme, Value: value})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	if _, err := p.consume(token.RBRACE, "expected '}' closing struct literal"); err != nil {
		return nil, err
	}
	return &ast.StructInit{TypeName: nameTok.Lexeme, Fields: fields, Position: p.pos(nameTok)}, nil
}
