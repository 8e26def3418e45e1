package parser

import (
	"testing"

	"ferrite/ast"
	"ferrite/lexer"
)

func parseSource(t *testing.T, src string) *ast.Module {
	t.Helper()
	tokens, err := lexer.New(src, "test.fe").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	module, err := Make(tokens, "test.fe").Parse()
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	return module
}

func TestParseFunctionWithReturn(t *testing.T) {
	module := parseSource(t, `fn add(a: u32, b: u32) -> u32 { return a + b; }`)
	if len(module.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(module.Items))
	}
	fn, ok := module.Items[0].(*ast.FunctionItem)
	if !ok {
		t.Fatalf("expected *ast.FunctionItem, got %T", module.Items[0])
	}
	if fn.Name != "add" || fn.ReturnType != "u32" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body.Statements))
	}
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected *ast.ReturnStmt, got %T", fn.Body.Statements[0])
	}
	if _, ok := ret.Value.(*ast.Binary); !ok {
		t.Fatalf("expected return value to be a Binary expression, got %T", ret.Value)
	}
}

func TestParseLetWithTrailingBlockValue(t *testing.T) {
	module := parseSource(t, `fn f() -> u32 { let x: u32 = 1; x }`)
	fn := module.Items[0].(*ast.FunctionItem)
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body.Statements))
	}
	if fn.Body.Trailing == nil {
		t.Fatalf("expected a trailing expression")
	}
	ident, ok := fn.Body.Trailing.(*ast.Identifier)
	if !ok || ident.Name != "x" {
		t.Fatalf("expected trailing identifier 'x', got %+v", fn.Body.Trailing)
	}
}

func TestParseForRange(t *testing.T) {
	module := parseSource(t, `fn f() { for i in 0..10 { dbg("i={}", i); } }`)
	fn := module.Items[0].(*ast.FunctionItem)
	forStmt, ok := fn.Body.Statements[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected *ast.ForStmt, got %T", fn.Body.Statements[0])
	}
	if forStmt.Variable != "i" || forStmt.Iterable.Inclusive {
		t.Fatalf("unexpected for-loop shape: %+v", forStmt)
	}
}

func TestParseIfExpression(t *testing.T) {
	module := parseSource(t, `fn f(cond: bool) -> u32 { if cond { 1 } else { 2 } }`)
	fn := module.Items[0].(*ast.FunctionItem)
	ifExpr, ok := fn.Body.Trailing.(*ast.IfExpr)
	if !ok {
		t.Fatalf("expected *ast.IfExpr, got %T", fn.Body.Trailing)
	}
	if ifExpr.Else == nil {
		t.Fatalf("expected an else branch")
	}
}

func TestParseMatchExpression(t *testing.T) {
	module := parseSource(t, `
		fn f(x: u32) -> u32 {
			match x {
				0 => 1,
				_ => x,
			}
		}
	`)
	fn := module.Items[0].(*ast.FunctionItem)
	match, ok := fn.Body.Trailing.(*ast.MatchExpr)
	if !ok {
		t.Fatalf("expected *ast.MatchExpr, got %T", fn.Body.Trailing)
	}
	if len(match.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(match.Arms))
	}
	if _, ok := match.Arms[1].Pattern.(*ast.WildcardPattern); !ok {
		t.Fatalf("expected wildcard pattern in second arm, got %T", match.Arms[1].Pattern)
	}
}

func TestParseStructItemAndInit(t *testing.T) {
	module := parseSource(t, `
		struct Point { x: u32, y: u32 }
		fn origin() -> Point { Point { x: 0, y: 0 } }
	`)
	if len(module.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(module.Items))
	}
	structItem, ok := module.Items[0].(*ast.StructItem)
	if !ok || structItem.Name != "Point" || len(structItem.Fields) != 2 {
		t.Fatalf("unexpected struct item: %+v", module.Items[0])
	}
	fn := module.Items[1].(*ast.FunctionItem)
	init, ok := fn.Body.Trailing.(*ast.StructInit)
	if !ok || init.TypeName != "Point" || len(init.Fields) != 2 {
		t.Fatalf("unexpected struct init: %+v", fn.Body.Trailing)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	// "1 + 2 * 3" should parse as "1 + (2 * 3)".
	module := parseSource(t, `fn f() -> u32 { 1 + 2 * 3 }`)
	fn := module.Items[0].(*ast.FunctionItem)
	top, ok := fn.Body.Trailing.(*ast.Binary)
	if !ok || top.Operator.Lexeme != "+" {
		t.Fatalf("expected top-level '+' Binary, got %+v", fn.Body.Trailing)
	}
	right, ok := top.Right.(*ast.Binary)
	if !ok || right.Operator.Lexeme != "*" {
		t.Fatalf("expected right operand to be a '*' Binary, got %+v", top.Right)
	}
}

func TestParseContractItem(t *testing.T) {
	module := parseSource(t, `
		contract Counter {
			count: u32;

			fn new() -> Counter {
				Counter { count: 0 }
			}

			fn increment() {
				count += 1;
			}
		}
	`)
	contract, ok := module.Items[0].(*ast.ContractItem)
	if !ok {
		t.Fatalf("expected *ast.ContractItem, got %T", module.Items[0])
	}
	if len(contract.Storage) != 1 || contract.Storage[0].Name != "count" {
		t.Fatalf("unexpected storage: %+v", contract.Storage)
	}
	if contract.Constructor == nil {
		t.Fatalf("expected a constructor")
	}
	if len(contract.Methods) != 1 || contract.Methods[0].Name != "increment" {
		t.Fatalf("unexpected methods: %+v", contract.Methods)
	}
}

func TestParseSyntaxErrorReportsPosition(t *testing.T) {
	tokens, err := lexer.New(`fn f( { }`, "test.fe").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	_, err = Make(tokens, "test.fe").Parse()
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	if _, ok := err.(SyntaxError); !ok {
		t.Fatalf("expected a SyntaxError, got %T", err)
	}
}
