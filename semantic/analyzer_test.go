package semantic

import (
	"testing"

	"ferrite/ast"
	"ferrite/lexer"
	"ferrite/parser"
)

func analyzeSource(t *testing.T, src string) (*Program, error) {
	t.Helper()
	tokens, err := lexer.New(src, "test.fe").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	module, err := parser.Make(tokens, "test.fe").Parse()
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	return Analyze(module, "test.fe")
}

func expectKind(t *testing.T, src string, want ErrorKind) {
	t.Helper()
	_, err := analyzeSource(t, src)
	if err == nil {
		t.Fatalf("expected a semantic error, got none")
	}
	se, ok := err.(SemanticError)
	if !ok {
		t.Fatalf("expected SemanticError, got %T: %v", err, err)
	}
	if se.Kind != want {
		t.Fatalf("expected error kind %s, got %s (%v)", want, se.Kind, se)
	}
}

func TestMainMissing(t *testing.T) {
	expectKind(t, `fn helper(x: u8) -> u8 { x }`, FunctionMainMissing)
}

func TestRangeRequiresConstant(t *testing.T) {
	expectKind(t, `fn main() { let a: u8 = 0; a..42; }`, OperatorRangeFirstOperandExpectedConstant)
}

func TestEqualsRequiresUnitOnBothSides(t *testing.T) {
	expectKind(t, `fn main() { let integer: u8 = 42; let unit: () = (); let v = unit == integer; }`, OperatorEqualsSecondOperandExpectedUnit)
}

func TestIndexRequiresIntegerOrRange(t *testing.T) {
	expectKind(t, `fn main() { let v = [1,2,3][true]; }`, OperatorIndexSecondOperandExpectedIntegerOrRange)
}

func TestFunctionArgumentTypeMismatch(t *testing.T) {
	_, err := analyzeSource(t, `fn another(x: u8) -> u8 { x } fn main() { let v = another(false); }`)
	if err == nil {
		t.Fatalf("expected a semantic error, got none")
	}
	se, ok := err.(SemanticError)
	if !ok {
		t.Fatalf("expected SemanticError, got %T: %v", err, err)
	}
	if se.Kind != FunctionArgumentTypeMismatch {
		t.Fatalf("expected FunctionArgumentTypeMismatch, got %s", se.Kind)
	}
	if se.FunctionName != "another" || se.ArgName != "x" || se.Expected != "u8" || se.Found != "bool" {
		t.Fatalf("unexpected mismatch detail: %+v", se)
	}
}

func TestSimpleCircuitAnalyzes(t *testing.T) {
	prog, err := analyzeSource(t, `fn main() { let mut sum: u8 = 0; for i in 0..4 { sum = sum + i; } assert(sum == 6); }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prog.Kind != Circuit {
		t.Fatalf("expected Circuit, got %s", prog.Kind)
	}
	if prog.EntryIndex != 0 {
		t.Fatalf("expected entry index 0, got %d", prog.EntryIndex)
	}
}

func TestDivisionByConstantZero(t *testing.T) {
	expectKind(t, `fn main() { let v: u8 = 1 / 0; }`, DivisionByZero)
}

func TestNonExhaustiveMatch(t *testing.T) {
	expectKind(t, `fn main() { let v: u8 = 1; let r: u8 = match v { 10 => 10, 20 => 20, }; }`, NonExhaustiveMatch)
}

func TestAssignmentToImmutable(t *testing.T) {
	expectKind(t, `fn main() { let v: u8 = 1; v = 2; }`, AssignmentToImmutable)
}

func TestStructFieldTypeMismatch(t *testing.T) {
	src := `
struct Point { x: u32, y: u32 }
fn main() {
	let p = Point { x: 1, y: false };
}
`
	expectKind(t, src, TypeMismatch)
}

func TestDuplicateBindingInSameScope(t *testing.T) {
	expectKind(t, `fn main() { let v: u8 = 1; let v: u8 = 2; }`, DuplicateBinding)
}

func TestEnumVariantConstantFolds(t *testing.T) {
	src := `
enum Color { Red, Green, Blue }
fn main() {
	let c = Color::Green;
	assert(c == Color::Green);
}
`
	prog, err := analyzeSource(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := prog.Enums["Color"]; !ok {
		t.Fatalf("expected Color enum registered")
	}
}

func TestMatchExpressionWithWildcardExhaustive(t *testing.T) {
	src := `fn main() { let v: u8 = 2; let r: u8 = match v { 1 => 10, _ => 20, }; assert(r == 20); }`
	if _, err := analyzeSource(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestImplMethodCallResolves(t *testing.T) {
	src := `
struct Counter { value: u32 }
impl Counter {
	fn get(self: Counter) -> u32 { self.value }
}
fn main() {
	let c = Counter { value: 7 };
	let v = c.get();
	assert(v == 7);
}
`
	if _, err := analyzeSource(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBinaryComparisonCoercesLiteralWidth(t *testing.T) {
	src := `fn main() { let v: u32 = 7; assert(v == 7); }`
	if _, err := analyzeSource(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

var _ = ast.Module{}
