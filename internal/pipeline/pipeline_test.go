package pipeline

import (
	"testing"

	"ferrite/token"
	"ferrite/vm"
)

// Covers spec.md §8 scenario 6: a full lex -> parse -> analyze -> lower
// -> run pass over a for-loop that accumulates a running sum.
func TestEndToEndLoopSum(t *testing.T) {
	src := `
fn main() -> (u32, u32) {
    let mut acc: u32 = 0;
    let mut i: u32 = 0;
    for _ in 0..10 {
        i = i + 1;
        acc = acc + i;
    }
    (acc, i)
}
`
	_, prog, err := CompileSource(src, "loop.fe")
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}

	machine := vm.New(prog, false)
	out, err := machine.RunCircuit(nil)
	if err != nil {
		t.Fatalf("RunCircuit: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 output scalars, got %d", len(out))
	}
	if out[0].Int().Int64() != 55 {
		t.Fatalf("acc: got %d, want 55", out[0].Int().Int64())
	}
	if out[1].Int().Int64() != 10 {
		t.Fatalf("i: got %d, want 10", out[1].Int().Int64())
	}
}

// Covers spec.md §8 scenario 1: lexing a basic program produces the
// expected token stream with correct positions and no errors.
func TestLexBasicProgram(t *testing.T) {
	src := `fn main() { let a = 0; a + 1 }`
	tokens, err := Lex(src, "basic.fe")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	wantTypes := []token.TokenType{
		token.FN, token.IDENTIFIER, token.LPAREN, token.RPAREN, token.LBRACE,
		token.LET, token.IDENTIFIER, token.ASSIGN, token.INTEGER, token.SEMICOLON,
		token.IDENTIFIER, token.PLUS, token.INTEGER, token.RBRACE, token.EOF,
	}
	if len(tokens) != len(wantTypes) {
		t.Fatalf("expected %d tokens, got %d: %v", len(wantTypes), len(tokens), tokens)
	}
	for i, want := range wantTypes {
		if tokens[i].TokenType != want {
			t.Fatalf("token %d: expected %s, got %s", i, want, tokens[i].TokenType)
		}
	}
}

func TestRunCircuitRejectsNonCircuit(t *testing.T) {
	_, prog, err := CompileSource(`contract Thing { const x: u8 = 1; }`, "c.fe")
	if err != nil {
		t.Fatalf("CompileSource: %v", err)
	}
	machine := vm.New(prog, false)
	if _, err := machine.RunCircuit(nil); err == nil {
		t.Fatalf("expected RunCircuit on a Contract program to fail")
	}
}

func TestCompileFileMissing(t *testing.T) {
	if _, _, err := CompileFile("/no/such/file.fe"); err == nil {
		t.Fatalf("expected an error reading a nonexistent file")
	}
}

