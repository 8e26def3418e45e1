package lexer

import (
	"testing"

	"ferrite/token"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.TokenType
	}
	return out
}

func assertTypes(t *testing.T, got []token.Token, want []token.TokenType) {
	t.Helper()
	gotTypes := tokenTypes(got)
	if len(gotTypes) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", gotTypes, want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, gotTypes[i], want[i])
		}
	}
}

func TestOperatorsSuccess(t *testing.T) {
	scanner := New("==/=*+>-<!=<=>=!!", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	want := []token.TokenType{
		token.EQUAL_EQUAL, token.SLASH_ASSIGN, token.STAR, token.PLUS,
		token.LARGER, token.MINUS, token.LESS, token.NOT_EQUAL, token.LESS_EQUAL,
		token.LARGER_EQUAL, token.BANG, token.BANG, token.EOF,
	}
	assertTypes(t, got, want)
}

func TestScanPunctuation(t *testing.T) {
	scanner := New("(){}**;+!=<=", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	want := []token.TokenType{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.STAR, token.STAR, token.SEMICOLON, token.PLUS,
		token.NOT_EQUAL, token.LESS_EQUAL, token.EOF,
	}
	assertTypes(t, got, want)
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	scanner := New("fn let mut const if else match for in struct enum impl trait use mod contract pub return as type myVar _", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	want := []token.TokenType{
		token.FN, token.LET, token.MUT, token.CONST, token.IF, token.ELSE, token.MATCH,
		token.FOR, token.IN, token.STRUCT, token.ENUM, token.IMPL, token.TRAIT, token.USE,
		token.MOD, token.CONTRACT, token.PUB, token.RETURN, token.AS, token.TYPE,
		token.IDENTIFIER, token.UNDERSCORE, token.EOF,
	}
	assertTypes(t, got, want)
}

func TestScanMultiByteOperators(t *testing.T) {
	scanner := New(":: -> => .. ..= << >> && || <<= >>=", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	want := []token.TokenType{
		token.COLONCOLON, token.ARROW, token.FATARROW, token.DOTDOT, token.DOTDOTEQ,
		token.SHL, token.SHR, token.AND, token.OR, token.SHL_ASSIGN, token.SHR_ASSIGN,
		token.EOF,
	}
	assertTypes(t, got, want)
}

func TestScanIntegerLiterals(t *testing.T) {
	scanner := New("42 0x2A 0o52 0b101010 1_000_000", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("token count mismatch: got %d, want 6", len(got))
	}
	cases := []struct {
		lexeme string
		digits string
		base   token.IntegerBase
	}{
		{"42", "42", token.Decimal},
		{"0x2A", "2A", token.Hex},
		{"0o52", "52", token.Octal},
		{"0b101010", "101010", token.Binary},
		{"1_000_000", "1000000", token.Decimal},
	}
	for i, c := range cases {
		tok := got[i]
		if tok.TokenType != token.INTEGER {
			t.Fatalf("token[%d] type = %v, want INTEGER", i, tok.TokenType)
		}
		lit, ok := tok.Literal.(*token.IntegerLiteral)
		if !ok {
			t.Fatalf("token[%d] literal not *token.IntegerLiteral", i)
		}
		if lit.Digits != c.digits || lit.Base != c.base || tok.Lexeme != c.lexeme {
			t.Errorf("token[%d] = %+v, want digits=%s base=%v lexeme=%s", i, lit, c.digits, c.base, c.lexeme)
		}
	}
}

func TestScanStringLiteral(t *testing.T) {
	scanner := New(`"hello\nworld"`, "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	if len(got) != 2 || got[0].TokenType != token.STRING {
		t.Fatalf("unexpected tokens: %v", got)
	}
	if got[0].Literal.(string) != "hello\nworld" {
		t.Errorf("string literal = %q, want %q", got[0].Literal, "hello\nworld")
	}
}

func TestScanComments(t *testing.T) {
	scanner := New("1 // line comment\n/* block\ncomment */ 2", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	want := []token.TokenType{token.INTEGER, token.INTEGER, token.EOF}
	assertTypes(t, got, want)
}

func TestCarriageReturnDoesNotAdvanceColumn(t *testing.T) {
	// "ab\rcd": \r must not consume a column of its own, so "cd" lands
	// at column 3 (right after "ab"), not column 4.
	scanner := New("ab\rcd", "")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("Scan() raised an error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("token count mismatch: got %d, want 3", len(got))
	}
	if got[0].Line != 1 || got[0].Column != 1 {
		t.Errorf("token[0] = line %d col %d, want line 1 col 1", got[0].Line, got[0].Column)
	}
	if got[1].Line != 1 || got[1].Column != 3 {
		t.Errorf("token[1] = line %d col %d, want line 1 col 3", got[1].Line, got[1].Column)
	}
}

func TestUnclosedStringIsError(t *testing.T) {
	scanner := New(`"unterminated`, "")
	_, err := scanner.Scan()
	if err == nil {
		t.Fatalf("expected an error for unclosed string literal")
	}
}
