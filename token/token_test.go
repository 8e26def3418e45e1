package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		want      Token
	}{
		{
			name:      "Create ASSIGN token",
			tokenType: ASSIGN,
			want:      Token{TokenType: ASSIGN, Lexeme: "="},
		},
		{
			name:      "Create STAR token",
			tokenType: STAR,
			want:      Token{TokenType: STAR, Lexeme: "*"},
		},
		{
			name:      "Create ARROW token",
			tokenType: ARROW,
			want:      Token{TokenType: ARROW, Lexeme: "->"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, 0, 0)
			if got.TokenType != tt.want.TokenType || got.Lexeme != tt.want.Lexeme {
				t.Errorf("CreateToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	got := CreateLiteralToken(IDENTIFIER, nil, "myVar", 3, 7)
	if got.TokenType != IDENTIFIER || got.Lexeme != "myVar" || got.Line != 3 || got.Column != 7 {
		t.Errorf("CreateLiteralToken() = %v", got)
	}
}

func TestMatchSymbol(t *testing.T) {
	tests := []struct {
		src     string
		wantTyp TokenType
		wantLen int
	}{
		{"..=rest", DOTDOTEQ, 3},
		{"..rest", DOTDOT, 2},
		{"->rest", ARROW, 2},
		{"=>rest", FATARROW, 2},
		{"==rest", EQUAL_EQUAL, 2},
		{"=rest", ASSIGN, 1},
		{"::rest", COLONCOLON, 2},
		{":rest", COLON, 1},
		{"<<=rest", SHL_ASSIGN, 3},
		{"<<rest", SHL, 2},
		{"<rest", LESS, 1},
		{"$$$", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			gotTyp, gotLen := MatchSymbol(tt.src)
			if gotTyp != tt.wantTyp || gotLen != tt.wantLen {
				t.Errorf("MatchSymbol(%q) = (%v, %d), want (%v, %d)", tt.src, gotTyp, gotLen, tt.wantTyp, tt.wantLen)
			}
		})
	}
}
