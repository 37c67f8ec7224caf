package lexer

import (
	"testing"

	"github.com/cwbudde/go-cel/pkg/token"
)

func TestOperatorsAndDelimiters(t *testing.T) {
	input := `== != < <= > >= + - * / % ! && || ? : , . ( ) [ ] { }`
	expected := []token.Type{
		token.EQ, token.NE, token.LT, token.LE, token.GT, token.GE,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.BANG, token.AND, token.OR, token.QUESTION, token.COLON,
		token.COMMA, token.DOT, token.LPAREN, token.RPAREN,
		token.LBRACKET, token.RBRACKET, token.LBRACE, token.RBRACE,
		token.EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %s, got %s", i, want, tok.Type)
		}
	}
	if len(l.Errors()) > 0 {
		t.Fatalf("unexpected lexer errors: %v", l.Errors())
	}
}

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		input   string
		typ     token.Type
		literal string
	}{
		{"0", token.INT, "0"},
		{"42", token.INT, "42"},
		{"0x1F", token.INT, "0x1F"},
		{"42u", token.UINT, "42"},
		{"0xFFu", token.UINT, "0xFF"},
		{"1.5", token.FLOAT, "1.5"},
		{"2e10", token.FLOAT, "2e10"},
		{"1.5e-3", token.FLOAT, "1.5e-3"},
		{".25", token.FLOAT, ".25"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("expected %s, got %s", tt.typ, tok.Type)
			}
			if tok.Literal != tt.literal {
				t.Errorf("expected literal %q, got %q", tt.literal, tok.Literal)
			}
		})
	}
}

func TestStringLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		typ     token.Type
		decoded string
	}{
		{"double quoted", `"hello"`, token.STRING, "hello"},
		{"single quoted", `'hello'`, token.STRING, "hello"},
		{"empty", `""`, token.STRING, ""},
		{"escapes", `"a\tb\nc"`, token.STRING, "a\tb\nc"},
		{"quote escape", `"say \"hi\""`, token.STRING, `say "hi"`},
		{"unicode escape", `"\u0041"`, token.STRING, "A"},
		{"long unicode escape", `"\U0001F680"`, token.STRING, "🚀"},
		{"hex escape", `"\x41"`, token.STRING, "A"},
		{"raw string keeps backslash", `r"a\nb"`, token.STRING, `a\nb`},
		{"triple quoted", `"""a"b"""`, token.STRING, `a"b`},
		{"bytes", `b"abc"`, token.BYTES, "abc"},
		{"bytes hex escape", `b"\xff"`, token.BYTES, "\xff"},
		{"unicode in source", `"héllo"`, token.STRING, "héllo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			tok := l.NextToken()
			if tok.Type != tt.typ {
				t.Fatalf("expected %s, got %s (errors: %v)", tt.typ, tok.Type, l.Errors())
			}
			if tok.Literal != tt.decoded {
				t.Errorf("expected %q, got %q", tt.decoded, tok.Literal)
			}
		})
	}
}

func TestIdentifiersAndKeywords(t *testing.T) {
	input := `request true false null in size startsWith _private x2`
	expected := []struct {
		typ     token.Type
		literal string
	}{
		{token.IDENT, "request"},
		{token.TRUE, "true"},
		{token.FALSE, "false"},
		{token.NULL, "null"},
		{token.IN, "in"},
		{token.IDENT, "size"},
		{token.IDENT, "startsWith"},
		{token.IDENT, "_private"},
		{token.IDENT, "x2"},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ || tok.Literal != want.literal {
			t.Fatalf("token %d: expected %s %q, got %s %q", i, want.typ, want.literal, tok.Type, tok.Literal)
		}
	}
}

func TestCommentsSkipped(t *testing.T) {
	l := New("a // trailing comment\nb")
	first := l.NextToken()
	second := l.NextToken()
	if first.Literal != "a" || second.Literal != "b" {
		t.Fatalf("expected a then b, got %q then %q", first.Literal, second.Literal)
	}
	if second.Pos.Line != 2 {
		t.Errorf("expected b on line 2, got %d", second.Pos.Line)
	}
}

func TestPositionsAreRuneColumns(t *testing.T) {
	l := New(`"héllo" + x`)
	_ = l.NextToken() // string
	plus := l.NextToken()
	if plus.Pos.Column != 9 {
		t.Errorf("expected + at rune column 9, got %d", plus.Pos.Column)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"lone ampersand", `a & b`},
		{"lone pipe", `a | b`},
		{"unknown escape", `"\q"`},
		{"unexpected char", `a # b`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.input)
			for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
			}
			if len(l.Errors()) == 0 {
				t.Error("expected lexer errors")
			}
		})
	}
}
