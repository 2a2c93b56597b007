package asm

import "testing"

func lexOne(t *testing.T, src string) Token {
	t.Helper()
	l := NewLexer(src, DefaultDialect)
	tok := l.Next()
	if tok.Kind == TokenError {
		t.Fatalf("lex error on %q: %s", src, tok.Text)
	}
	return tok
}

func TestLexIntegerLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want uint64
	}{
		{"0", 0},
		{"0x1F", 0x1F},
		{"0X1f", 0x1F},
		{"0o17", 0o17},
		{"0O17", 0o17},
		{"0755", 0o755}, // bare leading-zero octal, no marker
		{"0", 0},
		{"8", 8},    // leading digit 8 is not an octal digit: stays decimal
		{"0899", 899}, // '8' breaks the octal run immediately, falls through to decimal
		{"123", 123},
	}
	for _, c := range cases {
		tok := lexOne(t, c.src)
		if tok.Kind != TokenInteger {
			t.Fatalf("%q: got kind %v, want TokenInteger", c.src, tok.Kind)
		}
		if tok.Integer != c.want {
			t.Fatalf("%q: got %d, want %d", c.src, tok.Integer, c.want)
		}
	}
}
