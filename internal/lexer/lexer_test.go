package lexer

import (
	"testing"

	"github.com/skx/cc/internal/token"
)

func TestKeywordsAndIdentifiers(t *testing.T) {
	l := New("test.c", "int x while foo")

	expect := []struct {
		kind token.Kind
		sub  token.Sub
		lit  string
	}{
		{token.Keyword, token.INT, ""},
		{token.Identifier, 0, "x"},
		{token.Keyword, token.WHILE, ""},
		{token.Identifier, 0, "foo"},
		{token.EOF, 0, ""},
	}

	for i, want := range expect {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %s", i, err)
		}
		if tok.Kind != want.kind {
			t.Fatalf("token %d: kind = %s, want %s", i, tok.Kind, want.kind)
		}
		if want.kind == token.Keyword && tok.Sub != want.sub {
			t.Fatalf("token %d: sub = %d, want %d", i, tok.Sub, want.sub)
		}
		if want.kind == token.Identifier && tok.Lit != want.lit {
			t.Fatalf("token %d: lit = %q, want %q", i, tok.Lit, want.lit)
		}
	}
}

func TestPunctuatorMaximalMunch(t *testing.T) {
	l := New("test.c", "<<= << < <=")

	want := []token.Sub{token.SHL_ASSIGN, token.SHL, token.LT, token.LE}
	for i, sub := range want {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %s", i, err)
		}
		if tok.Kind != token.Punctuator || tok.Sub != sub {
			t.Fatalf("token %d: got kind=%s sub=%d, want sub=%d", i, tok.Kind, tok.Sub, sub)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		lit   string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"1.5f", "1.5f"},
		{"1e10", "1e10"},
		{"1.0e-5", "1.0e-5"},
	}
	for _, tc := range tests {
		l := New("test.c", tc.input)
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("%q: unexpected error: %s", tc.input, err)
		}
		if tok.Kind != token.Number || tok.Lit != tc.lit {
			t.Fatalf("%q: got kind=%s lit=%q, want lit=%q", tc.input, tok.Kind, tok.Lit, tc.lit)
		}
	}
}

func TestIntegerWithFSuffixIsAnError(t *testing.T) {
	l := New("test.c", "1f")
	if _, err := l.Next(); err == nil {
		t.Fatalf("expected an error for an integer literal with an 'f' suffix")
	}
}

func TestStringAndCharEscapes(t *testing.T) {
	l := New("test.c", `"hi\n" 'a' '\t'`)

	str, err := l.Next()
	if err != nil || str.Kind != token.String || str.Lit != "hi\n" {
		t.Fatalf("string literal: got %+v, err=%v", str, err)
	}

	a, err := l.Next()
	if err != nil || a.Kind != token.Character || a.IVal != int64('a') {
		t.Fatalf("char literal: got %+v, err=%v", a, err)
	}

	tab, err := l.Next()
	if err != nil || tab.Kind != token.Character || tab.IVal != int64('\t') {
		t.Fatalf("char literal: got %+v, err=%v", tab, err)
	}
}

func TestUngetTwiceWithoutNextPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected a panic on double Unget")
		}
	}()
	l := New("test.c", "int x")
	tok, _ := l.Next()
	l.Unget(tok)
	l.Unget(tok)
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("test.c", "int x")
	first, err := l.Peek()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	second, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if first.Kind != second.Kind || first.Sub != second.Sub {
		t.Fatalf("Peek token %+v did not match Next token %+v", first, second)
	}
}

func TestLineTracking(t *testing.T) {
	l := New("test.c", "int\nx")
	first, _ := l.Next()
	if first.Line != 1 {
		t.Fatalf("first token line = %d, want 1", first.Line)
	}
	second, _ := l.Next()
	if second.Line != 2 {
		t.Fatalf("second token line = %d, want 2", second.Line)
	}
}
