package frontend

import (
	"testing"

	"github.com/angara-lang/angarac/internal/token"
)

func collect(src string) []token.Token {
	l := NewLexer(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := collect("let x = foo;")
	want := []token.Kind{token.LET, token.IDENT, token.ASSIGN, token.IDENT, token.SEMI, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexOperators(t *testing.T) {
	cases := map[string]token.Kind{
		"==": token.EQ, "!=": token.NE, "<=": token.LE, ">=": token.GE,
		"&&": token.AMPAMP, "||": token.PIPEPIPE, "??": token.QQ,
		"?.": token.QDOT, "->": token.ARROW, "++": token.PLUSPLUS,
		"--": token.MINUSMINUS, "+=": token.PLUSEQ, "...": token.ELLIPSIS,
	}
	for src, kind := range cases {
		toks := collect(src)
		if toks[0].Kind != kind {
			t.Errorf("%q lexed as %v, want %v", src, toks[0].Kind, kind)
		}
	}
}

func TestLexNumbersAndStrings(t *testing.T) {
	toks := collect(`42 3.14 "hello\nworld"`)
	if toks[0].Kind != token.INT || toks[0].Lexeme != "42" {
		t.Errorf("int token = %+v", toks[0])
	}
	if toks[1].Kind != token.FLOAT || toks[1].Lexeme != "3.14" {
		t.Errorf("float token = %+v", toks[1])
	}
	// string lexemes retain their quotes for the backend
	if toks[2].Kind != token.STRING || toks[2].Lexeme != `"hello\nworld"` {
		t.Errorf("string token = %+v", toks[2])
	}
}

func TestLexComments(t *testing.T) {
	toks := collect("a // line comment\nb /* block */ c")
	var idents []string
	for _, tok := range toks {
		if tok.Kind == token.IDENT {
			idents = append(idents, tok.Lexeme)
		}
	}
	if len(idents) != 3 || idents[0] != "a" || idents[1] != "b" || idents[2] != "c" {
		t.Errorf("idents across comments = %v", idents)
	}
}

func TestLexPositions(t *testing.T) {
	toks := collect("let\n  x")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("let at %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 3 {
		t.Errorf("x at %d:%d, want 2:3", toks[1].Line, toks[1].Column)
	}
}
