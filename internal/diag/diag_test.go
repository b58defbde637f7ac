package diag

import (
	"strings"
	"testing"

	"github.com/angara-lang/angarac/internal/token"
)

func TestFormatWithCaret(t *testing.T) {
	source := "let x = 1;\nlet y = z;\n"
	d := New(CodeUndefinedName, token.Token{Line: 2, Column: 9}, "main.an", "undefined name %q", "z")

	out := d.Format(false, source)
	if !strings.Contains(out, "main.an:2:9: undefined name \"z\"") {
		t.Errorf("missing location header:\n%s", out)
	}
	if !strings.Contains(out, "let y = z;") {
		t.Errorf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("missing caret:\n%s", out)
	}

	// the caret must sit under column 9
	lines := strings.Split(out, "\n")
	caretLine := lines[len(lines)-1]
	srcLine := lines[len(lines)-2]
	caretIdx := strings.Index(caretLine, "^")
	zIdx := strings.Index(srcLine, "z")
	if caretIdx != zIdx {
		t.Errorf("caret at %d, offending lexeme at %d:\n%s", caretIdx, zIdx, out)
	}
}

func TestFormatWithNote(t *testing.T) {
	d := New(CodeRedeclaration, token.Token{Line: 5, Column: 1}, "m.an", "%q is already declared", "x").
		WithNote(token.Token{Line: 2, Column: 1}, "m.an", "previous declaration here")

	out := d.Format(false, "")
	if !strings.Contains(out, "already declared") || !strings.Contains(out, "previous declaration here") {
		t.Errorf("note missing:\n%s", out)
	}
	if !strings.Contains(out, "m.an:2:1") {
		t.Errorf("note location missing:\n%s", out)
	}
}

func TestColorOnlyAroundCaret(t *testing.T) {
	src := "bad\n"
	d := New(CodeTypeMismatch, token.Token{Line: 1, Column: 1}, "f.an", "boom")
	colored := d.Format(true, src)
	plain := d.Format(false, src)
	if !strings.Contains(colored, "\033[1;31m") {
		t.Error("colored output must carry the ANSI escape")
	}
	if strings.Contains(plain, "\033[") {
		t.Error("plain output must carry no ANSI escapes")
	}
}

func TestBagAccumulates(t *testing.T) {
	b := &Bag{}
	if b.HadError() {
		t.Fatal("fresh bag must report no error")
	}
	b.Add(New(CodeArity, token.Zero, "", "expected 2 arguments, got 1"))
	b.Add(New(CodeTypeMismatch, token.Zero, "", "cannot assign string to i64"))

	if !b.HadError() {
		t.Error("bag with diagnostics must set the had-error flag")
	}
	if len(b.Items()) != 2 {
		t.Errorf("Items() = %d, want 2", len(b.Items()))
	}
	all := b.FormatAll(false, "")
	if !strings.Contains(all, "expected 2 arguments") || !strings.Contains(all, "cannot assign") {
		t.Errorf("FormatAll missing diagnostics:\n%s", all)
	}
}

func TestMissingSourceLineOmitsCaret(t *testing.T) {
	d := New(CodeLink, token.Zero, "", "link failed")
	out := d.Format(false, "")
	if strings.Contains(out, "^") {
		t.Errorf("no caret without a source line:\n%s", out)
	}
}
