package symbols

import (
	"testing"

	"github.com/angara-lang/angarac/internal/token"
	"github.com/angara-lang/angarac/internal/types"
)

func tok(line, col int) token.Token {
	return token.Token{Kind: token.IDENT, Line: line, Column: col}
}

func TestDeclareAndResolve(t *testing.T) {
	b := types.NewBuiltins()
	tbl := New()

	sym, _, ok := tbl.Declare(tok(1, 1), "x", b.I64, false, nil)
	if !ok {
		t.Fatal("first declaration must succeed")
	}
	if sym.ScopeDepth != 0 {
		t.Errorf("module-scope symbol depth = %d, want 0", sym.ScopeDepth)
	}

	got, ok := tbl.Resolve("x")
	if !ok || got != sym {
		t.Fatal("Resolve must return the declared symbol")
	}
	if _, ok := tbl.Resolve("missing"); ok {
		t.Error("Resolve must miss undeclared names")
	}
}

func TestRedeclarationReturnsPrior(t *testing.T) {
	b := types.NewBuiltins()
	tbl := New()

	first := tok(1, 5)
	tbl.Declare(first, "x", b.I64, false, nil)
	_, prior, ok := tbl.Declare(tok(2, 5), "x", b.String, false, nil)
	if ok {
		t.Fatal("redeclaration in the same scope must fail")
	}
	if prior == nil || prior.Decl != first {
		t.Error("the prior symbol must carry the original declaration token")
	}
}

func TestShadowingAcrossScopes(t *testing.T) {
	b := types.NewBuiltins()
	tbl := New()

	tbl.Declare(tok(1, 1), "x", b.I64, false, nil)
	tbl.EnterScope()
	if tbl.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", tbl.Depth())
	}

	inner, _, ok := tbl.Declare(tok(2, 1), "x", b.String, false, nil)
	if !ok {
		t.Fatal("shadowing in an inner scope must succeed")
	}
	got, _ := tbl.Resolve("x")
	if got != inner {
		t.Error("Resolve must find the innermost binding")
	}

	tbl.ExitScope()
	got, _ = tbl.Resolve("x")
	if got.Type.String() != "i64" {
		t.Error("after ExitScope the outer binding must be visible again")
	}
}

func TestOriginModuleTracking(t *testing.T) {
	b := types.NewBuiltins()
	tbl := New()
	mod := types.NewModule("fs")
	mod.IsNative = true

	sym, _, _ := tbl.Declare(tok(1, 1), "read_to_string", types.NewFunction([]types.Type{b.String}, b.String, false), true, mod)
	if sym.OriginModule != mod {
		t.Error("selectively attached symbols must record their origin module")
	}
	plain, _, _ := tbl.Declare(tok(2, 1), "local", b.I64, false, nil)
	if plain.OriginModule != nil {
		t.Error("ordinary symbols must have no origin module")
	}
}

func TestResolveInScope(t *testing.T) {
	b := types.NewBuiltins()
	tbl := New()
	tbl.Declare(tok(1, 1), "g", b.I64, false, nil)
	tbl.EnterScope()
	tbl.Declare(tok(2, 1), "l", b.I64, false, nil)

	if _, ok := tbl.ResolveInScope(0, "g"); !ok {
		t.Error("ResolveInScope(0) must find module-scope names")
	}
	if _, ok := tbl.ResolveInScope(0, "l"); ok {
		t.Error("ResolveInScope(0) must not see inner-scope names")
	}
	if _, ok := tbl.ResolveInScope(1, "l"); !ok {
		t.Error("ResolveInScope(1) must find the local")
	}
}

func TestExitScopeAtModuleScopeIsNoop(t *testing.T) {
	tbl := New()
	tbl.ExitScope()
	if tbl.Depth() != 0 {
		t.Error("ExitScope at module scope must not underflow")
	}
}
