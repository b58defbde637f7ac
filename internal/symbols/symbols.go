// Package symbols implements the Symbol Table: a stack of
// lexically scoped name->symbol bindings with shadowing control and
// origin-module tracking.
//
// The explicit depth counter lets the checker enforce "export only at
// module scope", and Declare returns the conflicting symbol when the name
// already exists in the innermost scope.
package symbols

import (
	"github.com/angara-lang/angarac/internal/token"
	"github.com/angara-lang/angarac/internal/types"
)

// Symbol is one name binding.
type Symbol struct {
	Name         string
	Type         types.Type
	Decl         token.Token
	IsConst      bool
	ScopeDepth   int
	OriginModule *types.Module // non-nil only for selectively-attached names
}

type scope struct {
	names map[string]*Symbol
}

func newScope() *scope { return &scope{names: map[string]*Symbol{}} }

// Table is a stack of scopes. Scope depth 0 is module scope; EnterScope pushes depth 1, 2, ... for nested blocks.
type Table struct {
	scopes []*scope
}

// New returns a table with only the module scope (depth 0) open.
func New() *Table {
	return &Table{scopes: []*scope{newScope()}}
}

// Depth returns the current scope depth; 0 is module scope.
func (t *Table) Depth() int { return len(t.scopes) - 1 }

// EnterScope pushes a new lexical scope.
func (t *Table) EnterScope() { t.scopes = append(t.scopes, newScope()) }

// ExitScope pops the innermost lexical scope. It is a programming error to
// call this at module scope; callers must balance EnterScope/ExitScope.
func (t *Table) ExitScope() {
	if len(t.scopes) <= 1 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Declare binds name in the innermost scope. If the name already exists in
// that same scope, the prior Symbol is returned alongside ok=false so the
// caller can report a redeclaration with a note at the prior token
func (t *Table) Declare(tok token.Token, name string, typ types.Type, isConst bool, origin *types.Module) (sym *Symbol, prior *Symbol, ok bool) {
	innermost := t.scopes[len(t.scopes)-1]
	if existing, exists := innermost.names[name]; exists {
		return existing, existing, false
	}
	sym = &Symbol{
		Name: name, Type: typ, Decl: tok, IsConst: isConst,
		ScopeDepth: t.Depth(), OriginModule: origin,
	}
	innermost.names[name] = sym
	return sym, nil, true
}

// Resolve walks outward from the innermost scope.
func (t *Table) Resolve(name string) (*Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i].names[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// ResolveInScope looks up name only in the scope at the given depth (used
// by narrowing, which must not leak past the scope it was pushed in).
func (t *Table) ResolveInScope(depth int, name string) (*Symbol, bool) {
	if depth < 0 || depth >= len(t.scopes) {
		return nil, false
	}
	sym, ok := t.scopes[depth].names[name]
	return sym, ok
}
