package checker

import (
	"path/filepath"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/types"
)

// runAttachPass is the pre-pass: resolve every `attach`
// statement via the driver, then declare either the selectively-named
// exports or a single Module-typed alias symbol.
func (c *Checker) runAttachPass(prog *ast.Program) {
	for _, stmt := range prog.Stmts {
		at, ok := stmt.(*ast.AttachStmt)
		if !ok {
			continue
		}
		mod, ok := c.Resolver.ResolveFromChecker(at.Source, at)
		if !ok {
			c.hadError = true
			continue
		}

		if at.Selective {
			for _, name := range at.Names {
				exported, ok := mod.Exports[name]
				if !ok {
					c.error(diag.CodeUnknownExport, at.Pos(), "module %q has no export %q", at.Source, name)
					continue
				}
				c.declareAttached(at, name, exported, mod)
			}
			continue
		}

		alias := at.Alias
		if alias == "" {
			alias = moduleBaseName(at.Source)
		}
		c.declareAttached(at, alias, mod, nil)
	}
}

// declareAttached declares one attach-introduced name at module scope,
// reporting a redeclaration conflict with a note at the prior declaration
func (c *Checker) declareAttached(at *ast.AttachStmt, name string, t types.Type, origin *types.Module) {
	_, prior, ok := c.Symbols.Declare(at.Pos(), name, t, true, origin)
	if !ok {
		c.errorNote(diag.CodeRedeclaration, at.Pos(), prior.Decl, "previous declaration here",
			"%q is already declared in this module", name)
	}
}

func moduleBaseName(ref string) string {
	base := filepath.Base(ref)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}
