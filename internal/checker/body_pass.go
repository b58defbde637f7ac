package checker

import (
	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/types"
)

// narrowFrame is one pushed narrowing: a symbol name bound to a more
// specific type for the lifetime of one then-scope.
type narrowFrame struct {
	name  string
	typ   types.Type
	depth int
}

// bodyState threads the per-function context Pass 3 needs: the expected
// return type, loop-depth, current-class pointer (for `this`/`super`), and
// the narrowing stack.
type bodyState struct {
	returnType *types.Function
	loopDepth  int
	curClass   *types.Class
	narrowing  []narrowFrame
}

func (c *Checker) runBodyPass(prog *ast.Program) {
	for _, stmt := range prog.Stmts {
		switch d := stmt.(type) {
		case *ast.FunctionDecl:
			c.checkFunctionBody(d, nil)
		case *ast.ClassDecl:
			c.checkClassBodies(d)
		case *ast.VarDecl:
			c.checkVarDecl(d, &bodyState{})
		}
	}
}

func (c *Checker) checkClassBodies(d *ast.ClassDecl) {
	cls := c.Classes[d.Name]
	for _, m := range d.Members {
		if m.Method != nil {
			c.checkFunctionBody(m.Method.Fn, cls)
		}
	}
}

func (c *Checker) checkFunctionBody(fn *ast.FunctionDecl, curClass *types.Class) {
	if fn.Body == nil {
		return // foreign declaration: no body to check
	}
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = c.resolveTypeNode(p.Type)
	}
	ret := c.resolveTypeNode(fn.Return)
	sig := types.NewFunction(params, ret, fn.Variadic)

	c.Symbols.EnterScope()
	defer c.Symbols.ExitScope()

	if fn.HasThis && curClass != nil {
		c.Symbols.Declare(fn.Pos(), "this", types.NewInstance(curClass), true, nil)
	}
	for _, p := range fn.Params {
		c.Symbols.Declare(fn.Pos(), p.Name, c.resolveTypeNode(p.Type), false, nil)
	}

	state := &bodyState{returnType: sig, curClass: curClass}
	c.checkBlock(fn.Body, state)
}

func (c *Checker) checkVarDecl(d *ast.VarDecl, state *bodyState) {
	var declared types.Type
	if d.Type != nil {
		declared = c.resolveTypeNode(d.Type)
	}
	var initType types.Type
	if d.Init != nil {
		initType = c.checkExpr(d.Init, state)
		if declared == nil {
			declared = initType
		} else if !types.CanAssign(declared, initType, isIntLiteral(d.Init)) {
			c.error(diag.CodeTypeMismatch, d.Pos(), "cannot assign %s to variable %q of type %s", initType.String(), d.Name, declared.String())
		}
	}
	if declared == nil {
		declared = c.Builtins.Error
	}
	_, prior, ok := c.Symbols.Declare(d.Pos(), d.Name, declared, d.Const, nil)
	if !ok {
		c.errorNote(diag.CodeRedeclaration, d.Pos(), prior.Decl, "previous declaration here", "%q is already declared", d.Name)
		return
	}
	if d.Exported {
		if c.Symbols.Depth() != 0 {
			c.error(diag.CodeExportScope, d.Pos(), "export is only legal at module scope")
		} else {
			c.Exports[d.Name] = declared
		}
	}
}

func isIntLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && lit.Kind == ast.LitInt
}

func (c *Checker) checkBlock(b *ast.Block, state *bodyState) {
	c.Symbols.EnterScope()
	defer c.Symbols.ExitScope()
	for _, s := range b.Stmts {
		c.checkStmt(s, state)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt, state *bodyState) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		c.checkExpr(s.X, state)
	case *ast.VarDecl:
		c.checkVarDecl(s, state)
	case *ast.Block:
		c.checkBlock(s, state)
	case *ast.IfStmt:
		c.checkIf(s, state)
	case *ast.WhileStmt:
		c.checkTruthy(s.Cond, state)
		state.loopDepth++
		c.checkStmt(s.Body, state)
		state.loopDepth--
	case *ast.ForStmt:
		c.Symbols.EnterScope()
		if s.Init != nil {
			c.checkStmt(s.Init, state)
		}
		if s.Cond != nil {
			c.checkTruthy(s.Cond, state)
		}
		if s.Post != nil {
			c.checkStmt(s.Post, state)
		}
		state.loopDepth++
		c.checkStmt(s.Body, state)
		state.loopDepth--
		c.Symbols.ExitScope()
	case *ast.ForInStmt:
		iterType := c.checkExpr(s.Iterable, state)
		var elemType types.Type = c.Builtins.Error
		if list, ok := iterType.(*types.List); ok {
			elemType = list.Elem
		} else if !types.IsErrorType(iterType) {
			c.error(diag.CodeTypeMismatch, s.Pos(), "for-in requires a list, got %s", iterType.String())
		}
		c.Symbols.EnterScope()
		c.Symbols.Declare(s.Pos(), s.Name, elemType, false, nil)
		state.loopDepth++
		c.checkStmt(s.Body, state)
		state.loopDepth--
		c.Symbols.ExitScope()
	case *ast.ReturnStmt:
		var got types.Type = c.Builtins.Nil
		if s.Value != nil {
			got = c.checkExpr(s.Value, state)
		}
		if state.returnType != nil && !types.CanAssign(state.returnType.Return, got, s.Value != nil && isIntLiteral(s.Value)) {
			c.error(diag.CodeReturnShape, s.Pos(), "return type %s does not match function return type %s", got.String(), state.returnType.Return.String())
		}
	case *ast.BreakStmt:
		if state.loopDepth == 0 {
			c.error(diag.CodeNonTruthy, s.Pos(), "break outside any loop")
		}
	case *ast.ThrowStmt:
		t := c.checkExpr(s.Value, state)
		if !types.IsErrorType(t) {
			if _, ok := t.(*types.Exception); !ok {
				c.error(diag.CodeTypeMismatch, s.Pos(), "throw requires an Exception, got %s", t.String())
			}
		}
	case *ast.TryStmt:
		c.checkBlock(s.Try, state)
		c.Symbols.EnterScope()
		catchType := types.Type(c.Builtins.Exception)
		if s.CatchType != nil {
			catchType = c.resolveTypeNode(s.CatchType)
		}
		c.Symbols.Declare(s.Pos(), s.CatchName, catchType, false, nil)
		c.checkBlock(s.Catch, state)
		c.Symbols.ExitScope()
	case *ast.AttachStmt, *ast.ForeignHeaderStmt, *ast.FunctionDecl, *ast.ClassDecl,
		*ast.TraitDecl, *ast.ContractDecl, *ast.DataDecl, *ast.EnumDecl:
		// Handled by the attach/declaration/header passes, or (for nested
		// FunctionDecl, not part of this grammar) unreachable.
	}
}

// checkIf handles narrowing: `if (var is T)` pushes a
// symbol->T narrowing visible only in the then-branch; `if let x = expr`
// declares a fresh then-scope local of the unwrapped type.
func (c *Checker) checkIf(s *ast.IfStmt, state *bodyState) {
	if s.IsLetBinding() {
		initType := c.checkExpr(s.LetInit, state)
		if !types.IsOptional(initType) {
			c.error(diag.CodeTypeMismatch, s.Pos(), "if-let initializer must be Optional, got %s", initType.String())
		}
		c.Symbols.EnterScope()
		c.Symbols.Declare(s.Pos(), s.LetName, types.Unwrap(initType), false, nil)
		c.checkStmt(s.Then, state)
		c.Symbols.ExitScope()
		if s.Else != nil {
			c.checkStmt(s.Else, state)
		}
		return
	}

	c.checkTruthy(s.Cond, state)

	if ie, ok := s.Cond.(*ast.IsExpr); ok {
		if v, ok := ie.Object.(*ast.Variable); ok {
			if _, exists := c.Symbols.Resolve(v.Name); exists {
				target := c.resolveTypeNode(ie.Type)
				state.narrowing = append(state.narrowing, narrowFrame{name: v.Name, typ: target, depth: c.Symbols.Depth()})
				c.checkStmt(s.Then, state)
				state.narrowing = state.narrowing[:len(state.narrowing)-1]
				if s.Else != nil {
					c.checkStmt(s.Else, state)
				}
				return
			}
		}
	}

	c.checkStmt(s.Then, state)
	if s.Else != nil {
		c.checkStmt(s.Else, state)
	}
}

func (c *Checker) checkTruthy(e ast.Expr, state *bodyState) {
	c.checkExpr(e, state)
}

// narrowedType returns the innermost active narrowing for name, if any
func narrowedType(state *bodyState, name string) (types.Type, bool) {
	for i := len(state.narrowing) - 1; i >= 0; i-- {
		if state.narrowing[i].name == name {
			return state.narrowing[i].typ, true
		}
	}
	return nil, false
}
