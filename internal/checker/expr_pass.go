package checker

import (
	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/types"
)

// checkExpr types one expression node, records the result in the side table, and returns it so callers
// can chain without a second lookup.
func (c *Checker) checkExpr(e ast.Expr, state *bodyState) types.Type {
	var t types.Type
	switch x := e.(type) {
	case *ast.Literal:
		t = c.checkLiteral(x)
	case *ast.Variable:
		t = c.checkVariable(x, state)
	case *ast.UnaryExpr:
		t = c.checkUnary(x, state)
	case *ast.BinaryExpr:
		t = c.checkBinary(x, state)
	case *ast.LogicalExpr:
		t = c.checkLogical(x, state)
	case *ast.TernaryExpr:
		t = c.checkTernary(x, state)
	case *ast.AssignExpr:
		t = c.checkAssign(x, state)
	case *ast.UpdateExpr:
		t = c.checkUpdate(x, state)
	case *ast.CallExpr:
		t = c.checkCall(x, state)
	case *ast.PropertyGet:
		t = c.checkPropertyGet(x, state)
	case *ast.SubscriptExpr:
		t = c.checkSubscript(x, state)
	case *ast.ListLiteral:
		t = c.checkListLiteral(x, state)
	case *ast.RecordLiteral:
		t = c.checkRecordLiteral(x, state)
	case *ast.ThisExpr:
		t = c.checkThis(x, state)
	case *ast.SuperExpr:
		t = c.checkSuper(x, state)
	case *ast.IsExpr:
		c.checkExpr(x.Object, state)
		c.IsTypes[x.ID()] = c.resolveTypeNode(x.Type)
		t = c.Builtins.Bool
	case *ast.MatchExpr:
		t = c.checkMatch(x, state)
	case *ast.SizeofExpr:
		c.Sizeofs[x.ID()] = c.resolveTypeNode(x.Type)
		t = c.Builtins.U64
	case *ast.RetypeExpr:
		t = c.checkRetype(x, state)
	default:
		t = c.Builtins.Error
	}
	c.setType(e, t)
	return t
}

func (c *Checker) checkLiteral(l *ast.Literal) types.Type {
	switch l.Kind {
	case ast.LitInt:
		return c.Builtins.I64
	case ast.LitFloat:
		return c.Builtins.F64
	case ast.LitString:
		return c.Builtins.String
	case ast.LitBool:
		return c.Builtins.Bool
	case ast.LitNil:
		return c.Builtins.Nil
	}
	return c.Builtins.Error
}

func (c *Checker) checkVariable(v *ast.Variable, state *bodyState) types.Type {
	sym, ok := c.Symbols.Resolve(v.Name)
	if !ok {
		// Type declarations are not symbol-table entries; a bare reference to
		// a class/data/enum name yields the type itself so call dispatch and
		// variant access can key on its kind.
		if cls, found := c.Classes[v.Name]; found {
			return cls
		}
		if d, found := c.Datas[v.Name]; found {
			return d
		}
		if en, found := c.Enums[v.Name]; found {
			return en
		}
		c.error(diag.CodeUndefinedName, v.Pos(), "undefined name %q%s", v.Name, c.suggestName(v.Name))
		return c.Builtins.Error
	}
	if sym.OriginModule != nil {
		c.recordNativeRef(sym.OriginModule, v.Name)
	}
	if narrowed, ok := narrowedType(state, v.Name); ok {
		c.ExprTypes[v.ID()] = &ExprInfo{Type: narrowed, Narrowed: narrowed}
		return narrowed
	}
	return sym.Type
}

func (c *Checker) checkUnary(u *ast.UnaryExpr, state *bodyState) types.Type {
	operand := c.checkExpr(u.Operand, state)
	switch u.Op {
	case "!":
		if !types.IsBool(operand) && !types.IsErrorType(operand) {
			c.error(diag.CodeTypeMismatch, u.Pos(), "! requires bool, got %s", operand.String())
		}
		return c.Builtins.Bool
	case "-":
		if !types.IsNumeric(operand) && !types.IsErrorType(operand) {
			c.error(diag.CodeTypeMismatch, u.Pos(), "unary - requires a numeric type, got %s", operand.String())
		}
		return operand
	case "++", "--":
		c.checkIncDecTarget(u.Operand, operand, u.Pos())
		return operand
	}
	return c.Builtins.Error
}

func (c *Checker) checkIncDecTarget(target ast.Expr, targetType types.Type, tok interface{}) {
	if !types.IsNumeric(targetType) && !types.IsErrorType(targetType) {
		c.error(diag.CodeTypeMismatch, target.Pos(), "++/-- requires a numeric l-value, got %s", targetType.String())
	}
	if v, ok := target.(*ast.Variable); ok {
		if sym, ok := c.Symbols.Resolve(v.Name); ok && sym.IsConst {
			c.error(diag.CodeConstAssign, v.Pos(), "cannot modify const %q", v.Name)
		}
	}
}

func (c *Checker) checkUpdate(u *ast.UpdateExpr, state *bodyState) types.Type {
	t := c.checkExpr(u.Target, state)
	c.checkIncDecTarget(u.Target, t, u.Pos())
	return t
}

func (c *Checker) checkBinary(b *ast.BinaryExpr, state *bodyState) types.Type {
	l := c.checkExpr(b.Left, state)
	r := c.checkExpr(b.Right, state)
	if types.IsErrorType(l) || types.IsErrorType(r) {
		return c.Builtins.Error
	}
	switch b.Op {
	case "+":
		if types.IsString(l) && types.IsString(r) {
			return c.Builtins.String
		}
		if types.IsNumeric(l) && types.IsNumeric(r) {
			return wideningResult(l, r)
		}
		c.error(diag.CodeTypeMismatch, b.Pos(), "+ requires two numerics or two strings, got %s and %s", l.String(), r.String())
		return c.Builtins.Error
	case "-", "*", "/", "%":
		if types.IsNumeric(l) && types.IsNumeric(r) {
			return wideningResult(l, r)
		}
		c.error(diag.CodeTypeMismatch, b.Pos(), "%s requires two numerics, got %s and %s", b.Op, l.String(), r.String())
		return c.Builtins.Error
	case "<", "<=", ">", ">=":
		if !types.IsNumeric(l) || !types.IsNumeric(r) {
			c.error(diag.CodeTypeMismatch, b.Pos(), "%s requires two numerics, got %s and %s", b.Op, l.String(), r.String())
		}
		return c.Builtins.Bool
	case "==", "!=":
		if !c.equalityCompatible(l, r) {
			c.error(diag.CodeTypeMismatch, b.Pos(), "cannot compare %s and %s", l.String(), r.String())
		}
		return c.Builtins.Bool
	}
	return c.Builtins.Error
}

func wideningResult(l, r types.Type) types.Type {
	if types.IsFloatPrimitive(l) {
		return l
	}
	if types.IsFloatPrimitive(r) {
		return r
	}
	return l
}

func (c *Checker) equalityCompatible(l, r types.Type) bool {
	if types.Equals(l, r) {
		return true
	}
	if types.IsNumeric(l) && types.IsNumeric(r) {
		return true
	}
	if types.IsAny(l) || types.IsAny(r) || types.IsNilType(l) || types.IsNilType(r) {
		return true
	}
	if dl, ok := l.(*types.Data); ok {
		if dr, ok := r.(*types.Data); ok {
			return dl.Name == dr.Name
		}
	}
	return false
}

func (c *Checker) checkLogical(l *ast.LogicalExpr, state *bodyState) types.Type {
	left := c.checkExpr(l.Left, state)
	if l.Op == "??" {
		if !types.IsOptional(left) && !types.IsErrorType(left) {
			c.error(diag.CodeTypeMismatch, l.Pos(), "?? requires an Optional left operand, got %s", left.String())
			c.checkExpr(l.Right, state)
			return c.Builtins.Error
		}
		unwrapped := types.Unwrap(left)
		right := c.checkExpr(l.Right, state)
		if !types.CanAssign(unwrapped, right, isIntLiteral(l.Right)) {
			c.error(diag.CodeTypeMismatch, l.Pos(), "?? right-hand side %s is not assignable to %s", right.String(), unwrapped.String())
		}
		return unwrapped
	}
	// && / ||: both operands merely need to be "truthy" (any non-error type).
	c.checkExpr(l.Right, state)
	return c.Builtins.Bool
}

func (c *Checker) checkTernary(t *ast.TernaryExpr, state *bodyState) types.Type {
	c.checkTruthy(t.Cond, state)
	then := c.checkExpr(t.Then, state)
	els := c.checkExpr(t.Else, state)
	if then.String() != els.String() {
		c.error(diag.CodeIncompatibleArms, t.Pos(), "ternary branches have different types: %s vs %s", then.String(), els.String())
		return c.Builtins.Error
	}
	return then
}

func (c *Checker) checkAssign(a *ast.AssignExpr, state *bodyState) types.Type {
	targetType := c.checkAssignTarget(a.Target, state)
	value := c.checkExpr(a.Value, state)
	if !types.CanAssign(targetType, value, isIntLiteral(a.Value)) && !types.IsErrorType(targetType) {
		c.error(diag.CodeTypeMismatch, a.Pos(), "cannot assign %s to target of type %s", value.String(), targetType.String())
	}
	return value
}

func (c *Checker) checkAssignTarget(target ast.Expr, state *bodyState) types.Type {
	switch tg := target.(type) {
	case *ast.Variable:
		sym, ok := c.Symbols.Resolve(tg.Name)
		if !ok {
			c.error(diag.CodeUndefinedName, tg.Pos(), "undefined name %q%s", tg.Name, c.suggestName(tg.Name))
			return c.Builtins.Error
		}
		if sym.IsConst {
			c.error(diag.CodeConstAssign, tg.Pos(), "cannot assign to const %q", tg.Name)
		}
		return sym.Type
	case *ast.SubscriptExpr:
		return c.checkSubscript(tg, state)
	case *ast.PropertyGet:
		return c.checkPropertyGet(tg, state)
	}
	return c.checkExpr(target, state)
}

func (c *Checker) checkThis(t *ast.ThisExpr, state *bodyState) types.Type {
	if state.curClass == nil {
		c.error(diag.CodeNonTruthy, t.Pos(), "this is only valid inside a class method")
		return c.Builtins.Error
	}
	return types.NewInstance(state.curClass)
}

func (c *Checker) checkSuper(s *ast.SuperExpr, state *bodyState) types.Type {
	if state.curClass == nil || state.curClass.Super == nil {
		c.error(diag.CodeNonTruthy, s.Pos(), "super is only valid in a class with a superclass")
		return c.Builtins.Error
	}
	if s.Method == "" {
		return types.NewInstance(state.curClass.Super)
	}
	m, ok := classMember(state.curClass.Super, s.Method)
	if !ok {
		c.error(diag.CodeMissingProperty, s.Pos(), "superclass has no method %q", s.Method)
		return c.Builtins.Error
	}
	return m.Type
}

func (c *Checker) checkRetype(r *ast.RetypeExpr, state *bodyState) types.Type {
	src := c.checkExpr(r.Expr, state)
	if _, ok := src.(*types.CPtr); !ok && !types.IsErrorType(src) {
		c.error(diag.CodeTypeMismatch, r.Pos(), "retype source must be a C pointer, got %s", src.String())
	}
	target := c.resolveTypeNode(r.Type)
	if data, ok := target.(*types.Data); !ok || !data.IsForeign {
		c.error(diag.CodeTypeMismatch, r.Pos(), "retype target must be a foreign data type")
	}
	return target
}
