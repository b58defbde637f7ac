package checker

import (
	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/token"
	"github.com/angara-lang/angarac/internal/types"
)

// checkCall dispatches a call by the callee's resolved kind: the result
// depends entirely on the callee's resolved type (Function, Class, Data,
// or the builtin `spawn`).
func (c *Checker) checkCall(call *ast.CallExpr, state *bodyState) types.Type {
	if v, ok := call.Callee.(*ast.Variable); ok && v.Name == "spawn" {
		return c.checkSpawn(call, state)
	}
	if sup, ok := call.Callee.(*ast.SuperExpr); ok && sup.Method == "" {
		return c.checkSuperInit(call, sup, state)
	}

	calleeType := c.checkExpr(call.Callee, state)
	switch ct := calleeType.(type) {
	case *types.Function:
		c.checkArgs(call, ct.Params, ct.Variadic, state)
		return ct.Return
	case *types.Class:
		init, hasInit := ct.Methods["init"]
		switch {
		case hasInit:
			fn, _ := init.Type.(*types.Function)
			c.checkArgs(call, fn.Params, fn.Variadic, state)
		case len(call.Args) != 0:
			c.error(diag.CodeArity, call.Pos(), "class %q has no init and must be called with zero arguments", ct.Name)
			for _, a := range call.Args {
				c.checkExpr(a, state)
			}
		}
		return types.NewInstance(ct)
	case *types.Data:
		fieldTypes := make([]types.Type, len(ct.Fields))
		for i, f := range ct.Fields {
			fieldTypes[i] = f.Type
		}
		c.checkArgs(call, fieldTypes, false, state)
		return ct
	case *types.Error:
		for _, a := range call.Args {
			c.checkExpr(a, state)
		}
		return c.Builtins.Error
	default:
		c.error(diag.CodeNonCallable, call.Pos(), "%s is not callable", calleeType.String())
		for _, a := range call.Args {
			c.checkExpr(a, state)
		}
		return c.Builtins.Error
	}
}

// checkSuperInit handles `super(...)`: a delegation to the parent class's
// init from a subclass method.
func (c *Checker) checkSuperInit(call *ast.CallExpr, sup *ast.SuperExpr, state *bodyState) types.Type {
	if state.curClass == nil || state.curClass.Super == nil {
		c.error(diag.CodeNonTruthy, sup.Pos(), "super is only valid in a class with a superclass")
		for _, a := range call.Args {
			c.checkExpr(a, state)
		}
		return c.Builtins.Error
	}
	init, ok := classMember(state.curClass.Super, "init")
	if !ok {
		if len(call.Args) != 0 {
			c.error(diag.CodeArity, call.Pos(), "superclass %q has no init and must be called with zero arguments", state.curClass.Super.Name)
		}
		for _, a := range call.Args {
			c.checkExpr(a, state)
		}
		return c.Builtins.Nil
	}
	fn, _ := init.Type.(*types.Function)
	c.checkArgs(call, fn.Params, fn.Variadic, state)
	return c.Builtins.Nil
}

func (c *Checker) checkSpawn(call *ast.CallExpr, state *bodyState) types.Type {
	if len(call.Args) == 0 {
		c.error(diag.CodeArity, call.Pos(), "spawn requires a function as its first argument")
		return c.Builtins.Thread
	}
	fnType := c.checkExpr(call.Args[0], state)
	fn, ok := fnType.(*types.Function)
	if !ok {
		c.error(diag.CodeTypeMismatch, call.Args[0].Pos(), "spawn's first argument must be a Function, got %s", fnType.String())
		for _, a := range call.Args[1:] {
			c.checkExpr(a, state)
		}
		return c.Builtins.Thread
	}
	c.checkArgList(call.Args[1:], fn.Params, fn.Variadic, call.Pos(), state)
	return c.Builtins.Thread
}

// checkArgs checks a call's argument list against a parameter-type list,
// honoring variadic arity and the empty-list-literal special case.
func (c *Checker) checkArgs(call *ast.CallExpr, params []types.Type, variadic bool, state *bodyState) {
	c.checkArgList(call.Args, params, variadic, call.Pos(), state)
}

func (c *Checker) checkArgList(args []ast.Expr, params []types.Type, variadic bool, pos token.Token, state *bodyState) {
	minArity := len(params)
	if variadic {
		if len(args) < minArity {
			c.error(diag.CodeArity, args0Pos(args), "expected at least %d arguments, got %d", minArity, len(args))
		}
	} else if len(args) != minArity {
		c.error(diag.CodeArity, args0Pos(args), "expected %d arguments, got %d", minArity, len(args))
	}

	for i, a := range args {
		argType := c.checkExpr(a, state)
		if i >= len(params) {
			continue // extra variadic args: already checked, any type accepted
		}
		if isEmptyListLiteral(a) {
			if _, ok := params[i].(*types.List); ok {
				continue
			}
		}
		if !types.CanAssign(params[i], argType, isIntLiteral(a)) {
			c.error(diag.CodeArgumentMismatch, a.Pos(), "argument %d: cannot assign %s to parameter of type %s", i+1, argType.String(), params[i].String())
		}
	}
}

func args0Pos(args []ast.Expr) token.Token {
	if len(args) > 0 {
		return args[0].Pos()
	}
	return token.Zero
}

func isEmptyListLiteral(e ast.Expr) bool {
	ll, ok := e.(*ast.ListLiteral)
	return ok && len(ll.Elements) == 0
}

// checkPropertyGet handles `.`/`?.` access across
// Instance, Data, Enum, Module, List, Record, Thread, Mutex.
func (c *Checker) checkPropertyGet(pg *ast.PropertyGet, state *bodyState) types.Type {
	objType := c.checkExpr(pg.Object, state)
	wasOptional := types.IsOptional(objType)
	// `.` on an Optional requires ?., except when the optionality was
	// introduced by an earlier link of the same access chain, so that
	// a?.b.c types as Optional(V) regardless of which link used ?.
	if wasOptional && !pg.Optional && !isPropertyChain(pg.Object) {
		c.error(diag.CodeTypeMismatch, pg.Pos(), "use ?. to access a member of an Optional value")
	}
	base := types.Unwrap(objType)

	result := c.dispatchProperty(pg, base, state)

	if wasOptional || pg.Optional {
		return types.NewOptional(result)
	}
	return result
}

func (c *Checker) dispatchProperty(pg *ast.PropertyGet, base types.Type, state *bodyState) types.Type {
	switch bt := base.(type) {
	case *types.Instance:
		m, ok := classMember(bt.Class, pg.Name)
		if !ok {
			c.error(diag.CodeMissingProperty, pg.Pos(), "%s has no member %q%s", bt.Class.Name, pg.Name, c.suggestMember(bt.Class, pg.Name))
			return c.Builtins.Error
		}
		// Private access requires the surrounding method's class to be
		// exactly the accessed instance's class; a subclass reaching an
		// ancestor's private member through a base-typed reference is
		// rejected.
		if m.Access == types.AccessPrivate && state.curClass != bt.Class {
			c.error(diag.CodeVisibility, pg.Pos(), "%q is private to class %s", pg.Name, bt.Class.Name)
		}
		return m.Type
	case *types.Data:
		f, ok := bt.FieldByName(pg.Name)
		if !ok {
			c.error(diag.CodeMissingProperty, pg.Pos(), "%s has no field %q", bt.Name, pg.Name)
			return c.Builtins.Error
		}
		return f.Type
	case *types.Enum:
		fn, ok := bt.Variants[pg.Name]
		if !ok {
			c.error(diag.CodeMissingProperty, pg.Pos(), "enum %s has no variant %q", bt.Name, pg.Name)
			return c.Builtins.Error
		}
		if len(fn.Params) == 0 {
			return bt
		}
		return fn
	case *types.Module:
		exp, ok := bt.Exports[pg.Name]
		if !ok {
			c.error(diag.CodeUnknownExport, pg.Pos(), "module %s has no export %q", bt.Name, pg.Name)
			return c.Builtins.Error
		}
		c.recordNativeRef(bt, pg.Name)
		return exp
	case *types.List:
		return c.listMember(bt, pg.Name, pg.Pos())
	case *types.Record:
		return c.recordMember(bt, pg.Name, pg.Pos())
	case *types.Thread:
		if pg.Name == "join" {
			return types.NewFunction(nil, c.Builtins.Nil, false)
		}
		c.error(diag.CodeMissingProperty, pg.Pos(), "Thread has no member %q", pg.Name)
		return c.Builtins.Error
	case *types.Mutex:
		if pg.Name == "lock" || pg.Name == "unlock" {
			return types.NewFunction(nil, c.Builtins.Nil, false)
		}
		c.error(diag.CodeMissingProperty, pg.Pos(), "Mutex has no member %q", pg.Name)
		return c.Builtins.Error
	case *types.Error:
		return c.Builtins.Error
	default:
		c.error(diag.CodeMissingProperty, pg.Pos(), "cannot access %q on %s", pg.Name, base.String())
		return c.Builtins.Error
	}
}

func isPropertyChain(e ast.Expr) bool {
	_, ok := e.(*ast.PropertyGet)
	return ok
}

func (c *Checker) suggestMember(cls *types.Class, name string) string {
	best, dist := "", 3
	for n := range cls.Fields {
		if d := editDistance(name, n); d < dist {
			dist, best = d, n
		}
	}
	for n := range cls.Methods {
		if d := editDistance(name, n); d < dist {
			dist, best = d, n
		}
	}
	if best == "" {
		return ""
	}
	return " (did you mean \"" + best + "\"?)"
}

func (c *Checker) listMember(l *types.List, name string, pos token.Token) types.Type {
	switch name {
	case "push":
		return types.NewFunction([]types.Type{l.Elem}, c.Builtins.Nil, false)
	case "remove":
		return types.NewFunction([]types.Type{l.Elem}, c.Builtins.Bool, false)
	case "remove_at":
		return types.NewFunction([]types.Type{c.Builtins.I64}, l.Elem, false)
	}
	return c.Builtins.Error
}

func (c *Checker) recordMember(r *types.Record, name string, pos token.Token) types.Type {
	switch name {
	case "remove":
		return types.NewFunction([]types.Type{c.Builtins.String}, c.Builtins.Bool, false)
	case "keys":
		return types.NewFunction(nil, types.NewList(c.Builtins.String), false)
	}
	if ft, ok := r.Fields[name]; ok {
		return ft
	}
	return c.Builtins.Error
}

// checkSubscript handles List/Record/String subscripting.
func (c *Checker) checkSubscript(sub *ast.SubscriptExpr, state *bodyState) types.Type {
	objType := c.checkExpr(sub.Object, state)
	idxType := c.checkExpr(sub.Index, state)

	switch ot := objType.(type) {
	case *types.List:
		if !types.IsIntegerPrimitive(idxType) {
			c.error(diag.CodeTypeMismatch, sub.Pos(), "list index must be an integer, got %s", idxType.String())
		}
		return ot.Elem
	case *types.Record:
		if !types.IsString(idxType) {
			c.error(diag.CodeTypeMismatch, sub.Pos(), "record key must be a string, got %s", idxType.String())
			return c.Builtins.Error
		}
		if lit, ok := sub.Index.(*ast.Literal); ok && lit.Kind == ast.LitString && len(ot.Fields) > 0 {
			if ft, ok := ot.Fields[stringLiteralValue(lit)]; ok {
				return ft
			}
		}
		return c.Builtins.Any
	case *types.Primitive:
		if ot.Name == types.Str {
			if !types.IsIntegerPrimitive(idxType) {
				c.error(diag.CodeTypeMismatch, sub.Pos(), "string index must be an integer, got %s", idxType.String())
			}
			return c.Builtins.String
		}
	}
	if !types.IsErrorType(objType) {
		c.error(diag.CodeTypeMismatch, sub.Pos(), "%s is not subscriptable", objType.String())
	}
	return c.Builtins.Error
}

func stringLiteralValue(l *ast.Literal) string {
	// Literal.Text retains the lexeme including quotes; strip them.
	if len(l.Text) >= 2 {
		return l.Text[1 : len(l.Text)-1]
	}
	return l.Text
}

func (c *Checker) checkListLiteral(ll *ast.ListLiteral, state *bodyState) types.Type {
	if len(ll.Elements) == 0 {
		return types.NewList(c.Builtins.Any)
	}
	var elem types.Type
	for i, e := range ll.Elements {
		t := c.checkExpr(e, state)
		if i == 0 {
			elem = t
			continue
		}
		if elem.String() != t.String() {
			elem = c.Builtins.Any
		}
	}
	return types.NewList(elem)
}

func (c *Checker) checkRecordLiteral(rl *ast.RecordLiteral, state *bodyState) types.Type {
	fields := map[string]types.Type{}
	for _, f := range rl.Fields {
		if _, dup := fields[f.Name]; dup {
			c.error(diag.CodeRedeclaration, rl.Pos(), "duplicate record field %q", f.Name)
			continue
		}
		fields[f.Name] = c.checkExpr(f.Value, state)
	}
	return types.NewRecord(fields)
}

// checkMatch enforces the exhaustiveness and arm-typing rules.
func (c *Checker) checkMatch(m *ast.MatchExpr, state *bodyState) types.Type {
	condType := c.checkExpr(m.Cond, state)
	en, ok := condType.(*types.Enum)
	if !ok {
		if !types.IsErrorType(condType) {
			c.error(diag.CodeTypeMismatch, m.Pos(), "match requires an enum condition, got %s", condType.String())
		}
		for _, arm := range m.Cases {
			c.checkExpr(arm.Body, state)
		}
		return c.Builtins.Error
	}

	covered := map[string]bool{}
	hasWildcard := false
	var armType types.Type

	for _, arm := range m.Cases {
		c.Symbols.EnterScope()
		if arm.Pattern == nil {
			hasWildcard = true
		} else if pg, ok := arm.Pattern.(*ast.PropertyGet); ok {
			variantFn, ok := en.Variants[pg.Name]
			if !ok {
				c.error(diag.CodeMissingProperty, arm.Pattern.Pos(), "enum %s has no variant %q", en.Name, pg.Name)
			} else {
				covered[pg.Name] = true
				if arm.Bound != "" && len(variantFn.Params) > 0 {
					c.Symbols.Declare(arm.Pattern.Pos(), arm.Bound, variantFn.Params[0], false, nil)
				}
			}
		}
		bodyType := c.checkExpr(arm.Body, state)
		c.Symbols.ExitScope()
		if armType == nil {
			armType = bodyType
		} else if armType.String() != bodyType.String() {
			c.error(diag.CodeIncompatibleArms, arm.Body.Pos(), "match arms have different types: %s vs %s", armType.String(), bodyType.String())
		}
	}

	if !hasWildcard {
		for _, v := range en.Order {
			if !covered[v] {
				c.error(diag.CodeNonExhaustiveMatch, m.Pos(), "match over enum %s is not exhaustive: missing variant %q", en.Name, v)
			}
		}
	}

	if armType == nil {
		return c.Builtins.Nil
	}
	return armType
}
