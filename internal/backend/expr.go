package backend

import (
	"fmt"
	"strings"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/types"
)

// expr lowers one expression to a C expression string. Every value has C
// type AngaraObject; compound forms that need local state use GCC/Clang
// statement-expressions.
func (e *Emitter) expr(x ast.Expr) string {
	switch xp := x.(type) {
	case *ast.Literal:
		return e.literal(xp)
	case *ast.Variable:
		return e.variable(xp)
	case *ast.UnaryExpr:
		return e.unary(xp)
	case *ast.BinaryExpr:
		return e.binaryExpr(xp)
	case *ast.LogicalExpr:
		return e.logical(xp)
	case *ast.TernaryExpr:
		return fmt.Sprintf("(angara_is_truthy(%s) ? %s : %s)", e.expr(xp.Cond), e.expr(xp.Then), e.expr(xp.Else))
	case *ast.AssignExpr:
		return e.assign(xp)
	case *ast.UpdateExpr:
		return e.update(xp)
	case *ast.CallExpr:
		return e.call(xp)
	case *ast.PropertyGet:
		return e.propertyGet(xp)
	case *ast.SubscriptExpr:
		return e.subscriptGet(xp)
	case *ast.ListLiteral:
		return e.listLiteral(xp)
	case *ast.RecordLiteral:
		return e.recordLiteral(xp)
	case *ast.ThisExpr:
		return "this_"
	case *ast.SuperExpr:
		return "this_"
	case *ast.IsExpr:
		return fmt.Sprintf("angara_create_bool(angara_type_is(%s, \"%s\"))",
			e.expr(xp.Object), e.chk.IsTypes[xp.ID()].String())
	case *ast.MatchExpr:
		return e.match(xp)
	case *ast.SizeofExpr:
		return fmt.Sprintf("angara_create_u64(sizeof(%s))", e.cTypeFor(e.chk.Sizeofs[xp.ID()]))
	case *ast.RetypeExpr:
		target, _ := e.typeOf(xp).(*types.Data)
		if target == nil {
			return e.fail("retype target is not a data type")
		}
		return fmt.Sprintf("angara_wrap_foreign(sizeof(%s), (void*)AS_OBJ(%s))", structName(target.Name), e.expr(xp.Expr))
	}
	return e.fail("unhandled expression %T", x)
}

func (e *Emitter) literal(l *ast.Literal) string {
	switch l.Kind {
	case ast.LitInt:
		return "angara_create_i64(" + l.Text + ")"
	case ast.LitFloat:
		return "angara_create_f64(" + l.Text + ")"
	case ast.LitString:
		return "angara_string_from_c(" + l.Text + ")"
	case ast.LitBool:
		return "angara_create_bool(" + l.Text + ")"
	}
	return "angara_create_nil()"
}

// variable resolves an identifier to its C name: locals keep their
// sanitized name, module variables get the <m>_<v> prefix, global
// functions used as values are wrapped into closures, and selectively
// attached names dispatch on their origin module.
func (e *Emitter) variable(v *ast.Variable) string {
	if e.isLocal(v.Name) {
		return sanitize(v.Name)
	}
	sym, ok := e.chk.Symbols.ResolveInScope(0, v.Name)
	if !ok {
		return e.fail("unresolved module-scope name %q", v.Name)
	}

	if sym.OriginModule != nil {
		if sym.OriginModule.IsNative {
			return "angara_closure_new(" + nativeFnName(sym.OriginModule.Name, v.Name) + ")"
		}
		if _, isFn := sym.Type.(*types.Function); isFn {
			return closureName(v.Name)
		}
		return moduleVar(sym.OriginModule.Name, v.Name)
	}

	switch sym.Type.(type) {
	case *types.Function:
		if decl, declared := e.chk.FuncDecls[v.Name]; declared {
			if decl.Foreign {
				return e.fail("foreign function %q used as a value", v.Name)
			}
			return "angara_closure_new(" + wrapperName(e.Module, v.Name) + ")"
		}
		if _, ok := preludeHelpers[v.Name]; ok || v.Name == "spawn" {
			return e.fail("built-in function %q used as a value", v.Name)
		}
		return moduleVar(e.Module, v.Name)
	case *types.Module:
		return e.fail("module alias %q used as a value", v.Name)
	default:
		return moduleVar(e.Module, v.Name)
	}
}

// ---------------------------------------------------------------------------
// Numeric helpers

func isUnsigned(t types.Type) bool {
	p, ok := t.(*types.Primitive)
	if !ok {
		return false
	}
	switch p.Name {
	case types.U8, types.U16, types.U32, types.U64:
		return true
	}
	return false
}

// numOperand unwraps one AngaraObject operand into a C scalar; asFloat
// forces a double rendering for mixed-width arithmetic.
func numOperand(t types.Type, s string, asFloat bool) string {
	if asFloat {
		if types.IsFloatPrimitive(t) {
			return "AS_F64(" + s + ")"
		}
		if isUnsigned(t) {
			return "(double)AS_U64(" + s + ")"
		}
		return "(double)AS_I64(" + s + ")"
	}
	if isUnsigned(t) {
		return "(int64_t)AS_U64(" + s + ")"
	}
	return "AS_I64(" + s + ")"
}

// binaryRender lowers one arithmetic/comparison application; it is shared
// by BinaryExpr, compound assignment, and update expressions.
func (e *Emitter) binaryRender(op string, lt types.Type, l string, rt types.Type, r string) string {
	switch op {
	case "+", "-", "*", "/", "%":
		if op == "+" && types.IsString(lt) && types.IsString(rt) {
			return "angara_string_concat(" + l + ", " + r + ")"
		}
		float := types.IsFloatPrimitive(lt) || types.IsFloatPrimitive(rt)
		if float && op == "%" {
			return e.fail("%% is not defined on floats")
		}
		lo, ro := numOperand(lt, l, float), numOperand(rt, r, float)
		if float {
			return fmt.Sprintf("angara_create_f64(%s %s %s)", lo, op, ro)
		}
		if isUnsigned(lt) && isUnsigned(rt) {
			return fmt.Sprintf("angara_create_u64((uint64_t)(%s %s %s))", lo, op, ro)
		}
		return fmt.Sprintf("angara_create_i64(%s %s %s)", lo, op, ro)
	case "<", "<=", ">", ">=":
		float := types.IsFloatPrimitive(lt) || types.IsFloatPrimitive(rt)
		return fmt.Sprintf("angara_create_bool(%s %s %s)", numOperand(lt, l, float), op, numOperand(rt, r, float))
	case "==", "!=":
		neg := ""
		if op == "!=" {
			neg = "!"
		}
		if ld, ok := lt.(*types.Data); ok {
			if _, ok := rt.(*types.Data); ok {
				return fmt.Sprintf("angara_create_bool(%s%s(%s, %s))", neg, dataEqualsName(ld.Name), l, r)
			}
		}
		return fmt.Sprintf("angara_create_bool(%sangara_equals(%s, %s))", neg, l, r)
	}
	return e.fail("unhandled binary operator %q", op)
}

func (e *Emitter) binaryExpr(b *ast.BinaryExpr) string {
	return e.binaryRender(b.Op, e.typeOf(b.Left), e.expr(b.Left), e.typeOf(b.Right), e.expr(b.Right))
}

func (e *Emitter) unary(u *ast.UnaryExpr) string {
	t := e.typeOf(u.Operand)
	switch u.Op {
	case "!":
		return "angara_create_bool(!AS_BOOL(" + e.expr(u.Operand) + "))"
	case "-":
		if types.IsFloatPrimitive(t) {
			return "angara_create_f64(-AS_F64(" + e.expr(u.Operand) + "))"
		}
		return "angara_create_i64(-" + numOperand(t, e.expr(u.Operand), false) + ")"
	case "++", "--":
		return e.incDec(u.Operand, u.Op, true)
	}
	return e.fail("unhandled unary operator %q", u.Op)
}

func (e *Emitter) logical(l *ast.LogicalExpr) string {
	if l.Op == "??" {
		tmp := e.newTmp("opt")
		return fmt.Sprintf("({ AngaraObject %s = %s; angara_is_nil(%s) ? %s : %s; })",
			tmp, e.expr(l.Left), tmp, e.expr(l.Right), tmp)
	}
	op := "&&"
	if l.Op == "||" {
		op = "||"
	}
	return fmt.Sprintf("angara_create_bool(angara_is_truthy(%s) %s angara_is_truthy(%s))",
		e.expr(l.Left), op, e.expr(l.Right))
}

// ---------------------------------------------------------------------------
// Assignment / update

func (e *Emitter) assign(a *ast.AssignExpr) string {
	value := e.expr(a.Value)
	if a.Op != "=" {
		op := strings.TrimSuffix(a.Op, "=")
		value = e.binaryRender(op, e.typeOf(a.Target), e.expr(a.Target), e.typeOf(a.Value), value)
	}

	switch tg := a.Target.(type) {
	case *ast.Variable:
		return "(" + e.lvalueVariable(tg) + " = " + value + ")"
	case *ast.SubscriptExpr:
		return e.subscriptSet(tg, value)
	case *ast.PropertyGet:
		return "(" + e.instanceFieldLValue(tg) + " = " + value + ")"
	}
	return e.fail("unsupported assignment target %T", a.Target)
}

func (e *Emitter) lvalueVariable(v *ast.Variable) string {
	if e.isLocal(v.Name) {
		return sanitize(v.Name)
	}
	if sym, ok := e.chk.Symbols.ResolveInScope(0, v.Name); ok && sym.OriginModule != nil {
		return moduleVar(sym.OriginModule.Name, v.Name)
	}
	return moduleVar(e.Module, v.Name)
}

// instanceFieldLValue renders the struct-member path for an assignable
// property (instance fields only; the checker rejects everything else).
func (e *Emitter) instanceFieldLValue(pg *ast.PropertyGet) string {
	objType := types.Unwrap(e.declaredTypeOf(pg.Object))
	inst, ok := objType.(*types.Instance)
	if !ok {
		e.fail("property assignment on non-instance %s", objType.String())
		return "/*error*/this_"
	}
	return fmt.Sprintf("((%s*)AS_OBJ(%s))->%s",
		structName(inst.Class.Name), e.expr(pg.Object), e.fieldPath(inst.Class, pg.Name))
}

func (e *Emitter) subscriptSet(sub *ast.SubscriptExpr, value string) string {
	objType := e.typeOf(sub.Object)
	tmp := e.newTmp("v")
	switch objType.(type) {
	case *types.List:
		return fmt.Sprintf("({ AngaraObject %s = %s; angara_list_set(%s, AS_I64(%s), %s); %s; })",
			tmp, value, e.expr(sub.Object), e.expr(sub.Index), tmp, tmp)
	case *types.Record:
		if key, ok := literalStringKey(sub.Index); ok {
			return fmt.Sprintf("({ AngaraObject %s = %s; angara_record_set(%s, %s, %s); %s; })",
				tmp, value, e.expr(sub.Object), key, tmp, tmp)
		}
		return fmt.Sprintf("({ AngaraObject %s = %s; angara_record_set_dyn(%s, %s, %s); %s; })",
			tmp, value, e.expr(sub.Object), e.expr(sub.Index), tmp, tmp)
	}
	return e.fail("unsupported subscript assignment on %s", objType.String())
}

func (e *Emitter) incDec(target ast.Expr, op string, prefix bool) string {
	t := e.typeOf(target)
	lv := ""
	switch tg := target.(type) {
	case *ast.Variable:
		lv = e.lvalueVariable(tg)
	case *ast.PropertyGet:
		lv = e.instanceFieldLValue(tg)
	default:
		return e.fail("++/-- target must be an l-value")
	}

	step := "+ 1"
	if op == "--" {
		step = "- 1"
	}
	var next string
	if types.IsFloatPrimitive(t) {
		next = fmt.Sprintf("angara_create_f64(AS_F64(%s) %s)", lv, step)
	} else {
		next = fmt.Sprintf("angara_create_i64(%s %s)", numOperand(t, lv, false), step)
	}
	if prefix {
		return "(" + lv + " = " + next + ")"
	}
	old := e.newTmp("old")
	return fmt.Sprintf("({ AngaraObject %s = %s; %s = %s; %s; })", old, lv, lv, next, old)
}

func (e *Emitter) update(u *ast.UpdateExpr) string {
	return e.incDec(u.Target, u.Op, u.Prefix)
}

// ---------------------------------------------------------------------------
// Literals of compound shape

func (e *Emitter) listLiteral(ll *ast.ListLiteral) string {
	tmp := e.newTmp("list")
	var sb strings.Builder
	fmt.Fprintf(&sb, "({ AngaraObject %s = angara_list_new(); ", tmp)
	for _, el := range ll.Elements {
		fmt.Fprintf(&sb, "angara_list_push(%s, %s); ", tmp, e.expr(el))
	}
	fmt.Fprintf(&sb, "%s; })", tmp)
	return sb.String()
}

func (e *Emitter) recordLiteral(rl *ast.RecordLiteral) string {
	tmp := e.newTmp("rec")
	var sb strings.Builder
	fmt.Fprintf(&sb, "({ AngaraObject %s = angara_record_new(); ", tmp)
	for _, f := range rl.Fields {
		fmt.Fprintf(&sb, "angara_record_set(%s, \"%s\", %s); ", tmp, f.Name, e.expr(f.Value))
	}
	fmt.Fprintf(&sb, "%s; })", tmp)
	return sb.String()
}

func literalStringKey(x ast.Expr) (string, bool) {
	lit, ok := x.(*ast.Literal)
	if !ok || lit.Kind != ast.LitString {
		return "", false
	}
	return lit.Text, true
}

// ---------------------------------------------------------------------------
// Subscript / property reads

func (e *Emitter) subscriptGet(sub *ast.SubscriptExpr) string {
	objType := e.typeOf(sub.Object)
	switch objType.(type) {
	case *types.List:
		return fmt.Sprintf("angara_list_get(%s, AS_I64(%s))", e.expr(sub.Object), e.expr(sub.Index))
	case *types.Record:
		if key, ok := literalStringKey(sub.Index); ok {
			return fmt.Sprintf("angara_record_get(%s, %s)", e.expr(sub.Object), key)
		}
		return fmt.Sprintf("angara_record_get_dyn(%s, %s)", e.expr(sub.Object), e.expr(sub.Index))
	case *types.Primitive:
		return fmt.Sprintf("angara_string_char_at(%s, AS_I64(%s))", e.expr(sub.Object), e.expr(sub.Index))
	}
	return e.fail("unsupported subscript on %s", objType.String())
}

// propertyGet lowers a read access. When the object is Optional or the
// access used ?., the object is evaluated once and nil short-circuits the
// access.
func (e *Emitter) propertyGet(pg *ast.PropertyGet) string {
	objType := e.declaredTypeOf(pg.Object)
	base := types.Unwrap(objType)

	if types.IsOptional(objType) || pg.Optional {
		tmp := e.newTmp("obj")
		access := e.propertyAccess(pg, base, tmp)
		return fmt.Sprintf("({ AngaraObject %s = %s; angara_is_nil(%s) ? angara_create_nil() : %s; })",
			tmp, e.expr(pg.Object), tmp, access)
	}
	return e.propertyAccess(pg, base, e.expr(pg.Object))
}

// propertyAccess renders the access itself; obj is a C expression (or a
// temp name) holding the already-unwrapped object.
func (e *Emitter) propertyAccess(pg *ast.PropertyGet, base types.Type, obj string) string {
	switch bt := base.(type) {
	case *types.Instance:
		if _, isMethod := e.lookupMethod(bt.Class, pg.Name); isMethod {
			return e.fail("method %q used as a value; bind it through a function", pg.Name)
		}
		return fmt.Sprintf("((%s*)AS_OBJ(%s))->%s", structName(bt.Class.Name), obj, e.fieldPath(bt.Class, pg.Name))
	case *types.Data:
		return fmt.Sprintf("((%s*)AS_OBJ(%s))->%s", structName(bt.Name), obj, sanitize(pg.Name))
	case *types.Enum:
		fn, ok := bt.Variants[pg.Name]
		if ok && len(fn.Params) == 0 {
			return variantName(bt.Name, pg.Name) + "()"
		}
		return e.fail("enum variant constructor %q used as a value", pg.Name)
	case *types.Module:
		return e.moduleExportValue(bt, pg.Name)
	case *types.Record:
		return fmt.Sprintf("angara_record_get(%s, \"%s\")", obj, pg.Name)
	}
	return e.fail("property %q read on unsupported type %s", pg.Name, base.String())
}

func (e *Emitter) lookupMethod(cls *types.Class, name string) (*types.Class, bool) {
	for c := cls; c != nil; c = c.Super {
		if _, ok := c.Methods[name]; ok {
			return c, true
		}
	}
	return nil, false
}

func (e *Emitter) moduleExportValue(mod *types.Module, name string) string {
	if mod.IsNative {
		return "angara_closure_new(" + nativeFnName(mod.Name, name) + ")"
	}
	if _, isFn := mod.Exports[name].(*types.Function); isFn {
		return closureName(name)
	}
	return moduleVar(mod.Name, name)
}

// ---------------------------------------------------------------------------
// Calls

// argvLiteral renders "<n>, (AngaraObject[]){ ... }" for the uniform
// calling convention, or "0, NULL" for no arguments.
func argvLiteral(args []string) string {
	if len(args) == 0 {
		return "0, NULL"
	}
	return fmt.Sprintf("%d, (AngaraObject[]){ %s }", len(args), strings.Join(args, ", "))
}

// call dispatches on the callee's resolved kind, distinguishing
// Angara-owned functions (direct strongly-typed C call) from native
// functions (generic (argc, argv) call).
func (e *Emitter) call(c *ast.CallExpr) string {
	if v, ok := c.Callee.(*ast.Variable); ok && v.Name == "spawn" {
		return e.spawnCall(c)
	}

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = e.expr(a)
	}

	if s, ok := c.Callee.(*ast.SuperExpr); ok && s.Method == "" {
		return e.superCall(s, args)
	}

	switch ct := e.declaredTypeOf(c.Callee).(type) {
	case *types.Class:
		return ctorName(ct.Name) + "(" + strings.Join(args, ", ") + ")"
	case *types.Data:
		return dataCtorName(ct.Name) + "(" + strings.Join(args, ", ") + ")"
	case *types.Function:
		return e.functionCall(c, args)
	}
	return e.fail("call of non-callable expression")
}

func (e *Emitter) functionCall(c *ast.CallExpr, args []string) string {
	switch callee := c.Callee.(type) {
	case *ast.Variable:
		if e.isLocal(callee.Name) {
			return fmt.Sprintf("angara_call(%s, %s)", sanitize(callee.Name), argvLiteral(args))
		}
		sym, ok := e.chk.Symbols.ResolveInScope(0, callee.Name)
		if !ok {
			return e.fail("unresolved callee %q", callee.Name)
		}
		if sym.OriginModule != nil {
			if sym.OriginModule.IsNative {
				return fmt.Sprintf("%s(%s)", nativeFnName(sym.OriginModule.Name, callee.Name), argvLiteral(args))
			}
			return fmt.Sprintf("%s(%s)", fnName(sym.OriginModule.Name, callee.Name), strings.Join(args, ", "))
		}
		if decl, declared := e.chk.FuncDecls[callee.Name]; declared {
			if decl.Foreign {
				// foreign functions are extern C symbols under their own name
				return fmt.Sprintf("%s(%s)", sanitize(callee.Name), strings.Join(args, ", "))
			}
			return fmt.Sprintf("%s(%s)", fnName(e.Module, callee.Name), strings.Join(args, ", "))
		}
		if helper, ok := preludeHelpers[callee.Name]; ok {
			return fmt.Sprintf("%s(%s)", helper, strings.Join(args, ", "))
		}
		// a module variable holding a closure
		return fmt.Sprintf("angara_call(%s, %s)", moduleVar(e.Module, callee.Name), argvLiteral(args))
	case *ast.PropertyGet:
		return e.propertyCall(callee, args)
	case *ast.SuperExpr:
		return e.superCall(callee, args)
	}
	return fmt.Sprintf("angara_call(%s, %s)", e.expr(c.Callee), argvLiteral(args))
}

func (e *Emitter) propertyCall(pg *ast.PropertyGet, args []string) string {
	objType := e.declaredTypeOf(pg.Object)
	base := types.Unwrap(objType)

	switch bt := base.(type) {
	case *types.Instance:
		owner, ok := e.lookupMethod(bt.Class, pg.Name)
		if !ok {
			return e.fail("method %q not found on %s", pg.Name, bt.Class.Name)
		}
		callArgs := append([]string{e.expr(pg.Object)}, args...)
		return methodName(owner.Name, pg.Name) + "(" + strings.Join(callArgs, ", ") + ")"
	case *types.Enum:
		return variantName(bt.Name, pg.Name) + "(" + strings.Join(args, ", ") + ")"
	case *types.Module:
		if bt.IsNative {
			return fmt.Sprintf("%s(%s)", nativeFnName(bt.Name, pg.Name), argvLiteral(args))
		}
		return fmt.Sprintf("%s(%s)", fnName(bt.Name, pg.Name), strings.Join(args, ", "))
	case *types.List:
		return e.listMethodCall(pg, args)
	case *types.Record:
		return e.recordMethodCall(pg, args)
	case *types.Thread:
		if pg.Name == "join" {
			return "angara_thread_join(" + e.expr(pg.Object) + ")"
		}
	case *types.Mutex:
		switch pg.Name {
		case "lock":
			return "({ angara_mutex_lock(" + e.expr(pg.Object) + "); angara_create_nil(); })"
		case "unlock":
			return "({ angara_mutex_unlock(" + e.expr(pg.Object) + "); angara_create_nil(); })"
		}
	case *types.Data:
		// a function-typed data field invoked directly
		return fmt.Sprintf("angara_call(%s, %s)", e.propertyGet(pg), argvLiteral(args))
	}
	return e.fail("unsupported method call %q on %s", pg.Name, base.String())
}

func (e *Emitter) listMethodCall(pg *ast.PropertyGet, args []string) string {
	obj := e.expr(pg.Object)
	switch pg.Name {
	case "push":
		return "({ angara_list_push(" + obj + ", " + args[0] + "); angara_create_nil(); })"
	case "remove":
		return "angara_list_remove(" + obj + ", " + args[0] + ")"
	case "remove_at":
		return "angara_list_remove_at(" + obj + ", AS_I64(" + args[0] + "))"
	}
	return e.fail("unknown list method %q", pg.Name)
}

func (e *Emitter) recordMethodCall(pg *ast.PropertyGet, args []string) string {
	obj := e.expr(pg.Object)
	switch pg.Name {
	case "remove":
		return "angara_record_remove(" + obj + ", " + args[0] + ")"
	case "keys":
		return "angara_record_keys(" + obj + ")"
	}
	return e.fail("unknown record method %q", pg.Name)
}

func (e *Emitter) superCall(s *ast.SuperExpr, args []string) string {
	if e.curClass == nil || e.curClass.Super == nil {
		return e.fail("super call outside a subclass method")
	}
	parent := e.curClass.Super
	callArgs := append([]string{"this_"}, args...)
	if s.Method == "" {
		return methodName(parent.Name, "init") + "(" + strings.Join(callArgs, ", ") + ")"
	}
	owner, ok := e.lookupMethod(parent, s.Method)
	if !ok {
		return e.fail("super method %q not found", s.Method)
	}
	return methodName(owner.Name, s.Method) + "(" + strings.Join(callArgs, ", ") + ")"
}

// spawnCall lowers the builtin spawn: the target function becomes a
// closure handed to the runtime's thread starter with the remaining
// arguments.
func (e *Emitter) spawnCall(c *ast.CallExpr) string {
	if len(c.Args) == 0 {
		return e.fail("spawn requires a function argument")
	}
	fnVal := e.expr(c.Args[0])
	rest := make([]string, 0, len(c.Args)-1)
	for _, a := range c.Args[1:] {
		rest = append(rest, e.expr(a))
	}
	return fmt.Sprintf("angara_spawn_thread(%s, %s)", fnVal, argvLiteral(rest))
}

// preludeHelpers maps each built-in global function to the runtime helper
// its call lowers to.
var preludeHelpers = map[string]string{
	"len":       "angara_len",
	"typeof":    "angara_typeof",
	"string":    "angara_to_string",
	"i64":       "angara_to_i64",
	"int":       "angara_to_i64",
	"f64":       "angara_to_f64",
	"float":     "angara_to_f64",
	"bool":      "angara_to_bool",
	"Mutex":     "angara_mutex_new",
	"Exception": "angara_exception_new",
}

// ---------------------------------------------------------------------------
// Match

// match lowers to a statement-expression switching on the enum tag,
// binding the payload inside each case and funneling every arm's value
// into one synthesized variable.
func (e *Emitter) match(m *ast.MatchExpr) string {
	en, ok := types.Unwrap(e.typeOf(m.Cond)).(*types.Enum)
	if !ok {
		return e.fail("match condition is not an enum")
	}

	cond := e.newTmp("m")
	result := e.newTmp("r")
	var sb strings.Builder
	fmt.Fprintf(&sb, "({ AngaraObject %s = %s; AngaraObject %s; switch (((%s*)AS_OBJ(%s))->tag) { ",
		cond, e.expr(m.Cond), result, structName(en.Name), cond)

	hasWildcard := false
	for _, arm := range m.Cases {
		if arm.Pattern == nil {
			hasWildcard = true
			fmt.Fprintf(&sb, "default: { %s = %s; break; } ", result, e.expr(arm.Body))
			continue
		}
		pg, ok := arm.Pattern.(*ast.PropertyGet)
		if !ok {
			return e.fail("malformed match pattern")
		}
		fmt.Fprintf(&sb, "case %s: { ", enumTagMember(en.Name, pg.Name))
		e.enterScope()
		if arm.Bound != "" {
			e.declareLocal(arm.Bound)
			fmt.Fprintf(&sb, "AngaraObject %s = ((%s*)AS_OBJ(%s))->payload.%s.%s; ",
				sanitize(arm.Bound), structName(en.Name), cond, pg.Name, payloadField(0))
		}
		fmt.Fprintf(&sb, "%s = %s; break; } ", result, e.expr(arm.Body))
		e.exitScope()
	}
	if !hasWildcard {
		fmt.Fprintf(&sb, "default: { %s = angara_create_nil(); break; } ", result)
	}
	fmt.Fprintf(&sb, "} %s; })", result)
	return sb.String()
}
