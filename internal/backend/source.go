package backend

import (
	"strings"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/types"
)

// emitSource renders <module>.c in a fixed section order: data
// constructors and equality, enum constructors, global storage, forward
// declarations, init-globals, function bodies, class constructors and
// methods, and (if this module owns main) the C main.
func (e *Emitter) emitSource() string {
	w := &writer{}
	w.line(`#include "%s.h"`, e.Module)
	for _, h := range e.headers {
		w.line(`#include <%s>`, h)
	}
	w.blank()

	for _, d := range e.dataDecls {
		e.sourceData(w, d)
	}
	for _, d := range e.enumDecls {
		e.sourceEnum(w, d)
	}

	e.sourceGlobals(w)
	e.sourceForwardDecls(w)
	e.sourceInitGlobals(w)

	for _, d := range e.funcDecls {
		e.sourceFunction(w, d)
	}
	for _, d := range e.classDecls {
		e.sourceClass(w, d)
	}

	if _, owns := e.chk.FuncDecls["main"]; owns {
		e.sourceMain(w)
	}
	return w.String()
}

// ---------------------------------------------------------------------------
// Data types

func (e *Emitter) sourceData(w *writer, d *ast.DataDecl) {
	if d.Foreign {
		// Foreign data values are only produced by retype and native
		// constructors; no Angara-side constructor body is emitted.
		w.line("bool %s(AngaraObject a, AngaraObject b) {", dataEqualsName(d.Name))
		w.line("    return AS_OBJ(a) == AS_OBJ(b);")
		w.line("}")
		w.blank()
		return
	}

	w.line("AngaraObject %s(%s) {", dataCtorName(d.Name), dataCtorParams(d))
	w.line("    AngaraObject o = angara_object_new(sizeof(%s));", structName(d.Name))
	for _, f := range d.Fields {
		w.line("    ((%s*)AS_OBJ(o))->%s = %s;", structName(d.Name), sanitize(f.Name), sanitize(f.Name))
		w.line("    angara_incref(%s);", sanitize(f.Name))
	}
	w.line("    return o;")
	w.line("}")
	w.blank()

	// Structural equality: every field compared via the runtime's generic
	// equals.
	w.line("bool %s(AngaraObject a, AngaraObject b) {", dataEqualsName(d.Name))
	for _, f := range d.Fields {
		w.line("    if (!angara_equals(((%s*)AS_OBJ(a))->%s, ((%s*)AS_OBJ(b))->%s)) return false;",
			structName(d.Name), sanitize(f.Name), structName(d.Name), sanitize(f.Name))
	}
	w.line("    return true;")
	w.line("}")
	w.blank()
}

// ---------------------------------------------------------------------------
// Enums

func (e *Emitter) sourceEnum(w *writer, d *ast.EnumDecl) {
	for _, v := range d.Variants {
		w.line("AngaraObject %s(%s) {", variantName(d.Name, v.Name), variantParams(v))
		w.line("    AngaraObject o = angara_object_new(sizeof(%s));", structName(d.Name))
		w.line("    ((%s*)AS_OBJ(o))->tag = %s;", structName(d.Name), enumTagMember(d.Name, v.Name))
		for i := range v.Params {
			w.line("    ((%s*)AS_OBJ(o))->payload.%s.%s = %s;", structName(d.Name), v.Name, payloadField(i), payloadField(i))
			w.line("    angara_incref(%s);", payloadField(i))
		}
		w.line("    return o;")
		w.line("}")
		w.blank()
	}
}

// ---------------------------------------------------------------------------
// Globals, forward declarations, init-globals

func (e *Emitter) sourceGlobals(w *writer) {
	for _, d := range e.classDecls {
		w.line("AngaraClass %s;", classObjName(d.Name))
	}
	for _, d := range e.varDecls {
		w.line("AngaraObject %s;", moduleVar(e.Module, d.Name))
	}
	for _, d := range e.funcDecls {
		if d.Exported || d.IsMain() {
			w.line("AngaraObject %s;", closureName(d.Name))
		}
	}
	w.blank()
}

func (e *Emitter) sourceForwardDecls(w *writer) {
	for _, d := range e.funcDecls {
		if d.Foreign {
			continue
		}
		if d.Exported || d.IsMain() {
			// already declared in the header; only the wrapper is file-local
			w.line("static AngaraObject %s(int argc, AngaraObject *argv);", wrapperName(e.Module, d.Name))
			continue
		}
		w.line("static %s;", e.funcPrototype(d))
		w.line("static AngaraObject %s(int argc, AngaraObject *argv);", wrapperName(e.Module, d.Name))
	}
	for _, d := range e.classDecls {
		for _, m := range d.Members {
			if m.Method != nil && m.Method.Access == ast.Private {
				w.line("static %s;", e.methodPrototype(d.Name, m.Method.Fn))
			}
		}
	}
	w.blank()
}

func (e *Emitter) sourceInitGlobals(w *writer) {
	w.line("void %s(void) {", initGlobalsName(e.Module))
	w.indent++
	for _, d := range e.classDecls {
		w.line("%s = (AngaraClass){ \"%s\", sizeof(%s) };", classObjName(d.Name), d.Name, structName(d.Name))
	}
	for _, d := range e.funcDecls {
		if d.Exported || d.IsMain() {
			w.line("%s = angara_closure_new(%s);", closureName(d.Name), wrapperName(e.Module, d.Name))
		}
	}
	e.enterScope()
	for _, d := range e.varDecls {
		if d.Init != nil {
			w.line("%s = %s;", moduleVar(e.Module, d.Name), e.expr(d.Init))
		} else {
			w.line("%s = angara_create_nil();", moduleVar(e.Module, d.Name))
		}
	}
	e.exitScope()
	w.indent--
	w.line("}")
	w.blank()
}

// ---------------------------------------------------------------------------
// Functions

func (e *Emitter) sourceFunction(w *writer, d *ast.FunctionDecl) {
	if d.Foreign || d.Body == nil {
		return
	}

	qual := ""
	if !d.Exported && !d.IsMain() {
		qual = "static "
	}
	w.line("%s%s {", qual, e.funcPrototype(d))
	e.enterScope()
	for _, p := range d.Params {
		e.declareLocal(p.Name)
	}
	w.indent++
	e.stmts(w, d.Body.Stmts)
	e.emitImplicitReturn(w, d)
	w.indent--
	e.exitScope()
	w.line("}")
	w.blank()

	e.sourceWrapper(w, d)
}

// emitImplicitReturn guards against C falling off the end of a function
// whose Angara body has no trailing return.
func (e *Emitter) emitImplicitReturn(w *writer, d *ast.FunctionDecl) {
	if n := len(d.Body.Stmts); n > 0 {
		if _, ok := d.Body.Stmts[n-1].(*ast.ReturnStmt); ok {
			return
		}
	}
	w.line("return angara_create_nil();")
}

// sourceWrapper emits the generic (argc, argv) shim translating the uniform
// calling convention to the typed C call.
func (e *Emitter) sourceWrapper(w *writer, d *ast.FunctionDecl) {
	w.line("static AngaraObject %s(int argc, AngaraObject *argv) {", wrapperName(e.Module, d.Name))
	w.line("    (void)argc;")
	if len(d.Params) == 0 {
		w.line("    (void)argv;")
		w.line("    return %s();", fnName(e.Module, d.Name))
	} else {
		args := make([]string, len(d.Params))
		for i := range d.Params {
			args[i] = "argv[" + itoa(i) + "]"
		}
		w.line("    return %s(%s);", fnName(e.Module, d.Name), strings.Join(args, ", "))
	}
	w.line("}")
	w.blank()
}

// ---------------------------------------------------------------------------
// Classes

func (e *Emitter) sourceClass(w *writer, d *ast.ClassDecl) {
	e.sourceClassCtor(w, d)
	for _, m := range d.Members {
		if m.Method != nil {
			e.sourceMethod(w, d, m.Method)
		}
	}
}

// sourceClassCtor emits Angara_<C>_new: allocate, install the class
// sentinel, run field initializers, then delegate to init if declared.
func (e *Emitter) sourceClassCtor(w *writer, d *ast.ClassDecl) {
	init := findInit(d)
	w.line("AngaraObject %s(%s) {", ctorName(d.Name), e.ctorParams(d))
	w.indent++
	w.line("AngaraObject this_ = angara_instance_new(sizeof(%s), &%s);", structName(d.Name), classObjName(d.Name))

	e.enterScope()
	e.declareLocal("this_")
	cls := e.chk.Classes[d.Name]
	for decl := d; decl != nil; decl = e.chk.ClassDecls[decl.Super] {
		for _, m := range decl.Members {
			if m.Field == nil {
				continue
			}
			path := e.fieldPath(cls, m.Field.Name)
			if m.Field.Init != nil {
				w.line("((%s*)AS_OBJ(this_))->%s = %s;", structName(d.Name), path, e.expr(m.Field.Init))
			} else {
				w.line("((%s*)AS_OBJ(this_))->%s = angara_create_nil();", structName(d.Name), path)
			}
		}
		if decl.Super == "" {
			break
		}
	}
	if init != nil {
		args := []string{"this_"}
		for _, p := range init.Params {
			args = append(args, sanitize(p.Name))
		}
		w.line("%s(%s);", methodName(d.Name, "init"), strings.Join(args, ", "))
	}
	e.exitScope()
	w.line("return this_;")
	w.indent--
	w.line("}")
	w.blank()
}

func (e *Emitter) sourceMethod(w *writer, d *ast.ClassDecl, m *ast.MethodMember) {
	fn := m.Fn
	if fn.Body == nil {
		return
	}
	qual := ""
	if m.Access == ast.Private {
		qual = "static "
	}
	w.line("%s%s {", qual, e.methodPrototype(d.Name, fn))
	e.enterScope()
	e.declareLocal("this_")
	for _, p := range fn.Params {
		e.declareLocal(p.Name)
	}
	prevClass := e.curClass
	e.curClass = e.chk.Classes[d.Name]
	w.indent++
	e.stmts(w, fn.Body.Stmts)
	e.emitImplicitReturn(w, fn)
	w.indent--
	e.curClass = prevClass
	e.exitScope()
	w.line("}")
	w.blank()
}

// fieldPath renders the struct member path for a field, prepending one
// "parent." per inheritance hop up to the owning class.
func (e *Emitter) fieldPath(cls *types.Class, field string) string {
	hops := 0
	for c := cls; c != nil; c = c.Super {
		if _, ok := c.Fields[field]; ok {
			return strings.Repeat("parent.", hops) + sanitize(field)
		}
		hops++
	}
	return sanitize(field)
}

// ---------------------------------------------------------------------------
// main

// sourceMain appends the C entry point: runtime init, every module's
// init-globals in driver order, dispatch through angara_call to the user's
// main closure, return its integer result.
func (e *Emitter) sourceMain(w *writer) {
	mainFn := e.chk.FuncDecls["main"]
	takesArgs := len(mainFn.Params) == 1

	w.line("int main(int argc, char **argv) {")
	w.indent++
	w.line("angara_runtime_init();")
	for _, mod := range e.InitOrder {
		w.line("%s();", initGlobalsName(mod))
	}
	if takesArgs {
		w.line("AngaraObject args = angara_args_to_list(argc, argv);")
		w.line("AngaraObject result = angara_call(%s, 1, (AngaraObject[]){ args });", closureName("main"))
	} else {
		w.line("(void)argc;")
		w.line("(void)argv;")
		w.line("AngaraObject result = angara_call(%s, 0, NULL);", closureName("main"))
	}
	w.line("int code = (int)AS_I64(result);")
	w.line("angara_runtime_shutdown();")
	w.line("return code;")
	w.indent--
	w.line("}")
}
