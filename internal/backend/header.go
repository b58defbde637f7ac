package backend

import (
	"sort"
	"strings"

	"github.com/angara-lang/angarac/internal/ast"
)

// emitHeader renders <module>.h in a fixed section order: the
// runtime header and Angara-dependency headers, data structs and equality
// prototypes, enum tag/payload/struct/constructors, class structs and class
// object externs, exported globals, closure externs and typed prototypes,
// public method prototypes, native-symbol prototypes, init-globals.
func (e *Emitter) emitHeader() string {
	w := &writer{}
	guard := "ANGARA_MODULE_" + strings.ToUpper(e.Module) + "_H"
	w.line("#ifndef %s", guard)
	w.line("#define %s", guard)
	w.blank()
	w.line(`#include "angara_runtime.h"`)
	for _, stmt := range e.prog.Stmts {
		at, ok := stmt.(*ast.AttachStmt)
		if !ok {
			continue
		}
		mod := e.moduleForAttach(at)
		if mod == nil || mod.IsNative {
			continue // native interop is by prototype, not by header
		}
		w.line(`#include "%s.h"`, mod.Name)
	}
	w.blank()

	for _, d := range e.dataDecls {
		e.headerData(w, d)
	}
	for _, d := range e.enumDecls {
		e.headerEnum(w, d)
	}
	for _, d := range e.classesParentFirst() {
		e.headerClassStruct(w, d)
	}
	for _, d := range e.classDecls {
		w.line("extern AngaraClass %s;", classObjName(d.Name))
	}
	w.blank()

	for _, d := range e.varDecls {
		if d.Exported {
			w.line("extern AngaraObject %s;", moduleVar(e.Module, d.Name))
		}
	}
	for _, d := range e.funcDecls {
		if d.Foreign {
			w.line("extern AngaraObject %s(%s);", sanitize(d.Name), foreignParams(d))
			continue
		}
		if d.Exported || d.IsMain() {
			w.line("extern AngaraObject %s;", closureName(d.Name))
			w.line("%s;", e.funcPrototype(d))
		}
	}
	w.blank()

	for _, d := range e.classDecls {
		for _, m := range d.Members {
			if m.Method != nil && m.Method.Access == ast.Public {
				w.line("%s;", e.methodPrototype(d.Name, m.Method.Fn))
			}
		}
	}
	w.blank()

	e.headerNativeProtos(w)

	w.line("void %s(void);", initGlobalsName(e.Module))
	w.blank()
	w.line("#endif /* %s */", guard)
	return w.String()
}

func (e *Emitter) headerData(w *writer, d *ast.DataDecl) {
	if d.Foreign {
		w.line("typedef struct {")
		w.line("    Object header;")
		w.line("    struct %s *ptr;", d.Name)
		w.line("} %s;", structName(d.Name))
	} else {
		w.line("typedef struct {")
		w.line("    Object header;")
		for _, f := range d.Fields {
			w.line("    AngaraObject %s;", sanitize(f.Name))
		}
		w.line("} %s;", structName(d.Name))
	}
	w.line("AngaraObject %s(%s);", dataCtorName(d.Name), dataCtorParams(d))
	w.line("bool %s(AngaraObject a, AngaraObject b);", dataEqualsName(d.Name))
	w.blank()
}

func dataCtorParams(d *ast.DataDecl) string {
	if len(d.Fields) == 0 {
		return "void"
	}
	parts := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		parts[i] = "AngaraObject " + sanitize(f.Name)
	}
	return strings.Join(parts, ", ")
}

func (e *Emitter) headerEnum(w *writer, d *ast.EnumDecl) {
	w.line("typedef enum {")
	for _, v := range d.Variants {
		w.line("    %s,", enumTagMember(d.Name, v.Name))
	}
	w.line("} %s;", enumTagName(d.Name))

	hasPayload := false
	for _, v := range d.Variants {
		if len(v.Params) > 0 {
			hasPayload = true
		}
	}
	if hasPayload {
		w.line("typedef union {")
		for _, v := range d.Variants {
			if len(v.Params) == 0 {
				continue
			}
			fields := make([]string, len(v.Params))
			for i := range v.Params {
				fields[i] = payloadField(i)
			}
			w.line("    struct { AngaraObject %s; } %s;", strings.Join(fields, ", "), v.Name)
		}
		w.line("} %s;", enumPayloadName(d.Name))
	}

	w.line("typedef struct {")
	w.line("    Object header;")
	w.line("    %s tag;", enumTagName(d.Name))
	if hasPayload {
		w.line("    %s payload;", enumPayloadName(d.Name))
	}
	w.line("} %s;", structName(d.Name))

	for _, v := range d.Variants {
		w.line("AngaraObject %s(%s);", variantName(d.Name, v.Name), variantParams(v))
	}
	w.blank()
}

func payloadField(i int) string {
	return "_" + itoa(i)
}

func variantParams(v ast.EnumVariant) string {
	if len(v.Params) == 0 {
		return "void"
	}
	parts := make([]string, len(v.Params))
	for i := range v.Params {
		parts[i] = "AngaraObject " + payloadField(i)
	}
	return strings.Join(parts, ", ")
}

// classesParentFirst orders class declarations so a parent struct is always
// defined before the child struct that inlines it, whatever the source
// order was.
func (e *Emitter) classesParentFirst() []*ast.ClassDecl {
	byName := map[string]*ast.ClassDecl{}
	for _, d := range e.classDecls {
		byName[d.Name] = d
	}
	emitted := map[string]bool{}
	var out []*ast.ClassDecl
	var place func(d *ast.ClassDecl)
	place = func(d *ast.ClassDecl) {
		if emitted[d.Name] {
			return
		}
		emitted[d.Name] = true
		if parent, ok := byName[d.Super]; ok {
			place(parent)
		}
		out = append(out, d)
	}
	for _, d := range e.classDecls {
		place(d)
	}
	return out
}

// headerClassStruct renders a class's C layout: the runtime AngaraInstance
// header when the class has no superclass, or the parent struct inlined as
// the first member otherwise.
func (e *Emitter) headerClassStruct(w *writer, d *ast.ClassDecl) {
	w.line("typedef struct %s %s;", structName(d.Name), structName(d.Name))
	w.line("struct %s {", structName(d.Name))
	if d.Super != "" {
		w.line("    %s parent;", structName(d.Super))
	} else {
		w.line("    AngaraInstance base;")
	}
	for _, m := range d.Members {
		if m.Field != nil {
			w.line("    AngaraObject %s;", sanitize(m.Field.Name))
		}
	}
	w.line("};")
	w.line("AngaraObject %s(%s);", ctorName(d.Name), e.ctorParams(d))
	w.blank()
}

// ctorParams mirrors the class's init parameters; a class without init is
// constructed with zero arguments.
func (e *Emitter) ctorParams(d *ast.ClassDecl) string {
	init := findInit(d)
	if init == nil || len(init.Params) == 0 {
		return "void"
	}
	parts := make([]string, len(init.Params))
	for i, p := range init.Params {
		parts[i] = "AngaraObject " + sanitize(p.Name)
	}
	return strings.Join(parts, ", ")
}

func findInit(d *ast.ClassDecl) *ast.FunctionDecl {
	for _, m := range d.Members {
		if m.Method != nil && m.Method.Fn.Name == "init" {
			return m.Method.Fn
		}
	}
	return nil
}

func foreignParams(d *ast.FunctionDecl) string {
	if len(d.Params) == 0 && !d.Variadic {
		return "void"
	}
	parts := make([]string, 0, len(d.Params)+1)
	for _, p := range d.Params {
		parts = append(parts, "AngaraObject "+sanitize(p.Name))
	}
	if d.Variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func (e *Emitter) funcPrototype(d *ast.FunctionDecl) string {
	params := "void"
	if len(d.Params) > 0 {
		parts := make([]string, len(d.Params))
		for i, p := range d.Params {
			parts[i] = "AngaraObject " + sanitize(p.Name)
		}
		params = strings.Join(parts, ", ")
	}
	return "AngaraObject " + fnName(e.Module, d.Name) + "(" + params + ")"
}

func (e *Emitter) methodPrototype(class string, d *ast.FunctionDecl) string {
	parts := []string{"AngaraObject this_"}
	for _, p := range d.Params {
		parts = append(parts, "AngaraObject "+sanitize(p.Name))
	}
	return "AngaraObject " + methodName(class, d.Name) + "(" + strings.Join(parts, ", ") + ")"
}

// headerNativeProtos emits the (argc, argv) extern prototype for every
// native symbol the checker flagged as referenced.
func (e *Emitter) headerNativeProtos(w *writer) {
	mods := make([]string, 0, len(e.chk.NativeRefs))
	for m := range e.chk.NativeRefs {
		mods = append(mods, m)
	}
	sort.Strings(mods)
	for _, m := range mods {
		syms := make([]string, 0, len(e.chk.NativeRefs[m]))
		for s := range e.chk.NativeRefs[m] {
			syms = append(syms, s)
		}
		sort.Strings(syms)
		for _, s := range syms {
			w.line("extern AngaraObject %s(int argc, AngaraObject *argv);", nativeFnName(m, s))
		}
	}
	if len(mods) > 0 {
		w.blank()
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [8]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	return string(b[n:])
}
