// Package backend is the C Backend: it lowers one module's
// checked AST to a header/source C pair that calls into the hand-written
// runtime ABI (runtime/angara_runtime.h).
//
// A single emitter struct walks the checked AST with the semantic side
// tables alongside, producing output in a fixed section order. Every
// runtime value is the runtime's tagged AngaraObject and every operator
// becomes a runtime-helper call per operand-type combination.
package backend

import (
	"fmt"
	"strings"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/checker"
	"github.com/angara-lang/angarac/internal/types"
)

// Emitter lowers one checked module. InitOrder is the full list of module
// names in the build, dependencies first, supplied by the driver; it is
// consulted only when this module owns main.
type Emitter struct {
	Module    string
	B         *types.Builtins
	InitOrder []string

	chk  *checker.Checker
	prog *ast.Program

	// declaration lists in source order
	classDecls []*ast.ClassDecl
	dataDecls  []*ast.DataDecl
	enumDecls  []*ast.EnumDecl
	funcDecls  []*ast.FunctionDecl
	varDecls   []*ast.VarDecl
	headers    []string

	scopes   []map[string]bool // local (non-module-scope) names, innermost last
	tmp      int
	curClass *types.Class // set while emitting a method body

	err error
}

func New(module string, b *types.Builtins, initOrder []string) *Emitter {
	return &Emitter{Module: module, B: b, InitOrder: initOrder}
}

// Emit produces the (header, source) pair for prog. A returned error
// indicates a checker bug or an unsupported lowering, not a user error
func (e *Emitter) Emit(prog *ast.Program, chk *checker.Checker) (string, string, error) {
	e.prog = prog
	e.chk = chk
	e.collect()

	header := e.emitHeader()
	source := e.emitSource()
	if e.err != nil {
		return "", "", e.err
	}
	return header, source, nil
}

func (e *Emitter) collect() {
	for _, stmt := range e.prog.Stmts {
		switch d := stmt.(type) {
		case *ast.ClassDecl:
			e.classDecls = append(e.classDecls, d)
		case *ast.DataDecl:
			e.dataDecls = append(e.dataDecls, d)
		case *ast.EnumDecl:
			e.enumDecls = append(e.enumDecls, d)
		case *ast.FunctionDecl:
			e.funcDecls = append(e.funcDecls, d)
		case *ast.VarDecl:
			e.varDecls = append(e.varDecls, d)
		case *ast.ForeignHeaderStmt:
			e.headers = append(e.headers, d.Header)
		}
	}
}

func (e *Emitter) fail(format string, args ...any) string {
	if e.err == nil {
		e.err = fmt.Errorf(format, args...)
	}
	return "angara_create_nil()"
}

func (e *Emitter) typeOf(x ast.Expr) types.Type {
	if info, ok := e.chk.ExprTypes[x.ID()]; ok {
		return info.Type
	}
	return e.B.Error
}

// declaredTypeOf returns the non-narrowed resolution recorded for a
// variable occurrence, falling back to the observed type.
func (e *Emitter) declaredTypeOf(x ast.Expr) types.Type {
	if v, ok := x.(*ast.Variable); ok {
		if sym, found := e.chk.Symbols.ResolveInScope(0, v.Name); found && !e.isLocal(v.Name) {
			return sym.Type
		}
	}
	return e.typeOf(x)
}

func (e *Emitter) newTmp(prefix string) string {
	e.tmp++
	return fmt.Sprintf("_%s%d", prefix, e.tmp)
}

// ---------------------------------------------------------------------------
// Scope tracking: the emitter mirrors the checker's lexical structure just
// far enough to tell locals apart from module-scope names.

func (e *Emitter) enterScope()           { e.scopes = append(e.scopes, map[string]bool{}) }
func (e *Emitter) exitScope()            { e.scopes = e.scopes[:len(e.scopes)-1] }
func (e *Emitter) declareLocal(n string) { e.scopes[len(e.scopes)-1][n] = true }

func (e *Emitter) isLocal(name string) bool {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if e.scopes[i][name] {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Name mangling

// cKeywords is the reserved set; sanitized identifiers matching it get a
// trailing underscore.
var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "main": true,
}

func sanitize(name string) string {
	if cKeywords[name] {
		return name + "_"
	}
	return name
}

// fnName mangles a global Angara function of module mod.
func fnName(mod, fn string) string {
	if fn == "main" {
		return "angara_f_main"
	}
	return "angara_f_" + mod + "_" + sanitize(fn)
}

func wrapperName(mod, fn string) string { return "angara_w_" + fnName(mod, fn) }

// closureName is the module-exported closure global for fn.
func closureName(fn string) string {
	if fn == "main" {
		return "g_angara_main_closure"
	}
	return "g_" + sanitize(fn)
}

func methodName(class, method string) string { return "Angara_" + class + "_" + sanitize(method) }
func ctorName(class string) string           { return "Angara_" + class + "_new" }
func dataCtorName(data string) string        { return "Angara_data_new_" + data }
func dataEqualsName(data string) string      { return "Angara_" + data + "_equals" }
func variantName(enum, variant string) string {
	return "Angara_" + enum + "_" + sanitize(variant)
}
func classObjName(class string) string  { return "g_" + class + "_class" }
func moduleVar(mod, v string) string    { return mod + "_" + sanitize(v) }
func nativeFnName(mod, f string) string { return "Angara_" + mod + "_" + f }
func initGlobalsName(mod string) string { return "Angara_" + mod + "_init_globals" }

func structName(name string) string { return "Angara_" + name }
func enumTagName(enum string) string {
	return "Angara_" + enum + "_Tag"
}
func enumTagMember(enum, variant string) string {
	return "Angara_" + enum + "_Tag_" + variant
}
func enumPayloadName(enum string) string { return "Angara_" + enum + "_Payload" }

// ---------------------------------------------------------------------------
// C type rendering, used by sizeof and struct layouts.

func (e *Emitter) cTypeFor(t types.Type) string {
	switch tt := t.(type) {
	case *types.Primitive:
		switch tt.Name {
		case types.I8:
			return "int8_t"
		case types.I16:
			return "int16_t"
		case types.I32:
			return "int32_t"
		case types.I64:
			return "int64_t"
		case types.U8:
			return "uint8_t"
		case types.U16:
			return "uint16_t"
		case types.U32:
			return "uint32_t"
		case types.U64:
			return "uint64_t"
		case types.F32:
			return "float"
		case types.F64:
			return "double"
		case types.Bool:
			return "bool"
		}
	case *types.Instance:
		return structName(tt.Class.Name)
	case *types.Class:
		return structName(tt.Name)
	case *types.Data:
		return structName(tt.Name)
	case *types.Enum:
		return structName(tt.Name)
	}
	return "AngaraObject"
}

// moduleForAttach resolves the *types.Module an attach statement bound, via
// the checker's persistent module scope.
func (e *Emitter) moduleForAttach(at *ast.AttachStmt) *types.Module {
	if at.Selective {
		for _, n := range at.Names {
			if sym, ok := e.chk.Symbols.ResolveInScope(0, n); ok && sym.OriginModule != nil {
				return sym.OriginModule
			}
		}
		return nil
	}
	alias := at.Alias
	if alias == "" {
		alias = baseName(at.Source)
	}
	if sym, ok := e.chk.Symbols.ResolveInScope(0, alias); ok {
		if mod, ok := sym.Type.(*types.Module); ok {
			return mod
		}
	}
	return nil
}

func baseName(ref string) string {
	ref = strings.TrimSuffix(ref, "/")
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.LastIndexByte(ref, '.'); i > 0 {
		ref = ref[:i]
	}
	ref = strings.TrimPrefix(ref, "lib")
	return ref
}

// writer is a small indentation-aware builder shared by the header and
// source emitters.
type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	for i := 0; i < w.indent; i++ {
		w.sb.WriteString("    ")
	}
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) blank()         { w.sb.WriteByte('\n') }
func (w *writer) String() string { return w.sb.String() }
