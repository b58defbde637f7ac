// Package checker implements the type checker: four ordered passes over
// one module's top-level statement list: attachments, name declarations,
// headers, bodies. Later passes run only while no error has been recorded.
package checker

import (
	"fmt"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/symbols"
	"github.com/angara-lang/angarac/internal/token"
	"github.com/angara-lang/angarac/internal/types"
)

// ModuleResolver is implemented by the driver so the Pre-pass can resolve
// `attach` statements without the checker package
// importing the driver package (which would be a cycle).
type ModuleResolver interface {
	ResolveFromChecker(ref string, tok ast.Node) (*types.Module, bool)
}

// ExprInfo is the checker's side table entry for one expression node: its
// resolved type, plus (for Variable nodes) the narrowed type actually
// observed at that occurrence.
type ExprInfo struct {
	Type     types.Type
	Narrowed types.Type // nil unless narrowing applied
}

// Checker holds all side tables produced while checking one module.
type Checker struct {
	Resolver ModuleResolver
	Path     string
	Name     string
	Builtins *types.Builtins

	Diagnostics *diag.Bag
	Symbols     *symbols.Table

	Classes   map[string]*types.Class
	Traits    map[string]*types.Trait
	Contracts map[string]*types.Contract
	Datas     map[string]*types.Data
	Enums     map[string]*types.Enum
	Funcs     map[string]*types.Function

	// ClassDecls/TraitDecls/etc. retain the AST declaration alongside the
	// semantic placeholder so Pass 2 can fill it in and the backend can walk
	// member declaration order.
	ClassDecls    map[string]*ast.ClassDecl
	TraitDecls    map[string]*ast.TraitDecl
	ContractDecls map[string]*ast.ContractDecl
	DataDecls     map[string]*ast.DataDecl
	EnumDecls     map[string]*ast.EnumDecl
	FuncDecls     map[string]*ast.FunctionDecl

	Exports map[string]types.Type

	ExprTypes map[ast.NodeID]*ExprInfo
	VarDecl   map[ast.NodeID]string // NodeID of a Variable -> resolved symbol's declaring kind, for backend name resolution

	// Sizeofs records each sizeof<T> site's resolved inner type for the
	// backend. IsTypes does the same for the
	// right-hand type of each `is` test.
	Sizeofs map[ast.NodeID]types.Type
	IsTypes map[ast.NodeID]types.Type

	// NativeRefs records every native-module symbol the checked code
	// actually touches, module name -> symbol names, so the backend can emit
	// (argc, argv) prototypes and the linker picks up the library.
	NativeRefs map[string]map[string]bool

	hadError bool
}

func New(resolver ModuleResolver, path, name string, builtins *types.Builtins) *Checker {
	c := &Checker{
		Resolver: resolver,
		Path:     path,
		Name:     name,
		Builtins: builtins,

		Diagnostics: &diag.Bag{},
		Symbols:     symbols.New(),

		Classes:   map[string]*types.Class{},
		Traits:    map[string]*types.Trait{},
		Contracts: map[string]*types.Contract{},
		Datas:     map[string]*types.Data{},
		Enums:     map[string]*types.Enum{},
		Funcs:     map[string]*types.Function{},

		ClassDecls:    map[string]*ast.ClassDecl{},
		TraitDecls:    map[string]*ast.TraitDecl{},
		ContractDecls: map[string]*ast.ContractDecl{},
		DataDecls:     map[string]*ast.DataDecl{},
		EnumDecls:     map[string]*ast.EnumDecl{},
		FuncDecls:     map[string]*ast.FunctionDecl{},

		Exports: map[string]types.Type{},

		ExprTypes:  map[ast.NodeID]*ExprInfo{},
		VarDecl:    map[ast.NodeID]string{},
		Sizeofs:    map[ast.NodeID]types.Type{},
		IsTypes:    map[ast.NodeID]types.Type{},
		NativeRefs: map[string]map[string]bool{},
	}
	c.declarePrelude()
	return c
}

// declarePrelude installs the built-in global functions every module sees:
// len, typeof, the conversion functions (with their short aliases), spawn,
// and the Mutex and Exception constructors.
func (c *Checker) declarePrelude() {
	b := c.Builtins
	declare := func(name string, fn *types.Function) {
		c.Symbols.Declare(token.Zero, name, fn, true, nil)
	}

	declare("len", types.NewFunction([]types.Type{b.Any}, b.I64, false))
	declare("typeof", types.NewFunction([]types.Type{b.Any}, b.String, false))

	declare("string", types.NewFunction([]types.Type{b.Any}, b.String, false))
	i64Conv := types.NewFunction([]types.Type{b.Any}, b.I64, false)
	declare("i64", i64Conv)
	declare("int", i64Conv)
	f64Conv := types.NewFunction([]types.Type{b.Any}, b.F64, false)
	declare("f64", f64Conv)
	declare("float", f64Conv)
	declare("bool", types.NewFunction([]types.Type{b.Any}, b.Bool, false))

	worker := types.NewFunction(nil, b.Any, true)
	declare("spawn", types.NewFunction([]types.Type{worker}, b.Thread, true))

	declare("Mutex", types.NewFunction(nil, b.Mutex, false))
	declare("Exception", types.NewFunction([]types.Type{b.String}, b.Exception, false))
}

func (c *Checker) error(code diag.Code, tok token.Token, format string, args ...any) {
	c.Diagnostics.Add(diag.New(code, tok, c.Path, format, args...))
	c.hadError = true
}

func (c *Checker) errorNote(code diag.Code, tok token.Token, notePos token.Token, noteMsg string, format string, args ...any) {
	d := diag.New(code, tok, c.Path, format, args...).WithNote(notePos, c.Path, "%s", noteMsg)
	c.Diagnostics.Add(d)
	c.hadError = true
}

// recordNativeRef marks one native-module symbol as referenced so the
// backend emits its prototype and the driver links its library.
func (c *Checker) recordNativeRef(mod *types.Module, symbol string) {
	if mod == nil || !mod.IsNative {
		return
	}
	if c.NativeRefs[mod.Name] == nil {
		c.NativeRefs[mod.Name] = map[string]bool{}
	}
	c.NativeRefs[mod.Name][symbol] = true
}

func (c *Checker) setType(n ast.Expr, t types.Type) {
	info := &ExprInfo{Type: t}
	if prev, ok := c.ExprTypes[n.ID()]; ok && prev.Narrowed != nil && prev.Narrowed == t {
		info.Narrowed = t
	}
	c.ExprTypes[n.ID()] = info
}

func (c *Checker) typeOf(n ast.Expr) types.Type {
	if info, ok := c.ExprTypes[n.ID()]; ok {
		return info.Type
	}
	return c.Builtins.Error
}

// CheckProgram runs the four passes in order. It returns the module's public surface as a *types.Module.
func (c *Checker) CheckProgram(prog *ast.Program) (*types.Module, bool) {
	c.runAttachPass(prog)
	if !c.hadError {
		c.runDeclarationPass(prog)
	}
	if !c.hadError {
		c.runHeaderPass(prog)
	}
	if !c.hadError {
		c.runBodyPass(prog)
	}

	mod := types.NewModule(c.Name)
	mod.Exports = c.Exports
	return mod, !c.hadError
}

// resolveTypeNode resolves an ast.TypeNode into a semantic Type, consulting
// builtins first, then user-declared classes/traits/contracts/data/enums.
func (c *Checker) resolveTypeNode(tn ast.TypeNode) types.Type {
	switch t := tn.(type) {
	case nil:
		return c.Builtins.Nil
	case *ast.NameType:
		if bt, ok := c.Builtins.ByName(t.Name); ok {
			return bt
		}
		if cls, ok := c.Classes[t.Name]; ok {
			return types.NewInstance(cls)
		}
		if tr, ok := c.Traits[t.Name]; ok {
			return tr
		}
		if ct, ok := c.Contracts[t.Name]; ok {
			return ct
		}
		if d, ok := c.Datas[t.Name]; ok {
			return d
		}
		if e, ok := c.Enums[t.Name]; ok {
			return e
		}
		c.error(diag.CodeUndefinedName, t.Pos(), "unknown type %q%s", t.Name, c.suggestName(t.Name))
		return c.Builtins.Error
	case *ast.GenericType:
		if t.Name == "list" && len(t.Args) == 1 {
			return types.NewList(c.resolveTypeNode(t.Args[0]))
		}
		c.error(diag.CodeUndefinedName, t.Pos(), "unknown generic type %q", t.Name)
		return c.Builtins.Error
	case *ast.OptionalType:
		return types.NewOptional(c.resolveTypeNode(t.Base))
	case *ast.InlineRecordType:
		fields := map[string]types.Type{}
		for _, f := range t.Fields {
			fields[f.Name] = c.resolveTypeNode(f.Type)
		}
		return types.NewRecord(fields)
	case *ast.InlineFunctionType:
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = c.resolveTypeNode(p)
		}
		return types.NewFunction(params, c.resolveTypeNode(t.Return), t.Variadic)
	}
	return c.Builtins.Error
}

func (c *Checker) suggestName(name string) string {
	best, dist := "", 3
	consider := func(candidates map[string]bool) {
		for n := range candidates {
			d := editDistance(name, n)
			if d < dist {
				dist, best = d, n
			}
		}
	}
	all := map[string]bool{}
	for n := range c.Classes {
		all[n] = true
	}
	for n := range c.Traits {
		all[n] = true
	}
	for n := range c.Contracts {
		all[n] = true
	}
	for n := range c.Datas {
		all[n] = true
	}
	for n := range c.Enums {
		all[n] = true
	}
	consider(all)
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// editDistance is a small Levenshtein distance used only for the
// near-name-suggestion diagnostic note; not performance sensitive, since it
// only runs on the error path.
func editDistance(a, b string) int {
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			min := prev[j] + 1
			if cur[j-1]+1 < min {
				min = cur[j-1] + 1
			}
			if prev[j-1]+cost < min {
				min = prev[j-1] + cost
			}
			cur[j] = min
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}
