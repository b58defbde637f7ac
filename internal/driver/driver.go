// Package driver implements the Module Driver: resolution,
// caching, cycle detection, and per-module compilation orchestration, plus
// the final link step that produces the executable.
//
// A canonical-path cache plus an in-progress stack provide memoization and
// circular-import detection; shared-library modules dispatch to the native
// ABI decoder instead of the parse/check/emit pipeline.
package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"runtime"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/backend"
	"github.com/angara-lang/angarac/internal/checker"
	"github.com/angara-lang/angarac/internal/config"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/frontend"
	"github.com/angara-lang/angarac/internal/nativeabi"
	"github.com/angara-lang/angarac/internal/token"
	"github.com/angara-lang/angarac/internal/types"
)

func runtimeGOOS() string { return runtime.GOOS }

func decodeNative(name string, funcs []nativeabi.FuncDef, b *types.Builtins) (*types.Module, map[string]*types.Class, error) {
	return nativeabi.Decode(name, funcs, b)
}

// SourceExt is the canonical Angara source file extension.
const SourceExt = ".an"

// Generated holds the paths of one source module's emitted C output, kept
// around for the final link and later cleanup.
type Generated struct {
	HeaderPath string
	SourcePath string
}

// Driver resolves, caches, and compiles modules.
type Driver struct {
	Cfg      *config.Config
	Builtins *types.Builtins
	Bag      *diag.Bag

	// Progress, when set, is invoked as each newly discovered module is
	// pushed onto the resolution stack.
	Progress func(canonical string, total int)

	cache      map[string]*types.Module // canonical path -> resolved module
	inProgress map[string]bool          // canonical path -> on the resolution stack
	order      []string                 // resolution order, for progress reporting
	completed  []string                 // base names of emitted source modules, dependencies first
	generated  []Generated
	nativeDirs map[string]bool // collected -L directories
	nativeLibs []string        // collected -l names, in discovery order
}

func New(cfg *config.Config) *Driver {
	return &Driver{
		Cfg:        cfg,
		Builtins:   types.NewBuiltins(),
		Bag:        &diag.Bag{},
		cache:      map[string]*types.Module{},
		inProgress: map[string]bool{},
		nativeDirs: map[string]bool{},
	}
}

// searchDirs returns the directories consulted for a bare module name: the
// process working directory, then any configured extra search paths, then
// the user module dir and the native-module dir. Order matters; first
// match wins.
func (d *Driver) searchDirs() []string {
	dirs := []string{"."}
	dirs = append(dirs, d.Cfg.ModuleSearchPaths...)
	dirs = append(dirs, d.Cfg.UserModuleDir, d.Cfg.NativeModuleDir)
	return dirs
}

// libName returns the platform shared-library filename for a bare module
// name, e.g. "libfoo.so" on Linux or "libfoo.dylib" on Darwin.
func libName(name string) string {
	switch runtimeGOOS() {
	case "darwin":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// Resolve locates, cycle-checks, and compiles (or loads) one module. The
// report callback receives resolution failures so the caller can anchor
// them at the import token.
func (d *Driver) Resolve(ref string, report func(code diag.Code, msg string)) (*types.Module, bool) {
	canonical, isNative, ok := d.locate(ref)
	if !ok {
		report(diag.CodeModuleNotFound, fmt.Sprintf("module %q not found", ref))
		return nil, false
	}

	if mod, ok := d.cache[canonical]; ok {
		return mod, true
	}
	if d.inProgress[canonical] {
		report(diag.CodeCircularImport, fmt.Sprintf("circular import of module %q", ref))
		return nil, false
	}

	d.inProgress[canonical] = true
	d.order = append(d.order, canonical)
	if d.Progress != nil {
		d.Progress(canonical, len(d.order))
	}
	defer delete(d.inProgress, canonical)

	var mod *types.Module
	if isNative {
		mod, ok = d.loadNative(canonical)
	} else {
		mod, ok = d.compileSource(canonical)
	}
	if !ok {
		return nil, false
	}

	d.cache[canonical] = mod
	return mod, true
}

// locate resolves a module reference: a direct path is used as-is, a bare
// name is probed across the search directories.
func (d *Driver) locate(ref string) (canonical string, isNative bool, ok bool) {
	if filepath.IsAbs(ref) || containsSeparatorOrExt(ref) {
		abs, err := filepath.Abs(ref)
		if err != nil {
			return "", false, false
		}
		if _, err := os.Stat(abs); err == nil {
			return abs, filepath.Ext(abs) != SourceExt, true
		}
		return "", false, false
	}

	for _, dir := range d.searchDirs() {
		if dir == "" {
			continue
		}
		if found, ok := probeFile(dir, ref+SourceExt); ok {
			abs, _ := filepath.Abs(found)
			return abs, false, true
		}
		if found, ok := probeFile(dir, libName(ref)); ok {
			abs, _ := filepath.Abs(found)
			return abs, true, true
		}
	}
	return "", false, false
}

// probeFile tries the exact filename first, then a case-insensitive scan of
// the directory, so `attach Utils;` finds utils.an on a case-sensitive
// filesystem.
func probeFile(dir, want string) (string, bool) {
	exact := filepath.Join(dir, want)
	if _, err := os.Stat(exact); err == nil {
		return exact, true
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, ent := range entries {
		if !ent.IsDir() && strings.EqualFold(ent.Name(), want) {
			return filepath.Join(dir, ent.Name()), true
		}
	}
	return "", false
}

func containsSeparatorOrExt(s string) bool {
	if filepath.Ext(s) != "" {
		return true
	}
	for _, r := range s {
		if r == '/' || r == filepath.Separator {
			return true
		}
	}
	return false
}

// loadNative implements step 6: dispatch to the Native ABI Decoder.
func (d *Driver) loadNative(canonical string) (*types.Module, bool) {
	funcs, err := LoadNativeModule(canonical)
	if err != nil {
		d.Bag.Add(diag.New(diag.CodeModuleNotFound, token.Zero, canonical, "failed to load native module: %v", err))
		return nil, false
	}
	name := moduleBaseName(canonical)
	mod, _, err := decodeNative(name, funcs, d.Builtins)
	if err != nil {
		d.Bag.Add(diag.New(diag.CodeModuleNotFound, token.Zero, canonical, "failed to decode native module %q: %v", name, err))
		return nil, false
	}
	mod.NativeLibDir = filepath.Dir(canonical)
	mod.NativeLibName = strippedLibName(canonical)
	if !d.nativeDirs[mod.NativeLibDir] {
		d.nativeDirs[mod.NativeLibDir] = true
	}
	d.nativeLibs = append(d.nativeLibs, mod.NativeLibName)
	return mod, true
}

// compileSource implements step 7: parse, type-check, and emit C for one
// source module.
func (d *Driver) compileSource(canonical string) (*types.Module, bool) {
	src, err := os.ReadFile(canonical)
	if err != nil {
		d.Bag.Add(diag.New(diag.CodeModuleNotFound, token.Zero, canonical, "cannot read module: %v", err))
		return nil, false
	}

	prog, perr := frontend.Parse(canonical, string(src))
	if perr != nil {
		d.Bag.Add(perr)
		return nil, false
	}

	name := moduleBaseName(canonical)
	chk := checker.New(d, canonical, name, d.Builtins)
	mod, ok := chk.CheckProgram(prog)
	if d.Bag == nil {
		d.Bag = &diag.Bag{}
	}
	for _, item := range chk.Diagnostics.Items() {
		d.Bag.Add(item)
	}
	if !ok {
		return nil, false
	}

	// The init order handed to the backend is every dependency that has
	// already finished, then this module itself.
	initOrder := append(append([]string{}, d.completed...), name)
	gen := backend.New(name, d.Builtins, initOrder)
	header, source, err := gen.Emit(prog, chk)
	if err != nil {
		d.Bag.Add(diag.New(diag.CodeBackend, token.Zero, canonical, "backend failure: %v", err))
		return nil, false
	}

	base := canonical[:len(canonical)-len(filepath.Ext(canonical))]
	hPath, cPath := base+".h", base+".c"
	if err := os.WriteFile(hPath, []byte(header), 0o644); err != nil {
		d.Bag.Add(diag.New(diag.CodeBackend, token.Zero, canonical, "cannot write %s: %v", hPath, err))
		return nil, false
	}
	if err := os.WriteFile(cPath, []byte(source), 0o644); err != nil {
		d.Bag.Add(diag.New(diag.CodeBackend, token.Zero, canonical, "cannot write %s: %v", cPath, err))
		return nil, false
	}
	d.generated = append(d.generated, Generated{HeaderPath: hPath, SourcePath: cPath})
	d.completed = append(d.completed, name)

	return mod, true
}

// ResolveFromChecker satisfies checker.ModuleResolver so the Pre-pass
// can call back into the driver for `attach` statements.
func (d *Driver) ResolveFromChecker(ref string, tok ast.Node) (*types.Module, bool) {
	return d.Resolve(ref, func(code diag.Code, msg string) {
		d.Bag.Add(diag.New(code, tok.Pos(), ref, "%s", msg))
	})
}

func moduleBaseName(canonical string) string {
	base := filepath.Base(canonical)
	ext := filepath.Ext(base)
	base = base[:len(base)-len(ext)]
	if len(base) > 3 && base[:3] == "lib" {
		base = base[3:]
	}
	return base
}

func strippedLibName(canonical string) string {
	return moduleBaseName(canonical)
}

// CompileRoot resolves and compiles the root module, then performs the
// final link. It returns the path to the
// produced executable on success.
func (d *Driver) CompileRoot(rootPath string) (string, bool) {
	mod, ok := d.Resolve(rootPath, func(code diag.Code, msg string) {
		d.Bag.Add(diag.New(code, token.Zero, rootPath, "%s", msg))
	})
	if !ok || d.Bag.HadError() {
		return "", false
	}

	mainFn, ok := mod.Exports["main"].(*types.Function)
	if !ok {
		d.Bag.Add(diag.New(diag.CodeMain, token.Zero, rootPath, "module %q does not export main", moduleBaseName(rootPath)))
		return "", false
	}
	if !isValidMainSignature(mainFn, d.Builtins) {
		d.Bag.Add(diag.New(diag.CodeMain, token.Zero, rootPath, "main must have signature () -> i64 or (list<string>) -> i64"))
		return "", false
	}

	exe := rootPath[:len(rootPath)-len(filepath.Ext(rootPath))]
	if out, err := d.link(exe); err != nil {
		d.Bag.Add(diag.New(diag.CodeLink, token.Zero, rootPath, "link failed:\n%s", out))
		return "", false
	}

	d.cleanup()
	return exe, true
}

func isValidMainSignature(fn *types.Function, b *types.Builtins) bool {
	if fn.Variadic {
		return false
	}
	if !typesEqualString(fn.Return, b.I64) {
		return false
	}
	switch len(fn.Params) {
	case 0:
		return true
	case 1:
		list, ok := fn.Params[0].(*types.List)
		return ok && typesEqualString(list.Elem, b.String)
	default:
		return false
	}
}

func typesEqualString(a, b types.Type) bool { return a != nil && b != nil && a.String() == b.String() }

// cleanup removes the intermediate .h/.c files on a successful build
func (d *Driver) cleanup() {
	for _, g := range d.generated {
		os.Remove(g.HeaderPath)
		os.Remove(g.SourcePath)
	}
}
