package backend

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/checker"
	"github.com/angara-lang/angarac/internal/frontend"
	"github.com/angara-lang/angarac/internal/types"
)

type stubResolver struct {
	modules map[string]*types.Module
}

func (r *stubResolver) ResolveFromChecker(ref string, tok ast.Node) (*types.Module, bool) {
	mod, ok := r.modules[ref]
	return mod, ok
}

func emit(t *testing.T, module, src string, resolver checker.ModuleResolver) (string, string) {
	t.Helper()
	if resolver == nil {
		resolver = &stubResolver{modules: map[string]*types.Module{}}
	}
	prog, perr := frontend.Parse(module+".an", src)
	if perr != nil {
		t.Fatalf("parse error: %v", perr)
	}
	b := types.NewBuiltins()
	chk := checker.New(resolver, module+".an", module, b)
	if _, ok := chk.CheckProgram(prog); !ok {
		t.Fatalf("check errors: %s", chk.Diagnostics.FormatAll(false, src))
	}
	gen := New(module, b, []string{module})
	header, source, err := gen.Emit(prog, chk)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	return header, source
}

// TestDataEquality: a data type's backend output
// carries a constructor and a field-by-field equality function.
func TestDataEquality(t *testing.T) {
	header, source := emit(t, "geom", `
data Point { let x as i64; let y as i64; }
func main() -> i64 {
    let a = Point(1, 2);
    let b = Point(1, 2);
    return a == b ? 0 : 1;
}
`, nil)

	if !strings.Contains(header, "bool Angara_Point_equals(AngaraObject a, AngaraObject b);") {
		t.Error("header must declare the data equality function")
	}
	if !strings.Contains(header, "AngaraObject Angara_data_new_Point(AngaraObject x, AngaraObject y);") {
		t.Error("header must declare the data constructor")
	}
	if !strings.Contains(source, "angara_equals(((Angara_Point*)AS_OBJ(a))->x, ((Angara_Point*)AS_OBJ(b))->x)") {
		t.Error("equality must compare fields via the runtime's generic equals")
	}
	if !strings.Contains(source, "Angara_Point_equals(") {
		t.Error("== on data values must route through the synthesized equality")
	}

	snaps.MatchSnapshot(t, header)
	snaps.MatchSnapshot(t, source)
}

// TestEnumMatch: tag enum, payload union, constructor
// per variant, and a switch-based statement-expression lowering.
func TestEnumMatch(t *testing.T) {
	header, source := emit(t, "shapes", `
enum E { A, B(i64) }
func pick(e as E) -> i64 {
    return match (e) { case E.A: 0, case E.B(n): n };
}
func main() -> i64 { return pick(E.B(7)); }
`, nil)

	for _, want := range []string{
		"Angara_E_Tag_A", "Angara_E_Tag_B",
		"} Angara_E_Tag;",
		"} Angara_E_Payload;",
		"AngaraObject Angara_E_A(void);",
		"AngaraObject Angara_E_B(AngaraObject _0);",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q", want)
		}
	}
	if !strings.Contains(source, "switch (((Angara_E*)AS_OBJ(") {
		t.Error("match must lower to a switch on the enum tag")
	}
	if !strings.Contains(source, "->payload.B._0") {
		t.Error("payload binding must read the variant's union member")
	}

	snaps.MatchSnapshot(t, header)
	snaps.MatchSnapshot(t, source)
}

// TestNativeCall: a selectively attached native symbol
// gets an (argc, argv) prototype and an array-literal call.
func TestNativeCall(t *testing.T) {
	b := types.NewBuiltins()
	fs := types.NewModule("fs")
	fs.IsNative = true
	fs.Exports["read_to_string"] = types.NewFunction([]types.Type{b.String}, b.String, false)
	resolver := &stubResolver{modules: map[string]*types.Module{"fs": fs}}

	header, source := emit(t, "app", `
attach read_to_string from fs;
func main() -> i64 {
    let data = read_to_string("a.txt");
    return 0;
}
`, resolver)

	if !strings.Contains(header, "extern AngaraObject Angara_fs_read_to_string(int argc, AngaraObject *argv);") {
		t.Error("header must declare the native prototype")
	}
	if !strings.Contains(source, `Angara_fs_read_to_string(1, (AngaraObject[]){ angara_string_from_c("a.txt") })`) {
		t.Error("native call must use the uniform (argc, argv) convention")
	}
}

// TestMainDispatch: the C main initializes the
// runtime, runs init-globals, dispatches through angara_call, and returns
// the user's integer result.
func TestMainDispatch(t *testing.T) {
	_, source := emit(t, "app", `
func main() -> i64 { return 0; }
`, nil)

	for _, want := range []string{
		"int main(int argc, char **argv) {",
		"angara_runtime_init();",
		"Angara_app_init_globals();",
		"angara_call(g_angara_main_closure, 0, NULL)",
		"int code = (int)AS_I64(result);",
		"angara_runtime_shutdown();",
		"g_angara_main_closure = angara_closure_new(angara_w_angara_f_main);",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("source missing %q", want)
		}
	}
}

func TestMainForwardsArgs(t *testing.T) {
	_, source := emit(t, "app", `
func main(args as list<string>) -> i64 { return 0; }
`, nil)
	if !strings.Contains(source, "angara_args_to_list(argc, argv)") {
		t.Error("main taking list<string> must receive the forwarded argv")
	}
	if !strings.Contains(source, "angara_call(g_angara_main_closure, 1, (AngaraObject[]){ args })") {
		t.Error("argv list must be passed through the closure call")
	}
}

// TestNameMangling pins the generated-identifier scheme.
func TestNameMangling(t *testing.T) {
	header, source := emit(t, "m", `
export func pub() -> i64 { return 1; }
func priv() -> i64 { return 2; }
export let counter as i64 = 0;
class C {
    let f as i64;
    func get() -> i64 { return this.f; }
}
func main() -> i64 { return pub() + priv(); }
`, nil)

	if !strings.Contains(header, "AngaraObject angara_f_m_pub(void);") {
		t.Error("exported function prototype missing")
	}
	if !strings.Contains(header, "extern AngaraObject g_pub;") {
		t.Error("exported closure extern missing")
	}
	if !strings.Contains(header, "extern AngaraObject m_counter;") {
		t.Error("exported module variable extern missing")
	}
	if !strings.Contains(header, "AngaraObject Angara_C_get(AngaraObject this_);") {
		t.Error("public method prototype missing")
	}
	if !strings.Contains(source, "static AngaraObject angara_f_m_priv(void)") {
		t.Error("module-private function must be static")
	}
	if !strings.Contains(source, "angara_f_m_pub() ") && !strings.Contains(source, "angara_f_m_pub()") {
		t.Error("intra-module calls must be direct typed calls")
	}
	if !strings.Contains(source, "AngaraObject Angara_C_new(void)") {
		t.Error("class constructor missing")
	}
}

func TestKeywordCollisionSanitized(t *testing.T) {
	_, source := emit(t, "m", `
func f() -> i64 {
    let switch as i64 = 1;
    return switch;
}
`, nil)
	if !strings.Contains(source, "AngaraObject switch_ = ") {
		t.Error("C keyword collisions must be sanitized with a trailing underscore")
	}
}

func TestInheritanceLayoutAndFieldPath(t *testing.T) {
	header, source := emit(t, "zoo", `
class Animal { let name as string; }
class Dog(Animal) {
    let breed as string;
    func label() -> string { return this.name + this.breed; }
}
func main() -> i64 { return 0; }
`, nil)

	if !strings.Contains(header, "Angara_Animal parent;") {
		t.Error("subclass struct must inline the parent struct first")
	}
	if !strings.Contains(header, "AngaraInstance base;") {
		t.Error("root class struct must start with the runtime instance header")
	}
	if !strings.Contains(source, "((Angara_Dog*)AS_OBJ(this_))->parent.name") {
		t.Error("inherited field access must hop through parent.")
	}
	if !strings.Contains(source, "((Angara_Dog*)AS_OBJ(this_))->breed") {
		t.Error("own field access must be direct")
	}
}

func TestSuperInitLowering(t *testing.T) {
	_, source := emit(t, "zoo", `
class Animal {
    let name as string;
    func init(name as string) { this.name = name; }
}
class Dog(Animal) {
    func init() { super("dog"); }
}
func main() -> i64 { return 0; }
`, nil)
	if !strings.Contains(source, `Angara_Animal_init(this_, angara_string_from_c("dog"))`) {
		t.Error("super(...) must lower to the parent's typed init call")
	}
	if !strings.Contains(source, "Angara_Dog_init(this_)") {
		t.Error("Angara_Dog_new must delegate to the declared init")
	}
}

func TestForeignFunctionCalledByOwnName(t *testing.T) {
	header, source := emit(t, "m", `
foreign "mylib.h";
foreign func crunch(x as i64) -> i64;
func main() -> i64 { return crunch(5); }
`, nil)
	if !strings.Contains(header, "extern AngaraObject crunch(AngaraObject x);") {
		t.Error("foreign function must be declared extern under its own name")
	}
	if !strings.Contains(source, "crunch(angara_create_i64(5))") {
		t.Error("foreign call must use the unmangled symbol")
	}
	if !strings.Contains(source, "#include <mylib.h>") {
		t.Error("foreign headers must be included in the source file")
	}
}

func TestPreludeLowering(t *testing.T) {
	_, source := emit(t, "m", `
func work() { }
func main() -> i64 {
    let xs = [1, 2, 3];
    let n = len(xs);
    let s = string(n);
    let mu = Mutex();
    mu.lock();
    let e = Exception("bad");
    let th = spawn(work);
    return i64(s);
}
`, nil)

	for _, want := range []string{
		"angara_len(",
		"angara_to_string(",
		"angara_mutex_new()",
		`angara_exception_new(angara_string_from_c("bad"))`,
		"angara_spawn_thread(angara_closure_new(angara_w_angara_f_m_work), 0, NULL)",
		"angara_to_i64(",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("source missing %q", want)
		}
	}
}

func TestTryThrowLowering(t *testing.T) {
	_, source := emit(t, "m", `
func risky(e as Exception) -> i64 {
    try {
        throw e;
    } catch (caught) {
        return 1;
    }
    return 0;
}
func main() -> i64 { return 0; }
`, nil)

	for _, want := range []string{
		"angara_exc_push();",
		"if (setjmp(",
		"angara_exc_pop();",
		"angara_current_exception();",
		"angara_throw(",
	} {
		if !strings.Contains(source, want) {
			t.Errorf("source missing %q", want)
		}
	}
}

func TestOptionalChainShortCircuits(t *testing.T) {
	_, source := emit(t, "m", `
class Box { let v as i64; }
func get(b as Box?) -> i64? { return b?.v; }
func main() -> i64 { return 0; }
`, nil)
	if !strings.Contains(source, "angara_is_nil(") || !strings.Contains(source, "angara_create_nil() :") {
		t.Error("?. must evaluate the object once and short-circuit on nil")
	}
}

func TestCompoundAssignDesugars(t *testing.T) {
	_, source := emit(t, "m", `
func f() -> i64 {
    let x as i64 = 1;
    x += 2;
    return x;
}
func main() -> i64 { return f(); }
`, nil)
	if !strings.Contains(source, "(x = angara_create_i64(AS_I64(x) + AS_I64(angara_create_i64(2))))") {
		t.Error("compound assignment must desugar to the long form")
	}
}

func TestModuleVarInitializedInInitGlobals(t *testing.T) {
	_, source := emit(t, "m", `
let greeting as string = "hi";
let empty as i64;
func main() -> i64 { return 0; }
`, nil)
	if !strings.Contains(source, "void Angara_m_init_globals(void) {") {
		t.Error("init-globals function missing")
	}
	if !strings.Contains(source, `m_greeting = angara_string_from_c("hi");`) {
		t.Error("module variable initializer must run in init-globals")
	}
	if !strings.Contains(source, "m_empty = angara_create_nil();") {
		t.Error("uninitialized module variable must default to nil")
	}
}
