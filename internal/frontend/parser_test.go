package frontend

import (
	"testing"

	"github.com/angara-lang/angarac/internal/ast"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := Parse("test.an", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseVarDecl(t *testing.T) {
	prog := parse(t, `let x as i64 = 42; const name = "hi"; export let flag as bool;`)
	if len(prog.Stmts) != 3 {
		t.Fatalf("got %d statements", len(prog.Stmts))
	}

	v := prog.Stmts[0].(*ast.VarDecl)
	if v.Name != "x" || v.Const || v.Exported || v.Type == nil || v.Init == nil {
		t.Errorf("let decl = %+v", v)
	}
	c := prog.Stmts[1].(*ast.VarDecl)
	if !c.Const || c.Type != nil {
		t.Errorf("const decl = %+v", c)
	}
	e := prog.Stmts[2].(*ast.VarDecl)
	if !e.Exported || e.Init != nil {
		t.Errorf("exported decl = %+v", e)
	}
}

func TestParseFunction(t *testing.T) {
	prog := parse(t, `export func add(a as i64, b as i64) -> i64 { return a + b; }`)
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	if fn.Name != "add" || !fn.Exported || fn.Foreign || fn.Variadic {
		t.Errorf("fn = %+v", fn)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" {
		t.Errorf("params = %+v", fn.Params)
	}
	if fn.Return == nil || fn.Body == nil {
		t.Error("return annotation and body expected")
	}
}

func TestParseVariadicAndForeign(t *testing.T) {
	prog := parse(t, `foreign func printf(fmt as string, ...) -> i64;`)
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	if !fn.Foreign || !fn.Variadic || fn.Body != nil {
		t.Errorf("fn = %+v", fn)
	}
}

func TestParseClass(t *testing.T) {
	src := `
class Dog(Animal) signs Named uses Walker {
    private let legs as i64;
    let name as string;
    func init(name as string) { this.name = name; }
    private func step() -> i64 { return 1; }
}`
	prog := parse(t, src)
	cls := prog.Stmts[0].(*ast.ClassDecl)
	if cls.Name != "Dog" || cls.Super != "Animal" {
		t.Errorf("class = %+v", cls)
	}
	if len(cls.Contracts) != 1 || cls.Contracts[0] != "Named" {
		t.Errorf("contracts = %v", cls.Contracts)
	}
	if len(cls.Traits) != 1 || cls.Traits[0] != "Walker" {
		t.Errorf("traits = %v", cls.Traits)
	}
	if len(cls.Members) != 4 {
		t.Fatalf("members = %d", len(cls.Members))
	}
	if cls.Members[0].Field == nil || cls.Members[0].Field.Access != ast.Private {
		t.Error("first member must be a private field")
	}
	if cls.Members[2].Method == nil || !cls.Members[2].Method.Fn.HasThis {
		t.Error("methods must carry HasThis")
	}
	if cls.Members[3].Method.Access != ast.Private {
		t.Error("fourth member must be a private method")
	}
}

func TestParseDataEnumTraitContract(t *testing.T) {
	src := `
data Point { let x as i64; let y as i64; }
enum Shape { Dot, Circle(f64), Rect(f64, f64), }
trait Walker { func walk(dist as i64) -> bool; }
contract Named { let name as string; func describe() -> string; }
`
	prog := parse(t, src)

	d := prog.Stmts[0].(*ast.DataDecl)
	if d.Name != "Point" || len(d.Fields) != 2 {
		t.Errorf("data = %+v", d)
	}
	en := prog.Stmts[1].(*ast.EnumDecl)
	if en.Name != "Shape" || len(en.Variants) != 3 {
		t.Fatalf("enum = %+v", en)
	}
	if len(en.Variants[0].Params) != 0 || len(en.Variants[2].Params) != 2 {
		t.Errorf("variant params wrong: %+v", en.Variants)
	}
	tr := prog.Stmts[2].(*ast.TraitDecl)
	if len(tr.Methods) != 1 || tr.Methods[0].Body != nil {
		t.Errorf("trait = %+v", tr)
	}
	ct := prog.Stmts[3].(*ast.ContractDecl)
	if len(ct.Members) != 2 || ct.Members[0].Field == nil || ct.Members[1].Method == nil {
		t.Errorf("contract = %+v", ct)
	}
}

func TestParseAttachForms(t *testing.T) {
	prog := parse(t, `attach fs; attach utils as u; attach read_to_string, write from fs;`)

	whole := prog.Stmts[0].(*ast.AttachStmt)
	if whole.Selective || whole.Source != "fs" || whole.Alias != "" {
		t.Errorf("whole attach = %+v", whole)
	}
	aliased := prog.Stmts[1].(*ast.AttachStmt)
	if aliased.Alias != "u" || aliased.Source != "utils" {
		t.Errorf("aliased attach = %+v", aliased)
	}
	sel := prog.Stmts[2].(*ast.AttachStmt)
	if !sel.Selective || len(sel.Names) != 2 || sel.Source != "fs" {
		t.Errorf("selective attach = %+v", sel)
	}
}

func TestParseControlFlow(t *testing.T) {
	src := `
func f(xs as list<i64>) -> i64 {
    for (x in xs) { if (x > 3) { break; } }
    for (let i = 0; i < 10; i++) { }
    while (true) { break; }
    try { throw make_error(); } catch (e) { return 0; }
    return 1;
}`
	prog := parse(t, src)
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	body := fn.Body.Stmts
	if _, ok := body[0].(*ast.ForInStmt); !ok {
		t.Errorf("stmt 0 = %T", body[0])
	}
	if _, ok := body[1].(*ast.ForStmt); !ok {
		t.Errorf("stmt 1 = %T", body[1])
	}
	if _, ok := body[2].(*ast.WhileStmt); !ok {
		t.Errorf("stmt 2 = %T", body[2])
	}
	if _, ok := body[3].(*ast.TryStmt); !ok {
		t.Errorf("stmt 3 = %T", body[3])
	}
}

func TestParseIfLet(t *testing.T) {
	prog := parse(t, `func f(x as string?) { if (let n = x) { print(n); } else { } }`)
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	ifs := fn.Body.Stmts[0].(*ast.IfStmt)
	if !ifs.IsLetBinding() || ifs.LetName != "n" || ifs.Cond != nil {
		t.Errorf("if-let = %+v", ifs)
	}
}

func TestParseMatch(t *testing.T) {
	prog := parse(t, `func f(e as E) -> i64 { return match (e) { case E.A: 0, case E.B(n): n, case _: 9 }; }`)
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	m := ret.Value.(*ast.MatchExpr)
	if len(m.Cases) != 3 {
		t.Fatalf("cases = %d", len(m.Cases))
	}
	if m.Cases[0].Pattern == nil || m.Cases[0].Bound != "" {
		t.Errorf("case 0 = %+v", m.Cases[0])
	}
	if m.Cases[1].Bound != "n" {
		t.Errorf("case 1 bound = %q", m.Cases[1].Bound)
	}
	if m.Cases[2].Pattern != nil {
		t.Error("case 2 must be the wildcard")
	}
}

func TestParsePrecedence(t *testing.T) {
	prog := parse(t, `let x = 1 + 2 * 3;`)
	v := prog.Stmts[0].(*ast.VarDecl)
	add := v.Init.(*ast.BinaryExpr)
	if add.Op != "+" {
		t.Fatalf("top op = %q", add.Op)
	}
	mul, ok := add.Right.(*ast.BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Errorf("* must bind tighter than +: %+v", add.Right)
	}
}

func TestParseOptionalChainAndCoalesce(t *testing.T) {
	prog := parse(t, `let v = a?.b ?? fallback;`)
	v := prog.Stmts[0].(*ast.VarDecl)
	co := v.Init.(*ast.LogicalExpr)
	if co.Op != "??" {
		t.Fatalf("op = %q", co.Op)
	}
	pg := co.Left.(*ast.PropertyGet)
	if !pg.Optional || pg.Name != "b" {
		t.Errorf("optional chain = %+v", pg)
	}
}

func TestParseSizeofRetypeSpawn(t *testing.T) {
	prog := parse(t, `let s = sizeof<i64>; let p = retype<Window>(raw); let t = spawn(worker, 1);`)
	if _, ok := prog.Stmts[0].(*ast.VarDecl).Init.(*ast.SizeofExpr); !ok {
		t.Error("sizeof expected")
	}
	if _, ok := prog.Stmts[1].(*ast.VarDecl).Init.(*ast.RetypeExpr); !ok {
		t.Error("retype expected")
	}
	call, ok := prog.Stmts[2].(*ast.VarDecl).Init.(*ast.CallExpr)
	if !ok {
		t.Fatal("spawn must parse as a call")
	}
	if v, ok := call.Callee.(*ast.Variable); !ok || v.Name != "spawn" {
		t.Errorf("spawn callee = %+v", call.Callee)
	}
}

func TestParseForeignHeader(t *testing.T) {
	prog := parse(t, `foreign "sqlite3.h";`)
	fh := prog.Stmts[0].(*ast.ForeignHeaderStmt)
	if fh.Header != "sqlite3.h" {
		t.Errorf("header = %q", fh.Header)
	}
}

func TestParseErrorPositions(t *testing.T) {
	_, err := Parse("bad.an", "let = 5;")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if err.Pos.Line != 1 {
		t.Errorf("error line = %d", err.Pos.Line)
	}
}

func TestNodeIDsAreUnique(t *testing.T) {
	prog := parse(t, `func f() -> i64 { return 1 + 2; }`)
	seen := map[ast.NodeID]bool{}
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		if seen[n.ID()] {
			t.Fatalf("duplicate NodeID %d", n.ID())
		}
		seen[n.ID()] = true
	}
	fn := prog.Stmts[0].(*ast.FunctionDecl)
	walk(fn)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	walk(ret)
	walk(ret.Value)
	bin := ret.Value.(*ast.BinaryExpr)
	walk(bin.Left)
	walk(bin.Right)
}
