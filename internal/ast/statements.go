package ast

import "github.com/angara-lang/angarac/internal/token"

type ExprStmt struct {
	base
	X Expr
}

func NewExprStmt(g *IDGen, t token.Token, x Expr) *ExprStmt {
	return &ExprStmt{base: newBase(g, t), X: x}
}
func (*ExprStmt) stmtNode() {}

// VarDecl is `let name [as Type] [= init];` (or `const`).
type VarDecl struct {
	base
	Name     string
	Type     TypeNode // nil if inferred from Init
	Init     Expr     // nil if uninitialized
	Const    bool
	Exported bool
}

func NewVarDecl(g *IDGen, t token.Token, name string, typ TypeNode, init Expr, isConst, exported bool) *VarDecl {
	return &VarDecl{base: newBase(g, t), Name: name, Type: typ, Init: init, Const: isConst, Exported: exported}
}
func (*VarDecl) stmtNode() {}

type Block struct {
	base
	Stmts []Stmt
}

func NewBlock(g *IDGen, t token.Token, stmts []Stmt) *Block {
	return &Block{base: newBase(g, t), Stmts: stmts}
}
func (*Block) stmtNode() {}

// IfStmt covers both `if (cond)` and `if (let name = expr)` forms; exactly
// one of Cond/LetName is set.
type IfStmt struct {
	base
	Cond    Expr // nil when this is a `let`-binding if
	LetName string
	LetInit Expr
	Then    Stmt
	Else    Stmt // nil if absent
}

func NewIfStmt(g *IDGen, t token.Token, cond Expr, letName string, letInit Expr, then, els Stmt) *IfStmt {
	return &IfStmt{base: newBase(g, t), Cond: cond, LetName: letName, LetInit: letInit, Then: then, Else: els}
}
func (s *IfStmt) IsLetBinding() bool { return s.LetInit != nil }
func (*IfStmt) stmtNode()            {}

type WhileStmt struct {
	base
	Cond Expr
	Body Stmt
}

func NewWhileStmt(g *IDGen, t token.Token, cond Expr, body Stmt) *WhileStmt {
	return &WhileStmt{base: newBase(g, t), Cond: cond, Body: body}
}
func (*WhileStmt) stmtNode() {}

// ForStmt is the C-style `for (init; cond; post) body`. Any of Init/Cond/Post
// may be nil.
type ForStmt struct {
	base
	Init Stmt
	Cond Expr
	Post Stmt
	Body Stmt
}

func NewForStmt(g *IDGen, t token.Token, init Stmt, cond Expr, post Stmt, body Stmt) *ForStmt {
	return &ForStmt{base: newBase(g, t), Init: init, Cond: cond, Post: post, Body: body}
}
func (*ForStmt) stmtNode() {}

// ForInStmt is `for (name in iterable) body`.
type ForInStmt struct {
	base
	Name     string
	Iterable Expr
	Body     Stmt
}

func NewForInStmt(g *IDGen, t token.Token, name string, iterable Expr, body Stmt) *ForInStmt {
	return &ForInStmt{base: newBase(g, t), Name: name, Iterable: iterable, Body: body}
}
func (*ForInStmt) stmtNode() {}

type Param struct {
	Name string
	Type TypeNode
}

// FunctionDecl covers free functions and class methods (HasThis is set for
// the latter; class membership and Access are tracked by ClassMember).
type FunctionDecl struct {
	base
	Name     string
	HasThis  bool
	Params   []Param
	Return   TypeNode // nil means implicit nil return
	Body     *Block   // nil for `foreign` declarations or trait/contract prototypes
	Exported bool
	Foreign  bool
	Variadic bool
}

func NewFunctionDecl(g *IDGen, t token.Token, name string, hasThis bool, params []Param, ret TypeNode, body *Block, exported, foreign, variadic bool) *FunctionDecl {
	return &FunctionDecl{
		base: newBase(g, t), Name: name, HasThis: hasThis, Params: params,
		Return: ret, Body: body, Exported: exported, Foreign: foreign, Variadic: variadic,
	}
}
func (*FunctionDecl) stmtNode() {}

// IsMain reports whether this is the module's entry point by name, per
// an unexported top-level function named `main` is still implicitly
// exported.
func (f *FunctionDecl) IsMain() bool { return f.Name == "main" }

type ReturnStmt struct {
	base
	Value Expr // nil for bare `return;`
}

func NewReturnStmt(g *IDGen, t token.Token, value Expr) *ReturnStmt {
	return &ReturnStmt{base: newBase(g, t), Value: value}
}
func (*ReturnStmt) stmtNode() {}

type BreakStmt struct{ base }

func NewBreakStmt(g *IDGen, t token.Token) *BreakStmt { return &BreakStmt{base: newBase(g, t)} }
func (*BreakStmt) stmtNode()                          {}

type ThrowStmt struct {
	base
	Value Expr
}

func NewThrowStmt(g *IDGen, t token.Token, value Expr) *ThrowStmt {
	return &ThrowStmt{base: newBase(g, t), Value: value}
}
func (*ThrowStmt) stmtNode() {}

// TryStmt is `try block catch (name [as Type]) block`.
type TryStmt struct {
	base
	Try       *Block
	CatchName string
	CatchType TypeNode // nil if untyped
	Catch     *Block
}

func NewTryStmt(g *IDGen, t token.Token, try *Block, name string, typ TypeNode, catch *Block) *TryStmt {
	return &TryStmt{base: newBase(g, t), Try: try, CatchName: name, CatchType: typ, Catch: catch}
}
func (*TryStmt) stmtNode() {}

// AttachStmt is the import mechanism. For a selective attach, Names is
// non-empty and Alias is unused; for a whole-module attach, Names is empty
// and Alias is the binding name (explicit, or derived from Source).
type AttachStmt struct {
	base
	Selective bool
	Names     []string
	Alias     string
	Source    string
}

func NewAttachStmt(g *IDGen, t token.Token, selective bool, names []string, alias, source string) *AttachStmt {
	return &AttachStmt{base: newBase(g, t), Selective: selective, Names: names, Alias: alias, Source: source}
}
func (*AttachStmt) stmtNode() {}

// ForeignHeaderStmt declares a C header the backend must #include to use a
// `foreign` function or `retype` target.
type ForeignHeaderStmt struct {
	base
	Header string
}

func NewForeignHeaderStmt(g *IDGen, t token.Token, header string) *ForeignHeaderStmt {
	return &ForeignHeaderStmt{base: newBase(g, t), Header: header}
}
func (*ForeignHeaderStmt) stmtNode() {}
