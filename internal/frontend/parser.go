package frontend

import (
	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/token"
)

// Parse lexes and parses one module's source. On the first syntax error it
// aborts and returns the diagnostic; recovery beyond panic-mode resync at
// statement boundaries is a non-goal.
func Parse(path, src string) (*ast.Program, *diag.Diagnostic) {
	p := &parser{lex: NewLexer(src), path: path, gen: ast.NewIDGen()}
	p.advance()
	p.advance()

	prog := &ast.Program{Path: path}
	for p.cur.Kind != token.EOF {
		stmt := p.parseTopStmt()
		if p.err != nil {
			return nil, p.err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

type parser struct {
	lex  *Lexer
	path string
	gen  *ast.IDGen

	cur  token.Token
	peek token.Token

	err *diag.Diagnostic
}

func (p *parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *parser) errorf(tok token.Token, format string, args ...any) {
	if p.err == nil {
		p.err = diag.New(diag.CodeLexSyntax, tok, p.path, format, args...)
	}
}

func (p *parser) expect(kind token.Kind, what string) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur, "expected %s, got %q", what, p.cur.Lexeme)
		return p.cur
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *parser) accept(kind token.Kind) bool {
	if p.cur.Kind == kind {
		p.advance()
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Top-level statements

func (p *parser) parseTopStmt() ast.Stmt {
	switch p.cur.Kind {
	case token.ATTACH:
		return p.parseAttach()
	case token.FOREIGN:
		if p.peek.Kind == token.STRING {
			tok := p.cur
			p.advance()
			header := p.cur
			p.advance()
			p.expect(token.SEMI, ";")
			return ast.NewForeignHeaderStmt(p.gen, tok, unquote(header.Lexeme))
		}
		return p.parseDeclaration(false)
	case token.EXPORT:
		p.advance()
		return p.parseDeclaration(true)
	case token.CLASS, token.TRAIT, token.CONTRACT, token.DATA, token.ENUM, token.FUNC:
		return p.parseDeclaration(false)
	default:
		return p.parseStmt()
	}
}

func (p *parser) parseDeclaration(exported bool) ast.Stmt {
	switch p.cur.Kind {
	case token.FUNC:
		return p.parseFunc(exported, false)
	case token.FOREIGN:
		p.advance()
		if p.cur.Kind == token.DATA {
			return p.parseData(exported, true)
		}
		return p.parseFunc(exported, true)
	case token.CLASS:
		return p.parseClass(exported)
	case token.TRAIT:
		return p.parseTrait(exported)
	case token.CONTRACT:
		return p.parseContract(exported)
	case token.DATA:
		return p.parseData(exported, false)
	case token.ENUM:
		return p.parseEnum(exported)
	case token.LET, token.CONST:
		return p.parseVarDecl(exported)
	}
	p.errorf(p.cur, "expected a declaration after export, got %q", p.cur.Lexeme)
	p.advance()
	return nil
}

// parseAttach handles both forms:
//
//	attach a, b from mod;          (selective)
//	attach mod [as alias];         (whole-module)
func (p *parser) parseAttach() ast.Stmt {
	tok := p.cur
	p.advance()

	first := p.parseModuleRef()
	if p.cur.Kind == token.COMMA || p.cur.Kind == token.FROM {
		names := []string{first}
		for p.accept(token.COMMA) {
			names = append(names, p.expect(token.IDENT, "export name").Lexeme)
		}
		p.expect(token.FROM, "from")
		source := p.parseModuleRef()
		p.expect(token.SEMI, ";")
		return ast.NewAttachStmt(p.gen, tok, true, names, "", source)
	}

	alias := ""
	if p.accept(token.AS) {
		alias = p.expect(token.IDENT, "module alias").Lexeme
	}
	p.expect(token.SEMI, ";")
	return ast.NewAttachStmt(p.gen, tok, false, nil, alias, first)
}

// parseModuleRef accepts either a bare identifier or a quoted path.
func (p *parser) parseModuleRef() string {
	if p.cur.Kind == token.STRING {
		s := unquote(p.cur.Lexeme)
		p.advance()
		return s
	}
	return p.expect(token.IDENT, "module name").Lexeme
}

func (p *parser) parseVarDecl(exported bool) ast.Stmt {
	isConst := p.cur.Kind == token.CONST
	tok := p.cur
	p.advance()
	var name string
	if p.cur.Kind == token.DATA {
		// `data` opens a declaration only at the start of a top-level
		// statement; after let/const it is an ordinary variable name.
		name = p.cur.Lexeme
		p.advance()
	} else {
		name = p.expect(token.IDENT, "variable name").Lexeme
	}

	var typ ast.TypeNode
	if p.accept(token.AS) {
		typ = p.parseType()
	}
	var init ast.Expr
	if p.accept(token.ASSIGN) {
		init = p.parseExpr()
	}
	p.expect(token.SEMI, ";")
	return ast.NewVarDecl(p.gen, tok, name, typ, init, isConst, exported)
}

func (p *parser) parseFunc(exported, foreign bool) *ast.FunctionDecl {
	tok := p.expect(token.FUNC, "func")
	name := p.expect(token.IDENT, "function name").Lexeme
	params, variadic := p.parseParams()

	var ret ast.TypeNode
	if p.accept(token.ARROW) {
		ret = p.parseType()
	}

	var body *ast.Block
	if p.cur.Kind == token.LBRACE {
		body = p.parseBlock()
	} else {
		p.expect(token.SEMI, "; or function body")
	}
	return ast.NewFunctionDecl(p.gen, tok, name, false, params, ret, body, exported, foreign, variadic)
}

func (p *parser) parseParams() ([]ast.Param, bool) {
	p.expect(token.LPAREN, "(")
	var params []ast.Param
	variadic := false
	for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
		if p.cur.Kind == token.ELLIPSIS {
			variadic = true
			p.advance()
			break
		}
		name := p.expect(token.IDENT, "parameter name").Lexeme
		p.expect(token.AS, "as")
		typ := p.parseType()
		params = append(params, ast.Param{Name: name, Type: typ})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN, ")")
	return params, variadic
}

func (p *parser) parseClass(exported bool) ast.Stmt {
	tok := p.expect(token.CLASS, "class")
	name := p.expect(token.IDENT, "class name").Lexeme

	super := ""
	if p.accept(token.LPAREN) {
		super = p.expect(token.IDENT, "superclass name").Lexeme
		p.expect(token.RPAREN, ")")
	}
	var contracts, traits []string
	if p.accept(token.SIGNS) {
		contracts = p.parseIdentList()
	}
	if p.accept(token.USES) {
		traits = p.parseIdentList()
	}

	p.expect(token.LBRACE, "{")
	var members []ast.ClassMember
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		members = append(members, p.parseClassMember())
		if p.err != nil {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewClassDecl(p.gen, tok, name, super, contracts, traits, members, exported)
}

func (p *parser) parseIdentList() []string {
	names := []string{p.expect(token.IDENT, "name").Lexeme}
	for p.accept(token.COMMA) {
		names = append(names, p.expect(token.IDENT, "name").Lexeme)
	}
	return names
}

func (p *parser) parseClassMember() ast.ClassMember {
	access := ast.Public
	switch p.cur.Kind {
	case token.PRIVATE:
		access = ast.Private
		p.advance()
	case token.PUBLIC:
		p.advance()
	}

	switch p.cur.Kind {
	case token.LET, token.CONST:
		f := p.parseFieldMember()
		f.Access = access
		return ast.ClassMember{Field: f}
	case token.FUNC:
		fn := p.parseFunc(false, false)
		fn.HasThis = true
		return ast.ClassMember{Method: &ast.MethodMember{Fn: fn, Access: access}}
	}
	p.errorf(p.cur, "expected a field or method declaration, got %q", p.cur.Lexeme)
	p.advance()
	return ast.ClassMember{}
}

func (p *parser) parseFieldMember() *ast.FieldMember {
	isConst := p.cur.Kind == token.CONST
	tok := p.cur
	p.advance()
	name := p.expect(token.IDENT, "field name").Lexeme

	var typ ast.TypeNode
	if p.accept(token.AS) {
		typ = p.parseType()
	}
	var init ast.Expr
	if p.accept(token.ASSIGN) {
		init = p.parseExpr()
	}
	p.expect(token.SEMI, ";")
	return &ast.FieldMember{Name: name, Type: typ, Init: init, Const: isConst, Tok: tok}
}

func (p *parser) parseTrait(exported bool) ast.Stmt {
	tok := p.expect(token.TRAIT, "trait")
	name := p.expect(token.IDENT, "trait name").Lexeme
	p.expect(token.LBRACE, "{")
	var methods []*ast.FunctionDecl
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		fn := p.parseFunc(false, false)
		fn.HasThis = true
		if fn.Body != nil {
			p.errorf(fn.Pos(), "trait method %q must be a prototype without a body", fn.Name)
		}
		methods = append(methods, fn)
		if p.err != nil {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewTraitDecl(p.gen, tok, name, methods, exported)
}

func (p *parser) parseContract(exported bool) ast.Stmt {
	tok := p.expect(token.CONTRACT, "contract")
	name := p.expect(token.IDENT, "contract name").Lexeme
	p.expect(token.LBRACE, "{")
	var members []ast.ContractMember
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		switch p.cur.Kind {
		case token.LET, token.CONST:
			f := p.parseFieldMember()
			if f.Init != nil {
				p.errorf(f.Tok, "contract field %q may not have a default initializer", f.Name)
			}
			members = append(members, ast.ContractMember{Field: f})
		case token.FUNC:
			fn := p.parseFunc(false, false)
			fn.HasThis = true
			if fn.Body != nil {
				p.errorf(fn.Pos(), "contract method %q must be a prototype without a body", fn.Name)
			}
			if fn.Name == "init" {
				p.errorf(fn.Pos(), "a contract may not declare a constructor")
			}
			members = append(members, ast.ContractMember{Method: fn})
		default:
			p.errorf(p.cur, "expected a field or method requirement, got %q", p.cur.Lexeme)
			p.advance()
		}
		if p.err != nil {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewContractDecl(p.gen, tok, name, members, exported)
}

func (p *parser) parseData(exported, foreign bool) ast.Stmt {
	tok := p.expect(token.DATA, "data")
	name := p.expect(token.IDENT, "data name").Lexeme
	p.expect(token.LBRACE, "{")
	var fields []ast.DataField
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		f := p.parseFieldMember()
		if f.Type == nil {
			p.errorf(f.Tok, "data field %q requires an explicit type annotation", f.Name)
		}
		if f.Init != nil {
			p.errorf(f.Tok, "data field %q may not have a default initializer", f.Name)
		}
		fields = append(fields, ast.DataField{Name: f.Name, Type: f.Type, Const: f.Const})
		if p.err != nil {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewDataDecl(p.gen, tok, name, fields, foreign, exported)
}

func (p *parser) parseEnum(exported bool) ast.Stmt {
	tok := p.expect(token.ENUM, "enum")
	name := p.expect(token.IDENT, "enum name").Lexeme
	p.expect(token.LBRACE, "{")
	var variants []ast.EnumVariant
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		vname := p.expect(token.IDENT, "variant name").Lexeme
		var params []ast.TypeNode
		if p.accept(token.LPAREN) {
			for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
				params = append(params, p.parseType())
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN, ")")
		}
		variants = append(variants, ast.EnumVariant{Name: vname, Params: params})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewEnumDecl(p.gen, tok, name, variants, exported)
}

// ---------------------------------------------------------------------------
// Statements

func (p *parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.LET, token.CONST:
		return p.parseVarDecl(false)
	case token.EXPORT:
		// legal only at module scope; parsed here so the checker can report
		// the scope violation with a proper diagnostic
		p.advance()
		return p.parseVarDecl(true)
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		tok := p.cur
		p.advance()
		p.expect(token.LPAREN, "(")
		cond := p.parseExpr()
		p.expect(token.RPAREN, ")")
		return ast.NewWhileStmt(p.gen, tok, cond, p.parseStmt())
	case token.FOR:
		return p.parseFor()
	case token.RETURN:
		tok := p.cur
		p.advance()
		var value ast.Expr
		if p.cur.Kind != token.SEMI {
			value = p.parseExpr()
		}
		p.expect(token.SEMI, ";")
		return ast.NewReturnStmt(p.gen, tok, value)
	case token.BREAK:
		tok := p.cur
		p.advance()
		p.expect(token.SEMI, ";")
		return ast.NewBreakStmt(p.gen, tok)
	case token.THROW:
		tok := p.cur
		p.advance()
		value := p.parseExpr()
		p.expect(token.SEMI, ";")
		return ast.NewThrowStmt(p.gen, tok, value)
	case token.TRY:
		return p.parseTry()
	default:
		tok := p.cur
		x := p.parseExpr()
		p.expect(token.SEMI, ";")
		return ast.NewExprStmt(p.gen, tok, x)
	}
}

func (p *parser) parseBlock() *ast.Block {
	tok := p.expect(token.LBRACE, "{")
	var stmts []ast.Stmt
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		stmts = append(stmts, p.parseStmt())
		if p.err != nil {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewBlock(p.gen, tok, stmts)
}

func (p *parser) parseIf() ast.Stmt {
	tok := p.expect(token.IF, "if")
	p.expect(token.LPAREN, "(")

	var cond ast.Expr
	letName := ""
	var letInit ast.Expr
	if p.cur.Kind == token.LET {
		p.advance()
		letName = p.expect(token.IDENT, "binding name").Lexeme
		p.expect(token.ASSIGN, "=")
		letInit = p.parseExpr()
	} else {
		cond = p.parseExpr()
	}
	p.expect(token.RPAREN, ")")

	then := p.parseStmt()
	var els ast.Stmt
	if p.accept(token.ELSE) {
		els = p.parseStmt()
	}
	return ast.NewIfStmt(p.gen, tok, cond, letName, letInit, then, els)
}

func (p *parser) parseFor() ast.Stmt {
	tok := p.expect(token.FOR, "for")
	p.expect(token.LPAREN, "(")

	// for (name in iterable)
	if p.cur.Kind == token.IDENT && p.peek.Kind == token.IN {
		name := p.cur.Lexeme
		p.advance()
		p.advance()
		iterable := p.parseExpr()
		p.expect(token.RPAREN, ")")
		return ast.NewForInStmt(p.gen, tok, name, iterable, p.parseStmt())
	}

	var init ast.Stmt
	if p.cur.Kind != token.SEMI {
		if p.cur.Kind == token.LET || p.cur.Kind == token.CONST {
			init = p.parseVarDecl(false) // consumes the ;
		} else {
			x := p.parseExpr()
			init = ast.NewExprStmt(p.gen, tok, x)
			p.expect(token.SEMI, ";")
		}
	} else {
		p.advance()
	}

	var cond ast.Expr
	if p.cur.Kind != token.SEMI {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI, ";")

	var post ast.Stmt
	if p.cur.Kind != token.RPAREN {
		x := p.parseExpr()
		post = ast.NewExprStmt(p.gen, tok, x)
	}
	p.expect(token.RPAREN, ")")
	return ast.NewForStmt(p.gen, tok, init, cond, post, p.parseStmt())
}

func (p *parser) parseTry() ast.Stmt {
	tok := p.expect(token.TRY, "try")
	try := p.parseBlock()
	p.expect(token.CATCH, "catch")
	p.expect(token.LPAREN, "(")
	name := p.expect(token.IDENT, "catch binding").Lexeme
	var typ ast.TypeNode
	if p.accept(token.AS) {
		typ = p.parseType()
	}
	p.expect(token.RPAREN, ")")
	catch := p.parseBlock()
	return ast.NewTryStmt(p.gen, tok, try, name, typ, catch)
}

// ---------------------------------------------------------------------------
// Types

func (p *parser) parseType() ast.TypeNode {
	var t ast.TypeNode
	tok := p.cur

	switch p.cur.Kind {
	case token.IDENT:
		name := p.cur.Lexeme
		p.advance()
		if p.cur.Kind == token.LT {
			p.advance()
			var args []ast.TypeNode
			for {
				args = append(args, p.parseType())
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.GT, ">")
			t = ast.NewGenericType(p.gen, tok, name, args)
		} else {
			t = ast.NewNameType(p.gen, tok, name)
		}
	case token.NIL_LIT:
		p.advance()
		t = ast.NewNameType(p.gen, tok, "nil")
	case token.LBRACE:
		p.advance()
		var fields []ast.InlineRecordField
		for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
			fname := p.expect(token.IDENT, "field name").Lexeme
			p.expect(token.AS, "as")
			fields = append(fields, ast.InlineRecordField{Name: fname, Type: p.parseType()})
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACE, "}")
		t = ast.NewInlineRecordType(p.gen, tok, fields)
	case token.LPAREN:
		p.advance()
		var params []ast.TypeNode
		variadic := false
		for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
			if p.cur.Kind == token.ELLIPSIS {
				variadic = true
				p.advance()
				break
			}
			params = append(params, p.parseType())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN, ")")
		p.expect(token.ARROW, "->")
		ret := p.parseType()
		t = ast.NewInlineFunctionType(p.gen, tok, params, ret, variadic)
	default:
		p.errorf(p.cur, "expected a type, got %q", p.cur.Lexeme)
		p.advance()
		return ast.NewNameType(p.gen, tok, "")
	}

	for p.cur.Kind == token.QUESTION {
		p.advance()
		t = ast.NewOptionalType(p.gen, tok, t)
	}
	return t
}

// ---------------------------------------------------------------------------
// Expressions (precedence climbing, lowest first)

func (p *parser) parseExpr() ast.Expr { return p.parseAssign() }

func (p *parser) parseAssign() ast.Expr {
	target := p.parseTernary()
	switch p.cur.Kind {
	case token.ASSIGN, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ:
		tok := p.cur
		op := opLexeme(p.cur)
		p.advance()
		value := p.parseAssign()
		return ast.NewAssignExpr(p.gen, tok, target, op, value)
	}
	return target
}

func (p *parser) parseTernary() ast.Expr {
	cond := p.parseCoalesce()
	if p.cur.Kind == token.QUESTION {
		tok := p.cur
		p.advance()
		then := p.parseExpr()
		p.expect(token.COLON, ":")
		els := p.parseExpr()
		return ast.NewTernaryExpr(p.gen, tok, cond, then, els)
	}
	return cond
}

func (p *parser) parseCoalesce() ast.Expr {
	left := p.parseOr()
	for p.cur.Kind == token.QQ {
		tok := p.cur
		p.advance()
		left = ast.NewLogicalExpr(p.gen, tok, "??", left, p.parseOr())
	}
	return left
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.cur.Kind == token.PIPEPIPE {
		tok := p.cur
		p.advance()
		left = ast.NewLogicalExpr(p.gen, tok, "||", left, p.parseAnd())
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseEquality()
	for p.cur.Kind == token.AMPAMP {
		tok := p.cur
		p.advance()
		left = ast.NewLogicalExpr(p.gen, tok, "&&", left, p.parseEquality())
	}
	return left
}

func (p *parser) parseEquality() ast.Expr {
	left := p.parseComparison()
	for p.cur.Kind == token.EQ || p.cur.Kind == token.NE {
		tok := p.cur
		op := opLexeme(p.cur)
		p.advance()
		left = ast.NewBinaryExpr(p.gen, tok, op, left, p.parseComparison())
	}
	return left
}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for {
		switch p.cur.Kind {
		case token.LT, token.LE, token.GT, token.GE:
			tok := p.cur
			op := opLexeme(p.cur)
			p.advance()
			left = ast.NewBinaryExpr(p.gen, tok, op, left, p.parseAdditive())
		case token.IS:
			tok := p.cur
			p.advance()
			left = ast.NewIsExpr(p.gen, tok, left, p.parseType())
		default:
			return left
		}
	}
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Kind == token.PLUS || p.cur.Kind == token.MINUS {
		tok := p.cur
		op := opLexeme(p.cur)
		p.advance()
		left = ast.NewBinaryExpr(p.gen, tok, op, left, p.parseMultiplicative())
	}
	return left
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur.Kind == token.STAR || p.cur.Kind == token.SLASH || p.cur.Kind == token.PERCENT {
		tok := p.cur
		op := opLexeme(p.cur)
		p.advance()
		left = ast.NewBinaryExpr(p.gen, tok, op, left, p.parseUnary())
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	switch p.cur.Kind {
	case token.BANG, token.MINUS:
		tok := p.cur
		op := opLexeme(p.cur)
		p.advance()
		return ast.NewUnaryExpr(p.gen, tok, op, p.parseUnary())
	case token.PLUSPLUS, token.MINUSMINUS:
		tok := p.cur
		op := opLexeme(p.cur)
		p.advance()
		return ast.NewUpdateExpr(p.gen, tok, p.parseUnary(), op, true)
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.LPAREN:
			tok := p.cur
			p.advance()
			var args []ast.Expr
			for p.cur.Kind != token.RPAREN && p.cur.Kind != token.EOF {
				args = append(args, p.parseExpr())
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN, ")")
			x = ast.NewCallExpr(p.gen, tok, x, args)
		case token.DOT, token.QDOT:
			optional := p.cur.Kind == token.QDOT
			tok := p.cur
			p.advance()
			name := p.expect(token.IDENT, "member name").Lexeme
			x = ast.NewPropertyGet(p.gen, tok, x, optional, name)
		case token.LBRACKET:
			tok := p.cur
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET, "]")
			x = ast.NewSubscriptExpr(p.gen, tok, x, idx)
		case token.PLUSPLUS, token.MINUSMINUS:
			tok := p.cur
			op := opLexeme(p.cur)
			p.advance()
			x = ast.NewUpdateExpr(p.gen, tok, x, op, false)
		default:
			return x
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch p.cur.Kind {
	case token.INT:
		p.advance()
		return ast.NewLiteral(p.gen, tok, ast.LitInt, tok.Lexeme)
	case token.FLOAT:
		p.advance()
		return ast.NewLiteral(p.gen, tok, ast.LitFloat, tok.Lexeme)
	case token.STRING:
		p.advance()
		return ast.NewLiteral(p.gen, tok, ast.LitString, tok.Lexeme)
	case token.TRUE, token.FALSE:
		p.advance()
		return ast.NewLiteral(p.gen, tok, ast.LitBool, tok.Lexeme)
	case token.NIL_LIT:
		p.advance()
		return ast.NewLiteral(p.gen, tok, ast.LitNil, tok.Lexeme)
	case token.IDENT, token.DATA:
		p.advance()
		return ast.NewVariable(p.gen, tok, tok.Lexeme)
	case token.SPAWN:
		p.advance()
		return ast.NewVariable(p.gen, tok, "spawn")
	case token.THIS:
		p.advance()
		return ast.NewThisExpr(p.gen, tok)
	case token.SUPER:
		p.advance()
		method := ""
		if p.accept(token.DOT) {
			method = p.expect(token.IDENT, "method name").Lexeme
		}
		return ast.NewSuperExpr(p.gen, tok, method)
	case token.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RPAREN, ")")
		return x
	case token.LBRACKET:
		p.advance()
		var elems []ast.Expr
		for p.cur.Kind != token.RBRACKET && p.cur.Kind != token.EOF {
			elems = append(elems, p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RBRACKET, "]")
		return ast.NewListLiteral(p.gen, tok, elems)
	case token.LBRACE:
		return p.parseRecordLiteral()
	case token.MATCH:
		return p.parseMatch()
	case token.SIZEOF:
		p.advance()
		p.expect(token.LT, "<")
		typ := p.parseType()
		p.expect(token.GT, ">")
		return ast.NewSizeofExpr(p.gen, tok, typ)
	case token.RETYPE:
		p.advance()
		p.expect(token.LT, "<")
		typ := p.parseType()
		p.expect(token.GT, ">")
		p.expect(token.LPAREN, "(")
		x := p.parseExpr()
		p.expect(token.RPAREN, ")")
		return ast.NewRetypeExpr(p.gen, tok, typ, x)
	}
	p.errorf(tok, "unexpected token %q in expression", tok.Lexeme)
	p.advance()
	return ast.NewLiteral(p.gen, tok, ast.LitNil, "nil")
}

func (p *parser) parseRecordLiteral() ast.Expr {
	tok := p.expect(token.LBRACE, "{")
	var fields []ast.RecordField
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		name := p.expect(token.IDENT, "field name").Lexeme
		p.expect(token.COLON, ":")
		fields = append(fields, ast.RecordField{Name: name, Value: p.parseExpr()})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewRecordLiteral(p.gen, tok, fields)
}

// parseMatch parses `match (cond) { case E.A: expr, case E.B(n): expr,
// case _: expr }`.
func (p *parser) parseMatch() ast.Expr {
	tok := p.expect(token.MATCH, "match")
	p.expect(token.LPAREN, "(")
	cond := p.parseExpr()
	p.expect(token.RPAREN, ")")
	p.expect(token.LBRACE, "{")

	var cases []ast.MatchCase
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		p.expect(token.CASE, "case")

		var pattern ast.Expr
		bound := ""
		if p.cur.Kind == token.IDENT && p.cur.Lexeme == "_" {
			p.advance()
		} else {
			pattern = p.parseMatchPattern(&bound)
		}
		p.expect(token.COLON, ":")
		body := p.parseExpr()
		cases = append(cases, ast.MatchCase{Pattern: pattern, Bound: bound, Body: body})
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RBRACE, "}")
	return ast.NewMatchExpr(p.gen, tok, cond, cases)
}

// parseMatchPattern parses `Enum.Variant` or `Enum.Variant(bound)`.
func (p *parser) parseMatchPattern(bound *string) ast.Expr {
	enumTok := p.expect(token.IDENT, "enum name")
	x := ast.Expr(ast.NewVariable(p.gen, enumTok, enumTok.Lexeme))
	dotTok := p.expect(token.DOT, ".")
	variant := p.expect(token.IDENT, "variant name").Lexeme
	x = ast.NewPropertyGet(p.gen, dotTok, x, false, variant)
	if p.accept(token.LPAREN) {
		*bound = p.expect(token.IDENT, "binding name").Lexeme
		p.expect(token.RPAREN, ")")
	}
	return x
}

func opLexeme(t token.Token) string { return t.Lexeme }

func unquote(lexeme string) string {
	if len(lexeme) >= 2 && lexeme[0] == '"' {
		return lexeme[1 : len(lexeme)-1]
	}
	return lexeme
}
