package backend

import (
	"github.com/angara-lang/angarac/internal/ast"
)

func (e *Emitter) stmts(w *writer, list []ast.Stmt) {
	for _, s := range list {
		e.stmt(w, s)
	}
}

func (e *Emitter) stmt(w *writer, s ast.Stmt) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		w.line("%s;", e.expr(st.X))
	case *ast.VarDecl:
		e.declareLocal(st.Name)
		if st.Init != nil {
			w.line("AngaraObject %s = %s;", sanitize(st.Name), e.expr(st.Init))
		} else {
			w.line("AngaraObject %s = angara_create_nil();", sanitize(st.Name))
		}
	case *ast.Block:
		w.line("{")
		e.enterScope()
		w.indent++
		e.stmts(w, st.Stmts)
		w.indent--
		e.exitScope()
		w.line("}")
	case *ast.IfStmt:
		e.ifStmt(w, st)
	case *ast.WhileStmt:
		w.line("while (angara_is_truthy(%s)) {", e.expr(st.Cond))
		e.enterScope()
		w.indent++
		e.stmt(w, st.Body)
		w.indent--
		e.exitScope()
		w.line("}")
	case *ast.ForStmt:
		e.forStmt(w, st)
	case *ast.ForInStmt:
		e.forInStmt(w, st)
	case *ast.ReturnStmt:
		if st.Value != nil {
			w.line("return %s;", e.expr(st.Value))
		} else {
			w.line("return angara_create_nil();")
		}
	case *ast.BreakStmt:
		w.line("break;")
	case *ast.ThrowStmt:
		w.line("angara_throw(%s);", e.expr(st.Value))
	case *ast.TryStmt:
		e.tryStmt(w, st)
	case *ast.AttachStmt, *ast.ForeignHeaderStmt, *ast.FunctionDecl, *ast.ClassDecl,
		*ast.TraitDecl, *ast.ContractDecl, *ast.DataDecl, *ast.EnumDecl:
		// lowered by the dedicated section emitters
	}
}

func (e *Emitter) ifStmt(w *writer, st *ast.IfStmt) {
	if st.IsLetBinding() {
		// `if let x = opt` binds x to the unwrapped value inside the
		// then-branch; at the C level unwrapping is a no-op.
		w.line("{")
		e.enterScope()
		w.indent++
		e.declareLocal(st.LetName)
		w.line("AngaraObject %s = %s;", sanitize(st.LetName), e.expr(st.LetInit))
		w.line("if (!angara_is_nil(%s)) {", sanitize(st.LetName))
		w.indent++
		e.stmt(w, st.Then)
		w.indent--
		if st.Else != nil {
			w.line("} else {")
			w.indent++
			e.stmt(w, st.Else)
			w.indent--
		}
		w.line("}")
		w.indent--
		e.exitScope()
		w.line("}")
		return
	}

	w.line("if (angara_is_truthy(%s)) {", e.expr(st.Cond))
	w.indent++
	e.stmt(w, st.Then)
	w.indent--
	if st.Else != nil {
		w.line("} else {")
		w.indent++
		e.stmt(w, st.Else)
		w.indent--
	}
	w.line("}")
}

func (e *Emitter) forStmt(w *writer, st *ast.ForStmt) {
	w.line("{")
	e.enterScope()
	w.indent++
	if st.Init != nil {
		e.stmt(w, st.Init)
	}
	cond := "1"
	if st.Cond != nil {
		cond = "angara_is_truthy(" + e.expr(st.Cond) + ")"
	}
	w.line("while (%s) {", cond)
	w.indent++
	e.stmt(w, st.Body)
	if st.Post != nil {
		e.stmt(w, st.Post)
	}
	w.indent--
	w.line("}")
	w.indent--
	e.exitScope()
	w.line("}")
}

func (e *Emitter) forInStmt(w *writer, st *ast.ForInStmt) {
	it := e.newTmp("it")
	idx := e.newTmp("i")
	w.line("{")
	e.enterScope()
	w.indent++
	w.line("AngaraObject %s = %s;", it, e.expr(st.Iterable))
	w.line("for (int64_t %s = 0; %s < angara_list_len(%s); %s++) {", idx, idx, it, idx)
	w.indent++
	e.declareLocal(st.Name)
	w.line("AngaraObject %s = angara_list_get(%s, %s);", sanitize(st.Name), it, idx)
	e.stmt(w, st.Body)
	w.indent--
	w.line("}")
	w.indent--
	e.exitScope()
	w.line("}")
}

// tryStmt lowers try/catch onto the runtime's per-thread exception-frame
// list: push a frame, setjmp, run the block on zero return, pop; on
// non-zero return bind the live exception and run the catch block
func (e *Emitter) tryStmt(w *writer, st *ast.TryStmt) {
	frame := e.newTmp("frame")
	w.line("{")
	e.enterScope()
	w.indent++
	w.line("AngaraExcFrame *%s = angara_exc_push();", frame)
	w.line("if (setjmp(%s->buf) == 0) {", frame)
	w.indent++
	e.stmt(w, st.Try)
	w.line("angara_exc_pop();")
	w.indent--
	w.line("} else {")
	w.indent++
	e.declareLocal(st.CatchName)
	w.line("AngaraObject %s = angara_current_exception();", sanitize(st.CatchName))
	e.stmt(w, st.Catch)
	w.indent--
	w.line("}")
	w.indent--
	e.exitScope()
	w.line("}")
}
