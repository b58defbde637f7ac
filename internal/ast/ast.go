// Package ast defines the Abstract Syntax Tree produced by the frontend
// . The checker and backend never mutate these nodes; derived
// information (resolved types, narrowings, variable origins) lives in side
// tables keyed by NodeID rather than on the node itself.
//
// This is a closed algebraic sum rather than a double-dispatch visitor:
// every Stmt and Expr implementation is a small struct, and analysis or
// lowering is one function per shape using a type switch over the
// interface. That gives exhaustive-match checking for free and removes the
// need for an Any-typed return value between visitor and caller
package ast

import "github.com/angara-lang/angarac/internal/token"

// NodeID is a stable identifier assigned at parse time.
type NodeID uint32

// IDGen assigns NodeIDs during parsing; one instance per parse of one module.
type IDGen struct{ next NodeID }

func NewIDGen() *IDGen { return &IDGen{} }

func (g *IDGen) next_() NodeID {
	g.next++
	return g.next
}

// Node is the minimal capability every AST node provides.
type Node interface {
	ID() NodeID
	Pos() token.Token
}

type base struct {
	id  NodeID
	tok token.Token
}

func (b base) ID() NodeID       { return b.id }
func (b base) Pos() token.Token { return b.tok }

func newBase(g *IDGen, t token.Token) base {
	return base{id: g.next_(), tok: t}
}

// Stmt is any top-level or nested statement.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any expression.
type Expr interface {
	Node
	exprNode()
}

// TypeNode is any syntactic type annotation.
type TypeNode interface {
	Node
	typeNode()
}

// Program is the parsed form of one source module: an ordered top-level
// statement list. The checker runs its passes over it.
type Program struct {
	Path  string // canonical source path, set by the driver
	Stmts []Stmt
}
