package ast

import "github.com/angara-lang/angarac/internal/token"

// NameType is a bare type name, e.g. `i64`, `string`, `MyClass`.
type NameType struct {
	base
	Name string
}

func NewNameType(g *IDGen, t token.Token, name string) *NameType {
	return &NameType{base: newBase(g, t), Name: name}
}
func (*NameType) typeNode() {}

// GenericType is a name applied to type arguments, e.g. `list<i64>`.
type GenericType struct {
	base
	Name string
	Args []TypeNode
}

func NewGenericType(g *IDGen, t token.Token, name string, args []TypeNode) *GenericType {
	return &GenericType{base: newBase(g, t), Name: name, Args: args}
}
func (*GenericType) typeNode() {}

// OptionalType is `T?`.
type OptionalType struct {
	base
	Base TypeNode
}

func NewOptionalType(g *IDGen, t token.Token, inner TypeNode) *OptionalType {
	return &OptionalType{base: newBase(g, t), Base: inner}
}
func (*OptionalType) typeNode() {}

// InlineRecordType is a structural record type written at an annotation
// site, e.g. `{ x as i64, y as i64 }`.
type InlineRecordType struct {
	base
	Fields []InlineRecordField
}

type InlineRecordField struct {
	Name string
	Type TypeNode
}

func NewInlineRecordType(g *IDGen, t token.Token, fields []InlineRecordField) *InlineRecordType {
	return &InlineRecordType{base: newBase(g, t), Fields: fields}
}
func (*InlineRecordType) typeNode() {}

// InlineFunctionType is a function-shaped type annotation, e.g.
// `(i64, i64) -> bool`.
type InlineFunctionType struct {
	base
	Params   []TypeNode
	Return   TypeNode // nil means implicit nil return
	Variadic bool
}

func NewInlineFunctionType(g *IDGen, t token.Token, params []TypeNode, ret TypeNode, variadic bool) *InlineFunctionType {
	return &InlineFunctionType{base: newBase(g, t), Params: params, Return: ret, Variadic: variadic}
}
func (*InlineFunctionType) typeNode() {}
