package ast

import "github.com/angara-lang/angarac/internal/token"

// Access is the visibility level of a class member.
type Access int

const (
	Public Access = iota
	Private
)

// FieldMember is a class field declaration.
type FieldMember struct {
	Name   string
	Type   TypeNode // nil if inferred from Init
	Init   Expr
	Const  bool
	Access Access
	Tok    token.Token
}

// MethodMember is a class method declaration (FunctionDecl with HasThis set).
type MethodMember struct {
	Fn     *FunctionDecl
	Access Access
}

// ClassMember is exactly one of Field or Method.
type ClassMember struct {
	Field  *FieldMember
	Method *MethodMember
}

// ClassDecl is `class Name(Super) : Contract, ... uses Trait, ... { ... }`.
type ClassDecl struct {
	base
	Name      string
	Super     string // "" if none
	Contracts []string
	Traits    []string
	Members   []ClassMember
	Exported  bool
}

func NewClassDecl(g *IDGen, t token.Token, name, super string, contracts, traits []string, members []ClassMember, exported bool) *ClassDecl {
	return &ClassDecl{base: newBase(g, t), Name: name, Super: super, Contracts: contracts, Traits: traits, Members: members, Exported: exported}
}
func (*ClassDecl) stmtNode() {}

// TraitDecl is a bundle of method prototypes a class can "use".
type TraitDecl struct {
	base
	Name     string
	Methods  []*FunctionDecl // bodies are always nil (prototypes)
	Exported bool
}

func NewTraitDecl(g *IDGen, t token.Token, name string, methods []*FunctionDecl, exported bool) *TraitDecl {
	return &TraitDecl{base: newBase(g, t), Name: name, Methods: methods, Exported: exported}
}
func (*TraitDecl) stmtNode() {}

// ContractMember is exactly one of Field or Method.
type ContractMember struct {
	Field  *FieldMember
	Method *FunctionDecl
}

// ContractDecl is a nominal set of required members a class can "sign".
type ContractDecl struct {
	base
	Name     string
	Members  []ContractMember
	Exported bool
}

func NewContractDecl(g *IDGen, t token.Token, name string, members []ContractMember, exported bool) *ContractDecl {
	return &ContractDecl{base: newBase(g, t), Name: name, Members: members, Exported: exported}
}
func (*ContractDecl) stmtNode() {}

// DataField is one field of a data type: explicit type required, no default.
type DataField struct {
	Name  string
	Type  TypeNode
	Const bool
}

// DataDecl is an immutable-by-construction named record with a synthesized
// constructor and structural equality.
type DataDecl struct {
	base
	Name     string
	Fields   []DataField
	Foreign  bool
	Exported bool
}

func NewDataDecl(g *IDGen, t token.Token, name string, fields []DataField, foreign, exported bool) *DataDecl {
	return &DataDecl{base: newBase(g, t), Name: name, Fields: fields, Foreign: foreign, Exported: exported}
}
func (*DataDecl) stmtNode() {}

// EnumVariant is one variant of an enum; Params is empty for a nullary
// variant (e.g. `A`) or non-empty for a payload-carrying one (e.g. `B(i64)`).
type EnumVariant struct {
	Name   string
	Params []TypeNode
}

// EnumDecl is a tagged-union type.
type EnumDecl struct {
	base
	Name     string
	Variants []EnumVariant
	Exported bool
}

func NewEnumDecl(g *IDGen, t token.Token, name string, variants []EnumVariant, exported bool) *EnumDecl {
	return &EnumDecl{base: newBase(g, t), Name: name, Variants: variants, Exported: exported}
}
func (*EnumDecl) stmtNode() {}
