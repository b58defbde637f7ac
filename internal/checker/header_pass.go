package checker

import (
	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/types"
)

// runHeaderPass is Pass 2, filling in the placeholders
// Pass 1 created. Sub-order matters: enums and data types have no
// dependencies on other user types besides themselves, contracts/traits
// describe requirements that classes are later checked against, and
// classes/functions come last since they are the only constructs that can
// reference any of the former.
func (c *Checker) runHeaderPass(prog *ast.Program) {
	for _, d := range c.EnumDecls {
		c.headerEnum(d)
	}
	for _, d := range c.DataDecls {
		c.headerData(d)
	}
	for _, d := range c.ContractDecls {
		c.headerContract(d)
	}
	for _, d := range c.TraitDecls {
		c.headerTrait(d)
	}
	// Fill every class's members before validating any contracts or traits:
	// a requirement may be satisfied by an inherited member of a class that
	// has not been filled yet.
	for _, d := range c.ClassDecls {
		c.headerClassMembers(d)
	}
	for _, d := range c.ClassDecls {
		c.headerClassValidate(d)
	}
	for _, stmt := range prog.Stmts {
		if fn, ok := stmt.(*ast.FunctionDecl); ok {
			c.headerFunction(fn)
		}
	}
}

func (c *Checker) headerEnum(d *ast.EnumDecl) {
	en := c.Enums[d.Name]
	for _, v := range d.Variants {
		if _, dup := en.Variants[v.Name]; dup {
			c.error(diag.CodeRedeclaration, d.Pos(), "duplicate variant %q in enum %q", v.Name, d.Name)
			continue
		}
		params := make([]types.Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = c.resolveTypeNode(p)
		}
		en.Variants[v.Name] = types.NewFunction(params, en, false)
		en.Order = append(en.Order, v.Name)
	}
}

func (c *Checker) headerData(d *ast.DataDecl) {
	data := c.Datas[d.Name]
	fieldTypes := make([]types.Type, 0, len(d.Fields))
	for _, f := range d.Fields {
		ft := c.resolveTypeNode(f.Type)
		data.Fields = append(data.Fields, types.DataField{Name: f.Name, Type: ft, Const: f.Const})
		fieldTypes = append(fieldTypes, ft)
	}
	data.Constructor = types.NewFunction(fieldTypes, data, false)
}

func (c *Checker) headerContract(d *ast.ContractDecl) {
	ct := c.Contracts[d.Name]
	for _, m := range d.Members {
		switch {
		case m.Field != nil:
			ft := c.resolveTypeNode(m.Field.Type)
			ct.RequiredFields[m.Field.Name] = &types.RequiredMember{Type: ft, IsField: true, Const: m.Field.Const}
		case m.Method != nil:
			params := make([]types.Type, len(m.Method.Params))
			for i, p := range m.Method.Params {
				params[i] = c.resolveTypeNode(p.Type)
			}
			ret := c.resolveTypeNode(m.Method.Return)
			ct.RequiredMethods[m.Method.Name] = &types.RequiredMember{Type: types.NewFunction(params, ret, m.Method.Variadic)}
		}
	}
}

func (c *Checker) headerTrait(d *ast.TraitDecl) {
	tr := c.Traits[d.Name]
	for _, m := range d.Methods {
		if _, dup := tr.Methods[m.Name]; dup {
			c.error(diag.CodeTraitMethod, d.Pos(), "duplicate prototype %q in trait %q", m.Name, d.Name)
			continue
		}
		params := make([]types.Type, len(m.Params))
		for i, p := range m.Params {
			params[i] = c.resolveTypeNode(p.Type)
		}
		tr.Methods[m.Name] = types.NewFunction(params, c.resolveTypeNode(m.Return), m.Variadic)
	}
}

func (c *Checker) headerClassMembers(d *ast.ClassDecl) {
	cls := c.Classes[d.Name]

	if d.Super != "" {
		super, ok := c.Classes[d.Super]
		if !ok {
			c.error(diag.CodeUndefinedName, d.Pos(), "unknown superclass %q for class %q%s", d.Super, d.Name, c.suggestName(d.Super))
		} else if c.introducesCycle(cls, super) {
			c.error(diag.CodeRedeclaration, d.Pos(), "class %q cannot inherit from %q: inheritance cycle", d.Name, d.Super)
		} else {
			cls.Super = super
		}
	}

	for _, m := range d.Members {
		switch {
		case m.Field != nil:
			ft := c.resolveTypeNode(m.Field.Type)
			cls.Fields[m.Field.Name] = &types.Member{Type: ft, Access: convertAccess(m.Field.Access), Const: m.Field.Const}
		case m.Method != nil:
			fn := m.Method.Fn
			params := make([]types.Type, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = c.resolveTypeNode(p.Type)
			}
			ret := c.resolveTypeNode(fn.Return)
			cls.Methods[fn.Name] = &types.Member{
				Type:   types.NewFunction(params, ret, fn.Variadic),
				Access: convertAccess(m.Method.Access),
			}
		}
	}
}

func (c *Checker) headerClassValidate(d *ast.ClassDecl) {
	cls := c.Classes[d.Name]
	for _, contractName := range d.Contracts {
		ct, ok := c.Contracts[contractName]
		if !ok {
			c.error(diag.CodeUndefinedName, d.Pos(), "unknown contract %q%s", contractName, c.suggestName(contractName))
			continue
		}
		c.validateSignedContract(d, cls, ct)
	}
	for _, traitName := range d.Traits {
		tr, ok := c.Traits[traitName]
		if !ok {
			c.error(diag.CodeUndefinedName, d.Pos(), "unknown trait %q%s", traitName, c.suggestName(traitName))
			continue
		}
		c.validateUsedTrait(d, cls, tr)
	}
}

func (c *Checker) introducesCycle(cls, super *types.Class) bool {
	for s := super; s != nil; s = s.Super {
		if s == cls {
			return true
		}
	}
	return false
}

func convertAccess(a ast.Access) types.MemberAccess {
	if a == ast.Private {
		return types.AccessPrivate
	}
	return types.AccessPublic
}

// classMember walks the inheritance chain to find a field or method.
func classMember(cls *types.Class, name string) (*types.Member, bool) {
	for c := cls; c != nil; c = c.Super {
		if m, ok := c.Fields[name]; ok {
			return m, true
		}
		if m, ok := c.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// validateSignedContract checks that, for each contract the class signs,
// every contract-required member is present as a public member with the
// exact type, kind, and const-ness.
func (c *Checker) validateSignedContract(d *ast.ClassDecl, cls *types.Class, ct *types.Contract) {
	notePos := d.Pos()
	if cd, ok := c.ContractDecls[ct.Name]; ok {
		notePos = cd.Pos()
	}
	check := func(name string, req *types.RequiredMember) {
		m, ok := classMember(cls, name)
		if !ok {
			c.errorNote(diag.CodeContractMember, d.Pos(), notePos, "contract requirement declared here",
				"class %q does not implement %q required by contract %q", d.Name, name, ct.Name)
			return
		}
		if m.Access != types.AccessPublic {
			c.error(diag.CodeContractMember, d.Pos(), "member %q of class %q must be public to satisfy contract %q", name, d.Name, ct.Name)
			return
		}
		if req.IsField && m.Const != req.Const {
			c.error(diag.CodeContractMember, d.Pos(), "member %q of class %q has wrong const-ness for contract %q", name, d.Name, ct.Name)
			return
		}
		if !types.Equals(m.Type, req.Type) {
			c.error(diag.CodeContractMember, d.Pos(), "member %q of class %q has type %s, contract %q requires %s", name, d.Name, m.Type.String(), ct.Name, req.Type.String())
		}
	}
	for name, req := range ct.RequiredFields {
		check(name, req)
	}
	for name, req := range ct.RequiredMethods {
		check(name, req)
	}
}

// validateUsedTrait checks that every trait method is implemented with a
// structurally equal Function signature.
func (c *Checker) validateUsedTrait(d *ast.ClassDecl, cls *types.Class, tr *types.Trait) {
	for name, sig := range tr.Methods {
		m, ok := classMember(cls, name)
		if !ok {
			c.error(diag.CodeTraitMethod, d.Pos(), "class %q does not implement %q required by trait %q", d.Name, name, tr.Name)
			continue
		}
		fn, ok := m.Type.(*types.Function)
		if !ok || !fn.Equals(sig) {
			c.error(diag.CodeTraitMethod, d.Pos(), "class %q method %q does not match trait %q signature %s", d.Name, name, tr.Name, sig.String())
		}
	}
}

func (c *Checker) headerFunction(d *ast.FunctionDecl) {
	params := make([]types.Type, len(d.Params))
	for i, p := range d.Params {
		params[i] = c.resolveTypeNode(p.Type)
	}
	ret := c.resolveTypeNode(d.Return)
	fn := types.NewFunction(params, ret, d.Variadic)
	c.Funcs[d.Name] = fn

	_, prior, ok := c.Symbols.Declare(d.Pos(), d.Name, fn, true, nil)
	if !ok {
		c.errorNote(diag.CodeRedeclaration, d.Pos(), prior.Decl, "previous declaration here", "%q is already declared in this module", d.Name)
		return
	}
	if d.Exported || d.IsMain() {
		c.Exports[d.Name] = fn
	}
}
