package checker

import (
	"github.com/angara-lang/angarac/internal/ast"
	"github.com/angara-lang/angarac/internal/diag"
	"github.com/angara-lang/angarac/internal/types"
)

// runDeclarationPass is Pass 1: for each top-level
// class/trait/contract/data/enum, create an empty placeholder semantic type
// and record it under its name in the checker's per-kind maps. Because every later holder of the
// returned pointer observes Pass 2's mutations in place, declaration order
// here does not need to match dependency order.
func (c *Checker) runDeclarationPass(prog *ast.Program) {
	for _, stmt := range prog.Stmts {
		switch d := stmt.(type) {
		case *ast.ClassDecl:
			if c.typeNameTaken(d.Name) {
				c.reportDuplicateTypeName(d, d.Name)
				continue
			}
			cls := types.NewClass(d.Name)
			c.Classes[d.Name] = cls
			c.ClassDecls[d.Name] = d
			c.declareType(d, d.Name, cls, d.Exported)
		case *ast.TraitDecl:
			if c.typeNameTaken(d.Name) {
				c.reportDuplicateTypeName(d, d.Name)
				continue
			}
			tr := types.NewTrait(d.Name)
			c.Traits[d.Name] = tr
			c.TraitDecls[d.Name] = d
			c.declareType(d, d.Name, tr, d.Exported)
		case *ast.ContractDecl:
			if c.typeNameTaken(d.Name) {
				c.reportDuplicateTypeName(d, d.Name)
				continue
			}
			ct := types.NewContract(d.Name)
			c.Contracts[d.Name] = ct
			c.ContractDecls[d.Name] = d
			c.declareType(d, d.Name, ct, d.Exported)
		case *ast.DataDecl:
			if c.typeNameTaken(d.Name) {
				c.reportDuplicateTypeName(d, d.Name)
				continue
			}
			data := types.NewData(d.Name)
			data.IsForeign = d.Foreign
			c.Datas[d.Name] = data
			c.DataDecls[d.Name] = d
			c.declareType(d, d.Name, data, d.Exported)
		case *ast.EnumDecl:
			if c.typeNameTaken(d.Name) {
				c.reportDuplicateTypeName(d, d.Name)
				continue
			}
			en := types.NewEnum(d.Name)
			c.Enums[d.Name] = en
			c.EnumDecls[d.Name] = d
			c.declareType(d, d.Name, en, d.Exported)
		case *ast.FunctionDecl:
			c.FuncDecls[d.Name] = d
		}
	}
}

func (c *Checker) typeNameTaken(name string) bool {
	_, a := c.Classes[name]
	_, b := c.Traits[name]
	_, d := c.Contracts[name]
	_, e := c.Datas[name]
	_, f := c.Enums[name]
	return a || b || d || e || f
}

// declareType adds an exported type to the module's export surface. Type
// names are not entered in the symbol table: typeNameTaken catches clashes
// between two type declarations only, and a function, variable or attached
// name that reuses a type's name is not reported as a redeclaration.
func (c *Checker) declareType(node ast.Node, name string, t types.Type, exported bool) {
	if exported {
		c.Exports[name] = t
	}
}

func (c *Checker) reportDuplicateTypeName(node ast.Node, name string) {
	c.error(diag.CodeRedeclaration, node.Pos(), "%q is already declared in this module", name)
}
