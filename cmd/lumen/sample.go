package main

import (
	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/config"
)

// sampleProgram is the canned program `check` runs until a front-end feeds
// real declarations in:
//
//	fun double<N>(x: N) -> N where Number<Self=N> { return add(x, x) }
//	fun main() -> Int64 { let a = 1; return double(a) }
func sampleProgram() []*ast.FunctionDeclaration {
	double := &ast.FunctionDeclaration{
		Name:       "double",
		Generics:   []string{"N"},
		Parameters: []ast.ParameterDeclaration{{Name: "x", Type: &ast.TypeExpression{Name: "N"}}},
		ReturnType: &ast.TypeExpression{Name: "N"},
		Requirements: []ast.RequirementDeclaration{{
			TraitName: config.NumberTraitName,
			Bindings:  map[string]*ast.TypeExpression{"Self": {Name: "N"}},
		}},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.CallExpression{
				Name: config.AddFuncName,
				Arguments: []ast.Expression{
					&ast.Identifier{Name: "x"},
					&ast.Identifier{Name: "x"},
				},
			}},
		}},
	}

	main := &ast.FunctionDeclaration{
		Name:       config.MainFuncName,
		ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.LetStatement{
				Name:  "a",
				Type:  &ast.TypeExpression{Name: config.Int64TypeName},
				Value: &ast.IntLiteral{Value: "1"},
			},
			&ast.ReturnStatement{Value: &ast.CallExpression{
				Name:      "double",
				Arguments: []ast.Expression{&ast.Identifier{Name: "a"}},
			}},
		}},
	}

	return []*ast.FunctionDeclaration{double, main}
}
