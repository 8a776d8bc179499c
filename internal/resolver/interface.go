package resolver

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
)

// ResolveFunctionInterface turns a declaration's signature into a head.
// Declared generics become placeholders scoped to this interface; parameter,
// return, and requirement types may reference them by name.
func ResolveFunctionInterface(decl *ast.FunctionDeclaration, scope *Scope) (*program.FunctionHead, error) {
	generics := make(map[string]uuid.UUID, len(decl.Generics))
	for _, name := range decl.Generics {
		if _, ok := generics[name]; ok {
			return nil, diagnostics.Errorf(diagnostics.ErrR001, decl.Pos, "duplicate generic %s", name)
		}
		generics[name] = uuid.New()
	}

	parameters := make([]program.Parameter, len(decl.Parameters))
	for i, param := range decl.Parameters {
		t, err := resolveTypeExpression(param.Type, generics, scope)
		if err != nil {
			return nil, err
		}
		parameters[i] = program.Parameter{Name: param.Name, Type: t}
	}

	returnType := program.VoidType()
	if decl.ReturnType != nil {
		t, err := resolveTypeExpression(decl.ReturnType, generics, scope)
		if err != nil {
			return nil, err
		}
		returnType = t
	}

	requirements := make([]*program.TraitBinding, 0, len(decl.Requirements))
	for _, req := range decl.Requirements {
		binding, err := resolveRequirement(req, generics, scope)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, binding)
	}

	return program.NewFunctionHead(decl.Name, &program.FunctionInterface{
		Parameters:   parameters,
		ReturnType:   returnType,
		Requirements: requirements,
		Generics:     generics,
	}), nil
}

func resolveRequirement(req ast.RequirementDeclaration, generics map[string]uuid.UUID, scope *Scope) (*program.TraitBinding, error) {
	trait, ok := scope.Traits[req.TraitName]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.ErrC001, req.Pos, "unknown trait %s", req.TraitName)
	}
	assignments := make(map[string]*program.Type, len(req.Bindings))
	for name, texpr := range req.Bindings {
		if _, ok := trait.Generics[name]; !ok {
			return nil, diagnostics.Errorf(diagnostics.ErrC001, req.Pos,
				"trait %s has no generic %s", trait.Name, name)
		}
		t, err := resolveTypeExpression(texpr, generics, scope)
		if err != nil {
			return nil, err
		}
		assignments[name] = t
	}
	if len(assignments) != len(trait.Generics) {
		return nil, diagnostics.Errorf(diagnostics.ErrC001, req.Pos,
			"requirement %s must bind every generic of the trait", req.TraitName)
	}
	return trait.Binding(assignments), nil
}

// resolveTypeExpression maps a written type onto the program model:
// declared generics first, then nominal types from the scope.
func resolveTypeExpression(texpr *ast.TypeExpression, generics map[string]uuid.UUID, scope *Scope) (*program.Type, error) {
	if texpr == nil {
		return program.VoidType(), nil
	}
	if generic, ok := generics[texpr.Name]; ok {
		if len(texpr.Arguments) > 0 {
			return nil, diagnostics.Errorf(diagnostics.ErrT002, texpr.Pos,
				"generic %s takes no type arguments", texpr.Name)
		}
		return program.AnyType(generic), nil
	}
	trait, ok := scope.Types[texpr.Name]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.ErrT003, texpr.Pos, "unknown type %s", texpr.Name)
	}
	if len(texpr.Arguments) > 0 {
		return nil, diagnostics.Errorf(diagnostics.ErrT002, texpr.Pos,
			"%s takes no type arguments", texpr.Name)
	}
	return program.StructType(trait), nil
}
