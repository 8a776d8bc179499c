package resolver

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
)

// numberLiteralAmbiguity waits until the literal's type is known, then
// rewrites the literal into a parse call over its textual value.
type numberLiteralAmbiguity struct {
	expressionID uuid.UUID
	value        string
	isFloat      bool
	conformance  *program.TraitGraph
	pos          diagnostics.Span
}

func (a *numberLiteralAmbiguity) attempt(r *BodyResolver) (bool, error) {
	t, err := r.forest.ResolveAlias(a.expressionID)
	if err != nil {
		return false, err
	}
	if t.ContainsAny() {
		// Yet ambiguous.
		return false, nil
	}

	b := r.session.Builtins
	trait := b.Traits.ConstructableByIntLiteral
	abstract := b.Traits.ParseIntLiteral
	if a.isFloat {
		trait = b.Traits.ConstructableByFloatLiteral
		abstract = b.Traits.ParseFloatLiteral
	}

	requirement := trait.SelfBinding(t)
	conf, ambiguous, err := a.conformance.SatisfyRequirement(requirement, r.forest)
	if err != nil {
		return false, err
	}
	if ambiguous {
		return false, nil
	}
	parse, ok := conf.Conformance.FunctionMapping[abstract]
	if !ok {
		return false, diagnostics.Errorf(diagnostics.ErrI001, a.pos,
			"conformance for %s does not provide a parse function", requirement)
	}

	literalID := r.registerNewExpression(nil)
	r.tree.Operations[literalID] = program.StringLiteralOp(a.value)
	if err := r.forest.Bind(literalID, builtins.TypeOf(b.Primitives.String)); err != nil {
		return false, err
	}

	r.tree.Register(a.expressionID, []uuid.UUID{literalID})
	r.tree.Operations[a.expressionID] = program.CallOp(&program.FunctionBinding{
		Function: parse,
		Fulfillment: &program.RequirementsFulfillment{
			Conformance: map[string]program.FulfilledRequirement{
				requirement.Key(): {Binding: requirement, Conformance: conf},
			},
			GenericMapping: map[uuid.UUID]*program.Type{
				trait.Generics[program.SelfParam]: t,
			},
		},
	})
	if err := r.forest.Bind(a.expressionID, t); err != nil {
		return false, err
	}
	return true, nil
}
