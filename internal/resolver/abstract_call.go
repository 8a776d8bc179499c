package resolver

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
)

// abstractCallAmbiguity waits for the expression's own type, then routes
// the call to whichever function the conformance of that type provides.
type abstractCallAmbiguity struct {
	expressionID uuid.UUID
	arguments    []uuid.UUID
	conformance  *program.TraitGraph
	pos          diagnostics.Span

	trait            *program.Trait
	abstractFunction *program.FunctionHead
}

func (a *abstractCallAmbiguity) attempt(r *BodyResolver) (bool, error) {
	t, err := r.forest.ResolveAlias(a.expressionID)
	if err != nil {
		return false, err
	}

	requirement := a.trait.SelfBinding(t)
	conf, ambiguous, err := a.conformance.SatisfyRequirement(requirement, r.forest)
	if err != nil {
		return false, diagnostics.Collect(err).AsError()
	}
	if ambiguous {
		return false, nil
	}

	used, ok := conf.Conformance.FunctionMapping[a.abstractFunction]
	if !ok {
		return false, diagnostics.Errorf(diagnostics.ErrI001, a.pos,
			"conformance for %s does not provide %s", requirement, a.abstractFunction.Name)
	}

	r.tree.Operations[a.expressionID] = program.CallOp(&program.FunctionBinding{
		Function: used,
		Fulfillment: &program.RequirementsFulfillment{
			Conformance: map[string]program.FulfilledRequirement{
				requirement.Key(): {Binding: requirement, Conformance: conf},
			},
			GenericMapping: map[uuid.UUID]*program.Type{
				a.trait.Generics[program.SelfParam]: t,
			},
		},
	})
	if err := r.forest.Bind(a.expressionID, t); err != nil {
		return false, err
	}
	return true, nil
}
