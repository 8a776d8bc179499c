package resolver

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
)

// callCandidate is one overload under consideration, with the interface's
// placeholders already reseeded so concurrent call sites cannot interfere.
type callCandidate struct {
	function   *program.FunctionHead
	genericMap map[uuid.UUID]*program.Type

	paramTypes   []*program.Type
	returnType   *program.Type
	requirements []*program.TraitBinding
}

func newCallCandidate(head *program.FunctionHead) *callCandidate {
	genericMap := make(map[uuid.UUID]*program.Type, len(head.Interface.Generics))
	for _, generic := range head.Interface.Generics {
		genericMap[generic] = program.NewAnyType()
	}

	paramTypes := make([]*program.Type, len(head.Interface.Parameters))
	for i, param := range head.Interface.Parameters {
		paramTypes[i] = param.Type.ReplacingAnys(genericMap)
	}
	return &callCandidate{
		function:     head,
		genericMap:   genericMap,
		paramTypes:   paramTypes,
		returnType:   head.Interface.ReturnType.ReplacingAnys(genericMap),
		requirements: head.Interface.Requirements,
	}
}

type failedCandidate struct {
	candidate *callCandidate
	err       error
}

// functionCallAmbiguity narrows an overload set as argument types become
// known. Candidates are tested against a forest clone; the survivor commits
// against the real forest.
type functionCallAmbiguity struct {
	expressionID uuid.UUID
	name         string
	arguments    []uuid.UUID
	conformance  *program.TraitGraph
	pos          diagnostics.Span

	candidates []*callCandidate
	failed     []failedCandidate
}

// attemptWithCandidate binds the call's arguments and result against the
// candidate's seeded types, then tests the candidate's deep requirements.
func (a *functionCallAmbiguity) attemptWithCandidate(forest *program.TypeForest, candidate *callCandidate) (*program.RequirementsFulfillment, bool, error) {
	for i, arg := range a.arguments {
		if err := forest.Bind(arg, candidate.paramTypes[i]); err != nil {
			return nil, false, err
		}
	}
	if err := forest.Bind(a.expressionID, candidate.returnType); err != nil {
		return nil, false, err
	}

	conformance := map[string]program.FulfilledRequirement{}
	for _, requirement := range a.conformance.GatherDeepRequirements(candidate.requirements) {
		mapped := requirement.MappingTypes(func(t *program.Type) *program.Type {
			return t.ReplacingAnys(candidate.genericMap)
		})
		conf, ambiguous, err := a.conformance.SatisfyRequirement(mapped, forest)
		if err != nil {
			return nil, false, err
		}
		if ambiguous {
			return nil, true, nil
		}
		conformance[requirement.Key()] = program.FulfilledRequirement{
			Binding:     requirement,
			Conformance: conf,
		}
	}

	return &program.RequirementsFulfillment{
		Conformance:    conformance,
		GenericMapping: candidate.genericMap,
	}, false, nil
}

func (a *functionCallAmbiguity) attempt(r *BodyResolver) (bool, error) {
	stillAmbiguous := false

	remaining := a.candidates
	a.candidates = nil
	for _, candidate := range remaining {
		forestCopy := r.forest.Clone()
		_, ambiguous, err := a.attemptWithCandidate(forestCopy, candidate)
		switch {
		case err != nil:
			a.failed = append(a.failed, failedCandidate{candidate, err})
		case ambiguous:
			a.candidates = append(a.candidates, candidate)
			stillAmbiguous = true
		default:
			a.candidates = append(a.candidates, candidate)
		}
	}

	if stillAmbiguous || len(a.candidates) > 1 {
		return false, nil
	}

	if len(a.candidates) == 1 {
		candidate := a.candidates[0]
		fulfillment, ambiguous, err := a.attemptWithCandidate(r.forest, candidate)
		if err != nil {
			return false, err
		}
		if ambiguous {
			return false, nil
		}
		r.tree.Operations[a.expressionID] = program.CallOp(&program.FunctionBinding{
			Function:    candidate.function,
			Fulfillment: fulfillment,
		})
		return true, nil
	}

	return false, a.noCandidateError()
}

// noCandidateError reports why every candidate was rejected.
func (a *functionCallAmbiguity) noCandidateError() error {
	failure := diagnostics.Errorf(diagnostics.ErrR001, a.pos,
		"no matching overload for %s", a.name)
	for _, failed := range a.failed {
		failure = failure.WithNote(diagnostics.
			Note(a.pos, "candidate %s rejected", failed.candidate.function).
			WithNotes(diagnostics.Collect(failed.err)))
	}
	return failure
}
