package program

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/diagnostics"
)

// TraitGraph answers the question "does binding B hold, and through which
// rule?". Results are memoized per fully resolved binding, including
// failures, so a requirement that cannot hold is diagnosed once.
type TraitGraph struct {
	rules map[uuid.UUID][]*TraitConformanceRule

	// Keyed by TraitBinding.Key of the resolved binding. A nil entry
	// records a proven failure.
	cache map[string]*ConformanceWithTail
}

func NewTraitGraph() *TraitGraph {
	return &TraitGraph{
		rules: map[uuid.UUID][]*TraitConformanceRule{},
		cache: map[string]*ConformanceWithTail{},
	}
}

// Clone copies the rule set. The cache is shared state in spirit but not in
// fact: the clone starts fresh because its rule set may diverge.
func (g *TraitGraph) Clone() *TraitGraph {
	clone := NewTraitGraph()
	clone.AddGraph(g)
	return clone
}

// AddGraph merges another graph's rules into this one. Any cached results
// may be invalidated by the new rules, so the cache is dropped.
func (g *TraitGraph) AddGraph(other *TraitGraph) {
	g.cache = map[string]*ConformanceWithTail{}
	for traitID, rules := range other.rules {
		g.rules[traitID] = append(g.rules[traitID], rules...)
	}
}

// AddRule registers a conformance rule under the trait it concerns.
func (g *TraitGraph) AddRule(rule *TraitConformanceRule) {
	traitID := rule.Conformance.Binding.Trait.ID
	g.rules[traitID] = append(g.rules[traitID], rule)
}

// RulesFor returns the registered rules for a trait.
func (g *TraitGraph) RulesFor(trait *Trait) []*TraitConformanceRule {
	return g.rules[trait.ID]
}

// SatisfyRequirement searches for exactly one rule whose conformance matches
// the requirement under the given forest. ambiguous is returned when the
// requirement still mentions unresolved placeholders after resolving through
// the forest; the caller should retry once more bindings are known.
//
// Zero matching rules is an error naming why each candidate was rejected.
// More than one is a conflict: there is no specificity ordering between
// rules.
func (g *TraitGraph) SatisfyRequirement(requirement *TraitBinding, forest *TypeForest) (conf *ConformanceWithTail, ambiguous bool, err error) {
	resolved, err := requirement.TryMappingTypes(forest.ResolveType)
	if err != nil {
		return nil, false, err
	}
	if resolved.ContainsAny() {
		return nil, true, nil
	}

	key := resolved.Key()
	if cached, hit := g.cache[key]; hit {
		if cached == nil {
			return nil, false, diagnostics.Errorf(diagnostics.ErrC001, diagnostics.Span{},
				"no conformance found for %s", resolved)
		}
		return cached, false, nil
	}

	rules := g.rules[resolved.Trait.ID]
	if len(rules) == 0 {
		g.cache[key] = nil
		return nil, false, diagnostics.Errorf(diagnostics.ErrC001, diagnostics.Span{},
			"no conformance rules declared for trait %s", resolved.Trait.Name)
	}

	var survivors []*ConformanceWithTail
	var bindErrors []*diagnostics.Diagnostic
	var requirementErrors []*diagnostics.Diagnostic

rules:
	for _, rule := range rules {
		// Each candidate unifies in its own forest so a rejected rule
		// leaves no trace.
		ruleForest := forest.Clone()

		// The rule's own generics must be rebindable. Substitute fresh
		// placeholders and query their bindings afterwards.
		freshGenerics := make(map[uuid.UUID]*Type, len(rule.Generics))
		for _, generic := range rule.Generics {
			freshGenerics[generic] = NewAnyType()
		}

		// Unify the rule's binding against the requirement, one generic
		// assignment at a time, through a temporary alias.
		for generic, ruleType := range rule.Conformance.Binding.GenericToType {
			tmp := uuid.New()
			if err := ruleForest.Bind(tmp, ruleType.ReplacingAnys(freshGenerics)); err != nil {
				return nil, false, err
			}
			required, ok := resolved.GenericToType[generic]
			if !ok {
				continue
			}
			if err := ruleForest.Bind(tmp, required); err != nil {
				bindErrors = append(bindErrors, diagnostics.
					Errorf(diagnostics.ErrT001, diagnostics.Span{}, "%s does not match %s", required, ruleType).
					WithNotes(diagnostics.Collect(err)))
				continue rules
			}
		}

		fulfilled, nestedAmbiguous, err := g.TestRequirements(rule.Requirements, freshGenerics, ruleForest)
		if err != nil {
			requirementErrors = append(requirementErrors, diagnostics.
				NewError(diagnostics.ErrC003, diagnostics.Span{}, "prerequisites not met").
				WithNotes(diagnostics.Collect(err)))
			continue
		}
		if nestedAmbiguous {
			// The requirement was fully resolved above, so nested
			// requirements cannot name unresolved placeholders.
			return nil, false, diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
				"unexpected ambiguity while testing prerequisites of %s", resolved)
		}

		// Record how the rule's generics ended up bound, keyed by the
		// declared generic so the conformance's function interfaces can
		// be specialized later.
		genericMapping := make(map[uuid.UUID]*Type, len(freshGenerics))
		for generic, fresh := range freshGenerics {
			bound, err := ruleForest.ResolveType(fresh)
			if err != nil {
				return nil, false, err
			}
			genericMapping[generic] = bound
		}

		survivors = append(survivors, &ConformanceWithTail{
			Conformance: NewConformance(resolved, rule.Conformance.FunctionMapping),
			Tail: &RequirementsFulfillment{
				Conformance:    fulfilled,
				GenericMapping: genericMapping,
			},
		})
	}

	switch len(survivors) {
	case 1:
		g.cache[key] = survivors[0]
		return survivors[0], false, nil
	case 0:
		g.cache[key] = nil
		failure := diagnostics.Errorf(diagnostics.ErrC001, diagnostics.Span{},
			"no conformance found for %s", resolved)
		if len(requirementErrors) > 0 {
			return nil, false, failure.WithNote(diagnostics.
				Note(diagnostics.Span{}, "%d rule(s) match types, but their prerequisites were not met", len(requirementErrors)).
				WithNotes(requirementErrors))
		}
		return nil, false, failure.WithNote(diagnostics.
			Note(diagnostics.Span{}, "%d rule(s) failed the type check", len(bindErrors)).
			WithNotes(bindErrors))
	default:
		notes := make([]*diagnostics.Diagnostic, len(survivors))
		for i, survivor := range survivors {
			notes[i] = diagnostics.Note(diagnostics.Span{}, "%s", survivor.Conformance.Binding)
		}
		return nil, false, diagnostics.
			Errorf(diagnostics.ErrC002, diagnostics.Span{}, "conflicting conformances for %s", resolved).
			WithNote(diagnostics.
				Note(diagnostics.Span{}, "%d rules match", len(survivors)).
				WithNotes(notes))
	}
}

// TestRequirements satisfies every deep requirement implied by the given
// ones, with generics substituted through genericMap first. The result is
// keyed by the requirement as written, before substitution, which is how
// callers will look it up.
func (g *TraitGraph) TestRequirements(requirements []*TraitBinding, genericMap map[uuid.UUID]*Type, forest *TypeForest) (map[string]FulfilledRequirement, bool, error) {
	fulfilled := map[string]FulfilledRequirement{}

	for _, requirement := range g.GatherDeepRequirements(requirements) {
		mapped := requirement.MappingTypes(func(t *Type) *Type {
			return t.ReplacingAnys(genericMap)
		})
		conf, ambiguous, err := g.SatisfyRequirement(mapped, forest)
		if err != nil {
			return nil, false, err
		}
		if ambiguous {
			return nil, true, nil
		}
		fulfilled[requirement.Key()] = FulfilledRequirement{
			Binding:     requirement,
			Conformance: conf,
		}
	}

	return fulfilled, false, nil
}

// GatherDeepRequirements expands explicit requirements into the full list
// they imply, following trait requirements transitively with each parent's
// binding substituted through the child's assignments. The traversal keeps
// a visited set, so cyclic requirement chains terminate. Implied
// requirements come before the requirements that imply them.
func (g *TraitGraph) GatherDeepRequirements(bindings []*TraitBinding) []*TraitBinding {
	seen := map[string]bool{}
	var ordered []*TraitBinding

	rest := make([]*TraitBinding, len(bindings))
	copy(rest, bindings)

	for len(rest) > 0 {
		binding := rest[len(rest)-1]
		rest = rest[:len(rest)-1]

		key := binding.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		ordered = append(ordered, binding)

		for _, implied := range binding.Trait.Requirements {
			rest = append(rest, implied.MappingTypes(func(t *Type) *Type {
				return t.ReplacingAnys(binding.GenericToType)
			}))
		}
	}

	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}
	return ordered
}

// AssumeGranted treats requirements as holding without proof, as inside the
// body of a function that declares them. Every abstract function of every
// deep requirement gets a polymorphic stand-in head, specialized to the
// requirement's assignments. Callers substitute the real functions later.
func (g *TraitGraph) AssumeGranted(bindings []*TraitBinding) []*TraitConformance {
	deep := g.GatherDeepRequirements(bindings)
	conformances := make([]*TraitConformance, 0, len(deep))

	for _, requirement := range deep {
		mapping := make(map[*FunctionHead]*FunctionHead, len(requirement.Trait.AbstractFunctions))
		for _, abstract := range requirement.Trait.AbstractFunctions {
			// The trait's generics are bound by the requirement; the
			// function's own generics stay as declared.
			iface := abstract.Interface.MappingTypes(func(t *Type) *Type {
				return t.ReplacingAnys(requirement.GenericToType)
			})
			mapping[abstract] = NewPolymorphicHead(abstract.Name, iface, requirement, abstract)
		}
		conformances = append(conformances, NewConformance(requirement, mapping))
	}

	return conformances
}
