package refactor

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
)

// replacement is what a polymorphic placeholder head resolves to once the
// caller's evidence is known: the implementing function plus the tail
// fulfillment the chosen conformance brought along.
type replacement struct {
	tail *program.RequirementsFulfillment
	head *program.FunctionHead
}

// Monomorphizer specializes generic function bodies against concrete
// fulfillments. It deduplicates instantiations: the same resolved call always
// maps to the same monomorphized head.
type Monomorphizer struct {
	// NewEncounteredCalls queues resolved calls whose targets still need
	// their own implementations processed. The driver drains it.
	NewEncounteredCalls []*program.FunctionBinding

	encounteredCalls map[string]bool
	resolvedToMono   map[string]*program.FunctionBinding
	monoToOriginal   map[*program.FunctionHead]*program.FunctionHead
}

func NewMonomorphizer() *Monomorphizer {
	return &Monomorphizer{
		encounteredCalls: make(map[string]bool),
		resolvedToMono:   make(map[string]*program.FunctionBinding),
		monoToOriginal:   make(map[*program.FunctionHead]*program.FunctionHead),
	}
}

// MonoOf returns the monomorphized binding a resolved call was specialized
// to, if any.
func (m *Monomorphizer) MonoOf(binding *program.FunctionBinding) (*program.FunctionBinding, bool) {
	mono, ok := m.resolvedToMono[binding.Key()]
	return mono, ok
}

// MonoToOriginal maps every monomorphized head back to the generic head it
// was specialized from. Backends use it to recover source names.
func (m *Monomorphizer) MonoToOriginal() map[*program.FunctionHead]*program.FunctionHead {
	out := make(map[*program.FunctionHead]*program.FunctionHead, len(m.monoToOriginal))
	for mono, original := range m.monoToOriginal {
		out[mono] = original
	}
	return out
}

// MonomorphizeFunction rewrites the implementation in place to match the
// given binding: its generics are bound to the fulfillment's concrete types,
// its polymorphic placeholder calls are replaced with the functions the
// fulfillment's conformances chose, and every remaining generic call is
// redirected to a fresh specialized head. The implementation's requirements
// assumption empties out; its identity and head become the specialized ones.
func (m *Monomorphizer) MonomorphizeFunction(impl *program.FunctionImplementation, binding *program.FunctionBinding, shouldMonomorphize func(*program.FunctionBinding) bool) error {
	genericMap := binding.Fulfillment.GenericMapping

	if err := impl.Forest.BindAnys(genericMap); err != nil {
		return err
	}

	// Local IDs survive; only their types are resolved through the forest.
	localMap := make(map[*program.ObjectReference]*program.ObjectReference, len(impl.LocalNames))
	for ref := range impl.LocalNames {
		mapped, err := mapLocal(ref, impl.Forest, genericMap)
		if err != nil {
			return err
		}
		localMap[ref] = mapped
	}

	// The body self-injected placeholder functions for its assumed
	// requirements. Replace them per the caller's actual evidence.
	replacements := make(map[*program.FunctionHead]replacement)
	for _, assumption := range impl.Assumption.Conformance {
		// The assumption was recorded with the body's frozen generics; the
		// caller keys its evidence by the requirement as declared.
		declared := assumption.Binding.MappingTypes(func(t *program.Type) *program.Type {
			return t.WithGenericAsAny()
		})
		fulfilled, ok := binding.Fulfillment.Conformance[declared.Key()]
		if !ok {
			return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
				"call to %s is missing evidence for assumed requirement %s",
				binding.Function, assumption.Binding)
		}
		tail := fulfilled.Conformance.Tail
		if tail == nil {
			tail = program.EmptyFulfillment()
		}
		for abstract, placeholder := range assumption.FunctionMapping {
			chosen, ok := fulfilled.Conformance.Conformance.FunctionMapping[abstract]
			if !ok {
				return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
					"conformance %s does not implement %s",
					fulfilled.Binding, abstract)
			}
			replacements[placeholder] = replacement{tail: tail, head: chosen}
		}
	}

	for _, expressionID := range impl.Tree.DeepChildren(impl.Tree.Root) {
		op, ok := impl.Tree.Operations[expressionID]
		if !ok {
			continue
		}
		switch op.Kind {
		case program.OpFunctionCall:
			resolved, err := resolveCall(op.Call, genericMap, replacements, impl.Forest)
			if err != nil {
				return err
			}
			if !m.encounteredCalls[resolved.Key()] {
				m.encounteredCalls[resolved.Key()] = true
				m.NewEncounteredCalls = append(m.NewEncounteredCalls, resolved)
			}
			if !resolved.Fulfillment.IsEmpty() && shouldMonomorphize(resolved) {
				op.Call = m.monomorphizeCall(resolved)
			} else {
				op.Call = resolved
			}
		case program.OpGetLocal, program.OpSetLocal:
			// No entry means a parameter-less static reference. Keep it.
			if mapped, ok := localMap[op.Local]; ok {
				op.Local = mapped
			}
		}
	}

	for i, param := range impl.ParameterLocals {
		impl.ParameterLocals[i] = localMap[param]
	}
	names := make(map[*program.ObjectReference]string, len(impl.LocalNames))
	for ref, name := range impl.LocalNames {
		names[localMap[ref]] = name
	}
	impl.LocalNames = names

	impl.Assumption = &program.RequirementsAssumption{}
	impl.ID = uuid.New()
	if mono, ok := m.resolvedToMono[binding.Key()]; ok {
		impl.Head = mono.Function
	} else {
		impl.Head = binding.Function
	}
	return nil
}

func (m *Monomorphizer) monomorphizeCall(resolved *program.FunctionBinding) *program.FunctionBinding {
	if mono, ok := m.resolvedToMono[resolved.Key()]; ok {
		return mono
	}
	mono := monomorphizeCall(resolved)
	m.resolvedToMono[resolved.Key()] = mono
	m.monoToOriginal[mono.Function] = resolved.Function
	return mono
}

// resolveCall rewrites one call per the enclosing function's specialization:
// placeholder targets become the fulfillment's chosen functions (merging in
// the conformance's tail), generic mappings are resolved to concrete types,
// and the call's own conformance evidence is routed through the same
// replacements.
func resolveCall(call *program.FunctionBinding, genericMap map[uuid.UUID]*program.Type, replacements map[*program.FunctionHead]replacement, forest *program.TypeForest) (*program.FunctionBinding, error) {
	tail := program.EmptyFulfillment()
	function := call.Function
	if repl, ok := replacements[call.Function]; ok {
		tail = repl.tail
		function = repl.head
	}

	full := program.MergeFulfillments(call.Fulfillment, tail)

	fulfillment := program.EmptyFulfillment()
	for generic, t := range full.GenericMapping {
		resolved, err := forest.ResolveType(t)
		if err != nil {
			return nil, err
		}
		fulfillment.GenericMapping[generic] = substitute(resolved, genericMap)
	}
	for key, fulfilled := range full.Conformance {
		mapping := make(map[*program.FunctionHead]*program.FunctionHead, len(fulfilled.Conformance.Conformance.FunctionMapping))
		for abstract, impl := range fulfilled.Conformance.Conformance.FunctionMapping {
			if repl, ok := replacements[impl]; ok {
				impl = repl.head
			}
			mapping[abstract] = impl
		}
		fulfillment.Conformance[key] = program.FulfilledRequirement{
			Binding: fulfilled.Binding,
			Conformance: &program.ConformanceWithTail{
				Conformance: program.NewConformance(fulfilled.Binding, mapping),
				Tail:        fulfilled.Conformance.Tail,
			},
		}
	}

	return &program.FunctionBinding{Function: function, Fulfillment: fulfillment}, nil
}

// monomorphizeCall invents the specialized head for a resolved generic call.
// The new head is static, its interface has the fulfillment's types baked in,
// and calling it needs no evidence at all.
func monomorphizeCall(resolved *program.FunctionBinding) *program.FunctionBinding {
	generics := resolved.Fulfillment.GenericMapping
	iface := resolved.Function.Interface.MappingTypes(func(t *program.Type) *program.Type {
		return substitute(t, generics)
	})
	iface.Requirements = nil
	remaining := make(map[string]uuid.UUID)
	for name, id := range resolved.Function.Interface.Generics {
		if _, bound := generics[id]; !bound {
			remaining[name] = id
		}
	}
	iface.Generics = remaining

	head := program.NewFunctionHead(resolved.Function.Name, iface)
	return program.BindPlain(head)
}

func mapLocal(ref *program.ObjectReference, forest *program.TypeForest, genericMap map[uuid.UUID]*program.Type) (*program.ObjectReference, error) {
	resolved, err := forest.ResolveType(ref.Type)
	if err != nil {
		return nil, err
	}
	return &program.ObjectReference{
		ID:         ref.ID,
		Type:       substitute(resolved, genericMap),
		Mutability: ref.Mutability,
	}, nil
}

// substitute replaces a body's generic placeholders, frozen or not, with the
// fulfillment's concrete types.
func substitute(t *program.Type, genericMap map[uuid.UUID]*program.Type) *program.Type {
	return t.ReplacingAnys(genericMap).ReplacingGenerics(genericMap)
}
