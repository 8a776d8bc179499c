package program

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Trait is a named, optionally-generic capability. Conforming to it requires
// implementations for its abstract functions plus conformance to its
// requirement bindings (supertraits).
type Trait struct {
	ID   uuid.UUID
	Name string

	// Generic parameters by name. Each generic is an Any placeholder ID;
	// abstract functions and requirements reference these placeholders.
	Generics map[string]uuid.UUID

	// To conform to this trait, these other bindings must hold too.
	Requirements []*TraitBinding

	// Functions a conformance must implement, declared against the trait's
	// own generics.
	AbstractFunctions []*FunctionHead
}

// SelfParam is the conventional name of a trait's subject generic.
const SelfParam = "Self"

// NewTrait creates a trait with no generics.
func NewTrait(name string) *Trait {
	return &Trait{ID: uuid.New(), Name: name, Generics: map[string]uuid.UUID{}}
}

// NewTraitWithSelf creates a trait with the single conventional Self generic.
func NewTraitWithSelf(name string) *Trait {
	return &Trait{ID: uuid.New(), Name: name, Generics: map[string]uuid.UUID{SelfParam: uuid.New()}}
}

// GenericTypeOf returns the placeholder type of a declared generic, for use
// inside the trait's own abstract function interfaces and requirements.
func (t *Trait) GenericTypeOf(name string) *Type {
	id, ok := t.Generics[name]
	if !ok {
		panic(fmt.Sprintf("trait %s has no generic %q", t.Name, name))
	}
	return AnyType(id)
}

// Binding assigns a type to each named generic, e.g. Ord<Self=Int32>.
func (t *Trait) Binding(assignments map[string]*Type) *TraitBinding {
	genericToType := make(map[uuid.UUID]*Type, len(assignments))
	for name, assigned := range assignments {
		id, ok := t.Generics[name]
		if !ok {
			panic(fmt.Sprintf("trait %s has no generic %q", t.Name, name))
		}
		genericToType[id] = assigned
	}
	return &TraitBinding{Trait: t, GenericToType: genericToType}
}

// SelfBinding is shorthand for the common single-generic case.
func (t *Trait) SelfBinding(self *Type) *TraitBinding {
	return t.Binding(map[string]*Type{SelfParam: self})
}

// RequireParent adds a supertrait requirement applied to this trait's Self.
func (t *Trait) RequireParent(parent *Trait) {
	t.Requirements = append(t.Requirements, parent.SelfBinding(t.GenericTypeOf(SelfParam)))
}

// TraitBinding is a trait applied to concrete-or-placeholder types: one
// assignment per declared generic.
type TraitBinding struct {
	Trait         *Trait
	GenericToType map[uuid.UUID]*Type
}

// MappingTypes returns a copy of the binding with every assignment rewritten.
func (b *TraitBinding) MappingTypes(mapType func(*Type) *Type) *TraitBinding {
	mapped := make(map[uuid.UUID]*Type, len(b.GenericToType))
	for generic, t := range b.GenericToType {
		mapped[generic] = mapType(t)
	}
	return &TraitBinding{Trait: b.Trait, GenericToType: mapped}
}

// TryMappingTypes is MappingTypes for rewrites that can fail.
func (b *TraitBinding) TryMappingTypes(mapType func(*Type) (*Type, error)) (*TraitBinding, error) {
	mapped := make(map[uuid.UUID]*Type, len(b.GenericToType))
	for generic, t := range b.GenericToType {
		result, err := mapType(t)
		if err != nil {
			return nil, err
		}
		mapped[generic] = result
	}
	return &TraitBinding{Trait: b.Trait, GenericToType: mapped}, nil
}

// ContainsAny reports whether any assignment still contains an unresolved
// placeholder.
func (b *TraitBinding) ContainsAny() bool {
	for _, t := range b.GenericToType {
		if t.ContainsAny() {
			return true
		}
	}
	return false
}

// Key is a canonical representation for use as a map key. Bindings with
// equal traits and structurally equal assignments share a key.
func (b *TraitBinding) Key() string {
	var sb strings.Builder
	sb.WriteString(b.Trait.ID.String())
	generics := make([]uuid.UUID, 0, len(b.GenericToType))
	for generic := range b.GenericToType {
		generics = append(generics, generic)
	}
	sort.Slice(generics, func(i, j int) bool { return lessUUID(generics[i], generics[j]) })
	for _, generic := range generics {
		sb.WriteByte('|')
		sb.WriteString(generic.String())
		sb.WriteByte('=')
		b.GenericToType[generic].writeKey(&sb)
	}
	return sb.String()
}

func (b *TraitBinding) String() string {
	if len(b.GenericToType) == 0 {
		return b.Trait.Name
	}
	type pair struct {
		name string
		t    *Type
	}
	pairs := make([]pair, 0, len(b.GenericToType))
	for name, id := range b.Trait.Generics {
		if t, ok := b.GenericToType[id]; ok {
			pairs = append(pairs, pair{name, t})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.name + "=" + p.t.String()
	}
	return b.Trait.Name + "<" + strings.Join(parts, ", ") + ">"
}

// writeKey renders a type canonically (full IDs) for map keys.
func (t *Type) writeKey(sb *strings.Builder) {
	switch t.Kind {
	case UnitVoid:
		sb.WriteString("void")
	case UnitMetaType:
		sb.WriteString("meta")
	case UnitAny:
		sb.WriteString("any:")
		sb.WriteString(t.ID.String())
	case UnitGeneric:
		sb.WriteString("gen:")
		sb.WriteString(t.ID.String())
	case UnitMonad:
		sb.WriteString("monad")
	case UnitStruct:
		sb.WriteString("struct:")
		sb.WriteString(t.Struct.ID.String())
	case UnitFunction:
		sb.WriteString("fn:")
		sb.WriteString(t.Function.ID.String())
	}
	if len(t.Args) > 0 {
		sb.WriteByte('(')
		for i, arg := range t.Args {
			if i > 0 {
				sb.WriteByte(',')
			}
			arg.writeKey(sb)
		}
		sb.WriteByte(')')
	}
}

// KeyString is the canonical key of a type, exported for memoization keys.
func (t *Type) KeyString() string {
	var sb strings.Builder
	t.writeKey(&sb)
	return sb.String()
}

// TraitConformance is evidence that one binding holds: a mapping from each
// abstract function of the trait to the function implementing it.
type TraitConformance struct {
	Binding         *TraitBinding
	FunctionMapping map[*FunctionHead]*FunctionHead
}

func NewConformance(binding *TraitBinding, mapping map[*FunctionHead]*FunctionHead) *TraitConformance {
	return &TraitConformance{Binding: binding, FunctionMapping: mapping}
}

// ConformanceWithTail pairs a conformance with how it was achieved. When the
// conformance came from a conditional rule, its functions may call functions
// of the rule's own requirements; the tail carries those pre-resolved
// sub-conformances so monomorphization can follow them.
type ConformanceWithTail struct {
	Conformance *TraitConformance
	Tail        *RequirementsFulfillment
}

// TraitConformanceRule contributes one (possibly conditional) conformance.
// Generics are fresh placeholders scoped to the rule; requirements are the
// rule's prerequisites expressed against those generics.
type TraitConformanceRule struct {
	Generics     map[string]uuid.UUID
	Requirements []*TraitBinding
	Conformance  *TraitConformance
}

// DirectRule wraps an unconditional conformance.
func DirectRule(conformance *TraitConformance) *TraitConformanceRule {
	return &TraitConformanceRule{Conformance: conformance}
}

// FulfilledRequirement records the conformance chosen for one requirement.
type FulfilledRequirement struct {
	Binding     *TraitBinding
	Conformance *ConformanceWithTail
}

// RequirementsFulfillment is the evidence bundle a caller supplies to invoke
// a function with declared requirements: a concrete type per generic and a
// conformance per requirement.
type RequirementsFulfillment struct {
	// Conformance per requirement, keyed by the requirement binding's Key.
	Conformance map[string]FulfilledRequirement
	// Concrete (or deliberately generic) type per Any placeholder.
	GenericMapping map[uuid.UUID]*Type
}

func EmptyFulfillment() *RequirementsFulfillment {
	return &RequirementsFulfillment{
		Conformance:    map[string]FulfilledRequirement{},
		GenericMapping: map[uuid.UUID]*Type{},
	}
}

func (r *RequirementsFulfillment) IsEmpty() bool {
	return len(r.Conformance) == 0 && len(r.GenericMapping) == 0
}

// Key is a canonical representation for memoization.
func (r *RequirementsFulfillment) Key() string {
	var sb strings.Builder
	confKeys := make([]string, 0, len(r.Conformance))
	for key := range r.Conformance {
		confKeys = append(confKeys, key)
	}
	sort.Strings(confKeys)
	for _, key := range confKeys {
		fulfilled := r.Conformance[key]
		sb.WriteString(key)
		sb.WriteString("->")
		heads := make([]string, 0, len(fulfilled.Conformance.Conformance.FunctionMapping))
		for abstract, impl := range fulfilled.Conformance.Conformance.FunctionMapping {
			heads = append(heads, abstract.ID.String()+":"+impl.ID.String())
		}
		sort.Strings(heads)
		sb.WriteString(strings.Join(heads, ","))
		sb.WriteByte(';')
	}
	generics := make([]uuid.UUID, 0, len(r.GenericMapping))
	for generic := range r.GenericMapping {
		generics = append(generics, generic)
	}
	sort.Slice(generics, func(i, j int) bool { return lessUUID(generics[i], generics[j]) })
	for _, generic := range generics {
		sb.WriteString(generic.String())
		sb.WriteByte('=')
		r.GenericMapping[generic].writeKey(&sb)
		sb.WriteByte(';')
	}
	return sb.String()
}

// MergeFulfillments combines two evidence bundles. Entries from b win on
// conflict; in practice the two never disagree because b carries a tail for
// requirements a does not know about.
func MergeFulfillments(a, b *RequirementsFulfillment) *RequirementsFulfillment {
	merged := EmptyFulfillment()
	for key, fulfilled := range a.Conformance {
		merged.Conformance[key] = fulfilled
	}
	for key, fulfilled := range b.Conformance {
		merged.Conformance[key] = fulfilled
	}
	for generic, t := range a.GenericMapping {
		merged.GenericMapping[generic] = t
	}
	for generic, t := range b.GenericMapping {
		merged.GenericMapping[generic] = t
	}
	return merged
}

// RequirementsAssumption is the set of conformances a function body takes
// for granted because its head declares the corresponding requirements. Its
// function mappings point at Polymorphic placeholder heads.
type RequirementsAssumption struct {
	Conformance []*TraitConformance
}
