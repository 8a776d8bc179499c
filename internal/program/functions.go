package program

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// FunctionKind distinguishes real functions from requirement placeholders.
type FunctionKind int

const (
	// FnStatic is an ordinary, directly callable function.
	FnStatic FunctionKind = iota
	// FnPolymorphic is a placeholder standing in for whatever implements an
	// abstract trait function; it is substituted with the real function
	// during monomorphization.
	FnPolymorphic
)

// Parameter of a function as visible from the outside.
type Parameter struct {
	Name string
	Type *Type
}

// FunctionInterface is everything needed to call a function: parameters,
// return type, required trait bindings, and the function's own generics
// (name to Any placeholder ID).
type FunctionInterface struct {
	Parameters   []Parameter
	ReturnType   *Type
	Requirements []*TraitBinding
	Generics     map[string]uuid.UUID
}

// NewSimpleInterface builds a requirement-free interface with positional
// parameter names.
func NewSimpleInterface(parameterTypes []*Type, returnType *Type) *FunctionInterface {
	params := make([]Parameter, len(parameterTypes))
	for i, t := range parameterTypes {
		params[i] = Parameter{Name: fmt.Sprintf("p%d", i), Type: t}
	}
	return &FunctionInterface{Parameters: params, ReturnType: returnType}
}

// MappingTypes rewrites every parameter and return type, and every
// requirement assignment, through mapType. Generics are kept as declared.
func (i *FunctionInterface) MappingTypes(mapType func(*Type) *Type) *FunctionInterface {
	params := make([]Parameter, len(i.Parameters))
	for idx, p := range i.Parameters {
		params[idx] = Parameter{Name: p.Name, Type: mapType(p.Type)}
	}
	requirements := make([]*TraitBinding, len(i.Requirements))
	for idx, req := range i.Requirements {
		requirements[idx] = req.MappingTypes(mapType)
	}
	return &FunctionInterface{
		Parameters:   params,
		ReturnType:   mapType(i.ReturnType),
		Requirements: requirements,
		Generics:     i.Generics,
	}
}

// CollectAnys gathers the placeholders of all parameter and return types.
func (i *FunctionInterface) CollectAnys() map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool)
	for _, p := range i.Parameters {
		p.Type.CollectAnys(set)
	}
	i.ReturnType.CollectAnys(set)
	return set
}

// FunctionHead is the identity of a function. Two heads are the same
// function exactly when they are the same object.
type FunctionHead struct {
	ID        uuid.UUID
	Name      string
	Kind      FunctionKind
	Interface *FunctionInterface

	// For FnPolymorphic heads: which assumed requirement provides the
	// function, and which abstract function it stands in for.
	AssumedRequirement *TraitBinding
	AbstractFunction   *FunctionHead
}

func NewFunctionHead(name string, iface *FunctionInterface) *FunctionHead {
	return &FunctionHead{ID: uuid.New(), Name: name, Kind: FnStatic, Interface: iface}
}

func NewPolymorphicHead(name string, iface *FunctionInterface, requirement *TraitBinding, abstract *FunctionHead) *FunctionHead {
	return &FunctionHead{
		ID: uuid.New(), Name: name, Kind: FnPolymorphic, Interface: iface,
		AssumedRequirement: requirement, AbstractFunction: abstract,
	}
}

func (h *FunctionHead) String() string {
	params := make([]string, len(h.Interface.Parameters))
	for i, p := range h.Interface.Parameters {
		params[i] = p.Type.String()
	}
	marker := ""
	if h.Kind == FnPolymorphic {
		marker = "?"
	}
	ret := ""
	if !h.Interface.ReturnType.IsVoid() {
		ret = " -> " + h.Interface.ReturnType.String()
	}
	return fmt.Sprintf("%s%s(%s)%s", h.Name, marker, strings.Join(params, ", "), ret)
}

// FunctionBinding is a head plus the evidence needed to actually invoke it.
type FunctionBinding struct {
	Function    *FunctionHead
	Fulfillment *RequirementsFulfillment
}

func BindPlain(head *FunctionHead) *FunctionBinding {
	return &FunctionBinding{Function: head, Fulfillment: EmptyFulfillment()}
}

// Key is a canonical representation for memoization: same function, same
// fulfillment, same key.
func (b *FunctionBinding) Key() string {
	return b.Function.ID.String() + "#" + b.Fulfillment.Key()
}

// FunctionOverload is a named set of functions resolvable at a call site.
type FunctionOverload struct {
	Name      string
	Functions []*FunctionHead
}

func (o *FunctionOverload) Adding(head *FunctionHead) *FunctionOverload {
	functions := append(append([]*FunctionHead(nil), o.Functions...), head)
	return &FunctionOverload{Name: o.Name, Functions: functions}
}

// SortedHeads returns the overload's functions in a deterministic order.
func (o *FunctionOverload) SortedHeads() []*FunctionHead {
	heads := append([]*FunctionHead(nil), o.Functions...)
	sort.Slice(heads, func(i, j int) bool { return lessUUID(heads[i].ID, heads[j].ID) })
	return heads
}
