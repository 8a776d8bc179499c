package program

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UnitKind discriminates the head unit of a Type.
type UnitKind int

const (
	// UnitVoid is bound to expressions that produce no value. Having an
	// explicit unit (instead of a missing binding) distinguishes "known to
	// be void" from "not yet resolved".
	UnitVoid UnitKind = iota
	// UnitMetaType is the type of a type. One argument: the subject type.
	UnitMetaType
	// UnitAny is an unbound placeholder, identified by UUID. It may be
	// constrained by requirements and is resolved through the TypeForest.
	UnitAny
	// UnitGeneric is a function-scoped generic marker, identified by UUID.
	// Unlike Any it survives resolution: it stands for "deliberately still
	// polymorphic".
	UnitGeneric
	// UnitMonad is the parametric container unit; arguments are
	// [element, dimensions...].
	UnitMonad
	// UnitStruct is a nominal reference to a trait used as a concrete type.
	UnitStruct
	// UnitFunction is a reference to a specific function.
	UnitFunction
)

// Type is a structural type: a head unit plus ordered argument types for
// parametric units. Types are value-like and never mutated after creation.
type Type struct {
	Kind     UnitKind
	ID       uuid.UUID // for UnitAny and UnitGeneric
	Struct   *Trait    // for UnitStruct
	Function *FunctionHead
	Args     []*Type
}

func VoidType() *Type     { return &Type{Kind: UnitVoid} }
func NewAnyType() *Type   { return &Type{Kind: UnitAny, ID: uuid.New()} }
func AnyType(id uuid.UUID) *Type     { return &Type{Kind: UnitAny, ID: id} }
func GenericType(id uuid.UUID) *Type { return &Type{Kind: UnitGeneric, ID: id} }

func StructType(trait *Trait) *Type {
	return &Type{Kind: UnitStruct, Struct: trait}
}

func MetaType(subject *Type) *Type {
	return &Type{Kind: UnitMetaType, Args: []*Type{subject}}
}

func MonadType(element *Type) *Type {
	return &Type{Kind: UnitMonad, Args: []*Type{element}}
}

func FunctionRefType(head *FunctionHead) *Type {
	return &Type{Kind: UnitFunction, Function: head}
}

func (t *Type) IsVoid() bool { return t != nil && t.Kind == UnitVoid }

// SameUnit reports whether two types share the same head unit, ignoring
// arguments. Any and Generic compare by identity; Struct by trait identity.
func (t *Type) SameUnit(other *Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case UnitAny, UnitGeneric:
		return t.ID == other.ID
	case UnitStruct:
		return t.Struct == other.Struct
	case UnitFunction:
		return t.Function == other.Function
	default:
		return true
	}
}

// Equal is structural equality over the whole type tree.
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if !t.SameUnit(other) || len(t.Args) != len(other.Args) {
		return false
	}
	for i, arg := range t.Args {
		if !arg.Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// ContainsAny reports whether any Any placeholder is reachable from t.
func (t *Type) ContainsAny() bool {
	if t.Kind == UnitAny {
		return true
	}
	for _, arg := range t.Args {
		if arg.ContainsAny() {
			return true
		}
	}
	return false
}

// ContainsGeneric reports whether any Generic marker is reachable from t.
func (t *Type) ContainsGeneric() bool {
	if t.Kind == UnitGeneric {
		return true
	}
	for _, arg := range t.Args {
		if arg.ContainsGeneric() {
			return true
		}
	}
	return false
}

// CollectAnys adds the IDs of all reachable Any placeholders to set.
func (t *Type) CollectAnys(set map[uuid.UUID]bool) {
	if t.Kind == UnitAny {
		set[t.ID] = true
	}
	for _, arg := range t.Args {
		arg.CollectAnys(set)
	}
}

// CollectAnysOf gathers the Any placeholders of several types.
func CollectAnysOf(types ...*Type) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool)
	for _, t := range types {
		t.CollectAnys(set)
	}
	return set
}

func (t *Type) mapArgs(f func(*Type) *Type) []*Type {
	if len(t.Args) == 0 {
		return nil
	}
	args := make([]*Type, len(t.Args))
	for i, arg := range t.Args {
		args[i] = f(arg)
	}
	return args
}

// ReplacingAnys rewrites every Any whose ID appears in the map. Anys not in
// the map are kept as-is.
func (t *Type) ReplacingAnys(m map[uuid.UUID]*Type) *Type {
	if t.Kind == UnitAny {
		if replacement, ok := m[t.ID]; ok {
			return replacement
		}
		return t
	}
	return &Type{Kind: t.Kind, ID: t.ID, Struct: t.Struct, Function: t.Function,
		Args: t.mapArgs(func(a *Type) *Type { return a.ReplacingAnys(m) })}
}

// ReplacingGenerics rewrites every Generic whose ID appears in the map.
// Used when specializing a body whose own generics were frozen during
// resolution.
func (t *Type) ReplacingGenerics(m map[uuid.UUID]*Type) *Type {
	if t.Kind == UnitGeneric {
		if replacement, ok := m[t.ID]; ok {
			return replacement
		}
		return t
	}
	return &Type{Kind: t.Kind, ID: t.ID, Struct: t.Struct, Function: t.Function,
		Args: t.mapArgs(func(a *Type) *Type { return a.ReplacingGenerics(m) })}
}

// WithGenericAsAny undoes a zero-seed WithAnyAsGeneric: every Generic
// becomes the Any placeholder it was frozen from.
func (t *Type) WithGenericAsAny() *Type {
	if t.Kind == UnitGeneric {
		return AnyType(t.ID)
	}
	return &Type{Kind: t.Kind, ID: t.ID, Struct: t.Struct, Function: t.Function,
		Args: t.mapArgs(func(a *Type) *Type { return a.WithGenericAsAny() })}
}

// WithAnyAsGeneric turns every Any into a Generic whose identity is derived
// deterministically from the seed, so repeated substitution with the same
// seed produces identical markers.
func (t *Type) WithAnyAsGeneric(seed uuid.UUID) *Type {
	if t.Kind == UnitAny {
		return GenericType(xorUUID(seed, t.ID))
	}
	return &Type{Kind: t.Kind, ID: t.ID, Struct: t.Struct, Function: t.Function,
		Args: t.mapArgs(func(a *Type) *Type { return a.WithAnyAsGeneric(seed) })}
}

func xorUUID(a, b uuid.UUID) uuid.UUID {
	var out uuid.UUID
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var head string
	switch t.Kind {
	case UnitVoid:
		head = "Void"
	case UnitMetaType:
		head = "MetaType"
	case UnitAny:
		head = "Any<" + shortID(t.ID) + ">"
	case UnitGeneric:
		head = "Generic<" + shortID(t.ID) + ">"
	case UnitMonad:
		head = "Monad"
	case UnitStruct:
		head = t.Struct.Name
	case UnitFunction:
		head = fmt.Sprintf("Fn<%s>", t.Function.Name)
	}
	if len(t.Args) == 0 {
		return head
	}
	args := make([]string, len(t.Args))
	for i, arg := range t.Args {
		args[i] = arg.String()
	}
	return head + "<" + strings.Join(args, ", ") + ">"
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
