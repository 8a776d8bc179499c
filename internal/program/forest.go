package program

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/diagnostics"
)

// TypeForest is the per-function unification store. Expression identities
// and Any placeholders are aliases pointing into equivalence classes
// (identities); each identity may be bound to a head unit plus argument
// identities. The forest is value-like: speculative resolution clones it and
// only a confirmed branch commits its clone back.
type TypeForest struct {
	// Head unit per identity, arguments stripped. Never contains UnitAny:
	// an Any argument is represented as a reference to its own identity.
	units map[uuid.UUID]*Type
	// Argument identities per bound identity.
	args map[uuid.UUID][]uuid.UUID

	aliasToIdentity   map[uuid.UUID]uuid.UUID
	identityToAliases map[uuid.UUID]map[uuid.UUID]bool
}

func NewTypeForest() *TypeForest {
	return &TypeForest{
		units:             make(map[uuid.UUID]*Type),
		args:              make(map[uuid.UUID][]uuid.UUID),
		aliasToIdentity:   make(map[uuid.UUID]uuid.UUID),
		identityToAliases: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// Clone deep-copies the forest for speculative resolution.
func (f *TypeForest) Clone() *TypeForest {
	clone := NewTypeForest()
	for id, unit := range f.units {
		clone.units[id] = unit
	}
	for id, argList := range f.args {
		clone.args[id] = append([]uuid.UUID(nil), argList...)
	}
	for alias, id := range f.aliasToIdentity {
		clone.aliasToIdentity[alias] = id
	}
	for id, aliases := range f.identityToAliases {
		set := make(map[uuid.UUID]bool, len(aliases))
		for alias := range aliases {
			set[alias] = true
		}
		clone.identityToAliases[id] = set
	}
	return clone
}

// Register creates an unbound slot for the alias if none exists.
func (f *TypeForest) Register(alias uuid.UUID) {
	f.register(alias)
}

func (f *TypeForest) register(alias uuid.UUID) uuid.UUID {
	if existing, ok := f.aliasToIdentity[alias]; ok {
		return existing
	}
	identity := uuid.New()
	f.aliasToIdentity[alias] = identity
	f.identityToAliases[identity] = map[uuid.UUID]bool{alias: true}
	return identity
}

// Bind unifies the alias's current type with t.
func (f *TypeForest) Bind(alias uuid.UUID, t *Type) error {
	identity := f.register(alias)
	return f.bindIdentity(identity, t)
}

// Rebind discards the alias's current binding and binds it to t. Only valid
// for already-registered aliases; used by monomorphization.
func (f *TypeForest) Rebind(alias uuid.UUID, t *Type) error {
	identity, ok := f.aliasToIdentity[alias]
	if !ok {
		return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
			"cannot rebind unregistered alias %s", shortID(alias))
	}
	delete(f.units, identity)
	delete(f.args, identity)
	return f.bindIdentity(identity, t)
}

func (f *TypeForest) bindIdentity(identity uuid.UUID, t *Type) error {
	other := f.insertNewIdentity(t)
	_, err := f.mergeIdentities(identity, other)
	return err
}

func (f *TypeForest) insertNewIdentity(t *Type) uuid.UUID {
	if t.Kind == UnitAny {
		return f.register(t.ID)
	}
	identity := uuid.New()
	f.units[identity] = &Type{Kind: t.Kind, ID: t.ID, Struct: t.Struct, Function: t.Function}
	f.identityToAliases[identity] = make(map[uuid.UUID]bool)
	argIdentities := make([]uuid.UUID, len(t.Args))
	for i, arg := range t.Args {
		argIdentities[i] = f.insertNewIdentity(arg)
	}
	f.args[identity] = argIdentities
	return identity
}

// MergeAll unifies all aliases into one equivalence class and returns a
// representative. With no inputs a fresh unconstrained alias is invented.
func (f *TypeForest) MergeAll(aliases []uuid.UUID) (uuid.UUID, error) {
	if len(aliases) == 0 {
		alias := uuid.New()
		f.Register(alias)
		return alias, nil
	}
	reference := f.register(aliases[0])
	for _, other := range aliases[1:] {
		if _, err := f.mergeIdentities(reference, f.register(other)); err != nil {
			return uuid.Nil, err
		}
	}
	return aliases[0], nil
}

// mergeIdentities is the core unification rule: the rhs class is subsumed
// into lhs, preferring whichever side already has a concrete binding, and
// recursing into arguments when both are bound.
func (f *TypeForest) mergeIdentities(lhs, rhs uuid.UUID) (uuid.UUID, error) {
	if lhs == rhs {
		return lhs, nil
	}

	rhsUnit, rhsBound := f.units[rhs]
	rhsArgs := f.args[rhs]
	f.relinkIdentity(rhs, lhs)
	delete(f.units, rhs)
	delete(f.args, rhs)

	lhsUnit, lhsBound := f.units[lhs]
	switch {
	case lhsBound && rhsBound:
		if !lhsUnit.SameUnit(rhsUnit) {
			return uuid.Nil, diagnostics.Errorf(diagnostics.ErrT001, diagnostics.Span{},
				"cannot merge types: %s and %s",
				f.prototypeIdentity(lhs, rhsArgs), f.renderUnit(rhsUnit, rhsArgs))
		}
		if len(f.args[lhs]) != len(rhsArgs) {
			return uuid.Nil, diagnostics.Errorf(diagnostics.ErrT002, diagnostics.Span{},
				"cannot merge types: %s has %d type arguments, %s has %d",
				lhsUnit, len(f.args[lhs]), rhsUnit, len(rhsArgs))
		}
		// Merging one argument pair may relink identities referenced by a
		// later pair, so re-read the lists on every step.
		for i := range rhsArgs {
			lhsArg := f.args[lhs][i]
			rhsArg := rhsArgs[i]
			if _, ok := f.identityToAliases[rhsArg]; !ok {
				// Already subsumed by an earlier pair; its alias map entry
				// now points at the survivor.
				continue
			}
			if _, err := f.mergeIdentities(lhsArg, rhsArg); err != nil {
				return uuid.Nil, err
			}
		}
	case !lhsBound && rhsBound:
		f.units[lhs] = rhsUnit
		f.args[lhs] = rhsArgs
	default:
		// rhs was unbound; nothing to move.
	}
	return lhs, nil
}

func (f *TypeForest) relinkIdentity(source, target uuid.UUID) {
	for id, argList := range f.args {
		changed := false
		for i, arg := range argList {
			if arg == source {
				argList[i] = target
				changed = true
			}
		}
		if changed {
			f.args[id] = argList
		}
	}
	sourceAliases := f.identityToAliases[source]
	delete(f.identityToAliases, source)
	targetAliases := f.identityToAliases[target]
	if targetAliases == nil {
		targetAliases = make(map[uuid.UUID]bool)
		f.identityToAliases[target] = targetAliases
	}
	for alias := range sourceAliases {
		f.aliasToIdentity[alias] = target
		targetAliases[alias] = true
	}
}

// ResolveAlias reads the current (possibly still unresolved) type of an
// alias. Unknown aliases are an error; unbound ones resolve to themselves
// as an Any placeholder.
func (f *TypeForest) ResolveAlias(alias uuid.UUID) (*Type, error) {
	identity, ok := f.aliasToIdentity[alias]
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.ErrT003, diagnostics.Span{},
			"unknown type binding: %s", shortID(alias))
	}
	return f.resolveIdentity(identity, alias), nil
}

func (f *TypeForest) resolveIdentity(identity uuid.UUID, fallbackAlias uuid.UUID) *Type {
	unit, bound := f.units[identity]
	if !bound {
		return AnyType(fallbackAlias)
	}
	argIdentities := f.args[identity]
	args := make([]*Type, len(argIdentities))
	for i, argIdentity := range argIdentities {
		args[i] = f.resolveIdentity(argIdentity, f.someAlias(argIdentity))
	}
	resolved := &Type{Kind: unit.Kind, ID: unit.ID, Struct: unit.Struct, Function: unit.Function}
	if len(args) > 0 {
		resolved.Args = args
	}
	return resolved
}

// someAlias picks a stable alias for an identity so unbound slots render
// consistently. Identities created for concrete subterms have no alias; the
// identity itself serves as one.
func (f *TypeForest) someAlias(identity uuid.UUID) uuid.UUID {
	best := identity
	first := true
	for alias := range f.identityToAliases[identity] {
		if first || lessUUID(alias, best) {
			best = alias
			first = false
		}
	}
	return best
}

func lessUUID(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ResolveType resolves every Any inside t through the forest.
func (f *TypeForest) ResolveType(t *Type) (*Type, error) {
	if t.Kind == UnitAny {
		return f.ResolveAlias(t.ID)
	}
	args := make([]*Type, len(t.Args))
	for i, arg := range t.Args {
		resolved, err := f.ResolveType(arg)
		if err != nil {
			return nil, err
		}
		args[i] = resolved
	}
	out := &Type{Kind: t.Kind, ID: t.ID, Struct: t.Struct, Function: t.Function}
	if len(args) > 0 {
		out.Args = args
	}
	return out, nil
}

// BindAnys binds every alias in the map to its assigned type. Used by
// monomorphization to fix a function's own generics to the fulfillment's
// concrete types.
func (f *TypeForest) BindAnys(m map[uuid.UUID]*Type) error {
	for alias, t := range m {
		if err := f.Bind(alias, t); err != nil {
			return err
		}
	}
	return nil
}

func (f *TypeForest) prototypeIdentity(identity uuid.UUID, _ []uuid.UUID) string {
	return f.resolveIdentity(identity, f.someAlias(identity)).String()
}

func (f *TypeForest) renderUnit(unit *Type, argIdentities []uuid.UUID) string {
	if len(argIdentities) == 0 {
		return unit.String()
	}
	args := make([]*Type, len(argIdentities))
	for i, argIdentity := range argIdentities {
		args[i] = f.resolveIdentity(argIdentity, f.someAlias(argIdentity))
	}
	return (&Type{Kind: unit.Kind, ID: unit.ID, Struct: unit.Struct, Function: unit.Function, Args: args}).String()
}
