package resolver

import (
	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/program"
)

// Scope is one lexical level: named locals, callable overload sets, and the
// conformance rules visible at this level. Lookups walk outward through the
// parent chain; the conformance graph is copied down on subscoping so rules
// assumed inside a body never leak out.
type Scope struct {
	parent *Scope

	locals    map[string]*program.ObjectReference
	overloads map[string]*program.FunctionOverload

	// Conformance is what calls in this scope may rely on.
	Conformance *program.TraitGraph

	// Types and Traits resolve names in type position; shared down the
	// whole chain.
	Types  map[string]*program.Trait
	Traits map[string]*program.Trait
}

// NewRootScope builds the global scope from the builtin module and a
// conformance graph to answer to.
func NewRootScope(b *builtins.Builtins, graph *program.TraitGraph) *Scope {
	s := &Scope{
		locals:      map[string]*program.ObjectReference{},
		overloads:   map[string]*program.FunctionOverload{},
		Conformance: graph,
		Types:       b.TypesByName,
		Traits:      b.TraitsByName,
	}
	for name, overload := range b.Overloads {
		s.overloads[name] = overload
	}
	return s
}

// Subscope opens a nested scope. The conformance graph is cloned so the
// child can assume additional rules.
func (s *Scope) Subscope() *Scope {
	return &Scope{
		parent:      s,
		locals:      map[string]*program.ObjectReference{},
		overloads:   map[string]*program.FunctionOverload{},
		Conformance: s.Conformance.Clone(),
		Types:       s.Types,
		Traits:      s.Traits,
	}
}

// ResolveLocal finds a named local in this scope or any parent.
func (s *Scope) ResolveLocal(name string) (*program.ObjectReference, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if ref, ok := scope.locals[name]; ok {
			return ref, true
		}
	}
	return nil, false
}

// ResolveOverload collects the overload set for a name. Sets declared at
// different levels under the same name are merged, innermost first.
func (s *Scope) ResolveOverload(name string) (*program.FunctionOverload, bool) {
	var merged *program.FunctionOverload
	for scope := s; scope != nil; scope = scope.parent {
		overload, ok := scope.overloads[name]
		if !ok {
			continue
		}
		if merged == nil {
			merged = overload
			continue
		}
		for _, head := range overload.Functions {
			merged = merged.Adding(head)
		}
	}
	return merged, merged != nil
}

// AddLocal registers a local, shadowing any outer binding of the name.
func (s *Scope) AddLocal(name string, ref *program.ObjectReference) {
	s.locals[name] = ref
}

// AddOverload makes head callable under name in this scope.
func (s *Scope) AddOverload(name string, head *program.FunctionHead) {
	if existing, ok := s.overloads[name]; ok {
		s.overloads[name] = existing.Adding(head)
		return
	}
	s.overloads[name] = (&program.FunctionOverload{Name: name}).Adding(head)
}
