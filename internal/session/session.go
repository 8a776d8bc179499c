// Package session carries the compilation-wide state that resolution,
// monomorphization and refactoring read and write: the logic table, trait
// references, the root conformance graph, and the optional persistent
// descriptor cache.
package session

import (
	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/cache"
	"github.com/lumenlang/lumen/internal/program"
)

// Session is one compilation run. It is not safe for concurrent use.
type Session struct {
	Builtins *builtins.Builtins

	// FnLogic maps every known head to what calling it means.
	FnLogic map[*program.FunctionHead]*program.FunctionLogic

	// TraitRefs maps synthetic getter heads to the trait they stand for.
	TraitRefs map[*program.FunctionHead]*program.Trait

	// Graph is the root conformance graph: builtin rules plus everything
	// user modules declare.
	Graph *program.TraitGraph

	// Store persists descriptors across runs when non-nil.
	Store *cache.Store

	// MaxPasses caps the rounds of ambiguity resolution per function body.
	// Zero leaves the loop bounded by progress alone.
	MaxPasses int
}

// New builds a session seeded with the builtin module.
func New(b *builtins.Builtins) *Session {
	s := &Session{
		Builtins:  b,
		FnLogic:   map[*program.FunctionHead]*program.FunctionLogic{},
		TraitRefs: map[*program.FunctionHead]*program.Trait{},
		Graph:     program.NewTraitGraph(),
	}
	for head, logic := range b.Logic {
		s.FnLogic[head] = logic
	}
	for head, trait := range b.TraitRefs {
		s.TraitRefs[head] = trait
	}
	s.Graph.AddGraph(b.Graph)
	return s
}

// WithStore attaches a persistent descriptor store.
func (s *Session) WithStore(store *cache.Store) *Session {
	s.Store = store
	return s
}

// SetLogic records what a head means. Descriptors are also written through
// to the store when one is attached.
func (s *Session) SetLogic(head *program.FunctionHead, logic *program.FunctionLogic) error {
	s.FnLogic[head] = logic
	if s.Store != nil && !logic.IsImplementation() {
		return s.Store.PutDescriptor(head, logic.Descriptor)
	}
	return nil
}

// LogicFor returns the head's logic. On a table miss with a store attached,
// the store is consulted and a hit is promoted into the table.
func (s *Session) LogicFor(head *program.FunctionHead) (*program.FunctionLogic, bool) {
	if logic, ok := s.FnLogic[head]; ok {
		return logic, true
	}
	if s.Store != nil {
		desc, ok, err := s.Store.GetDescriptor(head, s.Builtins.TypesByName)
		if err == nil && ok {
			logic := program.LogicDescribed(desc)
			s.FnLogic[head] = logic
			return logic, true
		}
	}
	return nil, false
}

// AddConformanceRule registers a user-declared rule in the root graph.
func (s *Session) AddConformanceRule(rule *program.TraitConformanceRule) {
	s.Graph.AddRule(rule)
}

// Implementations returns every head whose logic is a full implementation,
// which is the set the refactor stage operates on.
func (s *Session) Implementations() []*program.FunctionImplementation {
	var impls []*program.FunctionImplementation
	for _, logic := range s.FnLogic {
		if logic.IsImplementation() {
			impls = append(impls, logic.Implementation)
		}
	}
	return impls
}
