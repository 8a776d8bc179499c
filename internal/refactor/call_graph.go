package refactor

import (
	"github.com/lumenlang/lumen/internal/program"
)

// CallGraph tracks which function calls which across the set of
// implementations under refactoring. Callee order is insertion order so
// passes over the graph stay deterministic.
type CallGraph struct {
	callers map[*program.FunctionHead]map[*program.FunctionHead]bool
	callees map[*program.FunctionHead][]*program.FunctionHead
}

func NewCallGraph() *CallGraph {
	return &CallGraph{
		callers: make(map[*program.FunctionHead]map[*program.FunctionHead]bool),
		callees: make(map[*program.FunctionHead][]*program.FunctionHead),
	}
}

// Callers returns the heads currently known to call head. Order is not
// guaranteed; callers sort if they need one.
func (g *CallGraph) Callers(head *program.FunctionHead) []*program.FunctionHead {
	set := g.callers[head]
	out := make([]*program.FunctionHead, 0, len(set))
	for caller := range set {
		out = append(out, caller)
	}
	return out
}

// UpdateCallees re-derives head's callees from its implementation,
// unregistering edges that no longer exist.
func (g *CallGraph) UpdateCallees(head *program.FunctionHead, impl *program.FunctionImplementation) {
	for _, previous := range g.callees[head] {
		delete(g.callers[previous], head)
	}
	callees := GatherCallees(impl)
	for _, callee := range callees {
		set := g.callers[callee]
		if set == nil {
			set = make(map[*program.FunctionHead]bool)
			g.callers[callee] = set
		}
		set[head] = true
	}
	g.callees[head] = callees
}

// Remove forgets a head entirely, both as caller and as callee.
func (g *CallGraph) Remove(head *program.FunctionHead) {
	for _, previous := range g.callees[head] {
		delete(g.callers[previous], head)
	}
	delete(g.callees, head)
	delete(g.callers, head)
}

// DeepCallees gathers every head reachable from the given roots through call
// edges, in first-encountered order. The roots themselves appear only if
// something calls them back.
func (g *CallGraph) DeepCallees(from []*program.FunctionHead) []*program.FunctionHead {
	var gathered []*program.FunctionHead
	seen := make(map[*program.FunctionHead]bool)
	next := append([]*program.FunctionHead(nil), from...)
	for len(next) > 0 {
		current := next[len(next)-1]
		next = next[:len(next)-1]
		for _, callee := range g.callees[current] {
			if seen[callee] {
				continue
			}
			seen[callee] = true
			gathered = append(gathered, callee)
			next = append(next, callee)
		}
	}
	return gathered
}

// GatherCallees collects the distinct call targets of an implementation, in
// tree order.
func GatherCallees(impl *program.FunctionImplementation) []*program.FunctionHead {
	var callees []*program.FunctionHead
	seen := make(map[*program.FunctionHead]bool)
	for _, id := range impl.Tree.DeepChildren(impl.Tree.Root) {
		op, ok := impl.Tree.Operations[id]
		if !ok || op.Kind != program.OpFunctionCall {
			continue
		}
		if seen[op.Call.Function] {
			continue
		}
		seen[op.Call.Function] = true
		callees = append(callees, op.Call.Function)
	}
	return callees
}
