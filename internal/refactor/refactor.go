package refactor

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/session"
)

// Refactor owns a working set of implementations and rewrites them as a
// whole: monomorphizing generic calls and erasing trivial forwarders.
// Explicit functions are the ones the user named; they are never inlined
// away. Invented functions are specializations the monomorphizer created and
// are fair game.
type Refactor struct {
	session *session.Session

	Explicit []*program.FunctionHead
	Invented []*program.FunctionHead

	Implementations map[*program.FunctionHead]*program.FunctionImplementation

	graph *CallGraph
	hints map[*program.FunctionHead]*InlineHint

	Mono *Monomorphizer
}

func New(sess *session.Session) *Refactor {
	return &Refactor{
		session:         sess,
		Implementations: make(map[*program.FunctionHead]*program.FunctionImplementation),
		graph:           NewCallGraph(),
		hints:           make(map[*program.FunctionHead]*InlineHint),
		Mono:            NewMonomorphizer(),
	}
}

// Add registers an explicit function.
func (r *Refactor) Add(impl *program.FunctionImplementation) error {
	r.Explicit = append(r.Explicit, impl.Head)
	return r.add(impl)
}

func (r *Refactor) add(impl *program.FunctionImplementation) error {
	r.Implementations[impl.Head] = impl
	r.graph.UpdateCallees(impl.Head, impl)

	// Calls may already have been inlined elsewhere before this
	// implementation arrived.
	if len(r.hints) > 0 {
		return r.InlineCalls(impl.Head)
	}
	return nil
}

// Monomorphize specializes one explicit function and then every generic
// call transitively reachable from it. shouldMonomorphize decides per call
// whether a specialization is created or the call is left generic.
func (r *Refactor) Monomorphize(head *program.FunctionHead, shouldMonomorphize func(*program.FunctionBinding) bool) error {
	impl, ok := r.Implementations[head]
	if !ok {
		return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
			"no implementation registered for %s", head)
	}
	if len(head.Interface.Generics) > 0 {
		return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
			"cannot fully specialize %s: its own generics are unbound", head)
	}

	// The entry is handled with its generics as declared, so the binding
	// carries no evidence.
	if err := r.Mono.MonomorphizeFunction(impl, program.BindPlain(head), shouldMonomorphize); err != nil {
		return err
	}
	r.graph.UpdateCallees(head, impl)

	for len(r.Mono.NewEncounteredCalls) > 0 {
		binding := r.Mono.NewEncounteredCalls[0]
		r.Mono.NewEncounteredCalls = r.Mono.NewEncounteredCalls[1:]

		logic, ok := r.session.LogicFor(binding.Function)
		if !ok || !logic.IsImplementation() {
			// Native or injected; nothing to specialize.
			continue
		}

		monoImpl := logic.Implementation.Clone()
		// Calls with an empty fulfillment were not specialized; their
		// implementation is reused as-is.
		if _, specialized := r.Mono.MonoOf(binding); specialized {
			if err := r.Mono.MonomorphizeFunction(monoImpl, binding, shouldMonomorphize); err != nil {
				return err
			}
		}

		r.Invented = append(r.Invented, monoImpl.Head)
		if err := r.add(monoImpl); err != nil {
			return err
		}
	}
	return nil
}

// DeepFunctions returns the roots followed by every implemented function
// transitively reachable from them through calls, in first-encountered
// order. Callees without a registered implementation (native primitives) are
// left out. This is the set a backend would emit.
func (r *Refactor) DeepFunctions(roots []*program.FunctionHead) []*program.FunctionHead {
	seen := make(map[*program.FunctionHead]bool, len(roots))
	gathered := make([]*program.FunctionHead, 0, len(roots))
	for _, root := range roots {
		if seen[root] {
			continue
		}
		seen[root] = true
		gathered = append(gathered, root)
	}
	for _, callee := range r.graph.DeepCallees(roots) {
		if seen[callee] || r.Implementations[callee] == nil {
			continue
		}
		seen[callee] = true
		gathered = append(gathered, callee)
	}
	return gathered
}

// TryInline erases a trivial invented forwarder: its callers are rewritten
// to bypass it and the function is dropped from the working set. Explicit
// functions keep their call sites.
func (r *Refactor) TryInline(head *program.FunctionHead) (bool, error) {
	for _, explicit := range r.Explicit {
		if explicit == head {
			return false, nil
		}
	}
	impl, ok := r.Implementations[head]
	if !ok {
		return false, nil
	}
	hint, ok := TryInline(impl)
	if !ok {
		return false, nil
	}

	r.inlineCascade(head, hint)

	for _, caller := range r.graph.Callers(head) {
		if err := r.InlineCalls(caller); err != nil {
			return false, err
		}
	}

	kept := r.Invented[:0]
	for _, invented := range r.Invented {
		if invented != head {
			kept = append(kept, invented)
		}
	}
	r.Invented = kept
	delete(r.Implementations, head)
	r.graph.Remove(head)
	return true, nil
}

// InlineCalls rewrites head's body per the current hints.
func (r *Refactor) InlineCalls(head *program.FunctionHead) error {
	impl := r.Implementations[head]
	tree := impl.Tree

	for _, expressionID := range tree.DeepChildren(tree.Root) {
		op, ok := tree.Operations[expressionID]
		if !ok {
			// Truncated away by an earlier rewrite.
			continue
		}
		if op.Kind != program.OpFunctionCall {
			continue
		}
		hint, ok := r.hints[op.Call.Function]
		if !ok {
			continue
		}
		switch hint.Kind {
		case InlineReplaceCall:
			// The fulfillment can be empty: carrying one would have
			// blocked the hint.
			op.Call = program.BindPlain(hint.Target)
			tree.SwizzleArguments(expressionID, hint.ArgIndexes)
		case InlineYieldParameter:
			tree.InlineChild(expressionID, hint.ParamIndex)
		case InlineNoOp:
			parent, hasParent := tree.Parents[expressionID]
			if !hasParent {
				return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
					"cannot erase call to %s: it is the whole body of %s",
					op.Call.Function, head)
			}
			parentOp := tree.Operations[parent]
			if parentOp == nil || parentOp.Kind != program.OpBlock {
				return diagnostics.Errorf(diagnostics.ErrI001, diagnostics.Span{},
					"cannot erase call to %s: its value is used by %s",
					op.Call.Function, head)
			}
			siblings := tree.Children[parent]
			kept := make([]uuid.UUID, 0, len(siblings)-1)
			for _, sibling := range siblings {
				if sibling != expressionID {
					kept = append(kept, sibling)
				}
			}
			tree.Children[parent] = kept
			tree.TruncateDown([]uuid.UUID{expressionID})
		}
	}

	r.graph.UpdateCallees(head, impl)
	return nil
}

// inlineCascade records the new hint and re-evaluates every caller whose own
// hint pointed at a function that just became inlinable, composing hints so
// chains of forwarders collapse in one pass.
func (r *Refactor) inlineCascade(head *program.FunctionHead, hint *InlineHint) {
	type pending struct {
		head *program.FunctionHead
		hint *InlineHint
	}
	affected := []pending{{head, hint}}
	for cursor := 0; cursor < len(affected); cursor++ {
		for _, caller := range r.graph.Callers(affected[cursor].head) {
			if callerHint, ok := r.hints[caller]; ok {
				delete(r.hints, caller)
				affected = append(affected, pending{caller, callerHint})
			}
		}
	}

	for _, entry := range affected {
		r.hints[entry.head] = r.composeHint(entry.hint)
	}
}

// composeHint flattens a ReplaceCall hint whose target is itself inlinable.
func (r *Refactor) composeHint(hint *InlineHint) *InlineHint {
	if hint.Kind != InlineReplaceCall {
		return hint
	}
	target, ok := r.hints[hint.Target]
	if !ok {
		return hint
	}
	switch target.Kind {
	case InlineReplaceCall:
		composed := make([]int, len(target.ArgIndexes))
		for i, idx := range target.ArgIndexes {
			composed[i] = hint.ArgIndexes[idx]
		}
		return &InlineHint{Kind: InlineReplaceCall, Target: target.Target, ArgIndexes: composed}
	case InlineYieldParameter:
		return &InlineHint{Kind: InlineYieldParameter, ParamIndex: hint.ArgIndexes[target.ParamIndex]}
	default:
		return target
	}
}
