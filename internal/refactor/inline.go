package refactor

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/program"
)

// InlineKind classifies how a forwarder's call sites can be rewritten.
type InlineKind int

const (
	// InlineReplaceCall redirects the call to Target, reordering arguments
	// per ArgIndexes.
	InlineReplaceCall InlineKind = iota
	// InlineYieldParameter replaces the call with its ParamIndex-th argument.
	InlineYieldParameter
	// InlineNoOp drops the call entirely; the body does nothing.
	InlineNoOp
)

// InlineHint describes how to erase calls to a trivial forwarder.
type InlineHint struct {
	Kind       InlineKind
	Target     *program.FunctionHead
	ArgIndexes []int
	ParamIndex int
}

// TryInline inspects an implementation and reports whether call sites can
// bypass it. Only functions without requirement assumptions qualify: erasing
// a call that carries evidence would need the evidence extracted from the
// caller first.
func TryInline(impl *program.FunctionImplementation) (*InlineHint, bool) {
	if len(impl.Assumption.Conformance) > 0 {
		return nil, false
	}

	node := impl.Tree.Root
	for {
		op, ok := impl.Tree.Operations[node]
		if !ok {
			return nil, false
		}
		children := impl.Tree.Children[node]
		switch {
		// An empty body or a bare return does nothing at all.
		case op.Kind == program.OpBlock && len(children) == 0,
			op.Kind == program.OpReturn && len(children) == 0:
			return &InlineHint{Kind: InlineNoOp}, true
		// A single-statement block or a valued return is transparent. A
		// receiver expecting void ignores whatever the forwarded call
		// returns.
		case (op.Kind == program.OpBlock || op.Kind == program.OpReturn) && len(children) == 1:
			node = children[0]
		default:
			return trivialCallTarget(node, impl)
		}
	}
}

// trivialCallTarget recognizes the two erasable body shapes: a call passing
// only distinct parameters through, or a parameter returned as-is. Anything
// richer stays; it presumably earns its name by improving readability, and
// folding for performance is the backend's business.
func trivialCallTarget(expressionID uuid.UUID, impl *program.FunctionImplementation) (*InlineHint, bool) {
	op, ok := impl.Tree.Operations[expressionID]
	if !ok {
		return nil, false
	}
	switch op.Kind {
	case program.OpFunctionCall:
		if !op.Call.Fulfillment.IsEmpty() {
			return nil, false
		}
		children := impl.Tree.Children[expressionID]
		argIndexes := make([]int, 0, len(children))
		used := make(map[int]bool, len(children))
		for _, arg := range children {
			argOp, ok := impl.Tree.Operations[arg]
			if !ok || argOp.Kind != program.OpGetLocal {
				return nil, false
			}
			idx := parameterIndex(argOp.Local, impl)
			if idx < 0 {
				return nil, false
			}
			// A parameter used twice would alias the same expression node
			// at the call site, so it cannot be forwarded trivially.
			if used[idx] {
				return nil, false
			}
			used[idx] = true
			argIndexes = append(argIndexes, idx)
		}
		return &InlineHint{Kind: InlineReplaceCall, Target: op.Call.Function, ArgIndexes: argIndexes}, true
	case program.OpGetLocal:
		if idx := parameterIndex(op.Local, impl); idx >= 0 {
			return &InlineHint{Kind: InlineYieldParameter, ParamIndex: idx}, true
		}
	}
	return nil, false
}

func parameterIndex(ref *program.ObjectReference, impl *program.FunctionImplementation) int {
	for i, param := range impl.ParameterLocals {
		if param == ref {
			return i
		}
	}
	return -1
}
