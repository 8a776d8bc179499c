package program

import (
	"github.com/google/uuid"
)

// Mutability of a local.
type Mutability int

const (
	Immutable Mutability = iota
	Mutable
)

// ObjectReference identifies a local (or parameter) together with its
// declared type. Identity is the pointer; the ID survives type remapping
// during monomorphization.
type ObjectReference struct {
	ID         uuid.UUID
	Type       *Type
	Mutability Mutability
}

func NewImmutableLocal(t *Type) *ObjectReference {
	return &ObjectReference{ID: uuid.New(), Type: t, Mutability: Immutable}
}

func NewLocal(t *Type, mutability Mutability) *ObjectReference {
	return &ObjectReference{ID: uuid.New(), Type: t, Mutability: mutability}
}

// OperationKind discriminates expression operations.
type OperationKind int

const (
	OpBlock OperationKind = iota
	OpGetLocal
	OpSetLocal
	OpReturn
	OpIfThenElse
	OpFunctionCall
	OpStringLiteral
)

// Operation is one node's payload in an expression tree.
type Operation struct {
	Kind    OperationKind
	Local   *ObjectReference // OpGetLocal, OpSetLocal
	Call    *FunctionBinding // OpFunctionCall
	Literal string           // OpStringLiteral
}

func BlockOp() *Operation                            { return &Operation{Kind: OpBlock} }
func GetLocalOp(ref *ObjectReference) *Operation     { return &Operation{Kind: OpGetLocal, Local: ref} }
func SetLocalOp(ref *ObjectReference) *Operation     { return &Operation{Kind: OpSetLocal, Local: ref} }
func ReturnOp() *Operation                           { return &Operation{Kind: OpReturn} }
func IfThenElseOp() *Operation                       { return &Operation{Kind: OpIfThenElse} }
func CallOp(binding *FunctionBinding) *Operation     { return &Operation{Kind: OpFunctionCall, Call: binding} }
func StringLiteralOp(value string) *Operation        { return &Operation{Kind: OpStringLiteral, Literal: value} }

// ExpressionTree is a flat arena of expression nodes addressed by ID.
// Children and parents are kept for every registered node; operations may
// lag behind while resolution is still pending. It is owned by exactly one
// FunctionImplementation and mutated in place by inlining.
type ExpressionTree struct {
	Root       uuid.UUID
	Children   map[uuid.UUID][]uuid.UUID
	Parents    map[uuid.UUID]uuid.UUID
	Operations map[uuid.UUID]*Operation
}

func NewExpressionTree() *ExpressionTree {
	return &ExpressionTree{
		Children:   make(map[uuid.UUID][]uuid.UUID),
		Parents:    make(map[uuid.UUID]uuid.UUID),
		Operations: make(map[uuid.UUID]*Operation),
	}
}

// Register adds a node with the given children, wiring parent pointers.
func (t *ExpressionTree) Register(id uuid.UUID, children []uuid.UUID) {
	for _, child := range children {
		t.Parents[child] = id
	}
	t.Children[id] = children
}

// DeepChildren returns id and every node reachable below it. Iterative so
// tree depth does not bound stack depth.
func (t *ExpressionTree) DeepChildren(start uuid.UUID) []uuid.UUID {
	ordered := []uuid.UUID{}
	next := []uuid.UUID{start}
	for len(next) > 0 {
		current := next[len(next)-1]
		next = next[:len(next)-1]
		ordered = append(ordered, current)
		children := t.Children[current]
		for i := len(children) - 1; i >= 0; i-- {
			next = append(next, children[i])
		}
	}
	return ordered
}

// TruncateDown removes the given nodes and all their descendants.
func (t *ExpressionTree) TruncateDown(roots []uuid.UUID) {
	next := append([]uuid.UUID(nil), roots...)
	for len(next) > 0 {
		current := next[len(next)-1]
		next = next[:len(next)-1]
		delete(t.Operations, current)
		delete(t.Parents, current)
		next = append(next, t.Children[current]...)
		delete(t.Children, current)
	}
}

// SwizzleArguments reorders (and possibly drops) a node's children by index,
// truncating whatever is no longer referenced. Used when a call is redirected
// to a function with a different parameter order.
func (t *ExpressionTree) SwizzleArguments(id uuid.UUID, swizzle []int) {
	before := t.Children[id]
	kept := make(map[int]bool, len(swizzle))
	after := make([]uuid.UUID, len(swizzle))
	for i, idx := range swizzle {
		after[i] = before[idx]
		kept[idx] = true
	}
	var removed []uuid.UUID
	for idx, child := range before {
		if !kept[idx] {
			removed = append(removed, child)
		}
	}
	t.Children[id] = after
	t.TruncateDown(removed)
}

// InlineChild replaces the node with its argIdx-th child, splicing the
// child's operation and children into the node's position.
func (t *ExpressionTree) InlineChild(id uuid.UUID, argIdx int) {
	before := append([]uuid.UUID(nil), t.Children[id]...)
	replacement := before[argIdx]
	rest := append(append([]uuid.UUID(nil), before[:argIdx]...), before[argIdx+1:]...)

	replacementOp := t.Operations[replacement]
	replacementChildren := t.Children[replacement]
	delete(t.Operations, replacement)
	delete(t.Children, replacement)
	delete(t.Parents, replacement)

	for _, child := range replacementChildren {
		t.Parents[child] = id
	}
	t.Operations[id] = replacementOp
	t.Children[id] = replacementChildren
	t.TruncateDown(rest)
}
