package program

import (
	"github.com/google/uuid"
)

// FunctionImplementation is a fully resolved function body: expression tree,
// type binding forest, parameters and locals, plus the requirement
// conformances the body assumes because its head declares them.
// Monomorphization produces a new implementation with a fresh identity; the
// original stays available for other instantiations.
type FunctionImplementation struct {
	ID   uuid.UUID
	Head *FunctionHead

	Assumption *RequirementsAssumption

	Tree   *ExpressionTree
	Forest *TypeForest

	ParameterLocals []*ObjectReference
	LocalNames      map[*ObjectReference]string
}

// Clone deep-copies the implementation so monomorphization can rewrite it
// without touching the original. Locals are shared; the monomorphizer remaps
// them explicitly.
func (impl *FunctionImplementation) Clone() *FunctionImplementation {
	tree := NewExpressionTree()
	tree.Root = impl.Tree.Root
	for id, children := range impl.Tree.Children {
		tree.Children[id] = append([]uuid.UUID(nil), children...)
	}
	for id, parent := range impl.Tree.Parents {
		tree.Parents[id] = parent
	}
	for id, op := range impl.Tree.Operations {
		copied := *op
		tree.Operations[id] = &copied
	}
	localNames := make(map[*ObjectReference]string, len(impl.LocalNames))
	for ref, name := range impl.LocalNames {
		localNames[ref] = name
	}
	return &FunctionImplementation{
		ID:              impl.ID,
		Head:            impl.Head,
		Assumption:      impl.Assumption,
		Tree:            tree,
		Forest:          impl.Forest.Clone(),
		ParameterLocals: append([]*ObjectReference(nil), impl.ParameterLocals...),
		LocalNames:      localNames,
	}
}

// PrimitiveOperation identifies a native operation a backend implements
// directly.
type PrimitiveOperation int

const (
	PrimAnd PrimitiveOperation = iota
	PrimOr
	PrimNot
	PrimNegative
	PrimAdd
	PrimSubtract
	PrimMultiply
	PrimDivide
	PrimModulo
	PrimEqualTo
	PrimNotEqualTo
	PrimGreaterThan
	PrimLesserThan
	PrimGreaterThanOrEqual
	PrimLesserThanOrEqual
	PrimParseIntString
	PrimParseRealString
	PrimToString
)

// DescriptorKind discriminates native logic descriptors.
type DescriptorKind int

const (
	// DescStub marks a function that is not expected to be called and is
	// injected by a backend if at all.
	DescStub DescriptorKind = iota
	// DescPrimitive is a native operation over one primitive type.
	DescPrimitive
	// DescTraitProvider is a synthetic getter standing for a trait itself,
	// used to resolve conformance declarations that name the trait.
	DescTraitProvider
)

// LogicDescriptor describes native logic for functions without a body.
type LogicDescriptor struct {
	Kind      DescriptorKind
	Operation PrimitiveOperation // DescPrimitive
	Primitive *Trait             // DescPrimitive: operand type
	Trait     *Trait             // DescTraitProvider
}

// FunctionLogic is what the session knows about one function head: either a
// resolved implementation or a native descriptor.
type FunctionLogic struct {
	Implementation *FunctionImplementation
	Descriptor     *LogicDescriptor
}

func LogicOf(impl *FunctionImplementation) *FunctionLogic {
	return &FunctionLogic{Implementation: impl}
}

func LogicDescribed(desc *LogicDescriptor) *FunctionLogic {
	return &FunctionLogic{Descriptor: desc}
}

func (l *FunctionLogic) IsImplementation() bool { return l.Implementation != nil }
