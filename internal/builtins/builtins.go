// Package builtins constructs the root module every program compiles
// against: the primitive types, the core traits, their conformance rules,
// and the descriptor logic for every primitive operation.
package builtins

import (
	"github.com/lumenlang/lumen/internal/config"
	"github.com/lumenlang/lumen/internal/program"
)

// Primitives holds the nominal traits backing the primitive types.
type Primitives struct {
	Bool    *program.Trait
	Int32   *program.Trait
	Int64   *program.Trait
	Float32 *program.Trait
	Float64 *program.Trait
	String  *program.Trait
}

// All returns every primitive in declaration order.
func (p *Primitives) All() []*program.Trait {
	return []*program.Trait{p.Bool, p.Int32, p.Int64, p.Float32, p.Float64, p.String}
}

// Numbers returns the primitives that conform to Number.
func (p *Primitives) Numbers() []*program.Trait {
	return []*program.Trait{p.Int32, p.Int64, p.Float32, p.Float64}
}

// Floats returns the primitives constructable from a float literal.
func (p *Primitives) Floats() []*program.Trait {
	return []*program.Trait{p.Float32, p.Float64}
}

// CoreTraits are the traits the resolver depends on by identity: literal
// construction and the operator traits. Each abstract head is kept so
// conformance rules and call sites can reference it directly.
type CoreTraits struct {
	Eq         *program.Trait
	EqualTo    *program.FunctionHead
	NotEqualTo *program.FunctionHead

	Ord                *program.Trait
	GreaterThan        *program.FunctionHead
	GreaterThanOrEqual *program.FunctionHead
	LesserThan         *program.FunctionHead
	LesserThanOrEqual  *program.FunctionHead

	Number   *program.Trait
	Add      *program.FunctionHead
	Subtract *program.FunctionHead
	Multiply *program.FunctionHead
	Divide   *program.FunctionHead
	Modulo   *program.FunctionHead
	Negative *program.FunctionHead

	ConstructableByIntLiteral *program.Trait
	ParseIntLiteral           *program.FunctionHead

	ConstructableByFloatLiteral *program.Trait
	ParseFloatLiteral           *program.FunctionHead
}

// Builtins is the fully assembled root module.
type Builtins struct {
	Primitives *Primitives
	Traits     *CoreTraits

	// Graph holds the direct conformance rules of the primitives.
	Graph *program.TraitGraph

	// Logic describes every builtin head: primitive operation descriptors
	// and trait provider getters.
	Logic map[*program.FunctionHead]*program.FunctionLogic

	// Overloads seeds the global scope, keyed by callable name.
	Overloads map[string]*program.FunctionOverload

	// TraitRefs maps synthetic getter heads to the trait they stand for.
	TraitRefs map[*program.FunctionHead]*program.Trait

	// TypesByName resolves type expressions; TraitsByName resolves
	// requirement declarations.
	TypesByName  map[string]*program.Trait
	TraitsByName map[string]*program.Trait
}

// TypeOf is shorthand for the struct type of a primitive.
func TypeOf(trait *program.Trait) *program.Type {
	return program.StructType(trait)
}

// New assembles the builtin module from scratch. Each call creates fresh
// trait and function identities.
func New() *Builtins {
	primitives := &Primitives{
		Bool:    program.NewTrait(config.BoolTypeName),
		Int32:   program.NewTrait(config.Int32TypeName),
		Int64:   program.NewTrait(config.Int64TypeName),
		Float32: program.NewTrait(config.Float32TypeName),
		Float64: program.NewTrait(config.Float64TypeName),
		String:  program.NewTrait(config.StringTypeName),
	}

	b := &Builtins{
		Primitives:   primitives,
		Traits:       makeCoreTraits(TypeOf(primitives.Bool), TypeOf(primitives.String)),
		Graph:        program.NewTraitGraph(),
		Logic:        map[*program.FunctionHead]*program.FunctionLogic{},
		Overloads:    map[string]*program.FunctionOverload{},
		TraitRefs:    map[*program.FunctionHead]*program.Trait{},
		TypesByName:  map[string]*program.Trait{},
		TraitsByName: map[string]*program.Trait{},
	}

	for _, trait := range primitives.All() {
		b.TypesByName[trait.Name] = trait
	}
	for _, trait := range []*program.Trait{
		b.Traits.Eq, b.Traits.Ord, b.Traits.Number,
		b.Traits.ConstructableByIntLiteral, b.Traits.ConstructableByFloatLiteral,
	} {
		b.TraitsByName[trait.Name] = trait
		b.addTraitReference(trait)
	}

	b.addPrimitiveFunctions()
	return b
}

func makeCoreTraits(boolType, stringType *program.Type) *CoreTraits {
	c := &CoreTraits{}

	c.Eq = program.NewTraitWithSelf(config.EqTraitName)
	self := c.Eq.GenericTypeOf(program.SelfParam)
	c.EqualTo = abstractHead(c.Eq, config.EqualFuncName, binaryInterface(self, boolType))
	c.NotEqualTo = abstractHead(c.Eq, config.NotEqualFuncName, binaryInterface(self, boolType))

	c.Ord = program.NewTraitWithSelf(config.OrdTraitName)
	self = c.Ord.GenericTypeOf(program.SelfParam)
	c.GreaterThan = abstractHead(c.Ord, config.GreaterFuncName, binaryInterface(self, boolType))
	c.GreaterThanOrEqual = abstractHead(c.Ord, config.GreaterEqFuncName, binaryInterface(self, boolType))
	c.LesserThan = abstractHead(c.Ord, config.LesserFuncName, binaryInterface(self, boolType))
	c.LesserThanOrEqual = abstractHead(c.Ord, config.LesserEqFuncName, binaryInterface(self, boolType))
	c.Ord.RequireParent(c.Eq)

	c.Number = program.NewTraitWithSelf(config.NumberTraitName)
	self = c.Number.GenericTypeOf(program.SelfParam)
	c.Add = abstractHead(c.Number, config.AddFuncName, binaryInterface(self, self))
	c.Subtract = abstractHead(c.Number, config.SubtractFuncName, binaryInterface(self, self))
	c.Multiply = abstractHead(c.Number, config.MultiplyFuncName, binaryInterface(self, self))
	c.Divide = abstractHead(c.Number, config.DivideFuncName, binaryInterface(self, self))
	c.Modulo = abstractHead(c.Number, config.ModuloFuncName, binaryInterface(self, self))
	c.Negative = abstractHead(c.Number, config.NegativeFuncName, unaryInterface(self, self))
	c.Number.RequireParent(c.Ord)

	c.ConstructableByIntLiteral = program.NewTraitWithSelf(config.IntLiteralTraitName)
	self = c.ConstructableByIntLiteral.GenericTypeOf(program.SelfParam)
	c.ParseIntLiteral = abstractHead(c.ConstructableByIntLiteral, config.ParseIntFuncName, unaryInterface(stringType, self))

	c.ConstructableByFloatLiteral = program.NewTraitWithSelf(config.FloatLiteralTraitName)
	self = c.ConstructableByFloatLiteral.GenericTypeOf(program.SelfParam)
	c.ParseFloatLiteral = abstractHead(c.ConstructableByFloatLiteral, config.ParseRealFuncName, unaryInterface(stringType, self))

	return c
}

func abstractHead(trait *program.Trait, name string, iface *program.FunctionInterface) *program.FunctionHead {
	head := program.NewFunctionHead(name, iface)
	trait.AbstractFunctions = append(trait.AbstractFunctions, head)
	return head
}

func binaryInterface(operand, result *program.Type) *program.FunctionInterface {
	return program.NewSimpleInterface([]*program.Type{operand, operand}, result)
}

func unaryInterface(operand, result *program.Type) *program.FunctionInterface {
	return program.NewSimpleInterface([]*program.Type{operand}, result)
}

// addTraitReference registers a synthetic getter standing for the trait
// itself, so declarations can name it as a value.
func (b *Builtins) addTraitReference(trait *program.Trait) {
	head := program.NewFunctionHead(trait.Name,
		program.NewSimpleInterface(nil, program.MetaType(program.StructType(trait))))
	b.Logic[head] = program.LogicDescribed(&program.LogicDescriptor{
		Kind:  program.DescTraitProvider,
		Trait: trait,
	})
	b.TraitRefs[head] = trait
}

// addOverload makes head callable under name in the global scope.
func (b *Builtins) addOverload(name string, head *program.FunctionHead) {
	if existing, ok := b.Overloads[name]; ok {
		b.Overloads[name] = existing.Adding(head)
		return
	}
	b.Overloads[name] = (&program.FunctionOverload{Name: name}).Adding(head)
}
