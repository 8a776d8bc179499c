package builtins

import (
	"github.com/lumenlang/lumen/internal/config"
	"github.com/lumenlang/lumen/internal/program"
)

// addPrimitiveFunctions creates one concrete head per primitive operation,
// describes it, makes it callable, and declares the direct conformance
// rules that map the core traits' abstract functions onto those heads.
func (b *Builtins) addPrimitiveFunctions() {
	boolType := TypeOf(b.Primitives.Bool)
	stringType := TypeOf(b.Primitives.String)
	c := b.Traits

	for _, primitive := range b.Primitives.All() {
		t := TypeOf(primitive)

		equalTo := b.primitiveHead(config.EqualFuncName, binaryInterface(t, boolType), primitive, program.PrimEqualTo)
		notEqualTo := b.primitiveHead(config.NotEqualFuncName, binaryInterface(t, boolType), primitive, program.PrimNotEqualTo)
		b.addRule(c.Eq.SelfBinding(t), map[*program.FunctionHead]*program.FunctionHead{
			c.EqualTo:    equalTo,
			c.NotEqualTo: notEqualTo,
		})

		toString := b.primitiveHead(config.ToStringFuncName, unaryInterface(t, stringType), primitive, program.PrimToString)
		b.addOverload(toString.Name, toString)
	}

	for _, primitive := range b.Primitives.Numbers() {
		t := TypeOf(primitive)

		greaterThan := b.primitiveHead(config.GreaterFuncName, binaryInterface(t, boolType), primitive, program.PrimGreaterThan)
		greaterThanOrEqual := b.primitiveHead(config.GreaterEqFuncName, binaryInterface(t, boolType), primitive, program.PrimGreaterThanOrEqual)
		lesserThan := b.primitiveHead(config.LesserFuncName, binaryInterface(t, boolType), primitive, program.PrimLesserThan)
		lesserThanOrEqual := b.primitiveHead(config.LesserEqFuncName, binaryInterface(t, boolType), primitive, program.PrimLesserThanOrEqual)
		b.addRule(c.Ord.SelfBinding(t), map[*program.FunctionHead]*program.FunctionHead{
			c.GreaterThan:        greaterThan,
			c.GreaterThanOrEqual: greaterThanOrEqual,
			c.LesserThan:         lesserThan,
			c.LesserThanOrEqual:  lesserThanOrEqual,
		})

		add := b.primitiveHead(config.AddFuncName, binaryInterface(t, t), primitive, program.PrimAdd)
		subtract := b.primitiveHead(config.SubtractFuncName, binaryInterface(t, t), primitive, program.PrimSubtract)
		multiply := b.primitiveHead(config.MultiplyFuncName, binaryInterface(t, t), primitive, program.PrimMultiply)
		divide := b.primitiveHead(config.DivideFuncName, binaryInterface(t, t), primitive, program.PrimDivide)
		modulo := b.primitiveHead(config.ModuloFuncName, binaryInterface(t, t), primitive, program.PrimModulo)
		negative := b.primitiveHead(config.NegativeFuncName, unaryInterface(t, t), primitive, program.PrimNegative)
		b.addRule(c.Number.SelfBinding(t), map[*program.FunctionHead]*program.FunctionHead{
			c.Add:      add,
			c.Subtract: subtract,
			c.Multiply: multiply,
			c.Divide:   divide,
			c.Modulo:   modulo,
			c.Negative: negative,
		})

		parseInt := b.primitiveHead(config.ParseIntFuncName, unaryInterface(stringType, t), primitive, program.PrimParseIntString)
		b.addRule(c.ConstructableByIntLiteral.SelfBinding(t), map[*program.FunctionHead]*program.FunctionHead{
			c.ParseIntLiteral: parseInt,
		})
	}

	for _, primitive := range b.Primitives.Floats() {
		t := TypeOf(primitive)

		parseFloat := b.primitiveHead(config.ParseRealFuncName, unaryInterface(stringType, t), primitive, program.PrimParseRealString)
		b.addRule(c.ConstructableByFloatLiteral.SelfBinding(t), map[*program.FunctionHead]*program.FunctionHead{
			c.ParseFloatLiteral: parseFloat,
		})
	}

	bool_ := b.Primitives.Bool
	and := b.primitiveHead(config.AndFuncName, binaryInterface(boolType, boolType), bool_, program.PrimAnd)
	or := b.primitiveHead(config.OrFuncName, binaryInterface(boolType, boolType), bool_, program.PrimOr)
	not := b.primitiveHead(config.NotFuncName, unaryInterface(boolType, boolType), bool_, program.PrimNot)
	b.addOverload(and.Name, and)
	b.addOverload(or.Name, or)
	b.addOverload(not.Name, not)
}

// primitiveHead creates a concrete head backed by a native operation and
// makes it callable in the global scope.
func (b *Builtins) primitiveHead(name string, iface *program.FunctionInterface, primitive *program.Trait, op program.PrimitiveOperation) *program.FunctionHead {
	head := program.NewFunctionHead(name, iface)
	b.Logic[head] = program.LogicDescribed(&program.LogicDescriptor{
		Kind:      program.DescPrimitive,
		Operation: op,
		Primitive: primitive,
	})
	b.addOverload(name, head)
	return head
}

func (b *Builtins) addRule(binding *program.TraitBinding, mapping map[*program.FunctionHead]*program.FunctionHead) {
	b.Graph.AddRule(program.DirectRule(program.NewConformance(binding, mapping)))
}
