package ast

import (
	"strings"

	"github.com/lumenlang/lumen/internal/diagnostics"
)

// Node is the base interface for all AST nodes.
type Node interface {
	Span() diagnostics.Span
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Module is the root node of a parsed source file.
type Module struct {
	File       string
	Statements []Statement
}

// LetStatement introduces a local binding, optionally with a declared type.
// let x: Int32 = f(y)
type LetStatement struct {
	Pos     diagnostics.Span
	Name    string
	Mutable bool
	Type    *TypeExpression // optional
	Value   Expression
}

func (s *LetStatement) statementNode()         {}
func (s *LetStatement) Span() diagnostics.Span { return s.Pos }

// AssignStatement overwrites an existing mutable local.
type AssignStatement struct {
	Pos   diagnostics.Span
	Name  string
	Value Expression
}

func (s *AssignStatement) statementNode()         {}
func (s *AssignStatement) Span() diagnostics.Span { return s.Pos }

// ReturnStatement returns from the enclosing function, with or without a
// value.
type ReturnStatement struct {
	Pos   diagnostics.Span
	Value Expression // nil for a bare return
}

func (s *ReturnStatement) statementNode()         {}
func (s *ReturnStatement) Span() diagnostics.Span { return s.Pos }

// ExpressionStatement is an expression evaluated for effect.
type ExpressionStatement struct {
	Value Expression
}

func (s *ExpressionStatement) statementNode()         {}
func (s *ExpressionStatement) Span() diagnostics.Span { return s.Value.Span() }

// IntLiteral is an untyped integer literal. Its type is chosen during
// resolution through the ConstructableByIntLiteral trait.
type IntLiteral struct {
	Pos   diagnostics.Span
	Value string
}

func (e *IntLiteral) expressionNode()        {}
func (e *IntLiteral) Span() diagnostics.Span { return e.Pos }

// RealLiteral is an untyped floating point literal.
type RealLiteral struct {
	Pos   diagnostics.Span
	Value string
}

func (e *RealLiteral) expressionNode()        {}
func (e *RealLiteral) Span() diagnostics.Span { return e.Pos }

// StringLiteral is a plain string literal.
type StringLiteral struct {
	Pos   diagnostics.Span
	Value string
}

func (e *StringLiteral) expressionNode()        {}
func (e *StringLiteral) Span() diagnostics.Span { return e.Pos }

// Identifier references a local or a function by name.
type Identifier struct {
	Pos  diagnostics.Span
	Name string
}

func (e *Identifier) expressionNode()        {}
func (e *Identifier) Span() diagnostics.Span { return e.Pos }

// CallExpression applies a named function to arguments.
// max(a, b)
type CallExpression struct {
	Pos       diagnostics.Span
	Name      string
	Arguments []Expression
}

func (e *CallExpression) expressionNode()        {}
func (e *CallExpression) Span() diagnostics.Span { return e.Pos }

// IfExpression evaluates the consequent or the alternative depending on the
// condition. Without an alternative the whole expression is void.
type IfExpression struct {
	Pos         diagnostics.Span
	Condition   Expression
	Consequent  Expression
	Alternative Expression // optional
}

func (e *IfExpression) expressionNode()        {}
func (e *IfExpression) Span() diagnostics.Span { return e.Pos }

// BlockExpression is a sequence of statements evaluated in order.
type BlockExpression struct {
	Pos        diagnostics.Span
	Statements []Statement
}

func (e *BlockExpression) expressionNode()        {}
func (e *BlockExpression) Span() diagnostics.Span { return e.Pos }

// TypeExpression is a type as written in source: a name applied to zero or
// more type arguments.
type TypeExpression struct {
	Pos       diagnostics.Span
	Name      string
	Arguments []*TypeExpression
}

func (t *TypeExpression) Span() diagnostics.Span { return t.Pos }

func (t *TypeExpression) String() string {
	if len(t.Arguments) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Arguments))
	for i, arg := range t.Arguments {
		parts[i] = arg.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}

// FunctionDeclaration is a named function definition with optional generics
// and trait requirements.
// fun max<T>(a: T, b: T) -> T where Ord<Self=T>
type FunctionDeclaration struct {
	Pos          diagnostics.Span
	Name         string
	Generics     []string
	Parameters   []ParameterDeclaration
	ReturnType   *TypeExpression // nil means void
	Requirements []RequirementDeclaration
	Body         *BlockExpression // nil for declared-only functions
}

func (d *FunctionDeclaration) statementNode()         {}
func (d *FunctionDeclaration) Span() diagnostics.Span { return d.Pos }

// ParameterDeclaration is a single declared parameter.
type ParameterDeclaration struct {
	Name string
	Type *TypeExpression
}

// RequirementDeclaration is a trait bound as written in a where clause.
// Ord<Self=T>
type RequirementDeclaration struct {
	Pos       diagnostics.Span
	TraitName string
	Bindings  map[string]*TypeExpression
}
