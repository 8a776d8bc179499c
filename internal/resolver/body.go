// Package resolver turns untyped function bodies into typed expression
// trees. Everything that cannot be decided from the left-to-right walk is
// parked as an ambiguity and retried in rounds until a fixed point: a round
// that resolves nothing while ambiguities remain is a hard error, never a
// backtrack.
package resolver

import (
	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/diagnostics"
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/session"
)

// BodyResolver resolves one function body. Expression IDs double as forest
// aliases: an expression's type is whatever its alias resolves to.
type BodyResolver struct {
	head    *program.FunctionHead
	session *session.Session

	// The head's interface with the function's own generics frozen; body
	// statements check against these types.
	frozen *program.FunctionInterface

	forest *program.TypeForest
	tree   *program.ExpressionTree

	ambiguities []*ambiguity
	localNames  map[*program.ObjectReference]string
}

// ResolveFunctionBody types a function body against its head's interface.
// The head's requirements are assumed granted inside the body: their
// abstract functions become callable through polymorphic stand-ins.
func ResolveFunctionBody(head *program.FunctionHead, body *ast.BlockExpression, scope *Scope, sess *session.Session) (*program.FunctionImplementation, error) {
	sub := scope.Subscope()

	// Inside its own body the function's generics are rigid: nothing the
	// body does may narrow them, so their placeholders freeze to generic
	// markers. Monomorphization thaws them again.
	frozen := head.Interface.MappingTypes(freezeGenerics)

	granted := sub.Conformance.AssumeGranted(frozen.Requirements)
	for _, conformance := range granted {
		sub.Conformance.AddRule(program.DirectRule(conformance))
		for _, mapped := range conformance.FunctionMapping {
			sub.AddOverload(mapped.Name, mapped)
		}
	}

	r := &BodyResolver{
		head:       head,
		session:    sess,
		frozen:     frozen,
		forest:     program.NewTypeForest(),
		tree:       program.NewExpressionTree(),
		localNames: map[*program.ObjectReference]string{},
	}

	parameterLocals := make([]*program.ObjectReference, len(frozen.Parameters))
	for i, param := range frozen.Parameters {
		ref := program.NewImmutableLocal(param.Type)
		r.registerLocal(param.Name, ref, sub)
		parameterLocals[i] = ref
	}

	rootID, err := r.resolveExpression(body, sub)
	if err != nil {
		return nil, err
	}
	if err := r.forest.Bind(rootID, frozen.ReturnType); err != nil {
		return nil, err
	}
	r.tree.Root = rootID

	if err := r.resolveAllAmbiguities(); err != nil {
		return nil, err
	}

	return &program.FunctionImplementation{
		ID:              uuid.New(),
		Head:            head,
		Assumption:      &program.RequirementsAssumption{Conformance: granted},
		Tree:            r.tree,
		Forest:          r.forest,
		ParameterLocals: parameterLocals,
		LocalNames:      r.localNames,
	}, nil
}

// resolveAllAmbiguities runs rounds over the pending ambiguities until all
// are decided. A full round without progress means the program does not
// pin down the remaining types. The session's MaxPasses additionally caps
// the number of rounds when set.
func (r *BodyResolver) resolveAllAmbiguities() error {
	hasChanged := true
	passes := 0
	for len(r.ambiguities) > 0 {
		if !hasChanged {
			return r.ambiguityFailure("%d expression(s) remain ambiguous in %s",
				len(r.ambiguities), r.head.Name)
		}
		if r.session.MaxPasses > 0 && passes >= r.session.MaxPasses {
			return r.ambiguityFailure("%d expression(s) remain ambiguous in %s after %d pass(es)",
				len(r.ambiguities), r.head.Name, passes)
		}
		passes++
		hasChanged = false

		pending := r.ambiguities
		r.ambiguities = nil
		for _, a := range pending {
			done, err := a.attempt(r)
			if err != nil {
				return err
			}
			if done {
				hasChanged = true
			} else {
				r.ambiguities = append(r.ambiguities, a)
			}
		}
	}
	return nil
}

func (r *BodyResolver) ambiguityFailure(format string, args ...interface{}) error {
	failure := diagnostics.Errorf(diagnostics.ErrR002, r.ambiguities[0].pos, format, args...)
	for _, a := range r.ambiguities {
		failure = failure.WithNote(diagnostics.Note(a.pos, "%s", a.String()))
	}
	return failure
}

// registerNewExpression allocates an expression node and its forest alias.
func (r *BodyResolver) registerNewExpression(children []uuid.UUID) uuid.UUID {
	id := uuid.New()
	r.forest.Register(id)
	r.tree.Register(id, children)
	return id
}

func (r *BodyResolver) resolveUnambiguous(children []uuid.UUID, t *program.Type, op *program.Operation) (uuid.UUID, error) {
	id := r.registerNewExpression(children)
	r.tree.Operations[id] = op
	if err := r.forest.Bind(id, t); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// registerAmbiguity tries to decide immediately and parks the ambiguity
// otherwise.
func (r *BodyResolver) registerAmbiguity(a *ambiguity) error {
	done, err := a.attempt(r)
	if err != nil {
		return err
	}
	if !done {
		r.ambiguities = append(r.ambiguities, a)
	}
	return nil
}

func (r *BodyResolver) registerLocal(name string, ref *program.ObjectReference, scope *Scope) {
	r.localNames[ref] = name
	scope.AddLocal(name, ref)
}

func (r *BodyResolver) resolveExpression(expr ast.Expression, scope *Scope) (uuid.UUID, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return r.resolveNumberLiteral(e.Value, false, e.Pos, scope)
	case *ast.RealLiteral:
		return r.resolveNumberLiteral(e.Value, true, e.Pos, scope)
	case *ast.StringLiteral:
		return r.resolveUnambiguous(nil,
			builtins.TypeOf(r.session.Builtins.Primitives.String),
			program.StringLiteralOp(e.Value))
	case *ast.Identifier:
		if ref, ok := scope.ResolveLocal(e.Name); ok {
			return r.resolveUnambiguous(nil, ref.Type, program.GetLocalOp(ref))
		}
		return r.resolveFunctionCall(e.Name, nil, scope, e.Pos)
	case *ast.CallExpression:
		arguments := make([]uuid.UUID, len(e.Arguments))
		for i, arg := range e.Arguments {
			id, err := r.resolveExpression(arg, scope)
			if err != nil {
				return uuid.Nil, err
			}
			arguments[i] = id
		}
		return r.resolveFunctionCall(e.Name, arguments, scope, e.Pos)
	case *ast.IfExpression:
		return r.resolveIfExpression(e, scope)
	case *ast.BlockExpression:
		return r.resolveBlock(e, scope)
	}
	return uuid.Nil, diagnostics.Errorf(diagnostics.ErrI001, expr.Span(), "unsupported expression form %T", expr)
}

// resolveNumberLiteral defers the literal's type to its use sites.
func (r *BodyResolver) resolveNumberLiteral(value string, isFloat bool, pos diagnostics.Span, scope *Scope) (uuid.UUID, error) {
	id := r.registerNewExpression(nil)
	err := r.registerAmbiguity(&ambiguity{
		kind: ambiguityNumberLiteral,
		pos:  pos,
		numberLiteral: &numberLiteralAmbiguity{
			expressionID: id,
			value:        value,
			isFloat:      isFloat,
			conformance:  scope.Conformance.Clone(),
			pos:          pos,
		},
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *BodyResolver) resolveIfExpression(e *ast.IfExpression, scope *Scope) (uuid.UUID, error) {
	condition, err := r.resolveExpression(e.Condition, scope)
	if err != nil {
		return uuid.Nil, err
	}
	if err := r.forest.Bind(condition, builtins.TypeOf(r.session.Builtins.Primitives.Bool)); err != nil {
		return uuid.Nil, err
	}
	consequent, err := r.resolveExpression(e.Consequent, scope)
	if err != nil {
		return uuid.Nil, err
	}

	arguments := []uuid.UUID{condition, consequent}
	resultType := program.VoidType()
	if e.Alternative != nil {
		alternative, err := r.resolveExpression(e.Alternative, scope)
		if err != nil {
			return uuid.Nil, err
		}
		// Both branches share one type.
		if err := r.forest.Bind(alternative, program.AnyType(consequent)); err != nil {
			return uuid.Nil, err
		}
		arguments = append(arguments, alternative)
		resultType = program.AnyType(consequent)
	}

	id := r.registerNewExpression(arguments)
	r.tree.Operations[id] = program.IfThenElseOp()
	if err := r.forest.Bind(id, resultType); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *BodyResolver) resolveBlock(e *ast.BlockExpression, scope *Scope) (uuid.UUID, error) {
	sub := scope.Subscope()
	statements := make([]uuid.UUID, 0, len(e.Statements))
	for _, stmt := range e.Statements {
		id, err := r.resolveStatement(stmt, sub)
		if err != nil {
			return uuid.Nil, err
		}
		statements = append(statements, id)
	}

	id := r.registerNewExpression(statements)
	r.tree.Operations[id] = program.BlockOp()
	return id, nil
}

func (r *BodyResolver) resolveStatement(stmt ast.Statement, scope *Scope) (uuid.UUID, error) {
	switch s := stmt.(type) {
	case *ast.LetStatement:
		value, err := r.resolveExpression(s.Value, scope)
		if err != nil {
			return uuid.Nil, err
		}
		if s.Type != nil {
			declared, err := r.typeFromExpression(s.Type, scope)
			if err != nil {
				return uuid.Nil, err
			}
			if err := r.forest.Bind(value, declared); err != nil {
				return uuid.Nil, err
			}
		}

		mutability := program.Immutable
		if s.Mutable {
			mutability = program.Mutable
		}
		// The local's type follows the assignment's alias.
		ref := program.NewLocal(program.AnyType(value), mutability)
		r.registerLocal(s.Name, ref, scope)

		return r.resolveUnambiguous([]uuid.UUID{value}, program.VoidType(), program.SetLocalOp(ref))

	case *ast.AssignStatement:
		value, err := r.resolveExpression(s.Value, scope)
		if err != nil {
			return uuid.Nil, err
		}
		ref, ok := scope.ResolveLocal(s.Name)
		if !ok {
			return uuid.Nil, diagnostics.Errorf(diagnostics.ErrR001, s.Pos, "unknown local %s", s.Name)
		}
		if ref.Mutability != program.Mutable {
			return uuid.Nil, diagnostics.Errorf(diagnostics.ErrR001, s.Pos, "%s is not mutable", s.Name)
		}
		if err := r.forest.Bind(value, ref.Type); err != nil {
			return uuid.Nil, err
		}
		return r.resolveUnambiguous([]uuid.UUID{value}, program.VoidType(), program.SetLocalOp(ref))

	case *ast.ReturnStatement:
		if s.Value != nil {
			if r.frozen.ReturnType.IsVoid() {
				return uuid.Nil, diagnostics.Errorf(diagnostics.ErrR001, s.Pos,
					"return offers a value but %s declares no result", r.head.Name)
			}
			value, err := r.resolveExpression(s.Value, scope)
			if err != nil {
				return uuid.Nil, err
			}
			if err := r.forest.Bind(value, r.frozen.ReturnType); err != nil {
				return uuid.Nil, err
			}
			return r.resolveUnambiguous([]uuid.UUID{value}, program.VoidType(), program.ReturnOp())
		}
		if !r.frozen.ReturnType.IsVoid() {
			return uuid.Nil, diagnostics.Errorf(diagnostics.ErrR001, s.Pos,
				"return offers no value but %s declares a result", r.head.Name)
		}
		return r.resolveUnambiguous(nil, program.VoidType(), program.ReturnOp())

	case *ast.ExpressionStatement:
		return r.resolveExpression(s.Value, scope)
	}
	return uuid.Nil, diagnostics.Errorf(diagnostics.ErrI001, stmt.Span(), "unsupported statement form %T", stmt)
}

// resolveFunctionCall seeds one candidate per arity-matching overload and
// defers the choice. Mismatched arities are remembered for the error
// message when nothing is callable.
func (r *BodyResolver) resolveFunctionCall(name string, arguments []uuid.UUID, scope *Scope, pos diagnostics.Span) (uuid.UUID, error) {
	overload, ok := scope.ResolveOverload(name)
	if !ok {
		if id, matched, err := r.resolveAbstractFallback(name, arguments, scope, pos); matched {
			return id, err
		}
		return uuid.Nil, diagnostics.Errorf(diagnostics.ErrR001, pos, "unknown function %s", name)
	}

	var candidates []*callCandidate
	var wrongArity []*program.FunctionHead
	for _, head := range overload.SortedHeads() {
		if len(head.Interface.Parameters) != len(arguments) {
			wrongArity = append(wrongArity, head)
			continue
		}
		candidates = append(candidates, newCallCandidate(head))
	}

	if len(candidates) >= 1 {
		id := r.registerNewExpression(arguments)
		err := r.registerAmbiguity(&ambiguity{
			kind: ambiguityFunctionCall,
			pos:  pos,
			functionCall: &functionCallAmbiguity{
				expressionID: id,
				name:         name,
				arguments:    arguments,
				conformance:  scope.Conformance.Clone(),
				pos:          pos,
				candidates:   candidates,
			},
		})
		if err != nil {
			return uuid.Nil, err
		}
		return id, nil
	}

	failure := diagnostics.Errorf(diagnostics.ErrR001, pos,
		"no overload of %s takes %d argument(s)", name, len(arguments))
	for _, head := range wrongArity {
		failure = failure.WithNote(diagnostics.Note(pos, "candidate %s", head))
	}
	return uuid.Nil, failure
}

// resolveAbstractFallback routes a name with no overload set to a trait's
// abstract function when exactly one in-scope trait declares it. The call's
// own type decides the conformance later.
func (r *BodyResolver) resolveAbstractFallback(name string, arguments []uuid.UUID, scope *Scope, pos diagnostics.Span) (uuid.UUID, bool, error) {
	var trait *program.Trait
	var abstract *program.FunctionHead
	for _, candidate := range scope.Traits {
		for _, fn := range candidate.AbstractFunctions {
			if fn.Name != name || len(fn.Interface.Parameters) != len(arguments) {
				continue
			}
			if abstract != nil {
				return uuid.Nil, false, nil
			}
			trait, abstract = candidate, fn
		}
	}
	if abstract == nil {
		return uuid.Nil, false, nil
	}
	id, err := r.ResolveAbstractCall(arguments, trait, abstract, scope, pos)
	return id, true, err
}

// ResolveAbstractCall registers a call to a trait's abstract function whose
// receiver type is not known yet.
func (r *BodyResolver) ResolveAbstractCall(arguments []uuid.UUID, trait *program.Trait, abstract *program.FunctionHead, scope *Scope, pos diagnostics.Span) (uuid.UUID, error) {
	id := r.registerNewExpression(arguments)
	err := r.registerAmbiguity(&ambiguity{
		kind: ambiguityAbstractCall,
		pos:  pos,
		abstractCall: &abstractCallAmbiguity{
			expressionID:     id,
			arguments:        arguments,
			conformance:      scope.Conformance.Clone(),
			pos:              pos,
			trait:            trait,
			abstractFunction: abstract,
		},
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// typeFromExpression resolves a type as written against the scope's type
// names and the enclosing function's generics. The generics come out
// frozen, consistent with the rest of the body.
func (r *BodyResolver) typeFromExpression(texpr *ast.TypeExpression, scope *Scope) (*program.Type, error) {
	t, err := resolveTypeExpression(texpr, r.head.Interface.Generics, scope)
	if err != nil {
		return nil, err
	}
	return freezeGenerics(t), nil
}

// freezeGenerics rigidifies a declared generic placeholder, keeping its
// identity so monomorphization can thaw it.
func freezeGenerics(t *program.Type) *program.Type {
	return t.WithAnyAsGeneric(uuid.Nil)
}
