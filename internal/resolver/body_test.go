package resolver

import (
	"strings"
	"testing"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/config"
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/session"
)

func newTestScope(t *testing.T) (*builtins.Builtins, *session.Session, *Scope) {
	t.Helper()
	b := builtins.New()
	sess := session.New(b)
	return b, sess, NewRootScope(b, sess.Graph)
}

// declare resolves a declaration's interface and makes it callable.
func declare(t *testing.T, decl *ast.FunctionDeclaration, scope *Scope) *program.FunctionHead {
	t.Helper()
	head, err := ResolveFunctionInterface(decl, scope)
	if err != nil {
		t.Fatalf("ResolveFunctionInterface(%s) failed: %s", decl.Name, err)
	}
	scope.AddOverload(decl.Name, head)
	return head
}

func resolveBody(t *testing.T, head *program.FunctionHead, decl *ast.FunctionDeclaration, scope *Scope, sess *session.Session) *program.FunctionImplementation {
	t.Helper()
	impl, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err != nil {
		t.Fatalf("ResolveFunctionBody(%s) failed: %s", decl.Name, err)
	}
	return impl
}

// gatherCalls collects every call binding in tree order.
func gatherCalls(impl *program.FunctionImplementation) []*program.FunctionBinding {
	var calls []*program.FunctionBinding
	for _, id := range impl.Tree.DeepChildren(impl.Tree.Root) {
		if op := impl.Tree.Operations[id]; op != nil && op.Kind == program.OpFunctionCall {
			calls = append(calls, op.Call)
		}
	}
	return calls
}

func doubleDecl() *ast.FunctionDeclaration {
	return &ast.FunctionDeclaration{
		Name:       "double",
		Generics:   []string{"N"},
		Parameters: []ast.ParameterDeclaration{{Name: "x", Type: &ast.TypeExpression{Name: "N"}}},
		ReturnType: &ast.TypeExpression{Name: "N"},
		Requirements: []ast.RequirementDeclaration{{
			TraitName: config.NumberTraitName,
			Bindings:  map[string]*ast.TypeExpression{"Self": {Name: "N"}},
		}},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.CallExpression{
				Name: config.AddFuncName,
				Arguments: []ast.Expression{
					&ast.Identifier{Name: "x"},
					&ast.Identifier{Name: "x"},
				},
			}},
		}},
	}
}

func TestGenericBodyCallsThroughAssumption(t *testing.T) {
	b, sess, scope := newTestScope(t)

	decl := doubleDecl()
	head := declare(t, decl, scope)
	impl := resolveBody(t, head, decl, scope, sess)

	// Number<Self=N> implies Ord and Eq, implied first.
	granted := impl.Assumption.Conformance
	if len(granted) != 3 {
		t.Fatalf("assumed %d conformances, want 3", len(granted))
	}
	wantTraits := []*program.Trait{b.Traits.Eq, b.Traits.Ord, b.Traits.Number}
	for i, conformance := range granted {
		if conformance.Binding.Trait != wantTraits[i] {
			t.Errorf("conformance %d is for %s, want %s", i, conformance.Binding.Trait.Name, wantTraits[i].Name)
		}
	}

	// The parameter's type is rigid inside the body, so no primitive add
	// can claim the call: it must go to the assumed stand-in.
	if impl.ParameterLocals[0].Type.Kind != program.UnitGeneric {
		t.Errorf("parameter local has type %s, want a generic marker", impl.ParameterLocals[0].Type)
	}
	if impl.ParameterLocals[0].Type.ID != head.Interface.Generics["N"] {
		t.Errorf("generic marker lost the declared placeholder identity")
	}

	calls := gatherCalls(impl)
	if len(calls) != 1 {
		t.Fatalf("body contains %d calls, want 1", len(calls))
	}
	call := calls[0]
	if call.Function.Kind != program.FnPolymorphic {
		t.Fatalf("call targets %s, want a polymorphic stand-in", call.Function)
	}
	if call.Function.AbstractFunction != b.Traits.Add {
		t.Errorf("stand-in is for %s, want %s", call.Function.AbstractFunction.Name, config.AddFuncName)
	}
	if !call.Fulfillment.IsEmpty() {
		t.Errorf("stand-in call carries a fulfillment: %s", call.Fulfillment.Key())
	}
}

func TestConcreteCallerFulfillsGenericCallee(t *testing.T) {
	b, sess, scope := newTestScope(t)

	dbl := doubleDecl()
	doubleHead := declare(t, dbl, scope)
	resolveBody(t, doubleHead, dbl, scope, sess)

	mainDecl := &ast.FunctionDeclaration{
		Name:       config.MainFuncName,
		ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.LetStatement{
				Name:  "a",
				Type:  &ast.TypeExpression{Name: config.Int64TypeName},
				Value: &ast.IntLiteral{Value: "7"},
			},
			&ast.ReturnStatement{Value: &ast.CallExpression{
				Name:      "double",
				Arguments: []ast.Expression{&ast.Identifier{Name: "a"}},
			}},
		}},
	}
	mainHead := declare(t, mainDecl, scope)
	impl := resolveBody(t, mainHead, mainDecl, scope, sess)

	var toDouble *program.FunctionBinding
	var literal *program.Operation
	for _, id := range impl.Tree.DeepChildren(impl.Tree.Root) {
		op := impl.Tree.Operations[id]
		if op == nil {
			continue
		}
		if op.Kind == program.OpFunctionCall && op.Call.Function == doubleHead {
			toDouble = op.Call
		}
		if op.Kind == program.OpStringLiteral && op.Literal == "7" {
			literal = op
		}
	}
	if toDouble == nil {
		t.Fatalf("no call to double in the resolved body")
	}
	// The literal was rewritten into a parse call over its text.
	if literal == nil {
		t.Errorf("int literal was not lowered to a string payload")
	}

	// One generic, pinned to Int64 through the argument.
	if len(toDouble.Fulfillment.GenericMapping) != 1 {
		t.Fatalf("fulfillment maps %d generics, want 1", len(toDouble.Fulfillment.GenericMapping))
	}
	mapped := toDouble.Fulfillment.GenericMapping[doubleHead.Interface.Generics["N"]]
	if mapped == nil {
		t.Fatalf("fulfillment does not map the callee's declared generic")
	}
	resolved, err := impl.Forest.ResolveType(mapped)
	if err != nil {
		t.Fatalf("ResolveType failed: %s", err)
	}
	if resolved.Kind != program.UnitStruct || resolved.Struct != b.Primitives.Int64 {
		t.Errorf("generic resolved to %s, want Int64", resolved)
	}

	// Number plus the implied Ord and Eq.
	if len(toDouble.Fulfillment.Conformance) != 3 {
		t.Fatalf("fulfillment carries %d conformances, want 3", len(toDouble.Fulfillment.Conformance))
	}
	numberReq := doubleHead.Interface.Requirements[0]
	fulfilled, ok := toDouble.Fulfillment.Conformance[numberReq.Key()]
	if !ok {
		t.Fatalf("fulfillment is not keyed by the requirement as declared")
	}
	addImpl := fulfilled.Conformance.Conformance.FunctionMapping[b.Traits.Add]
	if addImpl == nil {
		t.Fatalf("Number conformance does not map %s", config.AddFuncName)
	}
	logic := b.Logic[addImpl]
	if logic == nil || logic.Descriptor == nil || logic.Descriptor.Primitive != b.Primitives.Int64 {
		t.Errorf("add maps to %s, want the Int64 primitive", addImpl)
	}
}

func TestLiteralTypeFlowsBackwardFromReturn(t *testing.T) {
	b, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name:       "one",
		ReturnType: &ast.TypeExpression{Name: config.Int32TypeName},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.LetStatement{Name: "a", Value: &ast.IntLiteral{Value: "1"}},
			&ast.ReturnStatement{Value: &ast.Identifier{Name: "a"}},
		}},
	}
	head := declare(t, decl, scope)
	impl := resolveBody(t, head, decl, scope, sess)

	calls := gatherCalls(impl)
	if len(calls) != 1 {
		t.Fatalf("body contains %d calls, want the single parse call", len(calls))
	}
	logic := b.Logic[calls[0].Function]
	if logic == nil || logic.Descriptor == nil ||
		logic.Descriptor.Operation != program.PrimParseIntString ||
		logic.Descriptor.Primitive != b.Primitives.Int32 {
		t.Errorf("literal lowered to %s, want the Int32 parse primitive", calls[0].Function)
	}
}

func TestUnconstrainedLiteralStaysAmbiguous(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.LetStatement{Name: "a", Value: &ast.IntLiteral{Value: "1"}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil {
		t.Fatalf("expected an ambiguity error")
	}
	if !strings.Contains(err.Error(), "R002") {
		t.Errorf("error is %q, want an R002 report", err)
	}
}

func TestUnknownFunctionFails(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ExpressionStatement{Value: &ast.CallExpression{Name: "frobnicate"}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil || !strings.Contains(err.Error(), "unknown function frobnicate") {
		t.Errorf("got %v, want an unknown function error", err)
	}
}

func TestWrongArityListsCandidates(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ExpressionStatement{Value: &ast.CallExpression{
				Name:      config.AndFuncName,
				Arguments: []ast.Expression{&ast.StringLiteral{Value: "x"}},
			}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil {
		t.Fatalf("expected an arity error")
	}
	if !strings.Contains(err.Error(), "takes 1 argument") || !strings.Contains(err.Error(), "candidate") {
		t.Errorf("error is %q, want the arity complaint with candidates", err)
	}
}

func TestMismatchedArgumentsListEveryCandidate(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ExpressionStatement{Value: &ast.CallExpression{
				Name: config.AddFuncName,
				Arguments: []ast.Expression{
					&ast.StringLiteral{Value: "x"},
					&ast.StringLiteral{Value: "y"},
				},
			}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil {
		t.Fatalf("expected a resolution failure for add on strings")
	}
	msg := err.Error()
	if !strings.Contains(msg, "no matching overload for add") {
		t.Fatalf("error is %q, want the no-overload report", err)
	}
	// One rejection per numeric overload, each carrying its own mismatch.
	if got := strings.Count(msg, "rejected"); got != 4 {
		t.Errorf("error rejects %d candidates, want 4:\n%s", got, msg)
	}
	for _, primitive := range []string{
		config.Int32TypeName, config.Int64TypeName,
		config.Float32TypeName, config.Float64TypeName,
	} {
		if !strings.Contains(msg, "String and "+primitive) {
			t.Errorf("no mismatch reason for the %s overload:\n%s", primitive, msg)
		}
	}
}

func TestPassLimitStopsResolutionEarly(t *testing.T) {
	mainDecl := func() *ast.FunctionDeclaration {
		// The literal's type arrives only after the call to double commits,
		// so a full resolution takes two rounds.
		return &ast.FunctionDeclaration{
			Name:       config.MainFuncName,
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name:      "double",
					Arguments: []ast.Expression{&ast.IntLiteral{Value: "7"}},
				}},
			}},
		}
	}

	_, sess, scope := newTestScope(t)
	sess.MaxPasses = 1
	dbl := doubleDecl()
	resolveBody(t, declare(t, dbl, scope), dbl, scope, sess)
	capped := mainDecl()
	cappedHead := declare(t, capped, scope)
	_, err := ResolveFunctionBody(cappedHead, capped.Body, scope, sess)
	if err == nil {
		t.Fatalf("expected the pass cap to cut resolution short")
	}
	if !strings.Contains(err.Error(), "after 1 pass") {
		t.Errorf("error is %q, want the pass limit report", err)
	}

	// Without a cap the same program resolves.
	_, sess, scope = newTestScope(t)
	dbl = doubleDecl()
	resolveBody(t, declare(t, dbl, scope), dbl, scope, sess)
	free := mainDecl()
	resolveBody(t, declare(t, free, scope), free, scope, sess)
}

func TestAssignToImmutableFails(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.LetStatement{Name: "a", Value: &ast.StringLiteral{Value: "x"}},
			&ast.AssignStatement{Name: "a", Value: &ast.StringLiteral{Value: "y"}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil || !strings.Contains(err.Error(), "not mutable") {
		t.Errorf("got %v, want a mutability error", err)
	}
}

func TestAssignToMutableSucceeds(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.LetStatement{Name: "a", Mutable: true, Value: &ast.StringLiteral{Value: "x"}},
			&ast.AssignStatement{Name: "a", Value: &ast.StringLiteral{Value: "y"}},
		}},
	}
	head := declare(t, decl, scope)
	impl := resolveBody(t, head, decl, scope, sess)

	assignments := 0
	for _, op := range impl.Tree.Operations {
		if op.Kind == program.OpSetLocal {
			assignments++
			if op.Local.Mutability != program.Mutable {
				t.Errorf("assigned local is not mutable")
			}
		}
	}
	if assignments != 2 {
		t.Errorf("found %d SetLocal operations, want 2", assignments)
	}
}

func TestAssignToUnknownLocalFails(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.AssignStatement{Name: "ghost", Value: &ast.StringLiteral{Value: "y"}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil || !strings.Contains(err.Error(), "unknown local ghost") {
		t.Errorf("got %v, want an unknown local error", err)
	}
}

func TestReturnValueFromVoidFunctionFails(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.StringLiteral{Value: "x"}},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil || !strings.Contains(err.Error(), "declares no result") {
		t.Errorf("got %v, want a void return error", err)
	}
}

func TestBareReturnWithDeclaredResultFails(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name:       "f",
		ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ReturnStatement{},
		}},
	}
	head := declare(t, decl, scope)
	_, err := ResolveFunctionBody(head, decl.Body, scope, sess)
	if err == nil || !strings.Contains(err.Error(), "declares a result") {
		t.Errorf("got %v, want a missing value error", err)
	}
}

func TestIfBranchesShareOneType(t *testing.T) {
	b, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name:       "pick",
		Parameters: []ast.ParameterDeclaration{{Name: "c", Type: &ast.TypeExpression{Name: config.BoolTypeName}}},
		ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.IfExpression{
				Condition:   &ast.Identifier{Name: "c"},
				Consequent:  &ast.IntLiteral{Value: "1"},
				Alternative: &ast.IntLiteral{Value: "2"},
			}},
		}},
	}
	head := declare(t, decl, scope)
	impl := resolveBody(t, head, decl, scope, sess)

	// Both branch literals resolve against the shared Int64 result.
	for _, call := range gatherCalls(impl) {
		logic := b.Logic[call.Function]
		if logic == nil || logic.Descriptor == nil || logic.Descriptor.Primitive != b.Primitives.Int64 {
			t.Errorf("branch literal lowered to %s, want an Int64 parse", call.Function)
		}
	}
}

func TestIfConditionMustBeBool(t *testing.T) {
	_, sess, scope := newTestScope(t)

	decl := &ast.FunctionDeclaration{
		Name: "f",
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ExpressionStatement{Value: &ast.IfExpression{
				Condition:  &ast.StringLiteral{Value: "x"},
				Consequent: &ast.StringLiteral{Value: "y"},
			}},
		}},
	}
	head := declare(t, decl, scope)
	if _, err := ResolveFunctionBody(head, decl.Body, scope, sess); err == nil {
		t.Errorf("expected a type error for a non-Bool condition")
	}
}

func TestAbstractFallbackRoutesThroughConformance(t *testing.T) {
	b, sess, scope := newTestScope(t)

	// A trait whose abstract function has no global overload set at all, so
	// calls to it resolve through the conformance of the result type.
	trick := program.NewTraitWithSelf("Trick")
	self := trick.GenericTypeOf(program.SelfParam)
	abstract := program.NewFunctionHead("trick", program.NewSimpleInterface([]*program.Type{self}, self))
	trick.AbstractFunctions = append(trick.AbstractFunctions, abstract)
	scope.Traits["Trick"] = trick

	int64Type := builtins.TypeOf(b.Primitives.Int64)
	provided := program.NewFunctionHead("trick", program.NewSimpleInterface([]*program.Type{int64Type}, int64Type))
	scope.Conformance.AddRule(program.DirectRule(program.NewConformance(
		trick.SelfBinding(int64Type),
		map[*program.FunctionHead]*program.FunctionHead{abstract: provided},
	)))

	decl := &ast.FunctionDeclaration{
		Name:       "f",
		Parameters: []ast.ParameterDeclaration{{Name: "x", Type: &ast.TypeExpression{Name: config.Int64TypeName}}},
		ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
		Body: &ast.BlockExpression{Statements: []ast.Statement{
			&ast.ReturnStatement{Value: &ast.CallExpression{
				Name:      "trick",
				Arguments: []ast.Expression{&ast.Identifier{Name: "x"}},
			}},
		}},
	}
	head := declare(t, decl, scope)
	impl := resolveBody(t, head, decl, scope, sess)

	calls := gatherCalls(impl)
	if len(calls) != 1 {
		t.Fatalf("body contains %d calls, want 1", len(calls))
	}
	if calls[0].Function != provided {
		t.Errorf("call routed to %s, want the conformance's function", calls[0].Function)
	}
	mapped := calls[0].Fulfillment.GenericMapping[trick.Generics[program.SelfParam]]
	if mapped == nil || !mapped.Equal(int64Type) {
		t.Errorf("fulfillment pins Self to %s, want Int64", mapped)
	}
}
