package refactor

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/config"
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/resolver"
	"github.com/lumenlang/lumen/internal/session"
)

// compiled is a resolved set of declarations ready for refactoring.
type compiled struct {
	b     *builtins.Builtins
	sess  *session.Session
	heads map[string]*program.FunctionHead
	impls map[string]*program.FunctionImplementation
}

func compile(t *testing.T, decls ...*ast.FunctionDeclaration) *compiled {
	t.Helper()
	b := builtins.New()
	sess := session.New(b)
	scope := resolver.NewRootScope(b, sess.Graph)

	c := &compiled{
		b:     b,
		sess:  sess,
		heads: map[string]*program.FunctionHead{},
		impls: map[string]*program.FunctionImplementation{},
	}
	for _, decl := range decls {
		head, err := resolver.ResolveFunctionInterface(decl, scope)
		if err != nil {
			t.Fatalf("ResolveFunctionInterface(%s) failed: %s", decl.Name, err)
		}
		scope.AddOverload(decl.Name, head)
		c.heads[decl.Name] = head
	}
	for _, decl := range decls {
		impl, err := resolver.ResolveFunctionBody(c.heads[decl.Name], decl.Body, scope, sess)
		if err != nil {
			t.Fatalf("ResolveFunctionBody(%s) failed: %s", decl.Name, err)
		}
		if err := sess.SetLogic(impl.Head, program.LogicOf(impl)); err != nil {
			t.Fatalf("SetLogic(%s) failed: %s", decl.Name, err)
		}
		c.impls[decl.Name] = impl
	}
	return c
}

func always(*program.FunctionBinding) bool { return true }

func callsIn(impl *program.FunctionImplementation) []*program.FunctionBinding {
	var calls []*program.FunctionBinding
	for _, id := range impl.Tree.DeepChildren(impl.Tree.Root) {
		if op := impl.Tree.Operations[id]; op != nil && op.Kind == program.OpFunctionCall {
			calls = append(calls, op.Call)
		}
	}
	return calls
}

func genericDouble() *ast.FunctionDeclaration {
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

func letTyped(name, typeName, value string) *ast.LetStatement {
	return &ast.LetStatement{
		Name:  name,
		Type:  &ast.TypeExpression{Name: typeName},
		Value: &ast.IntLiteral{Value: value},
	}
}

func TestMonomorphizeSpecializesGenericCall(t *testing.T) {
	c := compile(t,
		genericDouble(),
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("a", config.Int64TypeName, "7"),
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name:      "double",
					Arguments: []ast.Expression{&ast.Identifier{Name: "a"}},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	if err := r.Monomorphize(c.heads["main"], always); err != nil {
		t.Fatalf("Monomorphize failed: %s", err)
	}

	if len(r.Invented) != 1 {
		t.Fatalf("invented %d functions, want 1", len(r.Invented))
	}
	mono := r.Invented[0]
	if mono.Name != "double" {
		t.Errorf("invented head is named %s, want double", mono.Name)
	}
	if len(mono.Interface.Generics) != 0 || len(mono.Interface.Requirements) != 0 {
		t.Errorf("specialized head still has generics or requirements")
	}
	int64Type := builtins.TypeOf(c.b.Primitives.Int64)
	if !mono.Interface.Parameters[0].Type.Equal(int64Type) {
		t.Errorf("specialized parameter is %s, want Int64", mono.Interface.Parameters[0].Type)
	}
	if original := r.Mono.MonoToOriginal()[mono]; original != c.heads["double"] {
		t.Errorf("specialization does not map back to its generic original")
	}

	// main now calls the specialization, with no evidence attached.
	var toMono *program.FunctionBinding
	for _, call := range callsIn(r.Implementations[c.heads["main"]]) {
		if call.Function == mono {
			toMono = call
		}
	}
	if toMono == nil {
		t.Fatalf("main does not call the specialization")
	}
	if !toMono.Fulfillment.IsEmpty() {
		t.Errorf("specialized call still carries evidence: %s", toMono.Fulfillment.Key())
	}

	// The specialized body calls the Int64 primitive instead of the
	// polymorphic stand-in.
	monoImpl := r.Implementations[mono]
	if monoImpl == nil {
		t.Fatalf("no implementation registered for the specialization")
	}
	if len(monoImpl.Assumption.Conformance) != 0 {
		t.Errorf("specialized body still assumes requirements")
	}
	calls := callsIn(monoImpl)
	if len(calls) != 1 {
		t.Fatalf("specialized body makes %d calls, want 1", len(calls))
	}
	logic := c.b.Logic[calls[0].Function]
	if logic == nil || logic.Descriptor == nil ||
		logic.Descriptor.Operation != program.PrimAdd ||
		logic.Descriptor.Primitive != c.b.Primitives.Int64 {
		t.Errorf("specialized body calls %s, want the Int64 add primitive", calls[0].Function)
	}
	for _, local := range monoImpl.ParameterLocals {
		if !local.Type.Equal(int64Type) {
			t.Errorf("specialized local has type %s, want Int64", local.Type)
		}
	}
}

func TestMonomorphizeDeduplicatesIdenticalInstantiations(t *testing.T) {
	c := compile(t,
		genericDouble(),
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("a", config.Int64TypeName, "1"),
				letTyped("b", config.Int64TypeName, "2"),
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name: config.AddFuncName,
					Arguments: []ast.Expression{
						&ast.CallExpression{Name: "double", Arguments: []ast.Expression{&ast.Identifier{Name: "a"}}},
						&ast.CallExpression{Name: "double", Arguments: []ast.Expression{&ast.Identifier{Name: "b"}}},
					},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	if err := r.Monomorphize(c.heads["main"], always); err != nil {
		t.Fatalf("Monomorphize failed: %s", err)
	}

	if len(r.Invented) != 1 {
		t.Fatalf("invented %d functions, want the two Int64 calls deduplicated into 1", len(r.Invented))
	}
	hits := 0
	for _, call := range callsIn(r.Implementations[c.heads["main"]]) {
		if call.Function == r.Invented[0] {
			hits++
		}
	}
	if hits != 2 {
		t.Errorf("%d call sites target the shared specialization, want 2", hits)
	}
}

func TestMonomorphizeSeparatesDistinctInstantiations(t *testing.T) {
	c := compile(t,
		genericDouble(),
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("a", config.Int64TypeName, "1"),
				letTyped("b", config.Int32TypeName, "2"),
				&ast.ExpressionStatement{Value: &ast.CallExpression{
					Name:      "double",
					Arguments: []ast.Expression{&ast.Identifier{Name: "b"}},
				}},
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name:      "double",
					Arguments: []ast.Expression{&ast.Identifier{Name: "a"}},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	if err := r.Monomorphize(c.heads["main"], always); err != nil {
		t.Fatalf("Monomorphize failed: %s", err)
	}

	if len(r.Invented) != 2 {
		t.Fatalf("invented %d functions, want one per instantiated type", len(r.Invented))
	}
	first := r.Invented[0].Interface.Parameters[0].Type
	second := r.Invented[1].Interface.Parameters[0].Type
	if first.Equal(second) {
		t.Errorf("both specializations take %s, want Int32 and Int64 variants", first)
	}
}

func TestMonomorphizeRejectsGenericEntry(t *testing.T) {
	c := compile(t, genericDouble())

	r := New(c.sess)
	if err := r.Add(c.impls["double"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	err := r.Monomorphize(c.heads["double"], always)
	if err == nil || !strings.Contains(err.Error(), "generics are unbound") {
		t.Errorf("got %v, want a rejection of a still-generic entry", err)
	}
}

func TestMonomorphizeUnregisteredEntryFails(t *testing.T) {
	c := compile(t)

	r := New(c.sess)
	ghost := program.NewFunctionHead("ghost", program.NewSimpleInterface(nil, program.VoidType()))
	err := r.Monomorphize(ghost, always)
	if err == nil || !strings.Contains(err.Error(), "no implementation registered") {
		t.Errorf("got %v, want a missing implementation error", err)
	}
}

func TestDeepFunctionsGathersEntryReachableSet(t *testing.T) {
	c := compile(t,
		genericDouble(),
		&ast.FunctionDeclaration{Name: "orphan", Body: &ast.BlockExpression{}},
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("a", config.Int64TypeName, "7"),
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name:      "double",
					Arguments: []ast.Expression{&ast.Identifier{Name: "a"}},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	if err := r.Monomorphize(c.heads["main"], always); err != nil {
		t.Fatalf("Monomorphize failed: %s", err)
	}
	mono := r.Invented[0]

	// A registered function nothing calls must not show up.
	r.Invented = append(r.Invented, c.heads["orphan"])
	if err := r.add(c.impls["orphan"]); err != nil {
		t.Fatalf("add failed: %s", err)
	}

	got := r.DeepFunctions([]*program.FunctionHead{c.heads["main"]})
	if len(got) != 2 {
		t.Fatalf("gathered %d functions, want main and its specialization", len(got))
	}
	if got[0] != c.heads["main"] {
		t.Errorf("roots do not come first: got %s", got[0])
	}
	if got[1] != mono {
		t.Errorf("reachable specialization missing: got %s", got[1])
	}
	for _, head := range got {
		if head == c.heads["orphan"] {
			t.Errorf("unreachable function was gathered")
		}
	}
}

func TestTryInlineYieldsForwardedParameter(t *testing.T) {
	c := compile(t,
		&ast.FunctionDeclaration{
			Name:       "fwd",
			Parameters: []ast.ParameterDeclaration{{Name: "x", Type: &ast.TypeExpression{Name: config.Int64TypeName}}},
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: &ast.Identifier{Name: "x"}},
			}},
		},
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("a", config.Int64TypeName, "1"),
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name:      "fwd",
					Arguments: []ast.Expression{&ast.Identifier{Name: "a"}},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	r.Invented = append(r.Invented, c.heads["fwd"])
	if err := r.add(c.impls["fwd"]); err != nil {
		t.Fatalf("add failed: %s", err)
	}

	inlined, err := r.TryInline(c.heads["fwd"])
	if err != nil {
		t.Fatalf("TryInline failed: %s", err)
	}
	if !inlined {
		t.Fatalf("forwarder was not inlined")
	}
	if len(r.Invented) != 0 {
		t.Errorf("forwarder still listed as invented")
	}
	if _, ok := r.Implementations[c.heads["fwd"]]; ok {
		t.Errorf("forwarder implementation was not dropped")
	}

	mainImpl := r.Implementations[c.heads["main"]]
	for _, call := range callsIn(mainImpl) {
		if call.Function == c.heads["fwd"] {
			t.Errorf("main still calls the erased forwarder")
		}
	}
}

func TestTryInlineRedirectsAndSwizzlesArguments(t *testing.T) {
	c := compile(t,
		&ast.FunctionDeclaration{
			Name: "flip",
			Parameters: []ast.ParameterDeclaration{
				{Name: "a", Type: &ast.TypeExpression{Name: config.Int64TypeName}},
				{Name: "b", Type: &ast.TypeExpression{Name: config.Int64TypeName}},
			},
			ReturnType: &ast.TypeExpression{Name: config.BoolTypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name: config.GreaterFuncName,
					Arguments: []ast.Expression{
						&ast.Identifier{Name: "b"},
						&ast.Identifier{Name: "a"},
					},
				}},
			}},
		},
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.BoolTypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("x", config.Int64TypeName, "1"),
				letTyped("y", config.Int64TypeName, "2"),
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name: "flip",
					Arguments: []ast.Expression{
						&ast.Identifier{Name: "x"},
						&ast.Identifier{Name: "y"},
					},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	r.Invented = append(r.Invented, c.heads["flip"])
	if err := r.add(c.impls["flip"]); err != nil {
		t.Fatalf("add failed: %s", err)
	}

	inlined, err := r.TryInline(c.heads["flip"])
	if err != nil {
		t.Fatalf("TryInline failed: %s", err)
	}
	if !inlined {
		t.Fatalf("forwarder was not inlined")
	}

	mainImpl := r.Implementations[c.heads["main"]]
	var redirected *program.FunctionBinding
	var redirectedID = mainImpl.Tree.Root
	for _, id := range mainImpl.Tree.DeepChildren(mainImpl.Tree.Root) {
		op := mainImpl.Tree.Operations[id]
		if op == nil || op.Kind != program.OpFunctionCall {
			continue
		}
		if logic := c.b.Logic[op.Call.Function]; logic != nil && logic.Descriptor != nil &&
			logic.Descriptor.Operation == program.PrimGreaterThan {
			redirected, redirectedID = op.Call, id
		}
	}
	if redirected == nil {
		t.Fatalf("main was not redirected to the comparison primitive")
	}

	// flip(x, y) forwarded isGreater(y, x); the call site's arguments must
	// come out swapped.
	args := mainImpl.Tree.Children[redirectedID]
	if len(args) != 2 {
		t.Fatalf("redirected call has %d arguments, want 2", len(args))
	}
	wantNames := []string{"y", "x"}
	for i, arg := range args {
		op := mainImpl.Tree.Operations[arg]
		if op == nil || op.Kind != program.OpGetLocal {
			t.Fatalf("argument %d is not a local read", i)
		}
		if name := mainImpl.LocalNames[op.Local]; name != wantNames[i] {
			t.Errorf("argument %d reads %s, want %s", i, name, wantNames[i])
		}
	}
}

func TestTryInlineErasesNoOpCall(t *testing.T) {
	c := compile(t,
		&ast.FunctionDeclaration{
			Name: "nothing",
			Body: &ast.BlockExpression{},
		},
		&ast.FunctionDeclaration{
			Name: "main",
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ExpressionStatement{Value: &ast.CallExpression{Name: "nothing"}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	r.Invented = append(r.Invented, c.heads["nothing"])
	if err := r.add(c.impls["nothing"]); err != nil {
		t.Fatalf("add failed: %s", err)
	}

	inlined, err := r.TryInline(c.heads["nothing"])
	if err != nil {
		t.Fatalf("TryInline failed: %s", err)
	}
	if !inlined {
		t.Fatalf("the empty function was not inlined")
	}

	mainImpl := r.Implementations[c.heads["main"]]
	if calls := callsIn(mainImpl); len(calls) != 0 {
		t.Errorf("main still makes %d calls, want 0", len(calls))
	}
	if children := mainImpl.Tree.Children[mainImpl.Tree.Root]; len(children) != 0 {
		t.Errorf("root block kept %d statements, want 0", len(children))
	}
}

func TestTryInlineSkipsExplicitFunctions(t *testing.T) {
	c := compile(t,
		&ast.FunctionDeclaration{
			Name:       "fwd",
			Parameters: []ast.ParameterDeclaration{{Name: "x", Type: &ast.TypeExpression{Name: config.Int64TypeName}}},
			ReturnType: &ast.TypeExpression{Name: config.Int64TypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: &ast.Identifier{Name: "x"}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["fwd"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	inlined, err := r.TryInline(c.heads["fwd"])
	if err != nil {
		t.Fatalf("TryInline failed: %s", err)
	}
	if inlined {
		t.Errorf("explicit function was inlined away")
	}
}

func TestForwarderChainCollapses(t *testing.T) {
	c := compile(t,
		&ast.FunctionDeclaration{
			Name: "inner",
			Parameters: []ast.ParameterDeclaration{
				{Name: "a", Type: &ast.TypeExpression{Name: config.Int64TypeName}},
				{Name: "b", Type: &ast.TypeExpression{Name: config.Int64TypeName}},
			},
			ReturnType: &ast.TypeExpression{Name: config.BoolTypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name: config.GreaterFuncName,
					Arguments: []ast.Expression{
						&ast.Identifier{Name: "b"},
						&ast.Identifier{Name: "a"},
					},
				}},
			}},
		},
		&ast.FunctionDeclaration{
			Name: "outer",
			Parameters: []ast.ParameterDeclaration{
				{Name: "a", Type: &ast.TypeExpression{Name: config.Int64TypeName}},
				{Name: "b", Type: &ast.TypeExpression{Name: config.Int64TypeName}},
			},
			ReturnType: &ast.TypeExpression{Name: config.BoolTypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name: "inner",
					Arguments: []ast.Expression{
						&ast.Identifier{Name: "b"},
						&ast.Identifier{Name: "a"},
					},
				}},
			}},
		},
		&ast.FunctionDeclaration{
			Name:       "main",
			ReturnType: &ast.TypeExpression{Name: config.BoolTypeName},
			Body: &ast.BlockExpression{Statements: []ast.Statement{
				letTyped("x", config.Int64TypeName, "1"),
				letTyped("y", config.Int64TypeName, "2"),
				&ast.ReturnStatement{Value: &ast.CallExpression{
					Name: "outer",
					Arguments: []ast.Expression{
						&ast.Identifier{Name: "x"},
						&ast.Identifier{Name: "y"},
					},
				}},
			}},
		},
	)

	r := New(c.sess)
	if err := r.Add(c.impls["main"]); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	for _, name := range []string{"inner", "outer"} {
		r.Invented = append(r.Invented, c.heads[name])
		if err := r.add(c.impls[name]); err != nil {
			t.Fatalf("add(%s) failed: %s", name, err)
		}
	}

	// Both orders must collapse the chain; exercise innermost-first, which
	// rewrites outer's body before outer itself is considered.
	for _, name := range []string{"inner", "outer"} {
		inlined, err := r.TryInline(c.heads[name])
		if err != nil {
			t.Fatalf("TryInline(%s) failed: %s", name, err)
		}
		if !inlined {
			t.Fatalf("%s was not inlined", name)
		}
	}

	// outer(x, y) = inner(y, x) = isGreater(x, y): the two swaps cancel.
	mainImpl := r.Implementations[c.heads["main"]]
	var callID = mainImpl.Tree.Root
	var found bool
	for _, id := range mainImpl.Tree.DeepChildren(mainImpl.Tree.Root) {
		op := mainImpl.Tree.Operations[id]
		if op == nil || op.Kind != program.OpFunctionCall {
			continue
		}
		if logic := c.b.Logic[op.Call.Function]; logic != nil && logic.Descriptor != nil &&
			logic.Descriptor.Operation == program.PrimGreaterThan {
			callID, found = id, true
		}
	}
	if !found {
		t.Fatalf("main does not call the comparison primitive directly")
	}
	wantNames := []string{"x", "y"}
	for i, arg := range mainImpl.Tree.Children[callID] {
		op := mainImpl.Tree.Operations[arg]
		if name := mainImpl.LocalNames[op.Local]; name != wantNames[i] {
			t.Errorf("argument %d reads %s, want %s", i, name, wantNames[i])
		}
	}
}

func TestEvidenceCarryingForwarderStaysPut(t *testing.T) {
	c := compile(t, genericDouble())

	// The generic body assumes Number (and what it implies); erasing its
	// call sites would orphan that evidence.
	if _, ok := TryInline(c.impls["double"]); ok {
		t.Errorf("a forwarder with assumed requirements was marked inlinable")
	}
}

func TestNoOpCallWhoseValueIsUsedFails(t *testing.T) {
	c := compile(t, &ast.FunctionDeclaration{Name: "nothing", Body: &ast.BlockExpression{}})

	// A hand-wired caller returning the call's (void) value: the call's
	// parent is not a block, so erasing it has nowhere to go.
	tree := program.NewExpressionTree()
	callID := uuid.New()
	tree.Register(callID, nil)
	tree.Operations[callID] = program.CallOp(program.BindPlain(c.heads["nothing"]))
	rootID := uuid.New()
	tree.Register(rootID, []uuid.UUID{callID})
	tree.Operations[rootID] = program.ReturnOp()
	tree.Root = rootID

	caller := &program.FunctionImplementation{
		ID:         uuid.New(),
		Head:       program.NewFunctionHead("caller", program.NewSimpleInterface(nil, program.VoidType())),
		Assumption: &program.RequirementsAssumption{},
		Tree:       tree,
		Forest:     program.NewTypeForest(),
		LocalNames: map[*program.ObjectReference]string{},
	}

	r := New(c.sess)
	if err := r.Add(caller); err != nil {
		t.Fatalf("Add failed: %s", err)
	}
	r.Invented = append(r.Invented, c.heads["nothing"])
	if err := r.add(c.impls["nothing"]); err != nil {
		t.Fatalf("add failed: %s", err)
	}

	_, err := r.TryInline(c.heads["nothing"])
	if err == nil || !strings.Contains(err.Error(), "value is used") {
		t.Errorf("got %v, want a used value error", err)
	}
}
