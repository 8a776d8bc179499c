package pipeline

import (
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/refactor"
	"github.com/lumenlang/lumen/internal/resolver"
)

// InterfaceProcessor resolves every declaration's interface and registers
// the resulting heads as overloads, so bodies can call functions declared
// later in the file.
type InterfaceProcessor struct{}

func (p *InterfaceProcessor) Process(ctx *Context) *Context {
	for _, decl := range ctx.Functions {
		head, err := resolver.ResolveFunctionInterface(decl, ctx.Scope)
		if err != nil {
			ctx.Errors = append(ctx.Errors, err)
			continue
		}
		ctx.Heads[decl] = head
		ctx.Scope.AddOverload(decl.Name, head)
	}
	return ctx
}

// BodyProcessor resolves every function body against the scope the
// interface stage populated.
type BodyProcessor struct{}

func (p *BodyProcessor) Process(ctx *Context) *Context {
	for _, decl := range ctx.Functions {
		head, ok := ctx.Heads[decl]
		if !ok {
			// Interface resolution already failed.
			continue
		}
		impl, err := resolver.ResolveFunctionBody(head, decl.Body, ctx.Scope, ctx.Session)
		if err != nil {
			ctx.Errors = append(ctx.Errors, err)
			continue
		}
		ctx.Implementations[head] = impl
		if err := ctx.Session.SetLogic(head, program.LogicOf(impl)); err != nil {
			ctx.Errors = append(ctx.Errors, err)
		}
	}
	return ctx
}

// RefactorProcessor monomorphizes every entry point and, when enabled,
// erases the trivial forwarders specialization tends to produce.
type RefactorProcessor struct{}

func (p *RefactorProcessor) Process(ctx *Context) *Context {
	if len(ctx.Errors) > 0 {
		// Refactoring half-resolved functions only compounds the errors.
		return ctx
	}

	ref := refactor.New(ctx.Session)
	ctx.Refactor = ref

	entries := make(map[string]bool, len(ctx.EntryPoints))
	for _, name := range ctx.EntryPoints {
		entries[name] = true
	}

	var entryHeads []*program.FunctionHead
	for _, decl := range ctx.Functions {
		head := ctx.Heads[decl]
		if head == nil || !entries[decl.Name] {
			continue
		}
		if err := ref.Add(ctx.Implementations[head]); err != nil {
			ctx.Errors = append(ctx.Errors, err)
			return ctx
		}
		entryHeads = append(entryHeads, head)
	}

	for _, head := range entryHeads {
		err := ref.Monomorphize(head, func(*program.FunctionBinding) bool { return true })
		if err != nil {
			ctx.Errors = append(ctx.Errors, err)
			return ctx
		}
	}

	if ctx.Inline {
		for changed := true; changed; {
			changed = false
			for _, head := range append([]*program.FunctionHead(nil), ref.Invented...) {
				inlined, err := ref.TryInline(head)
				if err != nil {
					ctx.Errors = append(ctx.Errors, err)
					return ctx
				}
				changed = changed || inlined
			}
		}
	}
	return ctx
}
