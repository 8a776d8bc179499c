package pipeline

import (
	"github.com/lumenlang/lumen/internal/ast"
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/refactor"
	"github.com/lumenlang/lumen/internal/resolver"
	"github.com/lumenlang/lumen/internal/session"
)

// Context carries one compilation through the stages: declarations in,
// resolved heads and implementations out, diagnostics accumulated along the
// way.
type Context struct {
	Session *session.Session
	Scope   *resolver.Scope

	// Functions to compile, in declaration order.
	Functions []*ast.FunctionDeclaration
	// EntryPoints are function names kept callable as declared; everything
	// else may be specialized away.
	EntryPoints []string

	// Inline erases trivial forwarders after monomorphization.
	Inline bool

	Heads           map[*ast.FunctionDeclaration]*program.FunctionHead
	Implementations map[*program.FunctionHead]*program.FunctionImplementation
	Refactor        *refactor.Refactor

	Errors []error
}

func NewContext(sess *session.Session, scope *resolver.Scope) *Context {
	return &Context{
		Session:         sess,
		Scope:           scope,
		Heads:           make(map[*ast.FunctionDeclaration]*program.FunctionHead),
		Implementations: make(map[*program.FunctionHead]*program.FunctionImplementation),
	}
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors to collect diagnostics from all stages.
	}
	return ctx
}

// Check is the standard stage order: interfaces, bodies, then the refactor
// passes.
func Check() *Pipeline {
	return New(
		&InterfaceProcessor{},
		&BodyProcessor{},
		&RefactorProcessor{},
	)
}
