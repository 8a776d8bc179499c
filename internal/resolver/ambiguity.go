package resolver

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/diagnostics"
)

// ambiguityKind closes the set of things resolution can defer. No other
// kind exists: anything else either resolves immediately or errors.
type ambiguityKind int

const (
	ambiguityFunctionCall ambiguityKind = iota
	ambiguityAbstractCall
	ambiguityNumberLiteral
)

// ambiguity is one deferred decision. Exactly one of the payload fields is
// set, matching kind.
type ambiguity struct {
	kind ambiguityKind
	pos  diagnostics.Span

	functionCall  *functionCallAmbiguity
	abstractCall  *abstractCallAmbiguity
	numberLiteral *numberLiteralAmbiguity
}

// attempt tries to make the decision now. It reports done=true when the
// decision is committed, done=false when more type information is needed,
// and an error when the decision can never be made.
func (a *ambiguity) attempt(r *BodyResolver) (done bool, err error) {
	switch a.kind {
	case ambiguityFunctionCall:
		return a.functionCall.attempt(r)
	case ambiguityAbstractCall:
		return a.abstractCall.attempt(r)
	case ambiguityNumberLiteral:
		return a.numberLiteral.attempt(r)
	}
	return false, diagnostics.Errorf(diagnostics.ErrI001, a.pos, "unknown ambiguity kind %d", a.kind)
}

func (a *ambiguity) String() string {
	switch a.kind {
	case ambiguityFunctionCall:
		return fmt.Sprintf("ambiguous call to %s (%d candidates)", a.functionCall.name, len(a.functionCall.candidates))
	case ambiguityAbstractCall:
		return fmt.Sprintf("ambiguous %s call", a.abstractCall.trait.Name)
	case ambiguityNumberLiteral:
		return fmt.Sprintf("ambiguous number literal type: %q", a.numberLiteral.value)
	}
	return "unknown ambiguity"
}
