package diagnostics

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a class of diagnostic.
type ErrorCode string

const (
	// Type errors (unification failures).
	ErrT001 ErrorCode = "T001" // incompatible concrete types
	ErrT002 ErrorCode = "T002" // argument list arity/shape mismatch
	ErrT003 ErrorCode = "T003" // unknown type binding

	// Conformance errors.
	ErrC001 ErrorCode = "C001" // no conformance found
	ErrC002 ErrorCode = "C002" // conflicting conformances
	ErrC003 ErrorCode = "C003" // conformance prerequisites unmet

	// Call resolution errors.
	ErrR001 ErrorCode = "R001" // no matching overload
	ErrR002 ErrorCode = "R002" // unresolved ambiguity after fixed point

	// Invariant violations surfacing after resolution succeeded.
	ErrI001 ErrorCode = "I001"
)

// Span is a half-open byte range into the originating source.
type Span struct {
	Start int
	End   int
}

func (s Span) IsZero() bool { return s.Start == 0 && s.End == 0 }

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Diagnostic is one reported problem. Multi-candidate failures attach one
// note per rejected candidate explaining why it was rejected.
type Diagnostic struct {
	Code    ErrorCode
	Span    Span
	Message string
	Notes   []*Diagnostic
}

func NewError(code ErrorCode, span Span, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Span: span, Message: msg}
}

func Errorf(code ErrorCode, span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Note is an informational child diagnostic. It reuses the parent's code so
// grouping by code keeps notes with their parent.
func Note(span Span, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Span: span, Message: fmt.Sprintf(format, args...)}
}

func (d *Diagnostic) WithNote(note *Diagnostic) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

func (d *Diagnostic) WithNotes(notes []*Diagnostic) *Diagnostic {
	d.Notes = append(d.Notes, notes...)
	return d
}

// InSpan fills in the span if the diagnostic does not carry one yet.
// Used by callers that know the source position better than the producer.
func (d *Diagnostic) InSpan(span Span) *Diagnostic {
	if d.Span.IsZero() {
		d.Span = span
	}
	for _, note := range d.Notes {
		note.InSpan(span)
	}
	return d
}

func (d *Diagnostic) Error() string {
	var sb strings.Builder
	d.write(&sb, 0)
	return sb.String()
}

func (d *Diagnostic) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if d.Code != "" {
		fmt.Fprintf(sb, "[%s] ", d.Code)
	}
	sb.WriteString(d.Message)
	for _, note := range d.Notes {
		sb.WriteString("\n")
		note.write(sb, depth+1)
	}
}

// Errors accumulates independent diagnostics so one compile attempt can
// report several problems at once.
type Errors []*Diagnostic

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, d := range e {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

// Collect flattens an error into its diagnostics. Plain errors are wrapped
// as internal diagnostics so nothing is silently dropped.
func Collect(err error) Errors {
	switch err := err.(type) {
	case nil:
		return nil
	case Errors:
		return err
	case *Diagnostic:
		return Errors{err}
	default:
		return Errors{NewError(ErrI001, Span{}, err.Error())}
	}
}

// Append merges err's diagnostics into list.
func Append(list Errors, err error) Errors {
	return append(list, Collect(err)...)
}

// AsError returns nil for an empty list so callers can return it directly.
func (e Errors) AsError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
