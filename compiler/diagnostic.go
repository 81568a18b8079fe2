package compiler

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rlch/kalc"
)

// ErrStale is returned by Bridge when a newer compile for the same
// identifier started before this one finished.
var ErrStale = errors.New("compile superseded by a newer request")

// Severity indicates the severity of a diagnostic.
type Severity int

// Diagnostic severity constants.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic codes.
const (
	CodeSyntax            = "syntax"
	CodeUnknownType       = "unknown-type"
	CodeDuplicateClass    = "duplicate-class"
	CodeCyclicInheritance = "cyclic-inheritance"
	CodeUnknownImport     = "unknown-import"
	CodeUnresolvedName    = "unresolved-name"
	CodeUnknownMember     = "unknown-member"
)

// Diagnostic is a problem found while compiling. Diagnostics never stop a
// partial compile.
type Diagnostic struct {
	Span     kalc.Span
	Severity Severity
	Message  string
	Code     string
	Phase    Phase
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s [%s]", d.Span.Start, d.Span.End, d.Severity, d.Message, d.Code)
}

// DiagnosticHandler receives diagnostics as they are reported.
type DiagnosticHandler func(*Diagnostic)

// CompileFault is an internal compiler failure, as opposed to a problem
// with the source being compiled.
type CompileFault struct {
	Identifier string
	Phase      Phase
	Value      any
	Stack      []byte
}

func newCompileFault(identifier string, phase Phase, value any) *CompileFault {
	return &CompileFault{
		Identifier: identifier,
		Phase:      phase,
		Value:      value,
		Stack:      debug.Stack(),
	}
}

func (f *CompileFault) Error() string {
	return fmt.Sprintf("compile %s: internal fault during %s: %v", f.Identifier, f.Phase, f.Value)
}

// Unwrap returns the panic value when it is an error.
func (f *CompileFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}

	return nil
}
