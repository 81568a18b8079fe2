// Package compiler turns Kal source into a Unit: the syntax tree plus the
// semantic tables completion needs, built on a best-effort basis so that
// half-typed code still compiles.
package compiler

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/types"
)

// PartialCompiler compiles source up to body binding.
//
// Malformed input is never an error: the returned Unit covers whatever could
// be recognised and problems are reported as diagnostics. Errors are
// reserved for internal faults (*CompileFault), superseded requests
// (ErrStale) and context cancellation.
type PartialCompiler interface {
	PartialCompile(ctx context.Context, identifier, source string, script bool) (*Unit, error)
}

// Phase is a compilation phase. Each phase includes the ones before it.
type Phase int

// Compilation phases.
const (
	// PhaseParse builds the syntax tree.
	PhaseParse Phase = iota
	// PhaseMembers declares classes, their members and the imports.
	PhaseMembers
	// PhaseBody binds method bodies: expression types and statement scopes.
	PhaseBody
)

func (p Phase) String() string {
	switch p {
	case PhaseParse:
		return "parse"
	case PhaseMembers:
		return "members"
	case PhaseBody:
		return "body"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithPhase sets the last phase to run. The default is PhaseBody.
func WithPhase(p Phase) Option {
	return func(c *Compiler) {
		c.phase = p
	}
}

// WithDiagnosticHandler installs a handler called for every diagnostic.
func WithDiagnosticHandler(h DiagnosticHandler) Option {
	return func(c *Compiler) {
		c.handler = h
	}
}

// Compiler is the reference PartialCompiler. It is safe for concurrent use:
// every compile works on its own Unit and an extension of the shared library.
type Compiler struct {
	lib     *types.Library
	phase   Phase
	handler DiagnosticHandler
}

// New creates a compiler resolving classes against lib. A nil lib means the
// built-in library.
func New(lib *types.Library, opts ...Option) *Compiler {
	if lib == nil {
		lib = types.Builtins()
	}

	c := &Compiler{lib: lib, phase: PhaseBody}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// PartialCompile implements PartialCompiler.
func (c *Compiler) PartialCompile(
	ctx context.Context,
	identifier, source string,
	script bool,
) (unit *Unit, err error) {
	phase := PhaseParse

	defer func() {
		if r := recover(); r != nil {
			unit = nil
			err = newCompileFault(identifier, phase, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree := kalc.Parse(source, script)
	unit = newUnit(identifier, script, tree, c.lib.Extend())
	b := &binder{unit: unit, handler: c.handler}

	for _, se := range tree.Errors {
		b.report(se.Span, SeverityError, CodeSyntax, "%s", se.Message)
	}

	if c.phase == PhaseParse {
		return unit, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	phase = PhaseMembers
	b.phase = phase
	b.declare()
	unit.phase = phase

	if c.phase == PhaseMembers {
		return unit, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	phase = PhaseBody
	b.phase = phase
	b.bind()
	unit.phase = phase

	return unit, nil
}

// ScriptClassName derives the implicit class name of a script from its
// identifier: the base name without extension, with characters that cannot
// appear in an identifier replaced by underscores.
func ScriptClassName(identifier string) string {
	base := path.Base(strings.ReplaceAll(identifier, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}

	name := []rune(base)
	for i, r := range name {
		if r != '_' && r != '$' && !isLetterOrDigit(r) {
			name[i] = '_'
		}
	}

	if len(name) == 0 || (name[0] >= '0' && name[0] <= '9') {
		return "_" + string(name)
	}

	return string(name)
}

func isLetterOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 0x7f
}

var _ PartialCompiler = (*Compiler)(nil)
