package analysis

import (
	"slices"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/compiler"
)

// Analyzer runs lint rules over compiled units.
type Analyzer struct {
	rules []*Rule
}

// NewAnalyzer creates an analyzer with the default rules.
func NewAnalyzer() *Analyzer {
	return &Analyzer{rules: DefaultRules()}
}

// NewAnalyzerWithRules creates an analyzer with custom rules.
func NewAnalyzerWithRules(rules []*Rule) *Analyzer {
	return &Analyzer{rules: rules}
}

// Pass is the state of one analysis run, handed to each rule.
type Pass struct {
	Unit *compiler.Unit
	Tree *kalc.Tree

	rule        *Rule
	diagnostics []*compiler.Diagnostic
}

// Report records a diagnostic at span with the running rule's name and
// severity.
func (p *Pass) Report(span kalc.Span, message string) {
	p.diagnostics = append(p.diagnostics, &compiler.Diagnostic{
		Span:     span,
		Severity: p.rule.Severity,
		Message:  message,
		Code:     p.rule.Name,
		Phase:    compiler.PhaseBody,
	})
}

// Analyze runs every rule over unit and returns their diagnostics ordered by
// position. Compiler diagnostics are not included.
func (a *Analyzer) Analyze(unit *compiler.Unit) []*compiler.Diagnostic {
	pass := &Pass{Unit: unit, Tree: unit.Tree()}

	for _, rule := range a.rules {
		pass.rule = rule
		rule.Run(pass)
	}

	slices.SortStableFunc(pass.diagnostics, func(a, b *compiler.Diagnostic) int {
		return a.Span.Start - b.Span.Start
	})

	return pass.diagnostics
}
