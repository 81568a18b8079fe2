package analysis

import (
	"cmp"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/types"
)

// Rule represents a lint check over a compiled unit.
// Inspired by go/analysis.Analyzer pattern.
type Rule struct {
	// Name is a short identifier for the rule (used in diagnostic codes).
	Name string

	// Doc is a brief description of what the rule checks.
	Doc string

	// Severity is the severity of diagnostics from this rule.
	Severity compiler.Severity

	// Run executes the rule, reporting through the pass.
	Run func(p *Pass)
}

// Lint diagnostic codes.
const (
	CodeUnusedLocal    = "unused-local"
	CodeUnusedImport   = "unused-import"
	CodeUnreachable    = "unreachable-code"
	CodeSelfAssignment = "self-assignment"
)

// DefaultRules returns all built-in lint rules.
func DefaultRules() []*Rule {
	return []*Rule{
		unusedLocalRule,
		unusedImportRule,
		unreachableRule,
		selfAssignmentRule,
	}
}

// ----------------------------------------------------------------------------
// Rule: unused-local
// ----------------------------------------------------------------------------

var unusedLocalRule = &Rule{
	Name:     CodeUnusedLocal,
	Doc:      "Reports local variables that are never referenced after their declaration.",
	Severity: compiler.SeverityWarning,
	Run:      checkUnusedLocals,
}

func checkUnusedLocals(p *Pass) {
	tree := p.Tree

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		if n.Kind != kalc.KindVarStat {
			return true
		}

		name := tree.NameText(n.ID)
		if name == "" || name == "_" {
			return true
		}

		parent := tree.Node(n.Parent)
		if parent == nil {
			return true
		}

		for _, sibling := range parent.Children {
			s := tree.Node(sibling)
			if !s.Kind.IsStatement() || s.Span.Start < n.Span.End {
				continue
			}

			if references(tree, sibling, name) {
				return true
			}
		}

		p.Report(tree.Tokens[n.Name].Span, name+" declared and not used")

		return true
	})
}

// references reports whether a name expression under id reads name.
func references(tree *kalc.Tree, id kalc.NodeID, name string) bool {
	found := false

	tree.Walk(id, func(n *kalc.Node) bool {
		if found {
			return false
		}

		if n.Kind == kalc.KindNameExpr && tree.NameText(n.ID) == name {
			found = true
		}

		return !found
	})

	return found
}

// ----------------------------------------------------------------------------
// Rule: unused-import
// ----------------------------------------------------------------------------

var unusedImportRule = &Rule{
	Name:     CodeUnusedImport,
	Doc:      "Reports imports that are never referenced.",
	Severity: compiler.SeverityWarning,
	Run:      checkUnusedImports,
}

func checkUnusedImports(p *Pass) {
	tree := p.Tree
	if len(tree.Imports) == 0 {
		return
	}

	mixinCalls := make(map[string]bool)

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		if n.Kind == kalc.KindMixinCallExpr {
			mixinCalls[tree.NameText(n.ID)] = true
		}

		return true
	})

	idents := make(map[string]bool)

	for _, tok := range tree.Tokens {
		if tok.IsIdent() && !inImport(tree, tok.Start()) {
			idents[tok.Text] = true
		}
	}

	for _, decl := range tree.Imports {
		if decl.Class == "" {
			continue
		}

		var used bool

		switch {
		case !decl.Mixin:
			used = idents[cmp.Or(decl.Alias, decl.Class)]
		case decl.Member != "":
			used = mixinCalls[cmp.Or(decl.Alias, decl.Member)]
		default:
			class, ok := classNamed(p.Unit, decl.Class)
			if !ok {
				// reported by the compiler
				continue
			}

			used = mixinUsed(class, mixinCalls)
		}

		if !used {
			p.Report(decl.Span, "unused import: "+importLabel(decl))
		}
	}
}

func inImport(tree *kalc.Tree, offset int) bool {
	for _, decl := range tree.Imports {
		if decl.Span.Contains(offset) {
			return true
		}
	}

	return false
}

func classNamed(unit *compiler.Unit, name string) (*types.Class, bool) {
	if c, ok := unit.Library().Lookup(name); ok {
		return c, true
	}

	for _, c := range unit.Classes() {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

func mixinUsed(class *types.Class, calls map[string]bool) bool {
	for _, m := range class.DeclaredMethods() {
		if m.IsStatic() && !m.IsSpecial() && calls[m.Name] {
			return true
		}
	}

	return false
}

func importLabel(decl kalc.ImportDecl) string {
	label := decl.Class
	if decl.Member != "" {
		label += "." + decl.Member
	}

	if decl.Alias != "" {
		label += " as " + decl.Alias
	}

	return label
}

// ----------------------------------------------------------------------------
// Rule: unreachable-code
// ----------------------------------------------------------------------------

var unreachableRule = &Rule{
	Name:     CodeUnreachable,
	Doc:      "Reports the first statement following a return in the same block.",
	Severity: compiler.SeverityWarning,
	Run:      checkUnreachable,
}

func checkUnreachable(p *Pass) {
	tree := p.Tree

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		switch n.Kind {
		case kalc.KindBlock, kalc.KindBlockStat, kalc.KindCompilationUnit:
		default:
			return true
		}

		returned := false

		for _, child := range n.Children {
			c := tree.Node(child)
			if !c.Kind.IsStatement() {
				continue
			}

			if returned {
				p.Report(c.Span, "unreachable code")

				break
			}

			returned = c.Kind == kalc.KindReturnStat
		}

		return true
	})
}

// ----------------------------------------------------------------------------
// Rule: self-assignment
// ----------------------------------------------------------------------------

var selfAssignmentRule = &Rule{
	Name:     CodeSelfAssignment,
	Doc:      "Reports assignments of a variable or field to itself.",
	Severity: compiler.SeverityWarning,
	Run:      checkSelfAssignment,
}

func checkSelfAssignment(p *Pass) {
	tree := p.Tree

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		if n.Kind != kalc.KindAssignExpr || len(n.Children) != 2 {
			return true
		}

		lhs, rhs := tree.Node(n.Children[0]), tree.Node(n.Children[1])
		if !isPlace(lhs.Kind) || lhs.Kind != rhs.Kind {
			return true
		}

		if text := tree.Text(lhs.ID); text == tree.Text(rhs.ID) {
			p.Report(n.Span, "self-assignment of "+text)
		}

		return true
	})
}

func isPlace(kind kalc.NodeKind) bool {
	return kind == kalc.KindNameExpr || kind == kalc.KindMemberExpr
}
