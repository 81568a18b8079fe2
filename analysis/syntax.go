package analysis

import (
	"slices"

	"github.com/rlch/kalc"
)

// Predicate selects syntax nodes.
type Predicate func(*kalc.Node) bool

// Statement matches statement nodes.
func Statement(n *kalc.Node) bool { return n.Kind.IsStatement() }

// Expression matches expression nodes.
func Expression(n *kalc.Node) bool { return n.Kind.IsExpression() }

// StatementOrExpression matches statement and expression nodes.
func StatementOrExpression(n *kalc.Node) bool {
	return n.Kind.IsStatement() || n.Kind.IsExpression()
}

// SyntaxCursor finds the nodes of a tree that enclose an offset.
type SyntaxCursor struct {
	tree *kalc.Tree
}

// NewSyntaxCursor creates a cursor over tree.
func NewSyntaxCursor(tree *kalc.Tree) *SyntaxCursor {
	return &SyntaxCursor{tree: tree}
}

// Enclosing returns the deepest node containing offset that matches pred.
// Descent only follows children whose span contains the offset, so the
// result is the innermost match on the path from the root.
func (c *SyntaxCursor) Enclosing(offset int, pred Predicate) (kalc.NodeID, bool) {
	best := kalc.NoNode

	id := c.tree.Root
	for id != kalc.NoNode {
		n := c.tree.Node(id)
		if n == nil || !n.Span.Contains(offset) {
			break
		}

		if pred(n) {
			best = id
		}

		next := kalc.NoNode

		for _, child := range n.Children {
			if c.tree.Node(child).Span.Contains(offset) {
				next = child

				break
			}
		}

		id = next
	}

	return best, best != kalc.NoNode
}

// EnclosingKind returns the deepest node containing offset whose kind is
// one of kinds.
func (c *SyntaxCursor) EnclosingKind(offset int, kinds ...kalc.NodeKind) (kalc.NodeID, bool) {
	return c.Enclosing(offset, func(n *kalc.Node) bool {
		return slices.Contains(kinds, n.Kind)
	})
}

// IsAtStart reports whether node id starts exactly where tok starts.
func (c *SyntaxCursor) IsAtStart(id kalc.NodeID, tok kalc.Token) bool {
	n := c.tree.Node(id)

	return n != nil && n.Span.Start == tok.Span.Start
}
