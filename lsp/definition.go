package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/compiler"
)

// Definition handles textDocument/definition requests. Locals, parameters,
// fields and classes declared in the same document resolve; library classes
// have no source and do not.
func (s *Server) Definition(_ context.Context, params *protocol.DefinitionParams) ([]protocol.Location, error) {
	s.logger.Debug("Definition",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	unit := doc.Unit
	offset := offsetAt(unit.Source(), params.Position)

	decl, ok := findDeclaration(unit, offset)
	if !ok {
		return nil, nil
	}

	return []protocol.Location{{
		URI:   doc.URI,
		Range: spanToRange(unit.Source(), nameSpan(unit.Tree(), decl)),
	}}, nil
}

// findDeclaration returns the node declaring the name at offset.
func findDeclaration(unit *compiler.Unit, offset int) (kalc.NodeID, bool) {
	tree := unit.Tree()
	cursor := analysis.NewSyntaxCursor(tree)

	id, ok := cursor.EnclosingKind(offset, kalc.KindNameExpr, kalc.KindNewExpr)
	if !ok {
		return kalc.NoNode, false
	}

	node, ok := unit.Node(id)
	if !ok {
		return kalc.NoNode, false
	}

	name := tree.NameText(id)

	switch node.Kind() {
	case ast.KindClassReference:
		return classDecl(tree, node.Class().Name)
	case ast.KindExpression:
		if tree.Node(id).Kind == kalc.KindNewExpr {
			return classDecl(tree, name)
		}

		return findVariable(unit, cursor, offset, name)
	case ast.KindOther:
		return kalc.NoNode, false
	}

	return kalc.NoNode, false
}

// findVariable resolves name at offset the way the binder does: locals,
// then parameters, then fields of the enclosing class.
func findVariable(unit *compiler.Unit, cursor *analysis.SyntaxCursor, offset int, name string) (kalc.NodeID, bool) {
	tree := unit.Tree()

	if stat, ok := cursor.Enclosing(offset, analysis.Statement); ok {
		if info, ok := unit.Scope(stat); ok {
			for i := len(info.Locals) - 1; i >= 0; i-- {
				if local := info.Locals[i]; local.Name == name {
					return declAt(tree, kalc.KindVarStat, local.Offset, name)
				}
			}
		}
	}

	if method, ok := cursor.EnclosingKind(offset, kalc.KindMethod); ok {
		if id, ok := childNamed(tree, method, kalc.KindParam, name); ok {
			return id, true
		}
	}

	if class, ok := cursor.EnclosingKind(offset, kalc.KindClass); ok {
		return childNamed(tree, class, kalc.KindField, name)
	}

	return kalc.NoNode, false
}

// declAt returns the node of kind starting at offset and declaring name.
func declAt(tree *kalc.Tree, kind kalc.NodeKind, offset int, name string) (kalc.NodeID, bool) {
	found := kalc.NoNode

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		if found != kalc.NoNode || n.Span.End < offset {
			return false
		}

		if n.Kind == kind && n.Span.Start == offset && tree.NameText(n.ID) == name {
			found = n.ID
		}

		return found == kalc.NoNode
	})

	return found, found != kalc.NoNode
}

func childNamed(tree *kalc.Tree, parent kalc.NodeID, kind kalc.NodeKind, name string) (kalc.NodeID, bool) {
	for _, child := range tree.Node(parent).Children {
		if n := tree.Node(child); n.Kind == kind && tree.NameText(child) == name {
			return child, true
		}
	}

	return kalc.NoNode, false
}

// nameSpan returns the span of a node's name token, or the node's span when
// it has none.
func nameSpan(tree *kalc.Tree, id kalc.NodeID) kalc.Span {
	n := tree.Node(id)
	if n.Name >= 0 && n.Name < len(tree.Tokens) {
		return tree.Tokens[n.Name].Span
	}

	return n.Span
}
