package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/compiler"
)

// References handles textDocument/references requests within one document.
func (s *Server) References(_ context.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	s.logger.Debug("References",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	unit := doc.Unit
	offset := offsetAt(unit.Source(), params.Position)

	decl, uses := occurrences(unit, offset)
	if decl == kalc.NoNode {
		return nil, nil
	}

	locations := make([]protocol.Location, 0, len(uses)+1)

	if params.Context.IncludeDeclaration {
		locations = append(locations, protocol.Location{
			URI:   doc.URI,
			Range: spanToRange(unit.Source(), nameSpan(unit.Tree(), decl)),
		})
	}

	for _, span := range uses {
		locations = append(locations, protocol.Location{URI: doc.URI, Range: spanToRange(unit.Source(), span)})
	}

	return locations, nil
}

// DocumentHighlight handles textDocument/documentHighlight requests. The
// declaration is highlighted as a write, every use as a read.
func (s *Server) DocumentHighlight(
	_ context.Context, params *protocol.DocumentHighlightParams,
) ([]protocol.DocumentHighlight, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	unit := doc.Unit

	decl, uses := occurrences(unit, offsetAt(unit.Source(), params.Position))
	if decl == kalc.NoNode {
		return nil, nil
	}

	highlights := []protocol.DocumentHighlight{{
		Range: spanToRange(unit.Source(), nameSpan(unit.Tree(), decl)),
		Kind:  protocol.DocumentHighlightKindWrite,
	}}

	for _, span := range uses {
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: spanToRange(unit.Source(), span),
			Kind:  protocol.DocumentHighlightKindRead,
		})
	}

	return highlights, nil
}

// occurrences returns the declaration of the name at offset and the spans of
// every name resolving to it. The cursor may sit on the declaration itself.
func occurrences(unit *compiler.Unit, offset int) (kalc.NodeID, []kalc.Span) {
	tree := unit.Tree()

	decl, ok := declarationNameAt(tree, offset)
	if !ok {
		if decl, ok = findDeclaration(unit, offset); !ok {
			return kalc.NoNode, nil
		}
	}

	class := tree.Node(decl).Kind == kalc.KindClass
	name := tree.NameText(decl)

	var uses []kalc.Span

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		switch {
		case n.Kind == kalc.KindNameExpr || n.Kind == kalc.KindNewExpr:
			if id, ok := findDeclaration(unit, n.Span.Start); ok && id == decl {
				uses = append(uses, nameSpan(tree, n.ID))
			}
		case class && n.Kind == kalc.KindTypeRef && tree.NameText(n.ID) == name:
			// new Box() resolves through its NewExpr
			if tree.Node(n.Parent).Kind != kalc.KindNewExpr {
				uses = append(uses, nameSpan(tree, n.ID))
			}
		}

		return true
	})

	return decl, uses
}

// declarationNameAt returns the declaration whose name token covers offset.
func declarationNameAt(tree *kalc.Tree, offset int) (kalc.NodeID, bool) {
	id, ok := analysis.NewSyntaxCursor(tree).EnclosingKind(offset,
		kalc.KindVarStat, kalc.KindParam, kalc.KindField, kalc.KindClass)
	if !ok {
		return kalc.NoNode, false
	}

	span := nameSpan(tree, id)
	if tree.Node(id).Name < 0 || offset < span.Start || offset > span.End {
		return kalc.NoNode, false
	}

	return id, true
}
