package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
)

// FoldingRanges handles textDocument/foldingRange requests.
// Returns folding ranges for import groups, classes and multi-line blocks.
func (s *Server) FoldingRanges(_ context.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	s.logger.Debug("FoldingRanges",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	return foldingRanges(doc.Unit.Tree()), nil
}

func foldingRanges(tree *kalc.Tree) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange

	if imports := tree.Imports; len(imports) > 1 {
		first := positionAt(tree.Source, imports[0].Span.Start)
		last := positionAt(tree.Source, imports[len(imports)-1].Span.End)

		ranges = append(ranges, protocol.FoldingRange{
			StartLine: first.Line,
			EndLine:   last.Line,
			Kind:      protocol.ImportsFoldingRange,
		})
	}

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		switch n.Kind {
		case kalc.KindClass, kalc.KindBlock, kalc.KindBlockStat:
		default:
			return true
		}

		start := positionAt(tree.Source, n.Span.Start)
		end := positionAt(tree.Source, n.Span.End)

		if end.Line > start.Line {
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: start.Line,
				EndLine:   end.Line,
				Kind:      protocol.RegionFoldingRange,
			})
		}

		return true
	})

	return ranges
}
