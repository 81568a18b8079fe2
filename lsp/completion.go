package lsp

import (
	"context"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc/complete"
)

// Completion handles textDocument/completion requests.
func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	s.logger.Debug("Completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	caret := offsetAt(doc.Content, params.Position)
	items := s.pipeline.Load().completer.Complete(ctx, doc.Identifier, doc.Content, doc.Script, caret)

	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        completionItems(doc.Content, items),
	}, nil
}

// completionItems converts completion items to LSP items. Each item replaces
// the identifier prefix before its anchor.
func completionItems(content string, items []complete.Item) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))

	for i, item := range items {
		anchor := item.Anchor()
		rng := protocol.Range{
			Start: positionAt(content, complete.ReplaceStart(content, anchor)),
			End:   positionAt(content, anchor),
		}

		out = append(out, protocol.CompletionItem{
			Label:      item.Label(),
			Kind:       completionKind(item.Kind()),
			Detail:     item.Detail(),
			FilterText: item.Name(),
			SortText:   fmt.Sprintf("%04d", i),
			TextEdit: &protocol.TextEdit{
				Range:   rng,
				NewText: item.Name(),
			},
		})
	}

	return out
}

func completionKind(kind complete.ItemKind) protocol.CompletionItemKind {
	switch kind {
	case complete.ItemVariable:
		return protocol.CompletionItemKindVariable
	case complete.ItemField:
		return protocol.CompletionItemKindField
	case complete.ItemMethod:
		return protocol.CompletionItemKindMethod
	case complete.ItemMethodRef:
		return protocol.CompletionItemKindReference
	default:
		return protocol.CompletionItemKindText
	}
}
