package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
)

// DocumentSymbol handles textDocument/documentSymbol requests.
// Returns classes with their members, and the top-level methods of scripts.
func (s *Server) DocumentSymbol(_ context.Context, params *protocol.DocumentSymbolParams) ([]any, error) {
	s.logger.Debug("DocumentSymbol",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	symbols := buildDocumentSymbols(doc.Unit.Tree())

	// Convert to []any for the protocol
	result := make([]any, len(symbols))
	for i, sym := range symbols {
		result[i] = sym
	}

	return result, nil
}

// buildDocumentSymbols creates a hierarchical symbol tree from the syntax tree.
func buildDocumentSymbols(tree *kalc.Tree) []protocol.DocumentSymbol {
	var symbols []protocol.DocumentSymbol

	for _, id := range tree.Node(tree.Root).Children {
		switch tree.Node(id).Kind {
		case kalc.KindClass:
			sym := symbolFor(tree, id, protocol.SymbolKindClass, "class")

			for _, member := range tree.Node(id).Children {
				if child, ok := memberSymbol(tree, member); ok {
					sym.Children = append(sym.Children, child)
				}
			}

			symbols = append(symbols, sym)
		case kalc.KindMethod:
			symbols = append(symbols, symbolFor(tree, id, protocol.SymbolKindFunction, "method"))
		case kalc.KindImport:
			symbols = append(symbols, symbolFor(tree, id, protocol.SymbolKindModule, "import"))
		}
	}

	return symbols
}

func memberSymbol(tree *kalc.Tree, id kalc.NodeID) (protocol.DocumentSymbol, bool) {
	n := tree.Node(id)

	switch {
	case n.Kind == kalc.KindField:
		return symbolFor(tree, id, protocol.SymbolKindField, tree.NameText(n.TypeRef)), true
	case n.Kind == kalc.KindMethod && n.HasFlag(kalc.FlagInitializer):
		sym := symbolFor(tree, id, protocol.SymbolKindMethod, "initializer")
		sym.Name = "static"

		return sym, true
	case n.Kind == kalc.KindMethod && n.HasFlag(kalc.FlagConstructor):
		return symbolFor(tree, id, protocol.SymbolKindConstructor, "constructor"), true
	case n.Kind == kalc.KindMethod:
		return symbolFor(tree, id, protocol.SymbolKindMethod, tree.NameText(n.TypeRef)), true
	}

	return protocol.DocumentSymbol{}, false
}

func symbolFor(tree *kalc.Tree, id kalc.NodeID, kind protocol.SymbolKind, detail string) protocol.DocumentSymbol {
	name := tree.NameText(id)
	if name == "" {
		name = "<anonymous>"
	}

	return protocol.DocumentSymbol{
		Name:           name,
		Kind:           kind,
		Detail:         detail,
		Range:          spanToRange(tree.Source, tree.Node(id).Span),
		SelectionRange: spanToRange(tree.Source, nameSpan(tree, id)),
	}
}
