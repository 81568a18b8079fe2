package lsp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
)

// go.lsp.dev/protocol v0.12.0 predates inlay hints (LSP 3.17), so the request
// arrives through Server.Request and the types are declared here.

// MethodTextDocumentInlayHint is the inlay hint request method.
const MethodTextDocumentInlayHint = "textDocument/inlayHint"

// InlayHintParams are the parameters of a textDocument/inlayHint request.
type InlayHintParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Range        protocol.Range                  `json:"range"`
}

// InlayHintKind distinguishes type and parameter hints.
type InlayHintKind uint32

// Inlay hint kinds.
const (
	InlayHintKindType      InlayHintKind = 1
	InlayHintKindParameter InlayHintKind = 2
)

// InlayHint is a label shown inline before Position.
type InlayHint struct {
	Position     protocol.Position `json:"position"`
	Label        string            `json:"label"`
	Kind         InlayHintKind     `json:"kind,omitempty"`
	PaddingRight bool              `json:"paddingRight,omitempty"`
}

// Request serves requests that protocol.Server has no method for.
func (s *Server) Request(ctx context.Context, method string, params any) (any, error) {
	switch method {
	case MethodTextDocumentInlayHint:
		var p InlayHintParams
		if err := convertParams(params, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}

		return s.InlayHint(ctx, &p)
	default:
		s.logger.Debug("Unsupported request", zap.String("method", method))

		return nil, nil
	}
}

// convertParams decodes generically unmarshaled params into v.
func convertParams(params any, v any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// InlayHint labels call arguments with the names of the parameters they
// bind to. Arguments that already are a variable of that name get no hint.
func (s *Server) InlayHint(_ context.Context, params *InlayHintParams) ([]InlayHint, error) {
	s.logger.Debug("InlayHint", zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	unit := doc.Unit
	tree := unit.Tree()
	source := unit.Source()
	start := offsetAt(source, params.Range.Start)
	end := offsetAt(source, params.Range.End)

	hints := []InlayHint{}

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		if n.Span.End < start || n.Span.Start > end {
			return false
		}

		call, ok := unit.Call(n.ID)
		if !ok || call.Method == nil {
			return true
		}

		for i, arg := range callArgs(tree, n.ID) {
			p := call.Param(i)
			if p >= len(call.Method.Params) {
				break
			}

			name := call.Method.Params[p].Name
			a := tree.Node(arg)

			if name == "" || a.Span.Start < start || a.Span.Start > end ||
				(a.Kind == kalc.KindNameExpr && tree.NameText(arg) == name) {
				continue
			}

			hints = append(hints, InlayHint{
				Position:     positionAt(source, a.Span.Start),
				Label:        name + ":",
				Kind:         InlayHintKindParameter,
				PaddingRight: true,
			})
		}

		return true
	})

	return hints, nil
}

// registerInlayHints asks the client to send inlay hint requests. The
// capability cannot be announced statically with this protocol version.
func (s *Server) registerInlayHints(ctx context.Context) {
	err := s.client.RegisterCapability(ctx, &protocol.RegistrationParams{
		Registrations: []protocol.Registration{{
			ID:     MethodTextDocumentInlayHint,
			Method: MethodTextDocumentInlayHint,
			RegisterOptions: protocol.TextDocumentRegistrationOptions{
				DocumentSelector: protocol.DocumentSelector{{Pattern: "**/*.{kal,kls}"}},
			},
		}},
	})
	if err != nil {
		s.logger.Debug("Client declined inlay hints", zap.Error(err))
	}
}
