package lsp

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/types"
)

// SignatureHelp handles textDocument/signatureHelp requests. Inside the
// argument list of a call, mixin call or new expression it lists the
// overloads the call can name and marks the parameter being typed.
func (s *Server) SignatureHelp(_ context.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	s.logger.Debug("SignatureHelp",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil //nolint:nilnil
	}

	unit := doc.Unit

	id, arg, ok := openCall(unit, offsetAt(unit.Source(), params.Position))
	if !ok {
		return nil, nil //nolint:nilnil
	}

	call, ok := unit.Call(id)
	if !ok || len(call.Candidates) == 0 {
		return nil, nil //nolint:nilnil
	}

	param := call.Param(arg)
	help := &protocol.SignatureHelp{
		ActiveParameter: uint32(param), //nolint:gosec // argument indexes are small and non-negative
		ActiveSignature: activeSignature(call, param),
	}

	for _, m := range call.Candidates {
		help.Signatures = append(help.Signatures, signatureInfo(unit.Tree(), id, m))
	}

	return help, nil
}

// activeSignature prefers the selected overload while it has a parameter at
// param, then the first overload that does.
func activeSignature(call *compiler.Call, param int) uint32 {
	if call.Method != nil && len(call.Method.Params) > param {
		for i, m := range call.Candidates {
			if m == call.Method {
				return uint32(i) //nolint:gosec
			}
		}
	}

	for i, m := range call.Candidates {
		if len(m.Params) > param {
			return uint32(i) //nolint:gosec
		}
	}

	return 0
}

func signatureInfo(tree *kalc.Tree, id kalc.NodeID, m *types.MethodDescriptor) protocol.SignatureInformation {
	name := m.Name
	if n := tree.Node(id); n.Kind == kalc.KindNewExpr {
		name = "new " + tree.NameText(id)
	} else if n.Kind == kalc.KindMixinCallExpr {
		name = tree.NameText(id)
	}

	info := protocol.SignatureInformation{
		Label:         name + "(",
		Documentation: m.Declaration(),
	}

	for i, p := range m.Params {
		if i > 0 {
			info.Label += ", "
		}

		label := typeLabel(p.Type)
		if p.Name != "" {
			label += " " + p.Name
		}

		info.Label += label
		info.Parameters = append(info.Parameters, protocol.ParameterInformation{Label: label})
	}

	info.Label += ")"

	return info
}

func typeLabel(t types.Type) string {
	if t == nil {
		return "?"
	}

	return t.String()
}

// openCall finds the call whose argument list is open at offset, and the
// index of the argument offset falls in.
func openCall(unit *compiler.Unit, offset int) (kalc.NodeID, int, bool) {
	tokens := analysis.NewTokenCursor(unit.Tokens())
	if err := tokens.MoveTo(offset - 1); err != nil {
		return kalc.NoNode, 0, false
	}

	depth, arg := 0, 0

	for tok := tokens.Current(); ; tok = tokens.Current() {
		if tok.Channel == kalc.ChannelDefault {
			switch tok.Type {
			case kalc.TokenRParen:
				depth++
			case kalc.TokenLParen:
				if depth == 0 {
					return callOpenedAt(unit.Tree(), tok.Span.Start, arg)
				}

				depth--
			case kalc.TokenComma:
				if depth == 0 {
					arg++
				}
			case kalc.TokenSemi, kalc.TokenLBrace, kalc.TokenRBrace:
				return kalc.NoNode, 0, false
			}
		}

		if !tokens.Back(1, kalc.ChannelDefault) {
			return kalc.NoNode, 0, false
		}
	}
}

// callOpenedAt returns the call whose argument list opens at paren.
func callOpenedAt(tree *kalc.Tree, paren, arg int) (kalc.NodeID, int, bool) {
	id, ok := analysis.NewSyntaxCursor(tree).EnclosingKind(paren,
		kalc.KindCallExpr, kalc.KindMixinCallExpr, kalc.KindNewExpr)
	if !ok || argsStart(tree, id) != paren {
		return kalc.NoNode, 0, false
	}

	return id, arg, true
}

// argsStart returns the offset of the first significant token after the
// callee of call node id: its opening parenthesis when it has arguments.
func argsStart(tree *kalc.Tree, id kalc.NodeID) int {
	n := tree.Node(id)
	after := n.Span.Start

	switch n.Kind {
	case kalc.KindCallExpr:
		if len(n.Children) > 0 {
			after = tree.Node(n.Children[0]).Span.End
		}
	case kalc.KindMixinCallExpr:
		if n.Name >= 0 {
			after = tree.Tokens[n.Name].Span.End
		}
	case kalc.KindNewExpr:
		if n.TypeRef != kalc.NoNode {
			after = tree.Node(n.TypeRef).Span.End
		}
	}

	for _, tok := range tree.Tokens {
		if tok.Channel == kalc.ChannelDefault && tok.Span.Start >= after {
			return tok.Span.Start
		}
	}

	return -1
}

// callArgs returns the argument expressions of call node id.
func callArgs(tree *kalc.Tree, id kalc.NodeID) []kalc.NodeID {
	n := tree.Node(id)

	var args []kalc.NodeID

	for i, child := range n.Children {
		if (n.Kind == kalc.KindCallExpr || n.Kind == kalc.KindMixinCallExpr) && i == 0 {
			continue
		}

		if tree.Node(child).Kind.IsExpression() {
			args = append(args, child)
		}
	}

	return args
}
