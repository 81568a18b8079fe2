package lsp

import (
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/ast"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/types"
)

// Hover handles textDocument/hover requests.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.logger.Debug("Hover",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil //nolint:nilnil
	}

	unit := doc.Unit
	offset := offsetAt(unit.Source(), params.Position)

	id, ok := analysis.NewSyntaxCursor(unit.Tree()).Enclosing(offset, analysis.Expression)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	node, ok := unit.Node(id)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	content := hoverContent(unit, node)
	if content == "" {
		return nil, nil //nolint:nilnil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content,
		},
		Range: rangePtr(spanToRange(unit.Source(), unit.Tree().Node(id).Span)),
	}, nil
}

// hoverContent generates hover markdown for a bound node.
func hoverContent(unit *compiler.Unit, node *ast.Node) string {
	switch node.Kind() {
	case ast.KindExpression:
		if node.Type() == nil {
			return ""
		}

		return fmt.Sprintf("```kal\n%s\n```", node.Type())
	case ast.KindClassReference:
		return hoverClass(unit, node.Class())
	case ast.KindOther:
		return fmt.Sprintf("```kal\n%s\n```", node)
	}

	return ""
}

// hoverClass renders a class header followed by its declared members.
func hoverClass(unit *compiler.Unit, c *types.Class) string {
	var b strings.Builder

	b.WriteString("```kal\nclass ")
	b.WriteString(c.Name)

	if c.Super != nil {
		b.WriteString(" extends ")
		b.WriteString(c.Super.Name)
	}

	b.WriteString(" {\n")

	for _, f := range c.DeclaredFields() {
		fmt.Fprintf(&b, "    %s%s %s;\n", modifierPrefix(f.Modifiers), f.Type, f.Name)
	}

	for _, m := range c.DeclaredMethods() {
		if m.IsSpecial() {
			continue
		}

		fmt.Fprintf(&b, "    %s;\n", m.Declaration())
	}

	b.WriteString("}\n```")

	if declaredIn(unit, c) {
		b.WriteString("\n\nDeclared in this file.")
	}

	return b.String()
}

func modifierPrefix(m types.Modifier) string {
	if m == 0 {
		return ""
	}

	return m.String() + " "
}

func declaredIn(unit *compiler.Unit, c *types.Class) bool {
	for _, declared := range unit.Classes() {
		if declared == c {
			return true
		}
	}

	return false
}

// classDecl returns the class node declaring name in tree.
func classDecl(tree *kalc.Tree, name string) (kalc.NodeID, bool) {
	found := kalc.NoNode

	tree.Walk(tree.Root, func(n *kalc.Node) bool {
		if found != kalc.NoNode {
			return false
		}

		if n.Kind == kalc.KindClass && tree.NameText(n.ID) == name {
			found = n.ID

			return false
		}

		return true
	})

	return found, found != kalc.NoNode
}
