package lsp

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/compiler"
)

// CodeAction handles textDocument/codeAction requests. It offers quick fixes
// for the lint findings in the requested range.
func (s *Server) CodeAction(_ context.Context, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	s.logger.Debug("CodeAction", zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil
	}

	unit := doc.Unit
	source := unit.Source()
	start := offsetAt(source, params.Range.Start)
	end := offsetAt(source, params.Range.End)

	var actions []protocol.CodeAction

	for _, d := range s.analyzer.Analyze(unit) {
		if d.Span.Start > end || d.Span.End < start {
			continue
		}

		title, span, ok := quickFix(unit, d)
		if !ok {
			continue
		}

		actions = append(actions, protocol.CodeAction{
			Title:       title,
			Kind:        protocol.QuickFix,
			Diagnostics: []protocol.Diagnostic{convertDiagnostic(source, d)},
			IsPreferred: true,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentURI][]protocol.TextEdit{
					doc.URI: {{Range: spanToRange(source, lineExtent(source, span))}},
				},
			},
		})
	}

	return actions, nil
}

// quickFix returns the title and the span to delete for a lint finding.
func quickFix(unit *compiler.Unit, d *compiler.Diagnostic) (string, kalc.Span, bool) {
	switch d.Code {
	case analysis.CodeUnusedImport:
		return "Remove unused import", d.Span, true
	case analysis.CodeSelfAssignment:
		tree := unit.Tree()

		stat, ok := analysis.NewSyntaxCursor(tree).EnclosingKind(d.Span.Start, kalc.KindExprStat)
		if !ok {
			return "", kalc.Span{}, false
		}

		return "Remove self-assignment", tree.Node(stat).Span, true
	default:
		return "", kalc.Span{}, false
	}
}

// lineExtent widens span to whole lines, newline included, when nothing but
// whitespace shares those lines with it.
func lineExtent(source string, span kalc.Span) kalc.Span {
	lineStart := strings.LastIndexByte(source[:span.Start], '\n') + 1
	if strings.TrimSpace(source[lineStart:span.Start]) != "" {
		return span
	}

	rest := source[span.End:]

	lineEnd := strings.IndexByte(rest, '\n')
	if lineEnd < 0 {
		lineEnd = len(rest)
	} else {
		lineEnd++
	}

	if strings.TrimSpace(rest[:lineEnd]) != "" {
		return span
	}

	return kalc.Span{Start: lineStart, End: span.End + lineEnd}
}
