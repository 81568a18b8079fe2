package lsp

import (
	"context"
	"slices"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc/compiler"
)

// publishDiagnostics converts the compiler and lint diagnostics of a unit to
// LSP format and publishes them.
func (s *Server) publishDiagnostics(ctx context.Context, uri protocol.DocumentURI, version int32, unit *compiler.Unit) {
	found := slices.Concat(unit.Diagnostics(), s.analyzer.Analyze(unit))
	diagnostics := make([]protocol.Diagnostic, 0, len(found))

	for _, d := range found {
		diagnostics = append(diagnostics, convertDiagnostic(unit.Source(), d))
	}

	s.logger.Debug("Publishing diagnostics",
		zap.String("uri", string(uri)),
		zap.Int("count", len(diagnostics)))

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     uint32(version), //nolint:gosec // LSP version numbers are always non-negative
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("Failed to publish diagnostics", zap.Error(err))
	}
}

// convertDiagnostic converts a compiler.Diagnostic to an LSP protocol.Diagnostic.
func convertDiagnostic(source string, d *compiler.Diagnostic) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    spanToRange(source, d.Span),
		Severity: convertSeverity(d.Severity),
		Code:     d.Code,
		Source:   "kalc",
		Message:  d.Message,
	}
}

// convertSeverity converts compiler severity to LSP severity.
func convertSeverity(sev compiler.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case compiler.SeverityError:
		return protocol.DiagnosticSeverityError
	case compiler.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case compiler.SeverityInformation:
		return protocol.DiagnosticSeverityInformation
	case compiler.SeverityHint:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}
