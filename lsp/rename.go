package lsp

import (
	"context"
	"errors"
	"fmt"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
)

var errNotRenameable = errors.New("nothing to rename here")

// PrepareRename handles textDocument/prepareRename requests. Locals,
// parameters, fields and classes declared in the document can be renamed.
func (s *Server) PrepareRename(_ context.Context, params *protocol.PrepareRenameParams) (*protocol.Range, error) {
	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, nil //nolint:nilnil
	}

	unit := doc.Unit
	offset := offsetAt(unit.Source(), params.Position)

	decl, uses := occurrences(unit, offset)
	if decl == kalc.NoNode {
		return nil, nil //nolint:nilnil
	}

	// The range under the cursor: the declaration or one of its uses.
	for _, span := range append(uses, nameSpan(unit.Tree(), decl)) {
		if span.Start <= offset && offset <= span.End {
			return rangePtr(spanToRange(unit.Source(), span)), nil
		}
	}

	return nil, nil //nolint:nilnil
}

// Rename handles textDocument/rename requests.
func (s *Server) Rename(_ context.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	s.logger.Debug("Rename",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.String("newName", params.NewName))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Unit == nil {
		return nil, errNotRenameable
	}

	if err := validateNewName(params.NewName); err != nil {
		return nil, err
	}

	unit := doc.Unit

	decl, uses := occurrences(unit, offsetAt(unit.Source(), params.Position))
	if decl == kalc.NoNode {
		return nil, errNotRenameable
	}

	edits := make([]protocol.TextEdit, 0, len(uses)+1)

	for _, span := range append([]kalc.Span{nameSpan(unit.Tree(), decl)}, uses...) {
		edits = append(edits, protocol.TextEdit{
			Range:   spanToRange(unit.Source(), span),
			NewText: params.NewName,
		})
	}

	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentURI][]protocol.TextEdit{doc.URI: edits},
	}, nil
}

// validateNewName accepts exactly one identifier that is not a keyword.
func validateNewName(name string) error {
	var significant []kalc.Token

	for _, tok := range kalc.Tokenize(name) {
		if tok.Channel == kalc.ChannelDefault && tok.Type != kalc.TokenEOF {
			significant = append(significant, tok)
		}
	}

	if len(significant) != 1 || !significant[0].IsIdent() || significant[0].Text != name {
		return fmt.Errorf("%q is not a valid identifier", name)
	}

	return nil
}
