package lsp

import (
	"context"

	"go.lsp.dev/protocol"
)

// unsupported answers the requests Kal has no feature for: notifications are
// accepted, requests get an empty result. Server embeds it to satisfy
// protocol.Server.
type unsupported struct{}

var _ protocol.Server = (*Server)(nil)

func (unsupported) WorkDoneProgressCancel(context.Context, *protocol.WorkDoneProgressCancelParams) error { return nil }
func (unsupported) LogTrace(context.Context, *protocol.LogTraceParams) error { return nil }
func (unsupported) SetTrace(context.Context, *protocol.SetTraceParams) error { return nil }
func (unsupported) CodeLens(context.Context, *protocol.CodeLensParams) ([]protocol.CodeLens, error) { return nil, nil }
func (unsupported) CodeLensResolve(context.Context, *protocol.CodeLens) (*protocol.CodeLens, error) { return nil, nil }
func (unsupported) ColorPresentation(context.Context, *protocol.ColorPresentationParams) ([]protocol.ColorPresentation, error) { return nil, nil }
func (unsupported) CompletionResolve(context.Context, *protocol.CompletionItem) (*protocol.CompletionItem, error) { return nil, nil }
func (unsupported) Declaration(context.Context, *protocol.DeclarationParams) ([]protocol.Location, error) { return nil, nil }
func (unsupported) DidChangeConfiguration(context.Context, *protocol.DidChangeConfigurationParams) error { return nil }
func (unsupported) DidChangeWorkspaceFolders(context.Context, *protocol.DidChangeWorkspaceFoldersParams) error { return nil }
func (unsupported) DocumentColor(context.Context, *protocol.DocumentColorParams) ([]protocol.ColorInformation, error) { return nil, nil }
func (unsupported) DocumentLink(context.Context, *protocol.DocumentLinkParams) ([]protocol.DocumentLink, error) { return nil, nil }
func (unsupported) DocumentLinkResolve(context.Context, *protocol.DocumentLink) (*protocol.DocumentLink, error) { return nil, nil }
func (unsupported) ExecuteCommand(context.Context, *protocol.ExecuteCommandParams) (any, error) { return nil, nil }
func (unsupported) Formatting(context.Context, *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) { return nil, nil }
func (unsupported) Implementation(context.Context, *protocol.ImplementationParams) ([]protocol.Location, error) { return nil, nil }
func (unsupported) OnTypeFormatting(context.Context, *protocol.DocumentOnTypeFormattingParams) ([]protocol.TextEdit, error) { return nil, nil }
func (unsupported) RangeFormatting(context.Context, *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) { return nil, nil }
func (unsupported) Symbols(context.Context, *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) { return nil, nil }
func (unsupported) TypeDefinition(context.Context, *protocol.TypeDefinitionParams) ([]protocol.Location, error) { return nil, nil }
func (unsupported) WillSave(context.Context, *protocol.WillSaveTextDocumentParams) error { return nil }
func (unsupported) WillSaveWaitUntil(context.Context, *protocol.WillSaveTextDocumentParams) ([]protocol.TextEdit, error) { return nil, nil }
func (unsupported) ShowDocument(context.Context, *protocol.ShowDocumentParams) (*protocol.ShowDocumentResult, error) { return nil, nil }
func (unsupported) WillCreateFiles(context.Context, *protocol.CreateFilesParams) (*protocol.WorkspaceEdit, error) { return nil, nil }
func (unsupported) DidCreateFiles(context.Context, *protocol.CreateFilesParams) error { return nil }
func (unsupported) WillRenameFiles(context.Context, *protocol.RenameFilesParams) (*protocol.WorkspaceEdit, error) { return nil, nil }
func (unsupported) DidRenameFiles(context.Context, *protocol.RenameFilesParams) error { return nil }
func (unsupported) WillDeleteFiles(context.Context, *protocol.DeleteFilesParams) (*protocol.WorkspaceEdit, error) { return nil, nil }
func (unsupported) DidDeleteFiles(context.Context, *protocol.DeleteFilesParams) error { return nil }
func (unsupported) CodeLensRefresh(context.Context) error { return nil }
func (unsupported) PrepareCallHierarchy(context.Context, *protocol.CallHierarchyPrepareParams) ([]protocol.CallHierarchyItem, error) { return nil, nil }
func (unsupported) IncomingCalls(context.Context, *protocol.CallHierarchyIncomingCallsParams) ([]protocol.CallHierarchyIncomingCall, error) { return nil, nil }
func (unsupported) OutgoingCalls(context.Context, *protocol.CallHierarchyOutgoingCallsParams) ([]protocol.CallHierarchyOutgoingCall, error) { return nil, nil }
func (unsupported) SemanticTokensFull(context.Context, *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) { return nil, nil }
func (unsupported) SemanticTokensFullDelta(context.Context, *protocol.SemanticTokensDeltaParams) (any, error) { return nil, nil }
func (unsupported) SemanticTokensRange(context.Context, *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) { return nil, nil }
func (unsupported) SemanticTokensRefresh(context.Context) error { return nil }
func (unsupported) LinkedEditingRange(context.Context, *protocol.LinkedEditingRangeParams) (*protocol.LinkedEditingRanges, error) { return nil, nil }
func (unsupported) Moniker(context.Context, *protocol.MonikerParams) ([]protocol.Moniker, error) { return nil, nil }
