// Package lsp implements a Language Server Protocol server for Kal.
package lsp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/analysis"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/complete"
	"github.com/rlch/kalc/types"
)

// Server implements the LSP Server interface for Kal.
type Server struct {
	unsupported

	client protocol.Client
	logger *zap.Logger

	// Document state
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*Document

	// Compilation state, rebuilt when the library changes.
	config    *kalc.Config
	libraries *LibraryLoader
	pipeline  atomic.Pointer[pipeline]
	analyzer  *analysis.Analyzer
	metrics   *complete.Metrics
	compilers func(*types.Library) compiler.PartialCompiler

	// Server state
	initialized   bool
	shutdown      bool
	workspaceRoot string
}

// pipeline is the compiler stack shared by all documents. Diagnostics and
// completions compile through separate bridges so that neither makes the
// other's result stale.
type pipeline struct {
	diagnostics *compiler.Bridge
	completions *compiler.Bridge
	completer   *complete.Completer
}

// Document represents an open document in the server.
type Document struct {
	URI     protocol.DocumentURI
	Version int32
	Content string

	// Identifier keys the document's compiles; Script selects script mode.
	Identifier string
	Script     bool

	// Unit is the latest compile of Content, nil until one completes.
	Unit *compiler.Unit
}

// Option configures a Server.
type Option func(*Server)

// WithConfig uses cfg instead of searching the workspace for a config file.
func WithConfig(cfg *kalc.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithMetrics records completion metrics.
func WithMetrics(m *complete.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCompiler replaces the compiler built for each class library.
func WithCompiler(build func(lib *types.Library) compiler.PartialCompiler) Option {
	return func(s *Server) {
		s.compilers = build
	}
}

// NewServer creates a new LSP server.
func NewServer(client protocol.Client, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		client:    client,
		logger:    logger,
		documents: make(map[protocol.DocumentURI]*Document),
		libraries: NewLibraryLoader(logger),
		analyzer:  analysis.NewAnalyzer(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.useLibrary(types.Builtins())

	return s
}

// useLibrary rebuilds the compiler pipeline around lib.
func (s *Server) useLibrary(lib *types.Library) {
	var opts []complete.Option
	if s.metrics != nil {
		opts = append(opts, complete.WithMetrics(s.metrics))
	}

	var pc compiler.PartialCompiler = compiler.New(lib)
	if s.compilers != nil {
		pc = s.compilers(lib)
	}

	completions := compiler.NewBridge(pc, s.logger)

	s.pipeline.Store(&pipeline{
		diagnostics: compiler.NewBridge(pc, s.logger),
		completions: completions,
		completer:   complete.New(completions, s.logger, opts...),
	})
}

// loadLibraries loads the configured libraries and switches to them.
func (s *Server) loadLibraries() {
	if s.config == nil || len(s.config.Library) == 0 {
		return
	}

	lib, err := s.libraries.Load(s.config.LibraryPaths())
	if err != nil {
		s.logger.Error("Failed to load libraries", zap.Error(err))

		return
	}

	s.useLibrary(lib)
}

// Initialize handles the initialize request.
func (s *Server) Initialize(_ context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	s.logger.Info("Initialize", zap.String("root", string(params.RootURI)))

	if params.RootURI != "" {
		s.workspaceRoot = uriToPath(params.RootURI)
	} else if params.RootPath != "" {
		s.workspaceRoot = params.RootPath
	}

	if s.config == nil && s.workspaceRoot != "" {
		cfg, err := kalc.LoadConfig(s.workspaceRoot)

		switch {
		case errors.Is(err, kalc.ErrConfigNotFound):
			s.logger.Info("No config file, using defaults", zap.String("root", s.workspaceRoot))
		case err != nil:
			s.logger.Warn("Failed to load config", zap.Error(err))
		default:
			s.config = cfg
		}
	}

	if s.config == nil {
		s.config = kalc.DefaultConfig()
	}

	s.loadLibraries()

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			// Full document sync - client sends entire content on change
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", ":"},
				ResolveProvider:   false,
			},
			SignatureHelpProvider: &protocol.SignatureHelpOptions{
				TriggerCharacters:   []string{"(", ","},
				RetriggerCharacters: []string{")"},
			},
			DocumentSymbolProvider:    true,
			DocumentHighlightProvider: true,
			ReferencesProvider:        true,
			RenameProvider: &protocol.RenameOptions{
				PrepareProvider: true,
			},
			// Code actions (quick fixes for lint findings)
			CodeActionProvider: &protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{
					protocol.QuickFix,
				},
			},
			FoldingRangeProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "kalc",
			Version: "0.1.0",
		},
	}, nil
}

// Initialized handles the initialized notification.
func (s *Server) Initialized(ctx context.Context, _ *protocol.InitializedParams) error {
	s.logger.Info("Initialized")
	s.initialized = true

	// The client answers on the connection this notification is read from.
	go s.registerInlayHints(context.WithoutCancel(ctx))

	return nil
}

// Shutdown handles the shutdown request.
func (s *Server) Shutdown(_ context.Context) error {
	s.logger.Info("Shutdown")
	s.shutdown = true

	return nil
}

// Exit handles the exit notification.
func (s *Server) Exit(_ context.Context) error {
	s.logger.Info("Exit")

	return nil
}

// DidOpen handles textDocument/didOpen notifications.
func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.logger.Info("DidOpen", zap.String("uri", string(params.TextDocument.URI)))

	path := uriToPath(params.TextDocument.URI)

	doc := &Document{
		URI:        params.TextDocument.URI,
		Version:    params.TextDocument.Version,
		Content:    params.TextDocument.Text,
		Identifier: path,
		Script:     s.isScript(path),
	}

	snapshot := *doc

	s.mu.Lock()
	s.documents[doc.URI] = doc
	s.mu.Unlock()

	s.analyze(ctx, &snapshot)

	return nil
}

// DidChange handles textDocument/didChange notifications.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.logger.Debug("DidChange",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Int32("version", params.TextDocument.Version))

	s.mu.Lock()

	doc, ok := s.documents[params.TextDocument.URI]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("DidChange for unknown document", zap.String("uri", string(params.TextDocument.URI)))

		return nil
	}

	if len(params.ContentChanges) == 0 {
		s.mu.Unlock()

		return nil
	}

	// Full sync: the last change holds the whole document.
	doc.Content = params.ContentChanges[len(params.ContentChanges)-1].Text
	doc.Version = params.TextDocument.Version
	snapshot := *doc
	s.mu.Unlock()

	s.analyze(ctx, &snapshot)

	return nil
}

// DidClose handles textDocument/didClose notifications.
func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.logger.Info("DidClose", zap.String("uri", string(params.TextDocument.URI)))

	s.mu.Lock()
	doc, ok := s.documents[params.TextDocument.URI]
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	if ok {
		p := s.pipeline.Load()
		p.diagnostics.Forget(doc.Identifier)
		p.completions.Forget(doc.Identifier)
	}

	// Clear diagnostics for closed document
	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.logger.Error("Failed to clear diagnostics", zap.Error(err))
	}

	return nil
}

// DidSave handles textDocument/didSave notifications.
func (s *Server) DidSave(_ context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.logger.Debug("DidSave", zap.String("uri", string(params.TextDocument.URI)))

	return nil
}

// DidChangeWatchedFiles reloads the libraries when one of them changes.
func (s *Server) DidChangeWatchedFiles(_ context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	if s.config == nil {
		return nil
	}

	paths := make([]string, 0, len(params.Changes))
	for _, change := range params.Changes {
		paths = append(paths, uriToPath(change.URI))
	}

	if s.libraries.Invalidate(paths...) {
		s.logger.Info("Library changed, reloading", zap.Strings("paths", paths))
		s.loadLibraries()
	}

	return nil
}

func (s *Server) isScript(path string) bool {
	if s.config == nil {
		return kalc.DefaultConfig().IsScript(path)
	}

	return s.config.IsScript(path)
}

// analyze compiles doc and publishes its diagnostics. A compile superseded
// by a newer edit is dropped.
func (s *Server) analyze(ctx context.Context, doc *Document) {
	unit, err := s.pipeline.Load().diagnostics.PartialCompile(ctx, doc.Identifier, doc.Content, doc.Script)
	if err != nil {
		if !errors.Is(err, compiler.ErrStale) {
			s.logger.Error("Compile failed", zap.String("uri", string(doc.URI)), zap.Error(err))
		}

		return
	}

	s.mu.Lock()
	if current, ok := s.documents[doc.URI]; ok && current.Version == doc.Version {
		current.Unit = unit
	}
	s.mu.Unlock()

	s.publishDiagnostics(ctx, doc.URI, doc.Version, unit)
}

// getDocument returns a copy of a document by URI (read-locked).
func (s *Server) getDocument(uri protocol.DocumentURI) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[uri]
	if !ok {
		return Document{}, false
	}

	return *doc, true
}
