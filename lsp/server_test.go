package lsp_test

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/rlch/kalc"
	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/lsp"
	"github.com/rlch/kalc/types"
)

// mockClient implements protocol.Client for testing.
type mockClient struct {
	diagnostics []protocol.PublishDiagnosticsParams

	mu            sync.Mutex
	registrations []protocol.Registration
}

func (m *mockClient) PublishDiagnostics(_ context.Context, params *protocol.PublishDiagnosticsParams) error {
	m.diagnostics = append(m.diagnostics, *params)

	return nil
}

// Stub out remaining Client interface methods.
func (m *mockClient) Progress(context.Context, *protocol.ProgressParams) error { return nil }
func (m *mockClient) WorkDoneProgressCreate(context.Context, *protocol.WorkDoneProgressCreateParams) error {
	return nil
}
func (m *mockClient) ShowMessage(context.Context, *protocol.ShowMessageParams) error { return nil }
func (m *mockClient) ShowMessageRequest(
	context.Context, *protocol.ShowMessageRequestParams,
) (*protocol.MessageActionItem, error) {
	return nil, nil //nolint:nilnil // Mock stub returns nil for tests
}
func (m *mockClient) LogMessage(context.Context, *protocol.LogMessageParams) error { return nil }
func (m *mockClient) Telemetry(context.Context, any) error                         { return nil }
func (m *mockClient) RegisterCapability(_ context.Context, params *protocol.RegistrationParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.registrations = append(m.registrations, params.Registrations...)

	return nil
}
func (m *mockClient) UnregisterCapability(context.Context, *protocol.UnregistrationParams) error {
	return nil
}
func (m *mockClient) ApplyEdit(context.Context, *protocol.ApplyWorkspaceEditParams) (bool, error) {
	return false, nil
}
func (m *mockClient) Configuration(context.Context, *protocol.ConfigurationParams) ([]any, error) {
	return nil, nil
}
func (m *mockClient) WorkspaceFolders(context.Context) ([]protocol.WorkspaceFolder, error) {
	return nil, nil
}

func (m *mockClient) registered() []protocol.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.registrations)
}

func (m *mockClient) latest(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()

	if len(m.diagnostics) == 0 {
		t.Fatal("Expected diagnostics to be published")
	}

	return m.diagnostics[len(m.diagnostics)-1]
}

func newTestServer(t *testing.T, opts ...lsp.Option) (*lsp.Server, *mockClient) {
	t.Helper()

	logger := zap.NewNop()
	client := &mockClient{}
	server := lsp.NewServer(client, logger, opts...)

	ctx := context.Background()
	if _, err := server.Initialize(ctx, &protocol.InitializeParams{}); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	_ = server.Initialized(ctx, &protocol.InitializedParams{})

	return server, client
}

// openDocument opens text under uri and returns the uri.
func openDocument(t *testing.T, server *lsp.Server, uri protocol.DocumentURI, text string) protocol.DocumentURI {
	t.Helper()

	err := server.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:     uri,
			Version: 1,
			Text:    text,
		},
	})
	if err != nil {
		t.Fatalf("DidOpen() error: %v", err)
	}

	return uri
}

func TestServer_Initialize(t *testing.T) {
	t.Parallel()

	server := lsp.NewServer(&mockClient{}, zap.NewNop())

	result, err := server.Initialize(context.Background(), &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	if result.Capabilities.TextDocumentSync == nil {
		t.Error("TextDocumentSync capability not set")
	}

	hoverEnabled, ok := result.Capabilities.HoverProvider.(bool)
	if !ok || !hoverEnabled {
		t.Error("HoverProvider not enabled")
	}

	completion := result.Capabilities.CompletionProvider
	if completion == nil {
		t.Fatal("CompletionProvider not set")
	}

	if strings.Join(completion.TriggerCharacters, "") != ".:" {
		t.Errorf("TriggerCharacters = %v, want [. :]", completion.TriggerCharacters)
	}

	if result.ServerInfo == nil || result.ServerInfo.Name != "kalc" {
		t.Error("ServerInfo not set correctly")
	}
}

func TestServer_DidOpen_ValidScript(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)
	openDocument(t, server, "file:///work/main.kls", "int x = 1;\nint y = x + 2;\nx = y;\n")

	if got := client.latest(t); len(got.Diagnostics) != 0 {
		t.Errorf("Expected 0 diagnostics for valid script, got %v", got.Diagnostics)
	}
}

func TestServer_DidOpen_Lint(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)
	openDocument(t, server, "file:///work/main.kls", "import mixin Strings;\nint x = 1;\n")

	var codes []string

	for _, d := range client.latest(t).Diagnostics {
		if d.Severity != protocol.DiagnosticSeverityWarning {
			t.Errorf("Severity of %v = %v, want warning", d.Code, d.Severity)
		}

		codes = append(codes, fmt.Sprint(d.Code))
	}

	if got := strings.Join(codes, ","); got != "unused-import,unused-local" {
		t.Errorf("codes = %s, want unused-import,unused-local", got)
	}
}

func TestServer_DidOpen_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		uri  protocol.DocumentURI
		text string
		code string
		line uint32
	}{
		{
			name: "unresolved name",
			uri:  "file:///work/main.kls",
			text: "var x = 1;\ny.",
			code: compiler.CodeUnresolvedName,
			line: 1,
		},
		{
			name: "statement in class file",
			uri:  "file:///work/Foo.kal",
			text: "class Foo {}\nvar x = 1;",
			code: compiler.CodeSyntax,
			line: 1,
		},
		{
			name: "unknown import",
			uri:  "file:///work/main.kls",
			text: "import mixin Nope;",
			code: compiler.CodeUnknownImport,
			line: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, client := newTestServer(t)
			openDocument(t, server, tt.uri, tt.text)

			found := false

			for _, d := range client.latest(t).Diagnostics {
				if d.Code == tt.code && d.Range.Start.Line == tt.line {
					found = true

					if d.Severity != protocol.DiagnosticSeverityError {
						t.Errorf("Severity = %v, want error", d.Severity)
					}
				}
			}

			if !found {
				t.Errorf("Expected %s diagnostic on line %d, got: %v", tt.code, tt.line, client.latest(t).Diagnostics)
			}
		})
	}
}

func TestServer_DidChange(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)
	ctx := context.Background()
	uri := openDocument(t, server, "file:///work/main.kls", "var x = 1;\n")

	initialDiagCount := len(client.diagnostics)

	err := server.DidChange(ctx, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: "var x = 1;\nx = ;"},
		},
	})
	if err != nil {
		t.Fatalf("DidChange() error: %v", err)
	}

	if len(client.diagnostics) <= initialDiagCount {
		t.Fatal("Expected new diagnostics after change")
	}

	latest := client.latest(t)
	if latest.Version != 2 {
		t.Errorf("Version = %d, want 2", latest.Version)
	}

	if len(latest.Diagnostics) == 0 {
		t.Error("Expected syntax error after invalid change")
	}
}

func TestServer_DidChange_UnknownDocument(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)

	err := server.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///work/none.kls"},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "x"}},
	})
	if err != nil {
		t.Fatalf("DidChange() error: %v", err)
	}

	if len(client.diagnostics) != 0 {
		t.Errorf("Expected no diagnostics, got %d", len(client.diagnostics))
	}
}

func TestServer_DidClose(t *testing.T) {
	t.Parallel()

	server, client := newTestServer(t)
	ctx := context.Background()
	uri := openDocument(t, server, "file:///work/main.kls", "var x = ;")

	err := server.DidClose(ctx, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("DidClose() error: %v", err)
	}

	if got := client.latest(t); got.URI != uri || len(got.Diagnostics) != 0 {
		t.Errorf("Expected diagnostics to be cleared, got %v", got)
	}

	result, err := server.Completion(ctx, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		},
	})
	if err != nil || result != nil {
		t.Errorf("Completion() on closed document = %v, %v", result, err)
	}
}

func TestServer_WithConfig(t *testing.T) {
	t.Parallel()

	cfg := kalc.DefaultConfig()
	cfg.Scripts = []string{"*.kal"}

	server, client := newTestServer(t, lsp.WithConfig(cfg))
	openDocument(t, server, "file:///work/main.kal", "var x = 1;\n")

	for _, d := range client.latest(t).Diagnostics {
		if d.Severity == protocol.DiagnosticSeverityError {
			t.Errorf("Expected .kal to compile as a script, got %v", d)
		}
	}
}

// holdFirstCompiler blocks its first compile until release is closed.
type holdFirstCompiler struct {
	inner   compiler.PartialCompiler
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (h *holdFirstCompiler) PartialCompile(
	ctx context.Context, identifier, source string, script bool,
) (*compiler.Unit, error) {
	first := false
	h.once.Do(func() { first = true })

	if first {
		close(h.started)
		<-h.release
	}

	return h.inner.PartialCompile(ctx, identifier, source, script)
}

func TestServer_CompletionDoesNotStaleDiagnostics(t *testing.T) {
	t.Parallel()

	hold := &holdFirstCompiler{started: make(chan struct{}), release: make(chan struct{})}
	server, client := newTestServer(t, lsp.WithCompiler(func(lib *types.Library) compiler.PartialCompiler {
		hold.inner = compiler.New(lib)

		return hold
	}))

	const uri = protocol.DocumentURI("file:///work/main.kls")

	var (
		wg      sync.WaitGroup
		openErr error
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		openErr = server.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
			TextDocument: protocol.TextDocumentItem{URI: uri, Version: 1, Text: "var x = 1;\nx."},
		})
	}()

	<-hold.started

	list, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: position(uri, 1, 2),
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	if len(list.Items) == 0 {
		t.Error("Expected completions while diagnostics compile")
	}

	close(hold.release)
	wg.Wait()

	if openErr != nil {
		t.Fatalf("DidOpen() error: %v", openErr)
	}

	if got := client.latest(t); got.URI != uri {
		t.Errorf("Diagnostics published for %s, want %s", got.URI, uri)
	}
}
