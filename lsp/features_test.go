package lsp_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.lsp.dev/protocol"
)

func position(uri protocol.DocumentURI, line, character uint32) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Position:     protocol.Position{Line: line, Character: character},
	}
}

func completionLabels(list *protocol.CompletionList) []string {
	labels := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		labels = append(labels, item.FilterText)
	}

	return labels
}

func TestServer_Completion_Member(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "var x = 1;\nx.")

	result, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: position(uri, 1, 2),
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	if result == nil || len(result.Items) == 0 {
		t.Fatal("Expected completion items")
	}

	first := result.Items[0]
	if first.FilterText != "compareTo" || first.Kind != protocol.CompletionItemKindMethod {
		t.Errorf("first item = %s (%v), want method compareTo", first.FilterText, first.Kind)
	}

	if !strings.Contains(first.Detail, "compareTo(") {
		t.Errorf("Detail = %q", first.Detail)
	}

	want := protocol.Range{
		Start: protocol.Position{Line: 1, Character: 2},
		End:   protocol.Position{Line: 1, Character: 2},
	}
	if first.TextEdit == nil || first.TextEdit.Range != want {
		t.Errorf("TextEdit = %+v, want range %+v", first.TextEdit, want)
	}

	for _, label := range completionLabels(result) {
		if label == "MAX_VALUE" {
			t.Error("static field offered on a value")
		}
	}
}

func TestServer_Completion_ReplacesPrefix(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "var s = \"é\";\ns.toU")

	result, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: position(uri, 1, 5),
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	for _, item := range result.Items {
		if item.FilterText != "toUpperCase" {
			continue
		}

		if item.TextEdit.NewText != "toUpperCase" {
			t.Errorf("NewText = %q", item.TextEdit.NewText)
		}

		if item.TextEdit.Range.Start.Character != 2 || item.TextEdit.Range.End.Character != 5 {
			t.Errorf("Range = %+v, want characters 2-5", item.TextEdit.Range)
		}

		return
	}

	t.Errorf("toUpperCase not offered, got %v", completionLabels(result))
}

func TestServer_Completion_Scope(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "int abc = 1;\nab")

	result, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: position(uri, 1, 2),
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	if len(result.Items) == 0 || result.Items[0].FilterText != "abc" {
		t.Fatalf("Expected abc first, got %v", completionLabels(result))
	}

	if result.Items[0].Kind != protocol.CompletionItemKindVariable {
		t.Errorf("Kind = %v, want variable", result.Items[0].Kind)
	}

	if result.Items[0].SortText != "0000" {
		t.Errorf("SortText = %q, want 0000", result.Items[0].SortText)
	}
}

func TestServer_Completion_MethodRef(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "String::")

	result, err := server.Completion(context.Background(), &protocol.CompletionParams{
		TextDocumentPositionParams: position(uri, 0, 8),
	})
	if err != nil {
		t.Fatalf("Completion() error: %v", err)
	}

	count := 0

	for _, item := range result.Items {
		if item.Kind != protocol.CompletionItemKindReference {
			t.Errorf("Kind = %v, want reference", item.Kind)
		}

		if item.FilterText == "substring" {
			count++
		}
	}

	if count != 1 {
		t.Errorf("substring offered %d times, want 1", count)
	}
}

func TestServer_Hover(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "var x = 1;\nx.intValue();\nString.valueOf(x);")

	tests := []struct {
		name string
		line uint32
		char uint32
		want string
	}{
		{name: "local", line: 1, char: 0, want: "Integer"},
		{name: "class reference", line: 2, char: 2, want: "class String extends Object"},
		{name: "literal", line: 0, char: 8, want: "int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hover, err := server.Hover(context.Background(), &protocol.HoverParams{
				TextDocumentPositionParams: position(uri, tt.line, tt.char),
			})
			if err != nil {
				t.Fatalf("Hover() error: %v", err)
			}

			if hover == nil {
				t.Fatal("Expected hover")
			}

			if !strings.Contains(hover.Contents.Value, tt.want) {
				t.Errorf("Hover = %q, want it to contain %q", hover.Contents.Value, tt.want)
			}
		})
	}
}

func TestServer_Hover_Whitespace(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "var x = 1;\n\n")

	hover, err := server.Hover(context.Background(), &protocol.HoverParams{
		TextDocumentPositionParams: position(uri, 1, 0),
	})
	if err != nil || hover != nil {
		t.Errorf("Hover() = %v, %v, want nil", hover, err)
	}
}

const classSource = `class Counter {
	int count;
	constructor() {}
	int add(int n) {
		var next = count + n;
		count = next;
		return next;
	}
}
`

func TestServer_Definition(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)

	tests := []struct {
		name string
		line uint32
		char uint32
		want protocol.Position
	}{
		{name: "local", line: 5, char: 11, want: protocol.Position{Line: 4, Character: 6}},
		{name: "parameter", line: 4, char: 21, want: protocol.Position{Line: 3, Character: 13}},
		{name: "field", line: 5, char: 3, want: protocol.Position{Line: 1, Character: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			locations, err := server.Definition(context.Background(), &protocol.DefinitionParams{
				TextDocumentPositionParams: position(uri, tt.line, tt.char),
			})
			if err != nil {
				t.Fatalf("Definition() error: %v", err)
			}

			if len(locations) != 1 {
				t.Fatalf("Expected 1 location, got %d", len(locations))
			}

			if locations[0].URI != uri || locations[0].Range.Start != tt.want {
				t.Errorf("Definition = %+v, want %+v", locations[0], tt.want)
			}
		})
	}
}

func TestServer_Definition_Class(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "class Box {}\nvar b = new Box();\nString s;")

	locations, err := server.Definition(context.Background(), &protocol.DefinitionParams{
		TextDocumentPositionParams: position(uri, 1, 13),
	})
	if err != nil {
		t.Fatalf("Definition() error: %v", err)
	}

	if len(locations) != 1 || locations[0].Range.Start != (protocol.Position{Line: 0, Character: 6}) {
		t.Errorf("Definition = %+v, want Box at 0:6", locations)
	}
}

func TestServer_DocumentSymbol(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)

	result, err := server.DocumentSymbol(context.Background(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	if err != nil {
		t.Fatalf("DocumentSymbol() error: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 symbol, got %d", len(result))
	}

	class, ok := result[0].(protocol.DocumentSymbol)
	if !ok {
		t.Fatalf("Expected DocumentSymbol, got %T", result[0])
	}

	if class.Name != "Counter" || class.Kind != protocol.SymbolKindClass {
		t.Errorf("class symbol = %s (%v)", class.Name, class.Kind)
	}

	var children []string
	for _, child := range class.Children {
		children = append(children, child.Name+":"+child.Detail)
	}

	if got := strings.Join(children, ","); got != "count:int,constructor:constructor,add:int" {
		t.Errorf("children = %s", got)
	}
}

func TestServer_FoldingRanges(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)

	ranges, err := server.FoldingRanges(context.Background(), &protocol.FoldingRangeParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		},
	})
	if err != nil {
		t.Fatalf("FoldingRanges() error: %v", err)
	}

	// class and the body of add; the empty constructor stays on one line
	if len(ranges) != 2 {
		t.Fatalf("Expected 2 folding ranges, got %+v", ranges)
	}

	if ranges[0].StartLine != 0 || ranges[0].EndLine != 8 {
		t.Errorf("class range = %d-%d, want 0-8", ranges[0].StartLine, ranges[0].EndLine)
	}

	if ranges[1].StartLine != 3 || ranges[1].EndLine != 7 {
		t.Errorf("method range = %d-%d, want 3-7", ranges[1].StartLine, ranges[1].EndLine)
	}
}

func TestServer_References(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)

	tests := []struct {
		name        string
		line, char  uint32
		includeDecl bool
		want        []protocol.Position
	}{
		{
			name: "local from use", line: 5, char: 11, includeDecl: true,
			want: []protocol.Position{{Line: 4, Character: 6}, {Line: 5, Character: 10}, {Line: 6, Character: 9}},
		},
		{
			name: "field from declaration", line: 1, char: 5,
			want: []protocol.Position{{Line: 4, Character: 13}, {Line: 5, Character: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			locations, err := server.References(context.Background(), &protocol.ReferenceParams{
				TextDocumentPositionParams: position(uri, tt.line, tt.char),
				Context:                    protocol.ReferenceContext{IncludeDeclaration: tt.includeDecl},
			})
			if err != nil {
				t.Fatalf("References() error: %v", err)
			}

			got := make([]protocol.Position, 0, len(locations))
			for _, loc := range locations {
				got = append(got, loc.Range.Start)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("References mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServer_DocumentHighlight(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)

	highlights, err := server.DocumentHighlight(context.Background(), &protocol.DocumentHighlightParams{
		TextDocumentPositionParams: position(uri, 4, 21),
	})
	if err != nil {
		t.Fatalf("DocumentHighlight() error: %v", err)
	}

	if len(highlights) != 2 {
		t.Fatalf("Expected 2 highlights, got %+v", highlights)
	}

	if highlights[0].Kind != protocol.DocumentHighlightKindWrite ||
		highlights[0].Range.Start != (protocol.Position{Line: 3, Character: 13}) {
		t.Errorf("declaration highlight = %+v", highlights[0])
	}

	if highlights[1].Kind != protocol.DocumentHighlightKindRead {
		t.Errorf("use highlight kind = %v, want read", highlights[1].Kind)
	}
}

func TestServer_Rename(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)
	ctx := context.Background()

	edit, err := server.Rename(ctx, &protocol.RenameParams{
		TextDocumentPositionParams: position(uri, 6, 10),
		NewName:                    "total",
	})
	if err != nil {
		t.Fatalf("Rename() error: %v", err)
	}

	edits := edit.Changes[uri]
	if len(edits) != 3 {
		t.Fatalf("Expected 3 edits, got %+v", edits)
	}

	for _, e := range edits {
		if e.NewText != "total" || e.Range.End.Character-e.Range.Start.Character != 4 {
			t.Errorf("edit = %+v", e)
		}
	}

	for _, name := range []string{"return", "a b", ""} {
		if _, err := server.Rename(ctx, &protocol.RenameParams{
			TextDocumentPositionParams: position(uri, 6, 10),
			NewName:                    name,
		}); err == nil {
			t.Errorf("Rename(%q) succeeded, want error", name)
		}
	}
}

func TestServer_PrepareRename(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/Counter.kal", classSource)
	ctx := context.Background()

	rng, err := server.PrepareRename(ctx, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: position(uri, 5, 11),
	})
	if err != nil {
		t.Fatalf("PrepareRename() error: %v", err)
	}

	want := protocol.Range{
		Start: protocol.Position{Line: 5, Character: 10},
		End:   protocol.Position{Line: 5, Character: 14},
	}
	if rng == nil || *rng != want {
		t.Errorf("PrepareRename = %+v, want %+v", rng, want)
	}

	// Type names are not declarations.
	rng, err = server.PrepareRename(ctx, &protocol.PrepareRenameParams{
		TextDocumentPositionParams: position(uri, 3, 1),
	})
	if err != nil || rng != nil {
		t.Errorf("PrepareRename on type = %+v, %v, want nil", rng, err)
	}
}

func TestServer_CodeAction(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	uri := openDocument(t, server, "file:///work/main.kls", "import mixin Strings;\nint x = 1;\nx = x;\n")

	actions, err := server.CodeAction(context.Background(), &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 3, Character: 0},
		},
	})
	if err != nil {
		t.Fatalf("CodeAction() error: %v", err)
	}

	type fix struct {
		Title string
		Range protocol.Range
	}

	var got []fix

	for _, action := range actions {
		if action.Kind != protocol.QuickFix {
			t.Errorf("Kind = %v, want quickfix", action.Kind)
		}

		for _, e := range action.Edit.Changes[uri] {
			got = append(got, fix{Title: action.Title, Range: e.Range})
		}
	}

	lines := func(from, to uint32) protocol.Range {
		return protocol.Range{
			Start: protocol.Position{Line: from},
			End:   protocol.Position{Line: to},
		}
	}

	want := []fix{
		{Title: "Remove unused import", Range: lines(0, 1)},
		{Title: "Remove self-assignment", Range: lines(2, 3)},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CodeAction mismatch (-want +got):\n%s", diff)
	}
}
