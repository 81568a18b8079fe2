package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/rlch/kalc"
)

// offsetAt converts an LSP position (0-based line, UTF-16 column) to a byte
// offset in text. Positions past the end of a line clamp to the line end and
// lines past the end of text clamp to len(text).
func offsetAt(text string, pos protocol.Position) int {
	start := 0

	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return len(text)
		}

		start += nl + 1
	}

	col := 0

	for i, r := range text[start:] {
		if r == '\n' || col >= int(pos.Character) {
			return start + i
		}

		col += utf16.RuneLen(r)
	}

	return len(text)
}

// positionAt converts a byte offset in text to an LSP position.
func positionAt(text string, offset int) protocol.Position {
	offset = min(max(offset, 0), len(text))

	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	col := 0

	for rest := text[lineStart:offset]; rest != ""; {
		r, size := utf8.DecodeRuneInString(rest)
		col += utf16.RuneLen(r)
		rest = rest[size:]
	}

	return protocol.Position{
		Line:      uint32(line), //nolint:gosec // G115: line counts are small
		Character: uint32(col),  //nolint:gosec // G115: column counts are small
	}
}

// spanToRange converts a byte span of text to an LSP range.
func spanToRange(text string, span kalc.Span) protocol.Range {
	return protocol.Range{
		Start: positionAt(text, span.Start),
		End:   positionAt(text, span.End),
	}
}

func rangePtr(r protocol.Range) *protocol.Range {
	return &r
}

// uriToPath returns the file system path of a document URI.
func uriToPath(u protocol.DocumentURI) string {
	if !strings.HasPrefix(string(u), uri.FileScheme+"://") {
		return string(u)
	}

	return uri.URI(u).Filename()
}

// pathToURI converts a file system path to a document URI.
func pathToURI(path string) protocol.DocumentURI {
	return protocol.DocumentURI(uri.File(path))
}
