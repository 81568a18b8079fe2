package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/rlch/kalc/compiler"
	"github.com/rlch/kalc/complete"
)

// Items writes one line per completion item: kind, label and detail.
func Items(w io.Writer, items []complete.Item, s *Styles) error {
	for _, item := range items {
		if _, err := io.WriteString(w, itemLine(item, s, false)+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func itemLine(item complete.Item, s *Styles, selected bool) string {
	pointer := " "
	label := s.Label.Render(item.Label())

	if selected {
		pointer = s.Selected.Render(s.SymbolPointer)
		label = s.Selected.Render(item.Label())
	}

	kind := fmt.Sprintf("%-*s", s.KindWidth, item.Kind())

	return fmt.Sprintf("%s %s %s  %s",
		pointer,
		kindStyle(s, item.Kind()).Render(kind),
		label,
		s.Detail.Render(item.Detail()),
	)
}

func kindStyle(s *Styles, kind complete.ItemKind) lipgloss.Style {
	switch kind {
	case complete.ItemVariable:
		return s.Variable
	case complete.ItemField:
		return s.Field
	case complete.ItemMethod:
		return s.Method
	case complete.ItemMethodRef:
		return s.MethodRef
	default:
		return s.Dim
	}
}

// jsonItem is the JSON form of a completion item.
type jsonItem struct {
	Kind   complete.ItemKind `json:"kind"`
	Name   string            `json:"name"`
	Label  string            `json:"label"`
	Detail string            `json:"detail,omitempty"`
	Anchor int               `json:"anchor"`
	Start  int               `json:"replace_start"`
}

// ItemsJSON writes items as a JSON array. Start is the offset where the
// typed identifier prefix begins in source.
func ItemsJSON(w io.Writer, source string, items []complete.Item) error {
	out := make([]jsonItem, 0, len(items))

	for _, item := range items {
		out = append(out, jsonItem{
			Kind:   item.Kind(),
			Name:   item.Name(),
			Label:  item.Label(),
			Detail: item.Detail(),
			Anchor: item.Anchor(),
			Start:  complete.ReplaceStart(source, item.Anchor()),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

// Diagnostics writes diagnostics as path:line:col: severity: message [code].
func Diagnostics(w io.Writer, path, source string, diags []*compiler.Diagnostic, s *Styles) error {
	for _, d := range diags {
		line, col := Position(source, d.Span.Start)

		_, err := fmt.Fprintf(w, "%s %s %s [%s]\n",
			s.Path.Render(fmt.Sprintf("%s:%d:%d:", path, line, col)),
			severityStyle(s, d.Severity).Render(d.Severity.String()+":"),
			d.Message,
			d.Code,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func severityStyle(s *Styles, severity compiler.Severity) lipgloss.Style {
	switch severity {
	case compiler.SeverityError:
		return s.Error
	case compiler.SeverityWarning:
		return s.Warning
	default:
		return s.Info
	}
}

// Position returns the 1-based line and column of offset in source.
// Columns count runes.
func Position(source string, offset int) (int, int) {
	offset = max(0, min(offset, len(source)))
	before := source[:offset]

	line := strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1

	return line, utf8.RuneCountInString(before[lineStart:]) + 1
}
