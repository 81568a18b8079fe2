// Package render draws completion items and diagnostics for terminals.
package render

import "github.com/charmbracelet/lipgloss"

// Semantic colors, one per item kind.
var (
	colorVariable = lipgloss.Color("#10b981") // green-500
	colorField    = lipgloss.Color("#06b6d4") // cyan-500
	colorMethod   = lipgloss.Color("#3b82f6") // blue-500
	colorRef      = lipgloss.Color("#d946ef") // fuchsia-500

	colorError   = lipgloss.Color("#ef4444") // red-500
	colorWarning = lipgloss.Color("#eab308") // yellow-500
	colorInfo    = lipgloss.Color("#9ca3af") // gray-400

	colorDim    = lipgloss.Color("#6b7280") // gray-500
	colorBorder = lipgloss.Color("#374151") // gray-700
	colorAccent = lipgloss.Color("#f59e0b") // amber-500
)

// Styles holds all lipgloss styles used by the renderers.
type Styles struct {
	// Kind badges
	Variable  lipgloss.Style
	Field     lipgloss.Style
	Method    lipgloss.Style
	MethodRef lipgloss.Style

	// Diagnostic severities
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Text styles
	Label    lipgloss.Style
	Detail   lipgloss.Style
	Selected lipgloss.Style
	Path     lipgloss.Style
	Dim      lipgloss.Style
	Frame    lipgloss.Style

	SymbolPointer string

	// Fixed width for kind alignment
	KindWidth int
}

// DefaultStyles returns colored styles.
func DefaultStyles() *Styles {
	return &Styles{
		Variable:  lipgloss.NewStyle().Foreground(colorVariable).Bold(true),
		Field:     lipgloss.NewStyle().Foreground(colorField).Bold(true),
		Method:    lipgloss.NewStyle().Foreground(colorMethod).Bold(true),
		MethodRef: lipgloss.NewStyle().Foreground(colorRef).Bold(true),

		Error:   lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		Info:    lipgloss.NewStyle().Foreground(colorInfo),

		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f8fafc")), // slate-50
		Detail:   lipgloss.NewStyle().Foreground(colorDim),
		Selected: lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		Path:     lipgloss.NewStyle().Foreground(colorMethod),
		Dim:      lipgloss.NewStyle().Foreground(colorDim),
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),

		SymbolPointer: "❯",
		KindWidth:     10,
	}
}

// PlainStyles returns styles without color or borders, for pipes and files.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()

	return &Styles{
		Variable:  plain,
		Field:     plain,
		Method:    plain,
		MethodRef: plain,
		Error:     plain,
		Warning:   plain,
		Info:      plain,
		Label:     plain,
		Detail:    plain,
		Selected:  plain,
		Path:      plain,
		Dim:       plain,
		Frame:     plain,

		SymbolPointer: ">",
		KindWidth:     10,
	}
}
