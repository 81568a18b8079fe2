package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rlch/kalc/complete"
)

// playgroundIdentifier keys the playground's compiles.
const playgroundIdentifier = "playground.kls"

// Playground is an interactive script prompt that completes as you type.
// The caret is the input cursor; the buffer compiles in script mode.
type Playground struct {
	completer *complete.Completer
	styles    *Styles
	input     textinput.Model

	items    []complete.Item
	selected int

	// Visible completion rows
	maxItems int
	width    int
}

// NewPlayground creates a playground backed by c.
func NewPlayground(c *complete.Completer, s *Styles) *Playground {
	input := textinput.New()
	input.Prompt = "kal> "
	input.Placeholder = "var s = \"kal\"; s."
	input.Focus()

	return &Playground{
		completer: c,
		styles:    s,
		input:     input,
		maxItems:  10,
		width:     80,
	}
}

// RunPlayground runs a playground until the user quits or ctx ends.
func RunPlayground(ctx context.Context, in io.Reader, out io.Writer, c *complete.Completer, s *Styles) error {
	p := tea.NewProgram(NewPlayground(c, s),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)

	_, err := p.Run()

	return err
}

// Value returns the buffer.
func (p *Playground) Value() string { return p.input.Value() }

// Items returns the completion items for the current caret.
func (p *Playground) Items() []complete.Item { return p.items }

// Selected returns the index of the highlighted item.
func (p *Playground) Selected() int { return p.selected }

func (p *Playground) Init() tea.Cmd {
	return textinput.Blink
}

func (p *Playground) Update(msg tea.Msg) (tea.Model, tea.Cmd) { //nolint:ireturn // bubbletea.Model interface required by tea.Program
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return p, tea.Quit
		case "up", "ctrl+p":
			if p.selected > 0 {
				p.selected--
			}

			return p, nil
		case "down", "ctrl+n":
			if p.selected < len(p.items)-1 {
				p.selected++
			}

			return p, nil
		case "tab", "enter":
			p.accept()

			return p, nil
		}

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.input.Width = max(msg.Width-len(p.input.Prompt)-4, 1)
		p.maxItems = max(msg.Height-6, 1)

		return p, nil
	}

	before := p.input.Value()

	var cmd tea.Cmd

	p.input, cmd = p.input.Update(msg)

	if _, ok := msg.(tea.KeyMsg); ok || p.input.Value() != before {
		p.refresh()
	}

	return p, cmd
}

// caret returns the byte offset of the input cursor.
func (p *Playground) caret() int {
	runes := []rune(p.input.Value())
	pos := min(p.input.Position(), len(runes))

	return len(string(runes[:pos]))
}

// refresh recomputes the items for the current caret.
func (p *Playground) refresh() {
	value := p.input.Value()
	if value == "" {
		p.items, p.selected = nil, 0

		return
	}

	p.items = p.completer.Complete(context.Background(), playgroundIdentifier, value, true, p.caret())
	p.selected = 0
}

// accept replaces the identifier before the caret with the selected item.
func (p *Playground) accept() {
	if p.selected >= len(p.items) {
		return
	}

	item := p.items[p.selected]
	value := p.input.Value()
	caret := p.caret()
	start := complete.ReplaceStart(value, caret)

	head := value[:start] + item.Name()
	p.input.SetValue(head + value[caret:])
	p.input.SetCursor(utf8.RuneCountInString(head))
	p.refresh()
}

func (p *Playground) View() string {
	var b strings.Builder

	b.WriteString(p.styles.Frame.Width(max(p.width-2, 1)).Render(p.input.View()))
	b.WriteString("\n")

	if len(p.items) == 0 {
		b.WriteString(p.styles.Dim.Render("  no completions"))
		b.WriteString("\n")
	}

	// Keep the selection inside the visible window.
	first := max(0, p.selected-p.maxItems+1)
	last := min(len(p.items), first+p.maxItems)

	for i := first; i < last; i++ {
		b.WriteString(itemLine(p.items[i], p.styles, i == p.selected))
		b.WriteString("\n")
	}

	if hidden := len(p.items) - (last - first); hidden > 0 {
		b.WriteString(p.styles.Dim.Render(fmt.Sprintf("  …%d more", hidden)))
		b.WriteString("\n")
	}

	b.WriteString(p.styles.Dim.Render("tab accept  ↑/↓ select  esc quit"))

	return b.String()
}
