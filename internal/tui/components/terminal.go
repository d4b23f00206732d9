package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Terminal is a scrolling view of formatted traffic. It keeps at most
// maxLines entries.
type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	messages  []TrafficMsg
	maxLines  int
}

func NewTerminal(width, height, maxLines int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true),
		maxLines:  maxLines,
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = max(height, 1)
}

func (t *Terminal) Width() int {
	return t.viewport.Width
}

func (t *Terminal) Add(msg TrafficMsg) {
	t.messages = append(t.messages, msg)
	if t.maxLines > 0 && len(t.messages) > t.maxLines {
		t.messages = t.messages[len(t.messages)-t.maxLines:]
	}
	t.refresh()
}

// Messages returns the retained traffic, oldest first.
func (t *Terminal) Messages() []TrafficMsg {
	return t.messages
}

func (t *Terminal) Clear() {
	t.messages = nil
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
	t.refresh()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
	t.refresh()
}

func (t *Terminal) DisplayMode() DisplayMode {
	return t.formatter.DisplayMode()
}

func (t *Terminal) refresh() {
	t.viewport.SetContent(strings.Join(t.formatter.FormatMessages(t.messages), "\n"))
	t.viewport.GotoBottom()
}

func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	// Key presses belong to the monitor's own bindings
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return cmd
	default:
		return nil
	}
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
