package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SendingMode int

const (
	SendingModeASCII SendingMode = iota
	SendingModeHex
)

func (s SendingMode) String() string {
	if s == SendingModeHex {
		return "HEX"
	}
	return "ASCII"
}

const historyLimit = 100

type Input struct {
	textInput    textinput.Model
	sendingMode  SendingMode
	lineEnding   string
	history      []string
	historyIndex int
	currentInput string
	width        int
}

// NewInput returns an ASCII input that appends lineEnding to every message.
func NewInput(lineEnding string) *Input {
	ti := textinput.New()
	ti.Placeholder = "Type message and press Enter to send..."
	ti.CharLimit = 256
	ti.Prompt = ""

	return &Input{
		textInput:    ti,
		sendingMode:  SendingModeASCII,
		lineEnding:   lineEnding,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.width = width
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus() {
	i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

func (i *Input) SendingMode() SendingMode {
	return i.sendingMode
}

func (i *Input) ToggleSendingMode() {
	switch i.sendingMode {
	case SendingModeASCII:
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
	case SendingModeHex:
		i.sendingMode = SendingModeASCII
		i.textInput.Placeholder = "Type message and press Enter to send..."
	}
}

// Payload returns the bytes to send for the current value. ASCII values
// get the line ending appended; hex values are sent as typed.
func (i *Input) Payload() ([]byte, error) {
	value := i.textInput.Value()
	if i.sendingMode == SendingModeHex {
		return ParseHex(value)
	}
	return []byte(value + i.lineEnding), nil
}

// ParseHex accepts "48656C6C6F" or "48 65 6C 6C 6F", with optional 0x
// prefixes.
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", "0x", "", "0X", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil, fmt.Errorf("empty input")
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(clean))
	}

	out := make([]byte, 0, len(clean)/2)
	for j := 0; j < len(clean); j += 2 {
		b, err := strconv.ParseUint(clean[j:j+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q", clean[j:j+2])
		}
		out = append(out, byte(b))
	}
	return out, nil
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) View(insert bool) string {
	symbol, color := ">", styles.Green
	if i.sendingMode == SendingModeHex {
		symbol, color = "#", styles.Yellow
	}
	prompt := lipgloss.NewStyle().Foreground(color).Bold(true).Render(symbol)

	var content string
	if insert {
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", i.textInput.View())
	} else {
		hint := lipgloss.NewStyle().
			Foreground(styles.Overlay0).
			Render("Press 'i' to enter insert mode")
		content = lipgloss.JoinHorizontal(lipgloss.Left, prompt, " ", hint)
	}

	// Rounded border and padding take four columns
	style := styles.InputStyle.
		Width(max(i.width-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if insert {
		style = style.BorderForeground(styles.Green)
	}
	return style.Render(content)
}

// AddToHistory records command unless it is blank or repeats the last one.
func (i *Input) AddToHistory(command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	if len(i.history) > 0 && i.history[len(i.history)-1] == command {
		return
	}

	i.history = append(i.history, command)
	if len(i.history) > historyLimit {
		i.history = i.history[1:]
	}
	i.historyIndex = -1
	i.currentInput = ""
}

func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}
	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}
	i.textInput.SetValue(i.history[i.historyIndex])
}

func (i *Input) NavigateHistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}
	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.currentInput)
	i.currentInput = ""
}
