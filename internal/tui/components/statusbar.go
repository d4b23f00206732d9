package components

import (
	"fmt"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/allbin/go-sttyserial/platform"
	"github.com/charmbracelet/lipgloss"
)

// LineInfo is what the status bar shows about the configured line.
type LineInfo struct {
	Settings  serial.Settings
	Platform  string
	Autoflush bool
}

type StatusBar struct {
	device string
	state  serial.State
	err    error
	width  int
	line   *LineInfo
}

func NewStatusBar(device string) *StatusBar {
	return &StatusBar{device: device}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetLineInfo(info *LineInfo) {
	sb.line = info
}

// SetState records the device state and the last error, if any.
func (sb *StatusBar) SetState(state serial.State, err error) {
	sb.state = state
	sb.err = err
}

func (sb *StatusBar) Err() error {
	return sb.err
}

func parityLetter(p serial.Parity) string {
	switch p {
	case serial.ParityEven:
		return "E"
	case serial.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

// Summary renders settings the usual way, e.g. "9600 8N1 rtscts".
func Summary(s serial.Settings) string {
	return fmt.Sprintf("%d %d%s%s %s",
		s.BaudRate,
		platform.ClampCharLength(s.DataBits),
		parityLetter(s.Parity),
		s.StopBits.String(),
		s.FlowControl.String())
}

// View renders a single line: mode, device and state on the left, line
// settings and time on the right.
func (sb *StatusBar) View(inputMode, sendingMode string, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeColor := styles.Blue
	if inputMode == "INSERT" {
		modeColor = styles.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(styles.Base).
		Background(modeColor).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	device := lipgloss.NewStyle().
		Foreground(styles.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	stateText := sb.state.String()
	if sb.err != nil {
		stateText += " ✗"
	}
	state := styles.StateStyle(sb.state.String()).Render(stateText)

	divider := lipgloss.NewStyle().
		Foreground(styles.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, device, state}
	if inputMode == "INSERT" {
		left = append(left, lipgloss.NewStyle().
			Foreground(styles.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := "⚡ serial"
	if sb.line != nil {
		details = fmt.Sprintf("⚡ %s %s", sb.line.Platform, Summary(sb.line.Settings))
		if !sb.line.Autoflush {
			details += " buffered"
		}
	}
	detailsView := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Padding(0, 1).
		Render(details)
	clock := lipgloss.NewStyle().
		Foreground(styles.Subtext1).
		Padding(0, 1).
		Render(timestamp)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, detailsView, divider, clock)

	spacerWidth := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
