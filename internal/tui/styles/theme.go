package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha colors used by the monitor and the profile table
var (
	Base     = lipgloss.Color("#1e1e2e")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8")
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Background(Surface0).
			Padding(0, 1)

	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(0, 1)

	// One-shot CLI output
	InfoStyle    = lipgloss.NewStyle().Foreground(Mauve).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Red).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(Subtext0)
)

// StateStyle colors a device lifecycle state name.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "open":
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case "set":
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	}
}
