package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// Direction tells where a chunk of traffic came from.
type Direction int

const (
	RX   Direction = iota // read from the device
	TX                    // handed to Send
	Note                  // local message, never on the wire
)

// TxStatus is the fate of a TX chunk.
type TxStatus int

const (
	TxQueued  TxStatus = iota // buffered, autoflush off
	TxWritten                 // flushed to the device
	TxFailed                  // flush failed, data dropped
)

// TrafficMsg is one chunk of monitor traffic.
type TrafficMsg struct {
	Timestamp time.Time
	Data      []byte
	Direction Direction
	Status    TxStatus
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) DisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) indicator(msg TrafficMsg) string {
	var color lipgloss.Color
	var text string

	switch msg.Direction {
	case RX:
		color, text = styles.Sky, "↙ RX"
	case Note:
		color, text = styles.Overlay0, "• --"
	default:
		switch msg.Status {
		case TxQueued:
			color, text = styles.Yellow, "↗ TX ○"
		case TxFailed:
			color, text = styles.Red, "↗ TX ✗"
		default:
			color, text = styles.Green, "↗ TX ✓"
		}
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(text)
}

// Printable replaces bytes outside printable ASCII with dots.
func Printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func (df *DataFormatter) FormatMessage(msg TrafficMsg) string {
	timestamp := lipgloss.NewStyle().
		Foreground(styles.Subtext0).
		Render("[" + msg.Timestamp.Format("15:04:05.000") + "]")

	if msg.Direction == Note {
		return fmt.Sprintf("%s %s: %s", timestamp, df.indicator(msg), string(msg.Data))
	}

	var parts []string
	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+Printable(msg.Data))
	}
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}

	return fmt.Sprintf("%s %s: %s", timestamp, df.indicator(msg), strings.Join(parts, "  "))
}

func (df *DataFormatter) FormatMessages(messages []TrafficMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}
