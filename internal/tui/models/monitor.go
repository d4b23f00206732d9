package models

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/tui/components"
	"github.com/allbin/go-sttyserial/internal/tui/keys"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// PollMsg asks the model to read whatever the device has buffered.
type PollMsg time.Time

// MonitorOptions tunes a MonitorModel.
type MonitorOptions struct {
	PollInterval time.Duration // how often the device is read
	LineEnding   string        // appended to ASCII messages
	MaxLines     int           // traffic entries kept on screen
	Logger       *slog.Logger
}

// MonitorModel is an interactive terminal on an open device. All device
// calls happen inside Update, so the Device is never used concurrently.
type MonitorModel struct {
	ctx    context.Context
	device *serial.Device
	guard  *serial.Guard
	opts   MonitorOptions
	log    *slog.Logger

	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.MonitorKeys

	inputMode InputMode
	ready     bool
	now       func() time.Time
}

// NewMonitorModel wraps an open device. Quitting releases guard.
func NewMonitorModel(ctx context.Context, guard *serial.Guard, line components.LineInfo, opts MonitorOptions) *MonitorModel {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 50 * time.Millisecond
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = 1000
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	dev := guard.Device()
	statusBar := components.NewStatusBar(dev.Identity().String())
	statusBar.SetLineInfo(&line)
	statusBar.SetState(dev.State(), nil)

	return &MonitorModel{
		ctx:       ctx,
		device:    dev,
		guard:     guard,
		opts:      opts,
		log:       log.With("module", "monitor"),
		terminal:  components.NewTerminal(0, 0, opts.MaxLines),
		statusBar: statusBar,
		input:     components.NewInput(opts.LineEnding),
		help:      help.New(),
		keys:      keys.NewMonitorKeys(),
		now:       time.Now,
	}
}

func (m *MonitorModel) Init() tea.Cmd {
	return m.tick()
}

func (m *MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg {
		return PollMsg(t)
	})
}

// Terminal exposes the traffic view.
func (m *MonitorModel) Terminal() *components.Terminal {
	return m.terminal
}

// InputMode returns the current input mode.
func (m *MonitorModel) InputMode() InputMode {
	return m.inputMode
}

func (m *MonitorModel) note(format string, args ...any) {
	m.terminal.Add(components.TrafficMsg{
		Timestamp: m.now(),
		Data:      []byte(fmt.Sprintf(format, args...)),
		Direction: components.Note,
	})
}

func (m *MonitorModel) fail(err error) {
	m.log.Warn("serial operation failed", "device", m.device.Identity().Path, "error", err)
	m.statusBar.SetState(m.device.State(), err)
	m.note("%v", err)
}

// poll drains the device without blocking.
func (m *MonitorModel) poll() {
	if m.device.State() != serial.StateOpen {
		return
	}
	data, err := m.device.ReadPort(0)
	if len(data) > 0 {
		m.terminal.Add(components.TrafficMsg{Timestamp: m.now(), Data: data, Direction: components.RX})
	}
	if err != nil {
		m.fail(err)
	}
}

func (m *MonitorModel) send() {
	payload, err := m.input.Payload()
	if err != nil {
		m.note("Invalid input: %v", err)
		return
	}

	status := components.TxQueued
	if m.device.Autoflush() {
		status = components.TxWritten
	}
	if err := m.device.Send(m.ctx, payload, 0); err != nil {
		status = components.TxFailed
		m.fail(err)
	}
	m.terminal.Add(components.TrafficMsg{Timestamp: m.now(), Data: payload, Direction: components.TX, Status: status})

	m.input.AddToHistory(m.input.Value())
	m.input.SetValue("")
}

func (m *MonitorModel) quit() tea.Cmd {
	if err := m.guard.Release(); err != nil {
		m.log.Error("closing device", "error", err)
	}
	return tea.Quit
}

func (m *MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Top border 1, input box 3, status bar 1
		m.terminal.SetSize(msg.Width, msg.Height-5)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.ready = true
		cmds = append(cmds, m.terminal.Update(msg))

	case PollMsg:
		if m.ctx.Err() != nil {
			return m, m.quit()
		}
		m.poll()
		cmds = append(cmds, m.tick())

	case tea.KeyMsg:
		if m.inputMode == InputModeInsert {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.inputMode = InputModeNormal
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Enter):
				if m.input.Value() != "" {
					m.send()
				}
				return m, nil
			case key.Matches(msg, m.keys.Up):
				m.input.NavigateHistoryUp()
				return m, nil
			case key.Matches(msg, m.keys.Down):
				m.input.NavigateHistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.InsertMode):
			m.inputMode = InputModeInsert
			m.input.Focus()
		case key.Matches(msg, m.keys.Clear):
			m.terminal.Clear()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.ToggleHex):
			m.terminal.ToggleHex()
		case key.Matches(msg, m.keys.ToggleASCII):
			m.terminal.ToggleASCII()
		case key.Matches(msg, m.keys.ToggleSendMode):
			m.input.ToggleSendingMode()
		case key.Matches(msg, m.keys.Flush):
			pending := len(m.device.Pending())
			if err := m.device.Flush(); err != nil {
				m.fail(err)
			} else {
				m.note("Flushed %d bytes", pending)
			}
		case key.Matches(msg, m.keys.ReadFlush):
			if err := m.device.ReadFlush(); err != nil {
				m.fail(err)
			} else {
				m.note("Input discarded")
			}
		}

	case tea.MouseMsg:
		cmds = append(cmds, m.terminal.Update(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *MonitorModel) View() string {
	content := "Initializing..."
	if m.ready {
		content = m.terminal.View()
	}

	insert := m.inputMode == InputModeInsert
	status := m.statusBar.View(m.inputMode.String(), m.input.SendingMode().String(), m.now().Format("15:04:05"))

	sections := []string{
		styles.ContentBorderStyle.Render(content),
		m.input.View(insert),
		status,
	}
	if m.help.ShowAll {
		sections = append(sections, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
