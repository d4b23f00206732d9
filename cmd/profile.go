/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

const (
	columnStep    = "step"
	columnValue   = "value"
	columnCommand = "command"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile [port]",
	Short: "Show the native commands used for each setting",
	Long: `Show the command each setting translates to on a platform, without
running anything.

The port defaults to COM1 on Windows and /dev/ttyS0 elsewhere.

Example usage:
  serialctl profile
  serialctl profile COM4 --platform windows --baud 9600
  serialctl profile /dev/cu.usbserial --platform macos --stop-bits 1.5`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := configuredPlatform()
		if err != nil {
			return err
		}
		if p == platform.Unknown {
			if p, err = platform.Detect(); err != nil {
				return err
			}
		}
		profile, err := platform.ProfileFor(p)
		if err != nil {
			return err
		}

		port := defaultPort(p)
		if len(args) > 0 {
			port = args[0]
		}
		id, err := profile.Resolve(port)
		if err != nil {
			return err
		}
		settings, err := settingsFromConfig()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s\n",
			styles.TitleStyle.Render(p.String()),
			id.Path,
			id.Name)
		fmt.Fprintln(cmd.OutOrStdout(), renderProfile(profileSteps(profile, id, settings)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	addLineFlags(profileCmd)
}

func defaultPort(p platform.Platform) string {
	if p == platform.Windows {
		return "COM1"
	}
	return "/dev/ttyS0"
}

// profileStep is one row of the profile table. Err is set when the value
// is rejected on this platform.
type profileStep struct {
	Step    string
	Value   string
	Command string
	Err     error
}

func profileSteps(profile platform.Profile, id platform.Identity, s serial.Settings) []profileStep {
	var steps []profileStep
	add := func(step, value string, cmd runner.Command, err error) {
		ps := profileStep{Step: step, Value: value, Err: err}
		if err == nil {
			ps.Command = cmd.String()
		}
		steps = append(steps, ps)
	}

	if cmd, ok := profile.Tool(); ok {
		add("tool check", "", cmd, nil)
	}
	add("probe", id.Name, profile.Probe(id), nil)
	if cmd, ok := profile.Handshake(id); ok {
		add("handshake", "", cmd, nil)
	}

	baud, err := profile.Baud(id, s.BaudRate)
	add("baud rate", fmt.Sprint(s.BaudRate), baud, err)
	parity, err := profile.Parity(id, s.Parity)
	add("parity", s.Parity.String(), parity, err)
	add("data bits", fmt.Sprint(platform.ClampCharLength(s.DataBits)), profile.CharLength(id, s.DataBits), nil)
	stop, err := profile.StopBits(id, s.StopBits)
	add("stop bits", s.StopBits.String(), stop, err)
	flow, err := profile.FlowControl(id, s.FlowControl)
	add("flow control", s.FlowControl.String(), flow, err)

	return steps
}

func renderProfile(steps []profileStep) string {
	width := len("command")
	for _, s := range steps {
		width = max(width, len(s.Command), len(errorText(s.Err)))
	}

	columns := []table.Column{
		table.NewColumn(columnStep, "Step", 14),
		table.NewColumn(columnValue, "Value", 10),
		table.NewColumn(columnCommand, "Command", width+2),
	}

	rows := make([]table.Row, 0, len(steps))
	for _, s := range steps {
		var command any = s.Command
		if s.Err != nil {
			command = table.NewStyledCell(errorText(s.Err), lipgloss.NewStyle().Foreground(styles.Red))
		}
		rows = append(rows, table.NewRow(table.RowData{
			columnStep:    s.Step,
			columnValue:   s.Value,
			columnCommand: command,
		}))
	}

	return table.New(columns).
		WithRows(rows).
		BorderRounded().
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(styles.Text).
			BorderForeground(styles.Surface2).
			Align(lipgloss.Left)).
		View()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return "rejected: " + strings.TrimSpace(err.Error())
}
