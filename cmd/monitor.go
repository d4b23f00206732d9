/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/logging"
	"github.com/allbin/go-sttyserial/internal/tui/components"
	"github.com/allbin/go-sttyserial/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [port]",
	Short: "Interactive terminal on a serial device",
	Long: `Open a serial device in an interactive terminal.

Incoming data is polled and shown with timestamps in hex and ASCII. Press
'i' to type a message and Enter to send it; Esc returns to normal mode.

Keys in normal mode:
  h / a   toggle hex / ASCII columns
  c       clear the view
  f       flush buffered output (with --buffered)
  x       discard pending input
  ?       help
  q       quit

Logs would corrupt the display, so they go to --log-file or nowhere.

Example usage:
  serialctl monitor /dev/ttyUSB0 --baud 115200
  serialctl monitor COM3 --buffered --line-ending lf`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, err := portArg(args, 0)
		if err != nil {
			return err
		}
		settings, err := settingsFromConfig()
		if err != nil {
			return err
		}
		ending, err := lineEnding(viper.GetString("line-ending"))
		if err != nil {
			return err
		}

		logger := slog.New(slog.DiscardHandler)
		if path := viper.GetString("log-file"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer f.Close()
			level, _ := logging.ParseLevel(viper.GetString("log-level"))
			logger = logging.New(f, logging.Options{Level: level, NoColor: true})
		}

		ctx := cmd.Context()
		dev, err := setupDevice(ctx, cmd.OutOrStdout(), logger, port, settings,
			serial.WithAutoflush(!viper.GetBool("buffered")))
		if err != nil {
			return err
		}
		if dryRunOpen(cmd.OutOrStdout(), dev, viper.GetString("mode")) {
			return nil
		}
		guard, err := dev.Open(viper.GetString("mode"))
		if err != nil {
			return err
		}
		defer guard.Release()

		line := components.LineInfo{
			Settings:  settings,
			Platform:  dev.Platform().String(),
			Autoflush: dev.Autoflush(),
		}
		m := models.NewMonitorModel(ctx, guard, line, models.MonitorOptions{
			PollInterval: viper.GetDuration("poll"),
			LineEnding:   ending,
			MaxLines:     viper.GetInt("max-lines"),
			Logger:       logger,
		})

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return err
		}
		return guard.Release()
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	addLineFlags(monitorCmd)

	monitorCmd.Flags().StringP("mode", "m", "r+b", "Open mode: r, w or a with optional + and b")
	monitorCmd.Flags().Bool("buffered", false, "Queue sent messages until flushed with 'f'")
	monitorCmd.Flags().String("line-ending", "cr", "Appended to typed messages: none, cr, lf, crlf")
	monitorCmd.Flags().Duration("poll", 50*time.Millisecond, "How often the device is read")
	monitorCmd.Flags().Int("max-lines", 1000, "Traffic entries kept on screen")
	monitorCmd.Flags().String("log-file", "", "Write logs to this file")
}

func lineEnding(name string) (string, error) {
	switch name {
	case "none", "":
		return "", nil
	case "cr":
		return "\r", nil
	case "lf":
		return "\n", nil
	case "crlf":
		return "\r\n", nil
	default:
		return "", fmt.Errorf("unknown line ending %q (valid: none, cr, lf, crlf)", name)
	}
}
