/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/allbin/go-sttyserial/internal/tui/components"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/spf13/cobra"
)

// configureCmd represents the configure command
var configureCmd = &cobra.Command{
	Use:   "configure [port]",
	Short: "Apply line settings to a serial device",
	Long: `Select a serial device, check that it answers, and apply baud rate,
parity, character length, stop bits and flow control.

Every value is checked before anything runs, so an invalid setting changes
nothing on the device.

Example usage:
  serialctl configure /dev/ttyUSB0 --baud 115200 --flow-control rtscts
  serialctl configure COM3 --parity even --data-bits 7
  serialctl configure COM3 --platform windows --dry-run`,
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

		out := cmd.OutOrStdout()
		dev, err := setupDevice(cmd.Context(), out, slog.Default(), port, settings)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s configured: %s\n",
			styles.SuccessStyle.Render("✓"),
			dev.Identity(),
			components.Summary(settings))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	addLineFlags(configureCmd)
}
