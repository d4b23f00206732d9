/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// readCmd represents the read command
var readCmd = &cobra.Command{
	Use:   "read [port]",
	Short: "Read data from a serial device",
	Long: `Configure a serial device, open it and read from it.

By default read waits up to --timeout for data and then prints whatever is
available, or at most --count bytes. With --line it prints one CR or LF
terminated line. With --follow it keeps reading until interrupted (Ctrl+C),
which together with --output captures a device to a file. The output file
is opened in append mode.

Example usage:
  serialctl read /dev/ttyUSB0
  serialctl read /dev/ttyUSB0 --count 16 --flush
  serialctl read COM3 --line
  serialctl read /dev/ttyUSB0 --follow --output capture.log`,
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
		if path := viper.GetString("output"); path != "" {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("opening output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		dev, err := setupDevice(cmd.Context(), cmd.ErrOrStderr(), slog.Default(), port, settings)
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

		if viper.GetBool("flush") {
			if err := dev.ReadFlush(); err != nil {
				return err
			}
		}

		switch {
		case viper.GetBool("line"):
			err = readLine(cmd.Context(), dev, out, viper.GetDuration("timeout"))
		case viper.GetBool("follow"):
			fmt.Fprintf(cmd.ErrOrStderr(), "%s Reading %s, press Ctrl+C to stop\n", styles.InfoStyle.Render("⚡"), port)
			err = follow(cmd.Context(), dev, out, viper.GetDuration("poll"))
		default:
			err = readOnce(cmd.Context(), dev, out, viper.GetInt("count"), viper.GetDuration("timeout"))
		}
		if err != nil {
			return err
		}
		return guard.Release()
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	addLineFlags(readCmd)

	readCmd.Flags().StringP("mode", "m", "rb", "Open mode: r, w or a with optional + and b")
	readCmd.Flags().IntP("count", "c", 0, "Read at most this many bytes (0 = everything available)")
	readCmd.Flags().BoolP("line", "l", false, "Read one line")
	readCmd.Flags().Bool("flush", false, "Discard pending input before reading")
	readCmd.Flags().BoolP("follow", "F", false, "Keep reading until interrupted")
	readCmd.Flags().StringP("output", "o", "", "Append data to this file instead of stdout")
	readCmd.Flags().DurationP("timeout", "t", 2*time.Second, "How long to wait for data to start")
	readCmd.Flags().Duration("poll", 20*time.Millisecond, "Poll interval for --follow")
}

func readOnce(ctx context.Context, dev *serial.Device, out io.Writer, count int, timeout time.Duration) error {
	if _, err := waitForData(ctx, dev, timeout); err != nil {
		return err
	}
	data, err := dev.ReadPort(count)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func readLine(ctx context.Context, dev *serial.Device, out io.Writer, timeout time.Duration) error {
	ok, err := waitForData(ctx, dev, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no data from %s within %s", dev.Identity(), timeout)
	}
	line, err := dev.ReadLine()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, line)
	return err
}

// follow copies device input to out until ctx is done.
func follow(ctx context.Context, dev *serial.Device, out io.Writer, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		data, err := dev.ReadPort(0)
		if len(data) > 0 {
			if _, werr := out.Write(data); werr != nil {
				return werr
			}
		}
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
