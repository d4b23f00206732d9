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
	"time"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoPort = errors.New("no port given: pass it as an argument, set --port or SERIALCTL_PORT")

// addLineFlags registers the line settings shared by every command that
// configures a device.
func addLineFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("baud", "b", 9600, "Baud rate")
	cmd.Flags().StringP("parity", "p", "none", "Parity: none, odd, even")
	cmd.Flags().IntP("data-bits", "d", 8, "Character length, clamped to 5-8")
	cmd.Flags().StringP("stop-bits", "s", "1", "Stop bits: 1, 1.5 (Linux only), 2")
	cmd.Flags().StringP("flow-control", "f", "none", "Flow control: none, rtscts, xonxoff")
	cmd.Flags().String("port", "", "Device to use when not given as an argument")
}

// settingsFromConfig reads the line settings from flags, environment and
// config file, in viper's usual order of precedence.
func settingsFromConfig() (serial.Settings, error) {
	parity, err := platform.ParseParity(viper.GetString("parity"))
	if err != nil {
		return serial.Settings{}, err
	}
	stop, err := platform.ParseStopBits(viper.GetString("stop-bits"))
	if err != nil {
		return serial.Settings{}, err
	}
	flow, err := platform.ParseFlowControl(viper.GetString("flow-control"))
	if err != nil {
		return serial.Settings{}, err
	}

	return serial.Settings{
		BaudRate:    viper.GetInt("baud"),
		Parity:      parity,
		DataBits:    viper.GetInt("data-bits"),
		StopBits:    stop,
		FlowControl: flow,
	}, nil
}

// portArg returns args[i] if present, otherwise the configured port.
func portArg(args []string, i int) (string, error) {
	if i < len(args) && args[i] != "" {
		return args[i], nil
	}
	if port := viper.GetString("port"); port != "" {
		return port, nil
	}
	return "", errNoPort
}

// configuredPlatform returns the --platform override, or Unknown for the
// host platform.
func configuredPlatform() (platform.Platform, error) {
	name := viper.GetString("platform")
	if name == "" {
		return platform.Unknown, nil
	}
	return platform.Parse(name)
}

// dryRunner prints commands instead of running them.
func dryRunner(w io.Writer) runner.Runner {
	return runner.RunnerFunc(func(_ context.Context, cmd runner.Command) (runner.Result, error) {
		fmt.Fprintf(w, "%s %s\n", styles.MutedStyle.Render("$"), cmd)
		return runner.Result{}, nil
	})
}

func deviceOptions(out io.Writer, logger *slog.Logger) ([]serial.Option, error) {
	opts := []serial.Option{serial.WithLogger(logger)}

	p, err := configuredPlatform()
	if err != nil {
		return nil, err
	}
	if p != platform.Unknown {
		opts = append(opts, serial.WithPlatform(p))
	}
	if viper.GetBool("dry-run") {
		opts = append(opts, serial.WithRunner(dryRunner(out)))
	}
	return opts, nil
}

// setupDevice creates a device, selects port and applies s. It returns a
// device in the set state.
func setupDevice(ctx context.Context, out io.Writer, logger *slog.Logger, port string, s serial.Settings, extra ...serial.Option) (*serial.Device, error) {
	opts, err := deviceOptions(out, logger)
	if err != nil {
		return nil, err
	}

	dev, err := serial.New(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	if err := dev.SetDevice(ctx, port); err != nil {
		return nil, err
	}
	if err := dev.Configure(ctx, s); err != nil {
		return nil, err
	}
	return dev, nil
}

// dryRunOpen reports, during --dry-run, what would be opened and returns
// true so the caller stops before touching the device.
func dryRunOpen(out io.Writer, dev *serial.Device, mode string) bool {
	if !viper.GetBool("dry-run") {
		return false
	}
	fmt.Fprintf(out, "%s would open %s with mode %q\n", styles.MutedStyle.Render("$"), dev.Identity(), mode)
	return true
}

// waitForData polls the device until it has input, timeout passes or ctx
// is done. It reports whether data arrived.
func waitForData(ctx context.Context, dev *serial.Device, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		ok, err := dev.DataAvailable()
		if err != nil || ok {
			return ok, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}
