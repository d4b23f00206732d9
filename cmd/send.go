/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-sttyserial/internal/tui/components"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] [port]",
	Short: "Send data to a serial device",
	Long: `Configure a serial device, open it and send data.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialctl send /dev/ttyUSB0
- Interactive mode: serialctl send /dev/ttyUSB0 (prompts for input)

After sending, serialctl waits for --wait so a slow peer can answer. With
--read-line it then prints the first reply line.

Example usage:
  serialctl send "AT" /dev/ttyUSB0 --newline --read-line
  serialctl send "48656c6c6f" COM3 --hex
  echo "test" | serialctl send /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data, port string
		var err error

		// Either "send data port", "send port" or "send" with a configured port
		switch len(args) {
		case 2:
			data = args[0]
			port = args[1]
		default:
			if port, err = portArg(args, 0); err != nil {
				return err
			}
			if data, err = readInput(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
		}

		payload, err := sendPayload(data, viper.GetBool("hex"), viper.GetBool("newline"))
		if err != nil {
			return err
		}
		return sendData(cmd, port, payload)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addLineFlags(sendCmd)

	sendCmd.Flags().StringP("mode", "m", "r+b", "Open mode: r, w or a with optional + and b")
	sendCmd.Flags().DurationP("wait", "w", 100*time.Millisecond, "Time to wait after sending")
	sendCmd.Flags().BoolP("newline", "n", false, "Append CR LF to the data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().BoolP("read-line", "r", false, "Print the first reply line")
	sendCmd.Flags().DurationP("timeout", "t", 2*time.Second, "How long --read-line waits for a reply to start")
}

// readInput reads piped stdin, or prompts when stdin is a terminal.
func readInput(in io.Reader, out io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok {
		if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
			return promptForData(f, out), nil
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func promptForData(in io.Reader, out io.Writer) string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Mauve)

	fmt.Fprint(out, promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendPayload(data string, hex, newline bool) ([]byte, error) {
	if hex {
		b, err := components.ParseHex(data)
		if err != nil {
			return nil, fmt.Errorf("invalid hex data: %w", err)
		}
		return b, nil
	}
	if newline {
		data += "\r\n"
	}
	return []byte(data), nil
}

func sendData(cmd *cobra.Command, port string, payload []byte) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	settings, err := settingsFromConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Opening %s...\n", styles.InfoStyle.Render("⚡"), port)

	dev, err := setupDevice(ctx, out, slog.Default(), port, settings)
	if err != nil {
		return err
	}
	if dryRunOpen(out, dev, viper.GetString("mode")) {
		fmt.Fprintf(out, "%s would send %d bytes: %s\n", styles.MutedStyle.Render("$"), len(payload), components.Printable(payload))
		return nil
	}
	guard, err := dev.Open(viper.GetString("mode"))
	if err != nil {
		return err
	}
	defer guard.Release()

	fmt.Fprintf(out, "%s Sending %d bytes...\n", styles.InfoStyle.Render("📤"), len(payload))

	if err := dev.Send(ctx, payload, viper.GetDuration("wait")); err != nil {
		return err
	}

	preview := components.Printable(payload)
	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}
	fmt.Fprintf(out, "%s Sent %s\n", styles.SuccessStyle.Render("✓"), preview)

	if !viper.GetBool("read-line") {
		return guard.Release()
	}

	ok, err := waitForData(ctx, dev, viper.GetDuration("timeout"))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no reply from %s within %s", port, viper.GetDuration("timeout"))
	}
	line, err := dev.ReadLine()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", styles.InfoStyle.Render("↙"), line)
	return guard.Release()
}
