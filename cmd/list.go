/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	serial "github.com/allbin/go-sttyserial"
	"github.com/allbin/go-sttyserial/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial devices",
	Long: `List the serial devices present on this host.

On Linux this scans /dev for USB adapters (ttyUSB*), CDC/ACM devices
(ttyACM*), standard ports (ttyS*), ARM ports (ttyAMA*) and other
platform-specific devices. On macOS it lists /dev/cu.*. On Windows it reads
the COM ports registered by their drivers.

Every listed name can be passed to the other commands.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := serial.ListDevices()
		if err != nil {
			return err
		}

		devices = filterDevices(devices, viper.GetString("filter"))
		out := cmd.OutOrStdout()
		if len(devices) == 0 {
			fmt.Fprintln(out, "No serial devices found")
			return nil
		}

		if viper.GetBool("table") {
			fmt.Fprintf(out, "Found %d serial device(s):\n", len(devices))
			fmt.Fprintln(out, renderDevices(devices))
			return nil
		}
		for _, d := range devices {
			fmt.Fprintln(out, d.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "Filter by type: usb, standard, bluetooth, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterDevices keeps devices whose description matches filter.
func filterDevices(devices []serial.DeviceInfo, filter string) []serial.DeviceInfo {
	filter = strings.ToLower(filter)
	if filter == "" || filter == "all" {
		return devices
	}

	var filtered []serial.DeviceInfo
	for _, d := range devices {
		desc := strings.ToLower(d.Description)
		switch filter {
		case "usb":
			if strings.HasPrefix(desc, "usb") {
				filtered = append(filtered, d)
			}
		case "standard":
			if strings.HasPrefix(desc, "standard") {
				filtered = append(filtered, d)
			}
		case "bluetooth":
			if strings.HasPrefix(desc, "bluetooth") {
				filtered = append(filtered, d)
			}
		}
	}
	return filtered
}

func renderDevices(devices []serial.DeviceInfo) string {
	const (
		columnName = "name"
		columnPath = "path"
		columnDesc = "description"
	)

	nameWidth, pathWidth := len("Name"), len("Path")
	for _, d := range devices {
		nameWidth = max(nameWidth, len(d.Name))
		pathWidth = max(pathWidth, len(d.Path))
	}

	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, table.NewRow(table.RowData{
			columnName: d.Name,
			columnPath: d.Path,
			columnDesc: d.Description,
		}))
	}

	return table.New([]table.Column{
		table.NewColumn(columnName, "Name", nameWidth+2),
		table.NewColumn(columnPath, "Path", pathWidth+2),
		table.NewColumn(columnDesc, "Description", 24),
	}).
		WithRows(rows).
		BorderRounded().
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(styles.Text).
			BorderForeground(styles.Surface2).
			Align(lipgloss.Left)).
		View()
}
