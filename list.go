package serial

import (
	"regexp"
	"strings"

	"github.com/allbin/go-sttyserial/platform"
)

// DeviceInfo describes a serial device found by ListDevices. Name is what
// SetDevice accepts.
type DeviceInfo struct {
	Name        string
	Path        string
	Description string
}

// ListDevices returns the serial devices present on the host, sorted by
// path. Virtual terminals and pseudo-terminals are excluded.
func ListDevices() ([]DeviceInfo, error) {
	return listDevices()
}

var (
	linuxDevicePattern = regexp.MustCompile(`^(ttyUSB|ttyACM|ttyS|ttyAMA|ttymxc|ttyO|ttySAC|ttyTHS|rfcomm)\d+$`)

	// Only the call-out side; tty.* blocks on open until carrier detect
	macDevicePattern = regexp.MustCompile(`^cu\..+$`)
)

// isDeviceName reports whether a /dev entry called name is a serial device
// on p.
func isDeviceName(p platform.Platform, name string) bool {
	switch p {
	case platform.Linux:
		return linuxDevicePattern.MatchString(name)
	case platform.MacOS:
		return macDevicePattern.MatchString(name)
	default:
		return false
	}
}

// describeDevice provides a human-readable description for a device name.
func describeDevice(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	case strings.HasPrefix(name, "rfcomm"):
		return "Bluetooth Serial Port"
	case strings.HasPrefix(name, "cu.usb"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "cu.Bluetooth"):
		return "Bluetooth Serial Port"
	default:
		return "Serial Port"
	}
}
