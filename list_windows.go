package serial

import (
	"errors"
	"sort"
	"strings"

	"golang.org/x/sys/windows/registry"
)

// serialCommKey maps driver device names (\Device\Serial0) to COM names.
const serialCommKey = `HARDWARE\DEVICEMAP\SERIALCOMM`

func listDevices() ([]DeviceInfo, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, serialCommKey, registry.QUERY_VALUE)
	if err != nil {
		// The key only exists while at least one port is present
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadValueNames(0)
	if err != nil {
		return nil, err
	}

	devices := make([]DeviceInfo, 0, len(names))
	for _, driver := range names {
		port, _, err := k.GetStringValue(driver)
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Name:        port,
			Path:        `\\.\` + port,
			Description: describeDriver(driver),
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

func describeDriver(driver string) string {
	d := strings.ToLower(driver)
	switch {
	case strings.Contains(d, "usbser"), strings.Contains(d, "vcp"), strings.Contains(d, "silabser"):
		return "USB Serial Port"
	case strings.Contains(d, "bth"):
		return "Bluetooth Serial Port"
	case strings.Contains(d, `\serial`):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}
