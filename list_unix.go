//go:build linux || darwin

package serial

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/allbin/go-sttyserial/platform"
)

const devDir = "/dev"

func listDevices() ([]DeviceInfo, error) {
	p, err := platform.Detect()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var devices []DeviceInfo
	for _, entry := range entries {
		name := entry.Name()
		if !isDeviceName(p, name) {
			continue
		}

		path := filepath.Join(devDir, name)
		if !isCharacterDevice(path) {
			continue
		}
		devices = append(devices, DeviceInfo{
			Name:        path,
			Path:        path,
			Description: describeDevice(name),
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].Path < devices[j].Path })
	return devices, nil
}

func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
