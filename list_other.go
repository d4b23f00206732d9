//go:build !linux && !darwin && !windows

package serial

func listDevices() ([]DeviceInfo, error) {
	return nil, ErrUnsupportedPlatform
}
