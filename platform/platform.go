// Package platform maps abstract serial line settings onto the native
// configuration command of each supported host family.
//
// A Profile never runs anything itself. It validates a setting and returns
// the runner.Command that applies it; the caller decides when to run it.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Platform identifies a host family.
type Platform int

const (
	Unknown Platform = iota
	Linux
	MacOS
	Windows
)

// ErrUnsupportedPlatform is returned for hosts that are neither Linux,
// macOS nor Windows.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case MacOS:
		return "macos"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// Parse accepts the names returned by String, plus "darwin" and "osx".
func Parse(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux":
		return Linux, nil
	case "macos", "darwin", "osx":
		return MacOS, nil
	case "windows":
		return Windows, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, s)
	}
}

// Detect returns the platform of the running process.
func Detect() (Platform, error) {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps a GOOS value to a Platform.
func FromGOOS(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return Linux, nil
	case "darwin":
		return MacOS, nil
	case "windows":
		return Windows, nil
	default:
		return Unknown, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}
