package platform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/allbin/go-sttyserial/runner"
)

// Identity is a resolved serial device.
type Identity struct {
	// Path is what the byte stream opens.
	Path string
	// Name is what the configuration tool is given.
	Name string
}

// IsZero reports whether id is unset.
func (id Identity) IsZero() bool {
	return id.Path == "" && id.Name == ""
}

func (id Identity) String() string {
	return id.Path
}

// Profile translates abstract settings into the native configuration
// command of one host family. The set of profiles is closed: LinuxProfile,
// MacProfile and WindowsProfile.
type Profile interface {
	Platform() Platform

	// Tool returns a command that must succeed for the configuration tool
	// to be considered present. ok is false when no check is possible.
	Tool() (cmd runner.Command, ok bool)

	// Resolve turns a user supplied device name into an Identity.
	Resolve(name string) (Identity, error)

	// Probe returns the zero-argument command that proves id is addressable.
	Probe(id Identity) runner.Command

	// Handshake returns a second command that must succeed before id is
	// accepted. ok is false when the platform needs none.
	Handshake(id Identity) (cmd runner.Command, ok bool)

	Baud(id Identity, rate int) (runner.Command, error)
	Parity(id Identity, p Parity) (runner.Command, error)
	// CharLength clamps n into [MinCharLength, MaxCharLength]; it never fails.
	CharLength(id Identity, n int) runner.Command
	StopBits(id Identity, s StopBits) (runner.Command, error)
	FlowControl(id Identity, f FlowControl) (runner.Command, error)

	// SerialFlag returns the setserial command that sets a low-level driver
	// parameter. Only Linux has setserial.
	SerialFlag(id Identity, param, arg string) (runner.Command, error)

	sealed()
}

// ProfileFor returns the profile for p.
func ProfileFor(p Platform) (Profile, error) {
	switch p {
	case Linux:
		return LinuxProfile{}, nil
	case MacOS:
		return MacProfile{}, nil
	case Windows:
		return WindowsProfile{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
}

var comPattern = regexp.MustCompile(`(?i)^COM(\d+):?$`)

// comNumber extracts n from "COMn" or "COMn:". ok is false for anything else,
// including COM0.
func comNumber(name string) (int, bool) {
	m := comPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// setserialArgs checks param and splits arg the way a shell would, so
// "port 0x3f8 irq 4" style arguments keep working.
func setserialArgs(param, arg string) ([]string, error) {
	if param == "" || strings.ContainsFunc(param, unicode.IsSpace) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSerialFlag, param)
	}
	return append([]string{param}, strings.Fields(arg)...), nil
}

// POSIX stty arguments shared by the Linux and macOS profiles.
var (
	sttyParity = map[Parity][]string{
		ParityNone: {"-parenb"},
		ParityOdd:  {"parenb", "parodd"},
		ParityEven: {"parenb", "-parodd"},
	}

	sttyFlowControl = map[FlowControl][]string{
		FlowControlNone:    {"clocal", "-crtscts", "-ixon", "-ixoff"},
		FlowControlRTSCTS:  {"-clocal", "crtscts", "-ixon", "-ixoff"},
		FlowControlXONXOFF: {"-clocal", "-crtscts", "ixon", "ixoff"},
	}
)

// stty builds "stty <deviceFlag> <path> args...".
func stty(deviceFlag string, id Identity, args ...string) runner.Command {
	return runner.Command{
		Name: "stty",
		Args: append([]string{deviceFlag, id.Name}, args...),
	}
}

func sttyBaud(deviceFlag string, id Identity, rate int) (runner.Command, error) {
	if !ValidBaudRate(rate) {
		return runner.Command{}, fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
	}
	return stty(deviceFlag, id, strconv.Itoa(rate)), nil
}

func sttyParityCmd(deviceFlag string, id Identity, p Parity) (runner.Command, error) {
	if !p.valid() {
		return runner.Command{}, fmt.Errorf("%w: %s", ErrInvalidParity, p)
	}
	return stty(deviceFlag, id, sttyParity[p]...), nil
}

func sttyCharLength(deviceFlag string, id Identity, n int) runner.Command {
	return stty(deviceFlag, id, "cs"+strconv.Itoa(ClampCharLength(n)))
}

func sttyStopBits(deviceFlag string, id Identity, s StopBits) runner.Command {
	if s == StopBitsOne {
		return stty(deviceFlag, id, "-cstopb")
	}
	return stty(deviceFlag, id, "cstopb")
}

func sttyFlowControlCmd(deviceFlag string, id Identity, f FlowControl) (runner.Command, error) {
	if !f.valid() {
		return runner.Command{}, fmt.Errorf("%w: %s", ErrInvalidFlowControl, f)
	}
	return stty(deviceFlag, id, sttyFlowControl[f]...), nil
}
