package platform

import (
	"fmt"
	"strconv"

	"github.com/allbin/go-sttyserial/runner"
)

// WindowsProfile drives "mode COMn: ..." and only accepts COMn names.
type WindowsProfile struct{}

var _ Profile = WindowsProfile{}

// Low rates are passed to mode as a short code. Rates from 38400 upwards go
// through unchanged. The codes between 110 and 19200 are kept as the tool
// has historically been driven; they are not verified against hardware.
var windowsBaudCodes = map[int]int{
	110:   11,
	150:   15,
	300:   30,
	600:   60,
	1200:  12,
	2400:  24,
	4800:  48,
	9600:  96,
	19200: 19,
}

var (
	windowsParity = map[Parity]string{
		ParityNone: "n",
		ParityOdd:  "o",
		ParityEven: "e",
	}

	windowsFlowControl = map[FlowControl][]string{
		FlowControlNone:    {"xon=off", "octs=off", "rts=on"},
		FlowControlRTSCTS:  {"xon=off", "octs=on", "rts=hs"},
		FlowControlXONXOFF: {"xon=on", "octs=off", "rts=on"},
	}
)

func (WindowsProfile) sealed() {}

func (WindowsProfile) Platform() Platform { return Windows }

func (WindowsProfile) Tool() (runner.Command, bool) {
	return runner.Command{}, false
}

// Resolve accepts "COMn" or "COMn:". The stream opens \\.\COMn, which also
// works for ports above COM9.
func (WindowsProfile) Resolve(name string) (Identity, error) {
	n, ok := comNumber(name)
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q is not a COM port", ErrInvalidDevice, name)
	}
	port := "COM" + strconv.Itoa(n)
	return Identity{Path: `\\.\` + port, Name: port + ":"}, nil
}

// Probe queries the port status; mode fails for ports that do not exist.
func (WindowsProfile) Probe(id Identity) runner.Command {
	return mode(id)
}

// Handshake opens the port with software flow control at 9600 baud.
func (WindowsProfile) Handshake(id Identity) (runner.Command, bool) {
	return mode(id, "xon=on", "BAUD=9600"), true
}

func (WindowsProfile) Baud(id Identity, rate int) (runner.Command, error) {
	if !ValidBaudRate(rate) {
		return runner.Command{}, fmt.Errorf("%w: %d", ErrInvalidBaudRate, rate)
	}
	code, ok := windowsBaudCodes[rate]
	if !ok {
		code = rate
	}
	return mode(id, "BAUD="+strconv.Itoa(code)), nil
}

func (WindowsProfile) Parity(id Identity, p Parity) (runner.Command, error) {
	if !p.valid() {
		return runner.Command{}, fmt.Errorf("%w: %s", ErrInvalidParity, p)
	}
	return mode(id, "PARITY="+windowsParity[p]), nil
}

func (WindowsProfile) CharLength(id Identity, n int) runner.Command {
	return mode(id, "DATA="+strconv.Itoa(ClampCharLength(n)))
}

func (WindowsProfile) StopBits(id Identity, s StopBits) (runner.Command, error) {
	switch s {
	case StopBitsOne:
		return mode(id, "STOP=1"), nil
	case StopBitsTwo:
		return mode(id, "STOP=2"), nil
	default:
		return runner.Command{}, fmt.Errorf("%w: %s not supported on %s", ErrInvalidStopBits, s, Windows)
	}
}

func (WindowsProfile) FlowControl(id Identity, f FlowControl) (runner.Command, error) {
	if !f.valid() {
		return runner.Command{}, fmt.Errorf("%w: %s", ErrInvalidFlowControl, f)
	}
	return mode(id, windowsFlowControl[f]...), nil
}

func mode(id Identity, args ...string) runner.Command {
	return runner.Command{
		Name: "mode",
		Args: append([]string{id.Name}, args...),
	}
}

func (WindowsProfile) SerialFlag(Identity, string, string) (runner.Command, error) {
	return runner.Command{}, fmt.Errorf("%w: setserial on %s", ErrUnsupported, Windows)
}
