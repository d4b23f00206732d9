package platform

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validation errors. A profile returns one of these, wrapped with the
// offending value, before producing any command.
var (
	ErrInvalidBaudRate    = errors.New("invalid baud rate")
	ErrInvalidParity      = errors.New("invalid parity")
	ErrInvalidStopBits    = errors.New("invalid stop bits")
	ErrInvalidFlowControl = errors.New("invalid flow control")
	ErrInvalidDevice      = errors.New("invalid device name")
	ErrInvalidSerialFlag  = errors.New("invalid setserial flag")
	ErrUnsupported        = errors.New("not supported on this platform")
)

// Parity represents the parity mode
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("parity(%d)", int(p))
	}
}

func (p Parity) valid() bool {
	return p >= ParityNone && p <= ParityEven
}

// ParseParity accepts "none", "odd" and "even" (any case).
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidParity, s)
	}
}

// StopBits represents the stop bit length
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	default:
		return fmt.Sprintf("stopbits(%d)", int(s))
	}
}

func (s StopBits) valid() bool {
	return s >= StopBitsOne && s <= StopBitsTwo
}

// ParseStopBits accepts "1", "1.5" and "2".
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return StopBitsOne, nil
	case "1.5":
		return StopBitsOnePointFive, nil
	case "2":
		return StopBitsTwo, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStopBits, s)
	}
}

// FlowControl represents the flow control mode
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
	FlowControlXONXOFF
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlRTSCTS:
		return "rts/cts"
	case FlowControlXONXOFF:
		return "xon/xoff"
	default:
		return fmt.Sprintf("flowcontrol(%d)", int(f))
	}
}

func (f FlowControl) valid() bool {
	return f >= FlowControlNone && f <= FlowControlXONXOFF
}

// ParseFlowControl accepts "none", "rts/cts" and "xon/xoff". The
// separator-free spellings "rtscts" and "xonxoff" are accepted too.
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return FlowControlNone, nil
	case "rts/cts", "rtscts":
		return FlowControlRTSCTS, nil
	case "xon/xoff", "xonxoff":
		return FlowControlXONXOFF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFlowControl, s)
	}
}

var baudRates = []int{
	110, 150, 300, 600, 1200, 2400, 4800, 9600, 19200,
	38400, 57600, 115200, 230400, 460800, 500000, 576000, 921600,
	1000000, 1152000, 1500000, 2000000, 2500000, 3000000, 3500000, 4000000,
}

// BaudRates returns the accepted baud rates in ascending order.
func BaudRates() []int {
	return slices.Clone(baudRates)
}

// ValidBaudRate reports whether rate is one of BaudRates.
func ValidBaudRate(rate int) bool {
	_, found := slices.BinarySearch(baudRates, rate)
	return found
}

// Character length bounds.
const (
	MinCharLength = 5
	MaxCharLength = 8
)

// ClampCharLength forces n into [MinCharLength, MaxCharLength].
func ClampCharLength(n int) int {
	return min(max(n, MinCharLength), MaxCharLength)
}
