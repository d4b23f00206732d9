package serial

import (
	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
)

type (
	Parity      = platform.Parity
	StopBits    = platform.StopBits
	FlowControl = platform.FlowControl
)

const (
	ParityNone = platform.ParityNone
	ParityOdd  = platform.ParityOdd
	ParityEven = platform.ParityEven

	StopBitsOne          = platform.StopBitsOne
	StopBitsOnePointFive = platform.StopBitsOnePointFive
	StopBitsTwo          = platform.StopBitsTwo

	FlowControlNone    = platform.FlowControlNone
	FlowControlRTSCTS  = platform.FlowControlRTSCTS
	FlowControlXONXOFF = platform.FlowControlXONXOFF
)

// Settings is a complete line configuration.
type Settings struct {
	BaudRate    int
	Parity      Parity
	DataBits    int // clamped into [5, 8]
	StopBits    StopBits
	FlowControl FlowControl
}

// DefaultSettings returns 9600 baud, 8N1, no flow control.
func DefaultSettings() Settings {
	return Settings{
		BaudRate:    9600,
		Parity:      ParityNone,
		DataBits:    8,
		StopBits:    StopBitsOne,
		FlowControl: FlowControlNone,
	}
}

// Validate checks every field against profile without running anything.
func (s Settings) Validate(profile platform.Profile) error {
	_, err := s.commands(profile, platform.Identity{Path: "-", Name: "-"})
	return err
}

// commands translates s into the commands that apply it, in application
// order. It fails on the first invalid field.
func (s Settings) commands(profile platform.Profile, id platform.Identity) ([]runner.Command, error) {
	baud, err := profile.Baud(id, s.BaudRate)
	if err != nil {
		return nil, err
	}
	parity, err := profile.Parity(id, s.Parity)
	if err != nil {
		return nil, err
	}
	length := profile.CharLength(id, s.DataBits)
	stop, err := profile.StopBits(id, s.StopBits)
	if err != nil {
		return nil, err
	}
	flow, err := profile.FlowControl(id, s.FlowControl)
	if err != nil {
		return nil, err
	}
	return []runner.Command{baud, parity, length, stop, flow}, nil
}
