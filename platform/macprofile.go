package platform

import (
	"fmt"

	"github.com/allbin/go-sttyserial/runner"
)

// MacProfile drives BSD stty with "-f <device>".
type MacProfile struct{}

var _ Profile = MacProfile{}

func (MacProfile) sealed() {}

func (MacProfile) Platform() Platform { return MacOS }

// Tool reports no check: BSD stty exits non-zero without a terminal on
// stdin, which is always the case for a captured child.
func (MacProfile) Tool() (runner.Command, bool) {
	return runner.Command{}, false
}

func (MacProfile) Resolve(name string) (Identity, error) {
	if name == "" {
		return Identity{}, fmt.Errorf("%w: empty name", ErrInvalidDevice)
	}
	return Identity{Path: name, Name: name}, nil
}

func (MacProfile) Probe(id Identity) runner.Command {
	return stty("-f", id)
}

func (MacProfile) Handshake(Identity) (runner.Command, bool) {
	return runner.Command{}, false
}

func (MacProfile) Baud(id Identity, rate int) (runner.Command, error) {
	return sttyBaud("-f", id, rate)
}

func (MacProfile) Parity(id Identity, p Parity) (runner.Command, error) {
	return sttyParityCmd("-f", id, p)
}

func (MacProfile) CharLength(id Identity, n int) runner.Command {
	return sttyCharLength("-f", id, n)
}

func (MacProfile) StopBits(id Identity, s StopBits) (runner.Command, error) {
	if s != StopBitsOne && s != StopBitsTwo {
		return runner.Command{}, fmt.Errorf("%w: %s not supported on %s", ErrInvalidStopBits, s, MacOS)
	}
	return sttyStopBits("-f", id, s), nil
}

func (MacProfile) FlowControl(id Identity, f FlowControl) (runner.Command, error) {
	return sttyFlowControlCmd("-f", id, f)
}

func (MacProfile) SerialFlag(Identity, string, string) (runner.Command, error) {
	return runner.Command{}, fmt.Errorf("%w: setserial on %s", ErrUnsupported, MacOS)
}
