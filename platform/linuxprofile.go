package platform

import (
	"fmt"
	"strconv"

	"github.com/allbin/go-sttyserial/runner"
)

// LinuxProfile drives GNU stty with "-F <device>".
type LinuxProfile struct{}

var _ Profile = LinuxProfile{}

func (LinuxProfile) sealed() {}

func (LinuxProfile) Platform() Platform { return Linux }

func (LinuxProfile) Tool() (runner.Command, bool) {
	return runner.Command{Name: "stty", Args: []string{"--version"}}, true
}

// Resolve maps COMn names to /dev/ttyS(n-1); other names are used as paths.
func (LinuxProfile) Resolve(name string) (Identity, error) {
	if name == "" {
		return Identity{}, fmt.Errorf("%w: empty name", ErrInvalidDevice)
	}
	if n, ok := comNumber(name); ok {
		name = "/dev/ttyS" + strconv.Itoa(n-1)
	}
	return Identity{Path: name, Name: name}, nil
}

func (LinuxProfile) Probe(id Identity) runner.Command {
	return stty("-F", id)
}

func (LinuxProfile) Handshake(Identity) (runner.Command, bool) {
	return runner.Command{}, false
}

func (LinuxProfile) Baud(id Identity, rate int) (runner.Command, error) {
	return sttyBaud("-F", id, rate)
}

func (LinuxProfile) Parity(id Identity, p Parity) (runner.Command, error) {
	return sttyParityCmd("-F", id, p)
}

func (LinuxProfile) CharLength(id Identity, n int) runner.Command {
	return sttyCharLength("-F", id, n)
}

// StopBits accepts 1.5, which the line discipline rounds to two stop bits
// (cstopb) for character lengths above five.
func (LinuxProfile) StopBits(id Identity, s StopBits) (runner.Command, error) {
	if !s.valid() {
		return runner.Command{}, fmt.Errorf("%w: %s", ErrInvalidStopBits, s)
	}
	return sttyStopBits("-F", id, s), nil
}

func (LinuxProfile) FlowControl(id Identity, f FlowControl) (runner.Command, error) {
	return sttyFlowControlCmd("-F", id, f)
}

// SerialFlag builds "setserial <device> <param> [arg...]".
func (LinuxProfile) SerialFlag(id Identity, param, arg string) (runner.Command, error) {
	args, err := setserialArgs(param, arg)
	if err != nil {
		return runner.Command{}, err
	}
	return runner.Command{
		Name: "setserial",
		Args: append([]string{id.Path}, args...),
	}, nil
}
