package serial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/allbin/go-sttyserial/stream"
)

// State is the lifecycle state of a Device.
type State int

const (
	StateUnset State = iota // no device selected
	StateSet                // device selected and probed, configurable
	StateOpen               // byte stream open, I/O allowed
)

func (s State) String() string {
	switch s {
	case StateUnset:
		return "unset"
	case StateSet:
		return "set"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Device controls one serial device.
//
// Configuration is only possible while the device is set but not open, and
// I/O only while it is open. A Device is not safe for concurrent use.
type Device struct {
	config  Config
	profile platform.Profile
	log     *slog.Logger

	state    State
	identity platform.Identity
	handle   stream.Stream
	guard    *Guard // owner of the current open session

	out       []byte
	autoflush bool
}

// New creates a Device for the host platform (or the one set with
// WithPlatform) and checks that its configuration tool is usable.
func New(ctx context.Context, opts ...Option) (*Device, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	p := config.Platform
	if p == platform.Unknown {
		detected, err := platform.Detect()
		if err != nil {
			return nil, &OpError{Op: "New", Kind: ErrUnsupportedPlatform, Err: fmt.Errorf("host %s", runtime.GOOS)}
		}
		p = detected
	}
	profile, err := platform.ProfileFor(p)
	if err != nil {
		return nil, &OpError{Op: "New", Kind: ErrUnsupportedPlatform, Err: fmt.Errorf("platform %s", p)}
	}

	d := &Device{
		config:    config,
		profile:   profile,
		log:       config.Logger.With("platform", p.String()),
		autoflush: config.Autoflush,
	}

	if cmd, ok := profile.Tool(); ok {
		if _, err := d.run(ctx, cmd); err != nil {
			return nil, &OpError{Op: "New", Kind: ErrToolUnavailable, Err: err}
		}
	}
	return d, nil
}

// State returns the current lifecycle state.
func (d *Device) State() State { return d.state }

// Platform returns the platform the Device was created for.
func (d *Device) Platform() platform.Platform { return d.profile.Platform() }

// Profile returns the platform profile used to build configuration commands.
func (d *Device) Profile() platform.Profile { return d.profile }

// Identity returns the selected device; it is zero while unset.
func (d *Device) Identity() platform.Identity { return d.identity }

// SetDevice selects the device called name. It probes the device with the
// platform's configuration tool and only commits when the probe succeeds.
// On Linux, COMn names map to /dev/ttyS(n-1).
//
// An open device must be closed first. On failure the Device is left exactly
// as it was.
func (d *Device) SetDevice(ctx context.Context, name string) error {
	const op = "SetDevice"
	if d.state == StateOpen {
		return preconditionError(op, "device %s is open, close it before setting another one", d.identity)
	}

	id, err := d.profile.Resolve(name)
	if err != nil {
		return validationError(op, err)
	}

	if _, err := d.apply(ctx, op, d.profile.Probe(id)); err != nil {
		d.log.Warn("serial device probe failed", "device", name, "error", err)
		return err
	}
	if cmd, ok := d.profile.Handshake(id); ok {
		if _, err := d.apply(ctx, op, cmd); err != nil {
			d.log.Warn("serial device handshake failed", "device", name, "error", err)
			return err
		}
	}

	d.identity = id
	d.state = StateSet
	d.log.Debug("serial device set", "device", id.Path)
	return nil
}

// Open opens the byte stream of the selected device. mode is an fopen-style
// access string such as "r", "w+" or "r+b".
//
// The returned Guard closes the device when released; defer its Release
// right after a successful Open. Opening an open device succeeds, opens
// nothing and returns the guard of the current session, so there is a single
// owner per open stream.
func (d *Device) Open(mode string) (*Guard, error) {
	const op = "Open"
	switch d.state {
	case StateOpen:
		d.log.Debug("serial device already open", "device", d.identity.Path)
		return d.guard, nil
	case StateUnset:
		return nil, preconditionError(op, "device must be set before it is opened")
	}

	m, err := stream.ParseMode(mode)
	if err != nil {
		return nil, validationError(op, err)
	}

	h, err := d.config.Opener.Open(d.identity.Path, m)
	if err != nil {
		return nil, ioError(op, err)
	}
	if err := h.SetBlocking(false); err != nil {
		if closeErr := h.Close(); closeErr != nil {
			d.log.Warn("serial device close after failed open failed", "device", d.identity.Path, "error", closeErr)
			err = errors.Join(err, closeErr)
		}
		return nil, ioError(op, err)
	}

	d.handle = h
	d.state = StateOpen
	d.guard = &Guard{device: d}
	d.log.Debug("serial device opened", "device", d.identity.Path, "mode", mode)
	return d.guard, nil
}

// Close closes the byte stream. It is a no-op unless the device is open, so
// it is safe to call repeatedly. If the stream cannot be closed the device
// stays open.
func (d *Device) Close() error {
	if d.state != StateOpen {
		return nil
	}
	if err := d.handle.Close(); err != nil {
		d.log.Error("serial device close failed", "device", d.identity.Path, "error", err)
		return ioError("Close", err)
	}
	d.handle = nil
	d.guard = nil
	d.state = StateSet
	d.log.Debug("serial device closed", "device", d.identity.Path)
	return nil
}

// SetBlocking switches the open stream between blocking and non-blocking
// reads.
func (d *Device) SetBlocking(blocking bool) error {
	const op = "SetBlocking"
	if err := d.requireOpen(op); err != nil {
		return err
	}
	if err := d.handle.SetBlocking(blocking); err != nil {
		return ioError(op, err)
	}
	return nil
}

func (d *Device) requireOpen(op string) error {
	if d.state != StateOpen {
		return preconditionError(op, "device is %s, must be open", d.state)
	}
	return nil
}

func (d *Device) requireSet(op string) error {
	if d.state != StateSet {
		return preconditionError(op, "device is %s, must be set and not open", d.state)
	}
	return nil
}

// apply runs a configuration command and maps any failure to ErrConfigApply.
func (d *Device) apply(ctx context.Context, op string, cmd runner.Command) (runner.Result, error) {
	res, err := d.run(ctx, cmd)
	if err != nil {
		return res, &OpError{Op: op, Kind: ErrConfigApply, Err: err}
	}
	return res, nil
}

// run returns the runner error, or an *ApplyError for a non-zero exit.
func (d *Device) run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	res, err := d.config.Runner.Run(ctx, cmd)
	if err != nil {
		d.log.Debug("configuration command did not run", "command", cmd.String(), "error", err)
		return res, err
	}
	d.log.Debug("configuration command finished", "command", cmd.String(), "exit_code", res.ExitCode)
	if !res.Success() {
		return res, newApplyError(cmd, res)
	}
	return res, nil
}

// Guard owns one open session of a Device. Releasing it closes the device
// once; later calls return the result of the first. A guard whose session
// already ended, because Close was called directly, releases nothing.
type Guard struct {
	device *Device
	once   sync.Once
	err    error
}

// Device returns the guarded device.
func (g *Guard) Device() *Device { return g.device }

// Release closes the device.
func (g *Guard) Release() error {
	g.once.Do(func() {
		if g.device.guard == g {
			g.err = g.device.Close()
		}
	})
	return g.err
}
