package serial

import (
	"bytes"
	"context"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
)

// The configuration methods below require a set, unopened device. Each one
// validates its value before anything runs: an invalid value fails with
// ErrValidation and no command is started. A command that runs and exits
// non-zero fails with ErrConfigApply and an *ApplyError holding its stderr.

// SetBaudRate sets the line speed. rate must be one of platform.BaudRates.
func (d *Device) SetBaudRate(ctx context.Context, rate int) error {
	return d.configure(ctx, "SetBaudRate", func(id platform.Identity) (runner.Command, error) {
		return d.profile.Baud(id, rate)
	})
}

// SetParity sets the parity mode.
func (d *Device) SetParity(ctx context.Context, parity Parity) error {
	return d.configure(ctx, "SetParity", func(id platform.Identity) (runner.Command, error) {
		return d.profile.Parity(id, parity)
	})
}

// SetCharacterLength sets the number of data bits. Values outside [5, 8]
// are clamped rather than rejected.
func (d *Device) SetCharacterLength(ctx context.Context, bits int) error {
	return d.configure(ctx, "SetCharacterLength", func(id platform.Identity) (runner.Command, error) {
		return d.profile.CharLength(id, bits), nil
	})
}

// SetStopBits sets the stop bit length. 1.5 is only accepted on Linux.
func (d *Device) SetStopBits(ctx context.Context, bits StopBits) error {
	return d.configure(ctx, "SetStopBits", func(id platform.Identity) (runner.Command, error) {
		return d.profile.StopBits(id, bits)
	})
}

// SetFlowControl sets the handshake scheme.
func (d *Device) SetFlowControl(ctx context.Context, flow FlowControl) error {
	return d.configure(ctx, "SetFlowControl", func(id platform.Identity) (runner.Command, error) {
		return d.profile.FlowControl(id, flow)
	})
}

// Configure applies every field of s: baud rate, parity, character length,
// stop bits and flow control, in that order. All fields are validated
// before the first command runs; application stops at the first failure.
func (d *Device) Configure(ctx context.Context, s Settings) error {
	const op = "Configure"
	if err := d.requireSet(op); err != nil {
		return err
	}

	cmds, err := s.commands(d.profile, d.identity)
	if err != nil {
		return validationError(op, err)
	}
	for _, cmd := range cmds {
		if _, err := d.apply(ctx, op, cmd); err != nil {
			return err
		}
	}
	d.log.Debug("serial device configured", "device", d.identity.Path,
		"baud", s.BaudRate, "parity", s.Parity.String(), "data_bits", platform.ClampCharLength(s.DataBits),
		"stop_bits", s.StopBits.String(), "flow_control", s.FlowControl.String())
	return nil
}

// SetSerialFlag sets a low-level driver parameter with setserial, for
// example SetSerialFlag(ctx, "uart", "16550A") or SetSerialFlag(ctx,
// "spd_hi", ""). Unlike the line settings it needs an open device. arg may
// hold several whitespace separated words.
//
// setserial often exits 0 on failure, so its last output line is checked
// too: a line starting with "I" is an invalid flag and one starting with
// "/" is a device file error. Both fail with ErrConfigApply.
//
// Only Linux has setserial; other platforms fail with ErrValidation.
func (d *Device) SetSerialFlag(ctx context.Context, param, arg string) error {
	const op = "SetSerialFlag"
	if err := d.requireOpen(op); err != nil {
		return err
	}

	cmd, err := d.profile.SerialFlag(d.identity, param, arg)
	if err != nil {
		return validationError(op, err)
	}
	res, err := d.apply(ctx, op, cmd)
	if err != nil {
		return err
	}
	if err := setserialFailure(cmd, res); err != nil {
		d.log.Warn("setserial failed", "device", d.identity.Path, "command", cmd.String(), "output", err.Stderr)
		return &OpError{Op: op, Kind: ErrConfigApply, Err: err}
	}
	return nil
}

// setserialFailure inspects the last line setserial printed on either
// stream.
func setserialFailure(cmd runner.Command, res runner.Result) *ApplyError {
	output := bytes.TrimSpace(append(append(bytes.Clone(res.Stdout), '\n'), res.Stderr...))
	if i := bytes.LastIndexByte(output, '\n'); i >= 0 {
		output = bytes.TrimSpace(output[i+1:])
	}
	if len(output) == 0 {
		return nil
	}

	var reason string
	switch output[0] {
	case 'I':
		reason = "invalid flag"
	case '/':
		reason = "error with device file"
	default:
		return nil
	}
	return &ApplyError{
		Command:  cmd,
		ExitCode: res.ExitCode,
		Stderr:   string(output),
		Reason:   reason,
	}
}

func (d *Device) configure(ctx context.Context, op string, build func(platform.Identity) (runner.Command, error)) error {
	if err := d.requireSet(op); err != nil {
		return err
	}
	cmd, err := build(d.identity)
	if err != nil {
		return validationError(op, err)
	}
	_, err = d.apply(ctx, op, cmd)
	return err
}
