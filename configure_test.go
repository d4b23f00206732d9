package serial

import (
	"context"
	"errors"
	"testing"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetBaudRate(t *testing.T) {
	tests := []struct {
		platform platform.Platform
		device   string
		rate     int
		want     string
	}{
		{platform.Linux, "/dev/ttyUSB0", 9600, "stty -F /dev/ttyUSB0 9600"},
		{platform.Linux, "/dev/ttyUSB0", 115200, "stty -F /dev/ttyUSB0 115200"},
		{platform.MacOS, "/dev/cu.usbserial", 57600, "stty -f /dev/cu.usbserial 57600"},
		{platform.Windows, "COM1", 9600, "mode COM1: BAUD=96"},
		{platform.Windows, "COM1", 110, "mode COM1: BAUD=11"},
		{platform.Windows, "COM1", 38400, "mode COM1: BAUD=38400"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, tt.platform)
			h.set(t, tt.device)

			require.NoError(t, h.dev.SetBaudRate(context.Background(), tt.rate))
			assert.Equal(t, []string{tt.want}, h.runner.commands())
		})
	}
}

func TestSetBaudRateRejectsUnknownRate(t *testing.T) {
	for _, p := range []platform.Platform{platform.Linux, platform.MacOS, platform.Windows} {
		h := newHarness(t, p)
		if p == platform.Windows {
			h.set(t, "COM1")
		} else {
			h.set(t, "/dev/ttyS0")
		}

		err := h.dev.SetBaudRate(context.Background(), 1234)
		assert.ErrorIs(t, err, ErrValidation, "%s", p)
		assert.ErrorIs(t, err, platform.ErrInvalidBaudRate, "%s", p)
		assert.Empty(t, h.runner.calls, "%s: nothing may run for a rejected value", p)
	}
}

func TestSetParity(t *testing.T) {
	tests := []struct {
		parity Parity
		want   string
	}{
		{ParityNone, "stty -F /dev/ttyS0 -parenb"},
		{ParityOdd, "stty -F /dev/ttyS0 parenb parodd"},
		{ParityEven, "stty -F /dev/ttyS0 parenb -parodd"},
	}

	for _, tt := range tests {
		t.Run(tt.parity.String(), func(t *testing.T) {
			h := newHarness(t, platform.Linux)
			h.set(t, "/dev/ttyS0")

			require.NoError(t, h.dev.SetParity(context.Background(), tt.parity))
			assert.Equal(t, []string{tt.want}, h.runner.commands())
		})
	}

	h := newHarness(t, platform.Windows)
	h.set(t, "COM2")
	require.NoError(t, h.dev.SetParity(context.Background(), ParityEven))
	assert.Equal(t, []string{"mode COM2: PARITY=e"}, h.runner.commands())

	err := h.dev.SetParity(context.Background(), Parity(42))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSetCharacterLengthClamps(t *testing.T) {
	tests := []struct {
		bits int
		want string
	}{
		{4, "stty -F /dev/ttyS0 cs5"},
		{5, "stty -F /dev/ttyS0 cs5"},
		{7, "stty -F /dev/ttyS0 cs7"},
		{8, "stty -F /dev/ttyS0 cs8"},
		{12, "stty -F /dev/ttyS0 cs8"},
	}

	for _, tt := range tests {
		h := newHarness(t, platform.Linux)
		h.set(t, "/dev/ttyS0")

		require.NoError(t, h.dev.SetCharacterLength(context.Background(), tt.bits))
		assert.Equal(t, []string{tt.want}, h.runner.commands(), "bits=%d", tt.bits)
	}
}

func TestSetStopBits(t *testing.T) {
	tests := []struct {
		name     string
		platform platform.Platform
		device   string
		bits     StopBits
		want     string
		wantErr  bool
	}{
		{"linux one", platform.Linux, "/dev/ttyS0", StopBitsOne, "stty -F /dev/ttyS0 -cstopb", false},
		{"linux one and a half", platform.Linux, "/dev/ttyS0", StopBitsOnePointFive, "stty -F /dev/ttyS0 cstopb", false},
		{"linux two", platform.Linux, "/dev/ttyS0", StopBitsTwo, "stty -F /dev/ttyS0 cstopb", false},
		{"macos two", platform.MacOS, "/dev/cu.usb", StopBitsTwo, "stty -f /dev/cu.usb cstopb", false},
		{"macos one and a half", platform.MacOS, "/dev/cu.usb", StopBitsOnePointFive, "", true},
		{"windows one", platform.Windows, "COM1", StopBitsOne, "mode COM1: STOP=1", false},
		{"windows one and a half", platform.Windows, "COM1", StopBitsOnePointFive, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.platform)
			h.set(t, tt.device)

			err := h.dev.SetStopBits(context.Background(), tt.bits)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.ErrorIs(t, err, platform.ErrInvalidStopBits)
				assert.Empty(t, h.runner.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, h.runner.commands())
		})
	}
}

func TestSetFlowControl(t *testing.T) {
	tests := []struct {
		platform platform.Platform
		device   string
		flow     FlowControl
		want     string
	}{
		{platform.Linux, "/dev/ttyS0", FlowControlNone, "stty -F /dev/ttyS0 clocal -crtscts -ixon -ixoff"},
		{platform.Linux, "/dev/ttyS0", FlowControlRTSCTS, "stty -F /dev/ttyS0 -clocal crtscts -ixon -ixoff"},
		{platform.Linux, "/dev/ttyS0", FlowControlXONXOFF, "stty -F /dev/ttyS0 -clocal -crtscts ixon ixoff"},
		{platform.Windows, "COM1", FlowControlNone, "mode COM1: xon=off octs=off rts=on"},
		{platform.Windows, "COM1", FlowControlRTSCTS, "mode COM1: xon=off octs=on rts=hs"},
		{platform.Windows, "COM1", FlowControlXONXOFF, "mode COM1: xon=on octs=off rts=on"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, tt.platform)
			h.set(t, tt.device)

			require.NoError(t, h.dev.SetFlowControl(context.Background(), tt.flow))
			assert.Equal(t, []string{tt.want}, h.runner.commands())
		})
	}
}

func TestSetFlowControlRejectsUnknown(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyS0")

	err := h.dev.SetFlowControl(context.Background(), FlowControl(7))
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, platform.ErrInvalidFlowControl)
	assert.Empty(t, h.runner.calls)
}

func TestConfigurationRequiresSetDevice(t *testing.T) {
	ctx := context.Background()
	ops := map[string]func(*Device) error{
		"SetBaudRate":        func(d *Device) error { return d.SetBaudRate(ctx, 9600) },
		"SetParity":          func(d *Device) error { return d.SetParity(ctx, ParityNone) },
		"SetCharacterLength": func(d *Device) error { return d.SetCharacterLength(ctx, 8) },
		"SetStopBits":        func(d *Device) error { return d.SetStopBits(ctx, StopBitsOne) },
		"SetFlowControl":     func(d *Device) error { return d.SetFlowControl(ctx, FlowControlNone) },
		"Configure":          func(d *Device) error { return d.Configure(ctx, DefaultSettings()) },
	}

	for name, op := range ops {
		t.Run(name+"/unset", func(t *testing.T) {
			h := newHarness(t, platform.Linux)
			err := op(h.dev)
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Empty(t, h.runner.calls)
		})

		t.Run(name+"/open", func(t *testing.T) {
			h := newHarness(t, platform.Linux)
			h.open(t, "/dev/ttyUSB0")
			err := op(h.dev)
			assert.ErrorIs(t, err, ErrPrecondition)
			assert.Empty(t, h.runner.calls)
			assert.Equal(t, StateOpen, h.dev.State())
		})
	}
}

func TestConfigApplyFailureCarriesStderr(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")
	h.runner.fail("stty -F /dev/ttyUSB0 460800", 1, "stty: /dev/ttyUSB0: unable to perform all requested operations\n")

	err := h.dev.SetBaudRate(context.Background(), 460800)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigApply)
	assert.NotErrorIs(t, err, ErrValidation)

	var applyErr *ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, 1, applyErr.ExitCode)
	assert.Equal(t, "stty: /dev/ttyUSB0: unable to perform all requested operations", applyErr.Stderr)
	assert.Equal(t, StateSet, h.dev.State())
}

func TestConfigure(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")

	s := Settings{
		BaudRate:    115200,
		Parity:      ParityEven,
		DataBits:    7,
		StopBits:    StopBitsTwo,
		FlowControl: FlowControlRTSCTS,
	}
	require.NoError(t, h.dev.Configure(context.Background(), s))
	assert.Equal(t, []string{
		"stty -F /dev/ttyUSB0 115200",
		"stty -F /dev/ttyUSB0 parenb -parodd",
		"stty -F /dev/ttyUSB0 cs7",
		"stty -F /dev/ttyUSB0 cstopb",
		"stty -F /dev/ttyUSB0 -clocal crtscts -ixon -ixoff",
	}, h.runner.commands())
}

func TestConfigureValidatesEverythingFirst(t *testing.T) {
	h := newHarness(t, platform.Windows)
	h.set(t, "COM1")

	s := DefaultSettings()
	s.StopBits = StopBitsOnePointFive

	err := h.dev.Configure(context.Background(), s)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, h.runner.calls)
}

func TestConfigureStopsAtFirstFailure(t *testing.T) {
	h := newHarness(t, platform.Windows)
	h.set(t, "COM1")
	h.runner.fail("mode COM1: PARITY=n", 1, "Invalid parameter - PARITY=n")

	err := h.dev.Configure(context.Background(), DefaultSettings())
	assert.ErrorIs(t, err, ErrConfigApply)
	assert.Equal(t, []string{"mode COM1: BAUD=96", "mode COM1: PARITY=n"}, h.runner.commands())
}

func TestSettingsValidate(t *testing.T) {
	linux, err := platform.ProfileFor(platform.Linux)
	require.NoError(t, err)
	mac, err := platform.ProfileFor(platform.MacOS)
	require.NoError(t, err)

	assert.NoError(t, DefaultSettings().Validate(linux))

	s := DefaultSettings()
	s.StopBits = StopBitsOnePointFive
	assert.NoError(t, s.Validate(linux))
	assert.ErrorIs(t, s.Validate(mac), platform.ErrInvalidStopBits)

	s = DefaultSettings()
	s.BaudRate = 0
	assert.ErrorIs(t, s.Validate(linux), platform.ErrInvalidBaudRate)
}

func TestSetSerialFlag(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyS0")

	require.NoError(t, h.dev.SetSerialFlag(context.Background(), "spd_hi", ""))
	require.NoError(t, h.dev.SetSerialFlag(context.Background(), "uart", "16550A"))
	assert.Equal(t, []string{
		"setserial /dev/ttyS0 spd_hi",
		"setserial /dev/ttyS0 uart 16550A",
	}, h.runner.commands())
	assert.Equal(t, StateOpen, h.dev.State())
}

func TestSetSerialFlagRequiresOpen(t *testing.T) {
	h := newHarness(t, platform.Linux)
	assert.ErrorIs(t, h.dev.SetSerialFlag(context.Background(), "spd_hi", ""), ErrPrecondition)

	h.set(t, "/dev/ttyS0")
	assert.ErrorIs(t, h.dev.SetSerialFlag(context.Background(), "spd_hi", ""), ErrPrecondition)
	assert.Empty(t, h.runner.calls)
}

func TestSetSerialFlagUnsupportedPlatform(t *testing.T) {
	for _, tt := range []struct {
		platform platform.Platform
		device   string
	}{
		{platform.MacOS, "/dev/cu.usbserial"},
		{platform.Windows, "COM1"},
	} {
		h := newHarness(t, tt.platform)
		h.open(t, tt.device)

		err := h.dev.SetSerialFlag(context.Background(), "spd_hi", "")
		assert.ErrorIs(t, err, ErrValidation, "%s", tt.platform)
		assert.ErrorIs(t, err, platform.ErrUnsupported, "%s", tt.platform)
		assert.Empty(t, h.runner.calls, "%s", tt.platform)
	}
}

func TestSetSerialFlagRejectsBadParam(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyS0")

	err := h.dev.SetSerialFlag(context.Background(), "", "4")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, platform.ErrInvalidSerialFlag)
	assert.Empty(t, h.runner.calls)
}

func TestSetSerialFlagOutputFailures(t *testing.T) {
	tests := []struct {
		name   string
		result runner.Result
		reason string
		line   string
	}{
		{
			name:   "invalid flag on stdout",
			result: runner.Result{Stdout: []byte("Invalid flag: bogus\n")},
			reason: "invalid flag",
			line:   "Invalid flag: bogus",
		},
		{
			name:   "device file error on stderr",
			result: runner.Result{Stderr: []byte("/dev/ttyS0: Permission denied\n")},
			reason: "error with device file",
			line:   "/dev/ttyS0: Permission denied",
		},
		{
			name:   "last line decides",
			result: runner.Result{Stdout: []byte("Usage: setserial ...\n"), Stderr: []byte("Invalid flag\n")},
			reason: "invalid flag",
			line:   "Invalid flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, platform.Linux)
			h.open(t, "/dev/ttyS0")
			h.runner.results["setserial /dev/ttyS0 bogus"] = tt.result

			err := h.dev.SetSerialFlag(context.Background(), "bogus", "")
			assert.ErrorIs(t, err, ErrConfigApply)

			var applyErr *ApplyError
			require.True(t, errors.As(err, &applyErr))
			assert.Equal(t, tt.reason, applyErr.Reason)
			assert.Equal(t, tt.line, applyErr.Stderr)
			assert.Contains(t, err.Error(), tt.reason)
			assert.Equal(t, StateOpen, h.dev.State())
		})
	}
}

func TestSetSerialFlagIgnoresOtherOutput(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyS0")
	h.runner.results["setserial /dev/ttyS0 uart 16550A"] = runner.Result{
		Stdout: []byte("Cannot get serial info\nok\n"),
	}

	assert.NoError(t, h.dev.SetSerialFlag(context.Background(), "uart", "16550A"))
}

func TestSetSerialFlagNonZeroExit(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyS0")
	h.runner.fail("setserial /dev/ttyS0 spd_hi", 1, "Cannot set serial info: Operation not permitted")

	err := h.dev.SetSerialFlag(context.Background(), "spd_hi", "")
	assert.ErrorIs(t, err, ErrConfigApply)

	var applyErr *ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, 1, applyErr.ExitCode)
	assert.Empty(t, applyErr.Reason)
}
