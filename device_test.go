package serial

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/allbin/go-sttyserial/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownPlatform(t *testing.T) {
	_, err := New(context.Background(), WithPlatform(platform.Unknown))
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestNewChecksToolOnLinux(t *testing.T) {
	r := newFakeRunner()
	_, err := New(context.Background(), WithPlatform(platform.Linux), WithRunner(r))
	require.NoError(t, err)
	assert.Equal(t, []string{"stty --version"}, r.commands())
}

func TestNewFailsWhenToolMissing(t *testing.T) {
	r := newFakeRunner()
	r.errs["stty --version"] = &runner.SpawnError{Command: runner.Command{Name: "stty"}, Err: errors.New("executable file not found in $PATH")}

	dev, err := New(context.Background(), WithPlatform(platform.Linux), WithRunner(r))
	assert.Nil(t, dev)
	assert.ErrorIs(t, err, ErrToolUnavailable)

	var spawnErr *runner.SpawnError
	assert.True(t, errors.As(err, &spawnErr))
}

func TestNewFailsWhenToolExitsNonZero(t *testing.T) {
	r := newFakeRunner()
	r.fail("stty --version", 1, "stty: invalid option")

	_, err := New(context.Background(), WithPlatform(platform.Linux), WithRunner(r))
	assert.ErrorIs(t, err, ErrToolUnavailable)

	var applyErr *ApplyError
	require.True(t, errors.As(err, &applyErr))
	assert.Equal(t, "stty: invalid option", applyErr.Stderr)
}

func TestNewSkipsToolCheckWithoutCheck(t *testing.T) {
	for _, p := range []platform.Platform{platform.MacOS, platform.Windows} {
		r := newFakeRunner()
		dev, err := New(context.Background(), WithPlatform(p), WithRunner(r))
		require.NoError(t, err)
		assert.Empty(t, r.calls)
		assert.Equal(t, p, dev.Platform())
		assert.Equal(t, StateUnset, dev.State())
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(context.Background(), WithRunner(nil))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(context.Background(), WithBlockSize(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSetDevice(t *testing.T) {
	tests := []struct {
		name     string
		platform platform.Platform
		input    string
		wantPath string
		wantCmds []string
	}{
		{"linux path", platform.Linux, "/dev/ttyUSB0", "/dev/ttyUSB0", []string{"stty -F /dev/ttyUSB0"}},
		{"linux COM2", platform.Linux, "COM2", "/dev/ttyS1", []string{"stty -F /dev/ttyS1"}},
		{"macos", platform.MacOS, "/dev/cu.usbserial", "/dev/cu.usbserial", []string{"stty -f /dev/cu.usbserial"}},
		{"windows", platform.Windows, "COM3", `\\.\COM3`, []string{"mode COM3:", "mode COM3: xon=on BAUD=9600"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.platform)
			require.NoError(t, h.dev.SetDevice(context.Background(), tt.input))
			assert.Equal(t, StateSet, h.dev.State())
			assert.Equal(t, tt.wantPath, h.dev.Identity().Path)
			assert.Equal(t, tt.wantCmds, h.runner.commands())
		})
	}
}

func TestSetDeviceProbeFailureLeavesUnset(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.runner.fail("stty -F /dev/ttyUSB9", 1, "stty: /dev/ttyUSB9: No such file or directory\n")

	err := h.dev.SetDevice(context.Background(), "/dev/ttyUSB9")
	assert.ErrorIs(t, err, ErrConfigApply)
	assert.Contains(t, err.Error(), "No such file or directory")
	assert.Equal(t, StateUnset, h.dev.State())
	assert.True(t, h.dev.Identity().IsZero())
}

func TestSetDeviceWindowsHandshakeFailure(t *testing.T) {
	h := newHarness(t, platform.Windows)
	h.runner.fail("mode COM4: xon=on BAUD=9600", 1, "Illegal device name - COM4")

	err := h.dev.SetDevice(context.Background(), "COM4")
	assert.ErrorIs(t, err, ErrConfigApply)
	assert.Equal(t, StateUnset, h.dev.State())
	assert.Len(t, h.runner.calls, 2)
}

func TestSetDeviceInvalidNameRunsNothing(t *testing.T) {
	h := newHarness(t, platform.Windows)

	err := h.dev.SetDevice(context.Background(), "/dev/ttyS0")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, h.runner.calls)
	assert.Equal(t, StateUnset, h.dev.State())
}

func TestSetDeviceRetargetWhileSet(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")

	require.NoError(t, h.dev.SetDevice(context.Background(), "/dev/ttyUSB1"))
	assert.Equal(t, StateSet, h.dev.State())
	assert.Equal(t, "/dev/ttyUSB1", h.dev.Identity().Path)
}

func TestSetDeviceFailedRetargetKeepsPreviousDevice(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")
	h.runner.fail("stty -F /dev/ttyUSB7", 1, "stty: /dev/ttyUSB7: No such device")

	err := h.dev.SetDevice(context.Background(), "/dev/ttyUSB7")
	assert.ErrorIs(t, err, ErrConfigApply)
	assert.Equal(t, StateSet, h.dev.State())
	assert.Equal(t, "/dev/ttyUSB0", h.dev.Identity().Path)
}

func TestSetDeviceWhileOpenFails(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyUSB0")
	h.runner.calls = nil

	err := h.dev.SetDevice(context.Background(), "/dev/ttyUSB1")
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Empty(t, h.runner.calls)
	assert.Equal(t, StateOpen, h.dev.State())
	assert.Equal(t, "/dev/ttyUSB0", h.dev.Identity().Path)
}

func TestOpenBeforeSet(t *testing.T) {
	h := newHarness(t, platform.Linux)

	g, err := h.dev.Open("r+b")
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 0, h.opener.opens)
}

func TestOpenInvalidMode(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")

	for _, mode := range []string{"", "x", "rw", "r+b+"} {
		_, err := h.dev.Open(mode)
		assert.ErrorIs(t, err, ErrValidation, "mode %q", mode)
		assert.ErrorIs(t, err, stream.ErrInvalidMode, "mode %q", mode)
	}
	assert.Equal(t, 0, h.opener.opens)
	assert.Equal(t, StateSet, h.dev.State())
}

func TestOpenFailureKeepsSet(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")
	h.opener.err = errors.New("permission denied")

	_, err := h.dev.Open("r+")
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, StateSet, h.dev.State())
}

func TestOpen(t *testing.T) {
	h := newHarness(t, platform.Windows)
	h.set(t, "COM5")

	g, err := h.dev.Open("r+b")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Same(t, h.dev, g.Device())
	assert.Equal(t, StateOpen, h.dev.State())
	assert.Equal(t, `\\.\COM5`, h.opener.path)
	assert.Equal(t, stream.Mode{Access: stream.ReadWrite, Binary: true}, h.opener.mode)
	assert.Equal(t, []bool{false}, h.stream.modes, "stream must be switched to non-blocking")
}

func TestOpenTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t, platform.Linux)
	first := h.open(t, "/dev/ttyUSB0")

	g, err := h.dev.Open("r")
	require.NoError(t, err)
	assert.Same(t, first, g, "an open device has a single guard")
	assert.Equal(t, 1, h.opener.opens)
	assert.Equal(t, StateOpen, h.dev.State())

	require.NoError(t, g.Release())
	require.NoError(t, first.Release())
	assert.Equal(t, 1, h.stream.closes)
	assert.Equal(t, StateSet, h.dev.State())
}

func TestStaleGuardDoesNotCloseNewSession(t *testing.T) {
	h := newHarness(t, platform.Linux)
	stale := h.open(t, "/dev/ttyUSB0")
	require.NoError(t, h.dev.Close())

	h.stream = &fakeStream{}
	h.opener.stream = h.stream
	current, err := h.dev.Open("r+b")
	require.NoError(t, err)
	assert.NotSame(t, stale, current)

	require.NoError(t, stale.Release())
	assert.Equal(t, StateOpen, h.dev.State())
	assert.Zero(t, h.stream.closes)

	require.NoError(t, current.Release())
	assert.Equal(t, StateSet, h.dev.State())
	assert.Equal(t, 1, h.stream.closes)
}

func TestOpenNonBlockingFailureClosesStream(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")
	blockErr := errors.New("inappropriate ioctl for device")
	closeErr := errors.New("bad file descriptor")
	h.stream.blockErr = blockErr
	h.stream.closeErr = closeErr

	g, err := h.dev.Open("r+b")
	assert.Nil(t, g)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, blockErr)
	assert.ErrorIs(t, err, closeErr)
	assert.Equal(t, 1, h.stream.closes)
	assert.Equal(t, StateSet, h.dev.State())

	h.stream.closeErr = nil
	_, err = h.dev.Open("r+b")
	assert.ErrorIs(t, err, blockErr)
	assert.NotErrorIs(t, err, closeErr)
	assert.Equal(t, 2, h.stream.closes)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t, platform.Linux)
	assert.NoError(t, h.dev.Close(), "close before set")

	h.open(t, "/dev/ttyUSB0")
	assert.NoError(t, h.dev.Close())
	assert.NoError(t, h.dev.Close())
	assert.Equal(t, 1, h.stream.closes)
	assert.Equal(t, StateSet, h.dev.State())
	assert.Equal(t, "/dev/ttyUSB0", h.dev.Identity().Path)
}

func TestCloseFailureKeepsOpen(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyUSB0")
	h.stream.closeErr = errors.New("input/output error")

	err := h.dev.Close()
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, StateOpen, h.dev.State())

	h.stream.closeErr = nil
	assert.NoError(t, h.dev.Close())
	assert.Equal(t, StateSet, h.dev.State())
}

func TestReopenAfterClose(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.open(t, "/dev/ttyUSB0")
	require.NoError(t, h.dev.Close())

	h.stream = &fakeStream{}
	h.opener.stream = h.stream
	_, err := h.dev.Open("r+")
	require.NoError(t, err)
	assert.Equal(t, 2, h.opener.opens)
}

func TestGuardReleasesOnce(t *testing.T) {
	h := newHarness(t, platform.Linux)
	g := h.open(t, "/dev/ttyUSB0")

	require.NoError(t, g.Release())
	require.NoError(t, g.Release())
	assert.Equal(t, 1, h.stream.closes)
	assert.Equal(t, StateSet, h.dev.State())
}

func TestGuardReleaseOnEarlyReturn(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")

	work := func() error {
		g, err := h.dev.Open("r+b")
		if err != nil {
			return err
		}
		defer g.Release()
		return errors.New("peer did not answer")
	}

	assert.Error(t, work())
	assert.Equal(t, StateSet, h.dev.State())
	assert.True(t, h.stream.closed)
}

func TestGuardReleaseOnPanic(t *testing.T) {
	h := newHarness(t, platform.Linux)
	h.set(t, "/dev/ttyUSB0")

	func() {
		defer func() { recover() }()
		g, err := h.dev.Open("r+b")
		require.NoError(t, err)
		defer g.Release()
		panic("boom")
	}()

	assert.Equal(t, StateSet, h.dev.State())
}

func TestSetBlockingRequiresOpen(t *testing.T) {
	h := newHarness(t, platform.Linux)
	assert.ErrorIs(t, h.dev.SetBlocking(true), ErrPrecondition)

	h.open(t, "/dev/ttyUSB0")
	require.NoError(t, h.dev.SetBlocking(true))
	assert.True(t, h.stream.blocking)
}

func TestOpErrorMessage(t *testing.T) {
	err := &OpError{Op: "SetBaudRate", Kind: ErrValidation, Err: errors.New("invalid baud rate: 1234")}
	assert.Equal(t, "SetBaudRate: invalid serial configuration: invalid baud rate: 1234", err.Error())

	err = &OpError{Op: "Close", Kind: ErrIO}
	assert.Equal(t, "Close: serial i/o error", err.Error())
	assert.ErrorIs(t, err, ErrIO)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unset", StateUnset.String())
	assert.Equal(t, "set", StateSet.String())
	assert.Equal(t, "open", StateOpen.String())
}

func TestWithLoggerNilDiscards(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, WithLogger(nil)(&config))
	assert.NotNil(t, config.Logger)
	assert.False(t, config.Logger.Enabled(context.Background(), slog.LevelError))
}
