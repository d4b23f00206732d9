package serial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
)

// Error kinds. Every error returned by a Device matches exactly one of these
// with errors.Is.
var (
	ErrPrecondition        = errors.New("operation not allowed in current device state")
	ErrValidation          = errors.New("invalid serial configuration")
	ErrConfigApply         = errors.New("configuration command failed")
	ErrIO                  = errors.New("serial i/o error")
	ErrUnsupportedPlatform = platform.ErrUnsupportedPlatform
	ErrToolUnavailable     = errors.New("configuration tool not available")

	ErrInvalidConfig = errors.New("invalid device option")
)

// OpError describes a failed Device operation.
type OpError struct {
	Op   string // method name, e.g. "SetBaudRate"
	Kind error  // one of the Err* kinds above
	Err  error  // underlying cause, may be nil
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ApplyError is the cause of an ErrConfigApply failure when the
// configuration command ran and exited non-zero, or reported a failure in
// its output. Reason is set for the latter.
type ApplyError struct {
	Command  runner.Command
	ExitCode int
	Stderr   string
	Reason   string
}

func newApplyError(cmd runner.Command, res runner.Result) *ApplyError {
	return &ApplyError{
		Command:  cmd,
		ExitCode: res.ExitCode,
		Stderr:   strings.TrimSpace(string(res.Stderr)),
	}
}

func (e *ApplyError) Error() string {
	msg := fmt.Sprintf("%q exited with status %d", e.Command.String(), e.ExitCode)
	if e.Reason != "" {
		msg = fmt.Sprintf("%q: %s", e.Command.String(), e.Reason)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func preconditionError(op string, format string, args ...any) error {
	return &OpError{Op: op, Kind: ErrPrecondition, Err: fmt.Errorf(format, args...)}
}

func validationError(op string, err error) error {
	return &OpError{Op: op, Kind: ErrValidation, Err: err}
}

func ioError(op string, err error) error {
	return &OpError{Op: op, Kind: ErrIO, Err: err}
}
