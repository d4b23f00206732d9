// Package runner executes the external line-discipline tools (stty, mode)
// that configure a serial device.
//
// It is the only place in this module that spawns processes. Commands are
// argv slices, never shell strings.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command is an executable name plus its arguments.
type Command struct {
	Name string
	Args []string
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the outcome of a command that was started.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Success reports whether the command exited with status 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner runs a command to completion and captures its output.
//
// A non-zero exit status is not an error: it is reported through
// Result.ExitCode. An error means the command could not be run at all.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

// Run calls f(ctx, cmd).
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// SpawnError is returned when a command could not be started.
type SpawnError struct {
	Command Command
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command.String(), e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Exec runs commands as child processes.
type Exec struct {
	// Env, when non-nil, replaces the child environment.
	Env []string
}

var _ Runner = Exec{}

// Run starts cmd, waits for it to exit and returns its captured output.
// Stdout and stderr are drained concurrently by os/exec, so a child that
// fills either pipe before exiting cannot deadlock the call.
func (e Exec) Run(ctx context.Context, cmd Command) (Result, error) {
	if cmd.Name == "" {
		return Result{ExitCode: -1}, &SpawnError{Command: cmd, Err: errors.New("empty command")}
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if e.Env != nil {
		c.Env = e.Env
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{
		ExitCode: 0,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
	}
	if err == nil {
		return res, nil
	}

	// Killed because the context ended; the exit status is meaningless.
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.ExitCode = -1
	return res, &SpawnError{Command: cmd, Err: err}
}
