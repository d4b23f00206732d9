package serial

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/allbin/go-sttyserial/stream"
	"github.com/stretchr/testify/require"
)

// fakeRunner records commands and answers them from a table keyed by the
// rendered command line. Unknown commands succeed.
type fakeRunner struct {
	calls   []runner.Command
	results map[string]runner.Result
	errs    map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]runner.Result),
		errs:    make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) (runner.Result, error) {
	f.calls = append(f.calls, cmd)
	if err, ok := f.errs[cmd.String()]; ok {
		return runner.Result{ExitCode: -1}, err
	}
	if res, ok := f.results[cmd.String()]; ok {
		return res, nil
	}
	return runner.Result{}, nil
}

func (f *fakeRunner) fail(cmd string, code int, stderr string) {
	f.results[cmd] = runner.Result{ExitCode: code, Stderr: []byte(stderr)}
}

func (f *fakeRunner) commands() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

// fakeStream serves queued input. Once the input is used up it reports
// would-block in non-blocking mode and end of data in blocking mode.
type fakeStream struct {
	input    []byte
	written  []byte
	writes   int
	writeErr error
	closeErr error
	blockErr error
	closes   int
	closed   bool
	blocking bool
	modes    []bool
	reads    []int
}

func (s *fakeStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	s.reads = append(s.reads, len(p))
	if len(s.input) == 0 {
		if s.blocking {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(p, s.input)
	s.input = s.input[n:]
	return n, nil
}

func (s *fakeStream) Write(p []byte) (int, error) {
	s.writes++
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *fakeStream) SetBlocking(blocking bool) error {
	if s.blockErr != nil {
		return s.blockErr
	}
	s.blocking = blocking
	s.modes = append(s.modes, blocking)
	return nil
}

func (s *fakeStream) Readable(time.Duration) (bool, error) {
	if s.closed {
		return false, os.ErrClosed
	}
	return len(s.input) > 0, nil
}

func (s *fakeStream) Close() error {
	s.closes++
	if s.closeErr != nil {
		return s.closeErr
	}
	s.closed = true
	return nil
}

// fakeOpener hands out a single stream.
type fakeOpener struct {
	stream *fakeStream
	err    error
	opens  int
	path   string
	mode   stream.Mode
}

func (o *fakeOpener) Open(path string, mode stream.Mode) (stream.Stream, error) {
	o.opens++
	o.path = path
	o.mode = mode
	if o.err != nil {
		return nil, o.err
	}
	return o.stream, nil
}

type harness struct {
	dev    *Device
	runner *fakeRunner
	opener *fakeOpener
	stream *fakeStream
}

func newHarness(t *testing.T, p platform.Platform, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		runner: newFakeRunner(),
		stream: &fakeStream{},
	}
	h.opener = &fakeOpener{stream: h.stream}

	all := append([]Option{
		WithPlatform(p),
		WithRunner(h.runner),
		WithOpener(h.opener),
		WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)

	dev, err := New(context.Background(), all...)
	require.NoError(t, err)
	h.dev = dev
	h.runner.calls = nil
	return h
}

func (h *harness) set(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, h.dev.SetDevice(context.Background(), name))
	h.runner.calls = nil
}

func (h *harness) open(t *testing.T, name string) *Guard {
	t.Helper()
	h.set(t, name)
	g, err := h.dev.Open("r+b")
	require.NoError(t, err)
	return g
}
