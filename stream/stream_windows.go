//go:build windows

package stream

import (
	"math"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// readablePollInterval is how often Readable re-checks the input queue;
// COM handles cannot be waited on for readability without overlapped I/O.
const readablePollInterval = 10 * time.Millisecond

// handleStream is a stream over a COM port handle. Blocking behaviour is
// controlled with comm timeouts rather than a file flag.
type handleStream struct {
	handle windows.Handle
	closed bool
}

var _ Stream = (*handleStream)(nil)

func openNative(path string, mode Mode) (Stream, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	var access uint32
	if mode.CanRead() {
		access |= windows.GENERIC_READ
	}
	if mode.CanWrite() {
		access |= windows.GENERIC_WRITE
	}

	h, err := windows.CreateFile(name, access, 0, nil, windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	s := &handleStream{handle: h}
	if err := s.SetBlocking(false); err != nil {
		windows.CloseHandle(h)
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return s, nil
}

func (s *handleStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	var done uint32
	if err := windows.ReadFile(s.handle, p, &done, nil); err != nil {
		return 0, err
	}
	return int(done), nil
}

func (s *handleStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}

	var done uint32
	if err := windows.WriteFile(s.handle, p, &done, nil); err != nil {
		return int(done), err
	}
	if int(done) < len(p) {
		return int(done), ErrWriteTimeout
	}
	return int(done), nil
}

// SetBlocking switches ReadFile between returning immediately with whatever
// is queued (MAXDWORD interval, zero totals) and waiting for data (all zero).
func (s *handleStream) SetBlocking(blocking bool) error {
	if s.closed {
		return os.ErrClosed
	}

	timeouts := windows.CommTimeouts{
		WriteTotalTimeoutConstant: uint32(writeTimeout / time.Millisecond),
	}
	if !blocking {
		timeouts.ReadIntervalTimeout = math.MaxUint32
	}
	return windows.SetCommTimeouts(s.handle, &timeouts)
}

func (s *handleStream) Readable(timeout time.Duration) (bool, error) {
	if s.closed {
		return false, os.ErrClosed
	}

	deadline := time.Now().Add(timeout)
	for {
		var errs uint32
		var stat windows.ComStat
		if err := windows.ClearCommError(s.handle, &errs, &stat); err != nil {
			return false, err
		}
		if stat.CBInQue > 0 {
			return true, nil
		}
		if timeout == 0 || (timeout > 0 && time.Now().After(deadline)) {
			return false, nil
		}
		time.Sleep(readablePollInterval)
	}
}

func (s *handleStream) Close() error {
	if s.closed {
		return os.ErrClosed
	}
	if err := windows.CloseHandle(s.handle); err != nil {
		return err
	}
	s.closed = true
	return nil
}
