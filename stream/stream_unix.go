//go:build linux || darwin

package stream

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/creack/goselect"
	"golang.org/x/sys/unix"
)

// fdStream is a stream over a raw file descriptor.
type fdStream struct {
	fd     int
	closed bool
}

var _ Stream = (*fdStream)(nil)

func openNative(path string, mode Mode) (Stream, error) {
	flags := unix.O_NOCTTY | unix.O_NONBLOCK | unix.O_CLOEXEC
	switch mode.Access {
	case ReadOnly:
		flags |= unix.O_RDONLY
	case WriteOnly:
		flags |= unix.O_WRONLY
	default:
		flags |= unix.O_RDWR
	}
	if mode.Append {
		flags |= unix.O_APPEND
	}

	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &fdStream{fd: fd}, nil
}

func (s *fdStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, nil
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

func (s *fdStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}

	written := 0
	for written < len(p) {
		n, err := unix.Write(s.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			ok, err := s.wait(nil, writeTimeout)
			if err != nil {
				return written, err
			}
			if !ok {
				return written, ErrWriteTimeout
			}
		case err != nil:
			return written, err
		}
	}
	return written, nil
}

func (s *fdStream) SetBlocking(blocking bool) error {
	if s.closed {
		return os.ErrClosed
	}
	return unix.SetNonblock(s.fd, !blocking)
}

func (s *fdStream) Readable(timeout time.Duration) (bool, error) {
	if s.closed {
		return false, os.ErrClosed
	}
	fds := &goselect.FDSet{}
	return s.wait(fds, timeout)
}

// wait selects on the descriptor. With rd set it waits for readability,
// otherwise for writability.
func (s *fdStream) wait(rd *goselect.FDSet, timeout time.Duration) (bool, error) {
	for {
		set := rd
		var wr *goselect.FDSet
		if set == nil {
			wr = &goselect.FDSet{}
			set = wr
		}
		set.Zero()
		set.Set(uintptr(s.fd))

		err := goselect.Select(s.fd+1, rd, wr, nil, timeout)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return false, err
		}
		return set.IsSet(uintptr(s.fd)), nil
	}
}

func (s *fdStream) Close() error {
	if s.closed {
		return os.ErrClosed
	}
	if err := unix.Close(s.fd); err != nil {
		return err
	}
	s.closed = true
	return nil
}
