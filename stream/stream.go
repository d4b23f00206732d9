// Package stream provides the byte-stream handle a serial device is read
// from and written to.
//
// Streams are opened non-blocking. Read returns (0, nil) when no data is
// ready and (0, io.EOF) at end of data, so callers can poll without
// distinguishing would-block errors per platform.
package stream

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidMode is returned by ParseMode for strings outside the
// r/w/a[+][b] grammar.
var ErrInvalidMode = errors.New("invalid access mode")

// ErrWriteTimeout is returned when a non-blocking handle stays unwritable.
var ErrWriteTimeout = errors.New("write operation timed out")

// Access is the direction a stream is opened for.
type Access int

const (
	ReadOnly Access = iota
	WriteOnly
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read"
	case WriteOnly:
		return "write"
	case ReadWrite:
		return "read+write"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Mode describes how a stream is opened.
type Mode struct {
	Access Access
	Append bool
	// Binary is accepted for compatibility with fopen-style strings. Streams
	// never translate line endings, so it has no effect.
	Binary bool
}

// CanRead reports whether the mode allows reading.
func (m Mode) CanRead() bool {
	return m.Access == ReadOnly || m.Access == ReadWrite
}

// CanWrite reports whether the mode allows writing.
func (m Mode) CanWrite() bool {
	return m.Access == WriteOnly || m.Access == ReadWrite
}

var modePattern = regexp.MustCompile(`^[raw]\+?b?$`)

// ParseMode parses an fopen-style access string: "r", "w" or "a", an
// optional "+" for read+write and an optional "b".
func ParseMode(s string) (Mode, error) {
	if !modePattern.MatchString(s) {
		return Mode{}, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}

	var m Mode
	switch s[0] {
	case 'r':
		m.Access = ReadOnly
	case 'w':
		m.Access = WriteOnly
	case 'a':
		m.Access = WriteOnly
		m.Append = true
	}
	for _, c := range s[1:] {
		switch c {
		case '+':
			m.Access = ReadWrite
		case 'b':
			m.Binary = true
		}
	}
	return m, nil
}

// Stream is an open byte-stream handle.
type Stream interface {
	// Read reads up to len(p) bytes. In non-blocking mode it returns (0, nil)
	// when nothing is ready; in blocking mode it waits for at least one byte.
	// It returns (0, io.EOF) when the peer is gone.
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetBlocking(blocking bool) error
	// Readable waits up to timeout for data to become readable without
	// consuming it. A zero timeout polls; a negative timeout waits forever.
	Readable(timeout time.Duration) (bool, error)
	Close() error
}

// Opener opens a stream on a device path.
type Opener interface {
	Open(path string, mode Mode) (Stream, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string, mode Mode) (Stream, error)

// Open calls f(path, mode).
func (f OpenerFunc) Open(path string, mode Mode) (Stream, error) {
	return f(path, mode)
}

// Native opens device files through the operating system.
var Native Opener = OpenerFunc(openNative)

// writeTimeout bounds how long Write waits for a full non-blocking handle
// to drain.
const writeTimeout = 5 * time.Second
