package serial

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"
)

// Send appends data to the output buffer, flushes it when autoflush is on,
// and then waits for wait so a slow peer has time to answer before the
// caller reads. A flush failure is returned after the wait; the buffer is
// cleared either way.
func (d *Device) Send(ctx context.Context, data []byte, wait time.Duration) error {
	if err := d.requireOpen("Send"); err != nil {
		return err
	}

	d.out = append(d.out, data...)

	var flushErr error
	if d.autoflush {
		flushErr = d.Flush()
	}

	if err := sleep(ctx, wait); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}

// Pending returns a copy of the bytes buffered by Send and not yet flushed.
func (d *Device) Pending() []byte {
	return slices.Clone(d.out)
}

// Autoflush reports whether Send flushes immediately.
func (d *Device) Autoflush() bool { return d.autoflush }

// SetAutoflush sets whether Send flushes immediately. With autoflush off,
// sent data accumulates until Flush.
func (d *Device) SetAutoflush(enabled bool) { d.autoflush = enabled }

// Flush writes the whole output buffer in one call. The buffer is cleared
// whether or not the write succeeds, so a device that keeps failing cannot
// make it grow without bound.
func (d *Device) Flush() error {
	const op = "Flush"
	if err := d.requireOpen(op); err != nil {
		return err
	}
	if len(d.out) == 0 {
		return nil
	}

	buf := d.out
	d.out = nil

	n, err := d.handle.Write(buf)
	if err != nil {
		d.log.Warn("serial write failed, output dropped", "device", d.identity.Path, "bytes", len(buf), "error", err)
		return ioError(op, err)
	}
	if n < len(buf) {
		return ioError(op, io.ErrShortWrite)
	}
	return nil
}

// DataAvailable reports whether at least one byte can be read right now.
// Nothing is consumed.
func (d *Device) DataAvailable() (bool, error) {
	const op = "DataAvailable"
	if err := d.requireOpen(op); err != nil {
		return false, err
	}
	ok, err := d.handle.Readable(0)
	if err != nil {
		return false, ioError(op, err)
	}
	return ok, nil
}

// ReadPort reads without blocking. With count <= 0 it returns everything
// available now. With count > 0 it stops after count bytes or as soon as
// the device has nothing more to give, so the result may be shorter.
func (d *Device) ReadPort(count int) ([]byte, error) {
	const op = "ReadPort"
	if err := d.requireOpen(op); err != nil {
		return nil, err
	}

	count = max(count, 0)
	buf := make([]byte, d.config.BlockSize)
	var content []byte

	for count == 0 || len(content) < count {
		chunk := buf
		if count > 0 {
			chunk = buf[:min(len(buf), count-len(content))]
		}

		n, err := d.handle.Read(chunk)
		content = append(content, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return content, ioError(op, err)
		}
		if n == 0 {
			break
		}
	}
	return content, nil
}

// ReadLine blocks until a line terminated by CR or LF arrives and returns it
// without the terminator. Terminators with nothing before them are skipped,
// so CRLF pairs and blank lines never produce an empty result. Only the
// terminator that ends the line is consumed.
//
// The stream is switched to blocking mode for the duration of the call.
// There is no timeout; use DataAvailable and ReadPort for bounded waits.
func (d *Device) ReadLine() (string, error) {
	const op = "ReadLine"
	if err := d.requireOpen(op); err != nil {
		return "", err
	}
	if err := d.handle.SetBlocking(true); err != nil {
		return "", ioError(op, err)
	}

	line, err := d.readLine()

	if restoreErr := d.handle.SetBlocking(false); restoreErr != nil && err == nil {
		err = restoreErr
	}
	if err != nil {
		return line, ioError(op, err)
	}
	return line, nil
}

func (d *Device) readLine() (string, error) {
	var line []byte
	b := make([]byte, 1)
	for {
		n, err := d.handle.Read(b)
		if err != nil {
			return string(line), err
		}
		if n == 0 {
			continue
		}

		switch b[0] {
		case '\r', '\n':
			if len(line) > 0 {
				return string(line), nil
			}
		default:
			line = append(line, b[0])
		}
	}
}

// ReadFlush discards input that is already waiting, one byte at a time,
// until nothing more is immediately available.
func (d *Device) ReadFlush() error {
	const op = "ReadFlush"
	if err := d.requireOpen(op); err != nil {
		return err
	}

	b := make([]byte, 1)
	for {
		ok, err := d.handle.Readable(0)
		if err != nil {
			return ioError(op, err)
		}
		if !ok {
			return nil
		}

		n, err := d.handle.Read(b)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return nil
		}
		if err != nil {
			return ioError(op, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
