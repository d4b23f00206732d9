//go:build !linux && !darwin && !windows

package stream

import (
	"errors"
	"os"
	"runtime"
)

func openNative(path string, _ Mode) (Stream, error) {
	return nil, &os.PathError{Op: "open", Path: path, Err: errors.New("serial streams are not supported on " + runtime.GOOS)}
}
