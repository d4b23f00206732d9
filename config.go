package serial

import (
	"log/slog"

	"github.com/allbin/go-sttyserial/platform"
	"github.com/allbin/go-sttyserial/runner"
	"github.com/allbin/go-sttyserial/stream"
)

// DefaultBlockSize is the largest single read issued by ReadPort.
const DefaultBlockSize = 128

// Config holds the collaborators and I/O defaults of a Device
type Config struct {
	Platform  platform.Platform // Unknown: detect from the running host
	Runner    runner.Runner
	Opener    stream.Opener
	Logger    *slog.Logger
	Autoflush bool // Send flushes immediately
	BlockSize int  // ReadPort chunk size
}

// Option is a functional option for configuring a Device
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Platform:  platform.Unknown,
		Runner:    runner.Exec{},
		Opener:    stream.Native,
		Logger:    slog.Default(),
		Autoflush: true,
		BlockSize: DefaultBlockSize,
	}
}

// WithPlatform skips host detection and uses the profile of p
func WithPlatform(p platform.Platform) Option {
	return func(c *Config) error {
		if _, err := platform.ProfileFor(p); err != nil {
			return err
		}
		c.Platform = p
		return nil
	}
}

// WithRunner sets the runner used for every configuration command
func WithRunner(r runner.Runner) Option {
	return func(c *Config) error {
		if r == nil {
			return ErrInvalidConfig
		}
		c.Runner = r
		return nil
	}
}

// WithOpener sets how device streams are opened
func WithOpener(o stream.Opener) Option {
	return func(c *Config) error {
		if o == nil {
			return ErrInvalidConfig
		}
		c.Opener = o
		return nil
	}
}

// WithLogger sets the logger; nil discards all records
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			l = slog.New(slog.DiscardHandler)
		}
		c.Logger = l
		return nil
	}
}

// WithAutoflush sets whether Send flushes the output buffer immediately
func WithAutoflush(enabled bool) Option {
	return func(c *Config) error {
		c.Autoflush = enabled
		return nil
	}
}

// WithBlockSize sets the largest single read issued by ReadPort
func WithBlockSize(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return ErrInvalidConfig
		}
		c.BlockSize = n
		return nil
	}
}
