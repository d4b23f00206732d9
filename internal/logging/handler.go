// Package logging sets up the colored slog handler used by serialctl.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// modulePrefixHandler moves a "module" attribute into a "[module] " message
// prefix.
type modulePrefixHandler struct {
	handler slog.Handler
	module  string
}

func (h *modulePrefixHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *modulePrefixHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	module := h.module
	var otherAttrs []slog.Attr

	for _, attr := range attrs {
		if attr.Key == "module" {
			module = attr.Value.String()
		} else {
			otherAttrs = append(otherAttrs, attr)
		}
	}

	return &modulePrefixHandler{
		handler: h.handler.WithAttrs(otherAttrs),
		module:  module,
	}
}

func (h *modulePrefixHandler) WithGroup(name string) slog.Handler {
	return &modulePrefixHandler{
		handler: h.handler.WithGroup(name),
		module:  h.module,
	}
}

func (h *modulePrefixHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.module == "" {
		return h.handler.Handle(ctx, r)
	}

	prefixed := slog.NewRecord(r.Time, r.Level, "["+h.module+"] "+r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		prefixed.AddAttrs(a)
		return true
	})
	return h.handler.Handle(ctx, prefixed)
}

// Options controls the handler built by New.
type Options struct {
	Level   slog.Level
	NoColor bool
}

// New returns a logger writing colored, human readable records to w.
func New(w io.Writer, opts Options) *slog.Logger {
	handler := &modulePrefixHandler{
		handler: tint.NewHandler(w, &tint.Options{
			Level:      opts.Level,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		}),
	}
	return slog.New(handler)
}

// Setup builds a logger with New and makes it the slog default.
func Setup(w io.Writer, opts Options) *slog.Logger {
	logger := New(w, opts)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
