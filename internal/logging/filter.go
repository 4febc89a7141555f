// Package logging builds the process logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"slices"
)

var _ slog.Handler = (*FilterHandler)(nil)

// FilterFunc reports whether a record should be written
type FilterFunc func(ctx context.Context, record slog.Record) bool

// NewFilterHandler wraps handler so records rejected by filter are dropped
func NewFilterHandler(handler slog.Handler, filter FilterFunc) *FilterHandler {
	return &FilterHandler{handler: handler, filter: filter}
}

// FilterHandler is a slog.Handler that drops records before they reach the
// wrapped handler
type FilterHandler struct {
	handler slog.Handler
	filter  FilterFunc
}

func (f *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return f.handler.Enabled(ctx, level)
}

func (f *FilterHandler) Handle(ctx context.Context, record slog.Record) error {
	if f.filter != nil && !f.filter(ctx, record) {
		return nil
	}
	return f.handler.Handle(ctx, record)
}

func (f *FilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewFilterHandler(f.handler.WithAttrs(attrs), f.filter)
}

func (f *FilterHandler) WithGroup(name string) slog.Handler {
	return NewFilterHandler(f.handler.WithGroup(name), f.filter)
}

// DropQuietPaths rejects successful request lines for the given paths.
// Warnings and errors on those paths are still written.
func DropQuietPaths(paths ...string) FilterFunc {
	return func(_ context.Context, record slog.Record) bool {
		if record.Level >= slog.LevelWarn {
			return true
		}
		keep := true
		record.Attrs(func(a slog.Attr) bool {
			if a.Key == "path" && slices.Contains(paths, a.Value.String()) {
				keep = false
				return false
			}
			return true
		})
		return keep
	}
}

// Options selects the output format of New
type Options struct {
	Level     slog.Level
	JSON      bool
	AddSource bool
	// QuietPaths are request paths whose routine request lines are dropped
	QuietPaths []string
}

// New builds a logger writing to w
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	if len(opts.QuietPaths) > 0 {
		handler = NewFilterHandler(handler, DropQuietPaths(opts.QuietPaths...))
	}
	return slog.New(handler)
}
