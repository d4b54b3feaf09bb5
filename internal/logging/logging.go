// Package logging configures structured logging with zerolog.
// Reports go to stdout; everything logged here goes to stderr.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Nop discards everything
var Nop = zerolog.Nop()

var defaultLogger = New(os.Stderr, "info", "auto")

// Default returns the process-wide logger
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Configure builds the process-wide logger from a level and format
// (console, json or auto) and returns it
func Configure(level, format string) zerolog.Logger {
	logger := New(os.Stderr, level, format)
	SetDefault(logger)
	return logger
}

// New creates a logger writing to w. Format "auto" picks the console writer
// when w is a terminal and JSON otherwise.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl := ParseLevel(level)

	format = strings.ToLower(format)
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(w) {
			format = "console"
		}
	}

	if format == "console" || format == "pretty" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if lvl <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// ParseLevel parses a level name, falling back to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "warning":
		return zerolog.WarnLevel
	case "none", "off", "quiet":
		return zerolog.Disabled
	}
	if l, err := zerolog.ParseLevel(strings.ToLower(level)); err == nil && level != "" {
		return l
	}
	return zerolog.InfoLevel
}

type ctxKey struct{}

// WithLogger attaches a logger to ctx
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx, or the default logger
func FromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return &logger
	}
	return Default()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
