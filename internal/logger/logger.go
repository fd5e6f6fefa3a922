// Package logger configures the zerolog logger shared by the server.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing structured JSON at the given level.
// Unknown levels fall back to info. When console is true the output is
// human-readable instead, for local development.
func New(level string, console bool) zerolog.Logger {
	return NewWithOutput(level, console, os.Stdout)
}

// NewWithOutput is New with an explicit output writer, used by tests.
func NewWithOutput(level string, console bool, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
