// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger for CLI use.
func New() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewWithWriter creates a logger writing JSON lines to w. Tests pass a buffer
// or io.Discard.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
