package callz

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the sink for auto-output lines: successful calls go to Infof,
// failed calls to Warnf. Implementations must be safe for concurrent use.
// The tracer decides content and timing only; the sink decides where lines
// go.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// NewLogger returns a zerolog-backed Logger writing structured lines to w.
func NewLogger(w io.Writer) Logger {
	return zerologLogger{log: zerolog.New(w).With().Timestamp().Logger()}
}

type zerologLogger struct {
	log zerolog.Logger
}

func (l zerologLogger) Infof(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

func (l zerologLogger) Warnf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

// NopLogger discards all output.
type NopLogger struct{}

// Infof implements Logger.
func (NopLogger) Infof(string, ...interface{}) {}

// Warnf implements Logger.
func (NopLogger) Warnf(string, ...interface{}) {}
