package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the structured JSON logger shared by the server, services and
// workers. Level is parsed from the given string (e.g. "debug", "info",
// "warn", "error"); unknown levels fall back to info.
func New(level, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, service)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", service).
		Logger()
}
