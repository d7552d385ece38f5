// Package logging sets up the process-wide zerolog logger. All components
// receive a zerolog.Logger value and attach their own component field.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger writing human-readable output to stderr at the given
// level. An unrecognized level falls back to info. If logFile is non-empty
// the same events are also appended there.
func New(level string, logFile string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), err
		}
		writers = append(writers, f)
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	return log, nil
}

// Nop returns a logger that discards everything. Used by tests and by
// commands that must keep stdout/stderr clean.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
