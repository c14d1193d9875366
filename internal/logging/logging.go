// Package logging configures the server's structured logger. Because
// stdio is the transport's wire channel, all log output goes to stderr
// — writing a log line to stdout would corrupt the JSON-RPC stream.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to stderr, with level set from
// levelName (any of zerolog's level strings; invalid names fall back to
// "info"). pretty selects a human-readable console writer instead of
// JSON lines — useful for local runs, never for a client-facing pipe.
func New(levelName string, pretty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, for use in tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
