// Package logger provides the service-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "expense-approval"

// Log is the global logger instance. It writes human-readable lines until
// Configure selects JSON output.
var Log = newConsole(os.Stdout)

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func newConsole(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Logger()
}

func newJSON(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// SetLevel sets the global log level. Unknown or empty levels mean info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// SetJSON switches to JSON output on stdout.
func SetJSON() {
	SetOutput(os.Stdout)
}

// SetOutput writes JSON log lines to w.
func SetOutput(w io.Writer) {
	Log = newJSON(w)
}

// Configure applies LOG_LEVEL and LOG_FORMAT.
func Configure(level, format string) {
	SetLevel(level)
	if strings.EqualFold(format, "json") {
		SetJSON()
	}
}
