package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so call sites get the full fluent API
// plus the helpers below.
type Logger struct {
	zerolog.Logger
}

// LoggerOptions configures logger construction.
type LoggerOptions struct {
	Level   string
	Format  string // "pretty" or "json"
	Output  io.Writer
	Verbose bool
}

// NewLogger builds a logger. Verbose forces debug level regardless of
// the configured level string.
func NewLogger(opts LoggerOptions) *Logger {
	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}

	if opts.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level := parseLevel(opts.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: l}
}

// NewDefaultLogger builds an info-level pretty logger on stderr.
func NewDefaultLogger() *Logger {
	return NewLogger(LoggerOptions{Level: "info", Format: "pretty"})
}

func parseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// WithComponent tags every event from the returned logger with the
// subsystem name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("component", component).Logger()}
}

// WithURL tags every event from the returned logger with the URL
// being ingested.
func (l *Logger) WithURL(url string) *Logger {
	return &Logger{Logger: l.Logger.With().Str("url", url).Logger()}
}
