// Package logger builds the process-wide slog.Logger from user options.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects level, destination and format. Unparseable values fall back
// to the defaults and are reported through the resulting logger.
type Options struct {
	Level  string // debug, info, warn or error
	File   string // "" or "-" for stderr, os.DevNull to discard, else appended to
	Format string // text or json
}

func level(option string) (slog.Leveler, bool) {
	switch strings.ToLower(option) {
	case "":
		return nil, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return nil, false
	}
}

// New returns a logger for options. It never fails.
func New(options Options) *slog.Logger {
	return newWithStderr(options, os.Stderr)
}

func newWithStderr(options Options, stderr io.Writer) *slog.Logger {
	lvl, ok := level(options.Level)
	if !ok {
		bad := options.Level
		options.Level = ""
		logger := newWithStderr(options, stderr)
		logger.Warn("could not parse logger level", "level", bad)
		return logger
	}
	opts := slog.HandlerOptions{Level: lvl}

	var output io.Writer
	switch options.File {
	case "", "-":
		output = stderr
	case os.DevNull:
		return slog.New(slog.DiscardHandler)
	default:
		var err error
		output, err = os.OpenFile(options.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			options.File = ""
			logger := newWithStderr(options, stderr)
			logger.Warn("could not open logger file", "err", err)
			return logger
		}
	}

	switch strings.ToLower(options.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(output, &opts))
	case "text", "":
		return slog.New(slog.NewTextHandler(output, &opts))
	default:
		bad := options.Format
		options.Format = "text"
		logger := newWithStderr(options, stderr)
		logger.Warn("could not parse logger format", "format", bad)
		return logger
	}
}
