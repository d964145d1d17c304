// Package logging builds the binlang logger: human readable records on
// stderr at the configured level, plus an optional JSON log file that
// receives every record down to debug level.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

type Options struct {
	Level slog.Level
	// Console output, os.Stderr if nil
	Console io.Writer
	// JSON log file path, no file logging if empty
	File string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger described by opts. The returned closer releases the
// log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: opts.Level}),
	}

	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}

		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = file
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Setup builds the logger with New and installs it as the slog default
func Setup(opts Options) (io.Closer, error) {
	logger, closer, err := New(opts)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return closer, nil
}

// Discard returns a logger dropping every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
