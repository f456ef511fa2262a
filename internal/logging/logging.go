// Package logging builds the zerolog loggers used across cssdts.
package logging

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.trai.ch/zerr"
)

// SourceField names the component that emitted a log line.
const SourceField = "source"

// Config selects where and how verbosely to log.
type Config struct {
	Level   string // "debug", "info", "warn", "error", "disabled"
	File    string // JSON lines appended here when set
	Console bool   // human readable output on the writer passed to New
}

// New builds a logger writing to w, or to cfg.File when set. The returned
// closer releases the log file, if any.
func New(w io.Writer, cfg Config) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, zerr.With(zerr.Wrap(err, "invalid log level"), "level", cfg.Level)
		}
		level = parsed
	}

	var closer io.Closer = nopCloser{}
	out := w
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), closer, zerr.With(zerr.Wrap(err, "failed to create log directory"), "path", cfg.File)
		}
		// #nosec G304 - path comes from trusted configuration
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, zerr.With(zerr.Wrap(err, "failed to open log file"), "path", cfg.File)
		}
		out, closer = f, f
	} else if cfg.Console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), closer, nil
}

// For returns a child logger tagged with the component name.
func For(logger zerolog.Logger, source string) zerolog.Logger {
	return logger.With().Str(SourceField, source).Logger()
}

// Err attaches err and its zerr metadata to an event.
func Err(e *zerolog.Event, err error) *zerolog.Event {
	var ze *zerr.Error
	if errors.As(err, &ze) {
		for k, v := range ze.Metadata() {
			e = e.Interface(k, v)
		}
	}
	return e.Err(err)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
