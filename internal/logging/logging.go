// Package logging builds the process logger. Host processes rarely have a
// console, so output goes to a file and optionally to the debugger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/brahma-adshonor/overhook/config"
)

// Logger is a slog.Logger whose level can be changed after creation.
type Logger struct {
	*slog.Logger

	handler *log.Logger
	file    *os.File
}

// New opens cfg.File for appending, or uses stderr when it is empty.
func New(cfg config.Log) (*Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	l := &Logger{}
	var out io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, errors.Wrap(err, "log directory")
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrap(err, "open log file")
		}
		l.file = f
		out = f
	}
	if cfg.DebugOutput {
		if w := debugOutput(); w != nil {
			out = io.MultiWriter(out, w)
		}
	}
	l.handler = NewHandler(out, level)
	l.Logger = slog.New(l.handler)
	return l, nil
}

// NewHandler returns a charmbracelet logger usable as a slog.Handler.
func NewHandler(w io.Writer, level slog.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           toLevel(level),
		Prefix:          "overhook",
		ReportTimestamp: true,
		Formatter:       log.LogfmtFormatter,
	})
}

func (l *Logger) SetLevel(level slog.Level) {
	l.handler.SetLevel(toLevel(level))
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func toLevel(level slog.Level) log.Level {
	switch {
	case level <= slog.LevelDebug:
		return log.DebugLevel
	case level <= slog.LevelInfo:
		return log.InfoLevel
	case level <= slog.LevelWarn:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}
