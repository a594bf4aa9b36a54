// Package logger builds the application's slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely the logger writes.
type Options struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Sentry     bool
}

// Logger couples a slog.Logger with the level variable that can be changed at runtime.
type Logger struct {
	*slog.Logger
	level  *slog.LevelVar
	closer io.Closer
}

// New creates a Logger writing to stdout and, when a file is configured, to a rotating log file.
// With Sentry enabled, records at error level are also forwarded to Sentry.
func New(opts Options) (*Logger, error) {
	level := new(slog.LevelVar)
	if err := SetLevel(level, opts.Level); err != nil {
		return nil, err
	}

	var (
		out    io.Writer = os.Stdout
		closer io.Closer
	)

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closer = rotator
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}

	if opts.Sentry {
		sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
		handler = NewFanoutHandler(handler, sentryHandler)
	}

	return &Logger{
		Logger: slog.New(NewMaskingHandler(handler)),
		level:  level,
		closer: closer,
	}, nil
}

// SetLevel changes the logger's minimum level, e.g. after a configuration reload.
func (l *Logger) SetLevel(name string) error {
	return SetLevel(l.level, name)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}

	return l.closer.Close()
}

// SetLevel parses name ("debug", "info", "warn", "error") into level.
func SetLevel(level *slog.LevelVar, name string) error {
	if name == "" {
		level.Set(slog.LevelInfo)
		return nil
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("parse log level %q: %w", name, err)
	}

	level.Set(parsed)
	return nil
}
