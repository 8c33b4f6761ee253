// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.aimuz.me/omni/config"
)

// Setup installs the default logger described by cfg and returns a closer
// for the log sink. With no file configured, logs go to stderr in color.
func Setup(cfg config.LogConfig) io.Closer {
	logger, closer := New(cfg, os.Stderr)
	slog.SetDefault(logger)
	return closer
}

// New builds a logger without installing it.
func New(cfg config.LogConfig, console io.Writer) (*slog.Logger, io.Closer) {
	level := ParseLevel(cfg.Level)

	if cfg.File == "" {
		h := tint.NewHandler(console, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
		return slog.New(h), nopCloser{}
	}

	sink := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		Compress:   true,
	}
	h := slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: level})
	return slog.New(h), sink
}

// ParseLevel maps a config string to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
