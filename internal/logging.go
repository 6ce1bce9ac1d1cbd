package internal

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the application logger: JSON to stdout, fanned out to a
// size-rotated log file when one is configured.
func NewLogger(cfg *ApplicationConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	stdout := slog.NewJSONHandler(os.Stdout, opts)
	if cfg.Log.File == "" {
		return slog.New(stdout)
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	return slog.New(slogmulti.Fanout(
		stdout,
		slog.NewJSONHandler(rotating, opts),
	))
}
