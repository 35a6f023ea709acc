package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New constructs a text logger with the level taken from LOG_LEVEL.
func New(service string) *slog.Logger {
	return newWithLevel(service, parseLevel(os.Getenv("LOG_LEVEL")))
}

// NewDebug constructs a text logger that always emits debug records.
// Manual runs started with the debug flag log through it.
func NewDebug(service string) *slog.Logger {
	return newWithLevel(service, slog.LevelDebug)
}

func newWithLevel(service string, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
