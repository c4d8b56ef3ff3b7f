package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout. Level comes from
// SCHOOLBUS_LOG_LEVEL ("debug", "info", "warn", "error"), defaulting to info.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("SCHOOLBUS_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
