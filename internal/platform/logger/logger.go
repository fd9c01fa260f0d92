package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process-wide structured logger. All services log JSON to
// stdout; the level comes from configuration ("debug", "info", "warn",
// "error"). The returned logger already carries the service name so every
// record can be attributed when logs from several services are aggregated.
func New(service, level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler).With("service", service)
}
