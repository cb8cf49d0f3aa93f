package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the console handler as the process default logger and
// returns it. Unknown level strings fall back to info.
func Setup(level string) *slog.Logger {
	log := slog.New(NewConsoleHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))
	slog.SetDefault(log)
	return log
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
