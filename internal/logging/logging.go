package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a configured level name to a slog level. Unknown names
// fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs a text logger on stderr as the default slog logger.
func Init(level string) {
	InitWriter(os.Stderr, level)
}

func InitWriter(w io.Writer, level string) {
	logger := slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: ParseLevel(level),
		}),
	)
	slog.SetDefault(logger)
}
