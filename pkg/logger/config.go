package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Config controls the stdout handler and the optional Sentry fan-out.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or text

	Sentry SentryConfig

	// Output defaults to os.Stdout.
	Output io.Writer `env:"-"`
}

// ParseLevel maps debug, info, warn and error (case-insensitive) to a
// slog.Level. Unknown values fall back to info.
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
