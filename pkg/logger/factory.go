package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the application logger: a JSON (or text) stdout handler,
// fanned out to Sentry when a DSN is configured, with context extractors
// applied to both.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var stdout slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		stdout = slog.NewTextHandler(out, opts)
	} else {
		stdout = slog.NewJSONHandler(out, opts)
	}

	handler := stdout
	if cfg.Sentry.DSN != "" {
		sh, err := newSentryHandler(cfg.Sentry)
		if err != nil {
			// Keep running on stdout only.
			slog.New(stdout).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			handler = newMultiHandler(stdout, sh)
		}
	}

	return slog.New(NewLogHandlerDecorator(handler, extractors...))
}

// NewNope creates a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
