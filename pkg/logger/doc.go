// Package logger builds the application's log/slog logger.
//
// Records go to stdout as JSON (or text) and, when SENTRY_DSN is set, are
// also sent to Sentry: errors become issues, warnings are kept as logs.
// Context extractors and [WithAttrs] attach request-scoped attributes such
// as the request id or the OAuth provider without passing a logger around.
//
// # Usage
//
//	var cfg logger.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	log := logger.New(cfg)
//	defer logger.Flush(2 * time.Second)
//
//	ctx = logger.WithAttrs(ctx, slog.String("provider", "github"))
//	log.InfoContext(ctx, "callback completed")
//	// {"level":"INFO","msg":"callback completed","provider":"github"}
//
// # Configuration
//
//	LOG_LEVEL          - debug, info, warn, error (default: info)
//	LOG_FORMAT         - json or text (default: json)
//	SENTRY_DSN         - enables the Sentry handler when set
//	SENTRY_ENVIRONMENT - Sentry environment (default: production)
//	SENTRY_RELEASE     - Sentry release
//	SENTRY_MIN_LEVEL   - warn or error (default: warn)
//
// Libraries in this module default to [NewNope] when no logger is given.
package logger
