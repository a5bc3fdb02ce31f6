package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/oauthlink/pkg/logger"
)

type ctxKey struct{}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "warn", Output: &buf})

		log.Info("dropped")
		log.Warn("kept")

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "kept", lines[0]["msg"])
	})

	t.Run("extractors", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		extract := func(ctx context.Context) (slog.Attr, bool) {
			v, ok := ctx.Value(ctxKey{}).(string)
			return slog.String("request_id", v), ok
		}
		log := logger.New(logger.Config{Output: &buf}, extract, nil)

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "with id")
		log.InfoContext(context.Background(), "without id")

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 2)
		assert.Equal(t, "req-1", lines[0]["request_id"])
		assert.NotContains(t, lines[1], "request_id")
	})

	t.Run("context attrs", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf})

		ctx := logger.WithAttrs(context.Background(), slog.String("provider", "github"), slog.String("step", "a"))
		ctx = logger.WithAttrs(ctx, slog.String("step", "b"))
		log.InfoContext(ctx, "callback")

		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "github", lines[0]["provider"])
		assert.Equal(t, "b", lines[0]["step"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger.New(logger.Config{Format: "text", Output: &buf}).Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}

func TestNewNope(t *testing.T) {
	t.Parallel()
	assert.False(t, logger.NewNope().Enabled(context.Background(), slog.LevelError))
}
