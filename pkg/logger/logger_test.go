package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskingHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("bot configured",
		slog.String("bot_token", "123:abc"),
		slog.Group("sentry", slog.String("dsn", "https://key@sentry.example/1"), slog.Bool("enabled", true)),
		slog.String("machine_id", "chat:1"),
	)

	out := buf.String()
	assert.NotContains(t, out, "123:abc")
	assert.NotContains(t, out, "sentry.example")
	assert.Contains(t, out, `"bot_token":"***"`)
	assert.Contains(t, out, `"enabled":true`)
	assert.Contains(t, out, `"machine_id":"chat:1"`)
}

func TestFanoutHandler(t *testing.T) {
	var all, errorsOnly bytes.Buffer
	handler := NewFanoutHandler(
		slog.NewTextHandler(&all, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorsOnly, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(handler).With(slog.String("component", "fleet"))

	log.Info("coin accepted")
	log.Error("journal write failed")

	assert.Contains(t, all.String(), "coin accepted")
	assert.Contains(t, all.String(), "journal write failed")
	assert.NotContains(t, errorsOnly.String(), "coin accepted")
	assert.Contains(t, errorsOnly.String(), "component=fleet")
}

func TestSetLevel(t *testing.T) {
	level := new(slog.LevelVar)

	require.NoError(t, SetLevel(level, "debug"))
	assert.Equal(t, slog.LevelDebug, level.Level())

	require.NoError(t, SetLevel(level, ""))
	assert.Equal(t, slog.LevelInfo, level.Level())

	assert.Error(t, SetLevel(level, "chatty"))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := WithCorrelationID(context.Background())
	assert.Len(t, CorrelationIDFromContext(ctx), 36)

	var seen string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationIDFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.NotEmpty(t, seen)
}
