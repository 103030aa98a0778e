package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&Config{Level: "debug", Format: "json"}, &buf))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithTenant(ctx, "tenant-9")
	ctx = WithChannel(ctx, "whatsapp")
	Info(ctx, "inbound processed", "step", "awaiting_item")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "tenant-9", line["tenant"])
	assert.Equal(t, "whatsapp", line["channel"])
	assert.Equal(t, "awaiting_item", line["step"])
}

func TestDebugFilteredAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info"}, &buf)
	l.Debug("hidden")
	assert.Zero(t, buf.Len())
}
