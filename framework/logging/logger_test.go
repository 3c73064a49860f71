package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"super-critical", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.AppConfig{
		Name: "svc", Version: "1.2.3", Env: config.EnvProduction,
		LogLevel: "info", LogFormat: "json",
	}, &buf)

	log.Debug("hidden")
	log.Info("resolved", "key", "db")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "resolved", line["msg"])
	assert.Equal(t, "db", line["key"])
	assert.Equal(t, "svc", line["service"])
	assert.Equal(t, "1.2.3", line["version"])
	assert.Equal(t, "production", line["env"])
	assert.NotContains(t, line, "source")
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&config.AppConfig{Name: "svc", Env: "local", LogLevel: "debug", LogFormat: "text"}, &buf)

	log.Debug("cache hit", "key", "db")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "key=db")
}

func TestNewWithWriter_NilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewWithWriter(nil, &bytes.Buffer{}) })
}

func TestContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}
