package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for raw, want := range cases {
		got, err := ParseLevel(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestManagerLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	m, err := NewManager(&buf, "debug")
	require.NoError(t, err)

	m.Logger("kvstore").Debug("write failed", "key", "aqar_preferences")

	out := buf.String()
	assert.Contains(t, out, "component=kvstore")
	assert.Contains(t, out, "key=aqar_preferences")
}

func TestManagerLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	m, err := NewManager(&buf, "warn")
	require.NoError(t, err)

	m.Logger("favorites").Info("hidden")
	assert.Empty(t, buf.String())
}
