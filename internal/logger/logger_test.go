package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Should write text records to the configured output", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})
		l.Info("session resolved", "authenticated", true)

		assert.Contains(t, buf.String(), "session resolved")
		assert.Contains(t, buf.String(), "authenticated")
	})

	t.Run("Should write JSON records when enabled", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})
		l.Info("login ok")

		out := buf.String()
		assert.True(t, strings.Contains(out, "{") && strings.Contains(out, "}"))
		assert.Contains(t, out, "login ok")
	})

	t.Run("Should filter records below the level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf})
		l.Debug("hidden debug")
		l.Info("hidden info")
		l.Warn("visible warn")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible warn")
	})

	t.Run("Should carry fields added with With", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf}).With("component", "session")
		l.Info("hello")

		assert.Contains(t, buf.String(), "component")
		assert.Contains(t, buf.String(), "session")
	})
}

func TestFromContext(t *testing.T) {
	t.Run("Should return the stored logger", func(t *testing.T) {
		l := NewNop()
		ctx := ContextWithLogger(context.Background(), l)
		assert.Equal(t, l, FromContext(ctx))
	})

	t.Run("Should fall back to a no-op logger", func(t *testing.T) {
		got := FromContext(context.Background())
		require.NotNil(t, got)
		got.Info("dropped")
	})
}

func TestLogLevelMapping(t *testing.T) {
	assert.Equal(t, -4, int(DebugLevel.ToCharmlogLevel()))
	assert.Equal(t, 0, int(InfoLevel.ToCharmlogLevel()))
	assert.Equal(t, 4, int(WarnLevel.ToCharmlogLevel()))
	assert.Equal(t, 8, int(ErrorLevel.ToCharmlogLevel()))
	assert.Equal(t, 0, int(LogLevel("verbose").ToCharmlogLevel()))
}
