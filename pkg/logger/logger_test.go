package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Info("hello", "request_id", "abc-123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "abc-123", entry["request_id"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "text", Output: &buf})

	log.Info("plain message")

	assert.Contains(t, buf.String(), "plain message")
	assert.Contains(t, buf.String(), "level=INFO")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("should be dropped")
	assert.Empty(t, buf.String())

	log.Warn("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestSanitizeAttr_RedactsSensitiveKeys(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		redacted bool
	}{
		{"password key", "password", true},
		{"token key", "token", true},
		{"authorization key", "Authorization", true},
		{"cookie key", "cookie", true},
		{"compound key", "user_password", true},
		{"signing key", "signing_key", true},
		{"plain key", "request_id", false},
		{"path key", "path", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: "info", Format: "json", Output: &buf})

			log.Info("event", tt.key, "hunter2")

			if tt.redacted {
				assert.Contains(t, buf.String(), "[REDACTED]")
				assert.NotContains(t, buf.String(), "hunter2")
			} else {
				assert.Contains(t, buf.String(), "hunter2")
			}
		})
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.WithError(assert.AnError).Error("operation failed")

	assert.Contains(t, buf.String(), "operation failed")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	// Must not panic and must not write anywhere visible.
	log.Info("discarded")
	log.Error("also discarded")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level "+strings.ToLower(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}
