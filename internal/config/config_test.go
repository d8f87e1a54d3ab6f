package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	for _, key := range []string{"PORT", "CHAT_HISTORY_LIMIT", "WS_ALLOWED_ORIGINS", "WS_SEND_BUFFER", "WS_RATE_LIMIT", "JWT_EXPIRES_IN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, []byte("s3cret"), cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 50, cfg.Realtime.ChatHistoryLimit)
	assert.Equal(t, []string{"*"}, cfg.WebSocket.AllowedOrigins)
	assert.Equal(t, int64(64*1024), cfg.WebSocket.MaxMessageSize)
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
	assert.Equal(t, 50.0, cfg.WebSocket.RateLimit)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CHAT_HISTORY_LIMIT", "10")
	t.Setenv("WS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	t.Setenv("WS_RATE_LIMIT", "2.5")
	t.Setenv("JWT_EXPIRES_IN", "90m")

	cfg := Load()
	assert.Equal(t, 10, cfg.Realtime.ChatHistoryLimit)
	require.Len(t, cfg.WebSocket.AllowedOrigins, 2)
	assert.Equal(t, "https://b.example", cfg.WebSocket.AllowedOrigins[1])
	assert.Equal(t, 2.5, cfg.WebSocket.RateLimit)
	assert.Equal(t, 90*time.Minute, cfg.JWT.ExpiresIn)
}
