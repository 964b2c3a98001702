package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "HOST", "ALLOWED_ORIGINS", "SEND_BUFFER", "MAX_MESSAGE_SIZE", "RELAY_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, DefaultSendBuffer, cfg.SendBuffer)
	assert.Equal(t, int64(DefaultMaxMessageSize), cfg.MaxMessageSize)
	assert.Equal(t, DefaultRelayURL, cfg.RelayURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_Priority(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, http://localhost:5173")

	cfg, err := Load(Options{Port: 9100})
	require.NoError(t, err)

	// Flag beats env, env beats default.
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("bad env int", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "eighty")
		_, err := Load(Options{})
		assert.ErrorContains(t, err, "PORT")
	})

	t.Run("port out of range", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(Options{Port: 70000})
		assert.ErrorContains(t, err, "out of range")
	})

	t.Run("negative buffer", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(Options{SendBuffer: -1})
		assert.ErrorContains(t, err, "send buffer")
	})

	t.Run("http relay url", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(Options{RelayURL: "http://localhost:8080/ws"})
		assert.ErrorContains(t, err, "ws or wss")
	})

	t.Run("log format", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(Options{LogFormat: "xml"})
		assert.ErrorContains(t, err, "log format")
	})
}

func TestOriginAllowed(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.OriginAllowed("https://anything"))

	cfg.AllowedOrigins = []string{"https://app.example.com"}
	assert.True(t, cfg.OriginAllowed("https://APP.example.com"))
	assert.True(t, cfg.OriginAllowed(""))
	assert.False(t, cfg.OriginAllowed("https://evil.example.com"))

	cfg.AllowedOrigins = []string{"*"}
	assert.True(t, cfg.OriginAllowed("https://evil.example.com"))
}

func TestHTTPBaseURL(t *testing.T) {
	cfg := &Config{RelayURL: "wss://chat.example.com/ws"}
	base, err := cfg.HTTPBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com", base)

	cfg.RelayURL = "ws://localhost:8080/ws?x=1"
	base, err = cfg.HTTPBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", base)
}
