package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "APP_ENV", "GEMINI_API_KEY", "PIXELART_MODEL", "GENERATION_TIMEOUT",
	"SESSION_CAPACITY", "SESSION_TTL", "RATE_LIMIT_WAIT", "LOG_LEVEL", "LOG_FORMAT",
	"CORS_ALLOWED_ORIGINS",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func noEnvFile(t *testing.T) string {
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.True(t, cfg.IsLocal())
	assert.Equal(t, "test-key", cfg.GeminiAPIKey)
	assert.Equal(t, "imagen-4", cfg.Model)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 1024, cfg.SessionCapacity)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.RateLimitWait)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PIXELART_MODEL", "nano-banana-1")
	t.Setenv("GENERATION_TIMEOUT", "15")
	t.Setenv("SESSION_CAPACITY", "8")
	t.Setenv("SESSION_TTL", "5")
	t.Setenv("RATE_LIMIT_WAIT", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com, ,https://app.example")

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.False(t, cfg.IsLocal())
	assert.Equal(t, "nano-banana-1", cfg.Model)
	assert.Equal(t, 15*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 8, cfg.SessionCapacity)
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.RateLimitWait)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"https://example.com", "https://app.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Flags(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("PIXELART_MODEL", "imagen-4-fast")

	cfg, err := Load([]string{noEnvFile(t), "-port", "127.0.0.1:3000", "-model", "nano-banana-1"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3000", cfg.Port)
	assert.Equal(t, "nano-banana-1", cfg.Model)

	_, err = Load([]string{"-unknown"})
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GEMINI_API_KEY=from-file\nSESSION_CAPACITY=3\n"), 0o600))

	cfg, err := Load([]string{"-env-file", path})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.GeminiAPIKey)
	assert.Equal(t, 3, cfg.SessionCapacity)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing api key", env: map[string]string{}, want: ErrMissingAPIKey.Error()},
		{name: "bad timeout", env: map[string]string{"GENERATION_TIMEOUT": "soon"}, want: "GENERATION_TIMEOUT"},
		{name: "zero capacity", env: map[string]string{"SESSION_CAPACITY": "0"}, want: "SESSION_CAPACITY"},
		{name: "bad bool", env: map[string]string{"RATE_LIMIT_WAIT": "maybe"}, want: "RATE_LIMIT_WAIT"},
		{name: "bad level", env: map[string]string{"LOG_LEVEL": "loud"}, want: "LOG_LEVEL"},
		{name: "bad format", env: map[string]string{"LOG_FORMAT": "xml"}, want: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.name != "missing api key" {
				t.Setenv("GEMINI_API_KEY", "test-key")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load([]string{noEnvFile(t)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}
	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "model", "imagen-4")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"model":"imagen-4"`)

	buf.Reset()
	cfg.LogFormat = "text"
	cfg.NewLogger(&buf).Warn("plain")
	assert.Contains(t, buf.String(), "msg=plain")
}
