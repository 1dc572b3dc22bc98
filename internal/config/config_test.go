package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seikin/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 600*time.Second, cfg.Server.WriteTimeout)

	assert.Equal(t, "gemini-3-pro-preview", cfg.Gemini.Model)
	assert.Equal(t, 65536, cfg.Gemini.MaxOutputTokens)
	assert.Equal(t, 120, cfg.Gemini.TimeoutSecs)
	assert.Empty(t, cfg.Gemini.APIKey)

	assert.Equal(t, 300, cfg.Render.DPI)

	assert.Equal(t, "ap-northeast-1", cfg.S3.Region)
	assert.Equal(t, int64(100), cfg.S3.MaxFileSizeMB)

	assert.Equal(t, 4, cfg.Analyze.Concurrency)
	assert.Equal(t, 2, cfg.Analyze.MaxRetries)
	assert.Equal(t, 2, cfg.Analyze.RetryBackoffSecs)

	assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:3000")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SEIKIN_SERVER_PORT", ":9000")
	t.Setenv("SEIKIN_GEMINI_MODEL", "gemini-2.0-flash")
	t.Setenv("SEIKIN_GEMINI_API_KEY", "env-key")
	t.Setenv("SEIKIN_RENDER_DPI", "150")
	t.Setenv("SEIKIN_S3_BUCKET", "other-bucket")
	t.Setenv("SEIKIN_ANALYZE_CONCURRENCY", "8")
	t.Setenv("SEIKIN_CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, 150, cfg.Render.DPI)
	assert.Equal(t, "other-bucket", cfg.S3.Bucket)
	assert.Equal(t, 8, cfg.Analyze.Concurrency)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_CloudRunPortFallback(t *testing.T) {
	t.Setenv("PORT", "8081")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Port)
}

func TestLoad_ExplicitPortWinsOverCloudRunPort(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("SEIKIN_SERVER_PORT", ":9999")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)
}
