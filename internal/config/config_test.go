package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 720*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 5, cfg.MaxPinnedEntries)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AllowedHost)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.UsesDefaultSecret())
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV", " Production ")
	t.Setenv("HOST", "https://api.mindnest.app:443/v1")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRY", "48h")
	t.Setenv("MAX_PINNED_ENTRIES", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://mindnest.app, https://www.mindnest.app,https://MINDNEST.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.mindnest.app", cfg.AllowedHost)
	assert.Equal(t, 48*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 3, cfg.MaxPinnedEntries)
	assert.False(t, cfg.UsesDefaultSecret())
	assert.Equal(t, []string{"https://mindnest.app", "https://www.mindnest.app"}, cfg.AllowedOrigins)
}

func TestHostname(t *testing.T) {
	tests := map[string]string{
		"https://backend.mindnest.app":   "backend.mindnest.app",
		"http://localhost:8080":          "localhost",
		"api.example.com/path":           "api.example.com",
		"  https://x.example.org:9000/ ": "x.example.org",
	}
	for in, want := range tests {
		assert.Equal(t, want, hostname(in), in)
	}
}
