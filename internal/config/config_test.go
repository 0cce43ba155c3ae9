package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONGO_DB", "JWT_EXPIRY", "CLIENT_URL", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW_SECONDS", "REDIS_DB"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "anchor", cfg.MongoDB)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, "*", cfg.ClientURL)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Equal(t, 0, cfg.RedisDB)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("GEOCODE_CACHE_TTL", "10m")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 10*time.Minute, cfg.GeocodeCacheTTL)
	assert.Equal(t, 30, cfg.RateLimitWindowSeconds)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "forever")
	t.Setenv("REDIS_DB", "one")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 60, cfg.RateLimitWindowSeconds)
}

func TestLoad_RejectsZeroWindow(t *testing.T) {
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "0")
	_, err := Load()
	assert.Error(t, err)
}
