package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JAMWATHQ_DATA_DIR", t.TempDir())
	t.Setenv("JAMWATHQ_SESSION_SECRET", "session-secret")

	cfg := Load()
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, 2*time.Hour, cfg.LockoutDuration)
	assert.Equal(t, 15*time.Minute, cfg.RateWindow)
	assert.Equal(t, 100, cfg.RateMax)
	assert.False(t, cfg.ReviewsEnabled)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Equal(t, "session-secret", cfg.TokenSecret, "token secret falls back to the session secret")
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JAMWATHQ_DATA_DIR", t.TempDir())
	t.Setenv("JAMWATHQ_SESSION_SECRET", "s")
	t.Setenv("JAMWATHQ_TOKEN_SECRET", "t")
	t.Setenv("JAMWATHQ_TOKEN_TTL", "1h")
	t.Setenv("JAMWATHQ_RATE_MAX", "3")
	t.Setenv("JAMWATHQ_REVIEWS_ENABLED", "true")
	t.Setenv("JAMWATHQ_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("JAMWATHQ_LOCKOUT_THRESHOLD", "not-a-number")
	t.Setenv("JAMWATHQ_MAX_BODY_BYTES", "4096")

	cfg := Load()
	assert.Equal(t, "t", cfg.TokenSecret)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RateMax)
	assert.True(t, cfg.ReviewsEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, int64(4096), cfg.MaxBodyBytes)
}

func TestValidate_MissingSecrets(t *testing.T) {
	t.Setenv("JAMWATHQ_DATA_DIR", t.TempDir())
	t.Setenv("JAMWATHQ_SESSION_SECRET", "")
	t.Setenv("JAMWATHQ_TOKEN_SECRET", "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JAMWATHQ_SESSION_SECRET")
	assert.Contains(t, err.Error(), "JAMWATHQ_TOKEN_SECRET")
}
