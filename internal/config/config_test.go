package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/planner")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "planner-api", cfg.JWT.Issuer)
	assert.Equal(t, "planner-client", cfg.JWT.Audience)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 20, cfg.AuthRateLimitPerMinute)
	assert.Equal(t, 5, cfg.AuthRateLimitBurst)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/planner")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "15")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("S3_BUCKET", "receipts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", testSecret)
		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("short secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/planner")
		t.Setenv("JWT_SECRET", "too-short")
		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("non-positive rate limit", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/planner")
		t.Setenv("JWT_SECRET", testSecret)
		t.Setenv("AUTH_RATE_LIMIT_BURST", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
