package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.App.Addr())
	assert.Equal(t, StoreDriverJSON, cfg.Store.Driver)
	assert.Equal(t, "data", cfg.Store.DataDir)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.RegisterRequiresAdmin)
	assert.Equal(t, "admin@company.com", cfg.Auth.AdminEmail)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "4000")
	t.Setenv("DATA_DIR", "/var/lib/ips")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUTH_REGISTER_REQUIRES_ADMIN", "true")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.App.Port)
	assert.Equal(t, "/var/lib/ips", cfg.Store.DataDir)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.RegisterRequiresAdmin)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Store:     StoreConfig{Driver: StoreDriverJSON, DataDir: "data"},
			RateLimit: RateLimitConfig{Max: 100, WindowMinutes: 15, Storage: LimiterStorageMemory},
			Auth:      AuthConfig{JWTSecret: "k"},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Store.Driver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "unknown STORE_DRIVER")

	cfg = base()
	cfg.Store.Driver = StoreDriverPostgres
	assert.ErrorContains(t, cfg.Validate(), "POSTGRES_DSN")

	cfg = base()
	cfg.RateLimit.Storage = LimiterStorageRedis
	assert.ErrorContains(t, cfg.Validate(), "REDIS_ADDR")

	cfg = base()
	cfg.RateLimit.Max = 0
	assert.ErrorContains(t, cfg.Validate(), "rate limit")

	cfg = base()
	cfg.Auth.JWTSecret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the previous one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
