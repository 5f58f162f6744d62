package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_DRIVER", "TOKEN_TTL", "PAGE_SIZE", "JWT_SECRET", "CONFIRMATION_CODE_HASHING", "TRUST_PROXY"} {
		t.Setenv(key, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.False(t, cfg.HashCodes)
	assert.False(t, cfg.TrustProxy)

	err = ValidateEnv(cfg)
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("PAGE_SIZE", "ten")
	_, err := Load()
	require.Error(t, err)
	assert.ErrorContains(t, err, "TOKEN_TTL")
	assert.ErrorContains(t, err, "PAGE_SIZE")
}

func TestValidateEnv(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTSecret:     "s3cret",
			StorageDriver: DriverMemory,
			TokenTTL:      time.Hour,
		}
	}
	require.NoError(t, ValidateEnv(base()))

	cfg := base()
	cfg.StorageDriver = DriverPostgres
	assert.ErrorContains(t, ValidateEnv(cfg), "DATABASE_URL")
	cfg.DatabaseURL = "postgres://localhost/yamdb"
	assert.NoError(t, ValidateEnv(cfg))

	cfg = base()
	cfg.StorageDriver = "sqlite"
	assert.ErrorContains(t, ValidateEnv(cfg), "unknown STORAGE_DRIVER")

	cfg = base()
	cfg.AdminUsername = "root"
	assert.ErrorContains(t, ValidateEnv(cfg), "ADMIN_EMAIL")

	cfg = base()
	cfg.RedisAddr = "localhost:6379"
	assert.ErrorContains(t, ValidateEnv(cfg), "AUTH_RATE_LIMIT")
}
