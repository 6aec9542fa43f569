package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENV", "LOG_LEVEL", "HTTP_ADDR", "JWT_SECRET", "PROFILE_CACHE_TTL", "SWEEP_INTERVAL", "NOTIFY_QUEUE_SIZE"} {
		t.Setenv(key, "")
	}
	t.Setenv("STORAGE", StorageMemory)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Minute, cfg.ProfileCacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.False(t, cfg.IsProduction())
	assert.Error(t, cfg.RequireJWTSecret())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE", StoragePostgres)
	t.Setenv("DB_DSN", "postgres://localhost/mentorship")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("NOTIFY_QUEUE_SIZE", "16")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 16, cfg.NotifyQueueSize)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.NoError(t, cfg.RequireJWTSecret())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"postgres without dsn": {"STORAGE": StoragePostgres, "DB_DSN": ""},
		"unknown storage":      {"STORAGE": "sqlite"},
		"bad duration":         {"STORAGE": StorageMemory, "SWEEP_INTERVAL": "often"},
		"zero queue":           {"STORAGE": StorageMemory, "NOTIFY_QUEUE_SIZE": "0"},
		"bad queue":            {"STORAGE": StorageMemory, "NOTIFY_QUEUE_SIZE": "many"},
		"bad log level":        {"STORAGE": StorageMemory, "LOG_LEVEL": "loud"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
