package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "DATABASE_URL", "REDIS_URL", "DEFAULT_TIMEZONE", "DEFAULT_PAGE_SIZE",
	"MAX_PAGE_SIZE", "LOCK_TIMEOUT", "LISTING_CACHE_TTL", "REGISTER_RATE_LIMIT",
	"CORS_ORIGINS", "MIGRATIONS_DIR", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/events")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "Asia/Kolkata", cfg.DefaultTimezone)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 30*time.Second, cfg.ListingCacheTTL)
	assert.Equal(t, 10, cfg.RegisterRateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/events")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOCK_TIMEOUT", "750ms")
	t.Setenv("REGISTER_RATE_LIMIT", "0")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_TIMEZONE", "America/New_York")

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 0, cfg.RegisterRateLimit)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone)
}

func TestFromEnv_MalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/events")
	t.Setenv("MAX_PAGE_SIZE", "lots")
	t.Setenv("LISTING_CACHE_TTL", "soon")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.ListingCacheTTL)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{}},
		{"default page above max", map[string]string{"DATABASE_URL": "x", "DEFAULT_PAGE_SIZE": "50", "MAX_PAGE_SIZE": "10"}},
		{"bad log level", map[string]string{"DATABASE_URL": "x", "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("PORT")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("DATABASE_URL=postgres://dotenv/events\nPORT=9090\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("PORT")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv/events", cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.Port)
}
