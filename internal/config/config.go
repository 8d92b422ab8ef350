package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port              string
	DatabaseURL       string
	RedisURL          string
	DefaultTimezone   string
	DefaultPageSize   int
	MaxPageSize       int
	LockTimeout       time.Duration
	ListingCacheTTL   time.Duration
	RegisterRateLimit int
	CORSOrigins       []string
	MigrationsDir     string
	LogLevel          slog.Level
}

// Load reads configuration from environment variables. Variables in a .env
// file in the working directory are used when not already set.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		DefaultTimezone:   getEnv("DEFAULT_TIMEZONE", "Asia/Kolkata"),
		DefaultPageSize:   getEnvInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:       getEnvInt("MAX_PAGE_SIZE", 100),
		LockTimeout:       getEnvDuration("LOCK_TIMEOUT", 5*time.Second),
		ListingCacheTTL:   getEnvDuration("LISTING_CACHE_TTL", 30*time.Second),
		RegisterRateLimit: getEnvInt("REGISTER_RATE_LIMIT", 10),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		MigrationsDir:     getEnv("MIGRATIONS_DIR", "migrations"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MaxPageSize < 1 {
		return nil, fmt.Errorf("MAX_PAGE_SIZE must be at least 1")
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > cfg.MaxPageSize {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and MAX_PAGE_SIZE")
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
