// Package config reads runtime configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	HTTPAddr string

	// DBDriver is "sqlite" or "postgres".
	DBDriver    string
	DBPath      string
	DatabaseURL string

	// RedisAddr enables the shared balance cache and distributed group lock when set.
	RedisAddr string
	CacheTTL  time.Duration
	LockTTL   time.Duration

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	LogLevel  string
	LogFormat string

	CORSOrigins     []string
	DefaultCurrency money.Currency
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:    fallback(os.Getenv("HTTP_ADDR"), ":8080"),
		DBDriver:    strings.ToLower(fallback(os.Getenv("DB_DRIVER"), "sqlite")),
		DBPath:      fallback(os.Getenv("DB_PATH"), "./data/ledger.db"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:   strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "splitledger"),
		LogLevel:    strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:   strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "text")),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
	}

	var err error
	if cfg.CacheTTL, err = duration("CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.LockTTL, err = duration("LOCK_TTL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.JWTTTL, err = duration("JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.DefaultCurrency, err = money.ParseCurrency(fallback(os.Getenv("DEFAULT_CURRENCY"), "INR")); err != nil {
		return Config{}, fmt.Errorf("DEFAULT_CURRENCY: %w", err)
	}

	switch cfg.DBDriver {
	case "sqlite":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration such as 30s, got %q", key, raw)
	}
	return d, nil
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
