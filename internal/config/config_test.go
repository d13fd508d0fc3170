package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/money"
)

var allKeys = []string{
	"HTTP_ADDR", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "REDIS_ADDR", "CACHE_TTL", "LOCK_TTL",
	"JWT_SECRET", "JWT_ISSUER", "JWT_TTL", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOWED_ORIGINS",
	"DEFAULT_CURRENCY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data/ledger.db", cfg.DBPath)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "splitledger", cfg.JWTIssuer)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, money.INR, cfg.DefaultCurrency)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://ledger@localhost/ledger")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DEFAULT_CURRENCY", "usd")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, money.USD, cfg.DefaultCurrency)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"postgres without url", map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"bad ttl", map[string]string{"JWT_SECRET": "x", "CACHE_TTL": "soon"}, "CACHE_TTL"},
		{"negative ttl", map[string]string{"JWT_SECRET": "x", "LOCK_TTL": "-1s"}, "LOCK_TTL"},
		{"unknown currency", map[string]string{"JWT_SECRET": "x", "DEFAULT_CURRENCY": "XYZ"}, "DEFAULT_CURRENCY"},
		{"bad log format", map[string]string{"JWT_SECRET": "x", "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
