package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "tradecraft-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)
	assert.Equal(t, "memory", cfg.Event.IdempotencyBackend)
	assert.Equal(t, 100, cfg.HTTP.RateLimitRequests)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins, "no wildcard CORS default")
}

func TestValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, defaultConfig().validate())
	})

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Database.MaxIdleConns = 50
		assert.Error(t, cfg.validate())
	})

	t.Run("unknown idempotency backend is rejected", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Event.IdempotencyBackend = "etcd"
		assert.Error(t, cfg.validate())
	})

	t.Run("sampling ratio out of range is rejected", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Telemetry.SamplingRatio = 1.5
		assert.Error(t, cfg.validate())
	})

	t.Run("production requires hardened settings", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.App.Env = "production"
		assert.Error(t, cfg.validate(), "missing jwt secret")

		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		assert.Error(t, cfg.validate(), "missing db password")

		cfg.Database.Password = "secret"
		assert.Error(t, cfg.validate(), "sslmode disable")

		cfg.Database.SSLMode = "require"
		require.NoError(t, cfg.validate())

		cfg.HTTP.CORSAllowOrigins = []string{"*"}
		assert.Error(t, cfg.validate(), "wildcard CORS in production")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "tradecraft",
		Password: "p@ss/word",
		DBName:   "orders",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be URL-escaped")
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
