package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.LedgerBackend)
	assert.Equal(t, BackendMemory, cfg.LockBackend)
	assert.Equal(t, 3*time.Second, cfg.BookingLockTimeout)
	assert.Equal(t, 10*time.Second, cfg.RedisLockTTL)
	assert.Equal(t, float64(20), cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_BACKEND", "memory")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "1500ms")
	t.Setenv("REDIS_LOCK_TTL", "5s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.LedgerBackend)
	assert.Equal(t, BackendRedis, cfg.LockBackend)
	assert.Equal(t, 1500*time.Millisecond, cfg.BookingLockTimeout)
	assert.Equal(t, 5*time.Second, cfg.RedisLockTTL)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 7, cfg.RateLimitBurst)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BOOKING_LOCK_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.BookingLockTimeout)
	assert.Equal(t, 40, cfg.RateLimitBurst)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:          "s",
			LedgerBackend:      BackendPostgres,
			LockBackend:        BackendMemory,
			BookingLockTimeout: time.Second,
			RedisLockTTL:       10 * time.Second,
			RateLimitRPS:       1,
			RateLimitBurst:     1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET"},
		{"unknown ledger", func(c *Config) { c.LedgerBackend = "sqlite" }, "LEDGER_BACKEND"},
		{"unknown lock", func(c *Config) { c.LockBackend = "etcd" }, "LOCK_BACKEND"},
		{"zero timeout", func(c *Config) { c.BookingLockTimeout = 0 }, "BOOKING_LOCK_TIMEOUT"},
		{"ttl leaves no hold time", func(c *Config) {
			c.LockBackend = BackendRedis
			c.RedisLockTTL = 1500 * time.Millisecond
		}, "REDIS_LOCK_TTL"},
		{"short ttl, long wait", func(c *Config) {
			c.LockBackend = BackendRedis
			c.RedisLockTTL = 2 * time.Second
			c.BookingLockTimeout = 5 * time.Second
		}, ""},
		{"short ttl ignored for memory lock", func(c *Config) {
			c.RedisLockTTL = 100 * time.Millisecond
		}, ""},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLockHoldTimeout(t *testing.T) {
	cfg := &Config{RedisLockTTL: 10 * time.Second}
	assert.Equal(t, 5*time.Second, cfg.LockHoldTimeout())
}

func TestWarnings(t *testing.T) {
	cfg := &Config{LedgerBackend: BackendPostgres, LockBackend: BackendMemory}
	warnings := cfg.Warnings()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "LOCK_BACKEND=redis")

	cfg.LockBackend = BackendRedis
	assert.Empty(t, cfg.Warnings())

	cfg = &Config{LedgerBackend: BackendMemory, LockBackend: BackendMemory}
	assert.Empty(t, cfg.Warnings())
}
