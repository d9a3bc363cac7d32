package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/neuralsys/fleetdesk/internal/auth/service"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"FLEETDESK_DATABASE_FILE", "FLEETDESK_SESSION_BACKEND", "FLEETDESK_SESSION_TTL",
		"FLEETDESK_COOKIE_SECURE", "FLEETDESK_PASSWORD_ITERATIONS", "PORT",
		"FLEETDESK_BOOTSTRAP_ADMIN_HANDLE", "FLEETDESK_BOOTSTRAP_ADMIN_PASSWORD",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "fleetdesk.db", cfg.DatabaseFile)
	require.Equal(t, SessionBackendMemory, cfg.SessionBackend)
	require.Equal(t, service.DefaultSessionTTL, cfg.SessionTTL)
	require.False(t, cfg.CookieSecure)
	require.Equal(t, 310_000, cfg.PasswordIterations)
	require.Equal(t, 8080, cfg.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("FLEETDESK_DATABASE_FILE", "/var/lib/fleetdesk/app.db")
	t.Setenv("FLEETDESK_SESSION_BACKEND", "Redis")
	t.Setenv("FLEETDESK_REDIS_ADDR", "cache:6379")
	t.Setenv("FLEETDESK_REDIS_DB", "3")
	t.Setenv("FLEETDESK_SESSION_TTL", "90")
	t.Setenv("FLEETDESK_COOKIE_SECURE", "true")
	t.Setenv("HOUSEKEEPING_INTERVAL", "15m")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("FLEETDESK_BOOTSTRAP_ADMIN_HANDLE", "admin")
	t.Setenv("FLEETDESK_BOOTSTRAP_ADMIN_PASSWORD", "x123")

	cfg := LoadConfig()
	require.Equal(t, "/var/lib/fleetdesk/app.db", cfg.DatabaseFile)
	require.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	require.Equal(t, "cache:6379", cfg.RedisAddr)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 90*time.Minute, cfg.SessionTTL)
	require.True(t, cfg.CookieSecure)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "admin", cfg.BootstrapAdmin.Handle)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		DatabaseFile:   "fleetdesk.db",
		SessionBackend: SessionBackendMemory,
		SessionTTL:     time.Hour,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown backend", func(c *Config) { c.SessionBackend = "memcached" }, false},
		{"redis without addr", func(c *Config) { c.SessionBackend = SessionBackendRedis }, false},
		{"redis with addr", func(c *Config) { c.SessionBackend = SessionBackendRedis; c.RedisAddr = "localhost:6379" }, true},
		{"no database", func(c *Config) { c.DatabaseFile = "" }, false},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }, false},
		{"admin without password", func(c *Config) { c.BootstrapAdmin.Handle = "admin" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tt.mutate(&cfg)
			if tt.ok {
				require.NoError(t, cfg.Validate())
			} else {
				require.Error(t, cfg.Validate())
			}
		})
	}
}
