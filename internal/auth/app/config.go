package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/neuralsys/fleetdesk/internal/auth/service"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	DatabaseFile       string // Optional: path to SQLite database file (default: ./fleetdesk.db)
	PasswordScheme     string // Optional: pbkdf2_sha256 or argon2id (default: pbkdf2_sha256)
	PasswordIterations int    // Optional: pbkdf2 iterations (default: 310000)

	SessionBackend    string        // Optional: memory or redis (default: memory)
	SessionTTL        time.Duration // Optional: session lifetime (default: 12h)
	SessionSecretFile string        // Optional: cookie signing secret, generated when missing (default: ./session.key)
	CookieSecure      bool          // Optional: mark the session cookie Secure (default: false)
	RedisAddr         string        // Required for the redis backend
	RedisPassword     string
	RedisDB           int

	BootstrapToken string           // Optional: if set, required by POST /v1/bootstrap
	BootstrapAdmin service.EnvAdmin // Optional: first admin created at startup on an empty directory

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Session sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:       getEnvOrDefault("FLEETDESK_DATABASE_FILE", "fleetdesk.db"),
		PasswordScheme:     getEnvOrDefault("FLEETDESK_PASSWORD_SCHEME", "pbkdf2_sha256"),
		PasswordIterations: getEnvIntOrDefault("FLEETDESK_PASSWORD_ITERATIONS", 310_000),

		SessionBackend:    strings.ToLower(getEnvOrDefault("FLEETDESK_SESSION_BACKEND", SessionBackendMemory)),
		SessionTTL:        getEnvDurationOrDefault("FLEETDESK_SESSION_TTL", service.DefaultSessionTTL),
		SessionSecretFile: getEnvOrDefault("FLEETDESK_SESSION_SECRET_FILE", "session.key"),
		CookieSecure:      getEnvBoolOrDefault("FLEETDESK_COOKIE_SECURE", false),
		RedisAddr:         getEnvOrDefault("FLEETDESK_REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("FLEETDESK_REDIS_PASSWORD"),
		RedisDB:           getEnvIntOrDefault("FLEETDESK_REDIS_DB", 0),

		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),
		BootstrapAdmin: service.EnvAdmin{
			Handle:      os.Getenv("FLEETDESK_BOOTSTRAP_ADMIN_HANDLE"),
			Password:    os.Getenv("FLEETDESK_BOOTSTRAP_ADMIN_PASSWORD"),
			DisplayName: os.Getenv("FLEETDESK_BOOTSTRAP_ADMIN_NAME"),
			Email:       os.Getenv("FLEETDESK_BOOTSTRAP_ADMIN_EMAIL"),
		},

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("FLEETDESK_REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unknown session backend %q (want memory or redis)", c.SessionBackend)
	}

	if c.DatabaseFile == "" {
		return fmt.Errorf("FLEETDESK_DATABASE_FILE must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("FLEETDESK_SESSION_TTL must be positive")
	}
	if (c.BootstrapAdmin.Handle == "") != (c.BootstrapAdmin.Password == "") {
		return fmt.Errorf("FLEETDESK_BOOTSTRAP_ADMIN_HANDLE and FLEETDESK_BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
