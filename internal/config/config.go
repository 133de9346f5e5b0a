package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/darkodi/alias-shortener/internal/logger"
)

// Supported DB_DRIVER values
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres" // lib/pq
	DriverPgx      = "pgx"      // jackc/pgx through database/sql
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	App      AppConfig
	Log      logger.Config
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver string
	Path   string // sqlite3 only
	DSN    string // postgres and pgx
}

// RedisConfig holds the redirect cache settings
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AppConfig holds application-specific settings
type AppConfig struct {
	BaseURL          string // empty: derived from each request
	ContextPath      string // e.g. "/s", appended to a derived base URL
	Environment      string // "development", "production", "testing"
	MaxAliasAttempts int

	MaxURLLength      int
	BlockedDomains    []string
	TrustProxyHeaders bool // honour X-Forwarded-Proto/Host when deriving the base URL
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", DriverSQLite),
			Path:   getEnv("DB_PATH", "./data/urls.db"),
			DSN:    getEnv("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			TTL:      getDurationEnv("REDIS_TTL", 24*time.Hour),
		},
		App: AppConfig{
			BaseURL:          strings.TrimRight(getEnv("BASE_URL", ""), "/"),
			ContextPath:      strings.TrimRight(getEnv("CONTEXT_PATH", ""), "/"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			MaxAliasAttempts: getIntEnv("ALIAS_MAX_ATTEMPTS", 100),

			MaxURLLength:      getIntEnv("URL_MAX_LENGTH", 2048),
			BlockedDomains:    getListEnv("BLOCKED_DOMAINS"),
			TrustProxyHeaders: getBoolEnv("TRUST_PROXY_HEADERS", false),
		},
		Log: logger.Config{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
	cfg.Log.Environment = cfg.App.Environment

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate port
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s (must be 1-65535)", c.Server.Port)
	}

	// Validate database
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path cannot be empty")
		}
	case DriverPostgres, DriverPgx:
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required for driver %s", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3, postgres, pgx or memory)", c.Database.Driver)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis address cannot be empty when redis is enabled")
	}

	if c.App.MaxAliasAttempts < 1 {
		return fmt.Errorf("invalid alias attempt limit: %d (must be at least 1)", c.App.MaxAliasAttempts)
	}

	if c.App.MaxURLLength < 1 {
		return fmt.Errorf("invalid URL length limit: %d (must be at least 1)", c.App.MaxURLLength)
	}

	if c.App.ContextPath != "" && !strings.HasPrefix(c.App.ContextPath, "/") {
		return fmt.Errorf("invalid context path: %s (must start with /)", c.App.ContextPath)
	}

	// Validate environment
	validEnvs := map[string]bool{
		"development": true,
		"production":  true,
		"testing":     true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, production, or testing)", c.App.Environment)
	}
	// Validate log level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// ============================================================
// HELPER FUNCTIONS
// ============================================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// getListEnv splits a comma-separated variable, dropping empty items
func getListEnv(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
