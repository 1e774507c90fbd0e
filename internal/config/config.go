package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the HRMS server.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Tenant    TenantConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// StatementTimeout is applied to every pooled session. Zero disables it.
	StatementTimeout time.Duration
	MigrationsDir    string
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	AccessTTL time.Duration
}

type TenantConfig struct {
	// CacheTTL bounds how long a suspended tenant can keep being served by
	// another process's resolver cache.
	CacheTTL         time.Duration
	CacheMaxEntries  int
	ProvisionTimeout time.Duration
}

type RateLimitConfig struct {
	PerMinute int
}

const minJWTSecretLen = 32

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := load()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOperator reads the same environment as Load but only requires what the
// operator CLI needs: a database.
func LoadOperator() (*Config, error) {
	cfg := load()
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	if err := cfg.validateTenant(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: envInt("HRMS_PORT", 8080),
			Env:  envString("HRMS_ENV", "development"),
		},
		Log: LogConfig{
			Level: strings.ToLower(envString("LOG_LEVEL", "info")),
		},
		Database: DatabaseConfig{
			URL:              os.Getenv("DATABASE_URL"),
			MaxOpenConns:     envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			StatementTimeout: envDuration("DATABASE_STATEMENT_TIMEOUT", 30*time.Second),
			MigrationsDir:    envString("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Issuer:    envString("JWT_ISSUER", "hrms"),
			AccessTTL: envDuration("JWT_ACCESS_TTL", 15*time.Minute),
		},
		Tenant: TenantConfig{
			CacheTTL:         envDuration("TENANT_CACHE_TTL", 30*time.Second),
			CacheMaxEntries:  envInt("TENANT_CACHE_MAX_ENTRIES", 10000),
			ProvisionTimeout: envDuration("PROVISION_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			PerMinute: envInt("RATE_LIMIT_PER_MINUTE", 100),
		},
	}
}

func (c *Config) validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minJWTSecretLen, len(c.Auth.JWTSecret))
	}
	if c.Auth.AccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be positive, got %s", c.Auth.AccessTTL)
	}

	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimit.PerMinute)
	}

	return c.validateTenant()
}

func (c *Config) validateDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if !strings.HasPrefix(c.Database.URL, "postgres://") && !strings.HasPrefix(c.Database.URL, "postgresql://") {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://")
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("DATABASE_STATEMENT_TIMEOUT must not be negative, got %s", c.Database.StatementTimeout)
	}
	return nil
}

func (c *Config) validateTenant() error {
	if c.Tenant.CacheTTL <= 0 {
		return fmt.Errorf("TENANT_CACHE_TTL must be positive, got %s", c.Tenant.CacheTTL)
	}
	if c.Tenant.CacheMaxEntries <= 0 {
		return fmt.Errorf("TENANT_CACHE_MAX_ENTRIES must be positive, got %d", c.Tenant.CacheMaxEntries)
	}
	if c.Tenant.ProvisionTimeout <= 0 {
		return fmt.Errorf("PROVISION_TIMEOUT must be positive, got %s", c.Tenant.ProvisionTimeout)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
