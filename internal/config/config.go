// Package config loads the layered application configuration: defaults,
// then an optional YAML file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string `yaml:"host" env:"SERVER_HOST"`
	Port            int    `yaml:"port" env:"SERVER_PORT"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig configures the relational store. An empty driver selects
// the in-memory store (tests, local development).
type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DATABASE_DRIVER"`
	DSN             string `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" env:"DATABASE_CONN_MAX_LIFETIME"`
	Migrate         bool   `yaml:"migrate" env:"DATABASE_MIGRATE"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"LOG_FILE_PREFIX"`
}

// AuthConfig configures token issuance and verification.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  int    `yaml:"token_ttl" env:"JWT_TOKEN_TTL"`
}

// RedisConfig configures the optional report cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      int    `yaml:"ttl" env:"REDIS_TTL"`
}

// RateLimitConfig configures per-caller request budgets.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int `yaml:"burst" env:"RATE_LIMIT_BURST"`
}

// UploadConfig configures image upload storage.
type UploadConfig struct {
	Dir          string `yaml:"dir" env:"UPLOAD_DIR"`
	MaxSizeBytes int64  `yaml:"max_size_bytes" env:"UPLOAD_MAX_SIZE"`
}

// ReportsConfig configures dashboard aggregation jobs.
type ReportsConfig struct {
	RefreshSchedule string `yaml:"refresh_schedule" env:"REPORTS_REFRESH_SCHEDULE"`
}

// Config is the root application configuration.
type Config struct {
	Server         ServerConfig    `yaml:"server"`
	Database       DatabaseConfig  `yaml:"database"`
	Logging        LoggingConfig   `yaml:"logging"`
	Auth           AuthConfig      `yaml:"auth"`
	Redis          RedisConfig     `yaml:"redis"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Uploads        UploadConfig    `yaml:"uploads"`
	Reports        ReportsConfig   `yaml:"reports"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	AuditLogPath   string          `yaml:"audit_log_path" env:"AUDIT_LOG_PATH"`
}

// Default returns the baseline configuration before file and env layers.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080, ShutdownTimeout: 10},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			Migrate:         true,
		},
		Logging:   LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Auth:      AuthConfig{TokenTTL: int((24 * time.Hour).Seconds())},
		Redis:     RedisConfig{TTL: 60},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
		Uploads:   UploadConfig{Dir: "uploads", MaxSizeBytes: 5 << 20},
		Reports:   ReportsConfig{RefreshSchedule: "@every 5m"},
	}
}

// Load reads CONFIG_PATH (default config.yaml) when present, then applies
// environment overrides. A missing file is not an error; env-only setups
// are common in deployment.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific YAML file plus env.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required when a driver is configured")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token_ttl must be positive")
	}
	return nil
}

// TokenTTL returns the configured token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Second
}
