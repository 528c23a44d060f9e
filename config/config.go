// Package config loads service configuration from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Every key has a default so a bare
// `peekd serve` starts against a local SQLite file.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
)

type ServiceConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env" validate:"required|in:development,staging,production,test"`
	Port    string `mapstructure:"port" validate:"required"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type ProfilingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver" validate:"required|in:postgres,mongo,sqlite"`
	URL        string `mapstructure:"url"`
	Name       string `mapstructure:"name"`
	MaxConns   int32  `mapstructure:"max_conns"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type AuditConfig struct {
	MaxRetries     uint          `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxElapsed     time.Duration `mapstructure:"max_elapsed"`
	DeadLetterPath string        `mapstructure:"dead_letter_path" validate:"required"`
}

type AdminConfig struct {
	Email string `mapstructure:"email"`
}

type IdempotencyConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	SizeMB  int           `mapstructure:"size_mb"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type AnalyticsConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type ShutdownConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	ReadinessDrainDelay time.Duration `mapstructure:"readiness_drain_delay"`
}

// Config is the full service configuration.
type Config struct {
	Service     ServiceConfig     `mapstructure:"service"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Profiling   ProfilingConfig   `mapstructure:"profiling"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Analytics   AnalyticsConfig   `mapstructure:"analytics"`
	Shutdown    ShutdownConfig    `mapstructure:"shutdown"`
}

// envBindings maps config keys to the environment variables that set them,
// together with their defaults.
var envBindings = []struct {
	key, env string
	def      any
}{
	{"service.name", "SERVICE_NAME", "peek-service"},
	{"service.version", "SERVICE_VERSION", "dev"},
	{"service.env", "ENV", "development"},
	{"service.port", "PORT", "8080"},
	{"logging.level", "LOG_LEVEL", "info"},
	{"tracing.enabled", "TRACING_ENABLED", false},
	{"tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"},
	{"tracing.sample_rate", "OTEL_SAMPLE_RATE", 0.1},
	{"profiling.enabled", "PROFILING_ENABLED", false},
	{"profiling.endpoint", "PYROSCOPE_ENDPOINT", "http://localhost:4040"},
	{"database.driver", "DB_DRIVER", DriverSQLite},
	{"database.url", "DATABASE_URL", ""},
	{"database.name", "DB_NAME", "peek"},
	{"database.max_conns", "DB_POOL_MAX_CONNECTIONS", 10},
	{"database.sqlite_path", "SQLITE_PATH", "peek.db"},
	{"audit.max_retries", "AUDIT_MAX_RETRIES", 3},
	{"audit.initial_backoff", "AUDIT_INITIAL_BACKOFF", "50ms"},
	{"audit.max_elapsed", "AUDIT_MAX_ELAPSED", "2s"},
	{"audit.dead_letter_path", "AUDIT_DEAD_LETTER_PATH", "peek-audit.deadletter.zst"},
	{"admin.email", "ADMIN_EMAIL", ""},
	{"idempotency.enabled", "IDEMPOTENCY_ENABLED", true},
	{"idempotency.size_mb", "IDEMPOTENCY_CACHE_MB", 8},
	{"idempotency.ttl", "IDEMPOTENCY_TTL", "10m"},
	{"analytics.timezone", "ANALYTICS_TIMEZONE", "Local"},
	{"shutdown.timeout", "SHUTDOWN_TIMEOUT", "10s"},
	{"shutdown.readiness_drain_delay", "READINESS_DRAIN_DELAY", "5s"},
}

// Load reads configuration from .env (if present) and the environment.
// Missing values fall back to defaults; call Validate before use.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for _, b := range envBindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return &cfg, nil
}

// Validate checks struct rules and the cross-field constraints tags cannot express.
func (c *Config) Validate() error {
	for _, section := range []any{&c.Service, &c.Logging, &c.Database, &c.Audit} {
		v := validate.Struct(section)
		if !v.Validate() {
			return errors.New(v.Errors.One())
		}
	}

	if port, err := strconv.Atoi(c.Service.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a TCP port number, got %q", c.Service.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMongo:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %q", c.Database.Driver)
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for driver sqlite")
		}
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1) {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.Tracing.SampleRate)
	}
	if c.Audit.MaxRetries == 0 {
		return errors.New("AUDIT_MAX_RETRIES must be at least 1")
	}
	if c.Idempotency.Enabled && c.Idempotency.SizeMB <= 0 {
		return errors.New("IDEMPOTENCY_CACHE_MB must be positive when idempotency is enabled")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("ANALYTICS_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the time zone that defines "today" for analytics.
func (c *Config) Location() (*time.Location, error) {
	if c.Analytics.Timezone == "" || strings.EqualFold(c.Analytics.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Analytics.Timezone)
}

// GetShutdownTimeoutDuration returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	if c.Shutdown.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Shutdown.Timeout
}

// GetReadinessDrainDelayDuration returns how long /ready reports 503 before
// the HTTP server stops accepting connections.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	if c.Shutdown.ReadinessDrainDelay < 0 {
		return 0
	}
	return c.Shutdown.ReadinessDrainDelay
}
