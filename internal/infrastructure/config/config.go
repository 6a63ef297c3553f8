package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	OTLP     OTLPConfig
	Log      LogConfig
	CORS     CORSConfig
	Catalog  CatalogConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	DurationMsMetric bool
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	SlowThreshold   time.Duration
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

type LogConfig struct {
	Level string
	// File switches output from stdout to a size-rotated file.
	File string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type CatalogConfig struct {
	// CategoryListLimit caps the unpaged legacy category listing.
	CategoryListLimit int
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// env maps each setting to its environment variable and default value.
var env = []struct {
	key    string
	envVar string
	def    any
}{
	{"server.host", "SERVER_HOST", "0.0.0.0"},
	{"server.port", "SERVER_PORT", "8080"},
	{"server.read_timeout", "SERVER_READ_TIMEOUT", "15s"},
	{"server.write_timeout", "SERVER_WRITE_TIMEOUT", "15s"},
	{"server.idle_timeout", "SERVER_IDLE_TIMEOUT", "60s"},
	{"server.shutdown_timeout", "SERVER_SHUTDOWN_TIMEOUT", "30s"},
	{"server.duration_ms_metric", "SERVER_DURATION_MS_METRIC", false},
	{"database.driver", "DB_DRIVER", DriverSQLite},
	{"database.dsn", "DB_DSN", "file:catalog.db?_pragma=busy_timeout(5000)"},
	{"database.max_open_conns", "DB_MAX_OPEN_CONNS", 10},
	{"database.max_idle_conns", "DB_MAX_IDLE_CONNS", 5},
	{"database.conn_max_lifetime", "DB_CONN_MAX_LIFETIME", "30m"},
	{"database.auto_migrate", "DB_AUTO_MIGRATE", true},
	{"database.slow_threshold", "DB_SLOW_THRESHOLD", "200ms"},
	{"otlp.enabled", "OTEL_ENABLED", false},
	{"otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"},
	{"otlp.service_name", "OTEL_SERVICE_NAME", "product-catalog-api"},
	{"otlp.environment", "OTEL_ENVIRONMENT", "development"},
	{"log.level", "LOG_LEVEL", "info"},
	{"log.file", "LOG_FILE", ""},
	{"cors.allowed_origins", "CORS_ALLOWED_ORIGINS", "*"},
	{"catalog.category_list_limit", "CATALOG_CATEGORY_LIST_LIMIT", 1000},
}

// LoadConfig loads configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	for _, e := range env {
		v.SetDefault(e.key, e.def)
		if err := v.BindEnv(e.key, e.envVar); err != nil {
			return nil, fmt.Errorf("bind %s: %w", e.envVar, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:             v.GetString("server.host"),
			Port:             v.GetString("server.port"),
			ReadTimeout:      v.GetDuration("server.read_timeout"),
			WriteTimeout:     v.GetDuration("server.write_timeout"),
			IdleTimeout:      v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("server.shutdown_timeout"),
			DurationMsMetric: v.GetBool("server.duration_ms_metric"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			DSN:             v.GetString("database.dsn"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		OTLP: OTLPConfig{
			Enabled:     v.GetBool("otlp.enabled"),
			Endpoint:    v.GetString("otlp.endpoint"),
			ServiceName: v.GetString("otlp.service_name"),
			Environment: v.GetString("otlp.environment"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("log.level")),
			File:  v.GetString("log.file"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
		},
		Catalog: CatalogConfig{
			CategoryListLimit: v.GetInt("catalog.category_list_limit"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("DB_DSN is required for driver %s", c.Database.Driver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q (must be postgres, mysql, sqlite or memory)", c.Database.Driver))
	}

	if c.Database.MaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, errors.New("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS"))
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	if c.OTLP.Enabled && c.OTLP.Endpoint == "" {
		errs = append(errs, errors.New("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set"))
	}

	if c.Catalog.CategoryListLimit < 1 {
		errs = append(errs, errors.New("CATALOG_CATEGORY_LIST_LIMIT must be at least 1"))
	}

	return errors.Join(errs...)
}

// Addr is the host:port the HTTP server listens on.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
