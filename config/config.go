// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/minapi/domain/entity"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MINAPI_"

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Seed    SeedConfig    `yaml:"seed"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	DebugRoutes     bool          `yaml:"debug_routes"` // Mounts GET /throw
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// AuthConfig configures how caller tags are read and which tag guards the
// account group.
type AuthConfig struct {
	TagsHeader string `yaml:"tags_header"`
	AdminTag   string `yaml:"admin_tag"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SeedConfig lists records loaded into the stores at startup.
type SeedConfig struct {
	People   []entity.Person          `yaml:"people"`
	Products []entity.Product         `yaml:"products"`
	Housing  []entity.HousingLocation `yaml:"housing"`
	Accounts []entity.Account         `yaml:"accounts"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	setDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file. Keys absent from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes, applying environment
// expansion, MINAPI_* overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	MINAPI_SERVER_HOST              - Server host (default: 0.0.0.0)
//	MINAPI_SERVER_PORT              - Server port (default: 8080)
//	MINAPI_SERVER_READ_TIMEOUT      - e.g. 30s
//	MINAPI_SERVER_WRITE_TIMEOUT     - e.g. 60s
//	MINAPI_SERVER_SHUTDOWN_TIMEOUT  - e.g. 15s
//	MINAPI_SERVER_REQUEST_TIMEOUT   - e.g. 60s
//	MINAPI_SERVER_MAX_BODY_BYTES    - Request body limit (default: 1048576)
//	MINAPI_SERVER_DEBUG_ROUTES      - Mount GET /throw (default: false)
//	MINAPI_AUTH_TAGS_HEADER         - Caller tags header (default: X-Caller-Tags)
//	MINAPI_AUTH_ADMIN_TAG           - Tag guarding /account (default: admin)
//	MINAPI_LOG_LEVEL                - debug, info, warn, error (default: info)
//	MINAPI_LOG_FORMAT               - json or console (default: json)
//	MINAPI_METRICS_ENABLED          - Enable the metrics endpoint (default: true)
//	MINAPI_METRICS_PATH             - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadWithFallback loads the file when it exists and falls back to the
// environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies MINAPI_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = parseBool(v)
		}
	}

	// Server configuration
	str("SERVER_HOST", &cfg.Server.Host)
	if v := os.Getenv(EnvPrefix + "SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSERVER_PORT: %w", EnvPrefix, err))
		} else {
			cfg.Server.Port = port
		}
	}
	dur("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	dur("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	dur("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	dur("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	if v := os.Getenv(EnvPrefix + "SERVER_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSERVER_MAX_BODY_BYTES: %w", EnvPrefix, err))
		} else {
			cfg.Server.MaxBodyBytes = n
		}
	}
	boolean("SERVER_DEBUG_ROUTES", &cfg.Server.DebugRoutes)

	// Auth configuration
	str("AUTH_TAGS_HEADER", &cfg.Auth.TagsHeader)
	str("AUTH_ADMIN_TAG", &cfg.Auth.AdminTag)

	// Logging configuration
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	// Metrics configuration
	boolean("METRICS_ENABLED", &cfg.Metrics.Enabled)
	str("METRICS_PATH", &cfg.Metrics.Path)

	return errors.Join(errs...)
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}

	if cfg.Auth.TagsHeader == "" {
		cfg.Auth.TagsHeader = "X-Caller-Tags"
	}
	if cfg.Auth.AdminTag == "" {
		cfg.Auth.AdminTag = "admin"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks a fully defaulted configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must not be negative")
	}

	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}
	switch cfg.Metrics.Path {
	case "/", "/health", "/version":
		return fmt.Errorf("metrics.path %q collides with a reserved path", cfg.Metrics.Path)
	}

	if strings.TrimSpace(cfg.Auth.TagsHeader) == "" {
		return fmt.Errorf("auth.tags_header must not be blank")
	}
	if strings.ContainsAny(cfg.Auth.AdminTag, ", ") {
		return fmt.Errorf("auth.admin_tag must not contain commas or spaces")
	}

	return validateSeed(cfg.Seed)
}

func validateSeed(seed SeedConfig) error {
	check := func(section string, i int, v entity.Validator) error {
		if missing := v.Missing(); len(missing) > 0 {
			return fmt.Errorf("seed.%s[%d]: missing %s", section, i, strings.Join(missing, ", "))
		}
		return nil
	}
	for i, v := range seed.People {
		if err := check("people", i, v); err != nil {
			return err
		}
	}
	for i, v := range seed.Products {
		if err := check("products", i, v); err != nil {
			return err
		}
	}
	for i, v := range seed.Housing {
		if err := check("housing", i, v); err != nil {
			return err
		}
	}
	for i, v := range seed.Accounts {
		if err := check("accounts", i, v); err != nil {
			return err
		}
	}
	return nil
}
