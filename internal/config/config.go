// Package config holds runtime configuration for the taskdeck CLI and
// server. Values come from an optional .taskdeck.yaml file overridden by
// TASKDECK_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI and server need to run
type Config struct {
	// APIBaseURL is the backend base URL the dashboard talks to
	// Default: http://localhost:8484
	APIBaseURL string `yaml:"api_base_url"`

	// APIToken is the bearer token sent on every API request
	APIToken string `yaml:"api_token"`

	// CacheTTL is the hierarchy cache freshness window
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// HTTPTimeout bounds a single API round trip
	// Default: 30s
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// ListenAddr is the address `taskdeck serve` binds to
	// Default: :8484
	ListenAddr string `yaml:"listen_addr"`

	// DBPath is the SQLite database file for the server
	// Default: .taskdeck/taskdeck.db; ":memory:" for tests
	DBPath string `yaml:"db_path"`

	// AIModel overrides the model used by `taskdeck plan`
	AIModel string `yaml:"ai_model"`
}

// Default returns a config with sensible defaults
func Default() Config {
	return Config{
		APIBaseURL:  "http://localhost:8484",
		CacheTTL:    5 * time.Minute,
		HTTPTimeout: 30 * time.Second,
		ListenAddr:  ":8484",
		DBPath:      ".taskdeck/taskdeck.db",
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive (got %s)", c.CacheTTL)
	}
	if c.CacheTTL > 24*time.Hour {
		return fmt.Errorf("cache_ttl too large (got %s, max 24h)", c.CacheTTL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive (got %s)", c.HTTPTimeout)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	return nil
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty or missing), then TASKDECK_* environment
// variables.
//
// Environment variables:
//   - TASKDECK_API_URL: backend base URL
//   - TASKDECK_API_TOKEN: bearer token
//   - TASKDECK_CACHE_TTL: freshness window, duration string like "5m"
//   - TASKDECK_HTTP_TIMEOUT: request timeout, duration string
//   - TASKDECK_LISTEN_ADDR: server listen address
//   - TASKDECK_DB_PATH: server SQLite path
//   - TASKDECK_AI_MODEL: model override for plan generation
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	parseEnvString("TASKDECK_API_URL", &cfg.APIBaseURL)
	parseEnvString("TASKDECK_API_TOKEN", &cfg.APIToken)
	parseEnvString("TASKDECK_LISTEN_ADDR", &cfg.ListenAddr)
	parseEnvString("TASKDECK_DB_PATH", &cfg.DBPath)
	parseEnvString("TASKDECK_AI_MODEL", &cfg.AIModel)
	if err := parseEnvDuration("TASKDECK_CACHE_TTL", &cfg.CacheTTL); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("TASKDECK_HTTP_TIMEOUT", &cfg.HTTPTimeout); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parseEnvString overwrites dest when the variable is set
func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

// parseEnvDuration parses a duration from an environment variable. Bare
// integers are accepted as seconds.
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		*dest = time.Duration(secs) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
