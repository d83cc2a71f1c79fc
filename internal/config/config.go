package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	AI         AIConfig         `toml:"ai"`
	Collection CollectionConfig `toml:"collection"`
	Lifecycle  LifecycleConfig  `toml:"lifecycle"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AIConfig holds settings for the local Ollama inference service.
type AIConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	// TimeoutSeconds bounds each model request.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// ThrottleSeconds is the minimum spacing between model requests. The
	// inference service is a single shared resource; overlapping requests
	// starve it.
	ThrottleSeconds int `toml:"throttle_seconds"`
}

// CollectionConfig holds collection pipeline settings.
type CollectionConfig struct {
	// FrequencyMinutes is how often the scheduler triggers a sweep.
	FrequencyMinutes int `toml:"frequency_minutes"`
	// MaxArticlesPerSource bounds how many candidate articles each source
	// contributes per sweep.
	MaxArticlesPerSource int `toml:"max_articles_per_source"`
	// SourceDelaySeconds is the pause between consecutive sources in a sweep.
	SourceDelaySeconds int `toml:"source_delay_seconds"`
	// FetchTimeoutSeconds bounds each article/page fetch.
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
}

// LifecycleConfig holds status-aging settings.
type LifecycleConfig struct {
	// ActiveToMonitoringDays is the record age at which active threats move
	// to monitoring.
	ActiveToMonitoringDays int `toml:"active_to_monitoring_days"`
	// MonitoringToResolvedDays is the record age (from creation, not from
	// the monitoring transition) at which monitoring threats resolve.
	MonitoringToResolvedDays int `toml:"monitoring_to_resolved_days"`
	// IntervalMinutes is how often the updater runs.
	IntervalMinutes int `toml:"interval_minutes"`
}

const defaultConfigContent = `[server]
host = "localhost"
port = 8000

[ai]
base_url = "http://localhost:11434"  # Ollama
model = "llama3.2:3b"
timeout_seconds = 300
throttle_seconds = 2

[collection]
frequency_minutes = 30
max_articles_per_source = 10
source_delay_seconds = 2
fetch_timeout_seconds = 30

[lifecycle]
active_to_monitoring_days = 7
monitoring_to_resolved_days = 30
interval_minutes = 60
`

// Load reads and parses the TOML config from the given path. If the file
// does not exist, a default config file is created there. Environment
// variables override values from the file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently being
	// replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("ai", "throttle_seconds") {
		if cfg.AI.ThrottleSeconds < 0 {
			return fmt.Errorf("invalid ai.throttle_seconds %d: must be >= 0", cfg.AI.ThrottleSeconds)
		}
	}
	if md.IsDefined("collection", "max_articles_per_source") {
		if cfg.Collection.MaxArticlesPerSource < 1 {
			return fmt.Errorf("invalid collection.max_articles_per_source %d: must be >= 1", cfg.Collection.MaxArticlesPerSource)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "http://localhost:11434"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "llama3.2:3b"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 300
	}
	if cfg.AI.ThrottleSeconds == 0 {
		cfg.AI.ThrottleSeconds = 2
	}
	if cfg.Collection.FrequencyMinutes == 0 {
		cfg.Collection.FrequencyMinutes = 30
	}
	if cfg.Collection.MaxArticlesPerSource == 0 {
		cfg.Collection.MaxArticlesPerSource = 10
	}
	if cfg.Collection.SourceDelaySeconds == 0 {
		cfg.Collection.SourceDelaySeconds = 2
	}
	if cfg.Collection.FetchTimeoutSeconds == 0 {
		cfg.Collection.FetchTimeoutSeconds = 30
	}
	if cfg.Lifecycle.ActiveToMonitoringDays == 0 {
		cfg.Lifecycle.ActiveToMonitoringDays = 7
	}
	if cfg.Lifecycle.MonitoringToResolvedDays == 0 {
		cfg.Lifecycle.MonitoringToResolvedDays = 30
	}
	if cfg.Lifecycle.IntervalMinutes == 0 {
		cfg.Lifecycle.IntervalMinutes = 60
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := os.Getenv("WATCHKEEPER_AI_MODEL"); v != "" {
		cfg.AI.Model = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}
	if cfg.Lifecycle.ActiveToMonitoringDays >= cfg.Lifecycle.MonitoringToResolvedDays {
		return fmt.Errorf("lifecycle: active_to_monitoring_days (%d) must be less than monitoring_to_resolved_days (%d)",
			cfg.Lifecycle.ActiveToMonitoringDays, cfg.Lifecycle.MonitoringToResolvedDays)
	}
	return nil
}
