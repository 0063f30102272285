// Package config handles configuration loading from YAML files and
// environment variables. Precedence: CLI flags > environment variables >
// optional .env file > config file > defaults. The resulting struct is
// passed explicitly into the components that need it — there is no ambient
// global state.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hostpulse/agent/internal/alert"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "5s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all agent configuration.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	Paths      PathsConfig      `yaml:"paths"`
	Alerts     alert.Thresholds `yaml:"alerts"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CollectionConfig holds the polling-loop settings.
type CollectionConfig struct {
	Interval   Duration `yaml:"interval"`
	Continuous bool     `yaml:"continuous"`
}

// PathsConfig holds the output file locations.
type PathsConfig struct {
	MetricsFile   string `yaml:"metrics_file"`
	DashboardFile string `yaml:"dashboard_file"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Collection: CollectionConfig{
			Interval:   Duration{5 * time.Second},
			Continuous: false,
		},
		Paths: PathsConfig{
			MetricsFile:   "reports/metrics.json",
			DashboardFile: "reports/dashboard.html",
		},
		Alerts: alert.DefaultThresholds(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file and merges it over the defaults.
// A missing file is not an error — defaults plus environment overrides apply.
// An optional .env file in the working directory is loaded first so that
// HP_* variables may live there.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // best effort; absence is the normal case

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies HP_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HP_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Collection.Interval = Duration{parsed}
		}
	}
	if v := os.Getenv("HP_METRICS_FILE"); v != "" {
		cfg.Paths.MetricsFile = v
	}
	if v := os.Getenv("HP_DASHBOARD_FILE"); v != "" {
		cfg.Paths.DashboardFile = v
	}
	if v := os.Getenv("HP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Collection.Interval.Duration <= 0 {
		return fmt.Errorf("collection interval must be positive")
	}
	if c.Paths.MetricsFile == "" {
		return fmt.Errorf("metrics file path is required")
	}
	for name, v := range map[string]float64{
		"cpu":    c.Alerts.CPUPercent,
		"memory": c.Alerts.MemoryPercent,
		"disk":   c.Alerts.DiskPercent,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s threshold must be within 0-100, got %v", name, v)
		}
	}
	return nil
}
