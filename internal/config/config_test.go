package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5*time.Second, cfg.Collection.Interval.Duration)
	assert.False(t, cfg.Collection.Continuous)
	assert.Equal(t, "reports/metrics.json", cfg.Paths.MetricsFile)
	assert.Equal(t, "reports/dashboard.html", cfg.Paths.DashboardFile)
	assert.Equal(t, 80.0, cfg.Alerts.CPUPercent)
	assert.Equal(t, 85.0, cfg.Alerts.MemoryPercent)
	assert.Equal(t, 90.0, cfg.Alerts.DiskPercent)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Paths.MetricsFile, cfg.Paths.MetricsFile)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostpulse.yaml")
	content := `
collection:
  interval: 30s
  continuous: true
paths:
  metrics_file: /var/lib/hostpulse/metrics.json
alerts:
  cpu_percent: 70
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Collection.Interval.Duration)
	assert.True(t, cfg.Collection.Continuous)
	assert.Equal(t, "/var/lib/hostpulse/metrics.json", cfg.Paths.MetricsFile)
	assert.Equal(t, 70.0, cfg.Alerts.CPUPercent)
	// Untouched fields keep their defaults.
	assert.Equal(t, "reports/dashboard.html", cfg.Paths.DashboardFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collection:\n  interval: 30s\n"), 0o644))

	t.Setenv("HP_INTERVAL", "2m")
	t.Setenv("HP_METRICS_FILE", "/tmp/hp.json")
	t.Setenv("HP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Collection.Interval.Duration)
	assert.Equal(t, "/tmp/hp.json", cfg.Paths.MetricsFile)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidEnvDurationIgnored(t *testing.T) {
	t.Setenv("HP_INTERVAL", "soon")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Collection.Interval.Duration)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collection: [broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero interval",
			mutate:  func(c *Config) { c.Collection.Interval = Duration{0} },
			wantErr: "interval",
		},
		{
			name:    "empty metrics path",
			mutate:  func(c *Config) { c.Paths.MetricsFile = "" },
			wantErr: "metrics file",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Alerts.CPUPercent = 150 },
			wantErr: "threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	d := Duration{90 * time.Second}

	out, err := yaml.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "1m30s\n", string(out))

	var back Duration
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, d.Duration, back.Duration)
}

func TestDurationInvalidValue(t *testing.T) {
	var d Duration
	err := yaml.Unmarshal([]byte(`"whenever"`), &d)
	assert.Error(t, err)
}
