package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
)

func sampleSnapshot() models.Snapshot {
	return models.Snapshot{
		Timestamp: "2026-03-14T09:30:00Z",
		Hostname:  "testhost",
		CPU: models.CPUMetrics{
			UsagePercent: 45.2, Cores: 8, Model: "Test CPU @ 3.2GHz",
			Temperature: "55°C", LoadAverage: "1.00, 0.80, 0.60",
		},
		GPU: models.GPUMetrics{Usage: "30", Temperature: "61°C", Memory: "2048 MiB / 8192 MiB"},
		Disk: []models.DiskEntry{
			{Filesystem: "/dev/sda1", Size: "100G", Used: "72G", Available: "28G", UsePercent: 72, MountedOn: "/"},
			{Filesystem: "devfs", Size: "190K", Used: "190K", Available: "0B", UsePercent: 100, MountedOn: "/dev"},
			{Filesystem: "map auto_home", Size: "0B", Used: "0B", Available: "0B", UsePercent: 0, MountedOn: "/home"},
		},
		Memory: models.MemoryMetrics{
			TotalMB: 16000, UsedMB: 8000, FreeMB: 4000, AvailableMB: 8000, UsagePercent: 50,
		},
		Network: []models.NetworkEntry{
			{Interface: "eth0", IPAddress: "10.0.0.2", RxBytes: 1536, TxBytes: 2097152, RxPackets: 10, TxPackets: 20},
			{Interface: "eth1", IPAddress: "N/A"},
		},
		SystemLoad: models.LoadMetrics{Load1: 1.0, Load5: 0.8, Load15: 0.6, Uptime: "1d 2h 3m 4s", UptimeSeconds: 93784},
	}
}

func writeSnapshot(t *testing.T, snap models.Snapshot) string {
	t.Helper()
	data, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRenderDashboard(t *testing.T) {
	metricsPath := writeSnapshot(t, sampleSnapshot())
	outPath := filepath.Join(t.TempDir(), "out", "dashboard.html")

	r := New(zap.NewNop())
	require.NoError(t, r.Render(metricsPath, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "testhost")
	assert.Contains(t, html, "2026-03-14T09:30:00Z")
	assert.Contains(t, html, "Test CPU @ 3.2GHz")
	assert.Contains(t, html, "/dev/sda1")
	assert.Contains(t, html, "eth0")
	assert.Contains(t, html, "1d 2h 3m 4s")

	// Pseudo filesystems and idle interfaces are filtered from the page.
	assert.NotContains(t, html, "devfs")
	assert.NotContains(t, html, "auto_home")
	assert.NotContains(t, html, "eth1")

	// Byte counters are humanized.
	assert.Contains(t, html, "1.50 KB")
	assert.Contains(t, html, "2.00 MB")
}

func TestRenderMissingSnapshot(t *testing.T) {
	r := New(zap.NewNop())
	err := r.Render(filepath.Join(t.TempDir(), "absent.json"), filepath.Join(t.TempDir(), "out.html"))
	assert.Error(t, err)
}

func TestRenderCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	r := New(zap.NewNop())
	err := r.Render(path, filepath.Join(t.TempDir(), "out.html"))
	assert.Error(t, err)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1073741824, "1.00 GB"},
		{1099511627776, "1.00 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in))
	}
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "#28a745", StatusColor(0))
	assert.Equal(t, "#28a745", StatusColor(49.9))
	assert.Equal(t, "#ffc107", StatusColor(50))
	assert.Equal(t, "#ffc107", StatusColor(79.9))
	assert.Equal(t, "#dc3545", StatusColor(80))
	assert.Equal(t, "#dc3545", StatusColor(100))
}
