package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
)

func TestLinuxGPUNoVendorToolsYieldsCompleteResult(t *testing.T) {
	r := &fakeRunner{tools: map[string]bool{}, out: map[string]string{}}
	s := linuxGPU{r: r, fsRoot: t.TempDir(), log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, models.GPUMetrics{Usage: "N/A", Temperature: "N/A", Memory: "N/A"}, m)
}

func TestLinuxGPUNvidia(t *testing.T) {
	r := &fakeRunner{
		tools: map[string]bool{"nvidia-smi": true},
		out:   map[string]string{"nvidia-smi": "45, 61, 2048, 8192"},
	}
	s := linuxGPU{r: r, fsRoot: t.TempDir(), log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, "45%", m.Usage)
	assert.Equal(t, "61°C", m.Temperature)
	assert.Equal(t, "2048 MiB / 8192 MiB", m.Memory)
}

func TestLinuxGPUThermalFallbackTemperatureOnly(t *testing.T) {
	root := writeTree(t, map[string]string{
		"sys/class/drm/card0/device/hwmon/hwmon2/temp1_input": "63000\n",
	})
	r := &fakeRunner{tools: map[string]bool{}, out: map[string]string{}}
	s := linuxGPU{r: r, fsRoot: root, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, "63°C", m.Temperature)
	assert.Equal(t, "N/A", m.Usage, "fallback is restricted to temperature")
	assert.Equal(t, "N/A", m.Memory)
}

func TestDarwinGPUAvailabilityAndVRAM(t *testing.T) {
	profilerOut := `Graphics/Displays:

    Apple M1 Pro:

      Chipset Model: Apple M1 Pro
      Type: GPU
      VRAM (Dynamic, Max): 10922 MB
`
	r := &fakeRunner{
		tools: map[string]bool{},
		out:   map[string]string{"system_profiler": profilerOut},
	}
	s := darwinGPU{r: r, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, "Available (Apple M1 Pro)", m.Usage)
	assert.Equal(t, "10922 MB", m.Memory)
	assert.Equal(t, "N/A", m.Temperature)
}

func TestWindowsGPUVideoController(t *testing.T) {
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"ExpandProperty Name":       "NVIDIA GeForce RTX 3070",
			"ExpandProperty AdapterRAM": "8589934592",
		},
	}
	s := windowsGPU{r: r, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, "Available (NVIDIA GeForce RTX 3070)", m.Usage)
	assert.Equal(t, "8.00 GB", m.Memory)
	assert.Equal(t, "N/A", m.Temperature, "no standard API on Windows")
}
