// GPU domain collector — best-effort by nature: vendor tool presence
// determines the source, and absence of every tool still yields a complete
// result with all fields "N/A".
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/shell"
)

type gpuStrategy interface {
	collect(ctx context.Context) models.GPUMetrics
}

// GPUCollector collects the GPU domain through the strategy selected once
// for the detected platform.
type GPUCollector struct {
	strategy gpuStrategy
}

// NewGPUCollector creates a GPU collector for the given platform.
func NewGPUCollector(p platform.Kind, r shell.Runner, logger *zap.Logger) *GPUCollector {
	var s gpuStrategy
	switch p {
	case platform.Linux:
		s = linuxGPU{r: r, fsRoot: "/", log: logger}
	case platform.Darwin:
		s = darwinGPU{r: r, log: logger}
	case platform.Windows:
		s = windowsGPU{r: r, log: logger}
	default:
		s = unavailableGPU{}
	}
	return &GPUCollector{strategy: s}
}

// Name returns the domain identifier.
func (c *GPUCollector) Name() string { return "gpu" }

// Default returns the fully-defaulted GPU result.
func (c *GPUCollector) Default() interface{} { return models.DefaultGPU() }

// Collect gathers the GPU result, never failing.
func (c *GPUCollector) Collect(ctx context.Context) (interface{}, error) {
	return c.strategy.collect(ctx), nil
}

// linuxGPU tries nvidia-smi, then rocm-smi, then a kernel thermal-sensor
// fallback restricted to temperature only.
type linuxGPU struct {
	r      shell.Runner
	fsRoot string
	log    *zap.Logger
}

func (s linuxGPU) collect(ctx context.Context) models.GPUMetrics {
	if s.r.LookPath("nvidia-smi") {
		if m, ok := s.nvidia(ctx); ok {
			return m
		}
	}
	if s.r.LookPath("rocm-smi") {
		if m, ok := s.rocm(ctx); ok {
			return m
		}
	}
	return s.thermalFallback()
}

func (s linuxGPU) nvidia(ctx context.Context) (models.GPUMetrics, bool) {
	out, err := s.r.Run(ctx, "nvidia-smi",
		"--query-gpu=utilization.gpu,temperature.gpu,memory.used,memory.total",
		"--format=csv,noheader,nounits")
	if err != nil {
		return models.GPUMetrics{}, false
	}
	line, _, _ := strings.Cut(out, "\n")
	f := strings.Split(line, ",")
	if len(f) < 4 {
		return models.GPUMetrics{}, false
	}
	for i := range f {
		f[i] = strings.TrimSpace(f[i])
	}

	m := models.DefaultGPU()
	if v := parse.Decimal(f[0], -1); v >= 0 {
		m.Usage = fmt.Sprintf("%.0f%%", v)
	}
	if v := parse.Decimal(f[1], -1); v >= 0 {
		m.Temperature = fmt.Sprintf("%.0f°C", v)
	}
	if used, total := parse.Uint(f[2]), parse.Uint(f[3]); total > 0 {
		m.Memory = fmt.Sprintf("%d MiB / %d MiB", used, total)
	}
	return m, true
}

func (s linuxGPU) rocm(ctx context.Context) (models.GPUMetrics, bool) {
	out, err := s.r.Run(ctx, "rocm-smi", "--showuse", "--showtemp", "--showmeminfo", "vram")
	if err != nil {
		return models.GPUMetrics{}, false
	}

	m := models.DefaultGPU()
	var vramUsed, vramTotal uint64
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "GPU use (%)"):
			if v := parse.Decimal(lastField(line), -1); v >= 0 {
				m.Usage = fmt.Sprintf("%.0f%%", v)
			}
		case strings.Contains(line, "Temperature") && strings.Contains(line, "edge"):
			if v := parse.Decimal(lastField(line), -1); v >= 0 {
				m.Temperature = fmt.Sprintf("%.1f°C", v)
			}
		case strings.Contains(line, "VRAM Total Memory"):
			vramTotal = parse.Uint(lastField(line))
		case strings.Contains(line, "VRAM Total Used Memory"):
			vramUsed = parse.Uint(lastField(line))
		}
	}
	if vramTotal > 0 {
		m.Memory = fmt.Sprintf("%s / %s", parse.HumanSize(vramUsed), parse.HumanSize(vramTotal))
	}
	return m, true
}

// thermalFallback scans the DRM hwmon tree for a GPU temperature. Usage and
// memory stay "N/A" — the kernel exposes no vendor-neutral counters for them.
func (s linuxGPU) thermalFallback() models.GPUMetrics {
	m := models.DefaultGPU()
	matches, _ := filepath.Glob(filepath.Join(s.fsRoot, "sys/class/drm/card*/device/hwmon/hwmon*/temp1_input"))
	for _, p := range matches {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if milli := parse.Uint(string(data)); milli > 0 {
			m.Temperature = fmt.Sprintf("%d°C", milli/1000)
			break
		}
	}
	return m
}

// darwinGPU queries the system profiler for display hardware; utilization is
// not obtainable, so usage reports availability plus the chipset name.
type darwinGPU struct {
	r   shell.Runner
	log *zap.Logger
}

func (s darwinGPU) collect(ctx context.Context) models.GPUMetrics {
	m := models.DefaultGPU()

	out, err := s.r.Run(ctx, "system_profiler", "SPDisplaysDataType")
	if err == nil {
		for _, line := range strings.Split(out, "\n") {
			trimmed := strings.TrimSpace(line)
			if name, ok := strings.CutPrefix(trimmed, "Chipset Model:"); ok {
				m.Usage = fmt.Sprintf("Available (%s)", strings.TrimSpace(name))
				continue
			}
			if strings.HasPrefix(trimmed, "VRAM") {
				if _, v, ok := strings.Cut(trimmed, ":"); ok {
					m.Memory = strings.TrimSpace(v)
				}
			}
		}
	}

	if s.r.LookPath("osx-cpu-temp") {
		if out, err := s.r.Run(ctx, "osx-cpu-temp", "-g"); err == nil {
			out = strings.TrimSpace(out)
			if out != "" && !strings.HasPrefix(out, "0.0") {
				m.Temperature = out
			}
		}
	}

	return m
}

// windowsGPU queries the video controller via CIM. True utilization is not
// obtainable without vendor tooling; temperature has no standard API.
type windowsGPU struct {
	r   shell.Runner
	log *zap.Logger
}

func (s windowsGPU) collect(ctx context.Context) models.GPUMetrics {
	m := models.DefaultGPU()

	name, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_VideoController | Select-Object -First 1 -ExpandProperty Name)")
	if err == nil && name != "" {
		m.Usage = fmt.Sprintf("Available (%s)", name)
	}

	ram, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_VideoController | Select-Object -First 1 -ExpandProperty AdapterRAM)")
	if err == nil {
		if bytes := parse.Uint(ram); bytes > 0 {
			m.Memory = fmt.Sprintf("%.2f GB", float64(bytes)/(1024*1024*1024))
		}
	}

	return m
}

// unavailableGPU serves Unknown platforms: a complete, well-formed result
// with every field "N/A".
type unavailableGPU struct{}

func (unavailableGPU) collect(context.Context) models.GPUMetrics {
	return models.DefaultGPU()
}

func lastField(line string) string {
	f := strings.Fields(line)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}
