// CPU domain collector — usage percent, core count, model, temperature,
// and the load-average string, normalized across platform data sources.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/shell"
)

// celsiusRe extracts a sensor reading like "+45.0°C" from sensors output.
var celsiusRe = regexp.MustCompile(`\+?(\d+(?:\.\d+)?)°C`)

type cpuStrategy interface {
	collect(ctx context.Context) models.CPUMetrics
}

// CPUCollector collects the CPU domain through the strategy selected once
// for the detected platform.
type CPUCollector struct {
	strategy cpuStrategy
}

// NewCPUCollector creates a CPU collector for the given platform.
func NewCPUCollector(p platform.Kind, r shell.Runner, logger *zap.Logger) *CPUCollector {
	var s cpuStrategy
	switch p {
	case platform.Linux:
		s = linuxCPU{r: r, fsRoot: "/", log: logger}
	case platform.Darwin:
		s = darwinCPU{r: r, log: logger}
	case platform.Windows:
		s = windowsCPU{r: r, log: logger}
	default:
		s = portableCPU{log: logger}
	}
	return &CPUCollector{strategy: s}
}

// Name returns the domain identifier.
func (c *CPUCollector) Name() string { return "cpu" }

// Default returns the fully-defaulted CPU result.
func (c *CPUCollector) Default() interface{} { return models.DefaultCPU() }

// Collect gathers the CPU result. It never returns an error: each field
// degrades to its typed default independently.
func (c *CPUCollector) Collect(ctx context.Context) (interface{}, error) {
	return c.strategy.collect(ctx), nil
}

// linuxCPU derives usage from an instantaneous top snapshot, core count from
// nproc with a /proc/cpuinfo fallback, and temperature from sensors with a
// thermal-zone fallback. fsRoot is "/" in production and a temp tree in tests.
type linuxCPU struct {
	r      shell.Runner
	fsRoot string
	log    *zap.Logger
}

func (s linuxCPU) collect(ctx context.Context) models.CPUMetrics {
	m := models.DefaultCPU()

	if out, err := s.r.Run(ctx, "top", "-bn1"); err == nil {
		m.UsagePercent = usageFromIdle(topIdleLinux(out))
	}

	m.Cores = s.coreCount(ctx)
	m.Model = s.model()
	m.Temperature = s.temperature(ctx)

	if data, err := os.ReadFile(filepath.Join(s.fsRoot, "proc/loadavg")); err == nil {
		if f := strings.Fields(string(data)); len(f) >= 3 {
			m.LoadAverage = strings.Join(f[:3], ", ")
		}
	}

	return m
}

func (s linuxCPU) coreCount(ctx context.Context) int {
	if out, err := s.r.Run(ctx, "nproc"); err == nil {
		if n := parse.Uint(out); n > 0 {
			return int(n)
		}
	}
	data, err := os.ReadFile(filepath.Join(s.fsRoot, "proc/cpuinfo"))
	if err != nil {
		return 0
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "processor") {
			n++
		}
	}
	return n
}

func (s linuxCPU) model() string {
	data, err := os.ReadFile(filepath.Join(s.fsRoot, "proc/cpuinfo"))
	if err != nil {
		return "Unknown"
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "model name") {
			if _, v, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return "Unknown"
}

func (s linuxCPU) temperature(ctx context.Context) string {
	if s.r.LookPath("sensors") {
		if out, err := s.r.Run(ctx, "sensors"); err == nil {
			for _, line := range strings.Split(out, "\n") {
				if !strings.Contains(line, "Package id 0") && !strings.Contains(line, "Core 0") &&
					!strings.Contains(line, "Tctl") {
					continue
				}
				if m := celsiusRe.FindStringSubmatch(line); m != nil {
					return m[1] + "°C"
				}
			}
		}
	}

	// Thermal-zone fallback: raw millidegrees divided by 1000.
	data, err := os.ReadFile(filepath.Join(s.fsRoot, "sys/class/thermal/thermal_zone0/temp"))
	if err != nil {
		return "N/A"
	}
	milli := parse.Uint(string(data))
	if milli == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d°C", milli/1000)
}

// topIdleLinux extracts the idle percentage from a "%Cpu(s): ... 97.9 id ..."
// line. Returns -1 when no valid idle figure is present.
func topIdleLinux(out string) float64 {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Cpu(s)") {
			continue
		}
		for _, tok := range strings.Split(line, ",") {
			if !strings.Contains(tok, "id") {
				continue
			}
			f := strings.Fields(strings.TrimSpace(tok))
			if len(f) > 0 {
				return parse.Decimal(f[0], -1)
			}
		}
	}
	return -1
}

// darwinCPU uses top for usage and sysctl kernel state for the rest.
type darwinCPU struct {
	r   shell.Runner
	log *zap.Logger
}

func (s darwinCPU) collect(ctx context.Context) models.CPUMetrics {
	m := models.DefaultCPU()

	if out, err := s.r.Run(ctx, "top", "-l", "1"); err == nil {
		m.UsagePercent = usageFromIdle(topIdleDarwin(out))
	}

	if out, err := s.r.Run(ctx, "sysctl", "-n", "hw.ncpu"); err == nil {
		m.Cores = int(parse.Uint(out))
	}
	if out, err := s.r.Run(ctx, "sysctl", "-n", "machdep.cpu.brand_string"); err == nil && out != "" {
		m.Model = out
	}

	// Temperature only if the optional utility is installed.
	if s.r.LookPath("osx-cpu-temp") {
		if out, err := s.r.Run(ctx, "osx-cpu-temp"); err == nil && out != "" {
			m.Temperature = out
		}
	}

	if out, err := s.r.Run(ctx, "sysctl", "-n", "vm.loadavg"); err == nil {
		if f := strings.Fields(strings.Trim(out, "{} ")); len(f) >= 3 {
			m.LoadAverage = strings.Join(f[:3], ", ")
		}
	}

	return m
}

// topIdleDarwin extracts idle from "CPU usage: 7.89% user, 10.52% sys, 81.57% idle".
func topIdleDarwin(out string) float64 {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "CPU usage") {
			continue
		}
		for _, tok := range strings.Split(line, ",") {
			if !strings.Contains(tok, "idle") {
				continue
			}
			f := strings.Fields(strings.TrimSpace(tok))
			if len(f) > 0 {
				return parse.Decimal(strings.TrimSuffix(f[0], "%"), -1)
			}
		}
	}
	return -1
}

// windowsCPU routes every field through WMI/CIM queries. Temperature has no
// standard API and is always "N/A".
type windowsCPU struct {
	r   shell.Runner
	log *zap.Logger
}

func (s windowsCPU) collect(ctx context.Context) models.CPUMetrics {
	m := models.DefaultCPU()

	m.UsagePercent = windowsCPUUsage(ctx, s.r)
	m.Cores = windowsCoreCount(ctx, s.r)

	if out, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_Processor | Select-Object -First 1 -ExpandProperty Name)"); err == nil && out != "" {
		m.Model = out
	}

	la := windowsLoadApprox(m.UsagePercent, m.Cores)
	m.LoadAverage = fmt.Sprintf("%.2f, %.2f, %.2f", la, la, la)

	return m
}

// portableCPU serves Unknown platforms through gopsutil.
type portableCPU struct {
	log *zap.Logger
}

func (s portableCPU) collect(ctx context.Context) models.CPUMetrics {
	m := models.DefaultCPU()

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		m.UsagePercent = parse.Round1(pct[0])
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		m.Cores = n
	}
	if info, err := cpu.InfoWithContext(ctx); err == nil && len(info) > 0 && info[0].ModelName != "" {
		m.Model = info[0].ModelName
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.LoadAverage = fmt.Sprintf("%.2f, %.2f, %.2f", avg.Load1, avg.Load5, avg.Load15)
	}

	return m
}

// usageFromIdle converts an idle percentage into a usage percentage,
// coercing invalid input to 0 per the degrade-not-fail contract.
func usageFromIdle(idle float64) float64 {
	if idle < 0 || idle > 100 {
		return 0
	}
	return parse.Round1(100 - idle)
}
