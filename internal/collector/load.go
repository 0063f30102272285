// Load/uptime domain collector. Linux and macOS read the system load-average
// report (the column layouts differ and are split accordingly); Windows has
// no native load-average concept and approximates each figure as
// (cpu-usage / 100) x logical-core-count.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/shell"
)

// bootSecRe extracts the boot timestamp from sysctl kern.boottime:
// "{ sec = 1699999999, usec = 0 } Tue Nov 14 ...".
var bootSecRe = regexp.MustCompile(`sec = (\d+)`)

type loadStrategy interface {
	collect(ctx context.Context) models.LoadMetrics
}

// LoadCollector collects the load/uptime domain through the strategy
// selected once for the detected platform.
type LoadCollector struct {
	strategy loadStrategy
}

// NewLoadCollector creates a load collector for the given platform.
func NewLoadCollector(p platform.Kind, r shell.Runner, logger *zap.Logger) *LoadCollector {
	var s loadStrategy
	switch p {
	case platform.Linux:
		s = linuxLoad{fsRoot: "/", log: logger}
	case platform.Darwin:
		s = darwinLoad{r: r, log: logger, now: time.Now}
	case platform.Windows:
		s = windowsLoad{r: r, log: logger, now: time.Now}
	default:
		s = portableLoad{log: logger}
	}
	return &LoadCollector{strategy: s}
}

// Name returns the domain identifier.
func (c *LoadCollector) Name() string { return "system_load" }

// Default returns the fully-defaulted load result.
func (c *LoadCollector) Default() interface{} { return models.DefaultLoad() }

// Collect gathers the load result, never failing.
func (c *LoadCollector) Collect(ctx context.Context) (interface{}, error) {
	return c.strategy.collect(ctx), nil
}

// linuxLoad reads the kernel loadavg and uptime counter files.
type linuxLoad struct {
	fsRoot string
	log    *zap.Logger
}

func (s linuxLoad) collect(ctx context.Context) models.LoadMetrics {
	m := models.DefaultLoad()

	if data, err := os.ReadFile(filepath.Join(s.fsRoot, "proc/loadavg")); err == nil {
		if f := strings.Fields(string(data)); len(f) >= 3 {
			m.Load1 = parse.Decimal(f[0], 0)
			m.Load5 = parse.Decimal(f[1], 0)
			m.Load15 = parse.Decimal(f[2], 0)
		}
	}

	if data, err := os.ReadFile(filepath.Join(s.fsRoot, "proc/uptime")); err == nil {
		if f := strings.Fields(string(data)); len(f) >= 1 {
			secs := uint64(parse.Decimal(f[0], 0))
			m.UptimeSeconds = secs
			m.Uptime = humanizeUptime(secs)
		}
	}

	return m
}

// darwinLoad parses the uptime report (space-separated load columns, unlike
// Linux's comma layout) and derives uptime from the kernel boot timestamp.
type darwinLoad struct {
	r   shell.Runner
	log *zap.Logger
	now func() time.Time
}

func (s darwinLoad) collect(ctx context.Context) models.LoadMetrics {
	m := models.DefaultLoad()

	if out, err := s.r.Run(ctx, "uptime"); err == nil {
		if _, tail, ok := strings.Cut(out, "load averages:"); ok {
			f := strings.Fields(tail)
			if len(f) >= 3 {
				m.Load1 = parse.Decimal(f[0], 0)
				m.Load5 = parse.Decimal(f[1], 0)
				m.Load15 = parse.Decimal(f[2], 0)
			}
		}
	}

	if out, err := s.r.Run(ctx, "sysctl", "-n", "kern.boottime"); err == nil {
		if match := bootSecRe.FindStringSubmatch(out); match != nil {
			boot := int64(parse.Uint(match[1]))
			if now := s.now().Unix(); boot > 0 && now > boot {
				secs := uint64(now - boot)
				m.UptimeSeconds = secs
				m.Uptime = humanizeUptime(secs)
			}
		}
	}

	return m
}

// windowsLoad approximates all three load figures from the current CPU usage
// and derives uptime from the CIM last-boot-time field, with a textual
// fallback noting unavailability when conversion fails.
type windowsLoad struct {
	r   shell.Runner
	log *zap.Logger
	now func() time.Time
}

func (s windowsLoad) collect(ctx context.Context) models.LoadMetrics {
	m := models.DefaultLoad()

	usage := windowsCPUUsage(ctx, s.r)
	cores := windowsCoreCount(ctx, s.r)
	la := windowsLoadApprox(usage, cores)
	m.Load1, m.Load5, m.Load15 = la, la, la

	out, err := shell.PowerShell(ctx, s.r,
		`(Get-CimInstance Win32_OperatingSystem).LastBootUpTime.ToString("yyyy-MM-dd HH:mm:ss")`)
	if err != nil {
		m.Uptime = "Unavailable"
		return m
	}
	boot, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(out), time.Local)
	if err != nil || !boot.Before(s.now()) {
		m.Uptime = "Unavailable"
		return m
	}
	secs := uint64(s.now().Sub(boot) / time.Second)
	m.UptimeSeconds = secs
	m.Uptime = humanizeUptime(secs)

	return m
}

// portableLoad serves Unknown platforms through gopsutil.
type portableLoad struct {
	log *zap.Logger
}

func (s portableLoad) collect(ctx context.Context) models.LoadMetrics {
	m := models.DefaultLoad()

	if avg, err := load.AvgWithContext(ctx); err == nil {
		m.Load1 = validLoad(avg.Load1)
		m.Load5 = validLoad(avg.Load5)
		m.Load15 = validLoad(avg.Load15)
	}
	if secs, err := host.UptimeWithContext(ctx); err == nil {
		m.UptimeSeconds = secs
		m.Uptime = humanizeUptime(secs)
	}

	return m
}

func validLoad(v float64) float64 {
	return parse.Decimal(fmt.Sprintf("%.2f", v), 0)
}

// humanizeUptime renders seconds as "<d>d <h>h <m>m <s>s".
func humanizeUptime(secs uint64) string {
	d := secs / 86400
	h := secs % 86400 / 3600
	m := secs % 3600 / 60
	s := secs % 60
	return fmt.Sprintf("%dd %dh %dm %ds", d, h, m, s)
}
