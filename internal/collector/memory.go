// Memory domain collector — physical and swap figures normalized to
// megabytes. The macOS strategy reconstructs totals from paging statistics
// when the kernel memory-size query fails.
package collector

import (
	"context"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/shell"
)

var (
	// pageSizeRe reads the page size from the vm_stat banner line.
	pageSizeRe = regexp.MustCompile(`page size of (\d+) bytes`)

	// swapUsageRe extracts the megabyte figures from sysctl vm.swapusage:
	// "total = 2048.00M  used = 1024.00M  free = 1024.00M (encrypted)"
	swapUsageRe = regexp.MustCompile(`(total|used|free) = (\d+(?:\.\d+)?)M`)
)

type memoryStrategy interface {
	collect(ctx context.Context) models.MemoryMetrics
}

// MemoryCollector collects the memory domain through the strategy selected
// once for the detected platform.
type MemoryCollector struct {
	strategy memoryStrategy
}

// NewMemoryCollector creates a memory collector for the given platform.
func NewMemoryCollector(p platform.Kind, r shell.Runner, logger *zap.Logger) *MemoryCollector {
	var s memoryStrategy
	switch p {
	case platform.Linux:
		s = linuxMemory{r: r, log: logger}
	case platform.Darwin:
		s = darwinMemory{r: r, log: logger}
	case platform.Windows:
		s = windowsMemory{r: r, log: logger}
	default:
		s = portableMemory{log: logger}
	}
	return &MemoryCollector{strategy: s}
}

// Name returns the domain identifier.
func (c *MemoryCollector) Name() string { return "memory" }

// Default returns the fully-defaulted memory result (all zeros).
func (c *MemoryCollector) Default() interface{} { return models.MemoryMetrics{} }

// Collect gathers the memory result, never failing.
func (c *MemoryCollector) Collect(ctx context.Context) (interface{}, error) {
	return c.strategy.collect(ctx), nil
}

// linuxMemory reads everything from a single free-memory-table query.
type linuxMemory struct {
	r   shell.Runner
	log *zap.Logger
}

func (s linuxMemory) collect(ctx context.Context) models.MemoryMetrics {
	var m models.MemoryMetrics

	out, err := s.r.Run(ctx, "free", "-m")
	if err != nil {
		s.log.Warn("free unavailable", zap.Error(err))
		return m
	}

	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(line)
		switch {
		case strings.HasPrefix(line, "Mem:") && len(f) >= 7:
			m.TotalMB = parse.Decimal(f[1], 0)
			m.UsedMB = parse.Decimal(f[2], 0)
			m.FreeMB = parse.Decimal(f[3], 0)
			m.AvailableMB = parse.Decimal(f[6], 0)
		case strings.HasPrefix(line, "Swap:") && len(f) >= 4:
			m.SwapTotalMB = parse.Decimal(f[1], 0)
			m.SwapUsedMB = parse.Decimal(f[2], 0)
			m.SwapFreeMB = parse.Decimal(f[3], 0)
		}
	}

	m.UsagePercent = usagePercent(m.UsedMB, m.TotalMB)
	m.SwapUsagePercent = usagePercent(m.SwapUsedMB, m.SwapTotalMB)
	return m
}

// darwinMemory derives used memory from paging statistics. Total comes from
// the kernel memory-size query, else the sum of all known page categories,
// else used+available, else used*1.2 — in that order.
type darwinMemory struct {
	r   shell.Runner
	log *zap.Logger
}

func (s darwinMemory) collect(ctx context.Context) models.MemoryMetrics {
	var m models.MemoryMetrics

	out, err := s.r.Run(ctx, "vm_stat")
	if err != nil {
		s.log.Warn("vm_stat unavailable", zap.Error(err))
		return m
	}

	pageSize := uint64(4096)
	if match := pageSizeRe.FindStringSubmatch(out); match != nil {
		if v := parse.Uint(match[1]); v > 0 {
			pageSize = v
		}
	}

	pages := map[string]uint64{}
	for _, line := range strings.Split(out, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		pages[strings.TrimSpace(name)] = parse.Uint(strings.TrimSuffix(strings.TrimSpace(value), "."))
	}

	toMB := func(pageCount uint64) float64 {
		return float64(pageCount*pageSize) / (1024 * 1024)
	}

	m.FreeMB = toMB(pages["Pages free"])
	m.UsedMB = toMB(pages["Pages active"] + pages["Pages inactive"] + pages["Pages wired down"])
	m.AvailableMB = m.FreeMB

	// Total: kernel query first.
	if out, err := s.r.Run(ctx, "sysctl", "-n", "hw.memsize"); err == nil {
		m.TotalMB = float64(parse.Uint(out)) / (1024 * 1024)
	}
	// Reconstruct by summing every known page category when the query fails.
	if m.TotalMB == 0 {
		var sum uint64
		for _, key := range []string{
			"Pages free", "Pages active", "Pages inactive", "Pages wired down",
			"Pages speculative", "Pages throttled", "Pages occupied by compressor",
		} {
			sum += pages[key]
		}
		m.TotalMB = toMB(sum)
	}
	// Final fallback: estimate from used+available, or used*1.2.
	if m.TotalMB == 0 || m.TotalMB < m.UsedMB {
		if m.UsedMB+m.AvailableMB > 0 {
			m.TotalMB = m.UsedMB + m.AvailableMB
		} else {
			m.TotalMB = m.UsedMB * 1.2
		}
	}

	if out, err := s.r.Run(ctx, "sysctl", "-n", "vm.swapusage"); err == nil {
		for _, match := range swapUsageRe.FindAllStringSubmatch(out, -1) {
			v := parse.Decimal(match[2], 0)
			switch match[1] {
			case "total":
				m.SwapTotalMB = v
			case "used":
				m.SwapUsedMB = v
			case "free":
				m.SwapFreeMB = v
			}
		}
	}

	m.UsagePercent = usagePercent(m.UsedMB, m.TotalMB)
	m.SwapUsagePercent = usagePercent(m.SwapUsedMB, m.SwapTotalMB)
	return m
}

// windowsMemory reads physical totals from CIM (bytes and KB normalized to
// MB) and sums the page files for swap.
type windowsMemory struct {
	r   shell.Runner
	log *zap.Logger
}

func (s windowsMemory) collect(ctx context.Context) models.MemoryMetrics {
	var m models.MemoryMetrics

	if out, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_ComputerSystem).TotalPhysicalMemory"); err == nil {
		m.TotalMB = float64(parse.Uint(out)) / (1024 * 1024)
	}
	if out, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_OperatingSystem).FreePhysicalMemory"); err == nil {
		m.FreeMB = float64(parse.Uint(out)) / 1024 // KB -> MB
	}
	if m.TotalMB > 0 {
		m.UsedMB = m.TotalMB - m.FreeMB
	}
	m.AvailableMB = m.FreeMB

	// Page files summed across all entries (Measure-Object -Sum semantics).
	if out, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_PageFileUsage | Measure-Object -Property AllocatedBaseSize -Sum).Sum"); err == nil {
		m.SwapTotalMB = parse.Decimal(out, 0)
	}
	if out, err := shell.PowerShell(ctx, s.r,
		"(Get-CimInstance Win32_PageFileUsage | Measure-Object -Property CurrentUsage -Sum).Sum"); err == nil {
		m.SwapUsedMB = parse.Decimal(out, 0)
	}
	if m.SwapTotalMB >= m.SwapUsedMB {
		m.SwapFreeMB = m.SwapTotalMB - m.SwapUsedMB
	}

	m.UsagePercent = usagePercent(m.UsedMB, m.TotalMB)
	m.SwapUsagePercent = usagePercent(m.SwapUsedMB, m.SwapTotalMB)
	return m
}

// portableMemory serves Unknown platforms through gopsutil.
type portableMemory struct {
	log *zap.Logger
}

func (s portableMemory) collect(ctx context.Context) models.MemoryMetrics {
	var m models.MemoryMetrics

	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.TotalMB = float64(v.Total) / (1024 * 1024)
		m.UsedMB = float64(v.Used) / (1024 * 1024)
		m.FreeMB = float64(v.Free) / (1024 * 1024)
		m.AvailableMB = float64(v.Available) / (1024 * 1024)
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		m.SwapTotalMB = float64(sw.Total) / (1024 * 1024)
		m.SwapUsedMB = float64(sw.Used) / (1024 * 1024)
		m.SwapFreeMB = float64(sw.Free) / (1024 * 1024)
	}

	m.UsagePercent = usagePercent(m.UsedMB, m.TotalMB)
	m.SwapUsagePercent = usagePercent(m.SwapUsedMB, m.SwapTotalMB)
	return m
}

// usagePercent computes used/total as a percentage, left at the zero default
// when total is not positive.
func usagePercent(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return parse.Round1(used / total * 100)
}
