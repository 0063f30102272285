// Disk domain collector — one entry per mounted filesystem, parsed from the
// platform's usage enumeration tool by fixed column position. Use-percent
// degrades through three tiers (column, line scan, 0) and SMART health is
// attempted only when smartctl is present and the process is privileged.
package collector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/shell"
)

// pseudoFilesystems lists filesystem identifiers (df column one) excluded
// from the disk result. Loop devices are matched by prefix separately.
var pseudoFilesystems = map[string]bool{
	"tmpfs":    true,
	"devtmpfs": true,
	"devfs":    true,
	"overlay":  true,
	"squashfs": true,
	"shm":      true,
	"none":     true,
}

// trailingDigitsRe strips a partition number to derive the parent device
// path for the SMART query (/dev/sda1 -> /dev/sda).
var trailingDigitsRe = regexp.MustCompile(`\d+$`)

type diskStrategy interface {
	collect(ctx context.Context) []models.DiskEntry
}

// DiskCollector collects the disk domain through the strategy selected once
// for the detected platform.
type DiskCollector struct {
	strategy diskStrategy
}

// NewDiskCollector creates a disk collector for the given platform.
// elevated gates the privileged SMART health query.
func NewDiskCollector(p platform.Kind, r shell.Runner, elevated bool, logger *zap.Logger) *DiskCollector {
	var s diskStrategy
	switch p {
	case platform.Linux, platform.Darwin:
		s = unixDisk{r: r, elevated: elevated, log: logger}
	case platform.Windows:
		s = windowsDisk{r: r, log: logger}
	default:
		s = portableDisk{log: logger}
	}
	return &DiskCollector{strategy: s}
}

// Name returns the domain identifier.
func (c *DiskCollector) Name() string { return "disk" }

// Default returns an empty entry list — the disk domain's defaulted result.
func (c *DiskCollector) Default() interface{} { return []models.DiskEntry{} }

// Collect gathers one entry per mounted filesystem, never failing.
func (c *DiskCollector) Collect(ctx context.Context) (interface{}, error) {
	entries := c.strategy.collect(ctx)
	if entries == nil {
		entries = []models.DiskEntry{}
	}
	return entries, nil
}

// unixDisk parses `df -h` by fixed column position. The mount point is
// reconstructed by joining all trailing columns since it may contain spaces.
type unixDisk struct {
	r        shell.Runner
	elevated bool
	log      *zap.Logger
}

func (s unixDisk) collect(ctx context.Context) []models.DiskEntry {
	out, err := s.r.Run(ctx, "df", "-h")
	if err != nil {
		s.log.Warn("df unavailable", zap.Error(err))
		return nil
	}

	smart := s.elevated && s.r.LookPath("smartctl")

	var entries []models.DiskEntry
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue // header
		}
		f := strings.Fields(line)
		if len(f) < 6 {
			continue
		}
		fs := f[0]
		if pseudoFilesystems[fs] || strings.HasPrefix(fs, "/dev/loop") || strings.HasPrefix(fs, "map") {
			continue
		}

		entry := models.DiskEntry{
			Filesystem: fs,
			Size:       f[1],
			Used:       f[2],
			Available:  f[3],
			UsePercent: parse.Percent(f[4], line),
			MountedOn:  strings.Join(f[5:], " "),
		}
		if smart {
			entry.SmartStatus = s.smartStatus(ctx, fs)
		}
		entries = append(entries, entry)
	}
	return entries
}

// smartStatus runs the privileged health query against the parent device.
func (s unixDisk) smartStatus(ctx context.Context, fs string) string {
	if !strings.HasPrefix(fs, "/dev/") {
		return ""
	}
	device := trailingDigitsRe.ReplaceAllString(fs, "")
	out, err := s.r.Run(ctx, "smartctl", "-H", device)
	if err != nil {
		return ""
	}
	switch {
	case strings.Contains(out, "PASSED"), strings.Contains(out, "OK"):
		return "PASSED"
	case strings.Contains(out, "FAILED"):
		return "FAILED"
	default:
		return ""
	}
}

// windowsDisk enumerates fixed drives via CIM (bytes converted to GB) with a
// portable filesystem-table fallback when the structured query is unavailable.
type windowsDisk struct {
	r   shell.Runner
	log *zap.Logger
}

func (s windowsDisk) collect(ctx context.Context) []models.DiskEntry {
	out, err := shell.PowerShell(ctx, s.r,
		`Get-CimInstance Win32_LogicalDisk -Filter "DriveType=3" | ForEach-Object { "$($_.DeviceID)|$($_.Size)|$($_.FreeSpace)" }`)
	if err != nil {
		s.log.Warn("Logical-disk query unavailable, using portable fallback", zap.Error(err))
		return portableDisk{log: s.log}.collect(ctx)
	}

	var entries []models.DiskEntry
	for _, line := range strings.Split(out, "\n") {
		f := strings.Split(strings.TrimSpace(line), "|")
		if len(f) < 3 || f[0] == "" {
			continue
		}
		size := parse.Uint(f[1])
		free := parse.Uint(f[2])
		if size == 0 {
			continue
		}
		used := size - free

		entries = append(entries, models.DiskEntry{
			Filesystem: f[0],
			Size:       fmt.Sprintf("%.1fG", float64(size)/(1024*1024*1024)),
			Used:       fmt.Sprintf("%.1fG", float64(used)/(1024*1024*1024)),
			Available:  fmt.Sprintf("%.1fG", float64(free)/(1024*1024*1024)),
			UsePercent: parse.Round1(float64(used) / float64(size) * 100),
			MountedOn:  f[0],
		})
	}
	return entries
}

// portableDisk serves Unknown platforms (and the Windows fallback) through
// gopsutil's partition enumeration.
type portableDisk struct {
	log *zap.Logger
}

func (s portableDisk) collect(ctx context.Context) []models.DiskEntry {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil
	}

	var entries []models.DiskEntry
	for _, p := range partitions {
		if pseudoFilesystems[p.Fstype] {
			continue
		}
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue // inaccessible or zero-size virtual mount
		}
		entries = append(entries, models.DiskEntry{
			Filesystem: p.Device,
			Size:       parse.HumanSize(usage.Total),
			Used:       parse.HumanSize(usage.Used),
			Available:  parse.HumanSize(usage.Free),
			UsePercent: parse.Round1(usage.UsedPercent),
			MountedOn:  p.Mountpoint,
		})
	}
	return entries
}
