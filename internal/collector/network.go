// Network domain collector — one entry per active, non-loopback interface.
// Every counter is validated against the non-negative-integer pattern and
// defaults to 0 on mismatch.
package collector

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gnet "github.com/shirou/gopsutil/v3/net"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/shell"
)

// inet4Re extracts an IPv4 address from ip/ifconfig output.
var inet4Re = regexp.MustCompile(`inet (?:addr:)?(\d+\.\d+\.\d+\.\d+)`)

type networkStrategy interface {
	collect(ctx context.Context) []models.NetworkEntry
}

// NetworkCollector collects the network domain through the strategy selected
// once for the detected platform.
type NetworkCollector struct {
	strategy networkStrategy
}

// NewNetworkCollector creates a network collector for the given platform.
func NewNetworkCollector(p platform.Kind, r shell.Runner, logger *zap.Logger) *NetworkCollector {
	var s networkStrategy
	switch p {
	case platform.Linux:
		s = linuxNetwork{r: r, fsRoot: "/", log: logger}
	case platform.Darwin:
		s = darwinNetwork{r: r, log: logger}
	case platform.Windows:
		s = windowsNetwork{r: r, log: logger}
	default:
		s = portableNetwork{log: logger}
	}
	return &NetworkCollector{strategy: s}
}

// Name returns the domain identifier.
func (c *NetworkCollector) Name() string { return "network" }

// Default returns an empty entry list — the network domain's defaulted result.
func (c *NetworkCollector) Default() interface{} { return []models.NetworkEntry{} }

// Collect gathers one entry per active interface, never failing.
func (c *NetworkCollector) Collect(ctx context.Context) (interface{}, error) {
	entries := c.strategy.collect(ctx)
	if entries == nil {
		entries = []models.NetworkEntry{}
	}
	return entries, nil
}

// linuxNetwork enumerates the network virtual-filesystem directory and reads
// per-interface counters straight from the statistics files.
type linuxNetwork struct {
	r      shell.Runner
	fsRoot string
	log    *zap.Logger
}

func (s linuxNetwork) collect(ctx context.Context) []models.NetworkEntry {
	base := filepath.Join(s.fsRoot, "sys/class/net")
	dirs, err := os.ReadDir(base)
	if err != nil {
		s.log.Warn("Network sysfs unavailable", zap.Error(err))
		return nil
	}

	var entries []models.NetworkEntry
	for _, d := range dirs {
		name := d.Name()
		if name == "lo" {
			continue
		}
		state, err := os.ReadFile(filepath.Join(base, name, "operstate"))
		if err != nil || strings.TrimSpace(string(state)) != "up" {
			continue
		}

		stat := func(file string) uint64 {
			data, err := os.ReadFile(filepath.Join(base, name, "statistics", file))
			if err != nil {
				return 0
			}
			return parse.Uint(string(data))
		}

		entries = append(entries, models.NetworkEntry{
			Interface: name,
			IPAddress: s.ipAddress(ctx, name),
			RxBytes:   stat("rx_bytes"),
			TxBytes:   stat("tx_bytes"),
			RxPackets: stat("rx_packets"),
			TxPackets: stat("tx_packets"),
			RxErrors:  stat("rx_errors"),
			TxErrors:  stat("tx_errors"),
		})
	}
	return entries
}

func (s linuxNetwork) ipAddress(ctx context.Context, name string) string {
	if out, err := s.r.Run(ctx, "ip", "-4", "addr", "show", "dev", name); err == nil {
		if m := inet4Re.FindStringSubmatch(out); m != nil {
			return m[1]
		}
	}
	// Legacy-tool fallback.
	if out, err := s.r.Run(ctx, "ifconfig", name); err == nil {
		if m := inet4Re.FindStringSubmatch(out); m != nil {
			return m[1]
		}
	}
	return "N/A"
}

// darwinNetwork parses the netstat interface table by fixed column offset,
// with an ifconfig listing fallback for enumeration and a per-interface
// ifconfig parse when the table yields nothing for an interface.
type darwinNetwork struct {
	r   shell.Runner
	log *zap.Logger
}

func (s darwinNetwork) collect(ctx context.Context) []models.NetworkEntry {
	if out, err := s.r.Run(ctx, "netstat", "-ib"); err == nil {
		if entries := s.fromNetstat(ctx, out); len(entries) > 0 {
			return entries
		}
	}

	// Fallback: enumerate via the interface-listing tool and parse each
	// interface's configuration dump.
	out, err := s.r.Run(ctx, "ifconfig", "-l")
	if err != nil {
		s.log.Warn("Interface enumeration unavailable", zap.Error(err))
		return nil
	}
	var entries []models.NetworkEntry
	for _, name := range strings.Fields(out) {
		if strings.HasPrefix(name, "lo") {
			continue
		}
		entry, ok := s.fromIfconfig(ctx, name)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// fromNetstat reads the hardware ("Link#") rows: columns are
// Name Mtu Network Address Ipkts Ierrs Ibytes Opkts Oerrs Obytes.
func (s darwinNetwork) fromNetstat(ctx context.Context, out string) []models.NetworkEntry {
	seen := map[string]bool{}
	var entries []models.NetworkEntry
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "<Link#") {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 10 {
			continue
		}
		name := f[0]
		if strings.HasPrefix(name, "lo") || seen[name] {
			continue
		}
		seen[name] = true

		entry := models.NetworkEntry{
			Interface: name,
			IPAddress: s.ipAddress(ctx, name),
			RxPackets: parse.Uint(f[4]),
			RxErrors:  parse.Uint(f[5]),
			RxBytes:   parse.Uint(f[6]),
			TxPackets: parse.Uint(f[7]),
			TxErrors:  parse.Uint(f[8]),
			TxBytes:   parse.Uint(f[9]),
		}
		if entry.RxBytes == 0 && entry.TxBytes == 0 {
			// Secondary fallback parse when the table row carried nothing.
			if fallback, ok := s.fromIfconfig(ctx, name); ok {
				fallback.IPAddress = entry.IPAddress
				entry = fallback
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s darwinNetwork) fromIfconfig(ctx context.Context, name string) (models.NetworkEntry, bool) {
	out, err := s.r.Run(ctx, "ifconfig", name)
	if err != nil {
		return models.NetworkEntry{}, false
	}
	entry := models.NetworkEntry{Interface: name, IPAddress: "N/A"}
	if m := inet4Re.FindStringSubmatch(out); m != nil {
		entry.IPAddress = m[1]
	}
	for _, line := range strings.Split(out, "\n") {
		f := strings.Fields(strings.TrimSpace(line))
		if len(f) < 5 {
			continue
		}
		// "1234 packets input, 567890 bytes" style counter lines.
		if f[1] == "packets" && strings.HasPrefix(f[2], "input") {
			entry.RxPackets = parse.Uint(f[0])
			entry.RxBytes = parse.Uint(f[3])
		}
		if f[1] == "packets" && strings.HasPrefix(f[2], "output") {
			entry.TxPackets = parse.Uint(f[0])
			entry.TxBytes = parse.Uint(f[3])
		}
	}
	return entry, true
}

func (s darwinNetwork) ipAddress(ctx context.Context, name string) string {
	out, err := s.r.Run(ctx, "ifconfig", name)
	if err != nil {
		return "N/A"
	}
	if m := inet4Re.FindStringSubmatch(out); m != nil {
		return m[1]
	}
	return "N/A"
}

// windowsNetwork enumerates "Up" adapters via CIM. Error counters are not
// obtainable through this path and always report 0.
type windowsNetwork struct {
	r   shell.Runner
	log *zap.Logger
}

func (s windowsNetwork) collect(ctx context.Context) []models.NetworkEntry {
	out, err := shell.PowerShell(ctx, s.r,
		"Get-NetAdapter | Where-Object Status -eq 'Up' | Select-Object -ExpandProperty Name")
	if err != nil {
		s.log.Warn("Adapter enumeration unavailable, using portable fallback", zap.Error(err))
		return portableNetwork{log: s.log}.collect(ctx)
	}

	var entries []models.NetworkEntry
	for _, name := range strings.Split(out, "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		entry := models.NetworkEntry{Interface: name, IPAddress: "N/A"}

		stats, err := shell.PowerShell(ctx, s.r,
			`Get-NetAdapterStatistics -Name "`+name+`" | ForEach-Object { "$($_.ReceivedBytes)|$($_.SentBytes)|$($_.ReceivedUnicastPackets)|$($_.SentUnicastPackets)" }`)
		if err == nil {
			if f := strings.Split(strings.TrimSpace(stats), "|"); len(f) >= 4 {
				entry.RxBytes = parse.Uint(f[0])
				entry.TxBytes = parse.Uint(f[1])
				entry.RxPackets = parse.Uint(f[2])
				entry.TxPackets = parse.Uint(f[3])
			}
		}

		if ip, err := shell.PowerShell(ctx, s.r,
			`(Get-NetIPAddress -InterfaceAlias "`+name+`" -AddressFamily IPv4).IPAddress`); err == nil {
			if ip, _, _ = strings.Cut(strings.TrimSpace(ip), "\n"); ip != "" {
				entry.IPAddress = ip
			}
		}

		entries = append(entries, entry)
	}
	return entries
}

// portableNetwork serves Unknown platforms (and the Windows fallback)
// through gopsutil's per-interface counters.
type portableNetwork struct {
	log *zap.Logger
}

func (s portableNetwork) collect(ctx context.Context) []models.NetworkEntry {
	counters, err := gnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return nil
	}

	up := map[string]bool{}
	addr := map[string]string{}
	if ifaces, err := gnet.InterfacesWithContext(ctx); err == nil {
		for _, iface := range ifaces {
			var isUp, isLoopback bool
			for _, flag := range iface.Flags {
				switch flag {
				case "up":
					isUp = true
				case "loopback":
					isLoopback = true
				}
			}
			up[iface.Name] = isUp && !isLoopback
			for _, a := range iface.Addrs {
				ip, _, _ := strings.Cut(a.Addr, "/")
				if strings.Count(ip, ".") == 3 {
					addr[iface.Name] = ip
					break
				}
			}
		}
	}

	var entries []models.NetworkEntry
	for _, c := range counters {
		if !up[c.Name] {
			continue
		}
		ip := addr[c.Name]
		if ip == "" {
			ip = "N/A"
		}
		entries = append(entries, models.NetworkEntry{
			Interface: c.Name,
			IPAddress: ip,
			RxBytes:   c.BytesRecv,
			TxBytes:   c.BytesSent,
			RxPackets: c.PacketsRecv,
			TxPackets: c.PacketsSent,
			RxErrors:  c.Errin,
			TxErrors:  c.Errout,
		})
	}
	return entries
}
