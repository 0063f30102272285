package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const freeOutput = `              total        used        free      shared  buff/cache   available
Mem:          16000        8000        2000         100        6000        7500
Swap:          4096        1024        3072
`

func TestLinuxMemoryFromFreeTable(t *testing.T) {
	r := &fakeRunner{tools: map[string]bool{}, out: map[string]string{"free -m": freeOutput}}
	s := linuxMemory{r: r, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, 16000.0, m.TotalMB)
	assert.Equal(t, 8000.0, m.UsedMB)
	assert.Equal(t, 2000.0, m.FreeMB)
	assert.Equal(t, 7500.0, m.AvailableMB)
	assert.Equal(t, 50.0, m.UsagePercent)
	assert.Equal(t, 4096.0, m.SwapTotalMB)
	assert.Equal(t, 1024.0, m.SwapUsedMB)
	assert.Equal(t, 3072.0, m.SwapFreeMB)
	assert.Equal(t, 25.0, m.SwapUsagePercent)
}

func TestLinuxMemoryUnavailableYieldsZeros(t *testing.T) {
	s := linuxMemory{r: &fakeRunner{}, log: zap.NewNop()}
	m := s.collect(context.Background())
	assert.Zero(t, m.TotalMB)
	assert.Zero(t, m.UsagePercent, "percentage silently no-ops without a total")
}

// vm_stat with a 1 MiB page size so the page counts below read directly as MB.
const vmStatOutput = `Mach Virtual Memory Statistics: (page size of 1048576 bytes)
Pages free:                               2000.
Pages active:                             2000.
Pages inactive:                           1000.
Pages speculative:                         0.
Pages throttled:                           0.
Pages wired down:                         1000.
Pages occupied by compressor:              0.
`

func TestDarwinMemorySumFallbackWhenKernelQueryFails(t *testing.T) {
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"vm_stat":      vmStatOutput,
			"hw.memsize":   "0",
			"vm.swapusage": "total = 2048.00M  used = 1024.00M  free = 1024.00M  (encrypted)",
		},
	}
	s := darwinMemory{r: r, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, 4000.0, m.UsedMB, "active+inactive+wired pages")
	assert.Equal(t, 2000.0, m.AvailableMB)
	assert.Equal(t, 6000.0, m.TotalMB, "kernel query reported 0, total reconstructed by summing page categories")
	assert.Equal(t, 2048.0, m.SwapTotalMB)
	assert.Equal(t, 1024.0, m.SwapUsedMB)
	assert.Equal(t, 50.0, m.SwapUsagePercent)
}

func TestDarwinMemoryInconsistentTotalUsesUsedPlusAvailable(t *testing.T) {
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"vm_stat":    vmStatOutput,
			"hw.memsize": "1048576", // 1 MB, less than used
		},
	}
	s := darwinMemory{r: r, log: zap.NewNop()}

	m := s.collect(context.Background())
	assert.Equal(t, 6000.0, m.TotalMB, "total below used is replaced by used+available")
}

func TestWindowsMemoryCIMQueries(t *testing.T) {
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"TotalPhysicalMemory": "17179869184", // 16384 MB
			"FreePhysicalMemory":  "8388608",     // KB -> 8192 MB
			"AllocatedBaseSize":   "4096",
			"CurrentUsage":        "512",
		},
	}
	s := windowsMemory{r: r, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, 16384.0, m.TotalMB)
	assert.Equal(t, 8192.0, m.FreeMB)
	assert.Equal(t, 8192.0, m.UsedMB)
	assert.Equal(t, 50.0, m.UsagePercent)
	assert.Equal(t, 4096.0, m.SwapTotalMB)
	assert.Equal(t, 512.0, m.SwapUsedMB)
	assert.Equal(t, 3584.0, m.SwapFreeMB)
	assert.Equal(t, 12.5, m.SwapUsagePercent)
}

func TestUsagePercent(t *testing.T) {
	assert.Equal(t, 50.0, usagePercent(8000, 16000))
	assert.Zero(t, usagePercent(100, 0), "zero total leaves the zero default")
}
