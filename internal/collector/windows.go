package collector

import (
	"context"
	"fmt"

	"github.com/hostpulse/agent/internal/parse"
	"github.com/hostpulse/agent/internal/shell"
)

// Shared Windows management-shell queries. The CPU and load collectors both
// derive from the same performance counter, so the helpers live here.

// windowsCPUUsage reads the processor-time performance counter, falling back
// to the WMI load-percentage average. Non-numeric query results coerce to 0.
func windowsCPUUsage(ctx context.Context, r shell.Runner) float64 {
	out, err := shell.PowerShell(ctx, r,
		`[math]::Round((Get-Counter '\Processor(_Total)\% Processor Time').CounterSamples.CookedValue, 1)`)
	if err == nil {
		if v := parse.Decimal(out, -1); v >= 0 {
			return parse.Round1(v)
		}
	}

	out, err = shell.PowerShell(ctx, r,
		"(Get-CimInstance Win32_Processor | Measure-Object -Property LoadPercentage -Average).Average")
	if err != nil {
		return 0
	}
	return parse.Round1(parse.Decimal(out, 0))
}

// windowsCoreCount returns the logical-processor count, 0 when unavailable.
func windowsCoreCount(ctx context.Context, r shell.Runner) int {
	out, err := shell.PowerShell(ctx, r,
		"(Get-CimInstance Win32_ComputerSystem).NumberOfLogicalProcessors")
	if err != nil {
		return 0
	}
	return int(parse.Uint(out))
}

// windowsLoadApprox approximates a load-average figure as
// (usage-percent / 100) x logical-core-count. Windows has no native
// load-average concept, so all three figures use the same approximation.
func windowsLoadApprox(usage float64, cores int) float64 {
	la := usage / 100 * float64(cores)
	return parse.Decimal(fmt.Sprintf("%.2f", la), 0)
}
