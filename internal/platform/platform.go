// Package platform detects the host platform once per run. The detected
// Kind drives which data-source strategy each domain collector uses, so
// collectors never re-detect per call.
package platform

import (
	"context"
	"runtime"
	"strings"

	"github.com/hostpulse/agent/internal/shell"
)

// Kind identifies the host platform family.
type Kind int

const (
	// Unknown routes collectors to their portable degraded strategy.
	Unknown Kind = iota
	Linux
	Darwin
	Windows
)

// String returns the platform name.
func (k Kind) String() string {
	switch k {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// Detect classifies the runtime environment. It never fails: unresolvable
// environments classify as Unknown, for which every collector has a defined
// degraded behavior.
func Detect(ctx context.Context, r shell.Runner) Kind {
	return classify(ctx, runtime.GOOS, r)
}

// classify applies the detection order: the native OS identifier first;
// if inconclusive, probe for a Windows management shell; if still
// inconclusive, attempt a Windows management query and classify success
// as Windows.
func classify(ctx context.Context, goos string, r shell.Runner) Kind {
	switch {
	case strings.Contains(goos, "linux"):
		return Linux
	case strings.Contains(goos, "darwin"):
		return Darwin
	case strings.Contains(goos, "windows"):
		return Windows
	}

	if r.LookPath("powershell") || r.LookPath("pwsh") {
		return Windows
	}

	if _, err := shell.PowerShell(ctx, r,
		"(Get-CimInstance Win32_OperatingSystem).Caption"); err == nil {
		return Windows
	}

	return Unknown
}
