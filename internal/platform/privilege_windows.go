//go:build windows

package platform

import "golang.org/x/sys/windows"

// Elevated reports whether the process token carries administrator elevation.
func Elevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}
