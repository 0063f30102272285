//go:build !windows

package platform

import "os"

// Elevated reports whether the process runs with root privilege.
// Gates the privileged SMART health query in the disk collector.
func Elevated() bool {
	return os.Geteuid() == 0
}
