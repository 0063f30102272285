// Package shell abstracts external tool invocation so collectors can be
// exercised against canned command output in tests.
package shell

import (
	"context"
	"os/exec"
	"strings"
)

// Runner executes external tools and probes for their presence.
type Runner interface {
	// Run executes the named tool and returns its trimmed stdout.
	Run(ctx context.Context, name string, args ...string) (string, error)

	// LookPath reports whether the named tool is on PATH.
	LookPath(name string) bool
}

type execRunner struct{}

// New returns a Runner backed by os/exec.
func New() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (execRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// PowerShell runs a single PowerShell command line on Windows-like hosts.
func PowerShell(ctx context.Context, r Runner, command string) (string, error) {
	return r.Run(ctx, "powershell", "-NoProfile", "-Command", command)
}
