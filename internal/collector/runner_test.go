package collector

import (
	"context"
	"errors"
	"strings"
)

// fakeRunner matches invocations by substring of the full command line and
// returns canned output, simulating tool presence via the tools map.
type fakeRunner struct {
	tools map[string]bool
	out   map[string]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmdline := name + " " + strings.Join(args, " ")
	for key, v := range f.out {
		if strings.Contains(cmdline, key) {
			return v, nil
		}
	}
	return "", errors.New("command not found: " + name)
}

func (f *fakeRunner) LookPath(name string) bool {
	return f.tools[name]
}
