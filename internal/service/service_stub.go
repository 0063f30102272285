//go:build !windows

// Package service is a no-op on non-Windows platforms, where the agent
// always runs as a foreground process.
package service

import (
	"context"

	"go.uber.org/zap"
)

// Wrapper runs the polling loop directly on non-Windows platforms.
type Wrapper struct {
	runFn func(ctx context.Context)
}

// New creates a pass-through wrapper.
func New(_ *zap.Logger, runFn func(ctx context.Context)) *Wrapper {
	return &Wrapper{runFn: runFn}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the loop in the foreground.
func (w *Wrapper) Run() error {
	w.runFn(context.Background())
	return nil
}
