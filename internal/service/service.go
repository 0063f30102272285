//go:build windows

// Package service lets the continuous collection mode run under the Windows
// Service Control Manager. From a terminal the agent stays a foreground
// process; under the SCM it enters the control loop and translates
// stop/shutdown requests into context cancellation.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

const serviceName = "HostPulse"

// Wrapper adapts the polling loop to the svc.Handler interface.
type Wrapper struct {
	logger *zap.Logger
	runFn  func(ctx context.Context)
}

// New creates a service wrapper. runFn is invoked with a context that is
// cancelled when the SCM requests a stop.
func New(logger *zap.Logger, runFn func(ctx context.Context)) *Wrapper {
	return &Wrapper{logger: logger, runFn: runFn}
}

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the SCM control loop and blocks until the service stops.
func (w *Wrapper) Run() error {
	return svc.Run(serviceName, w)
}

// Execute implements svc.Handler.
func (w *Wrapper) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.runFn(ctx)

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	w.logger.Info("Windows service started")

	for {
		c := <-r
		switch c.Cmd {
		case svc.Interrogate:
			changes <- c.CurrentStatus
		case svc.Stop, svc.Shutdown:
			w.logger.Info("Windows service stopping")
			changes <- svc.Status{State: svc.StopPending}
			cancel()
			// Let an in-flight cycle finish persisting its snapshot.
			time.Sleep(2 * time.Second)
			return false, 0
		default:
			w.logger.Warn("Unexpected service control request",
				zap.Uint32("cmd", uint32(c.Cmd)))
		}
	}
}
