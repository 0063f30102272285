// Package scheduler implements the fixed-interval polling loop. It sleeps
// the configured duration after each full cycle regardless of how long
// collection took, so the effective period is interval + collection latency —
// drift is deliberately not corrected. Cancellation is cooperative: an
// interrupt during the sleep stops the loop after the current cycle's output
// has been persisted.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/snapshot"
)

// Scheduler drives periodic collection cycles.
type Scheduler struct {
	assembler *snapshot.Assembler
	interval  time.Duration
	logger    *zap.Logger

	onSnapshot func(models.Snapshot)
}

// New creates a scheduler running one cycle per interval.
func New(assembler *snapshot.Assembler, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		assembler: assembler,
		interval:  interval,
		logger:    logger,
	}
}

// OnSnapshot sets the callback invoked with every assembled snapshot,
// after it has been persisted. Used for alert evaluation.
func (s *Scheduler) OnSnapshot(fn func(models.Snapshot)) {
	s.onSnapshot = fn
}

// Run executes cycles until the context is cancelled. The first cycle runs
// immediately; a cycle in progress is never interrupted mid-collection.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.cycle(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info("Polling loop stopped")
			return
		case <-time.After(s.interval):
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	snap, err := s.assembler.Collect(ctx)
	if err != nil {
		s.logger.Error("Snapshot persistence failed", zap.Error(err))
	}
	if s.onSnapshot != nil {
		s.onSnapshot(snap)
	}
}
