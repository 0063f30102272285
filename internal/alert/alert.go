// Package alert compares a snapshot's usage percentages against configured
// thresholds. Defaulted (zero) values never breach a threshold, so degraded
// domains stay silent.
package alert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
)

// Thresholds holds the usage-percent limits for the alerting domains.
type Thresholds struct {
	CPUPercent    float64 `yaml:"cpu_percent"`
	MemoryPercent float64 `yaml:"memory_percent"`
	DiskPercent   float64 `yaml:"disk_percent"`
}

// DefaultThresholds returns the standard 80/85/90 limits.
func DefaultThresholds() Thresholds {
	return Thresholds{CPUPercent: 80, MemoryPercent: 85, DiskPercent: 90}
}

// Warning describes a single threshold breach.
type Warning struct {
	Domain  string
	Subject string
	Value   float64
	Limit   float64
}

// String renders the warning for the CLI summary.
func (w Warning) String() string {
	return fmt.Sprintf("%s %s at %.1f%% (threshold %.1f%%)", w.Domain, w.Subject, w.Value, w.Limit)
}

// Evaluator checks snapshots against thresholds.
type Evaluator struct {
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEvaluator creates an alert evaluator.
func NewEvaluator(t Thresholds, logger *zap.Logger) *Evaluator {
	return &Evaluator{thresholds: t, logger: logger}
}

// Evaluate returns one warning per breached threshold and logs each breach.
func (e *Evaluator) Evaluate(snap models.Snapshot) []Warning {
	var warnings []Warning

	if snap.CPU.UsagePercent > e.thresholds.CPUPercent {
		warnings = append(warnings, Warning{
			Domain: "cpu", Subject: "usage",
			Value: snap.CPU.UsagePercent, Limit: e.thresholds.CPUPercent,
		})
	}
	if snap.Memory.UsagePercent > e.thresholds.MemoryPercent {
		warnings = append(warnings, Warning{
			Domain: "memory", Subject: "usage",
			Value: snap.Memory.UsagePercent, Limit: e.thresholds.MemoryPercent,
		})
	}
	for _, d := range snap.Disk {
		if d.UsePercent > e.thresholds.DiskPercent {
			warnings = append(warnings, Warning{
				Domain: "disk", Subject: d.MountedOn,
				Value: d.UsePercent, Limit: e.thresholds.DiskPercent,
			})
		}
	}

	for _, w := range warnings {
		e.logger.Warn("Threshold breached",
			zap.String("domain", w.Domain),
			zap.String("subject", w.Subject),
			zap.Float64("value", w.Value),
			zap.Float64("threshold", w.Limit))
	}
	return warnings
}
