// Package snapshot assembles the six domain results into one immutable
// record, stamps it with timestamp and hostname, and performs exactly two
// side effects: persist-to-known-path (overwrite) and return-to-caller.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/collector"
	"github.com/hostpulse/agent/internal/models"
)

// Assembler orchestrates one collection cycle.
type Assembler struct {
	registry *collector.Registry
	path     string
	logger   *zap.Logger

	now      func() time.Time
	hostname func() (string, error)
}

// New creates an Assembler that persists snapshots to path.
func New(registry *collector.Registry, path string, logger *zap.Logger) *Assembler {
	return &Assembler{
		registry: registry,
		path:     path,
		logger:   logger,
		now:      time.Now,
		hostname: os.Hostname,
	}
}

// Collect runs all domain collectors, assembles the snapshot, and persists
// it. The snapshot is always complete and returned even when persistence
// fails; the error covers the persistence side effect only.
func (a *Assembler) Collect(ctx context.Context) (models.Snapshot, error) {
	results := a.registry.CollectAll(ctx)
	snap := a.assemble(results)

	if err := a.persist(snap); err != nil {
		return snap, fmt.Errorf("persisting snapshot: %w", err)
	}

	a.logger.Debug("Snapshot persisted",
		zap.String("path", a.path),
		zap.String("timestamp", snap.Timestamp))
	return snap, nil
}

// assemble maps domain results into the snapshot record. Every field is
// present even when a domain produced nothing: missing or mistyped results
// fall back to the domain defaults.
func (a *Assembler) assemble(results map[string]interface{}) models.Snapshot {
	snap := models.Snapshot{
		Timestamp:  a.now().Format(time.RFC3339),
		Hostname:   a.hostnameOrUnknown(),
		CPU:        models.DefaultCPU(),
		GPU:        models.DefaultGPU(),
		Disk:       []models.DiskEntry{},
		Network:    []models.NetworkEntry{},
		SystemLoad: models.DefaultLoad(),
	}

	if v, ok := results["cpu"].(models.CPUMetrics); ok {
		snap.CPU = v
	}
	if v, ok := results["gpu"].(models.GPUMetrics); ok {
		snap.GPU = v
	}
	if v, ok := results["disk"].([]models.DiskEntry); ok && v != nil {
		snap.Disk = v
	}
	if v, ok := results["memory"].(models.MemoryMetrics); ok {
		snap.Memory = v
	}
	if v, ok := results["network"].([]models.NetworkEntry); ok && v != nil {
		snap.Network = v
	}
	if v, ok := results["system_load"].(models.LoadMetrics); ok {
		snap.SystemLoad = v
	}

	return snap
}

func (a *Assembler) hostnameOrUnknown() string {
	name, err := a.hostname()
	if err != nil || name == "" {
		return "Unknown"
	}
	return name
}

// persist overwrites the snapshot file, creating parent directories on the
// first run. No history is retained.
func (a *Assembler) persist(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(a.path, data, 0o644)
}
