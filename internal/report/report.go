// Package report renders the persisted snapshot file into a standalone HTML
// dashboard. The snapshot file is its only input.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/models"
)

//go:embed dashboard.html.tmpl
var dashboardTmpl string

// Renderer turns snapshots into HTML dashboards.
type Renderer struct {
	tmpl   *template.Template
	logger *zap.Logger
}

// New creates a Renderer. Panics only on a broken embedded template, which
// is a build defect.
func New(logger *zap.Logger) *Renderer {
	funcs := template.FuncMap{
		"formatBytes": FormatBytes,
		"color":       StatusColor,
	}
	return &Renderer{
		tmpl:   template.Must(template.New("dashboard").Funcs(funcs).Parse(dashboardTmpl)),
		logger: logger,
	}
}

type dashboardData struct {
	models.Snapshot

	// MainDisks excludes device-map pseudo entries from display.
	MainDisks []models.DiskEntry

	// ActiveNetworks excludes interfaces that carried no traffic.
	ActiveNetworks []models.NetworkEntry
}

// Render reads the snapshot at metricsPath and writes the dashboard to outPath.
func (r *Renderer) Render(metricsPath, outPath string) error {
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		return fmt.Errorf("reading snapshot file: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot file: %w", err)
	}

	page := dashboardData{Snapshot: snap}
	for _, d := range snap.Disk {
		if strings.HasPrefix(d.Filesystem, "devfs") || strings.HasPrefix(d.Filesystem, "map") {
			continue
		}
		page.MainDisks = append(page.MainDisks, d)
	}
	for _, n := range snap.Network {
		if n.RxBytes > 0 || n.TxBytes > 0 {
			page.ActiveNetworks = append(page.ActiveNetworks, n)
		}
	}

	var out strings.Builder
	if err := r.tmpl.Execute(&out, page); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(out.String()), 0o644); err != nil {
		return fmt.Errorf("writing dashboard: %w", err)
	}

	r.logger.Info("Dashboard rendered", zap.String("path", outPath))
	return nil
}

// FormatBytes converts a byte count to a readable figure, walking units in
// powers of 1024.
func FormatBytes(v uint64) string {
	if v == 0 {
		return "0 B"
	}
	f := float64(v)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if f < 1024 {
			return fmt.Sprintf("%.2f %s", f, unit)
		}
		f /= 1024
	}
	return fmt.Sprintf("%.2f PB", f)
}

// StatusColor maps a usage percentage to the dashboard traffic-light color.
func StatusColor(percent float64) string {
	switch {
	case percent < 50:
		return "#28a745"
	case percent < 80:
		return "#ffc107"
	default:
		return "#dc3545"
	}
}
