package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestLinuxLoadFromProcFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"proc/loadavg": "0.52 0.58 0.59 1/350 12345\n",
		"proc/uptime":  "90061.25 350000.00\n",
	})
	s := linuxLoad{fsRoot: root, log: zap.NewNop()}

	m := s.collect(context.Background())

	assert.Equal(t, 0.52, m.Load1)
	assert.Equal(t, 0.58, m.Load5)
	assert.Equal(t, 0.59, m.Load15)
	assert.Equal(t, uint64(90061), m.UptimeSeconds)
	assert.Equal(t, "1d 1h 1m 1s", m.Uptime)
}

func TestLinuxLoadUnavailableYieldsDefaults(t *testing.T) {
	s := linuxLoad{fsRoot: t.TempDir(), log: zap.NewNop()}
	m := s.collect(context.Background())
	assert.Zero(t, m.Load1)
	assert.Equal(t, "N/A", m.Uptime)
}

func TestDarwinLoadFromUptimeAndBoottime(t *testing.T) {
	now := time.Unix(1700090061, 0)
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"uptime":        "10:15  up 12 days,  3:04, 2 users, load averages: 1.50 1.42 1.38",
			"kern.boottime": "{ sec = 1700000000, usec = 0 } Tue Nov 14 22:13:20 2023",
		},
	}
	s := darwinLoad{r: r, log: zap.NewNop(), now: func() time.Time { return now }}

	m := s.collect(context.Background())

	assert.Equal(t, 1.50, m.Load1)
	assert.Equal(t, 1.42, m.Load5)
	assert.Equal(t, 1.38, m.Load15)
	assert.Equal(t, uint64(90061), m.UptimeSeconds)
	assert.Equal(t, "1d 1h 1m 1s", m.Uptime)
}

func TestWindowsLoadApproximatesFromCPUUsage(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.Local)
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"Get-Counter":               "50.0",
			"NumberOfLogicalProcessors": "8",
			"LastBootUpTime":            "2026-08-22 10:58:59",
		},
	}
	s := windowsLoad{r: r, log: zap.NewNop(), now: func() time.Time { return now }}

	m := s.collect(context.Background())

	assert.Equal(t, 4.0, m.Load1, "(50/100) x 8 cores")
	assert.Equal(t, m.Load1, m.Load5)
	assert.Equal(t, m.Load1, m.Load15)
	assert.Equal(t, uint64(90061), m.UptimeSeconds)
	assert.Equal(t, "1d 1h 1m 1s", m.Uptime)
}

func TestWindowsLoadBootTimeConversionFailure(t *testing.T) {
	r := &fakeRunner{
		tools: map[string]bool{},
		out: map[string]string{
			"Get-Counter":               "garbage",
			"Measure-Object":            "also garbage",
			"NumberOfLogicalProcessors": "4",
			"LastBootUpTime":            "not a timestamp",
		},
	}
	s := windowsLoad{r: r, log: zap.NewNop(), now: time.Now}

	m := s.collect(context.Background())

	assert.Zero(t, m.Load1, "bad usage input degrades the approximation to 0.00")
	assert.Equal(t, "Unavailable", m.Uptime)
	assert.Zero(t, m.UptimeSeconds)
}

func TestHumanizeUptime(t *testing.T) {
	assert.Equal(t, "0d 0h 0m 0s", humanizeUptime(0))
	assert.Equal(t, "0d 0h 5m 7s", humanizeUptime(307))
	assert.Equal(t, "2d 0h 0m 1s", humanizeUptime(172801))
}
