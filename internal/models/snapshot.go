// Package models defines the snapshot data structures persisted by the agent.
// Field names mirror the metrics.json schema consumed by the dashboard
// renderer and the alert evaluator, so every declared field is always
// present — unavailable data carries a typed default (0 or "N/A"), never
// an omitted key.
package models

// Snapshot represents a single point-in-time collection of all metric domains.
// It is created fresh on every cycle and never mutated after assembly.
type Snapshot struct {
	Timestamp  string         `json:"timestamp"`
	Hostname   string         `json:"hostname"`
	CPU        CPUMetrics     `json:"cpu"`
	GPU        GPUMetrics     `json:"gpu"`
	Disk       []DiskEntry    `json:"disk"`
	Memory     MemoryMetrics  `json:"memory"`
	Network    []NetworkEntry `json:"network"`
	SystemLoad LoadMetrics    `json:"system_load"`
}

// CPUMetrics holds the CPU domain result.
type CPUMetrics struct {
	UsagePercent float64 `json:"cpu_usage_percent"`
	Cores        int     `json:"cpu_cores"`
	Model        string  `json:"cpu_model"`
	Temperature  string  `json:"cpu_temperature"`
	LoadAverage  string  `json:"load_average"`
}

// DefaultCPU returns a fully-defaulted CPU result.
func DefaultCPU() CPUMetrics {
	return CPUMetrics{
		Model:       "Unknown",
		Temperature: "N/A",
		LoadAverage: "N/A",
	}
}

// GPUMetrics holds the GPU domain result. All fields are free-form strings:
// usage is a numeric percent, "Available (<name>)", or "N/A".
type GPUMetrics struct {
	Usage       string `json:"gpu_usage_percent"`
	Temperature string `json:"gpu_temperature"`
	Memory      string `json:"gpu_memory"`
}

// DefaultGPU returns a fully-defaulted GPU result.
func DefaultGPU() GPUMetrics {
	return GPUMetrics{Usage: "N/A", Temperature: "N/A", Memory: "N/A"}
}

// DiskEntry represents usage for a single mounted filesystem.
// Size fields keep the human-readable units reported by the source tool.
type DiskEntry struct {
	Filesystem  string  `json:"filesystem"`
	Size        string  `json:"size"`
	Used        string  `json:"used"`
	Available   string  `json:"available"`
	UsePercent  float64 `json:"use_percent"`
	MountedOn   string  `json:"mounted_on"`
	SmartStatus string  `json:"smart_status,omitempty"`
}

// MemoryMetrics holds the memory domain result. All sizes are megabytes.
type MemoryMetrics struct {
	TotalMB          float64 `json:"memory_total_mb"`
	UsedMB           float64 `json:"memory_used_mb"`
	FreeMB           float64 `json:"memory_free_mb"`
	AvailableMB      float64 `json:"memory_available_mb"`
	UsagePercent     float64 `json:"memory_usage_percent"`
	SwapTotalMB      float64 `json:"swap_total_mb"`
	SwapUsedMB       float64 `json:"swap_used_mb"`
	SwapFreeMB       float64 `json:"swap_free_mb"`
	SwapUsagePercent float64 `json:"swap_usage_percent"`
}

// NetworkEntry represents counters for a single active, non-loopback interface.
type NetworkEntry struct {
	Interface string `json:"interface"`
	IPAddress string `json:"ip_address"`
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxPackets uint64 `json:"rx_packets"`
	TxPackets uint64 `json:"tx_packets"`
	RxErrors  uint64 `json:"rx_errors"`
	TxErrors  uint64 `json:"tx_errors"`
}

// LoadMetrics holds the load/uptime domain result.
type LoadMetrics struct {
	Load1         float64 `json:"load_1min"`
	Load5         float64 `json:"load_5min"`
	Load15        float64 `json:"load_15min"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// DefaultLoad returns a fully-defaulted load result.
func DefaultLoad() LoadMetrics {
	return LoadMetrics{Uptime: "N/A"}
}
