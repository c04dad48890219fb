package domain

import "time"

// TickCounts holds the cumulative CPU time counters reported by the host,
// aggregated across all logical cores. Each counter is monotonically
// non-decreasing for the lifetime of the host and resets only on reboot.
type TickCounts struct {
	User   uint64 `json:"user"`
	System uint64 `json:"system"`
	Idle   uint64 `json:"idle"`
	Nice   uint64 `json:"nice"`
}

// Total returns the sum of all four counters.
func (t TickCounts) Total() uint64 {
	return t.User + t.System + t.Idle + t.Nice
}

// Busy returns the time spent in non-idle states.
func (t TickCounts) Busy() uint64 {
	return t.User + t.System
}

// UsagePercent computes the since-boot CPU utilization from a single
// snapshot. Because the counters accumulate from boot, the figure is a
// long-run average, not an instantaneous rate. A zero total yields 0.
func UsagePercent(t TickCounts) float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return float64(t.Busy()) / float64(total) * 100.0
}

// UsageBetween computes instantaneous CPU utilization from the delta of two
// snapshots taken a known interval apart. A zero or negative delta (counters
// appearing to run backwards, e.g. snapshots passed in the wrong order)
// yields 0.
func UsageBetween(prev, cur TickCounts) float64 {
	if cur.Total() <= prev.Total() || cur.Busy() < prev.Busy() {
		return 0
	}
	totalDelta := float64(cur.Total() - prev.Total())
	busyDelta := float64(cur.Busy() - prev.Busy())
	return busyDelta / totalDelta * 100.0
}

// CPUInfo describes the host CPU topology and identity.
type CPUInfo struct {
	PhysicalCores int    `json:"physical_cores"`
	LogicalCores  int    `json:"logical_cores"`
	VendorID      string `json:"vendor_id"`
	Family        string `json:"family"`
	Model         string `json:"model"`
	ModelName     string `json:"model_name"`
}

// UsageSample is one derived CPU usage measurement.
type UsageSample struct {
	Timestamp time.Time  `json:"timestamp"`
	Percent   float64    `json:"percent"`
	Ticks     TickCounts `json:"ticks"`
}
