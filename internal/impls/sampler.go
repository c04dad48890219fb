package impls

import "github.com/hostpulse/agent/internal/domain"

// CPUSampler queries the host for its cumulative CPU tick counters.
// A failed query returns domain.ErrStatsUnavailable; the caller decides
// whether to skip the sampling cycle.
type CPUSampler interface {
	Sample() (domain.TickCounts, error)
}

// HostInspector reports CPU topology and identity.
type HostInspector interface {
	Inspect() (domain.CPUInfo, error)
}
