package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/hostpulse/agent/internal/domain"
	"github.com/hostpulse/agent/internal/impls"
)

// clockTick converts gopsutil's seconds-based counters back to USER_HZ
// ticks so both samplers report in the same unit.
const clockTick = 100

// PortableSampler reads cumulative CPU times through gopsutil. Used on
// hosts without a readable /proc/stat.
type PortableSampler struct{}

func NewPortableSampler() *PortableSampler {
	return &PortableSampler{}
}

func (s *PortableSampler) Sample() (domain.TickCounts, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return domain.TickCounts{}, domain.ErrStatsUnavailable{Source: "gopsutil", Err: err}
	}
	if len(times) == 0 {
		return domain.TickCounts{}, domain.ErrStatsUnavailable{
			Source: "gopsutil",
			Err:    fmt.Errorf("no aggregate cpu times reported"),
		}
	}

	t := times[0]
	return domain.TickCounts{
		User:   toTicks(t.User),
		Nice:   toTicks(t.Nice),
		System: toTicks(t.System + t.Irq + t.Softirq + t.Steal),
		Idle:   toTicks(t.Idle + t.Iowait),
	}, nil
}

func toTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(seconds * clockTick)
}

// NewSampler returns the procfs sampler when /proc/stat is readable and
// falls back to gopsutil otherwise.
func NewSampler() impls.CPUSampler {
	procfs := NewProcStatSampler()
	if _, err := procfs.Sample(); err == nil {
		return procfs
	}
	return NewPortableSampler()
}
