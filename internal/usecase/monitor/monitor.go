// Package monitor derives CPU usage figures from successive tick snapshots
// and keeps a bounded in-memory history.
package monitor

import (
	"sync"
	"time"

	"github.com/hostpulse/agent/internal/domain"
	"github.com/hostpulse/agent/internal/impls"
)

// DefaultHistorySize bounds the in-memory sample ring when no size is
// configured.
const DefaultHistorySize = 1024

// Monitor computes CPU utilization between successive Collect calls. It has
// no internal timer; the caller controls the sampling interval, so the delta
// window equals the time between calls.
type Monitor struct {
	sampler impls.CPUSampler

	mu      sync.Mutex
	prev    domain.TickCounts
	hasPrev bool
	history []domain.UsageSample
	maxHist int
}

func New(sampler impls.CPUSampler, historySize int) *Monitor {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Monitor{
		sampler: sampler,
		history: make([]domain.UsageSample, 0, historySize),
		maxHist: historySize,
	}
}

// Collect takes a snapshot and returns the usage sample for the interval
// since the previous call. The first call has no previous snapshot and
// reports the since-boot average instead, which is a smoothed figure, not an
// instantaneous one. A failed host query returns the error and records
// nothing; the caller skips the cycle.
func (m *Monitor) Collect() (domain.UsageSample, error) {
	ticks, err := m.sampler.Sample()
	if err != nil {
		return domain.UsageSample{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var percent float64
	if m.hasPrev {
		percent = domain.UsageBetween(m.prev, ticks)
	} else {
		percent = domain.UsagePercent(ticks)
	}
	m.prev = ticks
	m.hasPrev = true

	sample := domain.UsageSample{
		Timestamp: time.Now().UTC(),
		Percent:   percent,
		Ticks:     ticks,
	}
	m.appendLocked(sample)
	return sample, nil
}

// SinceBoot reports the cumulative utilization from a single fresh snapshot.
func (m *Monitor) SinceBoot() (float64, error) {
	ticks, err := m.sampler.Sample()
	if err != nil {
		return 0, err
	}
	return domain.UsagePercent(ticks), nil
}

// Latest returns the most recent sample, if any was collected yet.
func (m *Monitor) Latest() (domain.UsageSample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return domain.UsageSample{}, false
	}
	return m.history[len(m.history)-1], true
}

// History returns the samples collected after the given time, oldest first.
// A zero time returns the whole ring.
func (m *Monitor) History(since time.Time) []domain.UsageSample {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if !since.IsZero() {
		for start < len(m.history) && !m.history[start].Timestamp.After(since) {
			start++
		}
	}

	out := make([]domain.UsageSample, len(m.history)-start)
	copy(out, m.history[start:])
	return out
}

func (m *Monitor) appendLocked(sample domain.UsageSample) {
	if len(m.history) >= m.maxHist {
		copy(m.history, m.history[1:])
		m.history[m.maxHist-1] = sample
		return
	}
	m.history = append(m.history, sample)
}
