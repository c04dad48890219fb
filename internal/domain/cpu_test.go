package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsagePercent(t *testing.T) {
	tests := []struct {
		name  string
		ticks TickCounts
		want  float64
	}{
		{"mostly busy", TickCounts{User: 50, System: 30, Idle: 20, Nice: 0}, 80.0},
		{"all idle", TickCounts{Idle: 100}, 0.0},
		{"all busy", TickCounts{User: 70, System: 30}, 100.0},
		{"zero total", TickCounts{}, 0.0},
		{"nice only", TickCounts{Nice: 40}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UsagePercent(tt.ticks)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUsagePercentBounds(t *testing.T) {
	samples := []TickCounts{
		{User: 1, System: 0, Idle: 0, Nice: 0},
		{User: 123456789, System: 987654, Idle: 55555, Nice: 777},
		{User: math.MaxUint32, System: math.MaxUint32, Idle: math.MaxUint32, Nice: math.MaxUint32},
	}
	for _, ticks := range samples {
		got := UsagePercent(ticks)
		require.False(t, math.IsNaN(got))
		require.False(t, math.IsInf(got, 0))
		require.GreaterOrEqual(t, got, 0.0)
		require.LessOrEqual(t, got, 100.0)
	}
}

func TestUsageBetween(t *testing.T) {
	prev := TickCounts{User: 100, System: 50, Idle: 850, Nice: 0}

	t.Run("half busy interval", func(t *testing.T) {
		cur := TickCounts{User: 140, System: 60, Idle: 900, Nice: 0}
		assert.InDelta(t, 50.0, UsageBetween(prev, cur), 1e-9)
	})

	t.Run("no elapsed ticks", func(t *testing.T) {
		assert.Zero(t, UsageBetween(prev, prev))
	})

	t.Run("counters went backwards", func(t *testing.T) {
		assert.Zero(t, UsageBetween(prev, TickCounts{User: 1, System: 1, Idle: 1}))
	})
}

func TestTickCountsTotals(t *testing.T) {
	ticks := TickCounts{User: 1, System: 2, Idle: 3, Nice: 4}
	assert.Equal(t, uint64(10), ticks.Total())
	assert.Equal(t, uint64(3), ticks.Busy())
}
