package system

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/agent/internal/domain"
)

func TestParseProcStat(t *testing.T) {
	data := []byte("cpu  4705 150 1120 16250 520 10 40 30 0 0\ncpu0 2352 75 560 8125 260 5 20 15 0 0\n")

	ticks, err := parseProcStat(data)
	require.NoError(t, err)

	assert.Equal(t, domain.TickCounts{
		User:   4705,
		Nice:   150,
		System: 1120 + 10 + 40 + 30,
		Idle:   16250 + 520,
	}, ticks)
}

func TestParseProcStatShortLine(t *testing.T) {
	// Older kernels report fewer columns; missing ones read as zero.
	ticks, err := parseProcStat([]byte("cpu 100 0 50 850\n"))
	require.NoError(t, err)
	assert.Equal(t, domain.TickCounts{User: 100, System: 50, Idle: 850}, ticks)
}

func TestParseProcStatMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"wrong prefix":   "intr 12345\n",
		"too few fields": "cpu 1 2\n",
		"non-numeric":    "cpu a b c d e\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseProcStat([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestProcStatSamplerMissingFile(t *testing.T) {
	s := &ProcStatSampler{path: filepath.Join(t.TempDir(), "nope")}
	_, err := s.Sample()
	require.Error(t, err)
	assert.ErrorAs(t, err, &domain.ErrStatsUnavailable{})
}

func TestProcStatSamplerReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	require.NoError(t, os.WriteFile(path, []byte("cpu  50 0 30 20 0 0 0 0 0 0\n"), 0o644))

	s := &ProcStatSampler{path: path}
	ticks, err := s.Sample()
	require.NoError(t, err)
	assert.InDelta(t, 80.0, domain.UsagePercent(ticks), 1e-9)
}
