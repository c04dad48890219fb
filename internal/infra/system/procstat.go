package system

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/hostpulse/agent/internal/domain"
)

const procStatPath = "/proc/stat"

// ProcStatSampler reads the aggregate "cpu" line of /proc/stat.
// Counters are in USER_HZ ticks as reported by the kernel. The query has no
// side effects and no retry policy; a failure is surfaced to the caller as
// domain.ErrStatsUnavailable.
type ProcStatSampler struct {
	path string
}

func NewProcStatSampler() *ProcStatSampler {
	return &ProcStatSampler{path: procStatPath}
}

func (s *ProcStatSampler) Sample() (domain.TickCounts, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.TickCounts{}, domain.ErrStatsUnavailable{Source: "procfs", Err: err}
	}
	ticks, err := parseProcStat(data)
	if err != nil {
		return domain.TickCounts{}, domain.ErrStatsUnavailable{Source: "procfs", Err: err}
	}
	return ticks, nil
}

// parseProcStat extracts the first line of /proc/stat:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// iowait is folded into idle; irq, softirq and steal are folded into system
// so that the four counters still account for all elapsed time.
func parseProcStat(data []byte) (domain.TickCounts, error) {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	fields := bytes.Fields(line)
	if len(fields) < 5 || string(fields[0]) != "cpu" {
		return domain.TickCounts{}, fmt.Errorf("malformed cpu line %q", line)
	}

	values := make([]uint64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		v, err := strconv.ParseUint(string(f), 10, 64)
		if err != nil {
			return domain.TickCounts{}, fmt.Errorf("parse cpu field %q: %w", f, err)
		}
		values = append(values, v)
	}

	at := func(i int) uint64 {
		if i < len(values) {
			return values[i]
		}
		return 0
	}

	return domain.TickCounts{
		User:   at(0),
		Nice:   at(1),
		System: at(2) + at(5) + at(6) + at(7),
		Idle:   at(3) + at(4),
	}, nil
}
