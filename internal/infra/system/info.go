package system

import (
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/hostpulse/agent/internal/domain"
)

// Inspector reports CPU topology and identity through gopsutil.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect queries physical and logical core counts independently, plus the
// platform identity codes of the first CPU. A host where the identity query
// fails still gets core counts.
func (i *Inspector) Inspect() (domain.CPUInfo, error) {
	physical, err := cpu.Counts(false)
	if err != nil {
		return domain.CPUInfo{}, domain.ErrStatsUnavailable{Source: "cpu counts", Err: err}
	}
	logical, err := cpu.Counts(true)
	if err != nil {
		return domain.CPUInfo{}, domain.ErrStatsUnavailable{Source: "cpu counts", Err: err}
	}

	info := domain.CPUInfo{
		PhysicalCores: physical,
		LogicalCores:  logical,
	}

	if stats, err := cpu.Info(); err == nil && len(stats) > 0 {
		info.VendorID = stats[0].VendorID
		info.Family = stats[0].Family
		info.Model = stats[0].Model
		info.ModelName = stats[0].ModelName
	}

	return info, nil
}
