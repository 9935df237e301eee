package quota

import (
	"fmt"

	"github.com/ja7ad/bgquota/pkg/sysquota"
)

// MeasurementSource provides, on demand and for one resource dimension,
// the pair (total_quota, current_used) in that dimension's normalized
// units. One implementation wraps the OS; tests substitute a
// deterministic double.
type MeasurementSource interface {
	Get(t ResourceType) (ResourceUsageStats, error)
}

// SysMeasurementSource is the default MeasurementSource: CPU is read
// from the process's cgroup quota and /proc/self/stat, IO from a fixed
// administrative bandwidth and /proc/self/io byte counters.
type SysMeasurementSource struct {
	cpu *sysquota.ProcessCPUSampler
	io  *sysquota.IOByteSampler

	ioBandwidth float64 // bytes/s, administrative
}

// NewSysMeasurementSource builds the default measurement source.
// ioBandwidth is a fixed administrative value (bytes/s); the CPU quota
// is discovered from the cgroup hierarchy.
func NewSysMeasurementSource(ioBandwidth uint64) (*SysMeasurementSource, error) {
	cpu, err := sysquota.NewProcessCPUSampler()
	if err != nil {
		return nil, fmt.Errorf("measurement: init cpu sampler: %w", err)
	}
	return &SysMeasurementSource{
		cpu:         cpu,
		io:          sysquota.NewIOByteSampler(),
		ioBandwidth: float64(ioBandwidth),
	}, nil
}

// Get implements MeasurementSource.
func (s *SysMeasurementSource) Get(t ResourceType) (ResourceUsageStats, error) {
	switch t {
	case CPU:
		coresQuota, err := sysquota.CPUCoresQuota()
		if err != nil {
			return ResourceUsageStats{}, fmt.Errorf("measurement: cpu quota: %w", err)
		}
		usedCores, err := s.cpu.Sample()
		if err != nil {
			return ResourceUsageStats{}, fmt.Errorf("measurement: cpu usage: %w", err)
		}
		// CPU is measured in microseconds/second, i.e. cores × 1e6.
		return ResourceUsageStats{
			TotalQuota:  coresQuota * 1_000_000.0,
			CurrentUsed: usedCores * 1_000_000.0,
		}, nil
	case IO:
		usedBytesPerSec, err := s.io.Sample()
		if err != nil {
			return ResourceUsageStats{}, fmt.Errorf("measurement: io usage: %w", err)
		}
		return ResourceUsageStats{
			TotalQuota:  s.ioBandwidth,
			CurrentUsed: usedBytesPerSec,
		}, nil
	default:
		return ResourceUsageStats{}, fmt.Errorf("measurement: unknown resource type %v", t)
	}
}
