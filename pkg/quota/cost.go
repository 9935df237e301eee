package quota

import (
	"github.com/rs/zerolog/log"

	"github.com/ja7ad/bgquota/pkg/consumption"
)

// CostEstimator turns a tick's measured usage into a rough power draw
// estimate and logs it. It is pure observability: nothing it computes
// feeds back into the allocation in adjuster.go. It adapts the
// process power/energy model in pkg/consumption from "per-process
// CPU/disk/RAM estimate" to "per-dimension background-workload
// estimate", dropping the RAM proxies the quota adjuster has no signal
// for.
type CostEstimator struct {
	acc *consumption.Accumulator
}

// NewCostEstimator wraps a consumption.Config into a CostEstimator.
func NewCostEstimator(cfg *consumption.Config) *CostEstimator {
	return &CostEstimator{acc: consumption.New(cfg)}
}

// DefaultCostModel returns coefficients for a generic small-server
// power curve, not anything process-tree specific.
func DefaultCostModel() *consumption.Config {
	return consumption.DefaultConfig()
}

// Observe records one dimension's tick: for CPU it's a utilization
// sample (current_used/total_quota), for IO it's bytes/sec priced as a
// disk-energy term. backgroundConsumedTotal is the per-second rate
// background groups accounted for, already computed by doAdjust's S3.
func (c *CostEstimator) Observe(dim ResourceType, stats ResourceUsageStats, backgroundConsumedTotal, durSecs float64) {
	if c == nil {
		return
	}
	var snap consumption.Sample
	switch dim {
	case CPU:
		snap = consumption.Sample{
			TimeSec:  durSecs,
			CPUUtil:  clamp01(safeDiv(stats.CurrentUsed, stats.TotalQuota)),
			CPUShare: clamp01(safeDiv(backgroundConsumedTotal, stats.CurrentUsed)),
		}
	case IO:
		snap = consumption.Sample{
			TimeSec:       durSecs,
			IOBytesPerSec: nonNegative(backgroundConsumedTotal),
		}
	}
	res := c.acc.Apply(snap)
	log.Debug().
		Stringer("dim", dim).
		Float64("p_watts", res.PTotal).
		Float64("e_cum_j", c.acc.EnergyCumJ()).
		Msg("background cost estimate")
}

// EnergyCumJ returns the cumulative energy estimate, in Joules,
// accumulated across every Observe call so far.
func (c *CostEstimator) EnergyCumJ() float64 {
	if c == nil {
		return 0
	}
	return c.acc.EnergyCumJ()
}
