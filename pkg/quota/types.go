// Package quota implements the periodic control loop that re-computes
// per-resource-group rate limits for background workloads, so that
// background work opportunistically fills whatever headroom foreground
// traffic leaves unused in a given tick.
package quota

import "fmt"

// ResourceType is a dense index over the two resource dimensions the
// adjuster balances independently.
type ResourceType int

const (
	// CPU is measured in microseconds of CPU time per second
	// (cores × 1e6).
	CPU ResourceType = iota
	// IO is measured in bytes per second of block-device traffic.
	IO

	resourceTypeCount = int(IO) + 1
)

func (t ResourceType) String() string {
	switch t {
	case CPU:
		return "cpu"
	case IO:
		return "io"
	default:
		return fmt.Sprintf("resource(%d)", int(t))
	}
}

// ResourceUsageStats is the pair (total_quota, current_used) a
// MeasurementSource reports for one dimension, in that dimension's
// normalized units.
type ResourceUsageStats struct {
	TotalQuota  float64
	CurrentUsed float64
}

// GroupStatistics are cumulative, monotone non-decreasing counters a
// limiter reports for a group in one dimension. The adjuster only ever
// consumes deltas between ticks.
type GroupStatistics struct {
	TotalConsumed  float64
	TotalWaitDurUs float64
}

// Sub subtracts a previous sample pointwise. Counter deltas are always
// non-negative: a negative component (which would imply the limiter
// was reset) is clamped to zero rather than propagated, and the caller
// re-baselines from the newer sample.
func (s GroupStatistics) Sub(prev GroupStatistics) GroupStatistics {
	return GroupStatistics{
		TotalConsumed:  nonNegative(s.TotalConsumed - prev.TotalConsumed),
		TotalWaitDurUs: nonNegative(s.TotalWaitDurUs - prev.TotalWaitDurUs),
	}
}

// DivScalar divides both counters by d, returning a per-second rate once
// d is a duration in seconds.
func (s GroupStatistics) DivScalar(d float64) GroupStatistics {
	return GroupStatistics{
		TotalConsumed:  safeDiv(s.TotalConsumed, d),
		TotalWaitDurUs: safeDiv(s.TotalWaitDurUs, d),
	}
}

// groupSnapshot is the tick-local working state for one background
// group in one dimension. It is assembled fresh every tick and
// discarded at the end of doAdjust.
type groupSnapshot struct {
	name            string
	ruQuota         float64
	limiter         SubLimiter
	stats           GroupStatistics
	expectCostPerRU float64
}
