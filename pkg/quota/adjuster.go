package quota

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BackgroundLimitAdjustDuration is the caller's recommended scheduling
// cadence for Tick. Tick itself debounces to >= 1s regardless of how
// often it's invoked.
const BackgroundLimitAdjustDuration = 10 * time.Second

// Adjuster holds the loop state for the background quota control step:
// previous per-group consumption snapshots per dimension, the last
// tick time, and per-dimension low-load sticky flags. The zero value
// is not usable; construct with NewAdjuster or NewAdjusterWithSource.
//
// Adjuster is single-threaded cooperative: it assumes no concurrent
// callers of Tick. The group registry and limiter handles it reads may
// be mutated concurrently by other goroutines.
type Adjuster struct {
	registry GroupRegistry
	source   MeasurementSource
	cost     *CostEstimator // optional; nil disables the power/energy log
	metrics  *Metrics       // optional; nil disables gauge publication

	prevStatsByGroup  [resourceTypeCount]map[string]GroupStatistics
	lastAdjustTime    time.Time
	isLastTimeLowLoad [resourceTypeCount]bool

	logger zerolog.Logger
}

// NewAdjuster builds an Adjuster using the default OS-backed
// measurement source: (registry, io_bandwidth).
func NewAdjuster(registry GroupRegistry, ioBandwidth uint64) (*Adjuster, error) {
	src, err := NewSysMeasurementSource(ioBandwidth)
	if err != nil {
		return nil, err
	}
	a := NewAdjusterWithSource(registry, src)
	a.cost = NewCostEstimator(DefaultCostModel())
	return a, nil
}

// NewAdjusterWithSource builds an Adjuster against a caller-supplied
// MeasurementSource: (registry, measurement-source).
func NewAdjusterWithSource(registry GroupRegistry, source MeasurementSource) *Adjuster {
	a := &Adjuster{
		registry:       registry,
		source:         source,
		lastAdjustTime: time.Now(),
		logger:         log.Logger,
	}
	for d := 0; d < resourceTypeCount; d++ {
		a.prevStatsByGroup[d] = make(map[string]GroupStatistics)
	}
	return a
}

// WithLogger overrides the zerolog logger used for warnings (tests and
// callers embedding bgquota in a larger service typically want their
// own sink).
func (a *Adjuster) WithLogger(l zerolog.Logger) *Adjuster {
	a.logger = l
	return a
}

// WithCostEstimator attaches (or clears, with nil) an optional
// background power/energy estimate recorded on every successful
// dimension adjustment. See cost.go.
func (a *Adjuster) WithCostEstimator(c *CostEstimator) *Adjuster {
	a.cost = c
	return a
}

// WithMetrics attaches (or clears, with nil) a Metrics sink that
// publishes setpoints, headroom, and RU weights as Prometheus gauges
// after every successful dimension adjustment. See metrics.go.
func (a *Adjuster) WithMetrics(m *Metrics) *Adjuster {
	a.metrics = m
	return a
}

// Tick performs the control step for both dimensions sequentially: CPU
// then IO. It takes no inputs, returns no value, and never propagates
// an error to the caller — failures are logged and the affected
// dimension is skipped for this tick.
func (a *Adjuster) Tick() {
	now := time.Now()
	durSecs := now.Sub(a.lastAdjustTime).Seconds()
	a.lastAdjustTime = now
	if durSecs < 1.0 {
		// Debounces re-entrant invocations and guarantees delta
		// denominators are >= 1s.
		return
	}

	handles := a.registry.Snapshot()
	background := handles[:0:0]
	for _, h := range handles {
		if h.Limiter != nil {
			background = append(background, h)
		}
	}
	if len(background) == 0 {
		return
	}

	a.doAdjust(CPU, durSecs, background, cpuLimiterFn)
	a.doAdjust(IO, durSecs, background, ioLimiterFn)
}

func (a *Adjuster) doAdjust(dim ResourceType, durSecs float64, handles []GroupHandle, limiterOf limiterFn) {
	// S1. Measure.
	stats, err := a.source.Get(dim)
	if err != nil {
		a.logger.Warn().Stringer("dim", dim).Err(err).Msg("get resource statistics failed, skip adjust")
		return
	}
	// Degenerate measurements (NaN or negative) are treated as zero.
	stats.TotalQuota = nonNegative(stats.TotalQuota)
	stats.CurrentUsed = nonNegative(stats.CurrentUsed)

	// S2. Unlimited fast path.
	if stats.TotalQuota <= math.SmallestNonzeroFloat64 {
		for _, h := range handles {
			limiterOf(h.Limiter).SetRateLimit(math.Inf(1))
			a.metrics.observeRateLimit(dim, h.Name, math.Inf(1))
		}
		return
	}

	groups := make([]*groupSnapshot, 0, len(handles))
	var totalRUQuota, backgroundConsumedTotal float64
	var hasWait bool

	// S3. Per-group deltas.
	prev := a.prevStatsByGroup[dim]
	for _, h := range handles {
		sub := limiterOf(h.Limiter)
		total := sub.GetStatistics()

		var delta GroupStatistics
		if p, ok := prev[h.Name]; ok {
			delta = total.Sub(p)
		} else {
			// First observation of this group: seed the baseline and
			// also use it as this tick's delta, so a freshly-registered
			// group doesn't wait a full extra tick before it can claim
			// headroom.
			delta = total
		}
		prev[h.Name] = total
		delta = delta.DivScalar(durSecs)

		totalRUQuota += h.RUQuota
		backgroundConsumedTotal += delta.TotalConsumed
		if delta.TotalWaitDurUs > 0 {
			hasWait = true
		}

		groups = append(groups, &groupSnapshot{
			name:    h.Name,
			ruQuota: h.RUQuota,
			limiter: sub,
			stats:   delta,
		})
	}

	// S4. Low-load short-circuit.
	isLowLoad := stats.CurrentUsed <= 0.1*stats.TotalQuota
	if isLowLoad && !hasWait && a.isLastTimeLowLoad[dim] {
		return
	}
	a.isLastTimeLowLoad[dim] = isLowLoad

	// S5. Available headroom.
	availableQuota := math.Max(
		0.9*(stats.TotalQuota-stats.CurrentUsed+backgroundConsumedTotal),
		0.1*stats.TotalQuota,
	)

	// S6. Expected cost per group.
	var totalExpectedCost float64
	for _, g := range groups {
		rateLimit := g.limiter.GetRateLimit()
		if math.IsInf(rateLimit, 1) {
			rateLimit = 0
		}
		expectedCost := g.stats.TotalConsumed + (g.stats.TotalWaitDurUs/1_000_000.0)*rateLimit
		g.expectCostPerRU = nonNegative(safeDiv(expectedCost, g.ruQuota))
		totalExpectedCost += expectedCost
		a.metrics.observeRUQuota(g.name, g.ruQuota)
	}
	a.metrics.observeHeadroom(dim, availableQuota)

	// S7. Sort ascending by expect_cost_per_ru; NaN is sanitized away
	// above so the comparator is total.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].expectCostPerRU < groups[j].expectCostPerRU
	})

	// S8. Allocate.
	if totalExpectedCost <= availableQuota {
		allocateSurplus(groups, availableQuota, totalRUQuota, dim, a.metrics)
	} else {
		allocateDeficit(groups, availableQuota, totalRUQuota, dim, a.metrics)
	}

	if a.cost != nil {
		a.cost.Observe(dim, stats, backgroundConsumedTotal, durSecs)
	}
}

// allocateSurplus handles total_expected_cost <= available_quota:
// visited in descending expect_cost_per_ru order so heavy-but-modest
// askers get their ask first and the remaining surplus is split
// proportionally across the rest. total_ru_quota is decremented after
// each group's division, never before, so the last group visited never
// divides by zero.
func allocateSurplus(groups []*groupSnapshot, availableQuota, totalRUQuota float64, dim ResourceType, m *Metrics) {
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		fairShare := safeDiv(availableQuota, totalRUQuota) * g.ruQuota
		var limit float64
		if g.expectCostPerRU > safeDiv(availableQuota, totalRUQuota) {
			limit = g.expectCostPerRU * g.ruQuota
		} else {
			limit = fairShare
		}
		g.limiter.SetRateLimit(limit)
		m.observeRateLimit(dim, g.name, limit)
		availableQuota -= limit
		totalRUQuota -= g.ruQuota
	}
}

// allocateDeficit handles total_expected_cost > available_quota:
// visited in ascending expect_cost_per_ru order so light askers take
// their small share first, leaving more room for heavy ones.
func allocateDeficit(groups []*groupSnapshot, availableQuota, totalRUQuota float64, dim ResourceType, m *Metrics) {
	for _, g := range groups {
		fairShare := safeDiv(availableQuota, totalRUQuota) * g.ruQuota
		var limit float64
		if g.expectCostPerRU < safeDiv(availableQuota, totalRUQuota) {
			limit = g.expectCostPerRU * g.ruQuota
		} else {
			limit = fairShare
		}
		g.limiter.SetRateLimit(limit)
		m.observeRateLimit(dim, g.name, limit)
		availableQuota -= limit
		totalRUQuota -= g.ruQuota
	}
}
