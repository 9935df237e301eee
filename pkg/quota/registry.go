package quota

// SubLimiter is one dimension's handle on a group's rate limiter: the
// CPU sub-limiter or the IO sub-limiter of a ResourceLimiter. Its rate
// limit and counters are guarded by the limiter itself; the adjuster
// only ever reads counters and writes the rate limit.
type SubLimiter interface {
	// GetStatistics returns the cumulative, monotone counters for this
	// sub-limiter.
	GetStatistics() GroupStatistics
	// GetRateLimit returns the current setpoint. math.Inf(1) means
	// uncapped.
	GetRateLimit() float64
	// SetRateLimit installs a new setpoint. Idempotent; math.Inf(1)
	// means uncapped. Must not fault — writes are fire-and-forget from
	// the adjuster's point of view.
	SetRateLimit(limit float64)
}

// ResourceLimiter bundles the two sub-limiters a background group
// carries.
type ResourceLimiter interface {
	CPULimiter() SubLimiter
	IOLimiter() SubLimiter
}

// GroupHandle is one entry from a GroupRegistry snapshot: a group's
// name, its administrative weight, and — if it participates in
// background limiting — a handle to its ResourceLimiter.
type GroupHandle struct {
	Name    string
	RUQuota float64
	Limiter ResourceLimiter // nil for foreground-only groups
}

// GroupRegistry enumerates currently configured resource groups. It may
// be concurrently mutated by other goroutines; the adjuster takes a
// point-in-time snapshot at the start of a tick via Snapshot and ignores
// subsequent mutations within that tick.
type GroupRegistry interface {
	Snapshot() []GroupHandle
}

// limiterFn picks the CPU or IO sub-limiter out of a ResourceLimiter.
type limiterFn func(ResourceLimiter) SubLimiter

func cpuLimiterFn(r ResourceLimiter) SubLimiter { return r.CPULimiter() }
func ioLimiterFn(r ResourceLimiter) SubLimiter  { return r.IOLimiter() }
