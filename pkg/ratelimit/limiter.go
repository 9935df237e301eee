// Package ratelimit provides a minimal, in-memory reference
// implementation of the quota.SubLimiter / quota.ResourceLimiter /
// quota.GroupRegistry interfaces.
//
// It is not a token-bucket: the real rate-limiter primitives are an
// external collaborator the adjuster only ever reaches through those
// three interfaces (see pkg/quota/registry.go). This package exists so
// the CLI and tests have something concrete to point an Adjuster at
// without pulling in a production rate limiter.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/ja7ad/bgquota/pkg/quota"
)

// Limiter is a reference SubLimiter: it tracks a settable rate limit
// and cumulative (total_consumed, total_wait_dur_us) counters, both
// mutated directly by test/demo code via Consume rather than by a real
// token-bucket scheduler.
type Limiter struct {
	mu        sync.Mutex
	rate      float64
	consumed  float64
	waitDurUs float64
}

// NewLimiter returns a Limiter with rate limit set to +Inf (uncapped)
// and zeroed counters.
func NewLimiter() *Limiter {
	return &Limiter{rate: math.Inf(1)}
}

// GetStatistics implements quota.SubLimiter.
func (l *Limiter) GetStatistics() quota.GroupStatistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return quota.GroupStatistics{
		TotalConsumed:  l.consumed,
		TotalWaitDurUs: l.waitDurUs,
	}
}

// GetRateLimit implements quota.SubLimiter.
func (l *Limiter) GetRateLimit() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}

// SetRateLimit implements quota.SubLimiter. Idempotent; +Inf means
// uncapped.
func (l *Limiter) SetRateLimit(limit float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = limit
}

// Consume records units of work performed plus, optionally, a duration
// spent waiting for the limiter to admit it. This is how a caller (test
// or demo workload) advances the cumulative counters the adjuster
// reads; a production limiter would update these as a side effect of
// admitting real requests.
func (l *Limiter) Consume(wait time.Duration, units float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consumed += units
	l.waitDurUs += float64(wait.Microseconds())
}

// Reset restores a Limiter to its construction-time state. Used by
// tests that need to rerun a scenario against a clean limiter without
// reallocating the surrounding group.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = math.Inf(1)
	l.consumed = 0
	l.waitDurUs = 0
}

// ResourceLimiter bundles a CPU and an IO Limiter, implementing
// quota.ResourceLimiter.
type ResourceLimiter struct {
	CPU *Limiter
	IO  *Limiter
}

// NewResourceLimiter returns a ResourceLimiter with both sub-limiters
// uncapped.
func NewResourceLimiter() *ResourceLimiter {
	return &ResourceLimiter{CPU: NewLimiter(), IO: NewLimiter()}
}

// CPULimiter implements quota.ResourceLimiter.
func (r *ResourceLimiter) CPULimiter() quota.SubLimiter { return r.CPU }

// IOLimiter implements quota.ResourceLimiter.
func (r *ResourceLimiter) IOLimiter() quota.SubLimiter { return r.IO }

// Registry is a reference quota.GroupRegistry: an in-memory, mutex
// guarded map of group name to (ru_quota, *ResourceLimiter). It may be
// mutated concurrently with Snapshot being called from the adjuster's
// tick goroutine.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*entry
}

type entry struct {
	ruQuota float64
	limiter *ResourceLimiter // nil => foreground-only group
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*entry)}
}

// AddBackgroundGroup registers (or replaces) a group that participates
// in background limiting, returning its freshly constructed
// ResourceLimiter.
func (r *Registry) AddBackgroundGroup(name string, ruQuota float64) *ResourceLimiter {
	rl := NewResourceLimiter()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[name] = &entry{ruQuota: ruQuota, limiter: rl}
	return rl
}

// AddForegroundGroup registers a group that does not carry a limiter
// handle and therefore never participates in the adjuster's loop.
func (r *Registry) AddForegroundGroup(name string, ruQuota float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[name] = &entry{ruQuota: ruQuota, limiter: nil}
}

// RemoveGroup drops a group from the registry. A limiter handle a
// caller still holds keeps working; only future Snapshot calls stop
// seeing it.
func (r *Registry) RemoveGroup(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, name)
}

// Snapshot implements quota.GroupRegistry: a point-in-time copy of the
// currently registered groups.
func (r *Registry) Snapshot() []quota.GroupHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]quota.GroupHandle, 0, len(r.groups))
	for name, e := range r.groups {
		h := quota.GroupHandle{Name: name, RUQuota: e.ruQuota}
		if e.limiter != nil {
			h.Limiter = e.limiter
		}
		out = append(out, h)
	}
	return out
}
