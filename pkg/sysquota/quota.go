package sysquota

import (
	"fmt"
	"sync"
	"time"

	"github.com/ja7ad/bgquota/pkg/system/cgroup"
	"github.com/ja7ad/bgquota/pkg/system/util"
)

// CPUCoresQuota returns the number of CPU cores the enclosing cgroup
// grants this process. Hosts without a constraining cgroup report
// runtime.NumCPU() worth of cores.
func CPUCoresQuota() (float64, error) {
	cores, err := cgroup.CPUQuotaCores()
	if err != nil {
		return 0, fmt.Errorf("sysquota: cpu quota: %w", err)
	}
	return cores, nil
}

// ProcessCPUSampler reports the current process's CPU usage, in cores,
// as a rate over the interval since the previous Sample call.
type ProcessCPUSampler struct {
	mu         sync.Mutex
	ticks      int
	lastAt     time.Time
	lastUtime  uint64
	lastStime  uint64
	lastResult float64
}

// NewProcessCPUSampler takes the first /proc/self/stat reading as the
// baseline for subsequent deltas.
func NewProcessCPUSampler() (*ProcessCPUSampler, error) {
	ut, st, err := readSelfStat()
	if err != nil {
		return nil, fmt.Errorf("sysquota: init cpu sampler: %w", err)
	}
	return &ProcessCPUSampler{
		ticks:     clockTicks(),
		lastAt:    time.Now(),
		lastUtime: ut,
		lastStime: st,
	}, nil
}

// Sample returns cores of CPU time consumed since the previous call. If
// called again before minSampleInterval has elapsed, it returns the
// previous result rather than a noisy near-zero delta.
func (s *ProcessCPUSampler) Sample() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(s.lastAt)
	if elapsed < minSampleInterval {
		return s.lastResult, nil
	}

	ut, st, err := readSelfStat()
	if err != nil {
		return 0, fmt.Errorf("sysquota: sample cpu: %w", err)
	}

	dUtime := util.DeltaU64(ut, s.lastUtime)
	dStime := util.DeltaU64(st, s.lastStime)
	dJiffies := float64(dUtime + dStime)
	dSecs := elapsed.Seconds()

	s.lastAt = now
	s.lastUtime = ut
	s.lastStime = st

	cores := util.SafeDiv(dJiffies/float64(s.ticks), dSecs)
	s.lastResult = cores
	return cores, nil
}

// IOByteSampler reports the current process's combined read+write IO
// rate, in bytes/sec, as a rate over the interval since the previous
// Sample call.
type IOByteSampler struct {
	mu         sync.Mutex
	lastAt     time.Time
	lastRead   uint64
	lastWrite  uint64
	lastResult float64
	primed     bool
}

// NewIOByteSampler constructs an IO sampler. Construction never fails:
// hosts where /proc/self/io is unavailable simply report 0 from Sample.
func NewIOByteSampler() *IOByteSampler {
	return &IOByteSampler{lastAt: time.Now()}
}

// Sample returns bytes/sec of combined read+write IO since the previous
// call, honoring the same minimum-interval rule as ProcessCPUSampler.
func (s *IOByteSampler) Sample() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(s.lastAt)
	if elapsed < minSampleInterval && s.primed {
		return s.lastResult, nil
	}

	r, w, err := readSelfIO()
	if err != nil {
		// Not every process exposes /proc/self/io; treat as zero IO
		// rather than failing the whole adjuster tick.
		s.lastAt = now
		s.lastResult = 0
		return 0, nil
	}

	var rate float64
	if s.primed {
		dRead := util.DeltaU64(r, s.lastRead)
		dWrite := util.DeltaU64(w, s.lastWrite)
		rate = util.SafeDiv(float64(dRead+dWrite), elapsed.Seconds())
	}

	s.lastAt = now
	s.lastRead = r
	s.lastWrite = w
	s.lastResult = rate
	s.primed = true
	return rate, nil
}
