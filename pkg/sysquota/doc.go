// Package sysquota samples the current process's CPU and IO resource
// usage against the limits the host actually enforces.
//
// CPUCoresQuota reads the enclosing cgroup's CPU quota (falling back to
// runtime.NumCPU when unconstrained). ProcessCPUSampler tracks
// /proc/self/stat utime+stime deltas to report cores currently in use.
// IOByteSampler tracks /proc/self/io read_bytes+write_bytes deltas to
// report a combined IO rate in bytes/sec.
//
// Both samplers require at least a 100ms gap between calls to Sample;
// calling more often returns the previous reading rather than a noisy
// near-zero delta.
package sysquota
