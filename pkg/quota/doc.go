// Package quota implements the Background Resource Quota Adjuster: a
// periodic control loop that re-computes per-resource-group rate
// limits for background workloads so they opportunistically fill
// whatever headroom foreground traffic leaves unused, across two
// independent dimensions (CPU and IO).
//
// The Adjuster is the only exported entry point; it consumes a
// MeasurementSource for system-wide usage, a GroupRegistry for the set
// of participating groups, and each group's ResourceLimiter for
// cumulative counters and rate-limit setpoints. See Adjuster.Tick for
// the control step itself.
package quota
