package sysquota

import "errors"

var (
	// ErrTooSoon names the case of a call made before the minimum
	// sampling interval has elapsed since the previous call. The
	// samplers' Sample methods do not return it: they return the
	// previous reading instead.
	ErrTooSoon = errors.New("sysquota: sample interval too short")

	// ErrNoStat indicates /proc/self/stat was empty or malformed.
	ErrNoStat = errors.New("sysquota: malformed or empty stat")

	// ErrShortStat indicates /proc/self/stat had fewer fields than expected.
	ErrShortStat = errors.New("sysquota: short stat")
)
