//go:build linux

package cgroup

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

type Version int

const (
	Unsupported Version = iota // non-Linux or no cgroup mounts
	V1                         // legacy multi-hierarchy cgroup v1
	V2                         // unified cgroup v2
	Hybrid                     // both v1 and v2 present
)

func (v Version) String() string {
	switch v {
	case V1:
		return "cgroup v1"
	case V2:
		return "cgroup v2"
	case Hybrid:
		return "cgroup hybrid"
	default:
		return "unsupported"
	}
}

// Detect returns the detected cgroup version and a human-readable detail string.
//
// It parses /proc/self/mountinfo looking for cgroup filesystems.
// The line format has a " - fstype " separator; we only care about fstype.
func Detect() (Version, string, error) {
	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return Unsupported, "", fmt.Errorf("open mountinfo: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var (
		hasV1 bool
		hasV2 bool
		v1Pts []string
		v2Pts []string
		sc    = bufio.NewScanner(f)
	)
	for sc.Scan() {
		line := sc.Text()
		// mountinfo has: <fields> - <fstype> <source> <superopts>
		sep := " - "
		i := strings.LastIndex(line, sep)
		if i < 0 {
			continue
		}
		tail := line[i+len(sep):]
		fields := strings.Fields(tail)
		if len(fields) < 1 {
			continue
		}
		fstype := fields[0]

		// Extract the mount point (field 5 in the pre-separator part)
		// Ref: man 5 proc
		pre := strings.Fields(line[:i])
		if len(pre) < 5 {
			continue
		}
		mountPoint := pre[4]

		switch fstype {
		case "cgroup2":
			hasV2 = true
			v2Pts = append(v2Pts, mountPoint)
		case "cgroup":
			hasV1 = true
			v1Pts = append(v1Pts, mountPoint)
		}
	}
	if err := sc.Err(); err != nil {
		return Unsupported, "", fmt.Errorf("scan mountinfo: %w", err)
	}

	switch {
	case hasV1 && hasV2:
		return Hybrid, fmt.Sprintf("cgroup2 on %v; cgroup v1 on %v",
			strings.Join(v2Pts, ","), strings.Join(v1Pts, ",")), nil
	case hasV2:
		return V2, fmt.Sprintf("cgroup2 on %v", strings.Join(v2Pts, ",")), nil
	case hasV1:
		return V1, fmt.Sprintf("cgroup v1 on %v", strings.Join(v1Pts, ",")), nil
	default:
		return Unsupported, "no cgroup mounts found", nil
	}
}

// MustDetect is a convenience that panics on error.
func MustDetect() Version {
	v, _, err := Detect()
	if err != nil {
		panic(err)
	}
	return v
}

const (
	v2CPUMaxPath    = "/sys/fs/cgroup/cpu.max"
	v1CFSQuotaPath  = "/sys/fs/cgroup/cpu/cpu.cfs_quota_us"
	v1CFSPeriodPath = "/sys/fs/cgroup/cpu/cpu.cfs_period_us"
)

// CPUQuotaCores returns the number of CPU cores this process is allowed to
// use, as set by the enclosing cgroup. A quota of "max" (v2) or -1 (v1,
// meaning unconstrained) falls back to runtime.NumCPU().
func CPUQuotaCores() (float64, error) {
	ver, _, err := Detect()
	if err != nil {
		return 0, err
	}

	switch ver {
	case V2, Hybrid:
		if cores, ok, err := readV2CPUMax(v2CPUMaxPath); err != nil {
			return 0, err
		} else if ok {
			return cores, nil
		}
		if ver == Hybrid {
			if cores, ok, err := readV1CFSQuota(v1CFSQuotaPath, v1CFSPeriodPath); err != nil {
				return 0, err
			} else if ok {
				return cores, nil
			}
		}
	case V1:
		if cores, ok, err := readV1CFSQuota(v1CFSQuotaPath, v1CFSPeriodPath); err != nil {
			return 0, err
		} else if ok {
			return cores, nil
		}
	}
	return float64(runtime.NumCPU()), nil
}

// readV2CPUMax parses the two whitespace-separated fields of cpu.max:
// "$MAX $PERIOD", where MAX may be the literal string "max".
func readV2CPUMax(path string) (cores float64, ok bool, err error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	fields := strings.Fields(string(b))
	if len(fields) != 2 {
		return 0, false, nil
	}
	if fields[0] == "max" {
		return 0, false, nil
	}
	quota, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, false, nil
	}
	period, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || period <= 0 {
		return 0, false, nil
	}
	return float64(quota) / float64(period), true, nil
}

// readV1CFSQuota reads cpu.cfs_quota_us / cpu.cfs_period_us. A quota of -1
// means unconstrained.
func readV1CFSQuota(quotaPath, periodPath string) (cores float64, ok bool, err error) {
	qb, err := os.ReadFile(quotaPath)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	quota, err := strconv.ParseInt(strings.TrimSpace(string(qb)), 10, 64)
	if err != nil || quota <= 0 {
		return 0, false, nil
	}
	pb, err := os.ReadFile(periodPath)
	if err != nil {
		return 0, false, err
	}
	period, err := strconv.ParseInt(strings.TrimSpace(string(pb)), 10, 64)
	if err != nil || period <= 0 {
		return 0, false, nil
	}
	return float64(quota) / float64(period), true, nil
}
