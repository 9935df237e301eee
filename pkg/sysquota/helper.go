package sysquota

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// minSampleInterval is the smallest gap between two Sample calls that
// produces a fresh delta; a call inside it gets the previous reading.
const minSampleInterval = 100_000_000 // nanoseconds, i.e. 100ms

// clockTicks returns jiffies per second. CLK_TCK lets tests override it;
// 100 is the overwhelmingly common default on Linux.
func clockTicks() int {
	if v, _ := strconv.Atoi(os.Getenv("CLK_TCK")); v > 0 {
		return v
	}
	return 100
}

// readSelfStat parses /proc/self/stat and returns utime+stime, in
// jiffies. comm (2nd field) is parenthesized and may itself contain
// spaces, so fields are located relative to the last ") ".
func readSelfStat() (utime, stime uint64, err error) {
	f, e := os.Open("/proc/self/stat")
	if e != nil {
		return 0, 0, e
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0, ErrNoStat
	}
	line := sc.Text()
	i := strings.LastIndex(line, ") ")
	if i < 0 {
		return 0, 0, ErrNoStat
	}
	fields := strings.Fields(line[i+2:])

	get := func(idx int) (uint64, error) {
		if idx >= len(fields) {
			return 0, ErrShortStat
		}
		return strconv.ParseUint(fields[idx], 10, 64)
	}
	// utime is the 14th overall field => fields[11]; stime the 15th => fields[12].
	utime, err = get(11)
	if err != nil {
		return 0, 0, err
	}
	stime, err = get(12)
	if err != nil {
		return 0, 0, err
	}
	return utime, stime, nil
}

// readSelfIO parses /proc/self/io and returns read_bytes and
// write_bytes as two separate values.
// Not every process exposes this file (some kernel threads); callers
// should treat an error here as "no IO accounting available".
func readSelfIO() (readBytes, writeBytes uint64, err error) {
	f, e := os.Open("/proc/self/io")
	if e != nil {
		return 0, 0, e
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "read_bytes:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "read_bytes:"))
			readBytes, _ = strconv.ParseUint(v, 10, 64)
		case strings.HasPrefix(line, "write_bytes:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "write_bytes:"))
			writeBytes, _ = strconv.ParseUint(v, 10, 64)
		}
	}
	return readBytes, writeBytes, sc.Err()
}
