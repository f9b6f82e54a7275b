// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"fmt"
	"runtime"
	"testing"
	"time"
)

// AllocsError is returned by MinAllocsPerRun when no run of f stayed
// within the allocation target.
type AllocsError struct {
	Target   uint64
	Min, Max uint64
	Avg      float64
	Runs     int
}

func (e *AllocsError) Error() string {
	return fmt.Sprintf("min allocs = %d, max allocs = %d, avg allocs/run = %.1f over %d runs, want run with <= %d allocs",
		e.Min, e.Max, e.Avg, e.Runs, e.Target)
}

// MinAllocsPerRun reports whether f can run with no more than target
// allocations. It stops at the first run that does, or after 1000 runs
// or 5s, in which case it returns an *AllocsError.
//
// Unlike testing.AllocsPerRun, one run within target is enough.
// GOMAXPROCS is 1 while it measures.
func MinAllocsPerRun(tb testing.TB, target uint64, f func()) error {
	tb.Helper()
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(1))

	var ms runtime.MemStats
	e := &AllocsError{Target: target}
	var sum uint64
	deadline := time.Now().Add(5 * time.Second)
	for e.Runs < 1000 && time.Now().Before(deadline) {
		runtime.ReadMemStats(&ms)
		before := ms.Mallocs
		f()
		runtime.ReadMemStats(&ms)
		n := ms.Mallocs - before
		if n <= target {
			return nil
		}
		if e.Runs == 0 || n < e.Min {
			e.Min = n
		}
		e.Max = max(e.Max, n)
		sum += n
		e.Runs++
	}
	e.Avg = float64(sum) / float64(e.Runs)
	return e
}
