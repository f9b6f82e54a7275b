// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"sync"
	"testing"

	"netforge.dev/types/logger"
)

// WhileTestRunningLogger returns a logger.Logf that logs to t.Logf until
// the test finishes, at which point it stops logging. Logging from
// after a test has completed panics in the testing package, and
// components such as the pcap sink may log from deferred Close calls.
func WhileTestRunningLogger(t testing.TB) logger.Logf {
	var (
		mu   sync.RWMutex
		done bool
	)
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		done = true
	})
	return func(format string, args ...any) {
		mu.RLock()
		defer mu.RUnlock()
		if done {
			return
		}
		t.Helper()
		t.Logf(format, args...)
	}
}
