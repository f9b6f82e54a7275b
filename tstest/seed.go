// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// GetSeed gets the seed for randomized tests from the PKTFORGE_TEST_SEED
// environment variable, or the current time if unset, and logs it so a
// failing run can be reproduced.
func GetSeed(tb testing.TB) int64 {
	tb.Helper()
	if v := os.Getenv("PKTFORGE_TEST_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			tb.Fatalf("bad PKTFORGE_TEST_SEED %q: %v", v, err)
		}
		return seed
	}
	seed := time.Now().UnixNano()
	tb.Logf("using random seed %d; set PKTFORGE_TEST_SEED to reproduce", seed)
	return seed
}

// Rand returns a deterministic PRNG seeded by GetSeed.
func Rand(tb testing.TB) *rand.Rand {
	tb.Helper()
	seed := uint64(GetSeed(tb))
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
