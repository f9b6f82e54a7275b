// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"encoding/hex"
	"strings"
	"testing"
)

// Hex decodes a hex fixture, ignoring whitespace and anything after a
// '#' on each line, so packet fixtures can be written one header field
// per line with a comment. It fails the test on malformed input.
func Hex(tb testing.TB, s string) []byte {
	tb.Helper()
	var sb strings.Builder
	for line := range strings.Lines(s) {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, f := range strings.Fields(line) {
			sb.WriteString(f)
		}
	}
	b, err := hex.DecodeString(sb.String())
	if err != nil {
		tb.Fatalf("bad hex fixture: %v", err)
	}
	return b
}
