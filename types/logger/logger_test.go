// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithPrefix(t *testing.T) {
	var got []string
	logf := func(format string, args ...any) {
		got = append(got, fmt.Sprintf(format, args...))
	}
	WithPrefix(logf, "pcap: ")("wrote %d bytes", 32)
	if len(got) != 1 || got[0] != "pcap: wrote 32 bytes" {
		t.Errorf("got %q", got)
	}
}

func TestRateLimiter(t *testing.T) {
	var got []string
	logf := func(format string, args ...any) {
		got = append(got, fmt.Sprintf(format, args...))
	}
	lg := RateLimitedFn(logf, time.Hour, 2, 50)
	for i := range 5 {
		lg("write failed: %d", i)
	}
	lg("other format %d", 1)

	want := []string{
		"write failed: 0",
		"write failed: 1",
		`[RATE LIMITED] format string "write failed: %d" (example: "write failed: 2")`,
		"other format 1",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestRateLimiterEviction(t *testing.T) {
	n := 0
	logf := func(format string, _ ...any) {
		if !strings.HasPrefix(format, "[RATE LIMITED]") {
			n++
		}
	}
	lg := RateLimitedFn(logf, time.Hour, 1, 2)
	lg("a")
	lg("b")
	lg("c") // evicts "a"
	lg("a") // fresh limiter for "a"
	if n != 4 {
		t.Errorf("logged %d lines; want 4", n)
	}
}

func TestFromZap(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logf := FromZap(zap.New(core))
	logf("built %d-byte datagram\n", 32)
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries; want 1", len(entries))
	}
	if got, want := entries[0].Message, "built 32-byte datagram"; got != want {
		t.Errorf("message = %q; want %q", got, want)
	}
}
