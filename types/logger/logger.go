// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package logger defines a type for writing to logs. It's just a
// convenience type so that we don't have to pass verbose func(...)
// types around.
package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Logf is the basic logger type: a printf-like func.
// Like log.Printf, the format need not end in a newline.
// Logf functions must be safe for concurrent use.
//
// Functions that wrap logger functions must pass through the original
// format and args, possibly augmented.
// Replacing the format and args (e.g. with fmt.Sprintf and %s)
// disrupts rate limiting.
type Logf func(format string, args ...any)

// WithPrefix wraps f, prefixing each format with the provided prefix.
func WithPrefix(f Logf, prefix string) Logf {
	return func(format string, args ...any) {
		f(prefix+format, args...)
	}
}

// Discard is a Logf that throws away the logs given to it.
func Discard(string, ...any) {}

// FromZap returns a Logf that writes to l at info level.
func FromZap(l *zap.Logger) Logf {
	s := l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	return func(format string, args ...any) {
		s.Infof(strings.TrimSuffix(format, "\n"), args...)
	}
}

// RateLimitedFn returns a rate-limiting Logf wrapping the given logf.
// Messages are allowed through at a maximum of one message every f,
// in bursts of up to burst messages at a time, keyed by format string.
// Up to maxCache format strings are tracked; the least recently seen
// one is forgotten when the cache is full.
//
// The first suppressed message for a format is replaced by a single
// notice; later ones are dropped until the limiter refills.
func RateLimitedFn(logf Logf, f time.Duration, burst int, maxCache int) Logf {
	type limitData struct {
		lim        *rate.Limiter
		msgBlocked bool
		lastUsed   uint64
	}
	var (
		mu     sync.Mutex
		msgLim = make(map[string]*limitData)
		tick   uint64
	)
	evictOldest := func() {
		var oldest string
		var oldestT uint64
		first := true
		for k, v := range msgLim {
			if first || v.lastUsed < oldestT {
				oldest, oldestT = k, v.lastUsed
				first = false
			}
		}
		delete(msgLim, oldest)
	}

	return func(format string, args ...any) {
		mu.Lock()
		rl, ok := msgLim[format]
		if !ok {
			if len(msgLim) >= maxCache {
				evictOldest()
			}
			rl = &limitData{lim: rate.NewLimiter(rate.Every(f), burst)}
			msgLim[format] = rl
		}
		tick++
		rl.lastUsed = tick
		allow := rl.lim.Allow()
		warn := false
		if allow {
			rl.msgBlocked = false
		} else if !rl.msgBlocked {
			rl.msgBlocked = true
			warn = true
		}
		mu.Unlock()

		switch {
		case allow:
			logf(format, args...)
		case warn:
			logf("[RATE LIMITED] format string %q (example: %q)", format, strings.TrimSpace(fmt.Sprintf(format, args...)))
		}
	}
}
