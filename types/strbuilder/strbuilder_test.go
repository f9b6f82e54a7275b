// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package strbuilder

import (
	"math"
	"testing"
)

func TestBuilder(t *testing.T) {
	b := Get()
	b.WriteString("x=")
	b.WriteInt(math.MinInt64)
	b.WriteByte(' ')
	b.WriteUint(math.MaxUint64)
	b.WriteByte(' ')
	b.WriteHexByte(0x0a)
	b.WriteByte(' ')
	b.WriteHex(0x1f, 4)
	b.WriteByte(' ')
	b.WriteHex(0x12345, 4)
	got := b.String()
	const want = "x=-9223372036854775808 18446744073709551615 0a 001f 12345"
	if got != want {
		t.Errorf("got %q; want %q", got, want)
	}
}

func TestStringTwicePanics(t *testing.T) {
	b := Get()
	b.WriteString("once")
	_ = b.String()
	defer func() {
		if recover() == nil {
			t.Error("second String call did not panic")
		}
	}()
	_ = b.String()
}
