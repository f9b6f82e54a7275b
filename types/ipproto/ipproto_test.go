// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package ipproto

import "testing"

func TestProtoString(t *testing.T) {
	tests := []struct {
		p    Proto
		want string
	}{
		{UDP, "UDP"},
		{TCP, "TCP"},
		{ICMPv4, "ICMPv4"},
		{Unknown, "Unknown"},
		{Proto(99), "IPProto-99"},
		{Proto(255), "IPProto-255"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Proto(%d).String() = %q; want %q", uint8(tt.p), got, tt.want)
		}
	}
}

func TestProtoIsKnown(t *testing.T) {
	if !UDP.IsKnown() {
		t.Error("UDP not known")
	}
	if Proto(99).IsKnown() {
		t.Error("99 reported known")
	}
	if UDP != 17 {
		t.Errorf("UDP = %d; want 17", UDP)
	}
}

func TestProtoText(t *testing.T) {
	for _, p := range []Proto{Unknown, UDP, TCP, SCTP, Proto(99), Proto(255)} {
		b, err := p.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Proto
		if err := got.UnmarshalText(b); err != nil || got != p {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", b, got, err, p)
		}
	}
	for in, want := range map[string]Proto{"udp": UDP, "17": UDP, "6": TCP, "icmpv4": ICMPv4} {
		var got Proto
		if err := got.UnmarshalText([]byte(in)); err != nil || got != want {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, in := range []string{"", "256", "-1", "UDPX", "IPProto-"} {
		var got Proto
		if err := got.UnmarshalText([]byte(in)); err == nil {
			t.Errorf("UnmarshalText(%q) = %v; want error", in, got)
		}
	}
}
