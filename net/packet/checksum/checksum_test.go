// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package checksum

import (
	"encoding/binary"
	"testing"

	gvchecksum "gvisor.dev/gvisor/pkg/tcpip/checksum"
	"netforge.dev/net/ip4addr"
	"netforge.dev/tstest"
	"netforge.dev/types/ipproto"
)

// RFC 1071 section 3 example and a captured IPv4 header.
func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint16
	}{
		{"rfc1071", []byte{0x00, 0x01, 0xf2, 0x03, 0xf4, 0xf5, 0xf6, 0xf7}, ^uint16(0xddf2)},
		{"empty", nil, 0xffff},
		{"odd", []byte{0x01}, ^uint16(0x0100)},
		{
			"ip4-header",
			tstest.Hex(t, `
				45 00 00 73 00 00 40 00 40 11 0000 # checksum blanked
				c0 a8 00 01
				c0 a8 00 c7`),
			0xb861,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.in); got != tt.want {
				t.Errorf("Checksum = %#04x; want %#04x", got, tt.want)
			}
		})
	}
}

func TestFoldRepeats(t *testing.T) {
	// 0x1fffe folds once to 0xffff; 0xffff0001 needs the carry from the
	// first fold to be folded again.
	tests := []struct {
		in   uint32
		want uint16
	}{
		{0, 0},
		{0xffff, 0xffff},
		{0x1fffe, 0xffff},
		{0x2fffd, 0xffff},
		{0xffff0001, 0x0001},
		{0xffffffff, 0xffff},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%#x) = %#x; want %#x", tt.in, got, tt.want)
		}
	}
}

func TestVerify(t *testing.T) {
	h := tstest.Hex(t, "45000073000040004011b861c0a80001c0a800c7")
	if !Verify(h) {
		t.Error("valid header failed Verify")
	}
	h[8]-- // TTL decrement without checksum fix
	if Verify(h) {
		t.Error("corrupted header passed Verify")
	}
}

func TestAgainstGvisor(t *testing.T) {
	r := tstest.Rand(t)
	for range 200 {
		b := make([]byte, r.IntN(1500))
		for i := range b {
			b[i] = byte(r.Uint32())
		}
		got := Fold(Sum(b, 0))
		want := gvchecksum.Checksum(b, 0)
		if got != want {
			t.Fatalf("len %d: Fold(Sum) = %#04x; gvisor = %#04x", len(b), got, want)
		}
	}
}

func TestPseudoHeader4(t *testing.T) {
	src := ip4addr.MustParseAddr("10.0.0.1")
	dst := ip4addr.MustParseAddr("10.0.0.2")

	var ph [12]byte
	binary.BigEndian.PutUint32(ph[0:4], uint32(src))
	binary.BigEndian.PutUint32(ph[4:8], uint32(dst))
	ph[9] = uint8(ipproto.UDP)
	binary.BigEndian.PutUint16(ph[10:12], 12)

	got := Fold(PseudoHeader4(src, dst, ipproto.UDP, 12))
	want := Fold(Sum(ph[:], 0))
	if got != want {
		t.Errorf("PseudoHeader4 = %#04x; want %#04x", got, want)
	}
}

func TestUpdate16(t *testing.T) {
	h := tstest.Hex(t, "45000073000040004011b861c0a80001c0a800c7")
	newSrc := []byte{10, 1, 2, 3}

	want := append([]byte(nil), h...)
	copy(want[12:16], newSrc)
	want[10], want[11] = 0, 0
	binary.BigEndian.PutUint16(want[10:12], Checksum(want))

	old := append([]byte(nil), h[12:16]...)
	copy(h[12:16], newSrc)
	Update16(h[10:12], old, newSrc)
	if got, w := binary.BigEndian.Uint16(h[10:12]), binary.BigEndian.Uint16(want[10:12]); got != w {
		t.Errorf("incremental checksum = %#04x; full recompute = %#04x", got, w)
	}
	if !Verify(h) {
		t.Error("updated header does not verify")
	}
}

func TestUpdate16Panics(t *testing.T) {
	for name, f := range map[string]func(){
		"length": func() { Update16(make([]byte, 2), make([]byte, 2), make([]byte, 4)) },
		"odd":    func() { Update16(make([]byte, 2), make([]byte, 3), make([]byte, 3)) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			f()
		})
	}
}

func BenchmarkChecksum(b *testing.B) {
	buf := make([]byte, 1500)
	b.SetBytes(int64(len(buf)))
	b.ReportAllocs()
	for range b.N {
		Checksum(buf)
	}
}
