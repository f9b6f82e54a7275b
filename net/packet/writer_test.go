// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"
	"netforge.dev/tstest"
)

func TestWriterInts(t *testing.T) {
	w := NewWriter(0)
	w.WriteU8(0x01)
	w.WriteU16(0x0203)
	w.WriteU32(0x04050607)
	w.Raw([]byte{0x08, 0x09})
	if w.Len() != 9 {
		t.Errorf("Len = %d; want 9", w.Len())
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	if diff := cmp.Diff(want, w.Bytes()); diff != "" {
		t.Errorf("bytes (-want +got):\n%s", diff)
	}
	if got, _ := w.Buffer().LoadU32(3); got != 0x04050607 {
		t.Errorf("Buffer().LoadU32(3) = %#x", got)
	}
}

func TestWriterBackPatch(t *testing.T) {
	tail := []byte("subsequent bytes")
	for _, v := range []uint16{0, 1, 0x1234, 0xffff} {
		patched := NewWriter(0)
		patched.WriteU8(0x45)
		off := patched.Reserve16()
		if off != 1 {
			t.Fatalf("Reserve16 = %d; want 1", off)
		}
		patched.Raw(tail)
		before := patched.Len()
		patched.FillU16(off, v)
		if patched.Len() != before {
			t.Errorf("FillU16 changed Len from %d to %d", before, patched.Len())
		}

		direct := NewWriter(0)
		direct.WriteU8(0x45)
		direct.WriteU16(v)
		direct.Raw(tail)

		if diff := cmp.Diff(direct.Bytes(), patched.Bytes()); diff != "" {
			t.Errorf("value %#x: patched differs from direct (-direct +patched):\n%s", v, diff)
		}
	}
}

func TestWriterFillOutOfRange(t *testing.T) {
	for name, f := range map[string]func(w *Writer){
		"negative": func(w *Writer) { w.FillU16(-1, 0) },
		"last":     func(w *Writer) { w.FillU16(w.Len()-1, 0) },
		"end":      func(w *Writer) { w.FillU16(w.Len(), 0) },
		"empty":    func(w *Writer) { w.Reset(); w.FillU16(0, 0) },
	} {
		t.Run(name, func(t *testing.T) {
			w := NewWriter(8)
			w.WriteU32(0)
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			f(w)
		})
	}
}

func TestWriterPointer(t *testing.T) {
	w := NewWriter(0)
	w.Pointer(0x0c)
	w.Pointer(0x3fff)
	w.Pointer(0)
	want := tstest.Hex(t, "c00c ffff c000")
	if diff := cmp.Diff(want, w.Bytes()); diff != "" {
		t.Errorf("pointers (-want +got):\n%s", diff)
	}

	for _, off := range []int{0x4000, -1, 0xffff} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Pointer(%#x) did not panic", off)
				}
			}()
			w.Pointer(off)
		}()
	}
}

func TestWriterName(t *testing.T) {
	tests := []struct {
		name string
		want string // hex
	}{
		{"www.example.com", "03777777 076578616d706c65 03636f6d 00"},
		{"example.com.", "076578616d706c65 03636f6d 00"},
		{"", "00"},
		{".", "00"},
		{"a..b", "0161 0162 00"},
		{".a.", "0161 00"},
	}
	for _, tt := range tests {
		w := NewWriter(0)
		if err := w.Name(tt.name); err != nil {
			t.Errorf("Name(%q): %v", tt.name, err)
			continue
		}
		if diff := cmp.Diff(tstest.Hex(t, tt.want), w.Bytes()); diff != "" {
			t.Errorf("Name(%q) (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestWriterNameLabelLength(t *testing.T) {
	w := NewWriter(0)
	ok63 := strings.Repeat("a", 63)
	if err := w.Name(ok63 + ".com"); err != nil {
		t.Fatalf("63-byte label: %v", err)
	}
	if w.Bytes()[0] != 63 {
		t.Errorf("length byte = %d; want 63", w.Bytes()[0])
	}

	w.Reset()
	w.WriteU8(0xaa)
	if err := w.Name("ok." + strings.Repeat("b", 64)); err == nil {
		t.Error("64-byte label accepted")
	}
	if w.Len() != 1 {
		t.Errorf("failed Name wrote bytes: Len = %d; want 1", w.Len())
	}
}

// TestWriterNameDNS checks names and compression pointers against an
// independent DNS name decoder.
func TestWriterNameDNS(t *testing.T) {
	w := NewWriter(0)
	if err := w.Name("example.com"); err != nil {
		t.Fatal(err)
	}
	second := w.Len()
	w.WriteU8(3)
	w.Raw([]byte("www"))
	w.Pointer(0)
	third := w.Len()
	w.Pointer(second)
	msg := w.Bytes()

	for _, tt := range []struct {
		off  int
		want string
	}{
		{0, "example.com."},
		{second, "www.example.com."},
		{third, "www.example.com."},
	} {
		got, _, err := dns.UnpackDomainName(msg, tt.off)
		if err != nil {
			t.Errorf("UnpackDomainName(%d): %v", tt.off, err)
			continue
		}
		if got != tt.want {
			t.Errorf("UnpackDomainName(%d) = %q; want %q", tt.off, got, tt.want)
		}
	}
}

func TestWriterRawBufferAndGrow(t *testing.T) {
	src := NewBuffer([]byte{1, 2, 3, 4, 5})
	s, _ := src.Slice(1, 3)

	w := NewWriter(0)
	w.Grow(16)
	if c := cap(w.Bytes()); c < 16 {
		t.Fatalf("cap after Grow(16) = %d", c)
	}
	before := cap(w.Bytes())
	w.RawBuffer(s)
	w.WriteU8(9)
	if cap(w.Bytes()) != before {
		t.Error("writes after Grow reallocated")
	}
	if diff := cmp.Diff([]byte{2, 3, 4, 9}, w.Bytes()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	w.Reset()
	if w.Len() != 0 {
		t.Errorf("Len after Reset = %d", w.Len())
	}
}
