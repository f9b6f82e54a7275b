// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"bytes"

	"netforge.dev/types/strbuilder"
)

type bufferKind uint8

const (
	wholeBuffer  bufferKind = iota // window is all of b
	slicedBuffer                   // window is b[start:start+n]
)

// Buffer is a read-only, bounds-checked view over a range of bytes.
//
// A Buffer is either a whole view over a byte slice or a sliced view
// over a window of one. Both kinds behave identically: every load and
// slice is relative to the start of the view and checked against its
// length. A Buffer never copies the bytes it views, except in
// Materialize, so the underlying storage must not be modified while any
// Buffer over it is in use. Under that rule a Buffer is safe for
// concurrent use by multiple goroutines.
//
// The zero Buffer is an empty whole view.
type Buffer struct {
	b     []byte
	start int
	n     int
	kind  bufferKind
}

// NewBuffer returns a view over all of b.
func NewBuffer(b []byte) Buffer {
	return Buffer{b: b, n: len(b), kind: wholeBuffer}
}

// NewBufferSlice returns a view over b[start:start+length]. It reports
// false if that window is not contained in b.
func NewBufferSlice(b []byte, start, length int) (Buffer, bool) {
	if start < 0 || length < 0 || start > len(b)-length {
		return Buffer{}, false
	}
	return Buffer{b: b, start: start, n: length, kind: slicedBuffer}, true
}

// ReadableBytes returns the number of bytes in the view.
func (v Buffer) ReadableBytes() int { return v.n }

// in reports whether [off, off+width) lies inside the view.
// The comparison is arranged so off+width cannot overflow.
func (v Buffer) in(off, width int) bool {
	return off >= 0 && off <= v.n-width
}

// LoadU8 returns the byte at off.
func (v Buffer) LoadU8(off int) (uint8, bool) {
	if !v.in(off, 1) {
		return 0, false
	}
	return v.b[v.start+off], true
}

// LoadU16 returns the big-endian uint16 at off.
func (v Buffer) LoadU16(off int) (uint16, bool) {
	if !v.in(off, 2) {
		return 0, false
	}
	return get16(v.b[v.start+off:]), true
}

// LoadU32 returns the big-endian uint32 at off.
func (v Buffer) LoadU32(off int) (uint32, bool) {
	if !v.in(off, 4) {
		return 0, false
	}
	return get32(v.b[v.start+off:]), true
}

// Slice returns a view over [off, off+length) of v, sharing v's
// storage. It reports false unless the range lies entirely inside v.
//
// The returned view indexes the original storage directly, so the cost
// of a load does not depend on how many times a view has been sliced.
func (v Buffer) Slice(off, length int) (Buffer, bool) {
	if off < 0 || length < 0 || off > v.n-length {
		return Buffer{}, false
	}
	return Buffer{b: v.b, start: v.start + off, n: length, kind: slicedBuffer}, true
}

// Materialize returns a newly allocated copy of the bytes in the view.
// It is the only Buffer method that copies, and is meant for handing
// bytes to I/O or keeping them after the storage is reused.
func (v Buffer) Materialize() []byte {
	switch v.kind {
	case wholeBuffer:
		return bytes.Clone(v.b[:v.n:v.n])
	case slicedBuffer:
		return bytes.Clone(v.b[v.start : v.start+v.n : v.start+v.n])
	default:
		panic("packet: unknown Buffer kind")
	}
}

// Bytes returns the bytes in the view without copying. The result
// aliases the underlying storage and must not be modified. Its capacity
// is clipped so appends cannot reach bytes outside the view.
func (v Buffer) Bytes() []byte {
	return v.b[v.start : v.start+v.n : v.start+v.n]
}

// Equal reports whether v and w hold the same bytes.
func (v Buffer) Equal(w Buffer) bool {
	return bytes.Equal(v.Bytes(), w.Bytes())
}

// String returns a short hex rendering of v for debugging, such as
// "Buffer[4]{deadbeef}". Views longer than 32 bytes are truncated.
func (v Buffer) String() string {
	const maxShown = 32
	sb := strbuilder.Get()
	sb.WriteString("Buffer[")
	sb.WriteUint(uint64(v.n))
	sb.WriteString("]{")
	b := v.Bytes()
	for i, c := range b {
		if i == maxShown {
			sb.WriteString("...")
			break
		}
		sb.WriteHexByte(c)
	}
	sb.WriteByte('}')
	return sb.String()
}
