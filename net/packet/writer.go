// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// maxLabelLength is the longest name label whose length byte leaves the
// top two bits clear; those bits mark a compression pointer.
const maxLabelLength = 63

// maxPointerOffset is the largest offset a 14-bit compression pointer
// can hold.
const maxPointerOffset = 0x3fff

// Writer assembles packet bytes by appending. Its position is always
// the number of bytes written so far; FillU16 overwrites earlier bytes
// without moving it.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	b []byte
}

// NewWriter returns a Writer with room for capacity bytes before it
// needs to grow.
func NewWriter(capacity int) *Writer {
	return &Writer{b: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written, which is also the offset of
// the next write.
func (w *Writer) Len() int { return len(w.b) }

// Bytes returns the written bytes. The result aliases the Writer's
// storage until the next write.
func (w *Writer) Bytes() []byte { return w.b }

// Buffer returns a whole Buffer over the written bytes. The Writer must
// not be written to afterwards while the Buffer is in use.
func (w *Writer) Buffer() Buffer { return NewBuffer(w.b) }

// Reset discards all written bytes, keeping the storage for reuse.
func (w *Writer) Reset() { w.b = w.b[:0] }

// Grow ensures room for another n bytes without reallocating.
func (w *Writer) Grow(n int) {
	if cap(w.b)-len(w.b) < n {
		nb := make([]byte, len(w.b), len(w.b)+n)
		copy(nb, w.b)
		w.b = nb
	}
}

// WriteU8 appends v.
func (w *Writer) WriteU8(v uint8) { w.b = append(w.b, v) }

// WriteU16 appends v in big-endian order.
func (w *Writer) WriteU16(v uint16) { w.b = binary.BigEndian.AppendUint16(w.b, v) }

// WriteU32 appends v in big-endian order.
func (w *Writer) WriteU32(v uint32) { w.b = binary.BigEndian.AppendUint32(w.b, v) }

// Raw appends b.
func (w *Writer) Raw(b []byte) { w.b = append(w.b, b...) }

// RawBuffer appends the bytes viewed by v.
func (w *Writer) RawBuffer(v Buffer) { w.b = append(w.b, v.Bytes()...) }

// Reserve16 appends two zero bytes for a 16-bit field whose value is
// not yet known, and returns their offset for a later FillU16.
func (w *Writer) Reserve16() int {
	off := len(w.b)
	w.b = append(w.b, 0, 0)
	return off
}

// FillU16 overwrites the two bytes at off with v in big-endian order.
// It panics unless both bytes have already been written.
func (w *Writer) FillU16(off int, v uint16) {
	if off < 0 || off > len(w.b)-2 {
		panic(fmt.Sprintf("packet: FillU16 offset %d outside written length %d", off, len(w.b)))
	}
	put16(w.b[off:], v)
}

// Name appends name as a sequence of length-prefixed labels ending with
// a zero-length label, the encoding DNS uses for domain names.
// Empty labels, as from leading, trailing or doubled dots, are skipped.
// It returns an error, writing nothing, if any label is longer than 63
// bytes.
func (w *Writer) Name(name string) error {
	for label := range strings.SplitSeq(name, ".") {
		if len(label) > maxLabelLength {
			return fmt.Errorf("packet: label %q in name %q is %d bytes; max %d", label, name, len(label), maxLabelLength)
		}
	}
	for label := range strings.SplitSeq(name, ".") {
		if label == "" {
			continue
		}
		w.b = append(w.b, byte(len(label)))
		w.b = append(w.b, label...)
	}
	w.b = append(w.b, 0)
	return nil
}

// Pointer appends a name compression pointer to off: the 16-bit value
// 0xC000|off. It panics if off does not fit in 14 bits.
func (w *Writer) Pointer(off int) {
	if off < 0 || off > maxPointerOffset {
		panic(fmt.Sprintf("packet: compression pointer offset %d out of range [0, %#x]", off, maxPointerOffset))
	}
	w.WriteU16(0xc000 | uint16(off))
}
