// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package strbuilder defines a string builder type that allocates
// less than the standard library's strings.Builder by using a
// sync.Pool, so it doesn't matter if the compiler can't prove that
// the builder doesn't escape into the fmt package, etc.
//
// It is used by the String methods of packet views and by Hexdump.
package strbuilder

import (
	"bytes"
	"strconv"
	"sync"
)

var pool = sync.Pool{
	New: func() any { return new(Builder) },
}

type Builder struct {
	bb      bytes.Buffer
	scratch [20]byte // long enough for MinInt64, MaxUint64
	locked  bool     // in pool, not for use
}

// Get returns a new or reused string Builder.
func Get() *Builder {
	b := pool.Get().(*Builder)
	b.bb.Reset()
	b.locked = false
	return b
}

// String both returns the Builder's string, and returns the builder
// to the pool.
func (b *Builder) String() string {
	if b.locked {
		panic("String called twice on Builder")
	}
	s := b.bb.String()
	b.locked = true
	pool.Put(b)
	return s
}

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.bb.Len() }

func (b *Builder) WriteByte(v byte) error {
	return b.bb.WriteByte(v)
}

func (b *Builder) WriteString(s string) (int, error) {
	return b.bb.WriteString(s)
}

func (b *Builder) Write(p []byte) (int, error) {
	return b.bb.Write(p)
}

func (b *Builder) WriteInt(v int64) {
	b.Write(strconv.AppendInt(b.scratch[:0], v, 10))
}

func (b *Builder) WriteUint(v uint64) {
	b.Write(strconv.AppendUint(b.scratch[:0], v, 10))
}

const hexDigits = "0123456789abcdef"

// WriteHexByte writes v as exactly two lowercase hex digits.
func (b *Builder) WriteHexByte(v byte) {
	b.bb.WriteByte(hexDigits[v>>4])
	b.bb.WriteByte(hexDigits[v&0xf])
}

// WriteHex writes v in lowercase hex, left-padded with zeros to at
// least width digits.
func (b *Builder) WriteHex(v uint64, width int) {
	s := strconv.AppendUint(b.scratch[:0], v, 16)
	for i := len(s); i < width; i++ {
		b.bb.WriteByte('0')
	}
	b.bb.Write(s)
}

// Grow grows the buffer's capacity, if necessary, to guarantee space
// for another n bytes. After Grow(n), at least n bytes can be written
// to the buffer without another allocation. If n is negative, Grow
// will panic. If the buffer can't grow it will panic with
// ErrTooLarge.
func (b *Builder) Grow(n int) {
	b.bb.Grow(n)
}
