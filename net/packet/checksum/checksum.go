// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package checksum implements the Internet checksum used by IPv4 and
// UDP headers: the RFC 1071 one's-complement sum and the RFC 1624
// incremental update.
package checksum

import (
	"encoding/binary"

	"netforge.dev/net/ip4addr"
	"netforge.dev/types/ipproto"
)

// Sum adds the 16-bit big-endian words of b to initial and returns the
// unfolded sum. An odd trailing byte is padded with a zero low byte.
//
// The accumulator is 32 bits wide so carries out of bit 15 are kept;
// it cannot overflow for any b no longer than an IPv4 datagram
// (32767 words of at most 0xffff each).
func Sum(b []byte, initial uint32) uint32 {
	ac := initial
	for len(b) >= 2 {
		ac += uint32(binary.BigEndian.Uint16(b))
		b = b[2:]
	}
	if len(b) == 1 {
		ac += uint32(b[0]) << 8
	}
	return ac
}

// Fold folds the carries of a 32-bit sum back into the low 16 bits.
// It loops because adding the carries can itself carry.
func Fold(ac uint32) uint16 {
	for (ac >> 16) > 0 {
		ac = (ac >> 16) + (ac & 0xffff)
	}
	return uint16(ac)
}

// Checksum returns the Internet checksum of b: the one's complement of
// the folded sum. The checksum field inside b, if any, must be zero.
func Checksum(b []byte) uint16 {
	return ^Fold(Sum(b, 0))
}

// Verify reports whether b, including its checksum field as
// transmitted, sums to 0xffff.
func Verify(b []byte) bool {
	return Fold(Sum(b, 0)) == 0xffff
}

// PseudoHeader4 returns the unfolded sum of the IPv4 pseudo-header used
// by UDP and TCP checksums: source, destination, a zero byte, the
// protocol and the transport length.
func PseudoHeader4(src, dst ip4addr.Addr, proto ipproto.Proto, length uint16) uint32 {
	return uint32(src>>16) + uint32(src&0xffff) +
		uint32(dst>>16) + uint32(dst&0xffff) +
		uint32(proto) + uint32(length)
}

// Update16 updates the 16-bit checksum field sum in place for a change
// of the covered bytes from old to new, per RFC 1624.
//
// The old and new must be the same length, and must be an even number of bytes.
func Update16(sum, old, new []byte) {
	if len(old) != len(new) {
		panic("checksum: old and new must be the same length")
	}
	if len(old)%2 != 0 {
		panic("checksum: old and new must be of even length")
	}
	/*
		RFC 1624, Eqn. 3:

		    HC  - old checksum in header
		    C   - one's complement sum of old header
		    HC' - new checksum in header
		    C'  - one's complement sum of new header
		    m   - old value of a 16-bit field
		    m'  - new value of a 16-bit field

		    HC' = ~(C + ~m + m')
	*/
	cPrime := uint32(^binary.BigEndian.Uint16(sum))
	for len(new) > 0 {
		mNot := uint32(^binary.BigEndian.Uint16(old[:2]))
		mPrime := uint32(binary.BigEndian.Uint16(new[:2]))
		cPrime += mPrime + mNot
		new, old = new[2:], old[2:]
	}
	binary.BigEndian.PutUint16(sum, ^Fold(cPrime))
}
