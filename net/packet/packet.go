// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package packet contains zero-copy views for decoding IPv4 and UDP
// headers, and writers for encoding them.
//
// Decoding starts from a Buffer over bytes already in memory:
//
//	ip, ok := packet.ParseIP4(packet.NewBuffer(b))
//	if !ok {
//		return // not a well-formed IPv4 datagram
//	}
//	udp, ok := packet.ParseUDP4(ip)
//
// Neither step copies; udp.Payload is a view into b.
package packet

import (
	"encoding/binary"

	"netforge.dev/types/strbuilder"
)

var (
	get16 = binary.BigEndian.Uint16
	get32 = binary.BigEndian.Uint32

	put16 = binary.BigEndian.PutUint16
	put32 = binary.BigEndian.PutUint32
)

// Hexdump returns b formatted as offset, hex and ASCII columns, 16
// bytes per line, like hexdump -C.
func Hexdump(b []byte) string {
	sb := strbuilder.Get()
	for i := 0; i < len(b); i += 16 {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("  ")
		sb.WriteHex(uint64(i), 4)
		sb.WriteString("  ")
		j := 0
		for ; j < 16 && i+j < len(b); j++ {
			if j == 8 {
				sb.WriteByte(' ')
			}
			sb.WriteHexByte(b[i+j])
			sb.WriteByte(' ')
		}
		for ; j < 16; j++ {
			if j == 8 {
				sb.WriteByte(' ')
			}
			sb.WriteString("   ")
		}
		sb.WriteByte(' ')
		for j = 0; j < 16 && i+j < len(b); j++ {
			if c := b[i+j]; c >= 32 && c < 127 {
				sb.WriteByte(c)
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}
