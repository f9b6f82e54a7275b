// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"golang.org/x/net/ipv4"
	"netforge.dev/net/ip4addr"
	"netforge.dev/net/packet/checksum"
	"netforge.dev/types/ipproto"
)

// UDP4Params describes a UDP datagram to build. The zero value of each
// optional field selects its default.
type UDP4Params struct {
	Src, Dst         ip4addr.Addr
	SrcPort, DstPort uint16
	Payload          []byte

	// TTL is the IPv4 time to live. Zero means 64.
	TTL uint8

	// UDPChecksum computes the UDP checksum over the IPv4
	// pseudo-header. It is off by default, leaving the field zero.
	UDPChecksum bool
}

// BuildUDP4 returns a complete IPv4 datagram carrying a UDP segment: a
// 20-byte IPv4 header with no options and a valid header checksum,
// then the 8-byte UDP header and the payload.
//
// It returns an error if the datagram would be longer than 65535 bytes.
func BuildUDP4(p UDP4Params) ([]byte, error) {
	w := NewWriter(udpTotalHeaderLength + len(p.Payload))
	if err := WriteUDP4(w, p); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteUDP4 is like BuildUDP4 but appends the datagram to w, so a
// Writer can be reused across datagrams.
func WriteUDP4(w *Writer, p UDP4Params) error {
	udpLen := udpHeaderLength + len(p.Payload)
	total := ip4HeaderLength + udpLen
	if total > maxPacketLength {
		return errLargePacket
	}
	ttl := p.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}
	w.Grow(total)
	start := w.Len()

	w.WriteU8(ipv4.Version<<4 | ip4HeaderLength>>2)
	w.WriteU8(0) // DSCP + ECN
	w.WriteU16(uint16(total))
	w.WriteU16(0) // ID
	w.WriteU16(0) // flags + fragment offset
	w.WriteU8(ttl)
	w.WriteU8(uint8(ipproto.UDP))
	ipsum := w.Reserve16()
	w.WriteU32(uint32(p.Src))
	w.WriteU32(uint32(p.Dst))

	w.WriteU16(p.SrcPort)
	w.WriteU16(p.DstPort)
	w.WriteU16(uint16(udpLen))
	udpsum := w.Reserve16()
	w.Raw(p.Payload)

	b := w.Bytes()[start:]
	w.FillU16(ipsum, checksum.Checksum(b[:ip4HeaderLength]))
	if p.UDPChecksum {
		w.FillU16(udpsum, udp4Checksum(p.Src, p.Dst, b[ip4HeaderLength:]))
	}
	return nil
}
