// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"netforge.dev/net/ip4addr"
	"netforge.dev/net/packet/checksum"
	"netforge.dev/types/ipproto"
	"netforge.dev/types/strbuilder"
)

const (
	udpHeaderLength = 8
	// udpTotalHeaderLength is the length of all headers in a UDP packet.
	udpTotalHeaderLength = ip4HeaderLength + udpHeaderLength
)

// UDP4View is a read-only view of the UDP header carried in an IPv4
// datagram.
type UDP4View struct {
	SrcPort uint16
	DstPort uint16
	Length  uint16 // header plus payload, as declared

	// Checksum is the checksum field as received. The view does not
	// check it; see ChecksumValid.
	Checksum uint16

	// Payload is the Length-8 bytes following the header.
	Payload Buffer

	seg Buffer // header and payload, Length bytes
}

// ParseUDP4 interprets the payload of ip as a UDP header. It reports
// false, returning a zero view, if ip does not carry UDP, if its payload
// is shorter than a UDP header or than the declared UDP length, or if
// the declared length is below 8.
//
// Only an unfragmented datagram or a first fragment carries a UDP
// header; a later fragment reports false.
func ParseUDP4(ip IP4View) (UDP4View, bool) {
	if ip.Proto != ipproto.UDP || ip.FragmentOffset != 0 {
		return UDP4View{}, false
	}
	p := ip.Payload
	if p.ReadableBytes() < udpHeaderLength {
		return UDP4View{}, false
	}
	length, _ := p.LoadU16(4)
	if length < udpHeaderLength {
		return UDP4View{}, false
	}
	seg, ok := p.Slice(0, int(length))
	if !ok {
		return UDP4View{}, false
	}
	payload, ok := p.Slice(udpHeaderLength, int(length)-udpHeaderLength)
	if !ok {
		return UDP4View{}, false
	}
	sport, _ := p.LoadU16(0)
	dport, _ := p.LoadU16(2)
	csum, _ := p.LoadU16(6)
	return UDP4View{
		SrcPort:  sport,
		DstPort:  dport,
		Length:   length,
		Checksum: csum,
		Payload:  payload,
		seg:      seg,
	}, true
}

// Segment returns the UDP header and payload.
func (u UDP4View) Segment() Buffer { return u.seg }

// ChecksumValid reports whether u's checksum is correct for a datagram
// with ip's addresses, using the IPv4 pseudo-header. A zero checksum
// means the sender did not compute one, and is reported valid.
func (u UDP4View) ChecksumValid(ip IP4View) bool {
	if u.Checksum == 0 {
		return true
	}
	sum := checksum.PseudoHeader4(ip.Src, ip.Dst, ipproto.UDP, u.Length)
	return checksum.Fold(checksum.Sum(u.seg.Bytes(), sum)) == 0xffff
}

// String returns a summary such as "UDP{12345 > 80 len=12}".
func (u UDP4View) String() string {
	sb := strbuilder.Get()
	sb.WriteString("UDP{")
	sb.WriteUint(uint64(u.SrcPort))
	sb.WriteString(" > ")
	sb.WriteUint(uint64(u.DstPort))
	sb.WriteString(" len=")
	sb.WriteUint(uint64(u.Length))
	sb.WriteByte('}')
	return sb.String()
}

// UDP4Header represents an IPv4 UDP packet header.
type UDP4Header struct {
	IP4Header
	SrcPort uint16
	DstPort uint16

	// UDPChecksum makes WriteChecksum compute the UDP checksum.
	// When false the checksum field is left zero, which IPv4 UDP
	// permits.
	UDPChecksum bool
}

// Len implements Header.
func (UDP4Header) Len() int {
	return udpTotalHeaderLength
}

// Marshal implements Header. The UDP checksum field is left zero; see
// WriteChecksum.
func (h UDP4Header) Marshal(buf []byte) error {
	if len(buf) < udpTotalHeaderLength {
		return errSmallBuffer
	}
	if len(buf) > maxPacketLength {
		return errLargePacket
	}
	// The caller does not need to set this.
	h.IPProto = ipproto.UDP

	length := len(buf) - h.IP4Header.Len()
	put16(buf[20:22], h.SrcPort)
	put16(buf[22:24], h.DstPort)
	put16(buf[24:26], uint16(length))
	put16(buf[26:28], 0) // blank checksum

	return h.IP4Header.Marshal(buf)
}

// WriteChecksum implements HeaderChecksummer. It writes the UDP
// checksum into buf if h.UDPChecksum is set.
func (h UDP4Header) WriteChecksum(buf []byte) {
	if !h.UDPChecksum {
		return
	}
	seg := buf[ip4HeaderLength:]
	put16(seg[6:8], 0)
	put16(seg[6:8], udp4Checksum(h.Src, h.Dst, seg))
}

// ToResponse swaps the endpoints of h, for building a reply.
func (h *UDP4Header) ToResponse() {
	h.SrcPort, h.DstPort = h.DstPort, h.SrcPort
	h.IP4Header.ToResponse()
}

// udp4Checksum returns the checksum of the UDP segment seg, whose
// checksum field must be zero, sent from src to dst. A computed zero is
// returned as 0xffff, since zero on the wire means no checksum.
func udp4Checksum(src, dst ip4addr.Addr, seg []byte) uint16 {
	sum := checksum.PseudoHeader4(src, dst, ipproto.UDP, uint16(len(seg)))
	c := ^checksum.Fold(checksum.Sum(seg, sum))
	if c == 0 {
		c = 0xffff
	}
	return c
}
