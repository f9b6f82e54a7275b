// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"golang.org/x/net/ipv4"
	"netforge.dev/net/ip4addr"
	"netforge.dev/net/packet/checksum"
	"netforge.dev/types/ipproto"
	"netforge.dev/types/strbuilder"
)

// ip4HeaderLength is the length of an IPv4 header with no IP options.
const ip4HeaderLength = ipv4.HeaderLen

// defaultTTL is the TTL used when a header leaves it unset.
const defaultTTL = 64

// IPv4 flags and fragment offset field, offset 6.
const (
	ip4FlagDF         = 0x4000
	ip4FlagMF         = 0x2000
	ip4FragOffsetMask = 0x1fff
)

// IP4View is a read-only view of an IPv4 header and the datagram it
// heads. Options, if present, are covered by HeaderLength but are not
// decoded.
type IP4View struct {
	Version      uint8 // always 4
	HeaderLength int   // IHL in bytes, at least 20
	TotalLength  int   // datagram length from the header
	TOS          uint8
	ID           uint16

	DontFragment   bool
	MoreFragments  bool
	FragmentOffset uint16 // in 8-byte units

	// Fragmented reports whether the datagram is any fragment of a
	// larger one: MoreFragments is set or FragmentOffset is nonzero.
	Fragmented bool

	TTL      uint8
	Proto    ipproto.Proto // unknown protocol numbers are kept as is
	Checksum uint16        // header checksum as received
	Src      ip4addr.Addr
	Dst      ip4addr.Addr

	// Payload is the TotalLength-HeaderLength bytes that follow the
	// header. Bytes in the buffer past TotalLength are not included.
	Payload Buffer

	dgram Buffer // header and payload, TotalLength bytes
}

// ParseIP4 interprets buf as an IPv4 datagram. It reports false,
// returning a zero view, if buf is not a well-formed IPv4 header
// followed by at least the declared total length: too short, version
// other than 4, IHL below 5, or a total length smaller than the header
// or larger than buf. Malformed and truncated input are not told apart.
//
// ParseIP4 does not copy or allocate.
func ParseIP4(buf Buffer) (IP4View, bool) {
	if buf.ReadableBytes() < ip4HeaderLength {
		return IP4View{}, false
	}
	// All loads below are within the first 20 bytes, checked above.
	vihl, _ := buf.LoadU8(0)
	if vihl>>4 != ipv4.Version {
		return IP4View{}, false
	}
	hlen := int(vihl&0x0f) << 2
	if hlen < ip4HeaderLength {
		return IP4View{}, false
	}
	tlen16, _ := buf.LoadU16(2)
	tlen := int(tlen16)
	if tlen > buf.ReadableBytes() || tlen < hlen {
		return IP4View{}, false
	}
	dgram, ok := buf.Slice(0, tlen)
	if !ok {
		return IP4View{}, false
	}
	payload, ok := buf.Slice(hlen, tlen-hlen)
	if !ok {
		return IP4View{}, false
	}

	tos, _ := buf.LoadU8(1)
	id, _ := buf.LoadU16(4)
	frag, _ := buf.LoadU16(6)
	ttl, _ := buf.LoadU8(8)
	proto, _ := buf.LoadU8(9)
	csum, _ := buf.LoadU16(10)
	src, _ := buf.LoadU32(12)
	dst, _ := buf.LoadU32(16)

	v := IP4View{
		Version:        ipv4.Version,
		HeaderLength:   hlen,
		TotalLength:    tlen,
		TOS:            tos,
		ID:             id,
		DontFragment:   frag&ip4FlagDF != 0,
		MoreFragments:  frag&ip4FlagMF != 0,
		FragmentOffset: frag & ip4FragOffsetMask,
		TTL:            ttl,
		Proto:          ipproto.Proto(proto),
		Checksum:       csum,
		Src:            ip4addr.Addr(src),
		Dst:            ip4addr.Addr(dst),
		Payload:        payload,
		dgram:          dgram,
	}
	v.Fragmented = v.MoreFragments || v.FragmentOffset != 0
	return v, true
}

// Header returns the header bytes, options included.
func (v IP4View) Header() Buffer {
	h, _ := v.dgram.Slice(0, v.HeaderLength)
	return h
}

// Datagram returns the whole datagram: header and payload, without any
// trailing bytes the underlying buffer had past TotalLength.
func (v IP4View) Datagram() Buffer { return v.dgram }

// HeaderChecksumValid reports whether the header, checksum field
// included, sums to 0xffff.
func (v IP4View) HeaderChecksumValid() bool {
	if v.HeaderLength == 0 {
		return false
	}
	return checksum.Verify(v.Header().Bytes())
}

// String returns a one-line summary such as
// "UDP{10.0.0.1:12345 > 10.0.0.2:80 len=32}".
// Ports are shown only for a UDP datagram that parses as one.
func (v IP4View) String() string {
	if v.Version == 0 {
		return "IP4{invalid}"
	}
	var sport, dport uint16
	udp, hasPorts := ParseUDP4(v)
	if hasPorts {
		sport, dport = udp.SrcPort, udp.DstPort
	}
	sb := strbuilder.Get()
	sb.WriteString(v.Proto.String())
	sb.WriteByte('{')
	writeIPPort(sb, v.Src, sport, hasPorts)
	sb.WriteString(" > ")
	writeIPPort(sb, v.Dst, dport, hasPorts)
	sb.WriteString(" len=")
	sb.WriteUint(uint64(v.TotalLength))
	if v.Fragmented {
		sb.WriteString(" frag=")
		sb.WriteUint(uint64(v.FragmentOffset) * 8)
		if v.MoreFragments {
			sb.WriteByte('+')
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func writeIPPort(sb *strbuilder.Builder, ip ip4addr.Addr, port uint16, withPort bool) {
	sb.WriteUint(uint64(byte(ip >> 24)))
	sb.WriteByte('.')
	sb.WriteUint(uint64(byte(ip >> 16)))
	sb.WriteByte('.')
	sb.WriteUint(uint64(byte(ip >> 8)))
	sb.WriteByte('.')
	sb.WriteUint(uint64(byte(ip)))
	if withPort {
		sb.WriteByte(':')
		sb.WriteUint(uint64(port))
	}
}

// IP4Header represents an IPv4 packet header with no options.
type IP4Header struct {
	IPProto ipproto.Proto
	IPID    uint16
	TTL     uint8 // 0 means 64
	Src     ip4addr.Addr
	Dst     ip4addr.Addr
}

// Len implements Header.
func (h IP4Header) Len() int {
	return ip4HeaderLength
}

// Marshal implements Header. The total length field is set from
// len(buf).
func (h IP4Header) Marshal(buf []byte) error {
	if len(buf) < h.Len() {
		return errSmallBuffer
	}
	if len(buf) > maxPacketLength {
		return errLargePacket
	}
	ttl := h.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	buf[0] = ipv4.Version<<4 | byte(h.Len()>>2) // IPv4 + IHL
	buf[1] = 0x00                               // DSCP + ECN
	put16(buf[2:4], uint16(len(buf)))           // Total length
	put16(buf[4:6], h.IPID)                     // ID
	put16(buf[6:8], 0)                          // Flags + fragment offset
	buf[8] = ttl                                // TTL
	buf[9] = uint8(h.IPProto)                   // Inner protocol
	// Blank checksum. This is necessary even though we overwrite
	// it later, because the checksum computation runs over these
	// bytes and expects them to be zero.
	put16(buf[10:12], 0)
	put32(buf[12:16], uint32(h.Src)) // Src
	put32(buf[16:20], uint32(h.Dst)) // Dst

	put16(buf[10:12], checksum.Checksum(buf[0:20])) // Checksum

	return nil
}

// ToResponse swaps the endpoints of h, for building a reply.
func (h *IP4Header) ToResponse() {
	h.Src, h.Dst = h.Dst, h.Src
	// Flip the bits in the IPID. If incoming IPIDs are distinct, so are these.
	h.IPID = ^h.IPID
}
