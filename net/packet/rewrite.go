// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"errors"

	"netforge.dev/net/ip4addr"
	"netforge.dev/net/packet/checksum"
)

var errNotIP4 = errors.New("not an IPv4 datagram")

const (
	ip4SrcOffset      = 12
	ip4DstOffset      = 16
	ip4ChecksumOffset = 10
	udpChecksumOffset = 6
)

// UpdateSrcAddr rewrites the source address of the IPv4 datagram pkt in
// place to src, updating the header checksum and, if one was sent, the
// UDP checksum incrementally.
func UpdateSrcAddr(pkt []byte, src ip4addr.Addr) error {
	return updateAddr(pkt, ip4SrcOffset, src)
}

// UpdateDstAddr is like UpdateSrcAddr but rewrites the destination.
func UpdateDstAddr(pkt []byte, dst ip4addr.Addr) error {
	return updateAddr(pkt, ip4DstOffset, dst)
}

func updateAddr(pkt []byte, off int, addr ip4addr.Addr) error {
	ip, ok := ParseIP4(NewBuffer(pkt))
	if !ok {
		return errNotIP4
	}
	// Read UDP before pkt changes; the view aliases it.
	udp, isUDP := ParseUDP4(ip)

	var old [4]byte
	copy(old[:], pkt[off:off+4])
	next := addr.As4()
	if old == next {
		return nil
	}
	copy(pkt[off:off+4], next[:])
	checksum.Update16(pkt[ip4ChecksumOffset:ip4ChecksumOffset+2], old[:], next[:])

	if isUDP && udp.Checksum != 0 {
		o := ip.HeaderLength + udpChecksumOffset
		field := pkt[o : o+2]
		checksum.Update16(field, old[:], next[:])
		if get16(field) == 0 {
			put16(field, 0xffff)
		}
	}
	return nil
}
