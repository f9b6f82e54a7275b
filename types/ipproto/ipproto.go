// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package ipproto contains IP Protocol constants.
package ipproto

import (
	"fmt"
	"strconv"
	"strings"
)

// Proto is an IP subprotocol as used in the IPv4 Protocol field.
//
// Values this package has no name for are kept as their numeric value
// rather than being collapsed to Unknown, so that callers can still
// forward or log them.
type Proto uint8

const (
	// Unknown is the zero value. It is also IPv6 Hop-by-Hop, but
	// IPv4-only parsing never produces it for a valid header.
	Unknown Proto = 0x00

	ICMPv4 Proto = 0x01
	IGMP   Proto = 0x02
	TCP    Proto = 0x06
	UDP    Proto = 0x11
	GRE    Proto = 0x2f
	ICMPv6 Proto = 0x3a
	SCTP   Proto = 0x84
)

var protoNames = map[Proto]string{
	Unknown: "Unknown",
	ICMPv4:  "ICMPv4",
	IGMP:    "IGMP",
	TCP:     "TCP",
	UDP:     "UDP",
	GRE:     "GRE",
	ICMPv6:  "ICMPv6",
	SCTP:    "SCTP",
}

// IsKnown reports whether p has a name in this package.
func (p Proto) IsKnown() bool {
	_, ok := protoNames[p]
	return ok
}

func (p Proto) String() string {
	if s, ok := protoNames[p]; ok {
		return s
	}
	return "IPProto-" + strconv.Itoa(int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Proto) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the
// names produced by String, case-insensitively, and decimal numbers.
func (p *Proto) UnmarshalText(b []byte) error {
	s := string(b)
	for v, name := range protoNames {
		if strings.EqualFold(s, name) {
			*p = v
			return nil
		}
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "IPProto-"), 10, 8)
	if err != nil {
		return fmt.Errorf("invalid IP protocol %q", s)
	}
	*p = Proto(n)
	return nil
}
