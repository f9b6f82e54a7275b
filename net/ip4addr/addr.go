// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package ip4addr contains IPv4 address and prefix value types for the
// packet codec.
//
// All Addr values are the numeric value of the address in network byte
// order: 10.0.0.1 is 0x0a000001 on every host. Host byte order never
// appears in this package's API.
package ip4addr

import (
	"net/netip"
	"strconv"

	"go4.org/mem"
)

// Addr is an IPv4 address as a 32-bit big-endian value.
type Addr uint32

// AddrFrom4 returns the address a.b.c.d.
func AddrFrom4(a, b, c, d byte) Addr {
	return Addr(uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d))
}

// AddrFromSlice returns the address held in the 4-byte slice b.
// It reports false if len(b) != 4.
func AddrFromSlice(b []byte) (Addr, bool) {
	if len(b) != 4 {
		return 0, false
	}
	return AddrFrom4(b[0], b[1], b[2], b[3]), true
}

// AddrFromNetip converts ip to an Addr. IPv4-mapped IPv6 addresses are
// unmapped first. It reports false for any other IPv6 or invalid address.
func AddrFromNetip(ip netip.Addr) (Addr, bool) {
	ip = ip.Unmap()
	if !ip.Is4() {
		return 0, false
	}
	b := ip.As4()
	return AddrFrom4(b[0], b[1], b[2], b[3]), true
}

// As4 returns the address in its 4-byte wire representation.
func (a Addr) As4() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

// Netip converts a to a netip.Addr.
func (a Addr) Netip() netip.Addr {
	return netip.AddrFrom4(a.As4())
}

// IsUnspecified reports whether a is 0.0.0.0.
func (a Addr) IsUnspecified() bool { return a == 0 }

// IsMulticast reports whether a is in 224.0.0.0/4.
func (a Addr) IsMulticast() bool {
	return byte(a>>24)&0xf0 == 0xe0
}

// IsLinkLocalUnicast reports whether a is in 169.254.0.0/16.
func (a Addr) IsLinkLocalUnicast() bool {
	return byte(a>>24) == 169 && byte(a>>16) == 254
}

// AppendTo appends the dotted-decimal form of a to b.
func (a Addr) AppendTo(b []byte) []byte {
	b = strconv.AppendUint(b, uint64(byte(a>>24)), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(byte(a>>16)), 10)
	b = append(b, '.')
	b = strconv.AppendUint(b, uint64(byte(a>>8)), 10)
	b = append(b, '.')
	return strconv.AppendUint(b, uint64(byte(a)), 10)
}

// String returns the dotted-decimal form of a, e.g. "8.8.8.8".
func (a Addr) String() string {
	var buf [len("255.255.255.255")]byte
	return string(a.AppendTo(buf[:0]))
}

// MarshalText implements encoding.TextMarshaler.
func (a Addr) MarshalText() ([]byte, error) {
	return a.AppendTo(nil), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Addr) UnmarshalText(text []byte) error {
	v, err := ParseAddrMem(mem.B(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

type parseAddrError struct {
	in  string
	msg string
}

func (e parseAddrError) Error() string {
	return "ParseAddr(" + strconv.Quote(e.in) + "): " + e.msg
}

// ParseAddr parses s as a dotted-decimal IPv4 address.
//
// Parsing is strict: exactly four octets separated by '.', each made of
// decimal digits only with a value in 0-255. Leading zeros are read as
// decimal ("010" is 10, never octal); hex, signs, whitespace and
// zones are rejected.
func ParseAddr(s string) (Addr, error) {
	return ParseAddrMem(mem.S(s))
}

// ParseAddrMem is like ParseAddr but parses from a mem.RO, so callers
// holding a []byte can parse without converting to string.
func ParseAddrMem(m mem.RO) (Addr, error) {
	var (
		v        uint32
		octet    uint32
		nOctets  int
		hasDigit bool
	)
	for i := 0; i < m.Len(); i++ {
		c := m.At(i)
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
			octet = octet*10 + uint32(c-'0')
			if octet > 255 {
				return 0, parseAddrError{in: m.StringCopy(), msg: "octet value out of range"}
			}
		case c == '.':
			if !hasDigit {
				return 0, parseAddrError{in: m.StringCopy(), msg: "empty octet"}
			}
			v = v<<8 | octet
			nOctets++
			if nOctets > 3 {
				return 0, parseAddrError{in: m.StringCopy(), msg: "too many octets"}
			}
			octet, hasDigit = 0, false
		default:
			return 0, parseAddrError{in: m.StringCopy(), msg: "unexpected character " + strconv.QuoteRune(rune(c))}
		}
	}
	if !hasDigit {
		return 0, parseAddrError{in: m.StringCopy(), msg: "empty octet"}
	}
	if nOctets != 3 {
		return 0, parseAddrError{in: m.StringCopy(), msg: "too few octets"}
	}
	return Addr(v<<8 | octet), nil
}

// MustParseAddr is like ParseAddr but panics on error.
// It is intended for tests and package-level variables.
func MustParseAddr(s string) Addr {
	a, err := ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}
