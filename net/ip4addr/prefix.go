// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package ip4addr

import (
	"net/netip"
	"strconv"

	"go4.org/mem"
	"go4.org/netipx"
)

// Netmask returns the netmask for a prefix of the given length, e.g.
// 255.255.255.0 for 24. It reports false unless 0 <= bits <= 32.
func Netmask(bits int) (Addr, bool) {
	if bits < 0 || bits > 32 {
		return 0, false
	}
	if bits == 0 {
		return 0, true
	}
	return Addr(^uint32(0) << (32 - bits)), true
}

// NetworkBase returns addr with the host bits of a bits-long prefix
// cleared. It reports false if bits is out of range.
func NetworkBase(addr Addr, bits int) (Addr, bool) {
	m, ok := Netmask(bits)
	if !ok {
		return 0, false
	}
	return addr & m, true
}

// Contains reports whether addr is inside network/bits. network must
// already be normalized (host bits zero). An out-of-range bits is
// never a match.
func Contains(addr, network Addr, bits int) bool {
	m, ok := Netmask(bits)
	if !ok {
		return false
	}
	return addr&m == network
}

// Prefix is a normalized IPv4 CIDR prefix: the network address with
// all host bits zero, plus the prefix length.
//
// The zero Prefix is 0.0.0.0/0, which contains every address.
type Prefix struct {
	addr Addr
	bits uint8
}

// PrefixFrom returns the prefix of addr with the given length, with
// the host bits of addr cleared. It reports false if bits is out of
// range.
func PrefixFrom(addr Addr, bits int) (Prefix, bool) {
	base, ok := NetworkBase(addr, bits)
	if !ok {
		return Prefix{}, false
	}
	return Prefix{addr: base, bits: uint8(bits)}, true
}

// PrefixFromNetip converts an IPv4 netip.Prefix, normalizing it.
func PrefixFromNetip(p netip.Prefix) (Prefix, bool) {
	a, ok := AddrFromNetip(p.Addr())
	if !ok || !p.IsValid() {
		return Prefix{}, false
	}
	bits := p.Bits()
	if p.Addr().Is4In6() {
		bits -= 96
	}
	return PrefixFrom(a, bits)
}

// Addr returns the network address of p.
func (p Prefix) Addr() Addr { return p.addr }

// Bits returns the prefix length of p.
func (p Prefix) Bits() int { return int(p.bits) }

// Mask returns the netmask of p.
func (p Prefix) Mask() Addr {
	m, _ := Netmask(int(p.bits))
	return m
}

// Contains reports whether addr is inside p.
func (p Prefix) Contains(addr Addr) bool {
	return Contains(addr, p.addr, int(p.bits))
}

// IsSingleIP reports whether p covers exactly one address.
func (p Prefix) IsSingleIP() bool { return p.bits == 32 }

// Netip converts p to a netip.Prefix.
func (p Prefix) Netip() netip.Prefix {
	return netip.PrefixFrom(p.addr.Netip(), int(p.bits))
}

// Range returns the inclusive range of addresses covered by p.
func (p Prefix) Range() netipx.IPRange {
	return netipx.RangeOfPrefix(p.Netip())
}

// Last returns the last (broadcast) address covered by p.
func (p Prefix) Last() Addr {
	return p.addr | ^p.Mask()
}

// String returns p in CIDR notation, e.g. "192.168.1.0/24".
func (p Prefix) String() string {
	var buf [len("255.255.255.255/32")]byte
	b := p.addr.AppendTo(buf[:0])
	b = append(b, '/')
	b = strconv.AppendUint(b, uint64(p.bits), 10)
	return string(b)
}

// Strings returns the dotted-decimal network address and netmask of p,
// e.g. ("192.168.1.0", "255.255.255.0").
func (p Prefix) Strings() (ip, mask string) {
	return p.addr.String(), p.Mask().String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Prefix) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Prefix) UnmarshalText(text []byte) error {
	v, err := ParsePrefixMem(mem.B(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

type parsePrefixError struct {
	in  string
	msg string
}

func (e parsePrefixError) Error() string {
	return "ParsePrefix(" + strconv.Quote(e.in) + "): " + e.msg
}

// ParsePrefix parses s as a CIDR prefix such as "192.168.1.42/24".
// Surrounding whitespace is ignored. The returned prefix is
// normalized: "192.168.1.42/24" yields 192.168.1.0/24.
func ParsePrefix(s string) (Prefix, error) {
	return ParsePrefixMem(mem.S(s))
}

// ParsePrefixMem is like ParsePrefix but parses from a mem.RO.
func ParsePrefixMem(m mem.RO) (Prefix, error) {
	in := mem.TrimSpace(m)
	addrPart, bitsPart, ok := mem.Cut(in, mem.S("/"))
	if !ok {
		return Prefix{}, parsePrefixError{in: m.StringCopy(), msg: "no '/'"}
	}
	if bitsPart.Len() == 0 || !allDigits(bitsPart) {
		return Prefix{}, parsePrefixError{in: m.StringCopy(), msg: "bad prefix length " + strconv.Quote(bitsPart.StringCopy())}
	}
	bits, err := mem.ParseUint(bitsPart, 10, 8)
	if err != nil || bits > 32 {
		return Prefix{}, parsePrefixError{in: m.StringCopy(), msg: "prefix length out of range"}
	}
	addr, err := ParseAddrMem(addrPart)
	if err != nil {
		return Prefix{}, parsePrefixError{in: m.StringCopy(), msg: err.Error()}
	}
	p, _ := PrefixFrom(addr, int(bits))
	return p, nil
}

// MustParsePrefix is like ParsePrefix but panics on error.
func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

func allDigits(m mem.RO) bool {
	for i := 0; i < m.Len(); i++ {
		if c := m.At(i); c < '0' || c > '9' {
			return false
		}
	}
	return true
}
