// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package ip4addr

import (
	"github.com/gaissmai/bart"
)

// Set is a set of IPv4 prefixes supporting longest-prefix-match
// membership queries. The zero value is an empty set ready to use.
//
// A Set is not safe for concurrent mutation; once built it may be
// queried from multiple goroutines.
type Set struct {
	t bart.Table[Prefix]
	n int
}

// NewSet returns a Set containing prefixes.
func NewSet(prefixes ...Prefix) *Set {
	s := new(Set)
	for _, p := range prefixes {
		s.Add(p)
	}
	return s
}

// Add adds p to the set. Adding a prefix already present is a no-op.
func (s *Set) Add(p Prefix) {
	if _, ok := s.t.Get(p.Netip()); !ok {
		s.n++
	}
	s.t.Insert(p.Netip(), p)
}

// Len returns the number of distinct prefixes in s.
func (s *Set) Len() int { return s.n }

// Contains reports whether addr is inside any prefix of s.
func (s *Set) Contains(addr Addr) bool {
	_, ok := s.t.Lookup(addr.Netip())
	return ok
}

// Lookup returns the longest prefix in s containing addr.
func (s *Set) Lookup(addr Addr) (Prefix, bool) {
	return s.t.Lookup(addr.Netip())
}
