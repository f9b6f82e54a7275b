// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
	"netforge.dev/net/ip4addr"
)

func cidrCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "cidr",
		ShortUsage: "pktforge cidr <prefix>[,<prefix>...] [<addr>...]",
		ShortHelp:  "Show IPv4 prefixes and test addresses against them",
		LongHelp: strings.TrimSpace(`
"pktforge cidr" prints the network address, netmask and address range of
each prefix. Each following address is reported with the longest prefix
that contains it, if any.
`),
		FlagSet: newFlagSet("cidr"),
		Exec:    runCIDR,
	}
}

func runCIDR(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return flag.ErrHelp
	}
	set := ip4addr.NewSet()
	for _, s := range strings.Split(args[0], ",") {
		p, err := ip4addr.ParsePrefix(s)
		if err != nil {
			return err
		}
		set.Add(p)
		ip, mask := p.Strings()
		fmt.Fprintf(Stdout, "%v network=%s mask=%s range=%v\n", p, ip, mask, p.Range())
	}
	for _, s := range args[1:] {
		addr, err := ip4addr.ParseAddr(s)
		if err != nil {
			return err
		}
		if p, ok := set.Lookup(addr); ok {
			fmt.Fprintf(Stdout, "%v in %v\n", addr, p)
		} else {
			fmt.Fprintf(Stdout, "%v not in any prefix\n", addr)
		}
	}
	return nil
}
