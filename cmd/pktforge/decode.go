// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
	"netforge.dev/net/ip4addr"
	"netforge.dev/net/packet"
	"netforge.dev/types/ipproto"
)

type decodeFlags struct {
	hex        string
	rewriteSrc string
	rewriteDst string
	json       bool
	pcap       string
	out        string
}

var decodeArgs decodeFlags

func decodeCmd() *ffcli.Command {
	decodeArgs = decodeFlags{}
	return &ffcli.Command{
		Name:       "decode",
		ShortUsage: "pktforge decode [flags] [<file> | -hex <hex>]",
		ShortHelp:  "Decode an IPv4 datagram",
		LongHelp: strings.TrimSpace(`
"pktforge decode" prints the header fields of an IPv4 datagram read from
a file of raw bytes ("-" for stdin) or given as hex, and reports whether
its checksums are valid.

With -rewrite-src or -rewrite-dst the addresses are rewritten first, with
the checksums updated incrementally; -o saves the rewritten datagram.
`),
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("decode")
			fs.StringVar(&decodeArgs.hex, "hex", "", "datagram as hex; whitespace is ignored")
			fs.StringVar(&decodeArgs.rewriteSrc, "rewrite-src", "", "rewrite the source address to this one")
			fs.StringVar(&decodeArgs.rewriteDst, "rewrite-dst", "", "rewrite the destination address to this one")
			fs.BoolVar(&decodeArgs.json, "json", false, "print the decoded fields as JSON")
			fs.StringVar(&decodeArgs.pcap, "pcap", "", "if non-empty, also write the datagram to this pcap file")
			fs.StringVar(&decodeArgs.out, "o", "", `write the (rewritten) raw datagram to this file ("-" for stdout)`)
			return fs
		})(),
		Options: ffOptions(),
		Exec:    runDecode,
	}
}

func runDecode(ctx context.Context, args []string) error {
	raw, err := readDatagram(args)
	if err != nil {
		return err
	}
	ip, ok := packet.ParseIP4(packet.NewBuffer(raw))
	if !ok {
		return errors.New("not a valid IPv4 datagram")
	}
	if decodeArgs.rewriteSrc != "" || decodeArgs.rewriteDst != "" {
		if err := rewrite(raw); err != nil {
			return err
		}
		ip, _ = packet.ParseIP4(packet.NewBuffer(raw))
	}

	if decodeArgs.pcap != "" {
		if err := savePcap(decodeArgs.pcap, ip.Datagram().Bytes()); err != nil {
			return err
		}
	}
	if decodeArgs.out != "" {
		return writeOutput(decodeArgs.out, ip.Datagram().Materialize())
	}
	if decodeArgs.json {
		enc := json.NewEncoder(Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(newDecoded(ip, len(raw)))
	}
	printDecoded(Stdout, ip, len(raw))
	return nil
}

func readDatagram(args []string) ([]byte, error) {
	switch {
	case decodeArgs.hex != "" && len(args) > 0:
		return nil, errors.New("give either -hex or a file, not both")
	case decodeArgs.hex != "":
		b, err := parseHex(decodeArgs.hex)
		if err != nil {
			return nil, fmt.Errorf("-hex: %w", err)
		}
		return b, nil
	case len(args) == 1 && args[0] == "-":
		return io.ReadAll(os.Stdin)
	case len(args) == 1:
		return os.ReadFile(args[0])
	}
	return nil, flag.ErrHelp
}

func rewrite(pkt []byte) error {
	for _, r := range []struct {
		flag   string
		val    string
		update func([]byte, ip4addr.Addr) error
	}{
		{"-rewrite-src", decodeArgs.rewriteSrc, packet.UpdateSrcAddr},
		{"-rewrite-dst", decodeArgs.rewriteDst, packet.UpdateDstAddr},
	} {
		if r.val == "" {
			continue
		}
		addr, err := ip4addr.ParseAddr(r.val)
		if err != nil {
			return fmt.Errorf("%s: %w", r.flag, err)
		}
		if err := r.update(pkt, addr); err != nil {
			return err
		}
	}
	return nil
}

// parseHex decodes s as hex, ignoring any whitespace.
func parseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.Join(strings.Fields(s), ""))
}

type decoded struct {
	Src                 ip4addr.Addr  `json:"src"`
	Dst                 ip4addr.Addr  `json:"dst"`
	Proto               ipproto.Proto `json:"proto"`
	TTL                 uint8         `json:"ttl"`
	ID                  uint16        `json:"id"`
	TOS                 uint8         `json:"tos"`
	HeaderLength        int           `json:"headerLength"`
	TotalLength         int           `json:"totalLength"`
	DontFragment        bool          `json:"dontFragment,omitempty"`
	MoreFragments       bool          `json:"moreFragments,omitempty"`
	FragmentOffset      uint16        `json:"fragmentOffset,omitempty"`
	HeaderChecksum      uint16        `json:"headerChecksum"`
	HeaderChecksumValid bool          `json:"headerChecksumValid"`
	TrailingBytes       int           `json:"trailingBytes,omitempty"`
	UDP                 *decodedUDP   `json:"udp,omitempty"`
	PayloadLength       int           `json:"payloadLength"`
}

type decodedUDP struct {
	SrcPort       uint16 `json:"srcPort"`
	DstPort       uint16 `json:"dstPort"`
	Length        int    `json:"length"`
	Checksum      uint16 `json:"checksum"`
	ChecksumValid bool   `json:"checksumValid"`
}

func newDecoded(ip packet.IP4View, rawLen int) *decoded {
	d := &decoded{
		Src:                 ip.Src,
		Dst:                 ip.Dst,
		Proto:               ip.Proto,
		TTL:                 ip.TTL,
		ID:                  ip.ID,
		TOS:                 ip.TOS,
		HeaderLength:        ip.HeaderLength,
		TotalLength:         ip.TotalLength,
		DontFragment:        ip.DontFragment,
		MoreFragments:       ip.MoreFragments,
		FragmentOffset:      ip.FragmentOffset,
		HeaderChecksum:      ip.Checksum,
		HeaderChecksumValid: ip.HeaderChecksumValid(),
		TrailingBytes:       rawLen - ip.TotalLength,
		PayloadLength:       ip.Payload.ReadableBytes(),
	}
	if u, ok := packet.ParseUDP4(ip); ok {
		d.UDP = &decodedUDP{
			SrcPort:       u.SrcPort,
			DstPort:       u.DstPort,
			Length:        int(u.Length),
			Checksum:      u.Checksum,
			ChecksumValid: u.ChecksumValid(ip),
		}
		d.PayloadLength = u.Payload.ReadableBytes()
	}
	return d
}

func printDecoded(w io.Writer, ip packet.IP4View, rawLen int) {
	d := newDecoded(ip, rawLen)
	fmt.Fprintln(w, ip)
	fmt.Fprintf(w, "ip:      %v > %v proto=%v ttl=%d id=%d tos=%#02x\n", d.Src, d.Dst, d.Proto, d.TTL, d.ID, d.TOS)
	fmt.Fprintf(w, "ip:      hlen=%d total=%d df=%v mf=%v frag=%d\n", d.HeaderLength, d.TotalLength, d.DontFragment, d.MoreFragments, d.FragmentOffset)
	fmt.Fprintf(w, "ip:      checksum=%#04x %s\n", d.HeaderChecksum, validity(d.HeaderChecksumValid))
	payload := ip.Payload
	if u := d.UDP; u != nil {
		sum := validity(u.ChecksumValid)
		if u.Checksum == 0 {
			sum = "none"
		}
		fmt.Fprintf(w, "udp:     %d > %d len=%d checksum=%#04x %s\n", u.SrcPort, u.DstPort, u.Length, u.Checksum, sum)
		uv, _ := packet.ParseUDP4(ip)
		payload = uv.Payload
	}
	if d.TrailingBytes > 0 {
		fmt.Fprintf(w, "trailing: %d bytes ignored\n", d.TrailingBytes)
	}
	fmt.Fprintf(w, "payload: %d bytes\n", d.PayloadLength)
	if payload.ReadableBytes() > 0 {
		fmt.Fprintln(w, packet.Hexdump(payload.Bytes()))
	}
}

func validity(ok bool) string {
	if ok {
		return "valid"
	}
	return "INVALID"
}
