// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/peterbourgon/ff/v3/ffcli"
	"netforge.dev/net/packet"
)

type buildFlags struct {
	src         string
	dst         string
	ttl         uint
	payload     string
	payloadHex  string
	udpChecksum bool
	pcap        string
	out         string
}

var buildArgs buildFlags

func buildCmd() *ffcli.Command {
	buildArgs = buildFlags{}
	return &ffcli.Command{
		Name:       "build",
		ShortUsage: "pktforge build -src <ip:port> -dst <ip:port> [flags]",
		ShortHelp:  "Build an IPv4/UDP datagram",
		LongHelp: `"pktforge build" assembles an IPv4/UDP datagram with a valid header
checksum and prints it as a hex dump, or writes the raw bytes with -o.`,
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("build")
			fs.StringVar(&buildArgs.src, "src", "", "source address and port, e.g. 10.0.0.1:12345")
			fs.StringVar(&buildArgs.dst, "dst", "", "destination address and port")
			fs.UintVar(&buildArgs.ttl, "ttl", 0, "time to live; 0 means the default of 64")
			fs.StringVar(&buildArgs.payload, "payload", "", "payload as text")
			fs.StringVar(&buildArgs.payloadHex, "payload-hex", "", "payload as hex; overrides -payload")
			fs.BoolVar(&buildArgs.udpChecksum, "udp-checksum", false, "compute the optional UDP checksum")
			fs.StringVar(&buildArgs.pcap, "pcap", "", "if non-empty, also write the datagram to this pcap file")
			fs.StringVar(&buildArgs.out, "o", "", `write the raw datagram to this file ("-" for stdout) instead of a hex dump`)
			return fs
		})(),
		Options: ffOptions(),
		Exec:    runBuild,
	}
}

func runBuild(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	if buildArgs.src == "" || buildArgs.dst == "" {
		return errors.New("-src and -dst are required")
	}
	var p packet.UDP4Params
	var err error
	if p.Src, p.SrcPort, err = parseAddrPort(buildArgs.src); err != nil {
		return fmt.Errorf("-src: %w", err)
	}
	if p.Dst, p.DstPort, err = parseAddrPort(buildArgs.dst); err != nil {
		return fmt.Errorf("-dst: %w", err)
	}
	if buildArgs.ttl > 255 {
		return fmt.Errorf("-ttl %d out of range", buildArgs.ttl)
	}
	p.TTL = uint8(buildArgs.ttl)
	p.UDPChecksum = buildArgs.udpChecksum
	p.Payload = []byte(buildArgs.payload)
	if buildArgs.payloadHex != "" {
		if p.Payload, err = parseHex(buildArgs.payloadHex); err != nil {
			return fmt.Errorf("-payload-hex: %w", err)
		}
	}

	pkt, err := packet.BuildUDP4(p)
	if err != nil {
		return err
	}
	if buildArgs.pcap != "" {
		if err := savePcap(buildArgs.pcap, pkt); err != nil {
			return err
		}
	}
	if buildArgs.out != "" {
		return writeOutput(buildArgs.out, pkt)
	}
	ip, _ := packet.ParseIP4(packet.NewBuffer(pkt))
	fmt.Fprintln(Stdout, ip)
	fmt.Fprintln(Stdout, packet.Hexdump(pkt))
	return nil
}

// savePcap writes pkt as the only record of a new pcap file.
func savePcap(path string, pkt []byte) error {
	w, err := openPcap(path)
	if err != nil {
		return err
	}
	if err := w.WritePacket(time.Now(), pkt); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
