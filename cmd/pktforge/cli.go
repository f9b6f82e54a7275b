// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"netforge.dev/net/ip4addr"
	"netforge.dev/net/pcapsink"
	"netforge.dev/types/logger"
)

// Stdout and Stderr are where command output goes. Tests replace them.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

var rootArgs struct {
	config  string
	jsonLog bool
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(Stderr)
	return fs
}

// ffOptions are the ff.Parse options shared by every command. Flags can
// also be set from PKTFORGE_* environment variables or from the file
// named by the root -config flag, one "flag value" pair per line.
func ffOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix("PKTFORGE"),
		ff.WithConfigFileVia(&rootArgs.config),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithIgnoreUndefined(true),
	}
}

// Run runs the pktforge command line with the given arguments (not
// including the program name).
func Run(args []string) (err error) {
	rootArgs.config = ""
	rootArgs.jsonLog = false

	rootfs := newFlagSet("pktforge")
	rootfs.StringVar(&rootArgs.config, "config", "", "path to a file of default flag values")
	rootfs.BoolVar(&rootArgs.jsonLog, "json-log", false, "write logs to stderr as JSON")

	rootCmd := &ffcli.Command{
		Name:       "pktforge",
		ShortUsage: "pktforge [flags] <subcommand> [command flags]",
		ShortHelp:  "Build, decode and inspect IPv4/UDP datagrams.",
		LongHelp: strings.TrimSpace(`
pktforge builds IPv4/UDP datagrams from addresses, ports and a payload,
decodes datagrams back into their header fields, and answers IPv4 CIDR
questions. Built and decoded datagrams can be saved to a pcap file for
Wireshark or tcpdump.
`),
		Subcommands: []*ffcli.Command{
			buildCmd(),
			decodeCmd(),
			cidrCmd(),
		},
		FlagSet: rootfs,
		Options: ffOptions(),
		Exec:    func(context.Context, []string) error { return flag.ErrHelp },
	}

	if err := rootCmd.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	err = rootCmd.Run(context.Background())
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

// logf returns the logger selected by the root flags.
func logf() logger.Logf {
	if rootArgs.jsonLog {
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(Stderr),
			zap.InfoLevel,
		)
		return logger.FromZap(zap.New(core))
	}
	return log.New(Stderr, "pktforge: ", 0).Printf
}

// parseAddrPort parses "a.b.c.d:port".
func parseAddrPort(s string) (ip4addr.Addr, uint16, error) {
	host, port, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("%q: missing port", s)
	}
	addr, err := ip4addr.ParseAddr(host)
	if err != nil {
		return 0, 0, err
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: bad port: %w", s, err)
	}
	return addr, uint16(p), nil
}

// openPcap creates path and returns a pcap writer over it.
func openPcap(path string) (*pcapsink.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := pcapsink.New(f, logf())
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// writeOutput writes b to path, or to Stdout if path is "-".
func writeOutput(path string, b []byte) error {
	if path == "-" {
		_, err := Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0644)
}
