// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package pcapsink writes IPv4 datagrams to a pcap stream so they can
// be inspected with Wireshark or tcpdump.
package pcapsink

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"netforge.dev/net/packet"
	"netforge.dev/types/logger"
)

// snapLen is the pcap snapshot length. It covers any IPv4 datagram.
const snapLen = 65535

// CaptureCallback records a datagram seen at time t. It must not retain
// pkt after it returns.
type CaptureCallback func(t time.Time, pkt []byte)

// Writer writes datagrams as pcap records with the raw IP link type,
// so each record is a bare IPv4 datagram with no link-layer header.
//
// It is safe for concurrent use.
type Writer struct {
	logf logger.Logf
	c    io.Closer // or nil

	mu sync.Mutex
	w  *pcapgo.Writer // nil once closed
	n  int
}

// New writes a pcap file header to w and returns a Writer that appends
// records to it. If w is also an io.Closer, Close closes it.
func New(w io.Writer, logf logger.Logf) (*Writer, error) {
	if logf == nil {
		logf = logger.Discard
	}
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeRaw); err != nil {
		return nil, err
	}
	s := &Writer{
		logf: logger.WithPrefix(logf, "pcap: "),
		w:    pw,
	}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s, nil
}

// WritePacket appends pkt as a record captured at t. It returns
// io.ErrClosedPipe after Close.
func (s *Writer) WritePacket(t time.Time, pkt []byte) error {
	if len(pkt) > snapLen {
		return errors.New("pcapsink: datagram longer than snapshot length")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return io.ErrClosedPipe
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     t,
		CaptureLength: len(pkt),
		Length:        len(pkt),
	}
	if err := s.w.WritePacket(ci, pkt); err != nil {
		return err
	}
	s.n++
	return nil
}

// WriteBuffer is like WritePacket but takes a packet.Buffer, writing
// its bytes without materializing a copy.
func (s *Writer) WriteBuffer(t time.Time, b packet.Buffer) error {
	return s.WritePacket(t, b.Bytes())
}

// CaptureCallback returns a callback that writes each datagram it is
// given. Write errors are logged, rate limited, rather than returned.
func (s *Writer) CaptureCallback() CaptureCallback {
	logf := logger.RateLimitedFn(s.logf, time.Minute, 5, 4)
	return func(t time.Time, pkt []byte) {
		if err := s.WritePacket(t, pkt); err != nil {
			logf("dropped %d-byte datagram: %v", len(pkt), err)
		}
	}
}

// Count returns the number of records written.
func (s *Writer) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Close stops further writes and closes the underlying writer if it is
// an io.Closer. Calling Close more than once is a no-op.
func (s *Writer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return nil
	}
	s.w = nil
	s.logf("closed after %d datagrams", s.n)
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}
