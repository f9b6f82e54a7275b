// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package packet

import (
	"bytes"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"gvisor.dev/gvisor/pkg/tcpip"
	gvchecksum "gvisor.dev/gvisor/pkg/tcpip/checksum"
	"gvisor.dev/gvisor/pkg/tcpip/header"
	"netforge.dev/net/ip4addr"
	"netforge.dev/tstest"
)

// TestGopacketDecode decodes built datagrams with gopacket's layers.
func TestGopacketDecode(t *testing.T) {
	r := tstest.Rand(t)
	for range 100 {
		p := UDP4Params{
			Src:         ip4addr.Addr(r.Uint32()),
			Dst:         ip4addr.Addr(r.Uint32()),
			SrcPort:     uint16(r.Uint32()),
			DstPort:     uint16(r.Uint32()),
			Payload:     make([]byte, 1+r.IntN(1400)),
			TTL:         uint8(1 + r.IntN(255)),
			UDPChecksum: true,
		}
		for i := range p.Payload {
			p.Payload[i] = byte(r.Uint32())
		}
		b, err := BuildUDP4(p)
		if err != nil {
			t.Fatal(err)
		}

		// Application layers chosen from random ports may fail to
		// decode; only the IPv4 and UDP layers matter here.
		pkt := gopacket.NewPacket(b, layers.LayerTypeIPv4, gopacket.Default)
		ip, ok := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
		if !ok {
			t.Fatal("no IPv4 layer")
		}
		udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok {
			t.Fatal("no UDP layer")
		}
		srcAs4, dstAs4 := p.Src.As4(), p.Dst.As4()
		if ip.Version != 4 || ip.IHL != 5 || int(ip.Length) != len(b) || ip.TTL != p.TTL ||
			ip.Protocol != layers.IPProtocolUDP || ip.Flags != 0 || ip.FragOffset != 0 ||
			!ip.SrcIP.Equal(net.IP(srcAs4[:])) || !ip.DstIP.Equal(net.IP(dstAs4[:])) {
			t.Fatalf("gopacket IPv4 = %+v; params %v > %v ttl %d", ip, p.Src, p.Dst, p.TTL)
		}
		if uint16(udp.SrcPort) != p.SrcPort || uint16(udp.DstPort) != p.DstPort ||
			int(udp.Length) != 8+len(p.Payload) {
			t.Fatalf("gopacket UDP = %+v", udp)
		}
		if !bytes.Equal(udp.Payload, p.Payload) {
			t.Fatal("gopacket UDP payload differs")
		}
	}
}

// TestGopacketSerialize compares BuildUDP4 with gopacket's serializer
// for the same datagram, checksums included.
func TestGopacketSerialize(t *testing.T) {
	p := udpRequestParams
	p.UDPChecksum = true
	want, err := BuildUDP4(p)
	if err != nil {
		t.Fatal(err)
	}

	ip := &layers.IPv4{
		Version:  4,
		TTL:      p.TTL,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{10, 0, 0, 1},
		DstIP:    net.IP{10, 0, 0, 2},
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(p.SrcPort),
		DstPort: layers.UDPPort(p.DstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}
	sb := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(sb, opts, ip, udp, gopacket.Payload(p.Payload)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sb.Bytes(), want); diff != "" {
		t.Errorf("BuildUDP4 differs from gopacket (-gopacket +ours):\n%s", diff)
	}
}

// TestGvisorChecksums checks header and UDP checksums against gVisor's
// netstack header package.
func TestGvisorChecksums(t *testing.T) {
	r := tstest.Rand(t)
	for range 100 {
		p := UDP4Params{
			Src:         ip4addr.Addr(r.Uint32()),
			Dst:         ip4addr.Addr(r.Uint32()),
			SrcPort:     uint16(r.Uint32()),
			DstPort:     uint16(r.Uint32()),
			Payload:     make([]byte, r.IntN(600)),
			UDPChecksum: true,
		}
		for i := range p.Payload {
			p.Payload[i] = byte(r.Uint32())
		}
		b, _ := BuildUDP4(p)
		c := append([]byte(nil), b...)

		h := header.IPv4(c)
		h.SetChecksum(0)
		if want := ^h.CalculateChecksum(); want != get16(b[10:12]) {
			t.Fatalf("header checksum = %#04x; gVisor computes %#04x", get16(b[10:12]), want)
		}
		if h.TTL() != defaultTTL {
			t.Fatalf("gVisor TTL = %d", h.TTL())
		}

		src, dst := p.Src.As4(), p.Dst.As4()
		u := header.UDP(c[ip4HeaderLength:])
		u.SetChecksum(0)
		xsum := header.PseudoHeaderChecksum(header.UDPProtocolNumber,
			tcpip.AddrFromSlice(src[:]), tcpip.AddrFromSlice(dst[:]), u.Length())
		xsum = gvchecksum.Checksum(u.Payload(), xsum)
		want := ^u.CalculateChecksum(xsum)
		if want == 0 {
			want = 0xffff
		}
		if got := get16(b[ip4HeaderLength+6:]); got != want {
			t.Fatalf("UDP checksum = %#04x; gVisor computes %#04x", got, want)
		}
	}
}
