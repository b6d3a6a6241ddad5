// ICMPv6Transport is the reference Transmitter implementation: a real
// ICMPv6 raw socket bound to one network interface. The core state machine
// in package mld6 never imports this file — it depends only on the
// Transmitter interface — but a concrete, runnable collaborator belongs
// somewhere alongside the interface it implements.
//
// Socket creation is platform-specific (openICMPv6Socket, in
// icmp6_linux.go / icmp6_other.go); everything from there — checksum
// offload, control messages, and the actual WriteTo — uses
// golang.org/x/net/ipv6 and is shared across platforms.
package netio

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv6"
)

// icmpv6ChecksumOffset is the byte offset of the Checksum field within an
// ICMPv6 message (Type, Code, Checksum, ...); passed to SetChecksum so the
// kernel computes and fills it in.
const icmpv6ChecksumOffset = 2

// ICMPv6Transport sends MLD datagrams over a raw ICMPv6 socket.
type ICMPv6Transport struct {
	pconn *ipv6.PacketConn
	ifi   *net.Interface
}

// NewICMPv6Transport opens a raw ICMPv6 socket bound to ifi (nil binds to
// no particular interface, letting routing decide) and returns a
// Transmitter ready for use by mld6.NewInterface.
func NewICMPv6Transport(ifi *net.Interface) (*ICMPv6Transport, error) {
	pc, err := openICMPv6Socket(ifi)
	if err != nil {
		return nil, err
	}
	return newICMPv6Transport(pc, ifi)
}

func newICMPv6Transport(pc net.PacketConn, ifi *net.Interface) (*ICMPv6Transport, error) {
	pconn := ipv6.NewPacketConn(pc)
	if err := pconn.SetChecksum(true, icmpv6ChecksumOffset); err != nil {
		pc.Close()
		return nil, fmt.Errorf("netio: enable icmp6 checksum offload: %w", err)
	}
	if err := pconn.SetControlMessage(ipv6.FlagHopLimit|ipv6.FlagInterface, true); err != nil {
		pc.Close()
		return nil, fmt.Errorf("netio: enable icmp6 control messages: %w", err)
	}
	return &ICMPv6Transport{pconn: pconn, ifi: ifi}, nil
}

// Send implements Transmitter.
func (t *ICMPv6Transport) Send(dest net.IP, payload []byte, hopLimit int) error {
	cm := &ipv6.ControlMessage{HopLimit: hopLimit}
	zone := ""
	if t.ifi != nil {
		cm.IfIndex = t.ifi.Index
		zone = t.ifi.Name
	}
	if _, err := t.pconn.WriteTo(payload, cm, &net.IPAddr{IP: dest, Zone: zone}); err != nil {
		return fmt.Errorf("netio: write icmp6 datagram to %s: %w", dest, err)
	}
	return nil
}

// Close releases the underlying socket.
func (t *ICMPv6Transport) Close() error {
	return t.pconn.Close()
}
