//go:build !linux

package netio

import (
	"fmt"
	"net"
)

// openICMPv6Socket falls back to a plain, non-privileged-binding ICMPv6
// listener on platforms this package has no IPV6_HOPOPTS/SO_BINDTODEVICE
// wiring for. The router alert option is then best-effort absent; link-
// local MLD routers generally accept datagrams without it, so this
// degrades gracefully rather than failing outright.
func openICMPv6Socket(ifi *net.Interface) (net.PacketConn, error) {
	pc, err := net.ListenPacket("ip6:ipv6-icmp", "::")
	if err != nil {
		return nil, fmt.Errorf("netio: listen icmp6: %w", err)
	}
	return pc, nil
}
