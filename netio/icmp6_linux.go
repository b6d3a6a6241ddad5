//go:build linux

package netio

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// routerAlertHopByHopOption is the RFC 2711 Router Alert hop-by-hop
// options header required of every MLD datagram: Next
// Header (ICMPv6) | Hdr Ext Len (0, meaning an 8-byte header) |
// Router Alert option (type 5, length 2, value 0 = "MLD") | PadN
// option (type 1, length 0, two bytes of padding to round out to 8 bytes).
// Installed once via IPV6_HOPOPTS rather than threaded through every
// WriteTo, since golang.org/x/net/ipv6's ControlMessage has no extension
// header field.
var routerAlertHopByHopOption = []byte{
	unix.IPPROTO_ICMPV6, 0,
	5, 2, 0, 0,
	1, 0,
}

func openICMPv6Socket(ifi *net.Interface) (net.PacketConn, error) {
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_RAW, unix.IPPROTO_ICMPV6)
	if err != nil {
		return nil, fmt.Errorf("netio: open raw icmp6 socket: %w", err)
	}

	if err := unix.SetsockoptString(fd, unix.IPPROTO_IPV6, unix.IPV6_HOPOPTS, string(routerAlertHopByHopOption)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("netio: install router alert option: %w", err)
	}

	if ifi != nil {
		if err := unix.SetsockoptString(fd, unix.SOL_SOCKET, unix.SO_BINDTODEVICE, ifi.Name); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("netio: bind to interface %s: %w", ifi.Name, err)
		}
	}

	name := "any"
	if ifi != nil {
		name = ifi.Name
	}
	file := os.NewFile(uintptr(fd), "icmp6:"+name)
	defer file.Close()

	pc, err := net.FilePacketConn(file)
	if err != nil {
		return nil, fmt.Errorf("netio: wrap icmp6 socket: %w", err)
	}
	return pc, nil
}
