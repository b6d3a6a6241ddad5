// Package addr6 classifies IPv6 addresses for the MLD listener core:
// link-local unicast (required of Query source addresses), multicast group
// addresses, and the handful of well-known link-local multicast
// destinations the protocol sends reports to and listens on.
package addr6

import (
	"net"

	mlderrors "github.com/netport-embedded/mld6/errors"
)

// Well-known link-local multicast addresses used by MLD.
var (
	// AllNodesLinkLocal is ff02::1, used as the General Query's all-hosts
	// destination by routers; never a valid join target for a listener.
	AllNodesLinkLocal = net.ParseIP("ff02::1")

	// AllRoutersLinkLocal is ff02::2, the destination for a v1 Listener Done.
	AllRoutersLinkLocal = net.ParseIP("ff02::2")

	// AllMLDv2RoutersLinkLocal is ff02::16, the destination for every v2
	// Multicast Listener Report.
	AllMLDv2RoutersLinkLocal = net.ParseIP("ff02::16")
)

// Unspecified is the IPv6 unspecified address (::), used as the
// multicast-address field sentinel for a General Query and as the
// "match all groups" wildcard in group.MatchGroup.
var Unspecified = net.IPv6unspecified

// Equal compares two IPv6 addresses for byte-for-byte equality. Both must
// already be 16-byte (To16) forms; nil compares unequal to everything.
func Equal(a, b net.IP) bool {
	if a == nil || b == nil {
		return false
	}
	a16, b16 := a.To16(), b.To16()
	if a16 == nil || b16 == nil {
		return false
	}
	return a16.Equal(b16)
}

// IsUnspecified reports whether addr is the all-zero address.
func IsUnspecified(addr net.IP) bool {
	a := addr.To16()
	return a != nil && a.IsUnspecified()
}

// IsMulticast reports whether addr is a valid IPv6 multicast group address
// (the high octet is 0xff). It does not validate scope or flags beyond that.
func IsMulticast(addr net.IP) bool {
	a := addr.To16()
	return a != nil && a.IsMulticast()
}

// IsLinkLocalUnicast reports whether addr is a valid link-local unicast
// source address (fe80::/10), the only source scope a Query is accepted
// from.
func IsLinkLocalUnicast(addr net.IP) bool {
	a := addr.To16()
	return a != nil && a.IsLinkLocalUnicast()
}

// ValidateJoinTarget returns InvalidAddressError if addr is unsuitable as a
// group a listener may materialise in the GroupTable: it must be a
// multicast address, and must not be the all-nodes link-local address,
// since every host listens to it implicitly and explicit state for it is
// meaningless.
func ValidateJoinTarget(addr net.IP) error {
	a := addr.To16()
	if a == nil || !a.IsMulticast() {
		return &mlderrors.InvalidAddressError{
			Op:      "GroupTable.Create",
			Addr:    addrString(addr),
			Message: "not a multicast address",
		}
	}
	if Equal(a, AllNodesLinkLocal) {
		return &mlderrors.InvalidAddressError{
			Op:      "GroupTable.Create",
			Addr:    addrString(addr),
			Message: "all-nodes link-local address is never explicitly joined",
		}
	}
	return nil
}

// ValidateQuerySource returns InvalidMessageError if src is not acceptable
// as the IPv6 source address of an inbound Query.
func ValidateQuerySource(src net.IP) error {
	if !IsLinkLocalUnicast(src) {
		return &mlderrors.InvalidMessageError{
			Op:      "Query.Validate",
			Offset:  -1,
			Message: "source address is not link-local unicast",
		}
	}
	return nil
}

// ValidateQueryGroup returns InvalidMessageError unless group is either the
// unspecified address (General Query) or a valid multicast address.
func ValidateQueryGroup(group net.IP) error {
	if IsUnspecified(group) {
		return nil
	}
	if IsMulticast(group) {
		return nil
	}
	return &mlderrors.InvalidMessageError{
		Op:      "Query.Validate",
		Offset:  -1,
		Message: "multicast-address field is neither unspecified nor multicast",
	}
}

func addrString(addr net.IP) string {
	if addr == nil {
		return "<nil>"
	}
	return addr.String()
}
