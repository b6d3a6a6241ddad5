package wire

import (
	"encoding/binary"
	"net"

	"github.com/netport-embedded/mld6/addr6"
	mlderrors "github.com/netport-embedded/mld6/errors"
)

// Query is a parsed Multicast Listener Query, normalized to a single shape
// regardless of wire version. GroupAddress is the unspecified address for a
// General Query. For a v2 Query, Sources is non-nil and holds the listed
// sources, empty for a General or Group-Specific Query; V1 queries never
// populate Sources (it stays nil).
type Query struct {
	GroupAddress      net.IP
	Sources           []net.IP
	MaxResponseDelay  uint32 // milliseconds
	Version           int    // 1 or 2
}

// IsGeneral reports whether this is a General Query (addressed to all groups).
func (q *Query) IsGeneral() bool {
	a := q.GroupAddress.To16()
	return a != nil && a.IsUnspecified()
}

// ParseQuery parses an inbound ICMPv6 payload (the bytes after the ICMPv6
// type/code/checksum are re-parsed here too, since the whole message is
// defined starting at Type) as a v1 or v2 Query, validating the source
// address and the multicast-address field.
//
// A payload that is neither exactly the v1 length nor a structurally valid
// v2 Query is silently dropped: this returns InvalidMessageError in that
// case, which callers must not propagate beyond a local drop-and-log.
func ParseQuery(payload []byte, srcAddr net.IP) (*Query, error) {
	if len(payload) < 4 || payload[0] != TypeQuery {
		return nil, &mlderrors.InvalidMessageError{Op: "ParseQuery", Offset: 0, Message: "not a Query message"}
	}

	var q *Query
	var err error
	switch {
	case len(payload) == V1MessageLen:
		q, err = parseQueryV1(payload)
	case len(payload) >= V2QueryHeaderLen:
		q, err = parseQueryV2(payload)
	default:
		return nil, &mlderrors.InvalidMessageError{Op: "ParseQuery", Offset: len(payload), Message: "length matches neither v1 nor v2 Query"}
	}
	if err != nil {
		return nil, err
	}

	if err := validateQueryAddresses(q, srcAddr); err != nil {
		return nil, err
	}
	return q, nil
}

func validateQueryAddresses(q *Query, srcAddr net.IP) error {
	if err := addr6.ValidateQuerySource(srcAddr); err != nil {
		return err
	}
	return addr6.ValidateQueryGroup(q.GroupAddress)
}

// parseQueryV1 parses the 24-byte v1 Query layout:
// Type(1) | Code(1) | Checksum(2) | MaxResponseDelay(2) | Reserved(2) | MulticastAddress(16).
func parseQueryV1(payload []byte) (*Query, error) {
	if len(payload) != V1MessageLen {
		return nil, &mlderrors.InvalidMessageError{Op: "parseQueryV1", Offset: len(payload), Message: "not 24 bytes"}
	}
	delay := binary.BigEndian.Uint16(payload[4:6])
	group := net.IP(append([]byte(nil), payload[8:24]...))
	return &Query{
		GroupAddress:     group,
		MaxResponseDelay: uint32(delay),
		Version:          1,
	}, nil
}

// parseQueryV2 parses the v2 Query layout:
// Type(1) | Code(1) | Checksum(2) | MaxResponseCode(2) | Reserved(2) |
// MulticastAddress(16) | Flags/QRV(1) | QQIC(1) | NumSources(2) | Source[N](16 each).
func parseQueryV2(payload []byte) (*Query, error) {
	if len(payload) < V2QueryHeaderLen {
		return nil, &mlderrors.InvalidMessageError{Op: "parseQueryV2", Offset: len(payload), Message: "shorter than v2 header"}
	}
	maxRespCode := binary.BigEndian.Uint16(payload[4:6])
	group := net.IP(append([]byte(nil), payload[8:24]...))
	numSources := binary.BigEndian.Uint16(payload[26:28])

	wantLen := V2QueryHeaderLen + int(numSources)*AddrLen
	if len(payload) < wantLen {
		// Valid header, truncated source list: silently dropped by the
		// caller, which counts it like any other invalid message.
		return nil, &mlderrors.InvalidMessageError{Op: "parseQueryV2", Offset: V2QueryHeaderLen, Message: "truncated source list"}
	}

	sources := make([]net.IP, 0, numSources)
	off := V2QueryHeaderLen
	for i := uint16(0); i < numSources; i++ {
		sources = append(sources, net.IP(append([]byte(nil), payload[off:off+AddrLen]...)))
		off += AddrLen
	}

	return &Query{
		GroupAddress:     group,
		Sources:          sources,
		MaxResponseDelay: DecodeMaxRespCode(maxRespCode),
		Version:          2,
	}, nil
}
