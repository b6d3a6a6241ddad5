// Package wire implements the ICMPv6 MLD wire formats: the v1
// Query/Report/Done layout (identical 24-byte structure, distinguished
// only by type), the v2 Query layout, and the v2 Multicast Listener
// Report layout with its multicast-address records.
//
// Parsing is header-then-sections with explicit offset threading and
// bounds checked before every slice; the v2 floating-point delay decode
// uses integer arithmetic only, never actual float ops.
package wire

import "net"

// ICMPv6 message type codes.
const (
	TypeQuery      = 130
	TypeReportV1   = 131
	TypeDoneV1     = 132
	TypeReportV2   = 143
)

// Wire sizes.
const (
	// V1MessageLen is the fixed length of a v1 Query/Report/Done message.
	V1MessageLen = 24
	// V2QueryHeaderLen is the v2 Query fixed header before the source list.
	V2QueryHeaderLen = 28
	// V2ReportHeaderLen is the v2 Report fixed header before records.
	V2ReportHeaderLen = 8
	// V2RecordHeaderLen is a multicast-address record's fixed part, the
	// multicast address included, before the source list.
	V2RecordHeaderLen = 20
	// AddrLen is the length of an IPv6 address on the wire.
	AddrLen = 16
)

// HopLimit is the IPv6 hop limit every MLD datagram is sent with: a
// router-alert option ensures on-link delivery regardless.
const HopLimit = 1

// RecordType identifies a multicast-address record carried in a v2 Report.
type RecordType uint8

const (
	RecordIsIn RecordType = 1
	RecordIsEx RecordType = 2
	RecordToIn RecordType = 3
	RecordToEx RecordType = 4
	RecordAllow RecordType = 5
	RecordBlock RecordType = 6
)

func (t RecordType) String() string {
	switch t {
	case RecordIsIn:
		return "IS_IN"
	case RecordIsEx:
		return "IS_EX"
	case RecordToIn:
		return "TO_IN"
	case RecordToEx:
		return "TO_EX"
	case RecordAllow:
		return "ALLOW"
	case RecordBlock:
		return "BLOCK"
	default:
		return "UNKNOWN"
	}
}

// DestinationForReportV1 is the destination of a v1 Listener Report: the
// group address being reported.
func DestinationForReportV1(group net.IP) net.IP { return group }

// DecodeMaxRespCode decodes a v2 Max Response Code field into a delay in
// milliseconds. Values below 32768 are the delay directly; otherwise the
// field is a floating-point encoding:
//
//	mantissa = value & 0x0FFF
//	exponent = (value >> 12) & 0x07
//	decoded  = (mantissa | 0x1000) << (exponent + 3)
//
// This is integer arithmetic only, never actual floating point.
func DecodeMaxRespCode(value uint16) uint32 {
	if value < 32768 {
		return uint32(value)
	}
	mantissa := uint32(value) & 0x0FFF
	exponent := (uint32(value) >> 12) & 0x07
	return (mantissa | 0x1000) << (exponent + 3)
}
