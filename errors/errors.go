// Package errors defines the error taxonomy for the MLD listener core.
//
// Parsing failures on inbound messages are always recovered locally
// (logged and dropped, never returned to a caller); only the two
// application-facing errors below ever leave the package boundary.
package errors

import "fmt"

// InvalidAddressError is returned when a caller asks to operate on an
// address that is not a valid IPv6 multicast group, or is a reserved
// address the core refuses to join (e.g. the all-nodes link-local group).
type InvalidAddressError struct {
	Op      string
	Addr    string
	Message string
}

func (e *InvalidAddressError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("mld: %s: invalid address %s: %s", e.Op, e.Addr, e.Message)
	}
	return fmt.Sprintf("mld: %s: invalid address %s", e.Op, e.Addr)
}

// OutOfCapacityError is returned when a bounded table or list would have to
// grow past its compile-time maximum to satisfy the request.
type OutOfCapacityError struct {
	Op      string
	Limit   int
	Message string
}

func (e *OutOfCapacityError) Error() string {
	return fmt.Sprintf("mld: %s: out of capacity (limit %d): %s", e.Op, e.Limit, e.Message)
}

// InvalidMessageError represents a structural or source-address validation
// failure on an inbound Query/Report. It is always recovered locally; it
// exists as a concrete type so the core can log a consistent reason and so
// tests can assert on why a datagram was dropped.
type InvalidMessageError struct {
	Op      string
	Offset  int
	Message string
}

func (e *InvalidMessageError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("mld: %s: malformed message at offset %d: %s", e.Op, e.Offset, e.Message)
	}
	return fmt.Sprintf("mld: %s: malformed message: %s", e.Op, e.Message)
}

// TransmissionFailedError wraps a transmit failure from the ICMPv6
// collaborator. It is logged as a warning, never surfaced to the
// application; the retransmission machinery covers recovery.
type TransmissionFailedError struct {
	Op  string
	Err error
}

func (e *TransmissionFailedError) Error() string {
	return fmt.Sprintf("mld: %s: transmission failed: %v", e.Op, e.Err)
}

func (e *TransmissionFailedError) Unwrap() error { return e.Err }
