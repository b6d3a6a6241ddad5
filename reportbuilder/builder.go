// Package reportbuilder packs Current-State and State-Change records into
// size-bounded ICMPv6 Multicast Listener Report v2 payloads, flushing
// (transmitting and resetting) whenever the next record would overflow the
// configured packet ceiling, plus the trivial fixed-size v1 Report/Done
// senders.
//
// The packing loop appends until overflow then flushes; the in-flight
// buffer is owned by the current build and released on flush.
package reportbuilder

import (
	"net"

	"github.com/netport-embedded/mld6/addr6"
	mlderrors "github.com/netport-embedded/mld6/errors"
	"github.com/netport-embedded/mld6/netio"
	"github.com/netport-embedded/mld6/wire"
)

// Builder accumulates v2 Report records into a single in-flight packet,
// flushing to tx whenever the next record would not fit within
// maxPacketSize. A Builder is single-use per build operation: callers
// construct one, Add every record for this tick's report, then Flush; Add
// only flushes the packets that are already full, so the last packet is
// sent by that final Flush.
type Builder struct {
	tx            netio.Transmitter
	maxPacketSize int

	buf        []byte
	numRecords uint16
	sendErr    error
}

// New returns a Builder that flushes completed packets to tx, each no
// larger than maxPacketSize bytes.
func New(tx netio.Transmitter, maxPacketSize int) *Builder {
	b := &Builder{tx: tx, maxPacketSize: maxPacketSize}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.buf = wire.EncodeReportV2Header(0)
	b.numRecords = 0
}

// Empty reports whether no record has been added since the last flush.
func (b *Builder) Empty() bool { return b.numRecords == 0 }

// Add appends rec to the in-flight packet, flushing first if rec would not
// fit within maxPacketSize: no record is ever split, and the current
// packet is sent before starting a new one. A single record that alone
// exceeds maxPacketSize is still sent alone — the ceiling is a best-effort
// target, not a hard protocol limit.
func (b *Builder) Add(rec wire.Record) error {
	recLen := rec.EncodedLen()
	if len(b.buf)+recLen > b.maxPacketSize && !b.Empty() {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	b.buf = rec.Encode(b.buf)
	b.numRecords++
	return nil
}

// Flush sends the in-flight packet (if non-empty) to the all-MLDv2-capable
// routers address and resets the builder for the next packet. The record
// count field is patched in just before send.
func (b *Builder) Flush() error {
	if b.Empty() {
		return nil
	}
	wire.PatchNumRecords(b.buf, b.numRecords)
	err := b.tx.Send(addr6.AllMLDv2RoutersLinkLocal, b.buf, wire.HopLimit)
	b.reset()
	if err != nil {
		b.sendErr = err
		return &mlderrors.TransmissionFailedError{Op: "reportbuilder.Flush", Err: err}
	}
	return nil
}

// SendV1Report sends a v1 Listener Report for groupAddr, destined to the
// group address itself.
func SendV1Report(tx netio.Transmitter, groupAddr net.IP) error {
	payload := wire.EncodeV1(wire.TypeReportV1, groupAddr)
	dest := wire.DestinationForReportV1(groupAddr)
	if err := tx.Send(dest, payload, wire.HopLimit); err != nil {
		return &mlderrors.TransmissionFailedError{Op: "reportbuilder.SendV1Report", Err: err}
	}
	return nil
}

// SendV1Done sends a v1 Listener Done for groupAddr, destined to the
// all-routers link-local address.
func SendV1Done(tx netio.Transmitter, groupAddr net.IP) error {
	payload := wire.EncodeV1(wire.TypeDoneV1, groupAddr)
	if err := tx.Send(addr6.AllRoutersLinkLocal, payload, wire.HopLimit); err != nil {
		return &mlderrors.TransmissionFailedError{Op: "reportbuilder.SendV1Done", Err: err}
	}
	return nil
}
