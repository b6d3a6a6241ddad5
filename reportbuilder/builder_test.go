package reportbuilder

import (
	"net"
	"testing"

	"github.com/netport-embedded/mld6/addr6"
	"github.com/netport-embedded/mld6/netio"
	"github.com/netport-embedded/mld6/wire"
)

func TestBuilderSingleRecordFlush(t *testing.T) {
	tx := &netio.RecordingTransmitter{}
	b := New(tx, 1232)

	rec := wire.Record{Type: wire.RecordToEx, Group: net.ParseIP("ff15::1")}
	if err := b.Add(rec); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(tx.Sent) != 1 {
		t.Fatalf("len(Sent) = %d, want 1", len(tx.Sent))
	}
	if !tx.Sent[0].Dest.Equal(addr6.AllMLDv2RoutersLinkLocal) {
		t.Errorf("Dest = %v, want %v", tx.Sent[0].Dest, addr6.AllMLDv2RoutersLinkLocal)
	}
	if tx.Sent[0].HopLimit != wire.HopLimit {
		t.Errorf("HopLimit = %d, want %d", tx.Sent[0].HopLimit, wire.HopLimit)
	}
}

func TestBuilderFlushesOnOverflow(t *testing.T) {
	tx := &netio.RecordingTransmitter{}
	// Small ceiling: header(8) + one record(20, no sources) = 28 exactly;
	// a second record would overflow and must start a new packet.
	b := New(tx, wire.V2ReportHeaderLen+wire.V2RecordHeaderLen)

	rec1 := wire.Record{Type: wire.RecordIsIn, Group: net.ParseIP("ff15::1")}
	rec2 := wire.Record{Type: wire.RecordIsIn, Group: net.ParseIP("ff15::2")}

	if err := b.Add(rec1); err != nil {
		t.Fatalf("Add(rec1) error = %v", err)
	}
	if err := b.Add(rec2); err != nil {
		t.Fatalf("Add(rec2) error = %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if len(tx.Sent) != 2 {
		t.Fatalf("len(Sent) = %d, want 2 (overflow should have flushed early)", len(tx.Sent))
	}
	for _, d := range tx.Sent {
		if len(d.Payload) > wire.V2ReportHeaderLen+wire.V2RecordHeaderLen {
			t.Errorf("packet length %d exceeds ceiling", len(d.Payload))
		}
	}
}

func TestBuilderEmptyFlushIsNoOp(t *testing.T) {
	tx := &netio.RecordingTransmitter{}
	b := New(tx, 1232)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() on empty builder error = %v", err)
	}
	if len(tx.Sent) != 0 {
		t.Errorf("len(Sent) = %d, want 0", len(tx.Sent))
	}
}

func TestSendV1ReportAndDone(t *testing.T) {
	tx := &netio.RecordingTransmitter{}
	group := net.ParseIP("ff15::1")

	if err := SendV1Report(tx, group); err != nil {
		t.Fatalf("SendV1Report() error = %v", err)
	}
	if !tx.Sent[0].Dest.Equal(group) {
		t.Errorf("v1 Report Dest = %v, want group address %v", tx.Sent[0].Dest, group)
	}

	if err := SendV1Done(tx, group); err != nil {
		t.Fatalf("SendV1Done() error = %v", err)
	}
	if !tx.Sent[1].Dest.Equal(addr6.AllRoutersLinkLocal) {
		t.Errorf("v1 Done Dest = %v, want %v", tx.Sent[1].Dest, addr6.AllRoutersLinkLocal)
	}
}

func TestBuilderTransmitFailureWraps(t *testing.T) {
	tx := &netio.RecordingTransmitter{FailNext: 1}
	b := New(tx, 1232)
	_ = b.Add(wire.Record{Type: wire.RecordIsEx, Group: net.ParseIP("ff15::1")})

	if err := b.Flush(); err == nil {
		t.Error("Flush() error = nil, want TransmissionFailedError")
	}
}
