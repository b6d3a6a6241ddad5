package group

import (
	"net"
	"testing"

	"github.com/netport-embedded/mld6/wire"
)

func TestCurrentStateRecord_GeneralQuery(t *testing.T) {
	r := NewRecord(ip("ff15::1"), 16)
	r.ApplyStateChange(Exclude, []net.IP{ip("2001:db8::1")}, 2)
	r.QueriedSourcesSet = false // General/Group-Specific Query: nothing recorded

	rec, ok := r.CurrentStateRecord()
	if !ok {
		t.Fatal("CurrentStateRecord() ok = false, want true for EXCLUDE with sources")
	}
	if rec.Type != wire.RecordIsEx {
		t.Errorf("Type = %v, want IS_EX", rec.Type)
	}
	if len(rec.Sources) != 1 || !rec.Sources[0].Equal(ip("2001:db8::1")) {
		t.Errorf("Sources = %v, want [2001:db8::1]", rec.Sources)
	}
	if r.QueriedSourcesSet {
		t.Error("QueriedSourcesSet still true after CurrentStateRecord, want cleared")
	}
}

func TestCurrentStateRecord_NonExistentGroupOwesNothing(t *testing.T) {
	r := NewRecord(ip("ff15::1"), 16) // INCLUDE, empty
	_, ok := r.CurrentStateRecord()
	if ok {
		t.Error("CurrentStateRecord() ok = true for a non-existent group, want false")
	}
}

func TestCurrentStateRecord_GroupAndSourceSpecific_Include(t *testing.T) {
	r := NewRecord(ip("ff15::1"), 16)
	r.ApplyStateChange(Include, []net.IP{ip("2001:db8::1"), ip("2001:db8::2")}, 2)
	r.recordQueriedSources([]net.IP{ip("2001:db8::2"), ip("2001:db8::3")})

	rec, ok := r.CurrentStateRecord()
	if !ok {
		t.Fatal("CurrentStateRecord() ok = false, want true")
	}
	if rec.Type != wire.RecordIsIn {
		t.Errorf("Type = %v, want IS_IN", rec.Type)
	}
	if len(rec.Sources) != 1 || !rec.Sources[0].Equal(ip("2001:db8::2")) {
		t.Errorf("Sources = %v, want [2001:db8::2] (intersection)", rec.Sources)
	}
}

func TestCurrentStateRecord_GroupAndSourceSpecific_Exclude(t *testing.T) {
	r := NewRecord(ip("ff15::1"), 16)
	r.ApplyStateChange(Exclude, []net.IP{ip("2001:db8::1")}, 2)
	r.recordQueriedSources([]net.IP{ip("2001:db8::1"), ip("2001:db8::2")})

	rec, ok := r.CurrentStateRecord()
	if !ok {
		t.Fatal("CurrentStateRecord() ok = false, want true")
	}
	if len(rec.Sources) != 1 || !rec.Sources[0].Equal(ip("2001:db8::2")) {
		t.Errorf("Sources = %v, want [2001:db8::2] (queried minus filter)", rec.Sources)
	}
}

func TestStateChangeRecords_FilterModeChangeSupersedesAllowBlock(t *testing.T) {
	r := NewRecord(ip("ff15::1"), 16)
	r.ApplyStateChange(Include, []net.IP{ip("2001:db8::1")}, 2)
	r.ApplyStateChange(Exclude, nil, 2) // mode change: discards prior Allow/Block

	recs := r.StateChangeRecords()
	if len(recs) != 1 || recs[0].Type != wire.RecordToEx {
		t.Fatalf("StateChangeRecords() = %v, want single TO_EX", recs)
	}
	if r.FilterModeRetxCounter != 1 {
		t.Errorf("FilterModeRetxCounter = %d, want 1 (decremented)", r.FilterModeRetxCounter)
	}
}

func TestStateChangeRecords_AllowBlockDecrementAndPrune(t *testing.T) {
	r := NewRecord(ip("ff15::1"), 16)
	r.ApplyStateChange(Include, []net.IP{ip("2001:db8::1")}, 1) // robustness=1
	r.ApplyStateChange(Include, nil, 1)                         // ::1 moves to Block with retx=1

	recs := r.StateChangeRecords()
	if len(recs) != 1 || recs[0].Type != wire.RecordBlock {
		t.Fatalf("StateChangeRecords() = %v, want single BLOCK", recs)
	}
	if r.Block.Len() != 0 {
		t.Errorf("Block.Len() = %d after one retransmission at robustness=1, want 0", r.Block.Len())
	}
}
