package group

import (
	"net"

	"github.com/netport-embedded/mld6/addr6"
	mlderrors "github.com/netport-embedded/mld6/errors"
)

// Table is the bounded, per-interface collection of group Records, sized
// at construction to MaxGroups: a fixed-capacity slice, linear scan by
// key, with a prune pass run periodically rather than on every mutation.
type Table struct {
	maxGroups  int
	maxSources int
	records    []*Record
}

// NewTable returns an empty table with the given per-interface bounds.
func NewTable(maxGroups, maxSources int) *Table {
	return &Table{
		maxGroups:  maxGroups,
		maxSources: maxSources,
		records:    make([]*Record, 0, maxGroups),
	}
}

// Find returns the record for groupAddr, or nil if none exists.
func (t *Table) Find(groupAddr net.IP) *Record {
	for _, r := range t.records {
		if addr6.Equal(r.Address, groupAddr) {
			return r
		}
	}
	return nil
}

// Create materializes a new record for groupAddr in Init-Listener/INCLUDE/
// empty. It rejects non-multicast addresses and the
// all-nodes link-local address, and reports OutOfCapacityError if the
// table is full. If a record for groupAddr already exists, it is returned
// unchanged (Create is idempotent at the table level; callers that need to
// reset state call RewindForCompatibilitySwitch or ApplyStateChange
// explicitly).
func (t *Table) Create(groupAddr net.IP) (*Record, error) {
	if err := addr6.ValidateJoinTarget(groupAddr); err != nil {
		return nil, err
	}
	if r := t.Find(groupAddr); r != nil {
		return r, nil
	}
	if len(t.records) >= t.maxGroups {
		return nil, &mlderrors.OutOfCapacityError{Op: "GroupTable.Create", Limit: t.maxGroups, Message: "group table full"}
	}
	r := NewRecord(groupAddr, t.maxSources)
	t.records = append(t.records, r)
	return r, nil
}

// Delete removes the record for groupAddr, if present.
func (t *Table) Delete(groupAddr net.IP) {
	for i, r := range t.records {
		if addr6.Equal(r.Address, groupAddr) {
			t.records = append(t.records[:i], t.records[i+1:]...)
			return
		}
	}
}

// MatchGroup reports whether addr matches record r: either r's own
// address, or the unspecified address used as the "match every group"
// sentinel for a General Query.
func MatchGroup(r *Record, addr net.IP) bool {
	return addr6.IsUnspecified(addr) || addr6.Equal(r.Address, addr)
}

// Matching returns every record matching addr, in table order.
func (t *Table) Matching(addr net.IP) []*Record {
	var out []*Record
	for _, r := range t.records {
		if MatchGroup(r, addr) {
			out = append(out, r)
		}
	}
	return out
}

// All returns every record currently in the table, in table order.
func (t *Table) All() []*Record {
	return t.records
}

// Len returns the number of records currently held (including any not yet
// flushed that are logically non-existent).
func (t *Table) Len() int { return len(t.records) }

// FlushUnused removes every record that is in the "non-existent" state
// (INCLUDE, empty filter) and has no pending retransmissions. Called at
// the end of every tick.
func (t *Table) FlushUnused() {
	kept := t.records[:0]
	for _, r := range t.records {
		if r.IsNonExistent() && !r.HasPendingRetransmissions() {
			continue
		}
		kept = append(kept, r)
	}
	t.records = kept
}
