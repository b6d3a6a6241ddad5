package group

import (
	"github.com/netport-embedded/mld6/sourcelist"
	"github.com/netport-embedded/mld6/wire"
)

// CurrentStateRecord computes the record (if any) this group owes in a
// Current-State Report, and clears the group's queried-sources list as a
// side effect — the clear happens whether or not a record is actually
// emitted, since the response this query triggers (full or none) has now
// been decided.
func (r *Record) CurrentStateRecord() (wire.Record, bool) {
	defer func() {
		r.QueriedSources.Clear()
		r.QueriedSourcesSet = false
	}()

	owesRecord := r.FilterMode == Exclude || r.Filter.Len() > 0
	if !owesRecord {
		return wire.Record{}, false
	}

	if r.hasAllSourcesRecorded() {
		return r.fullFilterRecord(), true
	}

	filterAddrs := r.Filter.Addrs()
	switch r.FilterMode {
	case Include:
		sources := sourcelist.Intersect(r.QueriedSources, filterAddrs)
		if len(sources) == 0 {
			return wire.Record{}, false
		}
		return wire.Record{Type: wire.RecordIsIn, Group: r.Address, Sources: sources}, true
	default: // Exclude
		sources := sourcelist.Difference(r.QueriedSources, filterAddrs)
		if len(sources) == 0 {
			return wire.Record{}, false
		}
		return wire.Record{Type: wire.RecordIsIn, Group: r.Address, Sources: sources}, true
	}
}

func (r *Record) fullFilterRecord() wire.Record {
	t := wire.RecordIsIn
	if r.FilterMode == Exclude {
		t = wire.RecordIsEx
	}
	return wire.Record{Type: t, Group: r.Address, Sources: r.Filter.Addrs()}
}

// StateChangeRecords computes one record per tick per group — a
// filter-mode change if still owed, else one record each for a
// non-empty ALLOW/BLOCK — decrementing the relevant retransmission
// counters (and pruning exhausted ALLOW/BLOCK sources) as a side effect.
func (r *Record) StateChangeRecords() []wire.Record {
	if r.FilterModeRetxCounter > 0 {
		t := wire.RecordToIn
		if r.FilterMode == Exclude {
			t = wire.RecordToEx
		}
		rec := wire.Record{Type: t, Group: r.Address, Sources: r.Filter.Addrs()}
		r.FilterModeRetxCounter--
		return []wire.Record{rec}
	}

	var out []wire.Record
	if r.Allow.Len() > 0 {
		out = append(out, wire.Record{Type: wire.RecordAllow, Group: r.Address, Sources: r.Allow.Addrs()})
		r.Allow.DecrementAll()
	}
	if r.Block.Len() > 0 {
		out = append(out, wire.Record{Type: wire.RecordBlock, Group: r.Address, Sources: r.Block.Addrs()})
		r.Block.DecrementAll()
	}
	return out
}
