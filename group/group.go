// Package group implements the per-(interface, multicast-group) state
// machine: listener state, filter mode, the current filter and its
// pending ALLOW/BLOCK change records, the queried-sources list used to
// answer Group-and-Source-Specific Queries, and the single per-group timer
// that drives both delayed Current-State responses and State-Change
// retransmission.
package group

import (
	"net"

	mlderrors "github.com/netport-embedded/mld6/errors"
	"github.com/netport-embedded/mld6/netio"
	"github.com/netport-embedded/mld6/sourcelist"
)

// State is a group record's listener state.
type State int

const (
	// NonListener means the record is logically absent: INCLUDE with an
	// empty filter. A live *Record in this state is only kept around until
	// GroupTable.flushUnused removes it.
	NonListener State = iota
	// InitListener is the instant a record materializes, before its first
	// State-Change Report (v2) or unsolicited Report (v1) goes out.
	InitListener
	// DelayingListener means a response to a Query is scheduled on Timer.
	DelayingListener
	// IdleListener means no response is currently scheduled.
	IdleListener
)

func (s State) String() string {
	switch s {
	case NonListener:
		return "NonListener"
	case InitListener:
		return "InitListener"
	case DelayingListener:
		return "DelayingListener"
	case IdleListener:
		return "IdleListener"
	default:
		return "Unknown"
	}
}

// FilterMode is a group's listener filter mode.
type FilterMode int

const (
	Include FilterMode = iota
	Exclude
)

func (m FilterMode) String() string {
	if m == Exclude {
		return "EXCLUDE"
	}
	return "INCLUDE"
}

// Record is one per-(interface, group) state machine instance. It never
// references its owning interface or table directly — callers pass in
// whatever collaborators a method needs — so the group table can hold
// *Record pointers in a plain slice without cyclic pointers.
type Record struct {
	Address net.IP
	State   State

	// LastReporter is only meaningful under v1 compatibility: true if this
	// host sent the most recently observed Listener Report for Address.
	LastReporter bool

	FilterMode FilterMode
	Filter     *sourcelist.List
	Allow      *sourcelist.List
	Block      *sourcelist.List

	// QueriedSources holds the source list from a pending
	// Group-and-Source-Specific Query; QueriedSourcesSet distinguishes "no
	// sources recorded yet" (the zero value, before any query arrived)
	// from "overflowed, or last query had none" (forces an all-sources
	// response).
	QueriedSources    *sourcelist.List
	QueriedSourcesSet bool

	// FilterModeRetxCounter, while > 0, forces emission of a filter-mode
	// change record (TO_IN/TO_EX) on the next State-Change Report instead
	// of ALLOW/BLOCK records.
	FilterModeRetxCounter int

	Timer netio.Timer
}

// NewRecord returns a freshly materialized record for addr, in
// Init-Listener/INCLUDE/empty.
func NewRecord(addr net.IP, maxSources int) *Record {
	return &Record{
		Address:        append(net.IP(nil), addr...),
		State:          InitListener,
		FilterMode:     Include,
		Filter:         sourcelist.New(maxSources),
		Allow:          sourcelist.New(maxSources),
		Block:          sourcelist.New(maxSources),
		QueriedSources: sourcelist.New(maxSources),
	}
}

// IsNonExistent reports the "non-existent" encoding: INCLUDE with an empty
// filter. GroupTable.flushUnused uses this, combined with no pending
// retransmissions, to decide whether to drop a record.
func (r *Record) IsNonExistent() bool {
	return r.FilterMode == Include && r.Filter.Len() == 0
}

// HasPendingRetransmissions reports whether a State-Change Report is still
// owed for this group: a nonzero filter-mode counter, or a non-empty
// ALLOW/BLOCK list.
func (r *Record) HasPendingRetransmissions() bool {
	return r.FilterModeRetxCounter > 0 || r.Allow.Len() > 0 || r.Block.Len() > 0
}

// resetToIdle cancels the group's timer and clears every v2 retransmission
// and query-response aid, used by the compatibility-switch rewind.
// LastReporter is left untouched; v1 report suppression (NoteV1ReportHeard)
// clears it itself.
func (r *Record) resetToIdle() {
	r.Timer.Cancel()
	r.FilterModeRetxCounter = 0
	r.Allow.Clear()
	r.Block.Clear()
	r.QueriedSources.Clear()
	r.QueriedSourcesSet = false
	r.State = IdleListener
}

// RewindForCompatibilitySwitch implements the per-group half of the
// v1/v2 mode-transition rule: cancel pending timers, reset the
// retransmission counter, clear ALLOW/BLOCK/queried-sources, and move to
// Idle-Listener. Only called for groups not already Non-Listener.
func (r *Record) RewindForCompatibilitySwitch() {
	r.resetToIdle()
}

// ApplyStateChange computes the difference report for a transition from the
// group's current (FilterMode, Filter) to (newMode, newFilter), and commits
// the new state as current. It returns whether the group now owes any
// retransmission (so the caller can decide whether to arm the
// interface-wide state-change timer).
//
// robustness is the configured RobustnessVariable, used to seed every
// retransmission counter touched by this change. If newFilter (after
// dedup) exceeds the group's configured MaxSources, ApplyStateChange
// returns OutOfCapacityError and leaves the record entirely unchanged.
func (r *Record) ApplyStateChange(newMode FilterMode, newFilter []net.IP, robustness int) (bool, error) {
	newFilterList, err := sourcelist.FromSlice(r.Filter.Cap(), newFilter)
	if err != nil {
		return false, &mlderrors.OutOfCapacityError{Op: "GroupRecord.ApplyStateChange", Limit: r.Filter.Cap(), Message: "new filter exceeds MaxSources"}
	}

	if newMode != r.FilterMode {
		// Mode change: supersedes any accumulated ALLOW/BLOCK.
		r.FilterModeRetxCounter = robustness
		r.Allow.Clear()
		r.Block.Clear()
	} else {
		newAddrs := newFilterList.Addrs()
		newSet := make(map[string]struct{}, len(newAddrs))
		for _, s := range newAddrs {
			newSet[s.String()] = struct{}{}
		}
		oldAddrs := r.Filter.Addrs()
		oldSet := make(map[string]struct{}, len(oldAddrs))
		for _, s := range oldAddrs {
			oldSet[s.String()] = struct{}{}
		}

		var present, absent []net.IP
		for _, s := range newAddrs {
			if _, was := oldSet[s.String()]; !was {
				present = append(present, s)
			}
		}
		for _, s := range oldAddrs {
			if _, is := newSet[s.String()]; !is {
				absent = append(absent, s)
			}
		}

		// INCLUDE: newly-present sources are wished-for (ALLOW); newly-
		// absent sources are unwished-for (BLOCK). EXCLUDE inverts this:
		// newly-present (now excluded) sources are unwished-for (BLOCK);
		// newly-absent (no longer excluded) sources are wished-for (ALLOW).
		var allowSrcs, blockSrcs []net.IP
		if r.FilterMode == Include {
			allowSrcs, blockSrcs = present, absent
		} else {
			allowSrcs, blockSrcs = absent, present
		}
		for _, s := range allowSrcs {
			r.Block.Remove(s)
			if r.Allow.Has(s) {
				r.Allow.SetRetx(s, robustness)
			} else {
				_ = r.Allow.AddWithRetx(s, robustness)
			}
		}
		for _, s := range blockSrcs {
			r.Allow.Remove(s)
			if r.Block.Has(s) {
				r.Block.SetRetx(s, robustness)
			} else {
				_ = r.Block.AddWithRetx(s, robustness)
			}
		}
	}

	r.FilterMode = newMode
	r.Filter = newFilterList
	return r.HasPendingRetransmissions(), nil
}

// NoteV1QueryMatch applies the Idle-vs-Delaying consolidation rule for one
// matching group, for a v1 Query: a uniform random delay has already been
// chosen by the caller (the query processor owns the Rand collaborator).
func (r *Record) NoteV1QueryMatch(clock netio.Clock, delayMillis uint32) {
	switch r.State {
	case IdleListener:
		r.Timer.Arm(clock, delayMillis)
		r.State = DelayingListener
	case DelayingListener:
		r.Timer.ArmIfSoonerOrNotRunning(clock, delayMillis)
	}
}

// NoteV1ReportHeard suppresses this host's own pending report when another
// host has already reported for the group. Returns true if suppression
// occurred (the group was Delaying-Listener).
func (r *Record) NoteV1ReportHeard() bool {
	if r.State != DelayingListener {
		return false
	}
	r.LastReporter = false
	r.Timer.Cancel()
	r.State = IdleListener
	return true
}
