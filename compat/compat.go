// Package compat implements the MLDv1/v2 compatibility arbiter: the
// single bit of per-interface state deciding whether the host behaves as
// an MLDv1 or MLDv2 listener, driven purely by queries actually observed
// on the link.
package compat

import (
	"github.com/netport-embedded/mld6/group"
	"github.com/netport-embedded/mld6/netio"
)

// Mode is the compatibility mode.
type Mode int

const (
	V2 Mode = iota
	V1
)

func (m Mode) String() string {
	if m == V1 {
		return "V1"
	}
	return "V2"
}

// Arbiter tracks the older-version-querier-present timer and the current
// mode. The host defaults to V2.
type Arbiter struct {
	mode  Mode
	timer netio.Timer

	// Timeout is OlderVersionQuerierPresentTimeout, computed by the caller
	// as (RobustnessVariable * QueryInterval) + QueryResponseInterval and
	// supplied here since the arbiter itself has no notion of the other
	// interface-wide configured intervals.
	Timeout uint32
}

// New returns an arbiter defaulted to V2.
func New(timeoutMillis uint32) *Arbiter {
	return &Arbiter{mode: V2, Timeout: timeoutMillis}
}

// Mode returns the current compatibility mode.
func (a *Arbiter) Mode() Mode { return a.mode }

// NoteV1Query forces V1 and (re)starts the older-version querier present
// timer. If this is a fresh transition from V2, every live group must be
// rewound and groups that are now non-existent deleted; NoteV1Query
// performs the rewind given the table's live records, so callers just
// pass them in.
//
// records is every non-Non-Listener record currently in the interface's
// group table. NoteV1Query returns true if a V2→V1 transition occurred
// (i.e. records were rewound), so the caller can run flushUnused
// immediately afterward.
func (a *Arbiter) NoteV1Query(clock netio.Clock, records []*group.Record) bool {
	wasV2 := a.mode == V2
	a.mode = V1
	a.timer.Arm(clock, a.Timeout)
	if wasV2 {
		rewind(records)
	}
	return wasV2
}

// Tick returns compatibility to V2 once the older-version querier present
// timer expires, rewinding every live group in records exactly as on the
// reverse transition. Returns true if a V1→V2 transition occurred, so the
// caller can run flushUnused immediately afterward.
func (a *Arbiter) Tick(clock netio.Clock, records []*group.Record) bool {
	if a.mode == V1 && a.timer.Fire(clock) {
		a.mode = V2
		rewind(records)
		return true
	}
	return false
}

// rewind is the shared half of the mode-transition rule: for every group
// not in Non-Listener, cancel timers, reset the retransmission counter,
// clear ALLOW/BLOCK/queried-sources, and move to Idle-Listener. Groups
// already Non-Listener are untouched (they have nothing to rewind and
// flushUnused will have already reclaimed them).
func rewind(records []*group.Record) {
	for _, r := range records {
		if r.State == group.NonListener {
			continue
		}
		r.RewindForCompatibilitySwitch()
	}
}
