package group

import (
	"net"

	"github.com/netport-embedded/mld6/netio"
)

// recordQueriedSources replaces the group's queried-sources list with
// sources, or marks it as "all sources" (empty + set) when sources is
// empty.
func (r *Record) recordQueriedSources(sources []net.IP) {
	r.QueriedSources.Clear()
	for _, s := range sources {
		if err := r.QueriedSources.Add(s); err != nil {
			// Capacity overflow degrades to an all-sources response: never
			// dropped, never partial.
			r.QueriedSources.Clear()
			break
		}
	}
	r.QueriedSourcesSet = true
}

// augmentQueriedSources merges sources into the group's existing recorded
// queried-sources list, degrading to "all sources" on overflow.
func (r *Record) augmentQueriedSources(sources []net.IP) {
	for _, s := range sources {
		if err := r.QueriedSources.Add(s); err != nil {
			r.QueriedSources.Clear()
			r.QueriedSourcesSet = true
			return
		}
	}
}

// hasAllSourcesRecorded reports whether the group's recorded
// queried-sources list means "respond about every source" — either
// because it was never narrowed, or because a prior query or overflow
// cleared it.
func (r *Record) hasAllSourcesRecorded() bool {
	return !r.QueriedSourcesSet || r.QueriedSources.Len() == 0
}

// NoteV2GroupQueryMatch applies the per-group consolidation rule for a
// Group-Specific or Group-and-Source-Specific Query, once the caller (the
// interface's query processor) has already determined that no sooner
// General-Query response covers this group.
// sources is the query's source list (possibly empty, meaning "no sources
// listed"); delayMillis is the freshly rolled random delay for this group.
func (r *Record) NoteV2GroupQueryMatch(clock netio.Clock, sources []net.IP, delayMillis uint32) {
	if r.State != DelayingListener {
		r.recordQueriedSources(sources)
		r.Timer.Arm(clock, delayMillis)
		r.State = DelayingListener
		return
	}

	if len(sources) == 0 || r.hasAllSourcesRecorded() {
		r.QueriedSources.Clear()
		r.QueriedSourcesSet = true
		// Keep the earliest (already running) timer unchanged.
		return
	}

	r.augmentQueriedSources(sources)
	remaining := r.Timer.Remaining(clock)
	newDelay := delayMillis
	if remaining < newDelay {
		newDelay = remaining
	}
	r.Timer.Arm(clock, newDelay)
}
