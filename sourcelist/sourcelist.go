// Package sourcelist implements a bounded, insertion-ordered, duplicate-
// free set of IPv6 source addresses: the building block used for a
// group's current filter, its ALLOW/BLOCK change records, and its pending
// queried-sources list. Each entry also carries a small retransmission
// counter, used only by the ALLOW/BLOCK lists.
//
// The shape is a fixed-capacity vector with linear-scan dedup. MaxSources
// is expected to be small (tens, not thousands), so a simple slice beats
// anything fancier at this scale.
package sourcelist

import (
	"net"

	mlderrors "github.com/netport-embedded/mld6/errors"
)

// entry is one tracked source address with its retransmission counter.
type entry struct {
	addr net.IP
	retx int
}

// List is a bounded, insertion-ordered set of IPv6 addresses.
type List struct {
	max     int
	entries []entry
}

// New returns an empty list with the given capacity.
func New(max int) *List {
	return &List{max: max, entries: make([]entry, 0, max)}
}

// Len returns the number of addresses currently held.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Cap returns the list's configured capacity.
func (l *List) Cap() int { return l.max }

func (l *List) indexOf(addr net.IP) int {
	for i, e := range l.entries {
		if e.addr.Equal(addr) {
			return i
		}
	}
	return -1
}

// Has reports whether addr is present.
func (l *List) Has(addr net.IP) bool {
	if l == nil {
		return false
	}
	return l.indexOf(addr) >= 0
}

// Add inserts addr with retx count 0 if not already present. It is a no-op
// (not an error) if addr is already present. Returns OutOfCapacityError if
// the list is full and addr is new.
func (l *List) Add(addr net.IP) error {
	return l.AddWithRetx(addr, 0)
}

// AddWithRetx inserts addr with the given retransmission counter if not
// already present; if addr is already present its counter is left
// unchanged (callers that need to reset a counter call SetRetx explicitly).
func (l *List) AddWithRetx(addr net.IP, retx int) error {
	if l.indexOf(addr) >= 0 {
		return nil
	}
	if len(l.entries) >= l.max {
		return &mlderrors.OutOfCapacityError{Op: "sourcelist.Add", Limit: l.max, Message: "source list full"}
	}
	l.entries = append(l.entries, entry{addr: append(net.IP(nil), addr...), retx: retx})
	return nil
}

// Remove deletes addr if present, preserving the order of the remainder.
// Reports whether addr was present.
func (l *List) Remove(addr net.IP) bool {
	i := l.indexOf(addr)
	if i < 0 {
		return false
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return true
}

// Clear empties the list.
func (l *List) Clear() {
	l.entries = l.entries[:0]
}

// SetRetx sets the retransmission counter for addr if present.
func (l *List) SetRetx(addr net.IP, retx int) {
	if i := l.indexOf(addr); i >= 0 {
		l.entries[i].retx = retx
	}
}

// RetxOf returns addr's retransmission counter and whether addr is present.
func (l *List) RetxOf(addr net.IP) (int, bool) {
	if i := l.indexOf(addr); i >= 0 {
		return l.entries[i].retx, true
	}
	return 0, false
}

// Addrs returns a copy of the addresses in insertion order.
func (l *List) Addrs() []net.IP {
	if l == nil {
		return nil
	}
	out := make([]net.IP, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.addr
	}
	return out
}

// DecrementAll decrements every entry's retransmission counter by one and
// removes any entry whose counter reaches zero, applying the State-Change
// report retransmission rule. Returns the addresses removed.
func (l *List) DecrementAll() []net.IP {
	var removed []net.IP
	kept := l.entries[:0]
	for _, e := range l.entries {
		e.retx--
		if e.retx <= 0 {
			removed = append(removed, e.addr)
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return removed
}

// FromSlice builds a new list from addrs, deduplicating and bounding at
// max. It reports OutOfCapacityError if addrs (after dedup) exceeds max.
func FromSlice(max int, addrs []net.IP) (*List, error) {
	l := New(max)
	for _, a := range addrs {
		if err := l.Add(a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Equal reports whether a and b contain the same set of addresses,
// regardless of order or retransmission counters.
func Equal(a, b *List) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, addr := range a.Addrs() {
		if !b.Has(addr) {
			return false
		}
	}
	return true
}

// Intersect returns the addresses present in both l and others, in l's
// insertion order (used by current-state generation: IS_IN(Q ∩ A)).
func Intersect(l *List, others []net.IP) []net.IP {
	set := make(map[string]struct{}, len(others))
	for _, a := range others {
		set[a.String()] = struct{}{}
	}
	var out []net.IP
	for _, a := range l.Addrs() {
		if _, ok := set[a.String()]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Difference returns the addresses in l not present in others, in l's
// insertion order (used by current-state generation: IS_IN(Q − A)).
func Difference(l *List, others []net.IP) []net.IP {
	set := make(map[string]struct{}, len(others))
	for _, a := range others {
		set[a.String()] = struct{}{}
	}
	var out []net.IP
	for _, a := range l.Addrs() {
		if _, ok := set[a.String()]; !ok {
			out = append(out, a)
		}
	}
	return out
}
