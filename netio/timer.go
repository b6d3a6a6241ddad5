package netio

// Timer is the single one-shot timer primitive used throughout the core: a
// group's response/retransmission timer, the interface's
// older-version-querier-present timer, its general-query response timer,
// and its state-change retransmission timer are all one Timer value each.
//
// Timer is deliberately a plain value advanced by an injected Clock rather
// than a goroutine+channel construct: the tick driver is single-threaded
// and cooperative with no suspension points, so "armed" just means "has a
// deadline the next Tick call should compare against".
type Timer struct {
	deadline uint64
	armed    bool
}

// Arm starts (or restarts) the timer to expire delayMillis from now.
func (t *Timer) Arm(clock Clock, delayMillis uint32) {
	t.deadline = clock.NowMillis() + uint64(delayMillis)
	t.armed = true
}

// Cancel stops the timer without firing it.
func (t *Timer) Cancel() {
	t.armed = false
}

// Running reports whether the timer is currently armed.
func (t *Timer) Running() bool {
	return t.armed
}

// Remaining returns the milliseconds left before expiry. It is meaningless
// (and returns 0) if the timer is not armed.
func (t *Timer) Remaining(clock Clock) uint32 {
	if !t.armed {
		return 0
	}
	now := clock.NowMillis()
	if now >= t.deadline {
		return 0
	}
	return uint32(t.deadline - now)
}

// Expired reports whether the timer is armed and its deadline has passed.
// It does not disarm the timer — callers that treat expiry as a one-shot
// event must call Cancel (or Arm again) themselves, so a caller that wants
// to merely peek (e.g. a query-consolidation check) can do so without side
// effects.
func (t *Timer) Expired(clock Clock) bool {
	return t.armed && clock.NowMillis() >= t.deadline
}

// Fire disarms the timer and reports whether it had expired. Tick drivers
// use this instead of Expired+Cancel to atomically consume one expiry.
func (t *Timer) Fire(clock Clock) bool {
	if !t.Expired(clock) {
		return false
	}
	t.armed = false
	return true
}

// ArmIfSoonerOrNotRunning arms the timer to delayMillis unless it is
// already running with a deadline sooner than that — the v1 restart rule:
// restart the timer only if the new delay is less than the remaining time
// of the running timer. Returns true if the timer was (re)armed.
func (t *Timer) ArmIfSoonerOrNotRunning(clock Clock, delayMillis uint32) bool {
	if t.armed && t.Remaining(clock) <= delayMillis {
		return false
	}
	t.Arm(clock, delayMillis)
	return true
}
