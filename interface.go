// Package mld6 implements the host side of IPv6 Multicast Listener
// Discovery (MLDv2, with automatic fallback to MLDv1 when an older-version
// querier is present on the link): a per-interface state machine that
// decides when and how a host announces and maintains its interest in
// IPv6 multicast groups.
//
// Interface is the single entry point gluing together the group table
// (package group), the compatibility arbiter (package compat), the wire
// codec (package wire) and the report builder (package reportbuilder)
// under one per-interface lock, following a single-threaded cooperative
// concurrency model: StateChange (the application thread), HandleInbound
// (the network thread) and Tick (the timer thread) are the only three
// entry points, and they serialize against each other.
package mld6

import (
	"log/slog"
	"net"
	"sync"

	"github.com/netport-embedded/mld6/addr6"
	"github.com/netport-embedded/mld6/compat"
	"github.com/netport-embedded/mld6/group"
	"github.com/netport-embedded/mld6/netio"
	"github.com/netport-embedded/mld6/reportbuilder"
	"github.com/netport-embedded/mld6/wire"
)

// Stats counts notable events on an Interface, for diagnostics and tests.
type Stats struct {
	InvalidMessagesDropped    uint64
	ReportsSent               uint64
	ReportsTransmissionFailed uint64
	CompatibilityModeSwitches uint64
}

// Interface is one instance of the listener state machine, bound to a
// single network interface's ICMPv6 transmit capability, clock and RNG.
type Interface struct {
	mu     sync.Mutex
	cfg    Config
	tx     netio.Transmitter
	clock  netio.Clock
	rand   netio.Rand
	logger *slog.Logger

	table   *group.Table
	arbiter *compat.Arbiter

	generalTimer       netio.Timer
	stateChangeTimer   netio.Timer

	stats Stats
}

// NewInterface constructs an Interface bound to the given collaborators.
// Collaborators are passed explicitly as narrow capability interfaces
// rather than one "network" god-object.
func NewInterface(tx netio.Transmitter, clock netio.Clock, rand netio.Rand, opts ...Option) *Interface {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Interface{
		cfg:     cfg,
		tx:      tx,
		clock:   clock,
		rand:    rand,
		logger:  slog.Default(),
		table:   group.NewTable(cfg.MaxGroups, cfg.MaxSources),
		arbiter: compat.New(uint32(cfg.OlderVersionQuerierPresentTimeout().Milliseconds())),
	}
}

// WithLogger replaces the Interface's logger (default slog.Default()).
func (i *Interface) WithLogger(l *slog.Logger) *Interface {
	i.logger = l
	return i
}

// Stats returns a snapshot of the interface's operational counters.
func (i *Interface) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stats
}

// Compatibility returns the interface's current v1/v2 compatibility mode.
func (i *Interface) Compatibility() compat.Mode {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.arbiter.Mode()
}

// randDelay picks a uniform random delay in [0, maxMillis]. maxMillis = 0
// means "respond now": standards-compliant, but genuinely sub-tick latency
// should not be assumed.
func (i *Interface) randDelay(maxMillis uint32) uint32 {
	if maxMillis == 0 {
		return 0
	}
	return uint32(i.rand.Intn(int(maxMillis) + 1))
}

// StateChange is the application-facing entry point: the single way
// listener intent for a group is mutated.
func (i *Interface) StateChange(groupAddr net.IP, mode group.FilterMode, filter []net.IP) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	r, err := i.table.Create(groupAddr)
	if err != nil {
		return err
	}

	wasActive := r.State != group.NonListener && r.State != group.InitListener
	wasListening := !(r.FilterMode == group.Include && r.Filter.Len() == 0)

	owesRetransmission, err := r.ApplyStateChange(mode, filter, i.cfg.RobustnessVariable)
	if err != nil {
		return err
	}
	nowListening := !(r.FilterMode == group.Include && r.Filter.Len() == 0)

	if i.arbiter.Mode() == compat.V1 {
		i.applyV1StateChange(r, wasListening, nowListening)
		return nil
	}

	if owesRetransmission {
		delay := i.randDelay(uint32(i.cfg.UnsolicitedReportInterval.Milliseconds()))
		i.stateChangeTimer.ArmIfSoonerOrNotRunning(i.clock, delay)
	}

	if !wasActive && nowListening {
		i.logger.Debug("group joined", "group", groupAddr.String())
	}
	if r.State == group.NonListener || r.State == group.InitListener {
		r.State = group.IdleListener
	}
	return nil
}

// applyV1StateChange handles a listener-state transition under v1
// compatibility: a join is announced immediately with an unsolicited
// Listener Report, and a leave (only if this host was the last reporter)
// with a Listener Done.
func (i *Interface) applyV1StateChange(r *group.Record, wasListening, nowListening bool) {
	switch {
	case !wasListening && nowListening:
		i.sendV1ListenerReport(r)
		r.State = group.IdleListener
	case wasListening && !nowListening && r.LastReporter:
		if err := reportbuilder.SendV1Done(i.tx, r.Address); err != nil {
			i.onTransmissionFailed(err)
		} else {
			i.stats.ReportsSent++
			i.notifyReportSent(addr6.AllRoutersLinkLocal, wire.V1MessageLen)
		}
		r.LastReporter = false
		r.State = group.IdleListener
	default:
		r.State = group.IdleListener
	}
}

// sendV1ListenerReport sends a v1 Listener Report in answer to a Query,
// used both by the group's Delaying-Listener timer expiry and (via
// applyV1StateChange) by an unsolicited join: a v1 report is always
// destined to the group address itself, never bundled into a v2-style
// Current-State Report.
func (i *Interface) sendV1ListenerReport(r *group.Record) {
	if err := reportbuilder.SendV1Report(i.tx, r.Address); err != nil {
		i.onTransmissionFailed(err)
		return
	}
	r.LastReporter = true
	i.stats.ReportsSent++
	i.notifyReportSent(r.Address, wire.V1MessageLen)
}

// HandleInbound is the network-facing entry point: dispatches an inbound
// ICMPv6 MLD message by type.
func (i *Interface) HandleInbound(payload []byte, srcAddr net.IP) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(payload) == 0 {
		i.dropInvalid("empty payload")
		return nil
	}

	switch payload[0] {
	case wire.TypeQuery:
		i.handleQuery(payload, srcAddr)
	case wire.TypeReportV1:
		i.handleV1ReportHeard(payload)
	default:
		// Done (132) and v2 Report (143) from other hosts are not acted on
		// by a listener (v1 report suppression is the only inbound-report
		// behaviour handled); anything else is simply not an MLD message
		// this core cares about.
	}
	return nil
}

func (i *Interface) dropInvalid(reason string) {
	i.stats.InvalidMessagesDropped++
	i.logger.Debug("dropping invalid MLD message", "reason", reason)
}

func (i *Interface) handleQuery(payload []byte, srcAddr net.IP) {
	q, err := wire.ParseQuery(payload, srcAddr)
	if err != nil {
		i.dropInvalid(err.Error())
		return
	}

	if q.Version == 1 {
		i.handleV1Query(q)
		return
	}
	if i.arbiter.Mode() != compat.V2 {
		// Only processed when compatibility is V2.
		return
	}
	i.handleV2Query(q)
}

func (i *Interface) handleV1Query(q *wire.Query) {
	if i.arbiter.NoteV1Query(i.clock, i.table.All()) {
		i.stats.CompatibilityModeSwitches++
		i.generalTimer.Cancel()
		i.stateChangeTimer.Cancel()
		i.table.FlushUnused()
	}
	for _, r := range i.table.Matching(q.GroupAddress) {
		if r.State != group.IdleListener && r.State != group.DelayingListener {
			continue
		}
		delay := i.randDelay(q.MaxResponseDelay)
		r.NoteV1QueryMatch(i.clock, delay)
	}
}

func (i *Interface) handleV2Query(q *wire.Query) {
	if q.IsGeneral() {
		d := i.randDelay(q.MaxResponseDelay)
		if i.generalTimer.Running() && i.generalTimer.Remaining(i.clock) <= d {
			return
		}
		i.generalTimer.Arm(i.clock, d)
		return
	}

	for _, r := range i.table.Matching(q.GroupAddress) {
		d := i.randDelay(q.MaxResponseDelay)
		if i.generalTimer.Running() && i.generalTimer.Remaining(i.clock) <= d {
			// Covered by the pending General-Query response.
			continue
		}
		r.NoteV2GroupQueryMatch(i.clock, q.Sources, d)
	}
}

func (i *Interface) handleV1ReportHeard(payload []byte) {
	if i.arbiter.Mode() != compat.V1 {
		return
	}
	if len(payload) != wire.V1MessageLen {
		i.dropInvalid("v1 report wrong length")
		return
	}
	groupAddr := net.IP(append([]byte(nil), payload[8:24]...))
	r := i.table.Find(groupAddr)
	if r == nil {
		return
	}
	r.NoteV1ReportHeard()
}

// Tick is the periodic entry point, expected to be called at least every
// cfg.TickPeriod.
func (i *Interface) Tick() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.arbiter.Tick(i.clock, i.table.All()) {
		i.stats.CompatibilityModeSwitches++
		i.generalTimer.Cancel()
		i.stateChangeTimer.Cancel()
		i.table.FlushUnused()
	}

	if i.generalTimer.Fire(i.clock) {
		i.flushCurrentState(i.table.All())
	}

	var expiredGroups []*group.Record
	for _, r := range i.table.All() {
		if r.State == group.DelayingListener && r.Timer.Fire(i.clock) {
			expiredGroups = append(expiredGroups, r)
		}
	}
	if i.arbiter.Mode() == compat.V1 {
		for _, r := range expiredGroups {
			i.sendV1ListenerReport(r)
			r.State = group.IdleListener
		}
	} else if len(expiredGroups) > 0 {
		i.flushCurrentState(expiredGroups)
		for _, r := range expiredGroups {
			r.State = group.IdleListener
		}
	}

	if i.stateChangeTimer.Fire(i.clock) {
		i.flushStateChange()
	}

	i.table.FlushUnused()
}

// flushCurrentState builds and sends a Current-State Report covering
// records.
func (i *Interface) flushCurrentState(records []*group.Record) {
	b := reportbuilder.New(i.tx, i.cfg.MaxReportPacketSize)
	for _, r := range records {
		rec, ok := r.CurrentStateRecord()
		if !ok {
			continue
		}
		if err := b.Add(rec); err != nil {
			i.onTransmissionFailed(err)
		}
	}
	i.finishBuild(b)
}

// flushStateChange builds and sends a State-Change Report covering every
// group with outstanding changes, rearming the interface-wide
// retransmission timer if any group still owes a record afterward.
func (i *Interface) flushStateChange() {
	b := reportbuilder.New(i.tx, i.cfg.MaxReportPacketSize)
	anyPending := false
	for _, r := range i.table.All() {
		for _, rec := range r.StateChangeRecords() {
			if err := b.Add(rec); err != nil {
				i.onTransmissionFailed(err)
			}
		}
		if r.HasPendingRetransmissions() {
			anyPending = true
		}
	}
	i.finishBuild(b)

	if anyPending {
		delay := i.randDelay(uint32(i.cfg.UnsolicitedReportInterval.Milliseconds()))
		i.stateChangeTimer.Arm(i.clock, delay)
	}
}

func (i *Interface) finishBuild(b *reportbuilder.Builder) {
	if b.Empty() {
		return
	}
	if err := b.Flush(); err != nil {
		i.onTransmissionFailed(err)
		return
	}
	i.stats.ReportsSent++
	i.notifyReportSent(addr6.AllMLDv2RoutersLinkLocal, 0)
}

func (i *Interface) onTransmissionFailed(err error) {
	i.stats.ReportsTransmissionFailed++
	i.logger.Warn("MLD report transmission failed", "error", err)
}

func (i *Interface) notifyReportSent(dest net.IP, payloadLen int) {
	if i.cfg.OnReportSent != nil {
		i.cfg.OnReportSent(dest.String(), payloadLen)
	}
}

// LinkUp re-arms unsolicited reporting for every group still actively
// listening, after a link-down/link-up cycle: a host is free to emit
// unsolicited reports on link-up rather than wait for the next Query. It
// is not one of the three serialized entry points, but it mutates
// interface state, so it takes the same lock.
func (i *Interface) LinkUp() {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, r := range i.table.All() {
		if r.IsNonExistent() {
			continue
		}
		if i.arbiter.Mode() == compat.V1 {
			if err := reportbuilder.SendV1Report(i.tx, r.Address); err != nil {
				i.onTransmissionFailed(err)
			} else {
				i.stats.ReportsSent++
				r.LastReporter = true
				i.notifyReportSent(r.Address, wire.V1MessageLen)
			}
			continue
		}
		r.FilterModeRetxCounter = i.cfg.RobustnessVariable
	}
	if i.arbiter.Mode() == compat.V2 {
		delay := i.randDelay(uint32(i.cfg.UnsolicitedReportInterval.Milliseconds()))
		i.stateChangeTimer.ArmIfSoonerOrNotRunning(i.clock, delay)
	}
}

// LinkDown clears all pending timers and retransmission counters. The set
// of groups is retained so that reporting can resume on link up.
func (i *Interface) LinkDown() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.generalTimer.Cancel()
	i.stateChangeTimer.Cancel()
	for _, r := range i.table.All() {
		r.Timer.Cancel()
		r.FilterModeRetxCounter = 0
		r.Allow.Clear()
		r.Block.Clear()
		r.QueriedSources.Clear()
		r.QueriedSourcesSet = false
		if r.State != group.NonListener {
			r.State = group.IdleListener
		}
	}
}
