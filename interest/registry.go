// Package interest implements the per-client event subscription registry
// and global interest mask: it tracks each open client's subscription
// mask, maintains the union of all of them, and adjusts the log
// subsystem's severity window whenever that union changes.
package interest

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/eventcode"
	"github.com/tlyu/ctrlevent/severity"
)

// ConnRegistry yields the current set of open, deliverable connections, the
// same collaborator the dispatcher consumes.
type ConnRegistry interface {
	OpenControlConns() []clientconn.Handle
}

// LogSubsystem receives the severity window the registry computes from the
// five log-level event bits and STATUS_GENERAL.
type LogSubsystem interface {
	SetSeverityRange(r severity.Range)
}

// PeriodicScheduler is notified whenever the "any per-second event enabled"
// predicate flips value, so it can start or stop its per-second sampling.
type PeriodicScheduler interface {
	RescanPerSecondEvents()
}

// StreamByteCounters zeroes every application-side connection's byte
// counters. Armed on STREAM_BW's clear→set transition.
type StreamByteCounters interface {
	ZeroStreamByteCounters()
}

// CircuitByteCounters zeroes every origin circuit's four bandwidth
// counters (read/written/overhead/delivered). Armed on CIRC_BW's
// clear→set transition.
type CircuitByteCounters interface {
	ZeroCircuitByteCounters()
}

// BandwidthSampler records a fresh baseline for cumulative read/written
// totals so the next BW tick reports a zero-based delta. Armed on BW's
// clear→set transition.
type BandwidthSampler interface {
	SampleBandwidthBaseline()
}

// perSecondMask is the set of event codes that drive per-second sampling.
var perSecondMask = eventcode.Mask(0).
	Set(eventcode.BW).
	Set(eventcode.CELL_STATS).
	Set(eventcode.CIRC_BW).
	Set(eventcode.CONN_BW).
	Set(eventcode.STREAM_BW)

func anyPerSecondEnabled(m eventcode.Mask) bool {
	return m&perSecondMask != 0
}

// logLevelCodes are the five log-level event codes, in ascending severity
// order, each paired with its severity.Severity.
var logLevelCodes = [...]struct {
	code eventcode.Code
	sev  severity.Severity
}{
	{eventcode.DEBUG, severity.Debug},
	{eventcode.INFO, severity.Info},
	{eventcode.NOTICE, severity.Notice},
	{eventcode.WARN, severity.Warn},
	{eventcode.ERR, severity.Err},
}

// Registry is the single owner of the global subscription mask and the
// sole caller of the arming side-effects and log-severity adjustment this
// generates.
type Registry struct {
	log logrus.FieldLogger

	conns     ConnRegistry
	logSub    LogSubsystem
	scheduler PeriodicScheduler

	streamBW StreamByteCounters
	circBW   CircuitByteCounters
	bwSample BandwidthSampler

	// globalMask is written only by RecomputeGlobalMask on the mainloop
	// thread, but IsInteresting and AnyPerSecondEnabled are called from
	// arbitrary producer goroutines, so it is accessed atomically.
	globalMask atomic.Uint64
}

// New constructs a Registry. Every collaborator except conns may be nil; a
// nil collaborator's corresponding side effect is simply skipped. log may
// be nil, in which case logrus.StandardLogger() is used.
func New(
	conns ConnRegistry,
	logSub LogSubsystem,
	scheduler PeriodicScheduler,
	streamBW StreamByteCounters,
	circBW CircuitByteCounters,
	bwSample BandwidthSampler,
	log logrus.FieldLogger,
) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{
		log:       log.WithField("component", "interest"),
		conns:     conns,
		logSub:    logSub,
		scheduler: scheduler,
		streamBW:  streamBW,
		circBW:    circBW,
		bwSample:  bwSample,
	}
}

// SetClientMask stores mask on client, then recomputes the global mask.
// This core never touches a client's mask except through this entry
// point.
func (r *Registry) SetClientMask(client clientconn.Handle, mask eventcode.Mask) {
	client.SetMask(mask)
	r.RecomputeGlobalMask()
}

// RecomputeGlobalMask walks every open, not-marked-for-close client,
// ORs their masks into a candidate, and — before installing it — runs the
// log-severity adjustment, the arming side effects for newly set bits, and
// the per-second-scheduler notification, in that order.
func (r *Registry) RecomputeGlobalMask() {
	var candidate eventcode.Mask
	for _, c := range r.conns.OpenControlConns() {
		candidate |= c.Mask()
	}

	prev := eventcode.Mask(r.globalMask.Load())

	r.adjustLogSeverity(candidate)
	r.armTransitions(prev, candidate)

	if anyPerSecondEnabled(prev) != anyPerSecondEnabled(candidate) && r.scheduler != nil {
		r.scheduler.RescanPerSecondEvents()
	}

	r.globalMask.Store(uint64(candidate))
}

// adjustLogSeverity computes the inclusive severity range covered by the
// set log-level bits, widens it to at least NOTICE..ERR if STATUS_GENERAL
// is set, and installs the narrowest possible window (ERR only) if nothing
// is set at all.
func (r *Registry) adjustLogSeverity(mask eventcode.Mask) {
	var rng severity.Range
	rng.Lo, rng.Hi = severity.Max, severity.Min // start empty (Lo > Hi)
	empty := true
	for _, lc := range logLevelCodes {
		if !mask.Has(lc.code) {
			continue
		}
		if empty {
			rng = severity.Range{Lo: lc.sev, Hi: lc.sev}
			empty = false
		} else {
			rng = rng.Widen(severity.Range{Lo: lc.sev, Hi: lc.sev})
		}
	}

	if mask.Has(eventcode.STATUS_GENERAL) {
		rng = rng.Widen(severity.NoticeToErr)
	}

	if rng.Empty() {
		rng = severity.ErrOnly
	}

	if r.logSub != nil {
		r.logSub.SetSeverityRange(rng)
	}
}

// armTransitions runs the arming side effect for every bit that moved from
// clear in prev to set in next.
func (r *Registry) armTransitions(prev, next eventcode.Mask) {
	armed := next &^ prev

	if armed.Has(eventcode.STREAM_BW) && r.streamBW != nil {
		r.streamBW.ZeroStreamByteCounters()
	}
	if armed.Has(eventcode.CIRC_BW) && r.circBW != nil {
		r.circBW.ZeroCircuitByteCounters()
	}
	if armed.Has(eventcode.BW) && r.bwSample != nil {
		r.bwSample.SampleBandwidthBaseline()
	}
}

// IsInteresting is an O(1) test against the global mask.
func (r *Registry) IsInteresting(code eventcode.Code) bool {
	return eventcode.Mask(r.globalMask.Load()).Has(code)
}

// AnyPerSecondEnabled reports whether any of BW, CELL_STATS, CIRC_BW,
// CONN_BW, STREAM_BW is set in the global mask.
func (r *Registry) AnyPerSecondEnabled() bool {
	return anyPerSecondEnabled(eventcode.Mask(r.globalMask.Load()))
}

// GlobalMask returns the current global mask, for diagnostics and tests.
func (r *Registry) GlobalMask() eventcode.Mask {
	return eventcode.Mask(r.globalMask.Load())
}
