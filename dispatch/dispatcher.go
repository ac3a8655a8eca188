// Package dispatch implements a thread-safe queued event dispatcher: it
// decouples event producers, which may run on any goroutine deep inside
// unrelated machinery, from event consumers (control-plane clients) whose
// outbound buffers only the mainloop goroutine may touch.
package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/eventcode"
)

// InterestChecker reports whether any open client currently wants events
// of a given code.
type InterestChecker interface {
	IsInteresting(code eventcode.Code) bool
}

// ConnRegistry yields the current set of open, deliverable connections.
type ConnRegistry interface {
	OpenControlConns() []clientconn.Handle
}

// Mainloop is the single-shot event-activation collaborator the
// dispatcher schedules its flush through.
type Mainloop interface {
	// Schedule registers fn as the flush callback. Called exactly once,
	// at dispatcher construction.
	Schedule(fn func(force bool))
	// Activate wakes the scheduled flush callback as soon as the
	// mainloop next runs.
	Activate()
}

type queuedEvent struct {
	code    eventcode.Code
	payload []byte
}

// Dispatcher is the thread-safe queued event dispatcher.
type Dispatcher struct {
	log logrus.FieldLogger

	interest InterestChecker
	conns    ConnRegistry
	mainloop Mainloop

	mu             sync.Mutex
	queue          []queuedEvent
	flushScheduled bool

	reentry *reentryGuard

	mainloopBound int32
	mainloopGID   uint64

	// logDrain, if set, is invoked at the very start of every Flush, to
	// let the log subsystem push any callback entries it has buffered
	// into this dispatcher before the queue is swapped, so log events
	// reach this queue first. It runs before the reentry guard is raised,
	// so Publish calls it triggers are enqueued normally rather than
	// discarded.
	logDrain func()
}

// New constructs a Dispatcher and registers its flush callback with
// mainloop. interest and conns must be non-nil; log may be nil, in which
// case logrus.StandardLogger() is used.
func New(interest InterestChecker, conns ConnRegistry, mainloop Mainloop, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	d := &Dispatcher{
		log:      log.WithField("component", "dispatch"),
		interest: interest,
		conns:    conns,
		mainloop: mainloop,
		reentry:  newReentryGuard(),
	}
	mainloop.Schedule(d.Flush)
	return d
}

// SetLogDrain installs the log-subsystem drain callback (see logDrain).
func (d *Dispatcher) SetLogDrain(fn func()) { d.logDrain = fn }

// BindMainloop records the calling goroutine as "the mainloop thread" for
// the purposes of the on-mainloop-thread check in Publish. Call it once,
// from inside the goroutine that actually drives the mainloop (e.g. the
// first statement of the event loop's run method).
func (d *Dispatcher) BindMainloop() {
	atomic.StoreUint64(&d.mainloopGID, goroutineID())
	atomic.StoreInt32(&d.mainloopBound, 1)
}

func (d *Dispatcher) onMainloopThread() bool {
	return atomic.LoadInt32(&d.mainloopBound) != 0 && goroutineID() == atomic.LoadUint64(&d.mainloopGID)
}

// Publish enqueues a formatted event payload for delivery to every
// interested, open client.
//
// Ownership of payload moves to the dispatcher: callers must not reuse or
// mutate it afterwards. Publish returns immediately in every case —
// uninterested codes, reentrant calls, and normal enqueues alike — never
// touching a client's socket on the caller's stack.
func (d *Dispatcher) Publish(code eventcode.Code, payload []byte) {
	if !d.interest.IsInteresting(code) {
		return
	}
	if d.reentry.active() {
		d.log.WithField("code", code).Debug("discarding reentrant publish")
		return
	}

	d.reentry.enter()
	defer d.reentry.leave()

	activate := false
	d.mu.Lock()
	d.queue = append(d.queue, queuedEvent{code: code, payload: payload})
	if !d.flushScheduled && d.onMainloopThread() {
		d.flushScheduled = true
		activate = true
	}
	d.mu.Unlock()

	if activate {
		d.mainloop.Activate()
	}
}

// Flush is the mainloop callback: it drains the queue once and writes
// each payload into every interested, open client's outbound buffer.
// force additionally requests an immediate network flush on every
// recipient.
func (d *Dispatcher) Flush(force bool) {
	if d.logDrain != nil {
		d.logDrain()
	}

	d.reentry.enter()
	defer d.reentry.leave()

	d.mu.Lock()
	d.flushScheduled = false
	q := d.queue
	d.queue = nil
	d.mu.Unlock()

	recipients := d.conns.OpenControlConns()
	for _, e := range q {
		for _, r := range recipients {
			if r.Mask().Has(e.code) {
				r.AppendOutbound(e.payload)
			}
		}
	}

	if force {
		for _, r := range recipients {
			r.RequestFlush()
		}
	}
}

// FreeAll discards every queued event without delivering it. Safe to call
// multiple times.
func (d *Dispatcher) FreeAll() {
	d.mu.Lock()
	d.queue = nil
	d.flushScheduled = false
	d.mu.Unlock()
}

// QueueLen reports how many events are currently queued. Intended for
// tests and diagnostics only.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
