// Package control aggregates the event-delivery core's collaborators
// into one bundle and implements the command handlers that sit on top of
// it: SETEVENTS, and the events()/orconn-status() GETINFO fragments.
//
// Surface is a flat struct of everything a request handler needs,
// assembled once at startup and passed down by reference.
package control

import (
	"github.com/sirupsen/logrus"

	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/dispatch"
	"github.com/tlyu/ctrlevent/eventcode"
	"github.com/tlyu/ctrlevent/interest"
	"github.com/tlyu/ctrlevent/producer"
)

// OrConnStatus is one line of GETINFO orconn-status output.
type OrConnStatus struct {
	Name  string
	State string
}

// OrConnStatusSource supplies the current OR connection table for GETINFO
// orconn-status. Production code backs this with the real connection
// manager; it is entirely external to this core.
type OrConnStatusSource interface {
	OrConnStatuses() []OrConnStatus
}

// Surface bundles the external collaborators a command handler or
// producer needs. It itself satisfies producer.EventSink, so any
// producer.Publish* function can be called with a *Surface directly.
type Surface struct {
	Dispatcher *dispatch.Dispatcher
	Interest   *interest.Registry
	NodeTable  producer.NodeTable
	Circuits   producer.CircuitCounter
	OrConns    OrConnStatusSource
	Log        logrus.FieldLogger
}

// IsInteresting satisfies producer.EventSink by delegating to Interest.
func (s *Surface) IsInteresting(code eventcode.Code) bool {
	return s.Interest.IsInteresting(code)
}

// Publish satisfies producer.EventSink by delegating to Dispatcher.
func (s *Surface) Publish(code eventcode.Code, payload []byte) {
	s.Dispatcher.Publish(code, payload)
}

// PublishORConn formats and publishes an OR-connection lifecycle event
// through this surface's node table and circuit counter.
func (s *Surface) PublishORConn(ev producer.ORConnEvent) {
	producer.PublishORConn(s, s.NodeTable, s.Circuits, ev)
}

// SetClientMask stores mask on client and recomputes the global interest
// mask, the entry point SETEVENTS uses after successfully parsing its
// argument list.
func (s *Surface) SetClientMask(client clientconn.Handle, mask eventcode.Mask) {
	s.Interest.SetClientMask(client, mask)
}
