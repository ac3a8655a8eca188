// Package producer formats async control-channel event payloads: the
// OR-connection lifecycle producer, plus the analogous STATUS_*, BW, and
// log-level producers built around the same event-code table.
//
// Each producer follows a "check interest, format, publish" shape: do no
// formatting work until a subscriber has actually armed the event code.
package producer

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/tlyu/ctrlevent/eventcode"
)

// EventSink is the minimal surface a producer needs: check whether anyone
// cares before doing any formatting work, then hand the composed payload
// to the dispatcher. Satisfied by a control-surface adapter bundling
// interest.Registry.IsInteresting and dispatch.Dispatcher.Publish.
type EventSink interface {
	IsInteresting(code eventcode.Code) bool
	Publish(code eventcode.Code, payload []byte)
}

// NodeTable maps a channel's identity digest to a display nickname, when
// the router recognizes it.
type NodeTable interface {
	NicknameForIdentity(identity [20]byte) (nick string, verbose bool)
}

// CircuitCounter counts circuits pending or attached to a connection.
type CircuitCounter interface {
	PendingOrAttachedCircuits(connID uint64) int
}

// Status is an OR connection's lifecycle transition.
type Status string

const (
	StatusLaunched  Status = "LAUNCHED"
	StatusConnected Status = "CONNECTED"
	StatusFailed    Status = "FAILED"
	StatusClosed    Status = "CLOSED"
	StatusNew       Status = "NEW"
)

// Reason is an optional OR-connection close/fail reason, named the way
// the wire protocol names them: "END_OR_CONN_REASON_TIMEOUT" and so on.
// The empty Reason means "no reason supplied".
type Reason string

const reasonPrefix = "END_OR_CONN_REASON_"

// Text strips the wire-protocol constant prefix, so
// "END_OR_CONN_REASON_TIMEOUT" reports as "TIMEOUT" the way the REASON=
// clause renders it.
func (r Reason) Text() string {
	return strings.TrimPrefix(string(r), reasonPrefix)
}

// ORConnEvent describes one OR connection lifecycle transition: a channel
// handle with identity digest, address:port, a nickname, and a status
// transition, plus an optional reason name.
type ORConnEvent struct {
	Identity [20]byte
	Address  string
	Port     uint16
	Nickname string
	Status   Status
	Reason   Reason // "" means no reason supplied
	ID       uint64
}

var zeroIdentity [20]byte

// displayName follows the precedence order: known directory node →
// verbose nickname; else nonzero identity → "$" + upper-hex(identity);
// else → "address:port".
func displayName(nodes NodeTable, identity [20]byte, address string, port uint16) string {
	if nodes != nil {
		if nick, verbose := nodes.NicknameForIdentity(identity); verbose {
			return nick
		}
	}
	if identity != zeroIdentity {
		return "$" + strings.ToUpper(hex.EncodeToString(identity[:]))
	}
	return fmt.Sprintf("%s:%d", address, port)
}

// FormatORConn composes the exact wire line for ev, without checking
// interest or publishing it.
func FormatORConn(nodes NodeTable, circuits CircuitCounter, ev ORConnEvent) []byte {
	name := displayName(nodes, ev.Identity, ev.Address, ev.Port)

	var b strings.Builder
	fmt.Fprintf(&b, "650 ORCONN %s %s", name, ev.Status)

	if ev.Reason != "" {
		fmt.Fprintf(&b, " REASON=%s", ev.Reason.Text())
	}

	// NCIRCS appears only on FAILED or CLOSED with a nonzero count: circuit
	// counts are only interesting at teardown, so NEW/LAUNCHED never show
	// NCIRCS.
	if ev.Status == StatusFailed || ev.Status == StatusClosed {
		var n int
		if circuits != nil {
			n = circuits.PendingOrAttachedCircuits(ev.ID)
		}
		if n != 0 {
			fmt.Fprintf(&b, " NCIRCS=%d", n)
		}
	}

	fmt.Fprintf(&b, " ID=%d\r\n", ev.ID)
	return []byte(b.String())
}

// PublishORConn short-circuits on is_interesting(ORCONN), then formats and
// publishes ev. Counting circuits and resolving the display name only
// happens once a subscriber actually wants ORCONN.
func PublishORConn(sink EventSink, nodes NodeTable, circuits CircuitCounter, ev ORConnEvent) {
	if !sink.IsInteresting(eventcode.ORCONN) {
		return
	}
	sink.Publish(eventcode.ORCONN, FormatORConn(nodes, circuits, ev))
}

// sortedKeys is used by the STATUS_* formatter (status.go) for deterministic
// KEY=VALUE ordering.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
