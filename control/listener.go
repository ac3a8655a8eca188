package control

import (
	"bufio"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/dispatch"
	"github.com/tlyu/ctrlevent/reply"
)

// Listener accepts control connections on a real net.Listener and drives
// each one with a per-connection read loop, registering and deregistering
// clientconn.Conns against the Surface's dispatcher and interest registry
// as connections come and go.
//
// This is wiring around the event-delivery core (escapecodec, reply,
// eventcode, interest, dispatch, statebus, producer): nothing here is part
// of those packages' own concurrency contract.
type Listener struct {
	Surface  *Surface
	Registry *clientconn.Registry
	Mainloop dispatch.Mainloop
	Log      logrus.FieldLogger
}

// NewListener returns a Listener ready to Serve on ln.
func NewListener(s *Surface, reg *clientconn.Registry, ml dispatch.Mainloop, log logrus.FieldLogger) *Listener {
	return &Listener{Surface: s, Registry: reg, Mainloop: ml, Log: log}
}

// Serve accepts connections from ln until it returns an error (typically
// because ln was closed), handling each on its own goroutine.
func (l *Listener) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go l.handle(conn)
	}
}

// netConn adapts a net.Conn into a clientconn.Handle, flushing its
// outbound buffer to the network on RequestFlush.
type netConn struct {
	*clientconn.Conn
	net net.Conn
}

func newNetConn(nc net.Conn) *netConn {
	c := &netConn{Conn: clientconn.NewConn(), net: nc}
	c.OnFlushRequested = c.flush
	return c
}

func (c *netConn) flush() {
	buf := c.Outbound()
	if len(buf) == 0 {
		return
	}
	c.ResetOutbound()
	// Best-effort: a write error here means the read loop's next Read
	// will observe the same broken connection and tear it down.
	_, _ = c.net.Write(buf)
}

func (l *Listener) handle(nc net.Conn) {
	defer nc.Close()

	conn := newNetConn(nc)
	l.Registry.Add(conn)
	defer func() {
		conn.MarkForClose()
		l.Registry.Remove(conn)
	}()

	r := bufio.NewReader(nc)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		l.dispatchCommand(conn, line)
		conn.RequestFlush()
	}
}

func (l *Listener) dispatchCommand(conn *netConn, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch strings.ToUpper(fields[0]) {
	case "SETEVENTS":
		l.Surface.SetEvents(conn, fields[1:], conn)
	case "GETINFO":
		l.handleGetInfo(conn, fields[1:])
	case "QUIT":
		reply.Final(conn, 250, "closing connection")
		conn.MarkForClose()
	default:
		reply.Finalf(conn, 510, "Unrecognized command %q", fields[0])
	}
}

func (l *Listener) handleGetInfo(conn *netConn, keys []string) {
	for _, key := range keys {
		switch key {
		case "events/names":
			reply.DataReply(conn, 250, "events/names=", []byte(l.Surface.Events()), l.Log)
		case "orconn-status":
			reply.DataReply(conn, 250, "orconn-status=", []byte(l.Surface.OrConnStatus()), l.Log)
		default:
			reply.Finalf(conn, 552, "Unrecognized key %q", key)
			return
		}
	}
	reply.Final(conn, 250, "OK")
}
