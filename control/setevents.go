package control

import (
	"github.com/tlyu/ctrlevent/clientconn"
	"github.com/tlyu/ctrlevent/eventcode"
	"github.com/tlyu/ctrlevent/reply"
)

// SetEvents implements the SETEVENTS command: it parses names using the
// event-name table, computing a mask; legacy names (EXTENDED,
// AUTHDIR_NEWDESCS) are accepted and logged at warning, contributing no
// bit; the first unrecognized name aborts the command with a 552 error
// and leaves the client's mask untouched; otherwise the mask is installed
// and a 250 OK is sent.
func (s *Surface) SetEvents(client clientconn.Handle, names []string, out reply.OutBuf) {
	var mask eventcode.Mask
	for _, name := range names {
		if eventcode.IsLegacy(name) {
			if s.Log != nil {
				s.Log.WithField("name", name).Warn("SETEVENTS: accepted legacy event name, ignoring")
			}
			continue
		}
		code, ok := eventcode.Lookup(name)
		if !ok {
			reply.Finalf(out, 552, "Unrecognized event %q", name)
			return
		}
		mask = mask.Set(code)
	}

	s.SetClientMask(client, mask)
	reply.Final(out, 250, "OK")
}
