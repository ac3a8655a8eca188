package control

import (
	"strings"

	"github.com/tlyu/ctrlevent/eventcode"
)

// Events implements GETINFO events/names (design note §9): a
// space-separated list of every defined event name, in code order. The
// source fragments for this GETINFO key were incomplete (stray
// `*answer = ...` assignments with no declaration); this is the
// straightforward reading of what the key must return.
func (s *Surface) Events() string {
	codes := eventcode.All()
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = c.Name()
	}
	return strings.Join(names, " ")
}

// OrConnStatus implements GETINFO orconn-status (design note §9):
// CRLF-separated "<name> <state>" lines, one per currently known OR
// connection. Returns the empty string if no OrConnStatusSource is wired.
func (s *Surface) OrConnStatus() string {
	if s.OrConns == nil {
		return ""
	}
	statuses := s.OrConns.OrConnStatuses()
	lines := make([]string, 0, len(statuses))
	for _, st := range statuses {
		lines = append(lines, st.Name+" "+st.State)
	}
	return strings.Join(lines, "\r\n")
}
