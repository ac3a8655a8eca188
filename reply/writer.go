// Package reply formats numbered control-protocol reply lines onto a
// client's outbound buffer.
package reply

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tlyu/ctrlevent/escapecodec"
)

// OutBuf is the minimal target a reply is written to: anything exposing an
// append-only outbound buffer. clientconn.Handle satisfies this.
type OutBuf interface {
	AppendOutbound(p []byte)
}

// separator identifies the reply-line continuation character.
type separator byte

const (
	// SepFinal marks the last line of a multi-line reply.
	SepFinal separator = ' '
	// SepContinuation marks a non-final line with more text to follow.
	SepContinuation separator = '-'
	// SepData marks a line introducing an escaped-data block.
	SepData separator = '+'
)

// line writes "CCCsP\r\n" to c. Every write appends to the buffer with no
// intermediate yield, so a reply's lines are never interleaved with
// another goroutine's append. fmt.Sprintf and the []byte conversion are the
// only allocations here; an allocation failure is an unrecoverable
// resource-exhaustion bug and is left to panic the process, exactly as
// formatting a string in Go already does on true OOM.
func line(c OutBuf, code int, sep separator, payload string) {
	c.AppendOutbound([]byte(fmt.Sprintf("%03d%c%s\r\n", code, byte(sep), payload)))
}

// Final writes a final reply line: "CCC payload\r\n".
func Final(c OutBuf, code int, payload string) { line(c, code, SepFinal, payload) }

// Finalf formats payload with fmt.Sprintf before writing a final line.
func Finalf(c OutBuf, code int, format string, args ...interface{}) {
	Final(c, code, fmt.Sprintf(format, args...))
}

// Continuation writes a continuation reply line: "CCC-payload\r\n".
func Continuation(c OutBuf, code int, payload string) { line(c, code, SepContinuation, payload) }

// Continuationf formats payload before writing a continuation line.
func Continuationf(c OutBuf, code int, format string, args ...interface{}) {
	Continuation(c, code, fmt.Sprintf(format, args...))
}

// DataIntro writes a data-introduction reply line: "CCC+payload\r\n". The
// caller is responsible for following it with the escaped-data block
// itself (see Data).
func DataIntro(c OutBuf, code int, payload string) { line(c, code, SepData, payload) }

// DataIntrof formats payload before writing a data-introduction line.
func DataIntrof(c OutBuf, code int, format string, args ...interface{}) {
	DataIntro(c, code, fmt.Sprintf(format, args...))
}

// Data applies the escaped-data write codec to data and appends the
// result, without writing an introduction line. Pair it with DataIntro, or
// use DataReply to do both at once.
func Data(c OutBuf, data []byte, log logrus.FieldLogger) {
	c.AppendOutbound(escapecodec.WriteEscaped(data, log))
}

// DataReply writes a complete data reply: the "CCC+payload\r\n"
// introduction line followed by the escaped-data encoding of data and its
// ".\r\n" terminator.
func DataReply(c OutBuf, code int, intro string, data []byte, log logrus.FieldLogger) {
	DataIntro(c, code, intro)
	Data(c, data, log)
}
