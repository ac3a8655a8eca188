// STATUS_CLIENT/STATUS_SERVER/STATUS_GENERAL, BW, and log-level producers:
// thin analogues of the ORCONN producer, exercising the event codes the
// registry's arming side effects and log-severity window depend on.
package producer

import (
	"fmt"
	"strings"

	"github.com/tlyu/ctrlevent/eventcode"
	"github.com/tlyu/ctrlevent/severity"
)

// StatusEvent is one STATUS_CLIENT/STATUS_SERVER/STATUS_GENERAL
// notification: a severity, an action name, and an ordered set of
// KEY=VALUE arguments.
type StatusEvent struct {
	Code     eventcode.Code // STATUS_CLIENT, STATUS_SERVER, or STATUS_GENERAL
	Severity severity.Severity
	Action   string
	Args     map[string]string
}

// FormatStatus composes "650 <CODE> <SEVERITY> <ACTION>[ KEY=VALUE ...]\r\n"
// with arguments in sorted key order for deterministic output.
func FormatStatus(ev StatusEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "650 %s %s %s", ev.Code, ev.Severity, ev.Action)
	for _, k := range sortedKeys(ev.Args) {
		fmt.Fprintf(&b, " %s=%s", k, ev.Args[k])
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// PublishStatus short-circuits on is_interesting(ev.Code), then formats
// and publishes ev.
func PublishStatus(sink EventSink, ev StatusEvent) {
	if !sink.IsInteresting(ev.Code) {
		return
	}
	sink.Publish(ev.Code, FormatStatus(ev))
}

// FormatBW composes the periodic bandwidth-sample line: "650 BW <read>
// <written>\r\n" (bytes read and written since the previous sample).
func FormatBW(read, written uint64) []byte {
	return []byte(fmt.Sprintf("650 BW %d %d\r\n", read, written))
}

// PublishBW short-circuits on is_interesting(BW), then formats and
// publishes a bandwidth sample. Callers sample relative to the baseline
// interest.BandwidthSampler.SampleBandwidthBaseline recorded on BW's
// clear→set transition.
func PublishBW(sink EventSink, read, written uint64) {
	if !sink.IsInteresting(eventcode.BW) {
		return
	}
	sink.Publish(eventcode.BW, FormatBW(read, written))
}

// logLevelEventCode maps a log severity to the event code subscribers use
// to request delivery of entries at that level: the five log-level codes
// DEBUG..ERR share their names with severity.Severity's levels.
func logLevelEventCode(s severity.Severity) eventcode.Code {
	switch s {
	case severity.Debug:
		return eventcode.DEBUG
	case severity.Info:
		return eventcode.INFO
	case severity.Notice:
		return eventcode.NOTICE
	case severity.Warn:
		return eventcode.WARN
	default:
		return eventcode.ERR
	}
}

// FormatLogEvent composes a single-line log-event reply: "650 <LEVEL>
// <message>\r\n". message is written verbatim: it is not checked for CR or
// LF, and a multi-line message is not escaped or split.
func FormatLogEvent(sev severity.Severity, message string) []byte {
	return []byte(fmt.Sprintf("650 %s %s\r\n", logLevelEventCode(sev), message))
}

// PublishLogEvent short-circuits on is_interesting for sev's event code,
// then formats and publishes message. This is the producer the log
// subsystem's severity-filtered hook calls once an entry's severity falls
// inside the installed window (interest.Registry.adjustLogSeverity).
func PublishLogEvent(sink EventSink, sev severity.Severity, message string) {
	code := logLevelEventCode(sev)
	if !sink.IsInteresting(code) {
		return
	}
	sink.Publish(code, FormatLogEvent(sev, message))
}
