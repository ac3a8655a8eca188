// Package severity defines the five control-channel log severities and
// their natural ascending order, and bridges them to logrus levels.
package severity

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Severity is one of the five log-level event severities, in ascending
// order from least to most severe.
type Severity int

const (
	Debug Severity = iota
	Info
	Notice
	Warn
	Err

	numSeverities
)

var names = [numSeverities]string{
	Debug:  "DEBUG",
	Info:   "INFO",
	Notice: "NOTICE",
	Warn:   "WARN",
	Err:    "ERR",
}

func (s Severity) String() string {
	if s < 0 || s >= numSeverities {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return names[s]
}

// Min and Max bound the valid Severity range.
const (
	Min = Debug
	Max = Err
)

// Range is an inclusive [Lo, Hi] severity window, Lo being the least
// severe (most verbose) boundary and Hi the most severe.
type Range struct {
	Lo, Hi Severity
}

// Empty reports whether r contains no severities (Lo > Hi).
func (r Range) Empty() bool { return r.Lo > r.Hi }

// Widen returns the smallest range containing both r and other.
func (r Range) Widen(other Range) Range {
	if other.Empty() {
		return r
	}
	if r.Empty() {
		return other
	}
	out := r
	if other.Lo < out.Lo {
		out.Lo = other.Lo
	}
	if other.Hi > out.Hi {
		out.Hi = other.Hi
	}
	return out
}

// Contains reports whether s falls within r.
func (r Range) Contains(s Severity) bool {
	return !r.Empty() && s >= r.Lo && s <= r.Hi
}

// ErrOnly is the narrowest non-empty window, used to "effectively disable"
// log-event delivery when no log-level bits and no STATUS_GENERAL are
// subscribed.
var ErrOnly = Range{Lo: Err, Hi: Err}

// NoticeToErr is the minimum widening STATUS_GENERAL forces.
var NoticeToErr = Range{Lo: Notice, Hi: Err}

// LogrusLevel maps a Severity to the logrus level an entry of that
// severity is logged at. NOTICE shares logrus.InfoLevel with INFO; callers
// distinguish the two via the "notice" field (see FromEntry).
func (s Severity) LogrusLevel() logrus.Level {
	switch s {
	case Debug:
		return logrus.DebugLevel
	case Info, Notice:
		return logrus.InfoLevel
	case Warn:
		return logrus.WarnLevel
	case Err:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// FromEntry recovers the control-channel Severity of a logrus entry. An
// Info-level entry with Data["notice"] == true is reported as Notice.
func FromEntry(e *logrus.Entry) Severity {
	switch e.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return Debug
	case logrus.InfoLevel:
		if notice, _ := e.Data["notice"].(bool); notice {
			return Notice
		}
		return Info
	case logrus.WarnLevel:
		return Warn
	default:
		return Err
	}
}
