// Package ctrllog supplies the logging ambient stack: console and
// logstash-style JSON formatters, and the severity-range hook that bridges
// the interest registry's log-severity window onto a logrus.Logger.
package ctrllog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ConsoleFormatter wraps an inner logrus.Formatter and appends a
// space-separated, JSON-serialized rendering of entry.Data["objects"]
// (a []interface{}) after the inner formatter's output. Values that fail
// to marshal are skipped rather than failing the whole entry.
type ConsoleFormatter struct {
	Inner logrus.Formatter
}

// Format satisfies logrus.Formatter.
func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	out, err := f.Inner.Format(entry)
	if err != nil {
		return nil, err
	}

	objects, _ := entry.Data["objects"].([]interface{})
	if len(objects) == 0 {
		return out, nil
	}

	parts := make([]string, 0, len(objects))
	for _, o := range objects {
		b, err := json.Marshal(o)
		if err != nil {
			continue
		}
		parts = append(parts, string(b))
	}
	if len(parts) == 0 {
		return out, nil
	}

	joined := strings.Join(parts, " ")
	if len(out) == 0 {
		return []byte(joined), nil
	}
	return []byte(string(out) + " " + joined), nil
}

// LogstashFormatter renders entries as logstash-style JSON lines: a flat
// field map built from entry.Data (error values rendered as their message
// string) plus the reserved @timestamp/@version/message/level_name keys
// logstash expects. A data field whose name collides with a reserved key
// survives under "fields.<name>" instead of being overwritten.
type LogstashFormatter struct{}

// logstashReserved lists the entry.Data keys that collide with fields
// Format always sets itself; each survives renamed to "fields.<name>".
var logstashReserved = [...]string{"message", "level"}

// Format satisfies logrus.Formatter.
func (f *LogstashFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	e := logstashFields(entry)

	for _, name := range logstashReserved {
		if v, ok := entry.Data[name]; ok {
			e["fields."+name] = v
		}
	}

	e["@timestamp"] = entry.Time.Format(time.RFC3339)
	e["@version"] = "1"
	e["message"] = entry.Message
	e["level_name"] = entry.Level.String()

	serialised, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(serialised, '\n'), nil
}

// logstashFields copies entry.Data into a fresh logrus.Fields, rendering
// any error value as its message string so the whole map marshals cleanly.
func logstashFields(entry *logrus.Entry) logrus.Fields {
	e := make(logrus.Fields, len(entry.Data)+len(logstashReserved)+2)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		e[k] = v
	}
	return e
}
