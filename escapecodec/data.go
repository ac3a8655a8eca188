// Package escapecodec implements the control protocol's dot-stuffed
// escaped-data block codec and its double-quoted/backslash-escaped string
// codec.
package escapecodec

import (
	"bytes"
	"math"

	"github.com/sirupsen/logrus"
)

// terminator is the line that ends every escaped-data block.
const terminator = ".\r\n"

// maxInputLen bounds WriteEscaped's input so the worst-case dot-stuffed,
// CRLF-promoted expansion (up to ~3x) never overflows an int. Not reachable
// in practice; it exists only so the contract has a defined failure path.
const maxInputLen = math.MaxInt32 / 4

// WriteEscaped encodes data as a dot-stuffed, CRLF-terminated escaped-data
// block: bare LF is promoted to CRLF, a leading '.' on any logical line is
// doubled, a trailing CRLF is ensured, and the ".\r\n" terminator line is
// appended.
//
// The only failure mode is input length overflow, in which case a safe
// three-byte ".\r\n" is returned and the event is logged at bug severity.
// log may be nil, in which case logrus.StandardLogger() is used.
func WriteEscaped(data []byte, log logrus.FieldLogger) []byte {
	if len(data) > maxInputLen {
		if log == nil {
			log = logrus.StandardLogger()
		}
		log.WithField("component", "escapecodec").
			Errorf("BUG: escaped-data input of %d bytes exceeds safe limit", len(data))
		return []byte(terminator)
	}

	out := make([]byte, 0, len(data)+len(data)/8+len(terminator)+2)
	atLineStart := true
	for _, b := range data {
		if atLineStart && b == '.' {
			out = append(out, '.')
		}
		if b == '\n' {
			if len(out) == 0 || out[len(out)-1] != '\r' {
				out = append(out, '\r')
			}
			out = append(out, '\n')
			atLineStart = true
			continue
		}
		out = append(out, b)
		atLineStart = false
	}

	if !bytes.HasSuffix(out, []byte("\r\n")) {
		out = append(out, '\r', '\n')
	}
	out = append(out, terminator...)
	return out
}

// ReadEscaped de-stuffs a dot-stuffed byte stream, normalising CRLF to LF
// and stripping the leading per-line dot-stuff byte. It stops at the first
// bare "." terminator line; trailing content after the terminator, and the
// terminator itself, are not included in the output. It never fails:
// truncated input (including input with no terminator at all) yields the
// de-stuffed prefix seen so far.
func ReadEscaped(data []byte) []byte {
	out := make([]byte, 0, len(data))
	start := 0
	for start < len(data) {
		nl := bytes.IndexByte(data[start:], '\n')
		var line []byte
		truncatedTail := false
		if nl < 0 {
			line = data[start:]
			start = len(data)
			truncatedTail = true
		} else {
			line = data[start : start+nl]
			start += nl + 1
		}

		line = bytes.TrimSuffix(line, []byte("\r"))

		if len(line) == 1 && line[0] == '.' {
			return out
		}
		if len(line) > 0 && line[0] == '.' {
			line = line[1:]
		}

		out = append(out, line...)
		if !truncatedTail {
			out = append(out, '\n')
		}
	}
	return out
}
