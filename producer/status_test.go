package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlyu/ctrlevent/eventcode"
	"github.com/tlyu/ctrlevent/severity"
)

func TestFormatStatusOrdersArgsDeterministically(t *testing.T) {
	t.Parallel()
	ev := StatusEvent{
		Code:     eventcode.STATUS_CLIENT,
		Severity: severity.Notice,
		Action:   "BOOTSTRAP",
		Args:     map[string]string{"TAG": "done", "PROGRESS": "100"},
	}
	got := FormatStatus(ev)
	assert.Equal(t, "650 STATUS_CLIENT NOTICE BOOTSTRAP PROGRESS=100 TAG=done\r\n", string(got))
}

func TestFormatStatusWithNoArgs(t *testing.T) {
	t.Parallel()
	ev := StatusEvent{Code: eventcode.STATUS_GENERAL, Severity: severity.Warn, Action: "CLOCK_SKEW"}
	got := FormatStatus(ev)
	assert.Equal(t, "650 STATUS_GENERAL WARN CLOCK_SKEW\r\n", string(got))
}

func TestPublishStatusShortCircuits(t *testing.T) {
	t.Parallel()
	sink := newFakeSink()
	PublishStatus(sink, StatusEvent{Code: eventcode.STATUS_SERVER, Severity: severity.Info, Action: "X"})
	assert.Empty(t, sink.published)

	sink = newFakeSink(eventcode.STATUS_SERVER)
	PublishStatus(sink, StatusEvent{Code: eventcode.STATUS_SERVER, Severity: severity.Info, Action: "X"})
	require.Len(t, sink.published, 1)
}

func TestFormatBW(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "650 BW 100 200\r\n", string(FormatBW(100, 200)))
}

func TestPublishBWShortCircuits(t *testing.T) {
	t.Parallel()
	sink := newFakeSink(eventcode.BW)
	PublishBW(sink, 1, 2)
	require.Len(t, sink.published, 1)
	assert.Equal(t, "650 BW 1 2\r\n", string(sink.published[0].payload))

	sink = newFakeSink()
	PublishBW(sink, 1, 2)
	assert.Empty(t, sink.published)
}

func TestFormatLogEventMapsSeverityToEventCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "650 DEBUG hello\r\n", string(FormatLogEvent(severity.Debug, "hello")))
	assert.Equal(t, "650 NOTICE hello\r\n", string(FormatLogEvent(severity.Notice, "hello")))
	assert.Equal(t, "650 ERR hello\r\n", string(FormatLogEvent(severity.Err, "hello")))
}

func TestPublishLogEventRespectsInterestPerLevel(t *testing.T) {
	t.Parallel()
	sink := newFakeSink(eventcode.WARN)
	PublishLogEvent(sink, severity.Warn, "disk almost full")
	require.Len(t, sink.published, 1)
	assert.Equal(t, eventcode.WARN, sink.published[0].code)

	PublishLogEvent(sink, severity.Info, "routine chatter")
	assert.Len(t, sink.published, 1, "INFO must not publish when only WARN is subscribed")
}
