package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tlyu/ctrlevent/clientconn"
)

func TestFinal(t *testing.T) {
	t.Parallel()
	c := clientconn.NewConn()
	Final(c, 250, "OK")
	assert.Equal(t, "250 OK\r\n", string(c.Outbound()))
}

func TestFinalf(t *testing.T) {
	t.Parallel()
	c := clientconn.NewConn()
	Finalf(c, 552, "Unrecognized event %q", "FOOBAR")
	assert.Equal(t, "552 Unrecognized event \"FOOBAR\"\r\n", string(c.Outbound()))
}

func TestContinuation(t *testing.T) {
	t.Parallel()
	c := clientconn.NewConn()
	Continuation(c, 250, "first line")
	Final(c, 250, "OK")
	assert.Equal(t, "250-first line\r\n250 OK\r\n", string(c.Outbound()))
}

func TestDataReply(t *testing.T) {
	t.Parallel()
	c := clientconn.NewConn()
	DataReply(c, 250, "DATA", []byte("hello\n"), nil)
	assert.Equal(t, "250+DATA\r\nhello\r\n.\r\n", string(c.Outbound()))
}

func TestEventPush(t *testing.T) {
	t.Parallel()
	c := clientconn.NewConn()
	Final(c, 650, "ORCONN 1.2.3.4:9001 FAILED REASON=TIMEOUT NCIRCS=3 ID=42")
	assert.Equal(t, "650 ORCONN 1.2.3.4:9001 FAILED REASON=TIMEOUT NCIRCS=3 ID=42\r\n", string(c.Outbound()))
}
