package ctrltest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinePipeServerToClient(t *testing.T) {
	t.Parallel()
	p := NewLinePipe(t)

	errCh := make(chan error, 1)
	go func() { errCh <- p.WriteServerLine("650 CIRC 1 LAUNCHED\r\n") }()

	line, err := p.ReadClientLine()
	require.NoError(t, err)
	assert.Equal(t, "650 CIRC 1 LAUNCHED\r\n", line)
	require.NoError(t, <-errCh)
}

func TestLinePipeClientToServer(t *testing.T) {
	t.Parallel()
	p := NewLinePipe(t)

	errCh := make(chan error, 1)
	go func() { errCh <- p.WriteClientLine("SETEVENTS CIRC\r\n") }()

	line, err := p.ReadServerLine()
	require.NoError(t, err)
	assert.Equal(t, "SETEVENTS CIRC\r\n", line)
	require.NoError(t, <-errCh)
}

func TestLinePipeCleanupClosesBothEnds(t *testing.T) {
	t.Parallel()
	p := NewLinePipe(t)
	done := make(chan struct{})
	go func() {
		_, _ = p.ReadServerLine()
		close(done)
	}()
	require.NoError(t, p.Client.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("server read did not unblock after client close")
	}
}
