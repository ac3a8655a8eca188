// Package ctrltest provides in-process test harnesses for exercising the
// control protocol over a real net.Conn, instead of calling handlers
// directly: a net.Pipe() pair for line-oriented reader/writer tests, and a
// websocket-based fake client for a browser-style smoke test.
package ctrltest

import (
	"bufio"
	"net"
	"testing"
)

// LinePipe is an in-memory net.Pipe() pair presented as line-oriented
// reader/writer ends, for tests that want to drive a connection handler
// with real I/O instead of calling it with pre-built buffers.
type LinePipe struct {
	Client net.Conn
	Server net.Conn

	ClientReader *bufio.Reader
	ServerReader *bufio.Reader
}

// NewLinePipe returns a connected in-memory pipe. Callers should close
// both ends (directly or via t.Cleanup) once done.
func NewLinePipe(t testing.TB) *LinePipe {
	t.Helper()
	client, server := net.Pipe()
	p := &LinePipe{
		Client:       client,
		Server:       server,
		ClientReader: bufio.NewReader(client),
		ServerReader: bufio.NewReader(server),
	}
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return p
}

// WriteServerLine writes a CRLF-terminated line on the server end, as a
// producer delivering an asynchronous event to the client would.
func (p *LinePipe) WriteServerLine(line string) error {
	_, err := p.Server.Write([]byte(line))
	return err
}

// ReadClientLine reads one line (including its trailing CRLF) from the
// client end.
func (p *LinePipe) ReadClientLine() (string, error) {
	return p.ClientReader.ReadString('\n')
}

// WriteClientLine writes a CRLF-terminated line on the client end, as a
// controller sending a command would.
func (p *LinePipe) WriteClientLine(line string) error {
	_, err := p.Client.Write([]byte(line))
	return err
}

// ReadServerLine reads one line (including its trailing CRLF) from the
// server end.
func (p *LinePipe) ReadServerLine() (string, error) {
	return p.ServerReader.ReadString('\n')
}
