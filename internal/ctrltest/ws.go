package ctrltest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
)

// WSRelay is a websocket-upgrading test server that relays whole text
// frames onto a channel the test can assert against, and lets the test
// push frames back down to the connected client — a browser-style smoke
// test for the control protocol's line format carried over a websocket
// transport, rather than raw TCP.
type WSRelay struct {
	Server *httptest.Server
	URL    string

	Received chan string
	ToClient chan string

	done chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewWSRelay starts a websocket relay test server and registers Close with
// t.Cleanup.
func NewWSRelay(t testing.TB) *WSRelay {
	t.Helper()
	r := &WSRelay{
		Received: make(chan string, 16),
		ToClient: make(chan string, 16),
		done:     make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/control", r.handle)
	r.Server = httptest.NewServer(mux)
	r.URL = "ws" + r.Server.URL[len("http"):] + "/control"

	t.Cleanup(r.Close)
	return r
}

func (r *WSRelay) handle(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	go func() {
		for {
			select {
			case msg := <-r.ToClient:
				if conn.WriteMessage(websocket.TextMessage, []byte(msg)) != nil {
					return
				}
			case <-r.done:
				return
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case r.Received <- string(payload):
		case <-r.done:
			return
		}
	}
}

// Close shuts down the relay's server and background goroutines. Safe to
// call more than once.
func (r *WSRelay) Close() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	r.Server.Close()
}
