package push

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// PingMessage mirrors the websocket control frame code so fake
// transports don't need to import gorilla.
const PingMessage = websocket.PingMessage

// Conn is the subset of a websocket connection the manager drives.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer establishes push-channel connections. Tests substitute a fake
// so the manager can be exercised without a server.
type Dialer interface {
	Dial(url string, header http.Header) (Conn, error)
}

// GorillaDialer dials with gorilla/websocket and configures the
// keepalive deadlines the manager's ping loop relies on.
type GorillaDialer struct{}

// Dial opens a websocket connection to rawURL, passing the credential
// header at handshake time.
func (GorillaDialer) Dial(rawURL string, header http.Header) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.Dial(rawURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	return conn, nil
}
