package push

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstone-eventify/notify/internal/model"
)

type fakeConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.frames:
		return 1, data, nil
	case <-c.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *fakeConn) WriteMessage(int, []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	default:
		return nil
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type fakeDialer struct {
	mu      sync.Mutex
	conns   []*fakeConn
	headers []http.Header
	err     error
}

func (d *fakeDialer) Dial(_ string, header http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	d.headers = append(d.headers, header)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

// nextMsg drives the subscription command with a timeout so a stalled
// channel fails the test instead of hanging it.
func nextMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push message")
		return nil
	}
}

func waitConnected(t *testing.T, m *Manager, want bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.Connected() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpenIsIdempotent(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	m.Open("token-1")
	waitConnected(t, m, true)

	m.Open("token-1")
	m.Open("token-1")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, "Bearer token-1", dialer.headers[0].Get("Authorization"))
}

func TestOpenWithoutTokenIsNoOp(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	m.Open("")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, dialer.dialCount())
	assert.False(t, m.Connected())
}

func TestDropSchedulesReconnect(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	m.Open("token-1")
	waitConnected(t, m, true)

	// Simulate a server-side drop.
	dialer.lastConn().Close()
	waitConnected(t, m, false)

	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.reconnectTimer != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManualCloseSuppressesReconnect(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	m.Open("token-1")
	waitConnected(t, m, true)

	m.Close()
	waitConnected(t, m, false)

	// The pump's drop handling must not arm a reconnect after a
	// deliberate close.
	time.Sleep(100 * time.Millisecond)
	m.mu.Lock()
	timer := m.reconnectTimer
	m.mu.Unlock()
	assert.Nil(t, timer)
	assert.Equal(t, 1, dialer.dialCount())

	// A fresh Open resumes normally.
	m.Open("token-1")
	waitConnected(t, m, true)
	assert.Equal(t, 2, dialer.dialCount())
}

func TestStatusObserversNotified(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	var mu sync.Mutex
	var transitions []bool
	m.Subscribe(func(connected bool) {
		mu.Lock()
		transitions = append(transitions, connected)
		mu.Unlock()
	})

	m.Open("token-1")
	waitConnected(t, m, true)
	m.Close()
	waitConnected(t, m, false)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestInboundNotificationDelivered(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	m.Open("token-1")
	waitConnected(t, m, true)

	// Connecting queues a StatusMsg first.
	msg := nextMsg(t, m.WaitForMessage())
	require.Equal(t, StatusMsg{Connected: true}, msg)

	dialer.lastConn().frames <- []byte(`{
		"type": "notification",
		"data": {
			"id": "srv-1",
			"title": "Ticket confirmed",
			"message": "See you there",
			"type": "ticket_confirmed",
			"eventId": "ev-9",
			"timestamp": "2025-06-01T12:00:00Z"
		}
	}`)

	msg = nextMsg(t, m.WaitForMessage())
	ev, ok := msg.(EventMsg)
	require.True(t, ok, "expected EventMsg, got %T", msg)
	assert.Equal(t, "srv-1", ev.Notification.ID)
	assert.Equal(t, model.TypeTicketConfirmed, ev.Notification.Type)
	assert.Equal(t, "ev-9", ev.Notification.EventID)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), ev.Notification.Timestamp)
}

func TestMalformedPayloadNormalized(t *testing.T) {
	before := time.Now()

	n := normalize([]byte(`{"title":"bare","type":"event"}`), time.Now())

	assert.True(t, strings.HasPrefix(n.ID, model.LocalIDPrefix))
	assert.Equal(t, model.TypeInfo, n.Type)
	assert.False(t, n.Timestamp.Before(before))

	// Distinct synthesized ids for distinct arrivals.
	other := normalize([]byte(`{}`), time.Now())
	assert.NotEqual(t, n.ID, other.ID)
}

func TestNonNotificationFramesIgnored(t *testing.T) {
	dialer := &fakeDialer{}
	m := NewManager("ws://test/ws/notifications", dialer, nil)

	m.Open("token-1")
	waitConnected(t, m, true)
	require.Equal(t, StatusMsg{Connected: true}, nextMsg(t, m.WaitForMessage()))

	conn := dialer.lastConn()
	conn.frames <- []byte(`not json at all`)
	conn.frames <- []byte(`{"type":"heartbeat"}`)
	conn.frames <- []byte(`{"type":"notification","data":{"id":"srv-2","title":"real"}}`)

	msg := nextMsg(t, m.WaitForMessage())
	ev, ok := msg.(EventMsg)
	require.True(t, ok, "expected EventMsg, got %T", msg)
	assert.Equal(t, "srv-2", ev.Notification.ID)
}
