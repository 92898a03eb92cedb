// Package push owns the live notification channel: one authenticated
// websocket connection per session, with reconnect handling and a typed
// inbound event stream delivered as Bubble Tea messages.
package push

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/capstone-eventify/notify/internal/model"
)

const (
	// reconnectDelay is the fixed backoff before the single scheduled
	// reconnect attempt after a non-manual drop.
	reconnectDelay = 3 * time.Second

	// dialAttempts is the transport's own bounded retry budget per
	// connect cycle, running beneath the scheduled reconnect.
	dialAttempts  = 5
	dialRetryWait = time.Second

	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// EventMsg is a tea.Msg carrying a normalized inbound push notification.
type EventMsg struct {
	Notification model.Notification
}

// StatusMsg is a tea.Msg reporting a connectivity transition.
type StatusMsg struct {
	Connected bool
}

// Notifier raises a native OS-level notification for an inbound event.
// Implementations are best-effort; errors are swallowed by the manager.
type Notifier interface {
	Notify(title, message string) error
}

// envelope is the single inbound message kind on the push channel.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// wireNotification tolerates partial push payloads; missing id and
// timestamp are synthesized at ingestion rather than rejected.
type wireNotification struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Link       string         `json:"link"`
	EventID    string         `json:"eventId"`
	EventTitle string         `json:"eventTitle"`
	Reason     string         `json:"reason"`
	Timestamp  string         `json:"timestamp"`
	Metadata   map[string]any `json:"metadata"`
}

// Manager maintains at most one live push connection for the session.
// Open is idempotent while connected; Close suppresses any pending or
// future reconnect until the next Open.
type Manager struct {
	url      string
	dialer   Dialer
	notifier Notifier
	msgCh    chan tea.Msg

	mu             sync.Mutex
	conn           Conn
	token          string
	connected      bool
	dialing        bool
	manualClose    bool
	reconnectTimer *time.Timer
	observers      []func(bool)

	// gen invalidates dial loops, pumps, and reconnect timers that
	// belong to a closed session.
	gen int
}

// NewManager creates a push manager for the given websocket URL. A nil
// dialer falls back to gorilla/websocket; notifier may be nil.
func NewManager(url string, dialer Dialer, notifier Notifier) *Manager {
	if dialer == nil {
		dialer = GorillaDialer{}
	}
	return &Manager{
		url:      url,
		dialer:   dialer,
		notifier: notifier,
		msgCh:    make(chan tea.Msg, 64),
	}
}

// Open starts the push connection with the given credential. It is a
// no-op when the credential is missing or a connection is already live
// or being established.
func (m *Manager) Open(token string) {
	if token == "" {
		log.Printf("push: open skipped, no credential")
		return
	}

	m.mu.Lock()
	if m.connected || m.dialing {
		m.mu.Unlock()
		return
	}
	m.manualClose = false
	m.token = token
	m.dialing = true
	gen := m.gen
	m.mu.Unlock()

	go m.connect(gen)
}

// Close tears the connection down deliberately (logout or shutdown) and
// suppresses auto-reconnect until the next Open.
func (m *Manager) Close() {
	m.mu.Lock()
	m.manualClose = true
	m.gen++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	conn := m.conn
	m.conn = nil
	wasConnected := m.connected
	m.connected = false
	if wasConnected {
		m.notifyStatusLocked(false)
	}
	m.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Connected reports the current connectivity status.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Subscribe registers an observer invoked synchronously on each
// connectivity transition. Observers must not call back into the manager.
func (m *Manager) Subscribe(fn func(connected bool)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// WaitForMessage returns a tea.Cmd that yields the next EventMsg or
// StatusMsg. Call it again after each delivery to keep listening.
func (m *Manager) WaitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgCh
		if !ok {
			return nil
		}
		return msg
	}
}

// connect runs the transport's bounded dial loop. On exhaustion it hands
// off to the single scheduled reconnect.
func (m *Manager) connect(gen int) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	for attempt := 1; attempt <= dialAttempts; attempt++ {
		m.mu.Lock()
		if m.manualClose || m.gen != gen {
			m.dialing = false
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		conn, err := m.dialer.Dial(m.url, header)
		if err == nil {
			m.mu.Lock()
			if m.manualClose || m.gen != gen {
				m.dialing = false
				m.mu.Unlock()
				_ = conn.Close()
				return
			}
			m.conn = conn
			m.connected = true
			m.dialing = false
			m.notifyStatusLocked(true)
			m.mu.Unlock()

			go m.readLoop(conn, gen)
			go m.pingLoop(conn, gen)
			return
		}

		log.Printf("push: dial attempt %d/%d failed: %v", attempt, dialAttempts, err)
		time.Sleep(dialRetryWait)
	}

	m.mu.Lock()
	m.dialing = false
	m.mu.Unlock()
	m.scheduleReconnect(gen)
}

// readLoop pumps inbound messages until the connection drops.
func (m *Manager) readLoop(conn Conn, gen int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleDrop(conn, gen, err)
			return
		}
		m.handleMessage(data)
	}
}

// pingLoop keeps the connection alive; a failed write surfaces as a
// read error in readLoop.
func (m *Manager) pingLoop(conn Conn, gen int) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		stale := m.gen != gen || m.conn != conn
		m.mu.Unlock()
		if stale {
			return
		}
		if err := conn.WriteMessage(PingMessage, nil); err != nil {
			return
		}
	}
}

// handleDrop processes a connection loss. Manual closes were already
// accounted for in Close; anything else schedules the reconnect.
func (m *Manager) handleDrop(conn Conn, gen int, err error) {
	m.mu.Lock()
	if m.gen != gen || m.conn != conn {
		// A newer session already replaced this connection.
		m.mu.Unlock()
		return
	}
	m.conn = nil
	m.connected = false
	manual := m.manualClose
	m.notifyStatusLocked(false)
	m.mu.Unlock()

	_ = conn.Close()

	if manual {
		return
	}
	log.Printf("push: connection dropped: %v", err)
	m.scheduleReconnect(gen)
}

// scheduleReconnect arms exactly one reconnect timer. When it fires,
// an already re-established or deliberately closed session makes the
// attempt a no-op.
func (m *Manager) scheduleReconnect(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.manualClose || m.gen != gen || m.reconnectTimer != nil {
		return
	}
	m.reconnectTimer = time.AfterFunc(reconnectDelay, func() {
		m.mu.Lock()
		m.reconnectTimer = nil
		if m.manualClose || m.gen != gen || m.connected || m.dialing {
			m.mu.Unlock()
			return
		}
		m.dialing = true
		m.mu.Unlock()

		m.connect(gen)
	})
}

// handleMessage decodes an inbound frame, normalizes the payload, and
// forwards it. Malformed payloads are defaulted rather than dropped.
func (m *Manager) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("push: discarding unparseable frame: %v", err)
		return
	}
	if env.Type != "notification" {
		return
	}

	n := normalize(env.Data, time.Now())

	if m.notifier != nil {
		// Best effort; a denied permission or missing daemon is not an error.
		_ = m.notifier.Notify(n.Title, n.Message)
	}

	m.send(EventMsg{Notification: n})
}

// normalize builds a model.Notification from a raw push payload,
// synthesizing the id and timestamp when absent.
func normalize(data []byte, now time.Time) model.Notification {
	var w wireNotification
	_ = json.Unmarshal(data, &w)

	n := model.Notification{
		ID:         w.ID,
		Title:      w.Title,
		Message:    w.Message,
		Type:       model.NormalizeType(w.Type),
		Link:       w.Link,
		EventID:    w.EventID,
		EventTitle: w.EventTitle,
		Reason:     w.Reason,
		Metadata:   w.Metadata,
		Timestamp:  now,
	}
	if n.ID == "" {
		n.ID = model.LocalIDPrefix + uuid.NewString()
	}
	if w.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, w.Timestamp); err == nil {
			n.Timestamp = ts
		}
	}
	return n
}

// notifyStatusLocked informs observers and the UI stream of a
// connectivity transition. Callers hold m.mu.
func (m *Manager) notifyStatusLocked(connected bool) {
	for _, fn := range m.observers {
		fn(connected)
	}
	select {
	case m.msgCh <- StatusMsg{Connected: connected}:
	default:
	}
}

// send forwards a message to the UI stream without blocking the pump.
func (m *Manager) send(msg tea.Msg) {
	select {
	case m.msgCh <- msg:
	default:
		log.Printf("push: message channel full, dropping event")
	}
}
