// Package toast drives the short-lived pop-up queue for freshly
// arriving push events. It is a side-view of the live stream only: it
// never consults or mutates the inbox's read state.
package toast

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/capstone-eventify/notify/internal/model"
)

const (
	// DefaultTTL is how long a toast stays visible.
	DefaultTTL = 5 * time.Second

	// DefaultFreshness is the maximum event age that may still spawn a
	// toast. Older events replayed on reconnect land only in the inbox.
	DefaultFreshness = 5 * time.Second

	// DefaultMax caps the number of visible toasts, newest first.
	DefaultMax = 3
)

// ExpiredMsg is a tea.Msg sent when a toast's timer removed it.
type ExpiredMsg struct {
	ID string
}

// Presenter maintains the rolling toast queue. Each entry owns an
// independent expiry timer; dismissing one never disturbs the others.
// Timer callbacks fire off the UI loop, so internal state is locked.
type Presenter struct {
	mu     sync.Mutex
	toasts []model.Notification
	timers map[string]*time.Timer

	max       int
	ttl       time.Duration
	freshness time.Duration

	expiredCh chan string
	now       func() time.Time
}

// New creates a presenter with the given limits. Non-positive arguments
// fall back to the defaults.
func New(max int, ttl, freshness time.Duration) *Presenter {
	if max <= 0 {
		max = DefaultMax
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Presenter{
		timers:    make(map[string]*time.Timer),
		max:       max,
		ttl:       ttl,
		freshness: freshness,
		expiredCh: make(chan string, 16),
		now:       time.Now,
	}
}

// Offer enqueues a live arrival as a toast if it is fresh enough.
// Returns false for stale events and duplicates.
func (p *Presenter) Offer(n model.Notification) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.now().Sub(n.EffectiveTime(p.now())) >= p.freshness {
		return false
	}
	for _, t := range p.toasts {
		if t.ID == n.ID {
			return false
		}
	}

	p.toasts = append([]model.Notification{n}, p.toasts...)
	if len(p.toasts) > p.max {
		evicted := p.toasts[p.max:]
		p.toasts = p.toasts[:p.max]
		for _, e := range evicted {
			p.stopTimerLocked(e.ID)
		}
	}

	id := n.ID
	p.timers[id] = time.AfterFunc(p.ttl, func() {
		p.expire(id)
	})
	return true
}

// Dismiss removes a toast early on user action, cancelling its timer.
func (p *Presenter) Dismiss(id string) {
	p.mu.Lock()
	p.removeLocked(id)
	p.mu.Unlock()
}

// Visible returns the current toast queue, newest first.
func (p *Presenter) Visible() []model.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Notification, len(p.toasts))
	copy(out, p.toasts)
	return out
}

// Stop cancels every pending timer; used on teardown so no callback
// fires against a dismantled UI.
func (p *Presenter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.toasts = nil
}

// WaitForExpiry returns a tea.Cmd yielding the next ExpiredMsg so the
// UI re-renders when a toast times out.
func (p *Presenter) WaitForExpiry() tea.Cmd {
	return func() tea.Msg {
		id, ok := <-p.expiredCh
		if !ok {
			return nil
		}
		return ExpiredMsg{ID: id}
	}
}

// expire is the timer callback path.
func (p *Presenter) expire(id string) {
	p.mu.Lock()
	removed := p.removeLocked(id)
	p.mu.Unlock()

	if !removed {
		return
	}
	select {
	case p.expiredCh <- id:
	default:
	}
}

// removeLocked drops a toast and its timer. Callers hold p.mu.
func (p *Presenter) removeLocked(id string) bool {
	p.stopTimerLocked(id)
	for i, t := range p.toasts {
		if t.ID == id {
			p.toasts = append(p.toasts[:i], p.toasts[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Presenter) stopTimerLocked(id string) {
	if t, ok := p.timers[id]; ok {
		t.Stop()
		delete(p.timers, id)
	}
}
