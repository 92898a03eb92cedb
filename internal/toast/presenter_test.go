package toast

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstone-eventify/notify/internal/model"
)

func fresh(id string) model.Notification {
	return model.Notification{ID: id, Title: "t-" + id, Timestamp: time.Now()}
}

func nextExpiry(t *testing.T, cmd tea.Cmd) ExpiredMsg {
	t.Helper()
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()
	select {
	case msg := <-out:
		ev, ok := msg.(ExpiredMsg)
		require.True(t, ok, "expected ExpiredMsg, got %T", msg)
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for toast expiry")
		return ExpiredMsg{}
	}
}

func TestOfferRejectsStaleEvents(t *testing.T) {
	p := New(3, time.Minute, 5*time.Second)
	defer p.Stop()

	stale := model.Notification{ID: "old", Timestamp: time.Now().Add(-time.Minute)}
	assert.False(t, p.Offer(stale))
	assert.Empty(t, p.Visible())

	assert.True(t, p.Offer(fresh("new")))
	assert.Len(t, p.Visible(), 1)
}

func TestOfferRejectsDuplicates(t *testing.T) {
	p := New(3, time.Minute, 5*time.Second)
	defer p.Stop()

	assert.True(t, p.Offer(fresh("n1")))
	assert.False(t, p.Offer(fresh("n1")))
	assert.Len(t, p.Visible(), 1)
}

func TestCapEvictsOldest(t *testing.T) {
	p := New(3, time.Minute, 5*time.Second)
	defer p.Stop()

	for _, id := range []string{"n1", "n2", "n3", "n4"} {
		require.True(t, p.Offer(fresh(id)))
	}

	got := p.Visible()
	require.Len(t, got, 3)

	// Newest first; the oldest entry was evicted.
	assert.Equal(t, "n4", got[0].ID)
	assert.Equal(t, "n3", got[1].ID)
	assert.Equal(t, "n2", got[2].ID)

	// The evicted toast's timer was cancelled with it.
	p.mu.Lock()
	_, hasEvicted := p.timers["n1"]
	p.mu.Unlock()
	assert.False(t, hasEvicted)
}

func TestToastExpiresIndependently(t *testing.T) {
	p := New(3, 50*time.Millisecond, 5*time.Second)
	defer p.Stop()

	require.True(t, p.Offer(fresh("n1")))

	ev := nextExpiry(t, p.WaitForExpiry())
	assert.Equal(t, "n1", ev.ID)
	assert.Empty(t, p.Visible())
}

func TestDismissCancelsOnlyItsOwnTimer(t *testing.T) {
	p := New(3, time.Minute, 5*time.Second)
	defer p.Stop()

	require.True(t, p.Offer(fresh("n1")))
	require.True(t, p.Offer(fresh("n2")))

	p.Dismiss("n1")

	got := p.Visible()
	require.Len(t, got, 1)
	assert.Equal(t, "n2", got[0].ID)

	p.mu.Lock()
	_, hasN1 := p.timers["n1"]
	_, hasN2 := p.timers["n2"]
	p.mu.Unlock()
	assert.False(t, hasN1)
	assert.True(t, hasN2)
}

func TestStopCancelsEverything(t *testing.T) {
	p := New(3, time.Minute, 5*time.Second)

	require.True(t, p.Offer(fresh("n1")))
	require.True(t, p.Offer(fresh("n2")))

	p.Stop()

	assert.Empty(t, p.Visible())
	p.mu.Lock()
	assert.Empty(t, p.timers)
	p.mu.Unlock()
}
