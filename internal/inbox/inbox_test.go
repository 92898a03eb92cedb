package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capstone-eventify/notify/internal/api"
	"github.com/capstone-eventify/notify/internal/model"
)

// fakeService records mutation calls and signals each one on calls so
// tests can wait for the fire-and-forget goroutines.
type fakeService struct {
	mu      sync.Mutex
	marked  []string
	deleted []string
	allRead int
	err     error

	calls chan string
}

func newFakeService() *fakeService {
	return &fakeService{calls: make(chan string, 32)}
}

func (f *fakeService) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	f.marked = append(f.marked, id)
	err := f.err
	f.mu.Unlock()
	f.calls <- "markRead:" + id
	return err
}

func (f *fakeService) MarkAllRead(context.Context) error {
	f.mu.Lock()
	f.allRead++
	err := f.err
	f.mu.Unlock()
	f.calls <- "markAllRead"
	return err
}

func (f *fakeService) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	err := f.err
	f.mu.Unlock()
	f.calls <- "delete:" + id
	return err
}

func (f *fakeService) waitCall(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-f.calls:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return baseTime }

func newTestInbox(svc Service) *Inbox {
	b := New(svc, nil, nil)
	b.now = fixedNow
	return b
}

func persisted(id string, read bool, age time.Duration) model.Notification {
	return model.Notification{
		ID:        id,
		Title:     "n-" + id,
		Type:      model.TypeInfo,
		IsRead:    read,
		Timestamp: baseTime.Add(-age),
	}
}

func TestMergeDeduplicatesPersistedWins(t *testing.T) {
	b := newTestInbox(newFakeService())

	// The live copy arrives first and is unread by definition.
	b.PushArrived(model.Notification{ID: "n1", Title: "live copy", Timestamp: baseTime})

	// The fetch returns the same id with authoritative read state.
	b.PageLoaded(api.Page{Notifications: []model.Notification{
		{ID: "n1", Title: "persisted copy", IsRead: true, Timestamp: baseTime},
	}})

	got := b.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, "persisted copy", got[0].Title)
	assert.True(t, got[0].IsRead)
	assert.Equal(t, 0, b.UnreadCount())
}

func TestMergeOrdering(t *testing.T) {
	b := newTestInbox(newFakeService())

	b.PageLoaded(api.Page{Notifications: []model.Notification{
		persisted("old-unread", false, 3*time.Hour),
		persisted("new-read", true, time.Minute),
		persisted("new-unread", false, time.Hour),
		persisted("old-read", true, 4*time.Hour),
	}})

	got := b.Notifications()
	require.Len(t, got, 4)

	// Unread before read, newest first within each group.
	assert.Equal(t, "new-unread", got[0].ID)
	assert.Equal(t, "old-unread", got[1].ID)
	assert.Equal(t, "new-read", got[2].ID)
	assert.Equal(t, "old-read", got[3].ID)
}

func TestLivePushMergesWithFetchedPage(t *testing.T) {
	b := newTestInbox(newFakeService())

	page := make([]model.Notification, 0, 5)
	for i, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		page = append(page, persisted(id, i >= 3, time.Duration(i+1)*time.Hour))
	}
	b.PageLoaded(api.Page{Notifications: page})
	assert.Equal(t, 3, b.UnreadCount())

	b.PushArrived(model.Notification{ID: "live1", Title: "fresh", Timestamp: baseTime})

	got := b.Notifications()
	require.Len(t, got, 6)
	assert.Equal(t, 4, b.UnreadCount())

	// The push event is the newest unread record, so it leads the view.
	assert.Equal(t, "live1", got[0].ID)
}

func TestLiveBufferCap(t *testing.T) {
	b := newTestInbox(newFakeService())

	for i := 0; i < liveBufferCap+10; i++ {
		b.PushArrived(model.Notification{
			ID:        model.LocalIDPrefix + string(rune('a'+i%26)) + string(rune('0'+i/26)),
			Timestamp: baseTime.Add(time.Duration(i) * time.Second),
		})
	}

	assert.Len(t, b.live, liveBufferCap)

	// The oldest entries were dropped, the newest kept.
	newest := b.Notifications()[0]
	assert.Equal(t, baseTime.Add(time.Duration(liveBufferCap+9)*time.Second), newest.Timestamp)
}

func TestMarkAsReadPersistedIssuesServerCall(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("n1", false, time.Hour)}})
	b.MarkAsRead("n1")

	assert.Equal(t, 0, b.UnreadCount())
	svc.waitCall(t, "markRead:n1")
}

func TestMarkAsReadEphemeralStaysLocal(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	id := model.LocalIDPrefix + "abc"
	b.PushArrived(model.Notification{ID: id, Timestamp: baseTime})
	b.MarkAsRead(id)

	assert.Equal(t, 0, b.UnreadCount())
	select {
	case got := <-svc.calls:
		t.Fatalf("unexpected server call %s for ephemeral id", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMarkAllReadIsOptimistic(t *testing.T) {
	svc := newFakeService()
	svc.err = errors.New("server unavailable")
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{
		persisted("p1", false, time.Hour),
		persisted("p2", false, 2*time.Hour),
		persisted("p3", false, 3*time.Hour),
	}})
	b.PushArrived(model.Notification{ID: model.LocalIDPrefix + "x", Timestamp: baseTime})
	require.Equal(t, 4, b.UnreadCount())

	b.MarkAllRead()

	// Local state flips immediately and stays flipped even though the
	// server call fails: no rollback.
	assert.Equal(t, 0, b.UnreadCount())
	svc.waitCall(t, "markAllRead")
	assert.Equal(t, 0, b.UnreadCount())
}

func TestRemoveEphemeralDropsRecord(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	id := model.LocalIDPrefix + "gone"
	b.PushArrived(model.Notification{ID: id, Timestamp: baseTime})
	require.Len(t, b.Notifications(), 1)

	b.Remove(id)
	assert.Empty(t, b.Notifications())
}

func TestRemovePersistedSoftMarksRead(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("p1", false, time.Hour)}})
	b.Remove("p1")

	got := b.Notifications()
	require.Len(t, got, 1)
	assert.True(t, got[0].IsRead)
	svc.waitCall(t, "markRead:p1")
}

func TestDeleteAllPersistedTombstonesAndSpares(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{
		persisted("p1", false, time.Hour),
		persisted("p2", true, 2*time.Hour),
	}})
	liveID := model.LocalIDPrefix + "keep"
	b.PushArrived(model.Notification{ID: liveID, Timestamp: baseTime})

	b.DeleteAllPersisted()

	// Ephemeral records survive the purge.
	got := b.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, liveID, got[0].ID)

	// Neither a stale fetch nor a push replay resurrects deleted ids.
	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("p1", false, time.Hour)}})
	b.PushArrived(model.Notification{ID: "p2", Timestamp: baseTime})

	got = b.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, liveID, got[0].ID)
}

func TestReadRecordNotResurrectedByReplay(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("p1", false, time.Hour)}})
	b.MarkAsRead("p1")
	svc.waitCall(t, "markRead:p1")

	// p1 drops out of the next fetched page, then the live stream
	// replays its id.
	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("p9", false, time.Minute)}})
	b.PushArrived(model.Notification{ID: "p1", Title: "replayed", Timestamp: baseTime})

	got := b.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, "p9", got[0].ID)
	assert.Equal(t, 1, b.UnreadCount())
}

func TestMarkAllReadSuppressesReplayOfDroppedIDs(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{
		persisted("p1", false, time.Hour),
		persisted("p2", false, 2*time.Hour),
	}})
	b.MarkAllRead()
	svc.waitCall(t, "markAllRead")

	b.PageLoaded(api.Page{Notifications: nil})
	b.PushArrived(model.Notification{ID: "p2", Timestamp: baseTime})

	assert.Empty(t, b.Notifications())
	assert.Equal(t, 0, b.UnreadCount())
}

func TestSeedCachedOnlyBeforeFirstFetch(t *testing.T) {
	b := newTestInbox(newFakeService())

	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("fresh", false, time.Hour)}})
	b.SeedCached([]model.Notification{persisted("stale", false, 2*time.Hour)})

	got := b.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestClickThroughPriority(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	actionRan := false
	withAction := model.Notification{
		ID:      "a1",
		Link:    "/somewhere",
		EventID: "ev-1",
		Action:  func() { actionRan = true },
	}
	assert.Equal(t, RouteNone, b.ClickThrough(withAction))
	assert.True(t, actionRan)

	assert.Equal(t, Route("/orders/42"), b.ClickThrough(model.Notification{
		ID: "a2", Link: "/orders/42", EventID: "ev-1",
	}))
	assert.Equal(t, Route("/events/ev-1"), b.ClickThrough(model.Notification{
		ID: "a3", EventID: "ev-1", Type: model.TypeTicketConfirmed,
	}))
	assert.Equal(t, RouteTickets, b.ClickThrough(model.Notification{
		ID: "a4", Type: model.TypeRefundRequested,
	}))
	assert.Equal(t, RouteEvents, b.ClickThrough(model.Notification{
		ID: "a5", Type: model.TypeEventDeleted,
	}))
	assert.Equal(t, RouteNotifications, b.ClickThrough(model.Notification{
		ID: "a6", Type: model.TypeInfo,
	}))
}

func TestClickThroughMarksRead(t *testing.T) {
	svc := newFakeService()
	b := newTestInbox(svc)

	b.PageLoaded(api.Page{Notifications: []model.Notification{persisted("p1", false, time.Hour)}})
	b.ClickThrough(b.Notifications()[0])

	assert.Equal(t, 0, b.UnreadCount())
	svc.waitCall(t, "markRead:p1")
}
