// Package inbox reconciles the live push buffer with the persisted
// notification log into the single ordered, de-duplicated view the
// presentation surfaces render from.
package inbox

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/capstone-eventify/notify/internal/api"
	"github.com/capstone-eventify/notify/internal/model"
)

// liveBufferCap bounds the in-memory live buffer; oldest entries are
// dropped first.
const liveBufferCap = 50

// mutationTimeout bounds the fire-and-forget server mutations.
const mutationTimeout = 10 * time.Second

// Service is the slice of the persisted store the engine routes
// mutations to. *api.Client satisfies it.
type Service interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// Archive persists fetched history and permanent deletions locally so
// the inbox paints offline and deletions survive restarts. May be nil.
type Archive interface {
	SaveNotifications(ctx context.Context, ns []model.Notification) error
	DeleteAllNotifications(ctx context.Context) error
	AddTombstones(ctx context.Context, ids []string) error
}

// Inbox owns the merged working set. It is single-writer state driven
// from the UI event loop and is not safe for concurrent use; only the
// server calls it spawns run in the background.
type Inbox struct {
	svc     Service
	archive Archive

	live       []model.Notification
	persisted  []model.Notification
	tombstones map[string]struct{}
	readIDs    map[string]struct{}
	merged     []model.Notification

	page       int
	totalPages int
	hasNext    bool

	now func() time.Time
}

// New creates an inbox backed by the given persisted store client.
// archive may be nil. tombstones seeds previously deleted ids so they
// are never re-introduced by a fetch or push replay.
func New(svc Service, archive Archive, tombstones []string) *Inbox {
	ts := make(map[string]struct{}, len(tombstones))
	for _, id := range tombstones {
		ts[id] = struct{}{}
	}
	return &Inbox{
		svc:        svc,
		archive:    archive,
		tombstones: ts,
		readIDs:    make(map[string]struct{}),
		now:        time.Now,
	}
}

// PushArrived ingests a live push event into the live buffer. Events
// for permanently deleted ids are ignored, and a replay of an id the
// user already marked read never re-introduces it unread.
func (b *Inbox) PushArrived(n model.Notification) {
	if _, dead := b.tombstones[n.ID]; dead {
		return
	}
	if _, read := b.readIDs[n.ID]; read {
		return
	}
	n.IsRead = false

	// Replace an existing live copy rather than duplicating it.
	for i := range b.live {
		if b.live[i].ID == n.ID {
			b.live[i] = n
			b.recompute()
			return
		}
	}

	b.live = append(b.live, n)
	if len(b.live) > liveBufferCap {
		b.live = b.live[len(b.live)-liveBufferCap:]
	}
	b.recompute()
}

// PageLoaded replaces the persisted buffer with a freshly fetched page.
// The merge is additive with the live buffer, so push events that
// arrived mid-fetch stay visible.
func (b *Inbox) PageLoaded(p api.Page) {
	b.persisted = p.Notifications
	b.page = p.CurrentPage
	b.totalPages = p.TotalPages
	b.hasNext = p.HasNextPage
	b.recompute()

	if b.archive != nil && len(p.Notifications) > 0 {
		ns := append([]model.Notification(nil), p.Notifications...)
		b.async("caching page", func(ctx context.Context) error {
			return b.archive.SaveNotifications(ctx, ns)
		})
	}
}

// SeedCached paints the inbox from the local cache before the first
// fetch completes. A later PageLoaded supersedes it.
func (b *Inbox) SeedCached(ns []model.Notification) {
	if len(b.persisted) > 0 {
		return
	}
	b.persisted = ns
	b.recompute()
}

// Notifications returns the merged, ordered working set. The slice is
// owned by the inbox; callers must not mutate it.
func (b *Inbox) Notifications() []model.Notification {
	return b.merged
}

// UnreadCount counts unread records across the visible merged set.
func (b *Inbox) UnreadCount() int {
	count := 0
	for _, n := range b.merged {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// Page returns the current persisted page number.
func (b *Inbox) Page() int { return b.page }

// TotalPages returns the persisted page count from the last fetch.
func (b *Inbox) TotalPages() int { return b.totalPages }

// HasNextPage reports whether more persisted history can be fetched.
func (b *Inbox) HasNextPage() bool { return b.hasNext }

// MarkAsRead flips a single record to read. Ephemeral-provenance ids
// mutate local state only; persisted ids also issue the server
// mutation, optimistically and without rollback.
func (b *Inbox) MarkAsRead(id string) {
	found := false
	for i := range b.live {
		if b.live[i].ID == id {
			b.live[i].IsRead = true
			found = true
		}
	}
	for i := range b.persisted {
		if b.persisted[i].ID == id {
			b.persisted[i].IsRead = true
			found = true
		}
	}
	if !found {
		return
	}
	if !isEphemeralID(id) {
		b.readIDs[id] = struct{}{}
	}
	b.recompute()

	if isEphemeralID(id) {
		return
	}
	b.async("mark read", func(ctx context.Context) error {
		return b.svc.MarkRead(ctx, id)
	})
}

// MarkAllRead optimistically flips every record to read, then issues
// the bulk server mutation. This also backs the casual "clear all"
// action; nothing is deleted.
func (b *Inbox) MarkAllRead() {
	for i := range b.live {
		b.live[i].IsRead = true
		if !b.live[i].IsEphemeral() {
			b.readIDs[b.live[i].ID] = struct{}{}
		}
	}
	for i := range b.persisted {
		b.persisted[i].IsRead = true
		b.readIDs[b.persisted[i].ID] = struct{}{}
	}
	b.recompute()

	b.async("mark all read", func(ctx context.Context) error {
		return b.svc.MarkAllRead(ctx)
	})
}

// Remove dismisses a single record from the inbox. Ephemeral records
// are dropped outright with no server call; persisted records are
// soft-removed by marking them read.
func (b *Inbox) Remove(id string) {
	if isEphemeralID(id) {
		kept := b.live[:0]
		for _, n := range b.live {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		b.live = kept
		b.recompute()
		return
	}
	b.MarkAsRead(id)
}

// DeleteAllPersisted permanently deletes every persisted notification in
// the currently loaded set and tombstones the ids so neither a later
// fetch nor a push replay resurrects them. Ephemeral records survive.
func (b *Inbox) DeleteAllPersisted() {
	ids := make([]string, 0, len(b.merged))
	for _, n := range b.merged {
		if !n.IsEphemeral() {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	for _, id := range ids {
		b.tombstones[id] = struct{}{}
	}
	b.persisted = nil
	b.recompute()

	b.async("delete all", func(ctx context.Context) error {
		for _, id := range ids {
			if err := b.svc.Delete(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if b.archive != nil {
		b.async("tombstoning", func(ctx context.Context) error {
			if err := b.archive.DeleteAllNotifications(ctx); err != nil {
				return err
			}
			return b.archive.AddTombstones(ctx, ids)
		})
	}
}

// ClickThrough marks the notification read and resolves where the
// surface should navigate. Resolution order is a strict contract:
// explicit action handler, then link, then event route, then the
// type-specific default.
func (b *Inbox) ClickThrough(n model.Notification) Route {
	b.MarkAsRead(n.ID)
	if n.Action != nil {
		n.Action()
		return RouteNone
	}
	return resolveRoute(n)
}

// recompute rebuilds the merged set wholesale from both buffers. It is
// pure recomputation, so a partial upstream failure can never leave the
// merged set half-patched.
func (b *Inbox) recompute() {
	b.merged = merge(b.live, b.persisted, b.tombstones, b.readIDs, b.now())
}

// merge concatenates both buffers, de-duplicates by id with the
// persisted copy winning (it carries the authoritative read state), and
// sorts unread-before-read, newest first within each group. Live
// entries whose id was already marked read stay read even if a replay
// slipped into the buffer before the mark.
func merge(live, persisted []model.Notification, tombstones, readIDs map[string]struct{}, now time.Time) []model.Notification {
	byID := make(map[string]int, len(live)+len(persisted))
	out := make([]model.Notification, 0, len(live)+len(persisted))

	for _, n := range live {
		if _, dead := tombstones[n.ID]; dead {
			continue
		}
		if _, dup := byID[n.ID]; dup {
			continue
		}
		if _, read := readIDs[n.ID]; read {
			n.IsRead = true
		}
		byID[n.ID] = len(out)
		out = append(out, n)
	}
	for _, n := range persisted {
		if _, dead := tombstones[n.ID]; dead {
			continue
		}
		if i, dup := byID[n.ID]; dup {
			out[i] = n
			continue
		}
		byID[n.ID] = len(out)
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsRead != out[j].IsRead {
			return !out[i].IsRead
		}
		return out[i].EffectiveTime(now).After(out[j].EffectiveTime(now))
	})
	return out
}

// async runs a fire-and-forget server call. Failures are logged and the
// optimistic local state is deliberately kept.
func (b *Inbox) async(op string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("inbox: %s failed, keeping local state: %v", op, err)
		}
	}()
}

func isEphemeralID(id string) bool {
	return model.Notification{ID: id}.IsEphemeral()
}
