package store

import (
	"context"

	"github.com/capstone-eventify/notify/internal/model"
)

// Store is the local persistence interface: a cache of fetched
// notifications for offline first paint, plus tombstones recording
// permanent deletions so they survive restarts.
type Store interface {
	// === Notification cache ===

	SaveNotifications(ctx context.Context, ns []model.Notification) error
	GetNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteAllNotifications(ctx context.Context) error

	// === Tombstones ===

	AddTombstones(ctx context.Context, ids []string) error
	GetTombstones(ctx context.Context) ([]string, error)

	Close() error
}
