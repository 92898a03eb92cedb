package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/capstone-eventify/notify/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// notificationRow is the scan target for the notifications table.
type notificationRow struct {
	ID         string    `db:"id"`
	Title      string    `db:"title"`
	Message    string    `db:"message"`
	Type       string    `db:"type"`
	Timestamp  time.Time `db:"timestamp"`
	IsRead     bool      `db:"is_read"`
	Link       string    `db:"link"`
	EventID    string    `db:"event_id"`
	EventTitle string    `db:"event_title"`
	Reason     string    `db:"reason"`
	Metadata   string    `db:"metadata"`
	FetchedAt  time.Time `db:"fetched_at"`
}

func (r notificationRow) toModel() model.Notification {
	n := model.Notification{
		ID:         r.ID,
		Title:      r.Title,
		Message:    r.Message,
		Type:       model.NotificationType(r.Type),
		Timestamp:  r.Timestamp,
		IsRead:     r.IsRead,
		Link:       r.Link,
		EventID:    r.EventID,
		EventTitle: r.EventTitle,
		Reason:     r.Reason,
	}
	if r.Metadata != "" && r.Metadata != "{}" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(r.Metadata), &meta); err == nil {
			n.Metadata = meta
		}
	}
	return n
}

// SaveNotifications upserts a batch of fetched notifications into the
// cache. Ephemeral-provenance records are skipped; they have no durable
// identity to cache under.
func (s *SQLiteStore) SaveNotifications(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO notifications (
			id, title, message, type, timestamp, is_read,
			link, event_id, event_title, reason, metadata, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, n := range ns {
		if n.IsEphemeral() {
			continue
		}
		metadata := "{}"
		if len(n.Metadata) > 0 {
			if data, err := json.Marshal(n.Metadata); err == nil {
				metadata = string(data)
			}
		}
		_, err = stmt.ExecContext(ctx,
			n.ID, n.Title, n.Message, string(n.Type), n.Timestamp.UTC(), n.IsRead,
			n.Link, n.EventID, n.EventTitle, n.Reason, metadata, now,
		)
		if err != nil {
			return fmt.Errorf("upserting notification %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetNotifications returns cached notifications excluding tombstoned
// ids, unread first, newest first within each group.
func (s *SQLiteStore) GetNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, title, message, type, timestamp, is_read,
		       link, event_id, event_title, reason, metadata, fetched_at
		FROM notifications
		WHERE id NOT IN (SELECT id FROM tombstones)
		ORDER BY is_read ASC, timestamp DESC
		LIMIT ?`

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}

	ns := make([]model.Notification, len(rows))
	for i, r := range rows {
		ns[i] = r.toModel()
	}
	return ns, nil
}

// MarkNotificationRead flips a single cached record to read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead flips every cached record to read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE notifications SET is_read = 1")
	if err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// DeleteAllNotifications empties the cache; used by the permanent
// delete-all path alongside AddTombstones.
func (s *SQLiteStore) DeleteAllNotifications(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notifications")
	if err != nil {
		return fmt.Errorf("deleting cached notifications: %w", err)
	}
	return nil
}

// AddTombstones records permanently deleted ids so no later fetch or
// push replay resurrects them, across restarts.
func (s *SQLiteStore) AddTombstones(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, "INSERT OR IGNORE INTO tombstones (id) VALUES (?)")
	if err != nil {
		return fmt.Errorf("preparing tombstone statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("inserting tombstone %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetTombstones returns every permanently deleted notification id.
func (s *SQLiteStore) GetTombstones(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, "SELECT id FROM tombstones ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying tombstones: %w", err)
	}
	return ids, nil
}
