package model

import (
	"strings"
	"time"
)

// LocalIDPrefix marks notifications that exist only in the live push
// buffer and have no confirmed server-side record. IDs carrying this
// prefix never round-trip to the server.
const LocalIDPrefix = "local-"

// NotificationType classifies a notification for display and routing.
type NotificationType string

const (
	TypeSuccess          NotificationType = "success"
	TypeWarning          NotificationType = "warning"
	TypeInfo             NotificationType = "info"
	TypeError            NotificationType = "error"
	TypeEventDeleted     NotificationType = "event_deleted"
	TypeTicketConfirmed  NotificationType = "ticket_confirmed"
	TypeRefundRequested  NotificationType = "refund_requested"
	TypeWaitlistApproved NotificationType = "waitlist_approved"
)

// legacyTypeEvent is emitted by older server builds and is treated as info.
const legacyTypeEvent = "event"

// NormalizeType maps a raw wire type to a NotificationType. The legacy
// alias "event" and an empty type both resolve to info; anything else is
// passed through so newer server-side types still render.
func NormalizeType(raw string) NotificationType {
	switch raw {
	case "", legacyTypeEvent:
		return TypeInfo
	default:
		return NotificationType(raw)
	}
}

// Notification is an alert delivered to the current user, either over
// the live push channel or from the server's persisted notification log.
type Notification struct {
	// ID is server-assigned for persisted notifications. Live-only
	// notifications carry a locally generated ID with LocalIDPrefix.
	ID string `json:"id"`

	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`

	// Timestamp is when the event occurred. Live events without one are
	// stamped at ingestion time.
	Timestamp time.Time `json:"timestamp"`

	// IsRead is authoritative only for persisted notifications;
	// ephemeral ones stay unread until locally dismissed.
	IsRead bool `json:"isRead"`

	// Link is an optional explicit navigation target.
	Link string `json:"link,omitempty"`

	// EventID and EventTitle correlate the notification to a ticketed
	// event for click-through.
	EventID    string `json:"eventId,omitempty"`
	EventTitle string `json:"eventTitle,omitempty"`

	// Reason carries free text for moderation notifications, e.g. why
	// an event was deleted.
	Reason string `json:"reason,omitempty"`

	// Metadata is an opaque passthrough bag; the client never inspects it.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Action, when set by a presentation surface, takes priority over
	// every other click-through target. Never serialized.
	Action func() `json:"-"`
}

// IsEphemeral reports whether the notification is known only from the
// live push buffer.
func (n Notification) IsEphemeral() bool {
	return strings.HasPrefix(n.ID, LocalIDPrefix)
}

// EffectiveTime returns the ordering timestamp: a missing timestamp
// sorts as "now", making the record effectively newest.
func (n Notification) EffectiveTime(now time.Time) time.Time {
	if n.Timestamp.IsZero() {
		return now
	}
	return n.Timestamp
}
