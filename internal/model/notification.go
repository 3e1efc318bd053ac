package model

import "time"

// Notification types emitted by the backend.  The queue consumer
// persists them; delivery is best effort.
const (
	NotifyEventCreated   = "event_created"
	NotifyEventUpdated   = "event_updated"
	NotifyEventCancelled = "event_cancelled"
	NotifyEventJoin      = "event_join"
	NotifyEventLeave     = "event_leave"
	NotifyFollow         = "follow"
	NotifyRatingReceived = "rating_received"
)

// Notification is a best-effort message shown to a user after a state
// change elsewhere in the system.
type Notification struct {
	ID        uint64    // notifications.id
	UserID    uint64    // notifications.user_id
	Type      string    // notifications.type
	Title     string    // notifications.title
	Message   string    // notifications.message
	Link      *string   // notifications.link (nullable)
	Read      bool      // notifications.read
	CreatedAt time.Time // notifications.created_at
}
