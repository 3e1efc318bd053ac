package model

import "time"

// EventParticipant links a user to an event they have joined.  The
// pair (EventID, UserID) is unique: a user can join a given event at
// most once.  The host never has a row here; their slot is implied.
type EventParticipant struct {
	ID       uint64    // event_participants.id
	EventID  uint64    // event_participants.event_id
	UserID   uint64    // event_participants.user_id
	JoinedAt time.Time // event_participants.joined_at
}
