package model

import "time"

// Skill levels accepted for events and search filters.  A nil skill
// level on an event means the event is open to any level.
const (
	SkillBeginner     = "Beginner"
	SkillIntermediate = "Intermediate"
	SkillAdvanced     = "Advanced"
	SkillExpert       = "Expert"
)

// Event lifecycle states.  Deleting an event never removes the row;
// the status moves to Cancelled so ratings and participations keep
// valid references.
const (
	StatusUpcoming  = "Upcoming"
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// ValidSkillLevel reports whether s is one of the accepted skill levels.
func ValidSkillLevel(s string) bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the accepted event states.
func ValidStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Event represents a sporting event hosted by a user.  The host
// occupies one capacity slot without an EventParticipant row, so
// CurrentPlayers starts at 1 and never drops below it.
//
// Invariant: 0 < CurrentPlayers <= MaxPlayers.
type Event struct {
	ID              uint64     // events.id
	Name            string     // events.name
	Description     *string    // events.description (nullable)
	Sport           string     // events.sport
	Location        string     // events.location (free text)
	Latitude        *float64   // events.latitude (nullable)
	Longitude       *float64   // events.longitude (nullable)
	MaxPlayers      int        // events.max_players (>= 2)
	CurrentPlayers  int        // events.current_players (host counts as 1)
	SkillLevel      *string    // events.skill_level (nullable)
	Status          string     // events.status
	EventDate       *time.Time // events.event_date (nullable, future at creation)
	DurationMinutes *int       // events.duration_minutes (nullable)
	HostUserID      uint64     // events.host_user_id
	Notes           *string    // events.notes (nullable)
	CreatedAt       time.Time  // events.created_at
	UpdatedAt       time.Time  // events.updated_at
}

// IsFull reports whether the event is at capacity.
func (e *Event) IsFull() bool { return e.CurrentPlayers >= e.MaxPlayers }

// SpotsLeft returns the number of open slots, never negative.
func (e *Event) SpotsLeft() int {
	if left := e.MaxPlayers - e.CurrentPlayers; left > 0 {
		return left
	}
	return 0
}
