package model

import "time"

// Rating is a 1-5 score given by one user to another, optionally
// scoped to an event.  A rater may rate a given user at most once per
// event; ratings without an event are not deduplicated.  Self-rating
// is rejected before this struct is ever persisted.
type Rating struct {
	ID        uint64    // ratings.id
	RaterID   uint64    // ratings.rater_id
	RatedID   uint64    // ratings.rated_id
	EventID   *uint64   // ratings.event_id (nullable)
	Rating    int       // ratings.rating (1-5)
	Comment   *string   // ratings.comment (nullable)
	CreatedAt time.Time // ratings.created_at
}
