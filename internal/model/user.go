package model

import "time"

// User holds a member's profile together with the derived aggregate
// counters.  RatingSum and RatingCount are mutated transactionally
// alongside each Rating insert; the average is always computed from
// them and never stored.
type User struct {
	ID           uint64     // users.id
	Email        string     // users.email
	Name         string     // users.name
	PasswordHash string     // users.password_hash
	AvatarURL    *string    // users.avatar_url (nullable)
	Bio          *string    // users.bio (nullable)
	Location     *string    // users.location (nullable)
	Latitude     *float64   // users.latitude (nullable)
	Longitude    *float64   // users.longitude (nullable)
	Phone        *string    // users.phone (nullable)
	EventsHosted int        // users.events_hosted
	EventsJoined int        // users.events_joined
	RatingSum    int        // users.rating_sum
	RatingCount  int        // users.rating_count
	CreatedAt    time.Time  // users.created_at
	LastLogin    *time.Time // users.last_login (nullable)
}

// AverageRating returns the derived average rating, or nil when the
// user has not been rated yet.
func (u *User) AverageRating() *float64 {
	if u.RatingCount == 0 {
		return nil
	}
	avg := float64(u.RatingSum) / float64(u.RatingCount)
	// round to two decimals for display
	avg = float64(int(avg*100+0.5)) / 100
	return &avg
}
