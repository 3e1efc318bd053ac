package model

import "time"

// Follow records that one user follows another.  The pair
// (FollowerID, FollowedID) is unique and self-follows are rejected.
// Follower lists drive the event-created notification fan-out.
type Follow struct {
	ID         uint64    // follows.id
	FollowerID uint64    // follows.follower_id
	FollowedID uint64    // follows.followed_id
	CreatedAt  time.Time // follows.created_at
}
