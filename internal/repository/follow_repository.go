package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// ErrAlreadyFollowing is returned when a follow already exists for the
// (follower, followed) pair.
var ErrAlreadyFollowing = errors.New("already following this user")

// ErrNotFollowing is returned when an unfollow finds no follow row.
var ErrNotFollowing = errors.New("not following this user")

// FollowRepo provides data access to the follows table.  Forward
// (who do I follow) and reverse (who follows me) lookups are separate
// queries over the same explicit join table.
type FollowRepo struct {
	db *sql.DB
}

// NewFollowRepo returns a FollowRepo bound to the given database.
func NewFollowRepo(db *sql.DB) *FollowRepo { return &FollowRepo{db: db} }

// Create inserts a follow edge.  The unique (follower_id, followed_id)
// index turns a concurrent duplicate into ErrAlreadyFollowing.
func (r *FollowRepo) Create(ctx context.Context, followerID, followedID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (follower_id, followed_id) VALUES (?, ?)`,
		followerID, followedID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrAlreadyFollowing
		}
		return err
	}
	return nil
}

// Delete removes a follow edge, returning ErrNotFollowing when none
// existed.
func (r *FollowRepo) Delete(ctx context.Context, followerID, followedID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFollowing
	}
	return nil
}

// Exists reports whether follower already follows followed.
func (r *FollowRepo) Exists(ctx context.Context, followerID, followedID uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ? LIMIT 1`,
		followerID, followedID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FollowerIDs returns the IDs of users following the given user.  Used
// for the event-created notification fan-out.
func (r *FollowRepo) FollowerIDs(ctx context.Context, followedID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT follower_id FROM follows WHERE followed_id = ? ORDER BY created_at ASC, id ASC`,
		followedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// FollowingIDs returns the IDs of users the given user follows.
func (r *FollowRepo) FollowingIDs(ctx context.Context, followerID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT followed_id FROM follows WHERE follower_id = ? ORDER BY created_at ASC, id ASC`,
		followerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
