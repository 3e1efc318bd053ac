package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hopon-app/hopon-backend/internal/model"
)

// ParticipantRepo provides data access to the event_participants table.
// A row exists only while a user (other than the host) is joined to an
// event; leaving deletes the row, and a later re-join inserts a fresh
// one.  All mutating methods are Tx variants because participation
// changes must commit atomically with the event's player counter.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

// ExistsTx reports whether the user already has a participation row for
// the event.  Runs inside the caller's transaction so join sees a
// consistent view alongside the capacity update.
func (r *ParticipantRepo) ExistsTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM event_participants WHERE event_id = ? AND user_id = ? LIMIT 1`,
		eventID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a participation row within the provided transaction.
// The table carries a unique (event_id, user_id) constraint; when two
// concurrent joins race past ExistsTx, the second insert fails with
// MySQL error 1062 which is surfaced as ErrConflict so the caller can
// roll back cleanly.
func (r *ParticipantRepo) CreateTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO event_participants (event_id, user_id) VALUES (?, ?)`,
		eventID, userID)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// DeleteTx removes the user's participation row within the provided
// transaction.  It returns ErrNotParticipating when no row existed.
func (r *ParticipantRepo) DeleteTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = ? AND user_id = ?`,
		eventID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotParticipating
	}
	return nil
}

// ListUsersByEvent returns the profiles of an event's participants in
// join order with a single join, so the event detail page costs one
// query regardless of headcount.
func (r *ParticipantRepo) ListUsersByEvent(ctx context.Context, eventID uint64) ([]model.User, error) {
	const q = `SELECT u.id, u.email, u.name, u.password_hash, u.avatar_url, u.bio, u.location,
			u.latitude, u.longitude, u.phone, u.events_hosted, u.events_joined,
			u.rating_sum, u.rating_count, u.created_at, u.last_login
		FROM event_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.event_id = ?
		ORDER BY p.joined_at ASC, p.id ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// ListByEvent returns all participation rows for an event ordered by
// join time.  The host is not included; their slot is implicit.
func (r *ParticipantRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.EventParticipant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, user_id, joined_at FROM event_participants
		 WHERE event_id = ? ORDER BY joined_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.EventParticipant, 0)
	for rows.Next() {
		var p model.EventParticipant
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
