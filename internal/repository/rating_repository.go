package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/hopon-app/hopon-backend/internal/model"
)

// ErrDuplicateRating is returned when a rater already rated this user
// for this event.  The unique (rater_id, rated_id, event_id) index is
// the authority; ExistsForEventTx is only the friendly early check.
var ErrDuplicateRating = errors.New("rating already exists for this rater, user and event")

// RatingRepo provides data access to the ratings table.  Ratings are
// insert-only: there is no update or delete path, which keeps the
// aggregate counters on users trivially consistent.
type RatingRepo struct {
	db *sql.DB
}

// NewRatingRepo returns a RatingRepo bound to the given database.
func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// DB exposes the underlying handle for callers that open transactions
// spanning the rating insert and the user counter update.
func (r *RatingRepo) DB() *sql.DB { return r.db }

// ExistsForEventTx reports whether the rater has already rated this
// user within the given event scope.  Ratings without an event are not
// deduplicated, so callers skip this check when eventID is nil.
func (r *RatingRepo) ExistsForEventTx(ctx context.Context, tx *sql.Tx, raterID, ratedID, eventID uint64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM ratings WHERE rater_id = ? AND rated_id = ? AND event_id = ? LIMIT 1`,
		raterID, ratedID, eventID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a rating within the provided transaction and
// populates the generated ID and creation timestamp.  When two
// concurrent submissions race past ExistsForEventTx, the second insert
// fails with MySQL error 1062 which is surfaced as ErrDuplicateRating
// so the caller can roll back cleanly.
func (r *RatingRepo) CreateTx(ctx context.Context, tx *sql.Tx, rt *model.Rating) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO ratings (rater_id, rated_id, event_id, rating, comment) VALUES (?, ?, ?, ?, ?)`,
		rt.RaterID, rt.RatedID, rt.EventID, rt.Rating, rt.Comment)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrDuplicateRating
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = uint64(id)
	return tx.QueryRowContext(ctx,
		`SELECT created_at FROM ratings WHERE id = ?`, rt.ID).Scan(&rt.CreatedAt)
}

// RatingWithRater pairs a rating with the display fields of the user
// who gave it, for profile pages.
type RatingWithRater struct {
	model.Rating
	RaterName   string
	RaterAvatar *string
}

// ListByRated returns the most recent ratings received by a user,
// newest first, capped at limit.
func (r *RatingRepo) ListByRated(ctx context.Context, ratedID uint64, limit int) ([]RatingWithRater, error) {
	const q = `SELECT r.id, r.rater_id, r.rated_id, r.event_id, r.rating, r.comment, r.created_at,
			u.name, u.avatar_url
		FROM ratings r
		JOIN users u ON u.id = r.rater_id
		WHERE r.rated_id = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, ratedID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RatingWithRater, 0, limit)
	for rows.Next() {
		var rr RatingWithRater
		if err := rows.Scan(
			&rr.ID, &rr.RaterID, &rr.RatedID, &rr.EventID, &rr.Rating.Rating,
			&rr.Comment, &rr.CreatedAt, &rr.RaterName, &rr.RaterAvatar,
		); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
