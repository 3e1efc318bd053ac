package repository

import (
	"context"
	"database/sql"

	"github.com/hopon-app/hopon-backend/internal/model"
)

// NotificationRepo provides data access to the notifications table.
// Rows are created by the queue consumer only; the HTTP surface reads
// and flips the read flag.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts a notification row.  Delivery is best effort; callers
// in the consumer log and drop failures rather than retrying forever.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, link) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message, n.Link)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns one page of the user's notifications, newest
// first, along with the total row count for pagination.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, page, perPage int) ([]model.Notification, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := perPage
	offset := (page - 1) * perPage
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, link, `+"`read`"+`, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead flips the read flag for one notification, enforcing
// ownership.  Returns sql.ErrNoRows semantics via ErrForbidden /
// not-found distinction at the caller.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID uint64) error {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id FROM notifications WHERE id = ?`, notificationID).Scan(&ownerID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE notifications SET `+"`read`"+` = TRUE WHERE id = ?`, notificationID)
	return err
}

// MarkAllRead flips the read flag on every unread notification of the
// user.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET `+"`read`"+` = TRUE WHERE user_id = ? AND `+"`read`"+` = FALSE`,
		userID)
	return err
}
