package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hopon-app/hopon-backend/internal/model"
)

// SportRepo provides data access to the sports catalog and the
// user_sports join table.  The user↔sport association is modeled as an
// explicit join table with separate forward and reverse queries; there
// are no implicit bidirectional links.
type SportRepo struct {
	db *sql.DB
}

// NewSportRepo returns a SportRepo bound to the given database.
func NewSportRepo(db *sql.DB) *SportRepo { return &SportRepo{db: db} }

// ListAll returns the full sports catalog ordered by name.
func (r *SportRepo) ListAll(ctx context.Context) ([]model.Sport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, created_at FROM sports ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Sport, 0)
	for rows.Next() {
		var s model.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.Icon, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListForUser returns the sports attached to a user's profile.
func (r *SportRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Sport, error) {
	const q = `SELECT s.id, s.name, s.icon, s.created_at
		FROM sports s
		JOIN user_sports us ON us.sport_id = s.id
		WHERE us.user_id = ?
		ORDER BY s.name ASC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Sport, 0)
	for rows.Next() {
		var s model.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.Icon, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceForUser swaps the user's sport set for the given IDs in one
// transaction.  Unknown sport IDs are silently dropped by the join
// against the catalog.
func (r *SportRepo) ReplaceForUser(ctx context.Context, userID uint64, sportIDs []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_sports WHERE user_id = ?`, userID); err != nil {
		return err
	}
	if len(sportIDs) > 0 {
		query := `INSERT INTO user_sports (user_id, sport_id)
			SELECT ?, id FROM sports WHERE id IN (` + placeholders(len(sportIDs)) + `)`
		args := make([]any, 0, len(sportIDs)+1)
		args = append(args, userID)
		for _, id := range sportIDs {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// placeholders builds a "?, ?, ?" list of n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
