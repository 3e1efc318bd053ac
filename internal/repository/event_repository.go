package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hopon-app/hopon-backend/internal/model"
)

// EventRepo provides persistence for events.  Reads go through the
// repository's DB handle; mutations that must commit together with
// other rows (participations, user counters) have Tx variants that
// participate in a caller-owned transaction.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventColumns = `id, name, description, sport, location, latitude, longitude,
	max_players, current_players, skill_level, status, event_date,
	duration_minutes, host_user_id, notes, created_at, updated_at`

// scanEvent reads one events row into a model.Event.  It accepts any
// scanner so it works for both QueryRow and Rows.
func scanEvent(s interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := s.Scan(
		&e.ID, &e.Name, &e.Description, &e.Sport, &e.Location,
		&e.Latitude, &e.Longitude, &e.MaxPlayers, &e.CurrentPlayers,
		&e.SkillLevel, &e.Status, &e.EventDate, &e.DurationMinutes,
		&e.HostUserID, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event and populates the generated ID along with
// DB-default fields on the provided struct.  CurrentPlayers always
// starts at 1 because the host occupies a slot, and Status starts as
// Upcoming.  The insert is a single-row transaction from the caller's
// perspective; host counter updates happen in CreateTx instead.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.CreateTx(ctx, tx, e); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CreateTx inserts a new event within the scope of an existing
// transaction.  The caller must commit or roll back.
func (r *EventRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.Event) error {
	const q = `INSERT INTO events
		(name, description, sport, location, latitude, longitude,
		 max_players, current_players, skill_level, status, event_date,
		 duration_minutes, host_user_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		e.Name, e.Description, e.Sport, e.Location, e.Latitude, e.Longitude,
		e.MaxPlayers, e.SkillLevel, model.StatusUpcoming, e.EventDate,
		e.DurationMinutes, e.HostUserID, e.Notes,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	// Query back the full row to populate defaults and timestamps.
	sel := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	got, err := scanEvent(tx.QueryRowContext(ctx, sel, e.ID))
	if err != nil {
		return err
	}
	*e = *got
	return nil
}

// GetByID retrieves an event by its ID.  It returns ErrEventNotFound
// when no matching row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetByIDTx is GetByID inside a caller-owned transaction.  Used by
// join/leave so the capacity check and the participation insert see a
// consistent row.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	e, err := scanEvent(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	return e, err
}

// UpdatableEventFields carries the host-editable fields of an event.
// Nil pointers leave the current value untouched; the update is built
// dynamically the way the search filter is.
type UpdatableEventFields struct {
	Name            *string
	Description     *string
	Location        *string
	Latitude        *float64
	Longitude       *float64
	MaxPlayers      *int
	SkillLevel      *string
	Status          *string
	EventDate       *time.Time
	DurationMinutes *int
	Notes           *string
}

// Update applies the non-nil fields to the event row and bumps
// updated_at.  It returns ErrEventNotFound when the row is missing.
// The caller is responsible for host-ownership checks.
func (r *EventRepo) Update(ctx context.Context, id uint64, f UpdatableEventFields) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if f.Name != nil {
		add("name", *f.Name)
	}
	if f.Description != nil {
		add("description", *f.Description)
	}
	if f.Location != nil {
		add("location", *f.Location)
	}
	if f.Latitude != nil {
		add("latitude", *f.Latitude)
	}
	if f.Longitude != nil {
		add("longitude", *f.Longitude)
	}
	if f.MaxPlayers != nil {
		add("max_players", *f.MaxPlayers)
	}
	if f.SkillLevel != nil {
		add("skill_level", *f.SkillLevel)
	}
	if f.Status != nil {
		add("status", *f.Status)
	}
	if f.EventDate != nil {
		add("event_date", *f.EventDate)
	}
	if f.DurationMinutes != nil {
		add("duration_minutes", *f.DurationMinutes)
	}
	if f.Notes != nil {
		add("notes", *f.Notes)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = UTC_TIMESTAMP()")
	q := "UPDATE events SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "missing" from "no change": re-check existence.
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

// Cancel soft-deletes an event by moving its status to Cancelled.  The
// row is never removed so historical ratings and participations keep
// valid references.  Returns ErrEventNotFound when the row is missing.
func (r *EventRepo) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE events SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, model.StatusCancelled, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists uint64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		return err
	}
	return nil
}

// IncrementPlayersTx claims one capacity slot for the event.  The
// guard lives inside the UPDATE itself so that concurrent joins on the
// same event serialize on the row and can never push current_players
// past max_players:
//
//	UPDATE events SET current_players = current_players + 1
//	WHERE id = ? AND current_players < max_players
//
// When zero rows are affected the event was already full and
// ErrCapacityExceeded is returned.  Runs inside the caller's
// transaction so it commits together with the participation insert.
func (r *EventRepo) IncrementPlayersTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
	const q = `UPDATE events
		SET current_players = current_players + 1, updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND current_players < max_players`
	res, err := tx.ExecContext(ctx, q, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// DecrementPlayersTx releases one capacity slot, flooring at 1 because
// the host always occupies a slot.
func (r *EventRepo) DecrementPlayersTx(ctx context.Context, tx *sql.Tx, eventID uint64) error {
	const q = `UPDATE events
		SET current_players = GREATEST(1, current_players - 1), updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, eventID)
	return err
}

// ListByHost returns all events hosted by the given user, newest first.
func (r *EventRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE host_user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListJoinedByUser returns the events the user participates in but
// does not host, newest join first.
func (r *EventRepo) ListJoinedByUser(ctx context.Context, userID uint64) ([]model.Event, error) {
	q := `SELECT e.id, e.name, e.description, e.sport, e.location, e.latitude, e.longitude,
			e.max_players, e.current_players, e.skill_level, e.status, e.event_date,
			e.duration_minutes, e.host_user_id, e.notes, e.created_at, e.updated_at
		FROM events e
		JOIN event_participants p ON p.event_id = e.id
		WHERE p.user_id = ? AND e.host_user_id != ?
		ORDER BY p.joined_at DESC, e.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
