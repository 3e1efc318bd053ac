package repository

import (
	"context"
	"strings"
	"time"

	"github.com/hopon-app/hopon-backend/internal/model"
)

// EventFilter defines the storage-level filters for searching events.
// Distance filtering and pagination are caller concerns: the distance
// cut depends on coordinates the database never sees, and pagination
// has to run after it.
type EventFilter struct {
	Sport      string     // exact match when non-empty
	SkillLevel string     // exact match when non-empty
	Status     string     // exact match; empty means Upcoming
	DateFrom   *time.Time // inclusive lower bound on event_date
	DateTo     *time.Time // inclusive upper bound on event_date
}

// Filter returns all events matching the filter.  When no status is
// given only Upcoming events are returned.  Rows come back ordered by
// event_date then id so the non-distance search path stays
// deterministic instead of leaning on incidental storage order.
func (r *EventRepo) Filter(ctx context.Context, f EventFilter) ([]model.Event, error) {
	where := []string{}
	args := []any{}

	if f.Sport != "" {
		where = append(where, "sport = ?")
		args = append(args, f.Sport)
	}
	if f.SkillLevel != "" {
		where = append(where, "skill_level = ?")
		args = append(args, f.SkillLevel)
	}
	status := f.Status
	if status == "" {
		status = model.StatusUpcoming
	}
	where = append(where, "status = ?")
	args = append(args, status)

	if f.DateFrom != nil {
		where = append(where, "event_date >= ?")
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		where = append(where, "event_date <= ?")
		args = append(args, f.DateTo.UTC())
	}

	q := `SELECT ` + eventColumns + `
		FROM events
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY event_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
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
