package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopon-app/hopon-backend/internal/model"
)

var eventCols = []string{
	"id", "name", "description", "sport", "location", "latitude", "longitude",
	"max_players", "current_players", "skill_level", "status", "event_date",
	"duration_minutes", "host_user_id", "notes", "created_at", "updated_at",
}

func eventRow(id uint64, name string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(eventCols).AddRow(
		id, name, nil, "Football", "City Park", 40.0, -3.0,
		10, 1, nil, model.StatusUpcoming, now.Add(24*time.Hour),
		nil, 1, nil, now, now,
	)
}

func TestIncrementPlayersTxClaimsSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events\s+SET current_players = current_players \+ 1.*WHERE id = \? AND current_players < max_players`).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEventRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.IncrementPlayersTx(context.Background(), tx, 7)
	assert.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementPlayersTxFullEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	// Zero rows affected means the WHERE guard rejected the update.
	mock.ExpectExec(`UPDATE events\s+SET current_players = current_players \+ 1`).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewEventRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.IncrementPlayersTx(context.Background(), tx, 7)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementPlayersTxFloorsAtOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events\s+SET current_players = GREATEST\(1, current_players - 1\)`).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEventRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	assert.NoError(t, repo.DecrementPlayersTx(context.Background(), tx, 3))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSetsCancelledStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE events SET status = \?, updated_at = UTC_TIMESTAMP\(\) WHERE id = \?`).
		WithArgs(model.StatusCancelled, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewEventRepo(db)
	assert.NoError(t, repo.Cancel(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMissingEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE events SET status = \?`).
		WithArgs(model.StatusCancelled, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewEventRepo(db)
	err = repo.Cancel(context.Background(), 99)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows(eventCols))

	repo := NewEventRepo(db)
	_, err = repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterDefaultsToUpcoming(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := eventRow(1, "Morning Run")
	mock.ExpectQuery(`SELECT .* FROM events\s+WHERE status = \?\s+ORDER BY event_date ASC, id ASC`).
		WithArgs(model.StatusUpcoming).
		WillReturnRows(rows)

	repo := NewEventRepo(db)
	got, err := repo.Filter(context.Background(), EventFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Morning Run", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilterCombinesConditions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM events\s+WHERE sport = \? AND skill_level = \? AND status = \? AND event_date >= \?`).
		WithArgs("Tennis", model.SkillAdvanced, model.StatusCompleted, from).
		WillReturnRows(sqlmock.NewRows(eventCols))

	repo := NewEventRepo(db)
	got, err := repo.Filter(context.Background(), EventFilter{
		Sport:      "Tennis",
		SkillLevel: model.SkillAdvanced,
		Status:     model.StatusCompleted,
		DateFrom:   &from,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
