package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantCreateTxDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO event_participants`).
		WithArgs(uint64(1), uint64(2)).
		WillReturnError(errors.New("Error 1062: Duplicate entry '1-2' for key 'uniq_event_user'"))
	mock.ExpectRollback()

	repo := NewParticipantRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.CreateTx(context.Background(), tx, 1, 2)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantDeleteTxMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM event_participants WHERE event_id = \? AND user_id = \?`).
		WithArgs(uint64(1), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	repo := NewParticipantRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.DeleteTx(context.Background(), tx, 1, 2)
	assert.ErrorIs(t, err, ErrNotParticipating)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantExistsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM event_participants`).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM event_participants`).
		WithArgs(uint64(1), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectCommit()

	repo := NewParticipantRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	joined, err := repo.ExistsTx(context.Background(), tx, 1, 2)
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = repo.ExistsTx(context.Background(), tx, 1, 3)
	require.NoError(t, err)
	assert.False(t, joined)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
