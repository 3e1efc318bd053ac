package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopon-app/hopon-backend/internal/model"
)

func TestRatingCreateTxDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	eventID := uint64(7)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ratings`).
		WithArgs(uint64(2), uint64(9), eventID, 4, nil).
		WillReturnError(errors.New("Error 1062: Duplicate entry '2-9-7' for key 'uniq_rater_rated_event'"))
	mock.ExpectRollback()

	repo := NewRatingRepo(db)
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	rt := &model.Rating{RaterID: 2, RatedID: 9, EventID: &eventID, Rating: 4}
	err = repo.CreateTx(context.Background(), tx, rt)
	assert.ErrorIs(t, err, ErrDuplicateRating)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
