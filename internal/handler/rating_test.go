package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/repository"
)

func newRatingHandler(t *testing.T) (*RatingHandler, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	notifier := &recordingNotifier{}
	h := NewRatingHandler(
		repository.NewRatingRepo(db),
		repository.NewUserRepo(db),
		notifier,
	)
	return h, mock, notifier
}

func ratingContext(body string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/ratings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	return c, rec
}

func TestCreateRatingOutOfRange(t *testing.T) {
	h, mock, _ := newRatingHandler(t)

	c, rec := ratingContext(`{"rated_id": 9, "rating": 6}`, 2)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeValidationFailed, decodeBody(t, rec)["code"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRatingSelf(t *testing.T) {
	h, mock, _ := newRatingHandler(t)

	c, rec := ratingContext(`{"rated_id": 2, "rating": 4}`, 2)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRatingDuplicateForEvent(t *testing.T) {
	h, mock, notifier := newRatingHandler(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(2)).
		WillReturnRows(testUserRow(2, "Alex"))
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(testUserRow(9, "Sam"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM ratings WHERE rater_id = \? AND rated_id = \? AND event_id = \?`).
		WithArgs(uint64(2), uint64(9), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := ratingContext(`{"rated_id": 9, "event_id": 7, "rating": 4}`, 2)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeDuplicateRating, decodeBody(t, rec)["code"])
	assert.Empty(t, notifier.all())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRatingDuplicateRace(t *testing.T) {
	h, mock, notifier := newRatingHandler(t)

	// The pre-check sees no rating, then a concurrent submission wins
	// the insert and the unique index fires.
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(2)).
		WillReturnRows(testUserRow(2, "Alex"))
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(testUserRow(9, "Sam"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM ratings WHERE rater_id = \? AND rated_id = \? AND event_id = \?`).
		WithArgs(uint64(2), uint64(9), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(`INSERT INTO ratings`).
		WithArgs(uint64(2), uint64(9), uint64(7), 4, nil).
		WillReturnError(errors.New("Error 1062: Duplicate entry '2-9-7' for key 'uniq_rater_rated_event'"))
	mock.ExpectRollback()

	c, rec := ratingContext(`{"rated_id": 9, "event_id": 7, "rating": 4}`, 2)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeDuplicateRating, decodeBody(t, rec)["code"])
	assert.Empty(t, notifier.all())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRatingUpdatesAggregates(t *testing.T) {
	h, mock, notifier := newRatingHandler(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(2)).
		WillReturnRows(testUserRow(2, "Alex"))
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(testUserRow(9, "Sam"))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM ratings WHERE rater_id = \? AND rated_id = \? AND event_id = \?`).
		WithArgs(uint64(2), uint64(9), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectExec(`INSERT INTO ratings`).
		WithArgs(uint64(2), uint64(9), uint64(7), 4, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT created_at FROM ratings WHERE id = \?`).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectExec(`UPDATE users SET rating_sum = rating_sum \+ \?, rating_count = rating_count \+ 1`).
		WithArgs(4, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := ratingContext(`{"rated_id": 9, "event_id": 7, "rating": 4}`, 2)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(4), body["rating"])

	sent := notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, uint64(9), sent[0].UserID)
	assert.Equal(t, model.NotifyRatingReceived, sent[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUserAverage(t *testing.T) {
	h, mock, _ := newRatingHandler(t)

	now := time.Now().UTC()
	userRow := sqlmock.NewRows(testUserCols).AddRow(
		9, "sam@example.com", "Sam", "$2a$10$hash", nil, nil, nil,
		nil, nil, nil, 0, 0, 12, 3, now, nil,
	)
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \?`).
		WithArgs(uint64(9)).
		WillReturnRows(userRow)
	ratings := sqlmock.NewRows([]string{
		"id", "rater_id", "rated_id", "event_id", "rating", "comment", "created_at",
		"name", "avatar_url",
	}).
		AddRow(3, 4, 9, nil, 4, nil, now, "Casey", nil).
		AddRow(2, 3, 9, nil, 3, nil, now, "Robin", nil).
		AddRow(1, 2, 9, nil, 5, "great game", now, "Alex", nil)
	mock.ExpectQuery(`SELECT r\.id, r\.rater_id.*FROM ratings r`).
		WithArgs(uint64(9), maxRatingsPerUser).
		WillReturnRows(ratings)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/9/ratings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9")
	require.NoError(t, h.ListForUser(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	// rating_sum 12 over 3 ratings.
	assert.Equal(t, float64(4), body["average_rating"])
	assert.Equal(t, float64(3), body["rating_count"])
	assert.Len(t, body["ratings"], 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}
