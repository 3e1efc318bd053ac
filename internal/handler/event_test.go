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
	"github.com/hopon-app/hopon-backend/internal/service"
)

func newEventHandler(t *testing.T) (*EventHandler, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := repository.NewEventRepo(db)
	notifier := &recordingNotifier{}
	searcher := service.NewEventSearcher(events, service.SearchConfig{
		DefaultRadiusKm: 10,
		MaxRadiusKm:     50,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	})
	h := NewEventHandler(
		events,
		repository.NewParticipantRepo(db),
		repository.NewUserRepo(db),
		repository.NewFollowRepo(db),
		searcher,
		notifier,
	)
	return h, mock, notifier
}

func TestCreateEventValidation(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	e := echo.New()
	body := `{"name":"x","sport":"","location":"","max_players":1,"skill_level":"Pro"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, codeValidationFailed, resp["code"])
	details := resp["details"].(map[string]any)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "sport")
	assert.Contains(t, details, "location")
	assert.Contains(t, details, "max_players")
	assert.Contains(t, details, "skill_level")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventPastDateRejected(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	e := echo.New()
	body := `{"name":"Morning Run","sport":"Running","location":"City Park","max_players":10,"event_date":"2020-01-01T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeBody(t, rec)["details"].(map[string]any)
	assert.Contains(t, details, "event_date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRejectsUnknownStatus(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events?status=Deleted", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPassesFiltersThrough(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	mock.ExpectQuery(`SELECT .* FROM events\s+WHERE sport = \? AND status = \?`).
		WithArgs("Tennis", model.StatusUpcoming).
		WillReturnRows(testEventRow(1, 9, 2, 10, model.StatusUpcoming))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events?sport=Tennis", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["total_pages"])
	events := body["events"].([]any)
	require.Len(t, events, 1)
	first := events[0].(map[string]any)
	assert.Equal(t, "Evening Match", first["name"])
	assert.Equal(t, float64(8), first["spots_left"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventParticipantsSingleQuery(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(testEventRow(1, 99, 3, 10, model.StatusUpcoming))
	mock.ExpectQuery(`SELECT u\..* FROM event_participants p JOIN users u ON u\.id = p\.user_id`).
		WithArgs(uint64(1)).
		WillReturnRows(testUserRow(2, "Alex").AddRow(
			3, "sam@example.com", "Sam", "$2a$10$hash", nil, nil, nil,
			nil, nil, nil, 0, 0, 0, 0, time.Now().UTC(), nil,
		))

	c, rec := participationContext(http.MethodGet, "/v1/events/1", 0, "1")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	participants := decodeBody(t, rec)["participants"].([]any)
	require.Len(t, participants, 2)
	first := participants[0].(map[string]any)
	assert.Equal(t, "Alex", first["name"])
	// Private fields never leak through the participant listing.
	assert.NotContains(t, first, "email")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEventParticipantQueryFailure(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(testEventRow(1, 99, 3, 10, model.StatusUpcoming))
	mock.ExpectQuery(`SELECT u\..* FROM event_participants p JOIN users u ON u\.id = p\.user_id`).
		WithArgs(uint64(1)).
		WillReturnError(errors.New("connection reset"))

	c, rec := participationContext(http.MethodGet, "/v1/events/1", 0, "1")
	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, codeInternal, decodeBody(t, rec)["code"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByNonHost(t *testing.T) {
	h, mock, notifier := newEventHandler(t)

	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(testEventRow(1, 99, 2, 10, model.StatusUpcoming))

	c, rec := participationContext(http.MethodDelete, "/v1/events/1", 2, "1")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, codeForbidden, decodeBody(t, rec)["code"])
	assert.Empty(t, notifier.all())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByHost(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(testEventRow(1, 2, 2, 10, model.StatusUpcoming))
	mock.ExpectExec(`UPDATE events SET status = \?, updated_at = UTC_TIMESTAMP\(\) WHERE id = \?`).
		WithArgs(model.StatusCancelled, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, event_id, user_id, joined_at FROM event_participants`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "joined_at"}))

	c, rec := participationContext(http.MethodDelete, "/v1/events/1", 2, "1")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMaxPlayersBelowCurrent(t *testing.T) {
	h, mock, _ := newEventHandler(t)

	mock.ExpectQuery(`SELECT .* FROM events WHERE id = \?`).
		WithArgs(uint64(1)).
		WillReturnRows(testEventRow(1, 2, 6, 10, model.StatusUpcoming))

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/events/1", strings.NewReader(`{"max_players": 4}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(2))
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeBody(t, rec)["details"].(map[string]any)
	assert.Contains(t, details, "max_players")
	assert.NoError(t, mock.ExpectationsWereMet())
}
