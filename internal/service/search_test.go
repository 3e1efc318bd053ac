package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/repository"
)

var searchEventCols = []string{
	"id", "name", "description", "sport", "location", "latitude", "longitude",
	"max_players", "current_players", "skill_level", "status", "event_date",
	"duration_minutes", "host_user_id", "notes", "created_at", "updated_at",
}

func addEventRow(rows *sqlmock.Rows, id uint64, name string, lat, lon any) {
	now := time.Now().UTC()
	rows.AddRow(
		id, name, nil, "Football", "City Park", lat, lon,
		10, 1, nil, model.StatusUpcoming, now.Add(24*time.Hour),
		nil, 1, nil, now, now,
	)
}

func newSearcher(t *testing.T) (*EventSearcher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	searcher := NewEventSearcher(repository.NewEventRepo(db), SearchConfig{
		DefaultRadiusKm: 10,
		MaxRadiusKm:     50,
		DefaultPageSize: 20,
		MaxPageSize:     100,
	})
	return searcher, mock
}

func ptr(v float64) *float64 { return &v }

func TestSearchDistanceStage(t *testing.T) {
	searcher, mock := newSearcher(t)

	// Caller at (40, -3).  One degree of latitude is ~111.2 km, so the
	// rows below sit at roughly 5 km, 15 km and 2 km.
	rows := sqlmock.NewRows(searchEventCols)
	addEventRow(rows, 1, "five-km", 40.045, -3.0)
	addEventRow(rows, 2, "fifteen-km", 40.135, -3.0)
	addEventRow(rows, 3, "no-coords", nil, nil)
	addEventRow(rows, 4, "two-km", 40.018, -3.0)
	mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(rows)

	res, err := searcher.Search(context.Background(), SearchParams{
		Latitude:  ptr(40.0),
		Longitude: ptr(-3.0),
	})
	require.NoError(t, err)

	// Default 10 km radius drops the 15 km event; the coordinate-less
	// event is dropped too; nearest comes first.
	require.Len(t, res.Hits, 2)
	assert.Equal(t, "two-km", res.Hits[0].Event.Name)
	assert.Equal(t, "five-km", res.Hits[1].Event.Name)
	require.NotNil(t, res.Hits[0].DistanceKm)
	assert.InDelta(t, 2.0, *res.Hits[0].DistanceKm, 0.05)
	assert.InDelta(t, 5.0, *res.Hits[1].DistanceKm, 0.05)
	assert.Equal(t, 2, res.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchRadiusCap(t *testing.T) {
	searcher, mock := newSearcher(t)

	rows := sqlmock.NewRows(searchEventCols)
	addEventRow(rows, 1, "forty-km", 40.36, -3.0)
	addEventRow(rows, 2, "eighty-km", 40.72, -3.0)
	mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(rows)

	// 500 km request clamps to the 50 km maximum.
	res, err := searcher.Search(context.Background(), SearchParams{
		Latitude:  ptr(40.0),
		Longitude: ptr(-3.0),
		RadiusKm:  ptr(500.0),
	})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "forty-km", res.Hits[0].Event.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithoutLocationKeepsRepositoryOrder(t *testing.T) {
	searcher, mock := newSearcher(t)

	rows := sqlmock.NewRows(searchEventCols)
	addEventRow(rows, 1, "first", nil, nil)
	addEventRow(rows, 2, "second", 40.0, -3.0)
	addEventRow(rows, 3, "third", 41.0, -3.0)
	mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(rows)

	res, err := searcher.Search(context.Background(), SearchParams{})
	require.NoError(t, err)

	require.Len(t, res.Hits, 3)
	assert.Equal(t, "first", res.Hits[0].Event.Name)
	assert.Equal(t, "third", res.Hits[2].Event.Name)
	for _, h := range res.Hits {
		assert.Nil(t, h.DistanceKm)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPagination(t *testing.T) {
	searcher, mock := newSearcher(t)

	rows := sqlmock.NewRows(searchEventCols)
	for i := 1; i <= 25; i++ {
		addEventRow(rows, uint64(i), fmt.Sprintf("event-%d", i), nil, nil)
	}
	mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(rows)

	res, err := searcher.Search(context.Background(), SearchParams{Page: 3, PerPage: 10})
	require.NoError(t, err)

	assert.Equal(t, 25, res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 3, res.Page)
	require.Len(t, res.Hits, 5)
	assert.Equal(t, "event-21", res.Hits[0].Event.Name)
	assert.Equal(t, "event-25", res.Hits[4].Event.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPageBeyondEnd(t *testing.T) {
	searcher, mock := newSearcher(t)

	rows := sqlmock.NewRows(searchEventCols)
	addEventRow(rows, 1, "only", nil, nil)
	mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(rows)

	res, err := searcher.Search(context.Background(), SearchParams{Page: 9, PerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchPerPageClamped(t *testing.T) {
	searcher, mock := newSearcher(t)

	rows := sqlmock.NewRows(searchEventCols)
	addEventRow(rows, 1, "only", nil, nil)
	mock.ExpectQuery(`SELECT .* FROM events`).WillReturnRows(rows)

	res, err := searcher.Search(context.Background(), SearchParams{PerPage: 100000})
	require.NoError(t, err)
	assert.Equal(t, 100, res.PerPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
