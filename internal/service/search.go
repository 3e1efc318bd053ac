// Package service holds the pieces of business logic that span more
// than one repository: the event search pipeline and the queue
// publisher for notifications.
package service

import (
	"context"
	"sort"
	"time"

	"github.com/hopon-app/hopon-backend/internal/geo"
	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/repository"
)

// SearchParams collects every knob of an event search request after
// HTTP-level parsing.  Latitude and Longitude are both required to
// activate the distance stage; supplying only one behaves as if
// neither were given.
type SearchParams struct {
	Sport      string
	SkillLevel string
	Status     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Latitude   *float64
	Longitude  *float64
	RadiusKm   *float64
	Page       int
	PerPage    int
}

// SearchHit is one event in a search result, with the distance from
// the caller when the distance stage ran.  DistanceKm is rounded to
// two decimals for display; the ordering was decided on the full
// precision value before rounding.
type SearchHit struct {
	Event      model.Event
	DistanceKm *float64
}

// SearchResult is one page of hits plus the pagination envelope.
// Total counts all filtered hits, not just the returned page.
type SearchResult struct {
	Hits       []SearchHit
	Total      int
	Page       int
	PerPage    int
	TotalPages int
}

// SearchConfig carries the configured bounds applied to caller input.
type SearchConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	DefaultPageSize int
	MaxPageSize     int
}

// EventSearcher runs the search pipeline: storage-level filters, then
// the in-memory distance stage, then pagination.  Results are
// deterministic for fixed inputs because the repository orders rows by
// event_date then id and the distance sort is stable.
type EventSearcher struct {
	events *repository.EventRepo
	cfg    SearchConfig
}

// NewEventSearcher constructs an EventSearcher over the given event
// repository.
func NewEventSearcher(events *repository.EventRepo, cfg SearchConfig) *EventSearcher {
	return &EventSearcher{events: events, cfg: cfg}
}

// Search executes the full pipeline and returns one page of results.
func (s *EventSearcher) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	events, err := s.events.Filter(ctx, repository.EventFilter{
		Sport:      p.Sport,
		SkillLevel: p.SkillLevel,
		Status:     p.Status,
		DateFrom:   p.DateFrom,
		DateTo:     p.DateTo,
	})
	if err != nil {
		return nil, err
	}

	hits := s.distanceStage(events, p)

	page := p.Page
	if page < 1 {
		page = 1
	}
	perPage := p.PerPage
	if perPage < 1 {
		perPage = s.cfg.DefaultPageSize
	}
	if perPage > s.cfg.MaxPageSize {
		perPage = s.cfg.MaxPageSize
	}

	total := len(hits)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &SearchResult{
		Hits:       hits[start:end],
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}, nil
}

// distanceStage applies the radius cut and nearest-first ordering when
// the caller supplied a location.  Events without coordinates are
// dropped on that path; without a caller location the stage is a
// no-op and repository order carries through.
func (s *EventSearcher) distanceStage(events []model.Event, p SearchParams) []SearchHit {
	if p.Latitude == nil || p.Longitude == nil {
		hits := make([]SearchHit, 0, len(events))
		for _, e := range events {
			hits = append(hits, SearchHit{Event: e})
		}
		return hits
	}

	radius := s.cfg.DefaultRadiusKm
	if p.RadiusKm != nil && *p.RadiusKm > 0 {
		radius = *p.RadiusKm
	}
	if radius > s.cfg.MaxRadiusKm {
		radius = s.cfg.MaxRadiusKm
	}

	type scored struct {
		hit SearchHit
		km  float64 // full precision, used only for ordering
	}
	kept := make([]scored, 0, len(events))
	for _, e := range events {
		km, ok := geo.DistanceKm(p.Latitude, p.Longitude, e.Latitude, e.Longitude)
		if !ok || km > radius {
			continue
		}
		display := geo.RoundKm(km)
		kept = append(kept, scored{
			hit: SearchHit{Event: e, DistanceKm: &display},
			km:  km,
		})
	}
	// Stable sort keeps repository order for equidistant events.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].km < kept[j].km })

	hits := make([]SearchHit, 0, len(kept))
	for _, sc := range kept {
		hits = append(hits, sc.hit)
	}
	return hits
}
