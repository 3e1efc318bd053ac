package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/geo"
	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/queue"
	"github.com/hopon-app/hopon-backend/internal/repository"
	"github.com/hopon-app/hopon-backend/internal/service"
)

// EventHandler bundles the dependencies of the event CRUD and search
// endpoints.
type EventHandler struct {
	Events       *repository.EventRepo
	Participants *repository.ParticipantRepo
	Users        *repository.UserRepo
	Follows      *repository.FollowRepo
	Searcher     *service.EventSearcher
	Notifier     service.Notifier
}

// NewEventHandler wires the event endpoints to their collaborators.
func NewEventHandler(
	events *repository.EventRepo,
	participants *repository.ParticipantRepo,
	users *repository.UserRepo,
	follows *repository.FollowRepo,
	searcher *service.EventSearcher,
	notifier service.Notifier,
) *EventHandler {
	return &EventHandler{
		Events:       events,
		Participants: participants,
		Users:        users,
		Follows:      follows,
		Searcher:     searcher,
		Notifier:     notifier,
	}
}

type createEventRequest struct {
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	Sport           string   `json:"sport"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	MaxPlayers      int      `json:"max_players"`
	SkillLevel      *string  `json:"skill_level"`
	EventDate       *string  `json:"event_date"`
	DurationMinutes *int     `json:"duration_minutes"`
	Notes           *string  `json:"notes"`
}

// validate checks all field constraints and returns field-level detail.
func (req *createEventRequest) validate() map[string]string {
	details := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	req.Sport = strings.TrimSpace(req.Sport)
	req.Location = strings.TrimSpace(req.Location)

	if l := len(req.Name); l < 3 || l > 100 {
		details["name"] = "name must be 3-100 characters"
	}
	if l := len(req.Sport); l < 2 || l > 50 {
		details["sport"] = "sport must be 2-50 characters"
	}
	if l := len(req.Location); l < 3 || l > 200 {
		details["location"] = "location must be 3-200 characters"
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		details["latitude"] = "latitude must be between -90 and 90"
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		details["longitude"] = "longitude must be between -180 and 180"
	}
	if req.MaxPlayers < 2 || req.MaxPlayers > 100 {
		details["max_players"] = "max_players must be between 2 and 100"
	}
	if req.SkillLevel != nil && !model.ValidSkillLevel(*req.SkillLevel) {
		details["skill_level"] = "skill_level must be Beginner, Intermediate, Advanced or Expert"
	}
	if req.DurationMinutes != nil && (*req.DurationMinutes < 15 || *req.DurationMinutes > 480) {
		details["duration_minutes"] = "duration_minutes must be between 15 and 480"
	}
	if req.Description != nil && len(*req.Description) > 1000 {
		details["description"] = "description must be at most 1000 characters"
	}
	if req.Notes != nil && len(*req.Notes) > 500 {
		details["notes"] = "notes must be at most 500 characters"
	}
	return details
}

// parseEventDate accepts RFC3339 or a bare "2006-01-02 15:04" form and
// requires the moment to be in the future.
func parseEventDate(raw string, details map[string]string) *time.Time {
	var t time.Time
	var err error
	if t, err = time.Parse(time.RFC3339, raw); err != nil {
		t, err = time.ParseInLocation("2006-01-02 15:04", raw, time.UTC)
	}
	if err != nil {
		details["event_date"] = "event_date must be RFC3339 or 'YYYY-MM-DD HH:MM'"
		return nil
	}
	t = t.UTC()
	if !t.After(time.Now().UTC()) {
		details["event_date"] = "event_date must be in the future"
		return nil
	}
	return &t
}

// Create inserts a new event hosted by the caller.  The event insert
// and the host's events_hosted counter commit in one transaction; the
// follower fan-out happens only after the commit.
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}

	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid JSON body")
	}
	details := req.validate()
	var eventDate *time.Time
	if req.EventDate != nil && *req.EventDate != "" {
		eventDate = parseEventDate(*req.EventDate, details)
	}
	if len(details) > 0 {
		return failValidation(c, details)
	}

	ev := &model.Event{
		Name:            req.Name,
		Description:     req.Description,
		Sport:           req.Sport,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		MaxPlayers:      req.MaxPlayers,
		SkillLevel:      req.SkillLevel,
		EventDate:       eventDate,
		DurationMinutes: req.DurationMinutes,
		HostUserID:      userID,
		Notes:           req.Notes,
	}

	ctx := c.Request().Context()
	tx, err := h.Events.DB().BeginTx(ctx, nil)
	if err != nil {
		return failInternal(c)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Events.CreateTx(ctx, tx, ev); err != nil {
		return failInternal(c)
	}
	if err := h.Users.IncrementHostedTx(ctx, tx, userID); err != nil {
		return failInternal(c)
	}
	if err := tx.Commit(); err != nil {
		return failInternal(c)
	}
	committed = true

	h.fanOutToFollowers(c, userID, ev, model.NotifyEventCreated,
		"New event from someone you follow",
		fmt.Sprintf("%s (%s) at %s", ev.Name, ev.Sport, ev.Location))

	return c.JSON(http.StatusCreated, toEventResponse(ev))
}

// Get returns one event with its participant profiles.  When the
// caller passes latitude/longitude query parameters the distance to
// the event is included.
func (h *EventHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid event id")
	}
	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}

	resp := toEventResponse(ev)

	lat := queryFloat(c, "latitude")
	lon := queryFloat(c, "longitude")
	if km, ok := geo.DistanceKm(lat, lon, ev.Latitude, ev.Longitude); ok {
		d := geo.RoundKm(km)
		resp.DistanceKm = &d
	}

	users, err := h.Participants.ListUsersByEvent(ctx, id)
	if err != nil {
		return failInternal(c)
	}
	resp.Participants = make([]userResponse, 0, len(users))
	for i := range users {
		resp.Participants = append(resp.Participants, toUserResponse(&users[i], false))
	}

	return c.JSON(http.StatusOK, resp)
}

type updateEventRequest struct {
	Name            *string  `json:"name"`
	Description     *string  `json:"description"`
	Location        *string  `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	MaxPlayers      *int     `json:"max_players"`
	SkillLevel      *string  `json:"skill_level"`
	Status          *string  `json:"status"`
	EventDate       *string  `json:"event_date"`
	DurationMinutes *int     `json:"duration_minutes"`
	Notes           *string  `json:"notes"`
}

// Update lets the host edit an event.  MaxPlayers can never drop below
// the current player count.  Participants are notified after the
// change commits.
func (h *EventHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid event id")
	}

	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid JSON body")
	}

	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}
	if ev.HostUserID != userID {
		return fail(c, http.StatusForbidden, codeForbidden, "only the host can update this event")
	}

	details := map[string]string{}
	if req.Name != nil {
		*req.Name = strings.TrimSpace(*req.Name)
		if l := len(*req.Name); l < 3 || l > 100 {
			details["name"] = "name must be 3-100 characters"
		}
	}
	if req.Location != nil {
		*req.Location = strings.TrimSpace(*req.Location)
		if l := len(*req.Location); l < 3 || l > 200 {
			details["location"] = "location must be 3-200 characters"
		}
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		details["latitude"] = "latitude must be between -90 and 90"
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		details["longitude"] = "longitude must be between -180 and 180"
	}
	if req.MaxPlayers != nil {
		if *req.MaxPlayers < 2 || *req.MaxPlayers > 100 {
			details["max_players"] = "max_players must be between 2 and 100"
		} else if *req.MaxPlayers < ev.CurrentPlayers {
			details["max_players"] = "max_players cannot be below the current player count"
		}
	}
	if req.SkillLevel != nil && !model.ValidSkillLevel(*req.SkillLevel) {
		details["skill_level"] = "skill_level must be Beginner, Intermediate, Advanced or Expert"
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		details["status"] = "status must be Upcoming, Ongoing, Completed or Cancelled"
	}
	if req.DurationMinutes != nil && (*req.DurationMinutes < 15 || *req.DurationMinutes > 480) {
		details["duration_minutes"] = "duration_minutes must be between 15 and 480"
	}
	if req.Description != nil && len(*req.Description) > 1000 {
		details["description"] = "description must be at most 1000 characters"
	}
	if req.Notes != nil && len(*req.Notes) > 500 {
		details["notes"] = "notes must be at most 500 characters"
	}
	var eventDate *time.Time
	if req.EventDate != nil && *req.EventDate != "" {
		eventDate = parseEventDate(*req.EventDate, details)
	}
	if len(details) > 0 {
		return failValidation(c, details)
	}

	fields := repository.UpdatableEventFields{
		Name:            req.Name,
		Description:     req.Description,
		Location:        req.Location,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		MaxPlayers:      req.MaxPlayers,
		SkillLevel:      req.SkillLevel,
		Status:          req.Status,
		EventDate:       eventDate,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	}
	if err := h.Events.Update(ctx, id, fields); err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}

	updated, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}

	h.fanOutToParticipants(c, id, userID, updated, model.NotifyEventUpdated,
		"Event updated",
		fmt.Sprintf("%s has been updated by the host", updated.Name))

	return c.JSON(http.StatusOK, toEventResponse(updated))
}

// Cancel soft-deletes an event by setting its status to Cancelled.
// Only the host may cancel; participants are notified after commit.
func (h *EventHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid event id")
	}

	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}
	if ev.HostUserID != userID {
		return fail(c, http.StatusForbidden, codeForbidden, "only the host can cancel this event")
	}
	if ev.Status == model.StatusCancelled {
		return c.JSON(http.StatusOK, echo.Map{"message": "event already cancelled"})
	}

	if err := h.Events.Cancel(ctx, id); err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}

	h.fanOutToParticipants(c, id, userID, ev, model.NotifyEventCancelled,
		"Event cancelled",
		fmt.Sprintf("%s has been cancelled by the host", ev.Name))

	return c.JSON(http.StatusOK, echo.Map{"message": "event cancelled"})
}

// Search runs the event search pipeline: storage filters, optional
// distance cut and nearest-first ordering, then pagination.
func (h *EventHandler) Search(c echo.Context) error {
	params := service.SearchParams{
		Sport:      strings.TrimSpace(c.QueryParam("sport")),
		SkillLevel: strings.TrimSpace(c.QueryParam("skill_level")),
		Status:     strings.TrimSpace(c.QueryParam("status")),
		Latitude:   queryFloat(c, "latitude"),
		Longitude:  queryFloat(c, "longitude"),
		RadiusKm:   queryFloat(c, "radius_km"),
		Page:       queryInt(c, "page", 1),
		PerPage:    queryInt(c, "per_page", 0),
	}

	details := map[string]string{}
	if params.SkillLevel != "" && !model.ValidSkillLevel(params.SkillLevel) {
		details["skill_level"] = "skill_level must be Beginner, Intermediate, Advanced or Expert"
	}
	if params.Status != "" && !model.ValidStatus(params.Status) {
		details["status"] = "status must be Upcoming, Ongoing, Completed or Cancelled"
	}
	if raw := c.QueryParam("date_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			params.DateFrom = &t
		} else {
			details["date_from"] = "date_from must be RFC3339"
		}
	}
	if raw := c.QueryParam("date_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			t = t.UTC()
			params.DateTo = &t
		} else {
			details["date_to"] = "date_to must be RFC3339"
		}
	}
	if params.Latitude != nil && (*params.Latitude < -90 || *params.Latitude > 90) {
		details["latitude"] = "latitude must be between -90 and 90"
	}
	if params.Longitude != nil && (*params.Longitude < -180 || *params.Longitude > 180) {
		details["longitude"] = "longitude must be between -180 and 180"
	}
	if len(details) > 0 {
		return failValidation(c, details)
	}

	res, err := h.Searcher.Search(c.Request().Context(), params)
	if err != nil {
		return failInternal(c)
	}

	events := make([]eventResponse, 0, len(res.Hits))
	for i := range res.Hits {
		er := toEventResponse(&res.Hits[i].Event)
		er.DistanceKm = res.Hits[i].DistanceKm
		events = append(events, er)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"events":      events,
		"total":       res.Total,
		"page":        res.Page,
		"per_page":    res.PerPage,
		"total_pages": res.TotalPages,
	})
}

// fanOutToFollowers queues one notification per follower of the host.
// Best effort after commit; failures are logged inside the notifier.
func (h *EventHandler) fanOutToFollowers(c echo.Context, hostID uint64, ev *model.Event, typ, title, msg string) {
	ctx := c.Request().Context()
	followers, err := h.Follows.FollowerIDs(ctx, hostID)
	if err != nil {
		return
	}
	link := eventLink(ev.ID)
	for _, fid := range followers {
		h.Notifier.Notify(ctx, queue.NotificationEvent{
			UserID:  fid,
			Type:    typ,
			Title:   title,
			Message: msg,
			Link:    &link,
		})
	}
}

// fanOutToParticipants queues one notification per participant, the
// acting user excluded.
func (h *EventHandler) fanOutToParticipants(c echo.Context, eventID, actorID uint64, ev *model.Event, typ, title, msg string) {
	ctx := c.Request().Context()
	parts, err := h.Participants.ListByEvent(ctx, eventID)
	if err != nil {
		return
	}
	link := eventLink(ev.ID)
	for _, p := range parts {
		if p.UserID == actorID {
			continue
		}
		h.Notifier.Notify(ctx, queue.NotificationEvent{
			UserID:  p.UserID,
			Type:    typ,
			Title:   title,
			Message: msg,
			Link:    &link,
		})
	}
}

func eventLink(id uint64) string {
	return "/events/" + strconv.FormatUint(id, 10)
}

// queryFloat parses an optional float query parameter; absent or
// malformed values come back nil.
func queryFloat(c echo.Context, name string) *float64 {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// queryInt parses an optional int query parameter with a fallback.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
