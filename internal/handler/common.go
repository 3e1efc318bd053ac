// Package handler implements the HTTP endpoints of the API.  Handlers
// own transaction boundaries: every mutating operation wraps its
// repository calls in a single BeginTx/commit unit and rolls back on
// any failure, so no error can leave counters half-updated.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/repository"
)

// Stable error codes surfaced to clients alongside the human-readable
// message.  Codes never change once published; messages may.
const (
	codeNotFound         = "not_found"
	codeValidationFailed = "validation_failed"
	codeCapacityExceeded = "capacity_exceeded"
	codeAlreadyJoined    = "already_joined"
	codeNotParticipating = "not_participating"
	codeHostCannotLeave  = "host_cannot_leave"
	codeDuplicateRating  = "duplicate_rating"
	codeForbidden        = "forbidden"
	codeConflict         = "integrity_conflict"
	codeUnauthorized     = "unauthorized"
	codeInternal         = "internal_error"
)

// fail writes the structured error envelope.
func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}

// failValidation writes a validation error with field-level detail.
func failValidation(c echo.Context, details map[string]string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error":   "validation failed",
		"code":    codeValidationFailed,
		"details": details,
	})
}

// failInternal hides storage/infra detail behind a generic message.
func failInternal(c echo.Context) error {
	return fail(c, http.StatusInternalServerError, codeInternal, "internal server error")
}

// getUserID extracts the user_id placed in context by the JWT
// middleware and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the numeric :id path parameter.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// eventResponse is the JSON shape of an event across every endpoint.
type eventResponse struct {
	ID              uint64   `json:"id"`
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	Sport           string   `json:"sport"`
	Location        string   `json:"location"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	MaxPlayers      int      `json:"max_players"`
	CurrentPlayers  int      `json:"current_players"`
	SpotsLeft       int      `json:"spots_left"`
	IsFull          bool     `json:"is_full"`
	SkillLevel      *string  `json:"skill_level"`
	Status          string   `json:"status"`
	EventDate       *string  `json:"event_date"`
	DurationMinutes *int     `json:"duration_minutes"`
	HostUserID      uint64   `json:"host_user_id"`
	Notes           *string  `json:"notes"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`

	DistanceKm   *float64       `json:"distance_km,omitempty"`
	Participants []userResponse `json:"participants,omitempty"`
}

// toEventResponse converts a model.Event for serialization.
func toEventResponse(e *model.Event) eventResponse {
	resp := eventResponse{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		Sport:           e.Sport,
		Location:        e.Location,
		Latitude:        e.Latitude,
		Longitude:       e.Longitude,
		MaxPlayers:      e.MaxPlayers,
		CurrentPlayers:  e.CurrentPlayers,
		SpotsLeft:       e.SpotsLeft(),
		IsFull:          e.IsFull(),
		SkillLevel:      e.SkillLevel,
		Status:          e.Status,
		DurationMinutes: e.DurationMinutes,
		HostUserID:      e.HostUserID,
		Notes:           e.Notes,
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.EventDate != nil {
		iso := e.EventDate.UTC().Format(time.RFC3339)
		resp.EventDate = &iso
	}
	return resp
}

// sportResponse is the JSON shape of a sports catalog entry.
type sportResponse struct {
	ID   uint64  `json:"id"`
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

// toSportResponses converts catalog entries for serialization.
func toSportResponses(sports []model.Sport) []sportResponse {
	out := make([]sportResponse, 0, len(sports))
	for _, s := range sports {
		out = append(out, sportResponse{ID: s.ID, Name: s.Name, Icon: s.Icon})
	}
	return out
}

// userResponse is the JSON shape of a user profile.  Private fields
// are only filled when the profile belongs to the caller.
type userResponse struct {
	ID            uint64          `json:"id"`
	Name          string          `json:"name"`
	AvatarURL     *string         `json:"avatar_url"`
	Bio           *string         `json:"bio"`
	Location      *string         `json:"location"`
	Sports        []sportResponse `json:"sports,omitempty"`
	EventsHosted  int             `json:"events_hosted"`
	EventsJoined  int             `json:"events_joined"`
	AverageRating *float64        `json:"average_rating"`
	RatingCount   int             `json:"rating_count"`
	CreatedAt     string          `json:"created_at"`

	Email     *string  `json:"email,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// toUserResponse converts a model.User; includePrivate exposes the
// contact and location fields reserved for the profile owner.
func toUserResponse(u *model.User, includePrivate bool) userResponse {
	resp := userResponse{
		ID:            u.ID,
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		Bio:           u.Bio,
		Location:      u.Location,
		EventsHosted:  u.EventsHosted,
		EventsJoined:  u.EventsJoined,
		AverageRating: u.AverageRating(),
		RatingCount:   u.RatingCount,
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includePrivate {
		email := u.Email
		resp.Email = &email
		resp.Phone = u.Phone
		resp.Latitude = u.Latitude
		resp.Longitude = u.Longitude
	}
	return resp
}

// notFoundOrInternal maps the two storage outcomes every lookup shares.
func notFoundOrInternal(c echo.Context, err error, msg string) error {
	if errors.Is(err, repository.ErrEventNotFound) || errors.Is(err, repository.ErrUserNotFound) {
		return fail(c, http.StatusNotFound, codeNotFound, msg)
	}
	return failInternal(c)
}
