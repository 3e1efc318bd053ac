package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/repository"
)

// UserHandler implements profile viewing and editing.
type UserHandler struct {
	Users  *repository.UserRepo
	Events *repository.EventRepo
	Sports *repository.SportRepo
}

// NewUserHandler wires the user endpoints.
func NewUserHandler(users *repository.UserRepo, events *repository.EventRepo, sports *repository.SportRepo) *UserHandler {
	return &UserHandler{Users: users, Events: events, Sports: sports}
}

// Get returns a user's public profile.  When the caller requests their
// own profile the private fields (email, phone, coordinates) are
// included as well.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}
	callerID, _ := getUserID(c)

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}

	resp := toUserResponse(u, callerID == u.ID)
	if sports, err := h.Sports.ListForUser(ctx, u.ID); err == nil {
		resp.Sports = toSportResponses(sports)
	}
	return c.JSON(http.StatusOK, resp)
}

type updateProfileRequest struct {
	Name      *string  `json:"name"`
	Bio       *string  `json:"bio"`
	Location  *string  `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Phone     *string  `json:"phone"`
	SportIDs  []uint64 `json:"sport_ids"`
}

// Update edits the caller's own profile.  When sport_ids is present the
// user's sport set is replaced wholesale; omitting the field leaves the
// current set alone.
func (h *UserHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}
	if id != userID {
		return fail(c, http.StatusForbidden, codeForbidden, "can only edit your own profile")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid JSON body")
	}

	details := map[string]string{}
	if req.Name != nil {
		*req.Name = strings.TrimSpace(*req.Name)
		if l := len(*req.Name); l < 2 || l > 100 {
			details["name"] = "name must be 2-100 characters"
		}
	}
	if req.Bio != nil && len(*req.Bio) > 500 {
		details["bio"] = "bio must be at most 500 characters"
	}
	if req.Location != nil && len(*req.Location) > 200 {
		details["location"] = "location must be at most 200 characters"
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		details["latitude"] = "latitude must be between -90 and 90"
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		details["longitude"] = "longitude must be between -180 and 180"
	}
	if req.Phone != nil && len(*req.Phone) > 30 {
		details["phone"] = "phone must be at most 30 characters"
	}
	if len(details) > 0 {
		return failValidation(c, details)
	}

	ctx := c.Request().Context()
	fields := repository.UpdatableUserFields{
		Name:      req.Name,
		Bio:       req.Bio,
		Location:  req.Location,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Phone:     req.Phone,
	}
	if err := h.Users.UpdateProfile(ctx, userID, fields); err != nil {
		return failInternal(c)
	}
	if req.SportIDs != nil {
		if err := h.Sports.ReplaceForUser(ctx, userID, req.SportIDs); err != nil {
			return failInternal(c)
		}
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}
	resp := toUserResponse(u, true)
	if sports, err := h.Sports.ListForUser(ctx, u.ID); err == nil {
		resp.Sports = toSportResponses(sports)
	}
	return c.JSON(http.StatusOK, resp)
}

// ListEvents returns the events a user hosts and the events they have
// joined, as two separate lists.
func (h *UserHandler) ListEvents(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}

	hosted, err := h.Events.ListByHost(ctx, id)
	if err != nil {
		return failInternal(c)
	}
	joined, err := h.Events.ListJoinedByUser(ctx, id)
	if err != nil {
		return failInternal(c)
	}

	hostedResp := make([]eventResponse, 0, len(hosted))
	for i := range hosted {
		hostedResp = append(hostedResp, toEventResponse(&hosted[i]))
	}
	joinedResp := make([]eventResponse, 0, len(joined))
	for i := range joined {
		joinedResp = append(joinedResp, toEventResponse(&joined[i]))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"hosted": hostedResp,
		"joined": joinedResp,
	})
}
