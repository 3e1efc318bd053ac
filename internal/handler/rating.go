package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/queue"
	"github.com/hopon-app/hopon-backend/internal/repository"
	"github.com/hopon-app/hopon-backend/internal/service"
)

// RatingHandler implements rating submission and listing.  A rating
// insert and the rated user's running sum/count update commit in one
// transaction, so the displayed average is always derivable from the
// stored rows.
type RatingHandler struct {
	Ratings  *repository.RatingRepo
	Users    *repository.UserRepo
	Notifier service.Notifier
}

// NewRatingHandler wires the rating endpoints.
func NewRatingHandler(ratings *repository.RatingRepo, users *repository.UserRepo, notifier service.Notifier) *RatingHandler {
	return &RatingHandler{Ratings: ratings, Users: users, Notifier: notifier}
}

type createRatingRequest struct {
	RatedID uint64  `json:"rated_id"`
	EventID *uint64 `json:"event_id"`
	Rating  int     `json:"rating"`
	Comment *string `json:"comment"`
}

// Create submits a rating from the caller to another user.  Duplicate
// ratings for the same (rater, rated, event) triple are rejected; the
// rated user is notified after commit.
func (h *RatingHandler) Create(c echo.Context) error {
	raterID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}

	var req createRatingRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid JSON body")
	}

	details := map[string]string{}
	if req.RatedID == 0 {
		details["rated_id"] = "rated_id is required"
	}
	if req.Rating < 1 || req.Rating > 5 {
		details["rating"] = "rating must be between 1 and 5"
	}
	if req.Comment != nil && len(*req.Comment) > 500 {
		details["comment"] = "comment must be at most 500 characters"
	}
	if len(details) > 0 {
		return failValidation(c, details)
	}
	if req.RatedID == raterID {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "cannot rate yourself")
	}

	ctx := c.Request().Context()
	rater, err := h.Users.GetByID(ctx, raterID)
	if err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}
	if _, err := h.Users.GetByID(ctx, req.RatedID); err != nil {
		return notFoundOrInternal(c, err, "rated user not found")
	}

	tx, err := h.Ratings.DB().BeginTx(ctx, nil)
	if err != nil {
		return failInternal(c)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if req.EventID != nil {
		dup, err := h.Ratings.ExistsForEventTx(ctx, tx, raterID, req.RatedID, *req.EventID)
		if err != nil {
			return failInternal(c)
		}
		if dup {
			return fail(c, http.StatusConflict, codeDuplicateRating, "already rated this user for this event")
		}
	}

	rt := &model.Rating{
		RaterID: raterID,
		RatedID: req.RatedID,
		EventID: req.EventID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := h.Ratings.CreateTx(ctx, tx, rt); err != nil {
		if errors.Is(err, repository.ErrDuplicateRating) {
			return fail(c, http.StatusConflict, codeDuplicateRating, "already rated this user for this event")
		}
		return failInternal(c)
	}
	if err := h.Users.AddRatingTx(ctx, tx, req.RatedID, req.Rating); err != nil {
		return failInternal(c)
	}
	if err := tx.Commit(); err != nil {
		return failInternal(c)
	}
	committed = true

	h.Notifier.Notify(ctx, queue.NotificationEvent{
		UserID:  req.RatedID,
		Type:    model.NotifyRatingReceived,
		Title:   "New rating received",
		Message: fmt.Sprintf("%s rated you %d/5", rater.Name, req.Rating),
	})

	return c.JSON(http.StatusCreated, ratingToResponse(rt))
}

// maxRatingsPerUser caps the profile rating listing.
const maxRatingsPerUser = 50

// ListForUser returns the most recent ratings received by a user along
// with their current average.
func (h *RatingHandler) ListForUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}
	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}

	list, err := h.Ratings.ListByRated(ctx, id, maxRatingsPerUser)
	if err != nil {
		return failInternal(c)
	}

	ratings := make([]echo.Map, 0, len(list))
	for i := range list {
		r := ratingToResponse(&list[i].Rating)
		r["rater_name"] = list[i].RaterName
		r["rater_avatar_url"] = list[i].RaterAvatar
		ratings = append(ratings, r)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ratings":        ratings,
		"average_rating": u.AverageRating(),
		"rating_count":   u.RatingCount,
	})
}

func ratingToResponse(rt *model.Rating) echo.Map {
	return echo.Map{
		"id":         rt.ID,
		"rater_id":   rt.RaterID,
		"rated_id":   rt.RatedID,
		"event_id":   rt.EventID,
		"rating":     rt.Rating,
		"comment":    rt.Comment,
		"created_at": rt.CreatedAt.UTC(),
	}
}
