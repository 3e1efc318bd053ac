package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/queue"
	"github.com/hopon-app/hopon-backend/internal/repository"
	"github.com/hopon-app/hopon-backend/internal/service"
)

// FollowHandler implements the follow graph endpoints.
type FollowHandler struct {
	Follows  *repository.FollowRepo
	Users    *repository.UserRepo
	Notifier service.Notifier
}

// NewFollowHandler wires the follow endpoints.
func NewFollowHandler(follows *repository.FollowRepo, users *repository.UserRepo, notifier service.Notifier) *FollowHandler {
	return &FollowHandler{Follows: follows, Users: users, Notifier: notifier}
}

// Follow makes the caller follow the user in the path.  The followed
// user gets a notification after the edge is stored.
func (h *FollowHandler) Follow(c echo.Context) error {
	followerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	followedID, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}
	if followedID == followerID {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "cannot follow yourself")
	}

	ctx := c.Request().Context()
	follower, err := h.Users.GetByID(ctx, followerID)
	if err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}
	if _, err := h.Users.GetByID(ctx, followedID); err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}

	if err := h.Follows.Create(ctx, followerID, followedID); err != nil {
		if err == repository.ErrAlreadyFollowing {
			return fail(c, http.StatusConflict, codeConflict, "already following this user")
		}
		return failInternal(c)
	}

	h.Notifier.Notify(ctx, queue.NotificationEvent{
		UserID:  followedID,
		Type:    model.NotifyFollow,
		Title:   "New follower",
		Message: fmt.Sprintf("%s started following you", follower.Name),
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "now following"})
}

// Unfollow removes the caller's follow edge to the user in the path.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	followerID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	followedID, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}

	if err := h.Follows.Delete(c.Request().Context(), followerID, followedID); err != nil {
		if err == repository.ErrNotFollowing {
			return fail(c, http.StatusConflict, codeConflict, "not following this user")
		}
		return failInternal(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "unfollowed"})
}

// ListFollows returns the follower and following ID sets of a user.
func (h *FollowHandler) ListFollows(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid user id")
	}
	ctx := c.Request().Context()
	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return notFoundOrInternal(c, err, "user not found")
	}

	followers, err := h.Follows.FollowerIDs(ctx, id)
	if err != nil {
		return failInternal(c)
	}
	following, err := h.Follows.FollowingIDs(ctx, id)
	if err != nil {
		return failInternal(c)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"followers": followers,
		"following": following,
	})
}
