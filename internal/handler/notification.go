package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hopon-app/hopon-backend/internal/model"
	"github.com/hopon-app/hopon-backend/internal/repository"
)

// NotificationHandler exposes the caller's notification feed.  Rows are
// written by the queue consumer; this surface only reads and flips the
// read flag.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

// NewNotificationHandler wires the notification endpoints.
func NewNotificationHandler(repo *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: repo}
}

const (
	defaultNotificationPageSize = 20
	maxNotificationPageSize     = 100
)

// List returns one page of the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(c, "per_page", defaultNotificationPageSize)
	if perPage < 1 {
		perPage = defaultNotificationPageSize
	}
	if perPage > maxNotificationPageSize {
		perPage = maxNotificationPageSize
	}

	list, total, err := h.Notifications.ListByUser(c.Request().Context(), userID, page, perPage)
	if err != nil {
		return failInternal(c)
	}

	items := make([]echo.Map, 0, len(list))
	for i := range list {
		items = append(items, notificationToResponse(&list[i]))
	}
	totalPages := (total + int64(perPage) - 1) / int64(perPage)

	return c.JSON(http.StatusOK, echo.Map{
		"notifications": items,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
		"total_pages":   totalPages,
	})
}

// MarkRead flips the read flag on one of the caller's notifications.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	id, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid notification id")
	}

	err = h.Notifications.MarkRead(c.Request().Context(), id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(c, http.StatusNotFound, codeNotFound, "notification not found")
	}
	if errors.Is(err, repository.ErrForbidden) {
		return fail(c, http.StatusForbidden, codeForbidden, "notification belongs to another user")
	}
	if err != nil {
		return failInternal(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}

// MarkAllRead flips the read flag on every unread notification of the
// caller.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	if err := h.Notifications.MarkAllRead(c.Request().Context(), userID); err != nil {
		return failInternal(c)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "all marked read"})
}

func notificationToResponse(n *model.Notification) echo.Map {
	return echo.Map{
		"id":         n.ID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"link":       n.Link,
		"read":       n.Read,
		"created_at": n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
