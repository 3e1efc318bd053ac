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

// ParticipationHandler implements joining and leaving events.  Both
// operations run inside one transaction covering the participation row,
// the event's player counter and the user's joined counter, so the
// counters can never drift from the rows they summarize.
type ParticipationHandler struct {
	Events       *repository.EventRepo
	Participants *repository.ParticipantRepo
	Users        *repository.UserRepo
	Notifier     service.Notifier
}

// NewParticipationHandler wires the join/leave endpoints.
func NewParticipationHandler(
	events *repository.EventRepo,
	participants *repository.ParticipantRepo,
	users *repository.UserRepo,
	notifier service.Notifier,
) *ParticipationHandler {
	return &ParticipationHandler{
		Events:       events,
		Participants: participants,
		Users:        users,
		Notifier:     notifier,
	}
}

// Join adds the caller to an event.  The capacity check is the
// conditional UPDATE in IncrementPlayersTx, not a read-then-write, so
// concurrent joins on the last slot cannot both succeed.
func (h *ParticipationHandler) Join(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	eventID, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid event id")
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

	ev, err := h.Events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}
	if ev.Status == model.StatusCancelled {
		return fail(c, http.StatusConflict, codeConflict, "event has been cancelled")
	}
	if ev.HostUserID == userID {
		// The host occupies a slot from creation; there is nothing to join.
		return fail(c, http.StatusConflict, codeAlreadyJoined, "host is already part of the event")
	}

	joined, err := h.Participants.ExistsTx(ctx, tx, eventID, userID)
	if err != nil {
		return failInternal(c)
	}
	if joined {
		return fail(c, http.StatusConflict, codeAlreadyJoined, "already joined this event")
	}

	if err := h.Events.IncrementPlayersTx(ctx, tx, eventID); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			return fail(c, http.StatusConflict, codeCapacityExceeded, "event is full")
		}
		return failInternal(c)
	}
	if err := h.Participants.CreateTx(ctx, tx, eventID, userID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, codeAlreadyJoined, "already joined this event")
		}
		return failInternal(c)
	}
	if err := h.Users.IncrementJoinedTx(ctx, tx, userID); err != nil {
		return failInternal(c)
	}
	if err := tx.Commit(); err != nil {
		return failInternal(c)
	}
	committed = true

	updated, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}

	h.notifyHost(c, updated, userID, model.NotifyEventJoin, "New participant",
		"%s joined your event %s")

	return c.JSON(http.StatusOK, echo.Map{
		"message": "joined event",
		"event":   toEventResponse(updated),
	})
}

// Leave removes the caller from an event.  The host can never leave;
// cancelling is the only way out for them.
func (h *ParticipationHandler) Leave(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "authentication required")
	}
	eventID, ok := pathID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, codeValidationFailed, "invalid event id")
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

	ev, err := h.Events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}
	if ev.HostUserID == userID {
		return fail(c, http.StatusConflict, codeHostCannotLeave, "host cannot leave their own event; cancel it instead")
	}

	if err := h.Participants.DeleteTx(ctx, tx, eventID, userID); err != nil {
		if errors.Is(err, repository.ErrNotParticipating) {
			return fail(c, http.StatusConflict, codeNotParticipating, "not participating in this event")
		}
		return failInternal(c)
	}
	if err := h.Events.DecrementPlayersTx(ctx, tx, eventID); err != nil {
		return failInternal(c)
	}
	if err := h.Users.DecrementJoinedTx(ctx, tx, userID); err != nil {
		return failInternal(c)
	}
	if err := tx.Commit(); err != nil {
		return failInternal(c)
	}
	committed = true

	updated, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		return notFoundOrInternal(c, err, "event not found")
	}

	h.notifyHost(c, updated, userID, model.NotifyEventLeave, "Participant left",
		"%s left your event %s")

	return c.JSON(http.StatusOK, echo.Map{
		"message": "left event",
		"event":   toEventResponse(updated),
	})
}

// notifyHost queues a single notification to the event host after the
// join/leave transaction committed.  msgFormat takes the actor name and
// the event name.
func (h *ParticipationHandler) notifyHost(c echo.Context, ev *model.Event, actorID uint64, typ, title, msgFormat string) {
	ctx := c.Request().Context()
	actor, err := h.Users.GetByID(ctx, actorID)
	if err != nil {
		return
	}
	link := eventLink(ev.ID)
	h.Notifier.Notify(ctx, queue.NotificationEvent{
		UserID:  ev.HostUserID,
		Type:    typ,
		Title:   title,
		Message: fmt.Sprintf(msgFormat, actor.Name, ev.Name),
		Link:    &link,
	})
}
