package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/repository"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64. JWT numeric claims arrive as
// float64; string subjects occur with some token issuers.
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

// pathID parses a numeric path parameter, rejecting zero.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// dbTimeout bounds the duration of handler-level database work.
func dbTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// ownedEvent loads an event and verifies the caller owns it, writing
// the error response itself when the check fails. The second return
// value tells the caller whether to continue.
func ownedEvent(c echo.Context, events *repository.EventRepo, eventID, userID uint64) (uint64, bool) {
	ctx, cancel := dbTimeout(c)
	defer cancel()
	ev, err := events.GetByIDForOwner(ctx, eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEventNotFound):
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return 0, false
	}
	return ev.ID, true
}
