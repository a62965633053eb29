package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/ledger"
	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/repository"
)

// EventHandler serves the organizer-facing event CRUD and the stats
// endpoint. Ownership is checked on every event-scoped route; staff
// accounts never reach these handlers (role middleware).
type EventHandler struct {
	Events *repository.EventRepo
	Ledger *ledger.Ledger
}

func NewEventHandler(events *repository.EventRepo, l *ledger.Ledger) *EventHandler {
	if events == nil || l == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Ledger: l}
}

type eventReq struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	StartsAt    *time.Time `json:"starts_at"`
	DurationMin uint32     `json:"duration_min"`
}

type eventResp struct {
	ID          uint64     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	StartsAt    time.Time  `json:"starts_at"`
	DurationMin uint32     `json:"duration_min"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func toEventResp(ev model.Event) eventResp {
	return eventResp{
		ID:          ev.ID,
		Code:        ev.Code,
		Name:        ev.Name,
		StartsAt:    ev.StartsAt,
		DurationMin: ev.DurationMin,
		Status:      ev.Status,
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
		DeletedAt:   ev.DeletedAt,
	}
}

// randomEventCode returns a short lowercase hex code for terminals to
// key on. Collisions surface as a duplicate-key error on insert.
func randomEventCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Create handles POST /v1/events. A code may be supplied; when absent
// one is generated. The stats row is created in the same transaction as
// the event.
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.StartsAt == nil || req.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, starts_at and duration_min required"})
	}
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		code, err = randomEventCode()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
		}
	}

	ev := model.Event{
		OwnerID:     userID,
		Code:        code,
		Name:        req.Name,
		StartsAt:    req.StartsAt.UTC(),
		DurationMin: req.DurationMin,
		Status:      model.EventUpcoming,
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	if err := h.Events.Create(ctx, &ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, toEventResp(ev))
}

// List handles GET /v1/events and returns the caller's events.
func (h *EventHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	events, err := h.Events.ListByOwner(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	items := make([]eventResp, 0, len(events))
	for _, ev := range events {
		items = append(items, toEventResp(ev))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	ev, err := h.Events.GetByIDForOwner(ctx, eventID, userID)
	if err != nil {
		return writeEventError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(ev))
}

// Update handles PATCH /v1/events/:id. Omitted fields keep their
// current values; status is never editable here.
func (h *EventHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	ev, err := h.Events.GetByIDForOwner(ctx, eventID, userID)
	if err != nil {
		return writeEventError(c, err)
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := ev.Name
	if strings.TrimSpace(req.Name) != "" {
		name = strings.TrimSpace(req.Name)
	}
	startsAt := ev.StartsAt
	if req.StartsAt != nil {
		startsAt = req.StartsAt.UTC()
	}
	duration := ev.DurationMin
	if req.DurationMin != 0 {
		duration = req.DurationMin
	}
	if err := h.Events.Update(ctx, eventID, name, startsAt, duration); err != nil {
		return writeEventError(c, err)
	}
	ev, err = h.Events.GetByID(ctx, eventID)
	if err != nil {
		return writeEventError(c, err)
	}
	return c.JSON(http.StatusOK, toEventResp(ev))
}

// Cancel handles POST /v1/events/:id/cancel. Cancelling a finished or
// already cancelled event changes nothing and reports it.
func (h *EventHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	changed, err := h.Events.Cancel(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled": changed})
}

// Delete handles DELETE /v1/events/:id. The event is soft-deleted and
// purged by the sweeper after the retention window.
func (h *EventHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	if err := h.Events.SoftDelete(ctx, eventID); err != nil {
		return writeEventError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/events/:id/stats. The counters are recomputed
// from the live rows and upserted before being returned, so this
// endpoint doubles as the reconciliation path for any drift in the
// incremental counters.
func (h *EventHandler) Stats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	stats, err := h.Ledger.RecomputeStats(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats recompute failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

func writeEventError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
