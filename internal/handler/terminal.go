package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/repository"
)

// TerminalHandler serves terminal CRUD for organizers. Terminals do not
// touch any counter, so these handlers talk to the repository directly.
type TerminalHandler struct {
	Events    *repository.EventRepo
	Terminals *repository.TerminalRepo
}

func NewTerminalHandler(events *repository.EventRepo, terminals *repository.TerminalRepo) *TerminalHandler {
	if events == nil || terminals == nil {
		panic("nil dependency passed to NewTerminalHandler")
	}
	return &TerminalHandler{Events: events, Terminals: terminals}
}

type terminalReq struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

type terminalResp struct {
	ID       uint64 `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func toTerminalResp(t model.Terminal) terminalResp {
	return terminalResp{ID: t.ID, Code: t.Code, Name: t.Name, IsActive: t.IsActive}
}

// Create handles POST /v1/events/:id/terminals. New terminals start
// active unless the body says otherwise.
func (h *TerminalHandler) Create(c echo.Context) error {
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
	var req terminalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and name required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	t := model.Terminal{EventID: eventID, Code: req.Code, Name: req.Name, IsActive: active}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	if err := h.Terminals.Create(ctx, &t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create terminal failed"})
	}
	return c.JSON(http.StatusCreated, toTerminalResp(t))
}

// List handles GET /v1/events/:id/terminals.
func (h *TerminalHandler) List(c echo.Context) error {
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
	terminals, err := h.Terminals.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list terminals failed"})
	}
	items := make([]terminalResp, 0, len(terminals))
	for _, t := range terminals {
		items = append(items, toTerminalResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PATCH /v1/events/:id/terminals/:terminalId. Used to
// rename a terminal or flip its active flag.
func (h *TerminalHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	terminalID, ok := pathID(c, "terminalId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid terminal id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	cur, err := h.Terminals.GetByID(ctx, eventID, terminalID)
	if err != nil {
		return writeTerminalError(c, err)
	}
	var req terminalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := cur.Name
	if strings.TrimSpace(req.Name) != "" {
		name = strings.TrimSpace(req.Name)
	}
	active := cur.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}
	if err := h.Terminals.Update(ctx, eventID, terminalID, name, active); err != nil {
		return writeTerminalError(c, err)
	}
	cur.Name = name
	cur.IsActive = active
	return c.JSON(http.StatusOK, toTerminalResp(cur))
}

// Delete handles DELETE /v1/events/:id/terminals/:terminalId (soft).
func (h *TerminalHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	terminalID, ok := pathID(c, "terminalId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid terminal id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	if err := h.Terminals.SoftDelete(ctx, eventID, terminalID); err != nil {
		return writeTerminalError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func writeTerminalError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrTerminalNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "terminal not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
