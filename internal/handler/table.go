package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/ledger"
	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/repository"
)

// TableHandler serves table CRUD and the allocation endpoints. Every
// mutation goes through the ledger so the event counters move with it.
type TableHandler struct {
	Events      *repository.EventRepo
	Tables      *repository.TableRepo
	Allocations *repository.AllocationRepo
	Ledger      *ledger.Ledger
}

func NewTableHandler(events *repository.EventRepo, tables *repository.TableRepo,
	allocations *repository.AllocationRepo, l *ledger.Ledger) *TableHandler {
	if events == nil || tables == nil || allocations == nil || l == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Events: events, Tables: tables, Allocations: allocations, Ledger: l}
}

type tableReq struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
}

type allocateReq struct {
	GuestIDs []uint64 `json:"guest_ids"`
}

type tableResp struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Capacity      uint32 `json:"capacity"`
	OccupiedSeats uint32 `json:"occupied_seats"`
}

func toTableResp(t model.GuestTable, occupied uint32) tableResp {
	return tableResp{ID: t.ID, Name: t.Name, Capacity: t.Capacity, OccupiedSeats: occupied}
}

// Create handles POST /v1/events/:id/tables.
func (h *TableHandler) Create(c echo.Context) error {
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
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Capacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and capacity required"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	t, err := h.Ledger.CreateTable(ctx, eventID, req.Name, req.Capacity)
	if err != nil {
		return writeTableError(c, err)
	}
	return c.JSON(http.StatusCreated, toTableResp(t, 0))
}

// List handles GET /v1/events/:id/tables, returning each table with its
// current occupancy.
func (h *TableHandler) List(c echo.Context) error {
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
	tables, err := h.Tables.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tables failed"})
	}
	items := make([]tableResp, 0, len(tables))
	for _, to := range tables {
		items = append(items, toTableResp(to.Table, to.OccupiedSeats))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Update handles PATCH /v1/events/:id/tables/:tableId. Shrinking a
// table below its occupied seats is rejected.
func (h *TableHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	tableID, ok := pathID(c, "tableId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	cur, err := h.Tables.GetByID(ctx, eventID, tableID)
	if err != nil {
		return writeTableError(c, err)
	}
	var req tableReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := cur.Name
	if strings.TrimSpace(req.Name) != "" {
		name = strings.TrimSpace(req.Name)
	}
	capacity := cur.Capacity
	if req.Capacity != 0 {
		capacity = req.Capacity
	}
	t, err := h.Ledger.UpdateTable(ctx, eventID, tableID, name, capacity)
	if err != nil {
		return writeTableError(c, err)
	}
	occupied, err := h.Allocations.OccupiedSeats(ctx, tableID)
	if err != nil {
		return writeTableError(c, err)
	}
	return c.JSON(http.StatusOK, toTableResp(t, occupied))
}

// Delete handles DELETE /v1/events/:id/tables/:tableId. Only empty
// tables can be removed.
func (h *TableHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	tableID, ok := pathID(c, "tableId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	if err := h.Ledger.DeleteTable(ctx, eventID, tableID); err != nil {
		return writeTableError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Allocate handles POST /v1/events/:id/tables/:tableId/allocate. The
// whole batch is seated or nothing is; each invitation takes its full
// head-count in seats.
func (h *TableHandler) Allocate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	tableID, ok := pathID(c, "tableId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	var req allocateReq
	if err := c.Bind(&req); err != nil || len(req.GuestIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_ids required"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	assigned, err := h.Ledger.Allocate(ctx, eventID, tableID, req.GuestIDs)
	if err != nil {
		return writeTableError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "assigned": assigned})
}

// Deallocate handles DELETE /v1/events/:id/tables/:tableId/allocate/:invitationId.
func (h *TableHandler) Deallocate(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	tableID, ok := pathID(c, "tableId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	invitationID, ok := pathID(c, "invitationId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invitation id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	freed, err := h.Ledger.Deallocate(ctx, eventID, tableID, invitationID)
	if err != nil {
		return writeTableError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "freed": freed})
}

// writeTableError maps ledger and repository errors for table routes.
// The 500 on capacity overflow is part of the allocation endpoint's
// contract; front-ends key on the exact message.
func writeTableError(c echo.Context, err error) error {
	var capErr *ledger.TableCapacityError
	switch {
	case errors.As(err, &capErr):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Capacité de la table dépassée !"})
	case errors.Is(err, ledger.ErrTableNotEmpty):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table still has allocations"})
	case errors.Is(err, repository.ErrDuplicateTableName):
		return c.JSON(http.StatusConflict, echo.Map{"error": "table name already used"})
	case errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, repository.ErrInvitationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
