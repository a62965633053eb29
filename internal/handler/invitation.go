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

// InvitationHandler serves invitation CRUD. Create and update are
// ledger operations because they move allocations, counters and the
// signed QR token together.
type InvitationHandler struct {
	Events      *repository.EventRepo
	Invitations *repository.InvitationRepo
	Ledger      *ledger.Ledger
}

func NewInvitationHandler(events *repository.EventRepo, invitations *repository.InvitationRepo, l *ledger.Ledger) *InvitationHandler {
	if events == nil || invitations == nil || l == nil {
		panic("nil dependency passed to NewInvitationHandler")
	}
	return &InvitationHandler{Events: events, Invitations: invitations, Ledger: l}
}

type invitationReq struct {
	Label       string                   `json:"label"`
	PeopleCount uint32                   `json:"people_count"`
	Email       *string                  `json:"email"`
	Phone       *string                  `json:"phone"`
	Allocations []ledger.AllocationInput `json:"allocations"`
}

type invitationResp struct {
	ID           uint64                  `json:"id"`
	Label        string                  `json:"label"`
	PeopleCount  uint32                  `json:"people_count"`
	ScannedCount uint32                  `json:"scanned_count"`
	Email        *string                 `json:"email,omitempty"`
	Phone        *string                 `json:"phone,omitempty"`
	QRToken      string                  `json:"qr_token,omitempty"`
	Seats        []repository.SeatDetail `json:"seats"`
}

func toInvitationResp(inv model.Invitation, seats []repository.SeatDetail) invitationResp {
	resp := invitationResp{
		ID:           inv.ID,
		Label:        inv.Label,
		PeopleCount:  inv.PeopleCount,
		ScannedCount: inv.ScannedCount,
		Email:        inv.Email,
		Phone:        inv.Phone,
		Seats:        seats,
	}
	if resp.Seats == nil {
		resp.Seats = []repository.SeatDetail{}
	}
	if inv.QRToken != nil {
		resp.QRToken = *inv.QRToken
	}
	return resp
}

// Create handles POST /v1/events/:id/invitations. The invitation, its
// allocations and the first QR token are created in one transaction.
func (h *InvitationHandler) Create(c echo.Context) error {
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
	var req invitationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" || req.PeopleCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label and people_count required"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	inv, err := h.Ledger.CreateInvitation(ctx, eventID, ledger.InvitationInput{
		Label:       req.Label,
		PeopleCount: req.PeopleCount,
		Email:       req.Email,
		Phone:       req.Phone,
		Allocations: req.Allocations,
	})
	if err != nil {
		return writeInvitationError(c, err)
	}
	detail, err := h.Ledger.GetInvitation(ctx, eventID, inv.ID)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(http.StatusCreated, toInvitationResp(detail.Invitation, detail.Seats))
}

// List handles GET /v1/events/:id/invitations.
func (h *InvitationHandler) List(c echo.Context) error {
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
	invs, err := h.Invitations.ListByEvent(ctx, eventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list invitations failed"})
	}
	items := make([]invitationResp, 0, len(invs))
	for _, inv := range invs {
		items = append(items, toInvitationResp(inv, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/events/:id/invitations/:invitationId with seat
// details resolved.
func (h *InvitationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
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
	detail, err := h.Ledger.GetInvitation(ctx, eventID, invitationID)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(http.StatusOK, toInvitationResp(detail.Invitation, detail.Seats))
}

// Update handles PATCH /v1/events/:id/invitations/:invitationId. The
// allocation set in the body fully replaces the current one and the
// response carries the refreshed QR token.
func (h *InvitationHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	invitationID, ok := pathID(c, "invitationId")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invitation id"})
	}
	if _, ok := ownedEvent(c, h.Events, eventID, userID); !ok {
		return nil
	}
	var req invitationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" || req.PeopleCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label and people_count required"})
	}
	ctx, cancel := dbTimeout(c)
	defer cancel()
	inv, err := h.Ledger.UpdateInvitation(ctx, eventID, invitationID, ledger.InvitationInput{
		Label:       req.Label,
		PeopleCount: req.PeopleCount,
		Email:       req.Email,
		Phone:       req.Phone,
		Allocations: req.Allocations,
	})
	if err != nil {
		return writeInvitationError(c, err)
	}
	detail, err := h.Ledger.GetInvitation(ctx, eventID, inv.ID)
	if err != nil {
		return writeInvitationError(c, err)
	}
	return c.JSON(http.StatusOK, toInvitationResp(detail.Invitation, detail.Seats))
}

// Delete handles DELETE /v1/events/:id/invitations/:invitationId.
func (h *InvitationHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
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
	if err := h.Ledger.DeleteInvitation(ctx, eventID, invitationID); err != nil {
		return writeInvitationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func writeInvitationError(c echo.Context, err error) error {
	var (
		capErr   *ledger.CapacityReachedError
		tblErr   *ledger.TableCapacityError
		seatsErr *ledger.InvitationSeatsError
	)
	switch {
	case errors.As(err, &capErr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Capacité atteinte",
			"invitation": echo.Map{
				"id":            capErr.Invitation.ID,
				"label":         capErr.Invitation.Label,
				"people_count":  capErr.Invitation.PeopleCount,
				"scanned_count": capErr.Invitation.ScannedCount,
			},
		})
	case errors.As(err, &tblErr):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Capacité de la table dépassée !"})
	case errors.As(err, &seatsErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": seatsErr.Error()})
	case errors.Is(err, repository.ErrInvitationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	case errors.Is(err, repository.ErrTableNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
