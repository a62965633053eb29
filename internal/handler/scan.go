package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/ledger"
	"github.com/guestgate/event-checkin/internal/qrtoken"
	"github.com/guestgate/event-checkin/internal/queue"
	"github.com/guestgate/event-checkin/internal/repository"
	queue_publisher "github.com/guestgate/event-checkin/internal/service"
)

// ScanHandler serves the public terminal endpoints. It holds only the
// ledger: every counter mutation goes through it, and this handler's
// job is translating ledger outcomes into the HTTP contract the
// terminals expect.
type ScanHandler struct {
	Ledger *ledger.Ledger
}

func NewScanHandler(l *ledger.Ledger) *ScanHandler {
	if l == nil {
		panic("nil ledger passed to NewScanHandler")
	}
	return &ScanHandler{Ledger: l}
}

type scanReq struct {
	QR           string `json:"qr"`
	InvitationID uint64 `json:"invitation_id"`
	TerminalCode string `json:"terminal_code"`
}

// Scan handles POST /v1/events/:code/scan. A guest presents a QR; on
// success one person is admitted and the terminal sees the label,
// counts and assigned table. Capacity refusal is 400 with the
// invitation snapshot so the operator can decide at the door.
func (h *ScanHandler) Scan(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.QR) == "" || strings.TrimSpace(req.TerminalCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr and terminal_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Ledger.Scan(ctx, c.Param("code"), strings.TrimSpace(req.TerminalCode), strings.TrimSpace(req.QR))
	if err != nil {
		return writeScanError(c, err)
	}
	publishScan(res, "SCAN")
	return c.JSON(http.StatusOK, res)
}

// Reverse handles POST /v1/events/:code/scan/reverse. The invitation is
// identified either by the QR or, when the guest already left, by its
// numeric ID.
func (h *ScanHandler) Reverse(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.TerminalCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "terminal_code required"})
	}
	qr := strings.TrimSpace(req.QR)
	if qr == "" && req.InvitationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr or invitation_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		res *ledger.ScanResult
		err error
	)
	if qr != "" {
		res, err = h.Ledger.ReverseToken(ctx, c.Param("code"), strings.TrimSpace(req.TerminalCode), qr)
	} else {
		res, err = h.Ledger.Reverse(ctx, c.Param("code"), strings.TrimSpace(req.TerminalCode), req.InvitationID)
	}
	if err != nil {
		return writeScanError(c, err)
	}
	publishScan(res, "REVERSE")
	return c.JSON(http.StatusOK, res)
}

// writeScanError maps ledger and codec errors to the terminal-facing
// contract. A forged or malformed QR is 422; a structurally valid token
// pointing at a missing invitation is 404, never a codec error.
func writeScanError(c echo.Context, err error) error {
	var capErr *ledger.CapacityReachedError
	switch {
	case errors.Is(err, qrtoken.ErrInvalidFormat), errors.Is(err, qrtoken.ErrInvalidSignature):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "QR invalide"})
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
	case errors.Is(err, ledger.ErrNothingToReverse):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Aucun scan à annuler"})
	case errors.Is(err, ledger.ErrTerminalDisabled):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "terminal désactivé"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrInvitationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invitation not found"})
	case errors.Is(err, repository.ErrTerminalNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "terminal not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan failed"})
	}
}

// publishScan sends the audit event after the transaction committed.
// Publishing runs detached from the request with its own timeout;
// broker failures never affect the terminal's response.
func publishScan(res *ledger.ScanResult, direction string) {
	ev := queue.ScanRecordedEvent{
		EventID:      res.EventID,
		EventCode:    res.EventCode,
		TerminalCode: res.TerminalCode,
		InvitationID: res.InvitationID,
		Label:        res.Label,
		PeopleCount:  res.PeopleCount,
		ScannedCount: res.ScannedCount,
		Direction:    direction,
		RecordedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishScanRecorded(ctx, ev)
	}()
}
