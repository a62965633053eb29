package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/guestgate/event-checkin/internal/ledger"
	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/qrtoken"
	"github.com/guestgate/event-checkin/internal/repository"
)

func recordScanError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events/abc/scan", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if werr := writeScanError(c, err); werr != nil {
		t.Fatalf("writeScanError returned error: %v", werr)
	}
	var body map[string]any
	if derr := json.Unmarshal(rec.Body.Bytes(), &body); derr != nil {
		t.Fatalf("response is not JSON: %v", derr)
	}
	return rec, body
}

func TestWriteScanErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"malformed token", qrtoken.ErrInvalidFormat, http.StatusUnprocessableEntity},
		{"forged token", qrtoken.ErrInvalidSignature, http.StatusUnprocessableEntity},
		{"nothing to reverse", ledger.ErrNothingToReverse, http.StatusBadRequest},
		{"terminal disabled", ledger.ErrTerminalDisabled, http.StatusForbidden},
		{"event missing", repository.ErrEventNotFound, http.StatusNotFound},
		{"invitation missing", repository.ErrInvitationNotFound, http.StatusNotFound},
		{"terminal missing", repository.ErrTerminalNotFound, http.StatusNotFound},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := recordScanError(t, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestWriteScanErrorCapacityReached(t *testing.T) {
	err := &ledger.CapacityReachedError{Invitation: model.Invitation{
		ID:           42,
		Label:        "Famille Martin",
		PeopleCount:  4,
		ScannedCount: 4,
	}}
	rec, body := recordScanError(t, err)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if body["error"] != "Capacité atteinte" {
		t.Fatalf("error message = %q", body["error"])
	}
	inv, ok := body["invitation"].(map[string]any)
	if !ok {
		t.Fatalf("invitation snapshot missing: %#v", body)
	}
	if inv["label"] != "Famille Martin" {
		t.Fatalf("label = %v", inv["label"])
	}
	if inv["scanned_count"] != float64(4) || inv["people_count"] != float64(4) {
		t.Fatalf("counts = %v/%v", inv["scanned_count"], inv["people_count"])
	}
}

func TestWriteScanErrorNothingToReverseMessage(t *testing.T) {
	_, body := recordScanError(t, ledger.ErrNothingToReverse)
	if body["error"] != "Aucun scan à annuler" {
		t.Fatalf("error message = %q", body["error"])
	}
}
