package ledger

import (
	"context"
	"database/sql"

	"github.com/guestgate/event-checkin/internal/repository"
)

// ScanResult is returned to the terminal after a successful scan or
// reverse so the operator sees who was admitted and where they sit.
type ScanResult struct {
	InvitationID  uint64                  `json:"invitation_id"`
	Label         string                  `json:"label"`
	PeopleCount   uint32                  `json:"people_count"`
	ScannedCount  uint32                  `json:"scanned_count"`
	AssignedTable string                  `json:"assigned_table"`
	Seats         []repository.SeatDetail `json:"seats"`
	EventID       uint64                  `json:"-"`
	EventCode     string                  `json:"-"`
	TerminalCode  string                  `json:"-"`
}

// Scan validates a QR token presented at a terminal and admits one
// person from the invitation. The codec check happens before any
// database work; everything from the terminal lookup to the stats
// increment is one transaction, with the invitation row lock
// serializing concurrent terminals scanning the same code.
func (l *Ledger) Scan(ctx context.Context, eventCode, terminalCode, token string) (*ScanResult, error) {
	payload, err := l.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	ev, err := l.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	if payload.EventID != ev.ID {
		// Valid token, wrong event: a stale or misrouted QR, not forgery.
		return nil, repository.ErrInvitationNotFound
	}
	return l.applyScan(ctx, ev.ID, ev.Code, terminalCode, payload.InvitationID, +1)
}

// Reverse undoes one admission on an invitation, identified either by
// a re-presented QR or directly by ID when the operator corrects a
// mistake after the guest walked away.
func (l *Ledger) Reverse(ctx context.Context, eventCode, terminalCode string, invitationID uint64) (*ScanResult, error) {
	ev, err := l.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	return l.applyScan(ctx, ev.ID, ev.Code, terminalCode, invitationID, -1)
}

// ReverseToken is Reverse with the invitation taken from a QR token.
func (l *Ledger) ReverseToken(ctx context.Context, eventCode, terminalCode, token string) (*ScanResult, error) {
	payload, err := l.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	ev, err := l.events.GetByCode(ctx, eventCode)
	if err != nil {
		return nil, err
	}
	if payload.EventID != ev.ID {
		return nil, repository.ErrInvitationNotFound
	}
	return l.applyScan(ctx, ev.ID, ev.Code, terminalCode, payload.InvitationID, -1)
}

func (l *Ledger) applyScan(ctx context.Context, eventID uint64, eventCode, terminalCode string, invitationID uint64, delta int32) (*ScanResult, error) {
	var result *ScanResult
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		term, err := l.terminals.GetByCodeTx(ctx, tx, eventID, terminalCode)
		if err != nil {
			return err
		}
		if !term.IsActive {
			return ErrTerminalDisabled
		}
		inv, err := l.invitations.GetForUpdateTx(ctx, tx, eventID, invitationID)
		if err != nil {
			return err
		}
		if delta > 0 {
			if err := checkScan(inv); err != nil {
				return err
			}
		} else {
			if err := checkReverse(inv); err != nil {
				return err
			}
		}
		if err := l.invitations.AddScannedTx(ctx, tx, inv.ID, delta); err != nil {
			return err
		}
		// Event aggregate moves in the same transaction; the stats row
		// is the known hotspot under concurrent scanning and that is
		// accepted for the expected load.
		if err := l.stats.AddScannedTx(ctx, tx, eventID, delta); err != nil {
			return err
		}
		seats, err := l.allocations.ByInvitationTx(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		result = &ScanResult{
			InvitationID:  inv.ID,
			Label:         inv.Label,
			PeopleCount:   inv.PeopleCount,
			ScannedCount:  uint32(int32(inv.ScannedCount) + delta),
			Seats:         seats,
			EventID:       eventID,
			EventCode:     eventCode,
			TerminalCode:  terminalCode,
		}
		if len(seats) > 0 {
			result.AssignedTable = seats[0].TableName
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
