package ledger

import (
	"context"
	"database/sql"
	"sort"

	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/repository"
)

// AllocationInput is one requested seat allocation in an invitation
// create or update.
type AllocationInput struct {
	TableID       uint64 `json:"table_id"`
	SeatsAssigned uint32 `json:"seats_assigned"`
}

// InvitationInput carries the full state of an invitation for create
// and full-replace update operations.
type InvitationInput struct {
	Label       string
	PeopleCount uint32
	Email       *string
	Phone       *string
	Allocations []AllocationInput
}

func sumSeats(allocs []AllocationInput) uint32 {
	var total uint32
	for _, a := range allocs {
		total += a.SeatsAssigned
	}
	return total
}

// insertAllocations locks each target table, validates capacity
// against current occupancy and inserts the rows. Tables are locked in
// ID order so two concurrent invitation updates touching the same pair
// of tables cannot deadlock.
func (l *Ledger) insertAllocations(ctx context.Context, tx *sql.Tx, eventID, invitationID uint64, allocs []AllocationInput) error {
	ordered := make([]AllocationInput, len(allocs))
	copy(ordered, allocs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TableID < ordered[j].TableID })
	for _, a := range ordered {
		table, err := l.tables.GetForUpdateTx(ctx, tx, eventID, a.TableID)
		if err != nil {
			return err
		}
		occupied, err := l.allocations.OccupiedSeatsTx(ctx, tx, a.TableID)
		if err != nil {
			return err
		}
		if err := checkTableCapacity(table, occupied, a.SeatsAssigned); err != nil {
			return err
		}
		row := []model.TableAllocation{{
			TableID:       a.TableID,
			InvitationID:  invitationID,
			SeatsAssigned: a.SeatsAssigned,
		}}
		if err := l.allocations.CreateBulkTx(ctx, tx, row); err != nil {
			return err
		}
	}
	return nil
}

// CreateInvitation creates an invitation together with its initial
// allocations and signed QR token, all in one transaction.
func (l *Ledger) CreateInvitation(ctx context.Context, eventID uint64, in InvitationInput) (model.Invitation, error) {
	if err := checkInvitationSeats(in.PeopleCount, sumSeats(in.Allocations)); err != nil {
		return model.Invitation{}, err
	}
	inv := model.Invitation{
		EventID:     eventID,
		Label:       in.Label,
		PeopleCount: in.PeopleCount,
		Email:       in.Email,
		Phone:       in.Phone,
	}
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.invitations.CreateTx(ctx, tx, &inv); err != nil {
			return err
		}
		if err := l.insertAllocations(ctx, tx, eventID, inv.ID, in.Allocations); err != nil {
			return err
		}
		if err := l.stats.AddInvitationsTx(ctx, tx, eventID, 1, int32(in.PeopleCount)); err != nil {
			return err
		}
		if seats := sumSeats(in.Allocations); seats > 0 {
			if err := l.stats.AddAssignedSeatsTx(ctx, tx, eventID, int32(seats)); err != nil {
				return err
			}
		}
		token, err := l.signToken(inv.ID, eventID)
		if err != nil {
			return err
		}
		if err := l.invitations.UpdateQRTokenTx(ctx, tx, inv.ID, token); err != nil {
			return err
		}
		inv.QRToken = &token
		return nil
	})
	if err != nil {
		return model.Invitation{}, err
	}
	return inv, nil
}

// UpdateInvitation applies a full-replace update: base fields change,
// the existing allocations are deleted and the new set inserted, and
// the QR token is regenerated, all in one transaction, so a stale token is
// never observable next to new allocations. Reducing the head-count
// below the already-scanned count is rejected.
func (l *Ledger) UpdateInvitation(ctx context.Context, eventID, invitationID uint64, in InvitationInput) (model.Invitation, error) {
	if err := checkInvitationSeats(in.PeopleCount, sumSeats(in.Allocations)); err != nil {
		return model.Invitation{}, err
	}
	var out model.Invitation
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		inv, err := l.invitations.GetForUpdateTx(ctx, tx, eventID, invitationID)
		if err != nil {
			return err
		}
		if in.PeopleCount < inv.ScannedCount {
			return &CapacityReachedError{Invitation: inv}
		}
		freed, err := l.allocations.DeleteByInvitationTx(ctx, tx, invitationID)
		if err != nil {
			return err
		}
		oldPeople := inv.PeopleCount
		inv.Label = in.Label
		inv.PeopleCount = in.PeopleCount
		inv.Email = in.Email
		inv.Phone = in.Phone
		if err := l.invitations.UpdateBaseTx(ctx, tx, &inv); err != nil {
			return err
		}
		if err := l.insertAllocations(ctx, tx, eventID, invitationID, in.Allocations); err != nil {
			return err
		}
		if err := l.stats.AddInvitationsTx(ctx, tx, eventID, 0,
			int32(in.PeopleCount)-int32(oldPeople)); err != nil {
			return err
		}
		seatDelta := int32(sumSeats(in.Allocations)) - int32(freed)
		if seatDelta != 0 {
			if err := l.stats.AddAssignedSeatsTx(ctx, tx, eventID, seatDelta); err != nil {
				return err
			}
		}
		token, err := l.signToken(invitationID, eventID)
		if err != nil {
			return err
		}
		if err := l.invitations.UpdateQRTokenTx(ctx, tx, invitationID, token); err != nil {
			return err
		}
		inv.QRToken = &token
		out = inv
		return nil
	})
	if err != nil {
		return model.Invitation{}, err
	}
	return out, nil
}

// DeleteInvitation removes an invitation, its allocations and its
// share of the event counters.
func (l *Ledger) DeleteInvitation(ctx context.Context, eventID, invitationID uint64) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		inv, err := l.invitations.GetForUpdateTx(ctx, tx, eventID, invitationID)
		if err != nil {
			return err
		}
		freed, err := l.allocations.DeleteByInvitationTx(ctx, tx, invitationID)
		if err != nil {
			return err
		}
		if err := l.invitations.DeleteTx(ctx, tx, invitationID); err != nil {
			return err
		}
		if err := l.stats.AddInvitationsTx(ctx, tx, eventID, -1, -int32(inv.PeopleCount)); err != nil {
			return err
		}
		if freed > 0 {
			if err := l.stats.AddAssignedSeatsTx(ctx, tx, eventID, -int32(freed)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InvitationDetail is an invitation with its allocations resolved for
// API responses.
type InvitationDetail struct {
	Invitation model.Invitation        `json:"-"`
	Seats      []repository.SeatDetail `json:"seats"`
}

// GetInvitation loads an invitation and its seat details.
func (l *Ledger) GetInvitation(ctx context.Context, eventID, invitationID uint64) (InvitationDetail, error) {
	inv, err := l.invitations.GetByID(ctx, eventID, invitationID)
	if err != nil {
		return InvitationDetail{}, err
	}
	seats, err := l.allocations.ByInvitation(ctx, invitationID)
	if err != nil {
		return InvitationDetail{}, err
	}
	return InvitationDetail{Invitation: inv, Seats: seats}, nil
}
