package ledger

import (
	"context"
	"database/sql"

	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/repository"
)

// Allocate seats a batch of invitations at a table, taking each
// invitation's full head-count in seats. The whole batch is accepted
// or rejected atomically: if occupied + required seats exceed the
// table capacity nothing is written. Invitations already seated at the
// table are skipped, which makes retried requests idempotent.
func (l *Ledger) Allocate(ctx context.Context, eventID, tableID uint64, invitationIDs []uint64) (uint32, error) {
	var assigned uint32
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		// The table row lock is the mutex for all occupancy changes on
		// this table.
		table, err := l.tables.GetForUpdateTx(ctx, tx, eventID, tableID)
		if err != nil {
			return err
		}
		people, err := l.invitations.SumPeopleTx(ctx, tx, eventID, invitationIDs)
		if err != nil {
			return err
		}
		for _, id := range invitationIDs {
			if _, ok := people[id]; !ok {
				return repository.ErrInvitationNotFound
			}
		}
		seated, err := l.allocations.AllocatedInvitationsTx(ctx, tx, tableID, invitationIDs)
		if err != nil {
			return err
		}
		newIDs := make([]uint64, 0, len(invitationIDs))
		var required uint32
		for _, id := range invitationIDs {
			if seated[id] {
				continue
			}
			newIDs = append(newIDs, id)
			required += people[id]
		}
		if len(newIDs) == 0 {
			return nil
		}
		occupied, err := l.allocations.OccupiedSeatsTx(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if err := checkTableCapacity(table, occupied, required); err != nil {
			return err
		}
		allocs := make([]model.TableAllocation, 0, len(newIDs))
		for _, id := range newIDs {
			allocs = append(allocs, model.TableAllocation{
				TableID:       tableID,
				InvitationID:  id,
				SeatsAssigned: people[id],
			})
		}
		if err := l.allocations.CreateBulkTx(ctx, tx, allocs); err != nil {
			return err
		}
		if err := l.stats.AddAssignedSeatsTx(ctx, tx, eventID, int32(required)); err != nil {
			return err
		}
		// Allocations changed: refresh each invitation's signed token
		// so issued QRs always correspond to the authoritative state.
		for _, id := range newIDs {
			token, err := l.signToken(id, eventID)
			if err != nil {
				return err
			}
			if err := l.invitations.UpdateQRTokenTx(ctx, tx, id, token); err != nil {
				return err
			}
		}
		assigned = required
		return nil
	})
	if err != nil {
		return 0, err
	}
	return assigned, nil
}

// Deallocate removes one invitation's allocation from a table and
// frees its seats. Removing an allocation that does not exist is a
// no-op reported through the returned seat count.
func (l *Ledger) Deallocate(ctx context.Context, eventID, tableID, invitationID uint64) (uint32, error) {
	var freed uint32
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := l.tables.GetForUpdateTx(ctx, tx, eventID, tableID); err != nil {
			return err
		}
		var err error
		freed, err = l.allocations.DeleteOneTx(ctx, tx, tableID, invitationID)
		if err != nil {
			return err
		}
		if freed == 0 {
			return nil
		}
		if err := l.stats.AddAssignedSeatsTx(ctx, tx, eventID, -int32(freed)); err != nil {
			return err
		}
		token, err := l.signToken(invitationID, eventID)
		if err != nil {
			return err
		}
		return l.invitations.UpdateQRTokenTx(ctx, tx, invitationID, token)
	})
	if err != nil {
		return 0, err
	}
	return freed, nil
}
