package ledger

import (
	"context"
	"database/sql"

	"github.com/guestgate/event-checkin/internal/model"
)

// CreateTable creates a table and adds its capacity to the event
// counters in the same transaction.
func (l *Ledger) CreateTable(ctx context.Context, eventID uint64, name string, capacity uint32) (model.GuestTable, error) {
	t := model.GuestTable{EventID: eventID, Name: name, Capacity: capacity}
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if err := l.tables.CreateTx(ctx, tx, &t); err != nil {
			return err
		}
		return l.stats.AddCapacityTx(ctx, tx, eventID, int32(capacity))
	})
	if err != nil {
		return model.GuestTable{}, err
	}
	return t, nil
}

// UpdateTable renames or resizes a table. A capacity below the seats
// already allocated is rejected, preserving the table invariant
// without touching existing allocations.
func (l *Ledger) UpdateTable(ctx context.Context, eventID, tableID uint64, name string, capacity uint32) (model.GuestTable, error) {
	var out model.GuestTable
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		t, err := l.tables.GetForUpdateTx(ctx, tx, eventID, tableID)
		if err != nil {
			return err
		}
		occupied, err := l.allocations.OccupiedSeatsTx(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if capacity < occupied {
			return &TableCapacityError{
				TableName: t.Name,
				Capacity:  capacity,
				Occupied:  occupied,
			}
		}
		if err := l.tables.UpdateTx(ctx, tx, tableID, name, capacity); err != nil {
			return err
		}
		if delta := int32(capacity) - int32(t.Capacity); delta != 0 {
			if err := l.stats.AddCapacityTx(ctx, tx, eventID, delta); err != nil {
				return err
			}
		}
		t.Name = name
		t.Capacity = capacity
		out = t
		return nil
	})
	if err != nil {
		return model.GuestTable{}, err
	}
	return out, nil
}

// DeleteTable removes an empty table and releases its capacity from
// the event counters. A table with any allocation is refused.
func (l *Ledger) DeleteTable(ctx context.Context, eventID, tableID uint64) error {
	return l.inTx(ctx, func(tx *sql.Tx) error {
		t, err := l.tables.GetForUpdateTx(ctx, tx, eventID, tableID)
		if err != nil {
			return err
		}
		occupied, err := l.allocations.OccupiedSeatsTx(ctx, tx, tableID)
		if err != nil {
			return err
		}
		if occupied > 0 {
			return ErrTableNotEmpty
		}
		if err := l.tables.DeleteTx(ctx, tx, tableID); err != nil {
			return err
		}
		return l.stats.AddCapacityTx(ctx, tx, eventID, -int32(t.Capacity))
	})
}
