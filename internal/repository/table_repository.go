package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/guestgate/event-checkin/internal/model"
)

// TableRepo provides persistence for event tables. Every path that
// changes a table's occupancy locks the table row first with
// GetForUpdateTx; the row lock is the sole mutual exclusion for
// allocations on that table, matching the storage-engine-only
// concurrency model of the service.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

func isDuplicateKey(err error) bool {
	// MySQL error 1062 (ER_DUP_ENTRY). The driver error message always
	// contains the number.
	return err != nil && strings.Contains(err.Error(), "1062")
}

// Create inserts a table for an event. The (event_id, name) unique key
// maps to ErrDuplicateTableName.
func (r *TableRepo) Create(ctx context.Context, t *model.GuestTable) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO event_tables (event_id, name, capacity) VALUES (?,?,?)`,
		t.EventID, t.Name, t.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTableName
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// CreateTx is Create within an existing transaction, used when table
// creation must move the event's capacity counters atomically.
func (r *TableRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.GuestTable) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO event_tables (event_id, name, capacity) VALUES (?,?,?)`,
		t.EventID, t.Name, t.Capacity)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateTableName
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID returns a table scoped to its event.
func (r *TableRepo) GetByID(ctx context.Context, eventID, tableID uint64) (model.GuestTable, error) {
	var t model.GuestTable
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, name, capacity, created_at, updated_at
		 FROM event_tables WHERE id = ? AND event_id = ?`, tableID, eventID).
		Scan(&t.ID, &t.EventID, &t.Name, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.GuestTable{}, ErrTableNotFound
	}
	return t, err
}

// GetForUpdateTx locks and returns a table row. Allocation and
// capacity changes serialize through this lock.
func (r *TableRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, eventID, tableID uint64) (model.GuestTable, error) {
	var t model.GuestTable
	err := tx.QueryRowContext(ctx,
		`SELECT id, event_id, name, capacity, created_at, updated_at
		 FROM event_tables WHERE id = ? AND event_id = ? FOR UPDATE`, tableID, eventID).
		Scan(&t.ID, &t.EventID, &t.Name, &t.Capacity, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.GuestTable{}, ErrTableNotFound
	}
	return t, err
}

// TableOccupancy pairs a table with the seats currently allocated on
// it, for list views.
type TableOccupancy struct {
	Table         model.GuestTable `json:"table"`
	OccupiedSeats uint32           `json:"occupied_seats"`
}

// ListByEvent returns all tables of an event with their current
// occupancy, ordered by name.
func (r *TableRepo) ListByEvent(ctx context.Context, eventID uint64) ([]TableOccupancy, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.event_id, t.name, t.capacity, t.created_at, t.updated_at,
		        COALESCE(SUM(ta.seats_assigned), 0)
		 FROM event_tables t
		 LEFT JOIN table_allocations ta ON ta.table_id = t.id
		 WHERE t.event_id = ?
		 GROUP BY t.id
		 ORDER BY t.name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]TableOccupancy, 0)
	for rows.Next() {
		var to TableOccupancy
		if err := rows.Scan(&to.Table.ID, &to.Table.EventID, &to.Table.Name, &to.Table.Capacity,
			&to.Table.CreatedAt, &to.Table.UpdatedAt, &to.OccupiedSeats); err != nil {
			return nil, err
		}
		out = append(out, to)
	}
	return out, rows.Err()
}

// UpdateTx renames and/or resizes a table within the caller's
// transaction. Capacity validation against occupied seats happens in
// the ledger before this is called, under the table row lock.
func (r *TableRepo) UpdateTx(ctx context.Context, tx *sql.Tx, tableID uint64, name string, capacity uint32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE event_tables SET name = ?, capacity = ? WHERE id = ?`,
		name, capacity, tableID)
	if isDuplicateKey(err) {
		return ErrDuplicateTableName
	}
	return err
}

// DeleteTx removes a table row within the caller's transaction. The
// ledger has already verified the table holds no allocations.
func (r *TableRepo) DeleteTx(ctx context.Context, tx *sql.Tx, tableID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM event_tables WHERE id = ?`, tableID)
	return err
}
