package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/guestgate/event-checkin/internal/model"
)

// AllocationRepo persists the table_allocations join rows binding
// invitations to tables. Callers are expected to hold the relevant
// table row lock (and, for full-replace updates, the invitation row
// lock) before mutating allocations.
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo returns a new AllocationRepo bound to the given database.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

// OccupiedSeatsTx returns the seats currently allocated on a table,
// inside the caller's transaction.
func (r *AllocationRepo) OccupiedSeatsTx(ctx context.Context, tx *sql.Tx, tableID uint64) (uint32, error) {
	var occupied uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats_assigned), 0) FROM table_allocations WHERE table_id = ?`,
		tableID).Scan(&occupied)
	return occupied, err
}

// OccupiedSeats is OccupiedSeatsTx outside a transaction, for display
// reads that tolerate a concurrent change.
func (r *AllocationRepo) OccupiedSeats(ctx context.Context, tableID uint64) (uint32, error) {
	var occupied uint32
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats_assigned), 0) FROM table_allocations WHERE table_id = ?`,
		tableID).Scan(&occupied)
	return occupied, err
}

// CreateBulkTx inserts allocations in a single statement. Passing an
// empty slice has no effect and returns nil.
func (r *AllocationRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, allocs []model.TableAllocation) error {
	if len(allocs) == 0 {
		return nil
	}
	query := `INSERT INTO table_allocations (table_id, invitation_id, seats_assigned) VALUES `
	args := make([]interface{}, 0, len(allocs)*3)
	for i, a := range allocs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, a.TableID, a.InvitationID, a.SeatsAssigned)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteByInvitationTx removes every allocation of one invitation and
// returns the number of seats freed, so the caller can adjust the
// event counters by the same amount.
func (r *AllocationRepo) DeleteByInvitationTx(ctx context.Context, tx *sql.Tx, invitationID uint64) (uint32, error) {
	var freed uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats_assigned), 0) FROM table_allocations WHERE invitation_id = ?`,
		invitationID).Scan(&freed)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM table_allocations WHERE invitation_id = ?`, invitationID); err != nil {
		return 0, err
	}
	return freed, nil
}

// DeleteOneTx removes a single invitation's allocation on a specific
// table and returns the seats freed; zero means nothing was allocated.
func (r *AllocationRepo) DeleteOneTx(ctx context.Context, tx *sql.Tx, tableID, invitationID uint64) (uint32, error) {
	var freed uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats_assigned), 0) FROM table_allocations
		 WHERE table_id = ? AND invitation_id = ?`, tableID, invitationID).Scan(&freed)
	if err != nil {
		return 0, err
	}
	if freed == 0 {
		return 0, nil
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM table_allocations WHERE table_id = ? AND invitation_id = ?`,
		tableID, invitationID); err != nil {
		return 0, err
	}
	return freed, nil
}

// AllocatedInvitationsTx returns which of the given invitations
// already hold an allocation on the table, so allocate requests stay
// idempotent for invitations that are already seated.
func (r *AllocationRepo) AllocatedInvitationsTx(ctx context.Context, tx *sql.Tx, tableID uint64, invitationIDs []uint64) (map[uint64]bool, error) {
	seated := make(map[uint64]bool, len(invitationIDs))
	if len(invitationIDs) == 0 {
		return seated, nil
	}
	placeholders := make([]string, 0, len(invitationIDs))
	args := make([]interface{}, 0, len(invitationIDs)+1)
	args = append(args, tableID)
	for _, id := range invitationIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT invitation_id FROM table_allocations
		 WHERE table_id = ? AND invitation_id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seated[id] = true
	}
	return seated, rows.Err()
}

// SeatDetail describes one allocation of an invitation for API
// responses, carrying the table name for display.
type SeatDetail struct {
	TableID       uint64 `json:"table_id"`
	TableName     string `json:"table_name"`
	SeatsAssigned uint32 `json:"seats_assigned"`
}

// ByInvitation returns the allocations of an invitation with table
// names, ordered by table name for deterministic output.
func (r *AllocationRepo) ByInvitation(ctx context.Context, invitationID uint64) ([]SeatDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ta.table_id, t.name, ta.seats_assigned
		 FROM table_allocations ta
		 JOIN event_tables t ON t.id = ta.table_id
		 WHERE ta.invitation_id = ?
		 ORDER BY t.name`, invitationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeatDetails(rows)
}

// ByInvitationTx is ByInvitation inside the caller's transaction, used
// when the scan response must reflect the state being committed.
func (r *AllocationRepo) ByInvitationTx(ctx context.Context, tx *sql.Tx, invitationID uint64) ([]SeatDetail, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT ta.table_id, t.name, ta.seats_assigned
		 FROM table_allocations ta
		 JOIN event_tables t ON t.id = ta.table_id
		 WHERE ta.invitation_id = ?
		 ORDER BY t.name`, invitationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeatDetails(rows)
}

func scanSeatDetails(rows *sql.Rows) ([]SeatDetail, error) {
	out := make([]SeatDetail, 0)
	for rows.Next() {
		var d SeatDetail
		if err := rows.Scan(&d.TableID, &d.TableName, &d.SeatsAssigned); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
