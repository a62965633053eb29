package repository

import (
	"context"
	"database/sql"

	"github.com/guestgate/event-checkin/internal/model"
)

// StatsRepo maintains the denormalized per-event counters in
// event_stats. All increment methods take a transaction: a counter must
// only ever move inside the same transaction as the mutation it
// reflects, otherwise the counters drift from the live rows.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// AddScannedTx shifts total_scanned by delta (+1 on scan, -1 on
// reverse) within the caller's transaction.
func (r *StatsRepo) AddScannedTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE event_stats SET total_scanned = total_scanned + ? WHERE event_id = ?`,
		delta, eventID)
	return err
}

// AddInvitationsTx adjusts the invitation and head-count totals when
// invitations are created, updated or deleted.
func (r *StatsRepo) AddInvitationsTx(ctx context.Context, tx *sql.Tx, eventID uint64, deltaInvitations, deltaPeople int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE event_stats
		 SET total_invitations = total_invitations + ?, total_people = total_people + ?
		 WHERE event_id = ?`,
		deltaInvitations, deltaPeople, eventID)
	return err
}

// AddAssignedSeatsTx adjusts total_assigned_seats and the derived
// available_seats by the same amount, keeping the pair consistent.
func (r *StatsRepo) AddAssignedSeatsTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE event_stats
		 SET total_assigned_seats = total_assigned_seats + ?, available_seats = available_seats - ?
		 WHERE event_id = ?`,
		delta, delta, eventID)
	return err
}

// AddCapacityTx adjusts total_capacity (and available_seats with it)
// when tables are created, resized or removed.
func (r *StatsRepo) AddCapacityTx(ctx context.Context, tx *sql.Tx, eventID uint64, delta int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE event_stats
		 SET total_capacity = total_capacity + ?, available_seats = available_seats + ?
		 WHERE event_id = ?`,
		delta, delta, eventID)
	return err
}

// RecomputeTx rebuilds the stats row from the live aggregates and
// upserts it inside the caller's transaction. This is the
// reconciliation path: it is authoritative truth, and the incremental
// updates above are a performance optimization against it.
func (r *StatsRepo) RecomputeTx(ctx context.Context, tx *sql.Tx, eventID uint64) (model.EventStats, error) {
	var s model.EventStats
	s.EventID = eventID
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(i.id), COALESCE(SUM(i.people_count), 0), COALESCE(SUM(i.scanned_count), 0)
		 FROM invitations i WHERE i.event_id = ?`, eventID).
		Scan(&s.TotalInvitations, &s.TotalPeople, &s.TotalScanned)
	if err != nil {
		return model.EventStats{}, err
	}
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(t.capacity), 0) FROM event_tables t WHERE t.event_id = ?`, eventID).
		Scan(&s.TotalCapacity)
	if err != nil {
		return model.EventStats{}, err
	}
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ta.seats_assigned), 0)
		 FROM table_allocations ta
		 JOIN event_tables t ON t.id = ta.table_id
		 WHERE t.event_id = ?`, eventID).
		Scan(&s.TotalAssignedSeats)
	if err != nil {
		return model.EventStats{}, err
	}
	s.AvailableSeats = s.TotalCapacity - s.TotalAssignedSeats
	_, err = tx.ExecContext(ctx,
		`INSERT INTO event_stats (event_id, total_invitations, total_capacity, total_people,
		                          total_scanned, total_assigned_seats, available_seats)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   total_invitations = VALUES(total_invitations),
		   total_capacity = VALUES(total_capacity),
		   total_people = VALUES(total_people),
		   total_scanned = VALUES(total_scanned),
		   total_assigned_seats = VALUES(total_assigned_seats),
		   available_seats = VALUES(available_seats)`,
		s.EventID, s.TotalInvitations, s.TotalCapacity, s.TotalPeople,
		s.TotalScanned, s.TotalAssignedSeats, s.AvailableSeats)
	if err != nil {
		return model.EventStats{}, err
	}
	return s, nil
}
