package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/guestgate/event-checkin/internal/model"
)

// EventRepo provides CRUD and lifecycle operations for events. Soft
// deletion is implemented here: reads exclude rows whose deleted_at is
// set, and the sweeper purges them for real after the retention window.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// that span several repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

const eventCols = `id, owner_id, code, name, starts_at, duration_min, status, deleted_at, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var ev model.Event
	var deletedAt sql.NullTime
	err := row.Scan(&ev.ID, &ev.OwnerID, &ev.Code, &ev.Name, &ev.StartsAt,
		&ev.DurationMin, &ev.Status, &deletedAt, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		ev.DeletedAt = &t
	}
	return ev, nil
}

// Create inserts a new event together with its zeroed stats row in one
// transaction, so an event can never exist without counters. The
// generated ID is populated on the provided event.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO events (owner_id, code, name, starts_at, duration_min, status) VALUES (?,?,?,?,?,?)`,
		ev.OwnerID, ev.Code, ev.Name, ev.StartsAt.UTC(), ev.DurationMin, ev.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO event_stats (event_id) VALUES (?)`, ev.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a live (non-deleted) event by its numeric ID.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE id = ? AND deleted_at IS NULL`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	return ev, err
}

// GetByIDForOwner returns a live event after verifying ownership. It
// returns ErrEventNotFound for missing or deleted events and
// ErrForbidden when the event belongs to a different organizer.
func (r *EventRepo) GetByIDForOwner(ctx context.Context, id, ownerID uint64) (model.Event, error) {
	ev, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if ev.OwnerID != ownerID {
		return model.Event{}, ErrForbidden
	}
	return ev, nil
}

// GetByCode returns a live event by its terminal-facing short code.
func (r *EventRepo) GetByCode(ctx context.Context, code string) (model.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE code = ? AND deleted_at IS NULL`, code)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	return ev, err
}

// ListByOwner returns all live events belonging to an organizer,
// newest first.
func (r *EventRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventCols+` FROM events WHERE owner_id = ? AND deleted_at IS NULL ORDER BY starts_at DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Update changes the mutable fields of an event. The status is not
// touched here; lifecycle transitions go through Cancel and the
// sweeper.
func (r *EventRepo) Update(ctx context.Context, id uint64, name string, startsAt time.Time, durationMin uint32) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET name = ?, starts_at = ?, duration_min = ? WHERE id = ? AND deleted_at IS NULL`,
		name, startsAt.UTC(), durationMin, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrEventNotFound
	}
	return err
}

// Cancel flips an event to CANCELLED. Finished events stay finished;
// cancelling them is a no-op reported to the caller via the returned
// bool.
func (r *EventRepo) Cancel(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = ? WHERE id = ? AND deleted_at IS NULL AND status NOT IN (?, ?)`,
		model.EventCancelled, id, model.EventFinished, model.EventCancelled)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SoftDelete stamps deleted_at on an event. The row and its children
// remain until the sweeper's purge pass removes them.
func (r *EventRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrEventNotFound
	}
	return err
}

// AdvanceStatuses moves events forward along the time-driven lifecycle
// using the supplied instant. Both updates are conditional on the
// current status, so re-running the sweep (or running it from several
// processes) converges on the same state. It returns how many rows
// changed.
func (r *EventRepo) AdvanceStatuses(ctx context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	var total int64
	// ONGOING -> FINISHED first, so an event whose whole window has
	// already passed does not need two sweep runs.
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = ?
		 WHERE status = ? AND deleted_at IS NULL
		   AND DATE_ADD(starts_at, INTERVAL duration_min MINUTE) <= ?`,
		model.EventFinished, model.EventOngoing, now)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	res, err = r.db.ExecContext(ctx,
		`UPDATE events SET status = CASE
		      WHEN DATE_ADD(starts_at, INTERVAL duration_min MINUTE) <= ? THEN ?
		      ELSE ? END
		 WHERE status = ? AND deleted_at IS NULL AND starts_at <= ?`,
		now, model.EventFinished, model.EventOngoing, model.EventUpcoming, now)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}

// PurgeDeletedBefore hard-deletes events soft-deleted before the cutoff
// along with all dependent rows. Child tables are cleared explicitly so
// the purge does not rely on cascading foreign keys being present.
func (r *EventRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const where = `deleted_at IS NOT NULL AND deleted_at < ?`
	stmts := []string{
		`DELETE ta FROM table_allocations ta
		   JOIN invitations i ON i.id = ta.invitation_id
		   JOIN events e ON e.id = i.event_id WHERE e.` + where,
		`DELETE i FROM invitations i JOIN events e ON e.id = i.event_id WHERE e.` + where,
		`DELETE t FROM event_tables t JOIN events e ON e.id = t.event_id WHERE e.` + where,
		`DELETE tr FROM terminals tr JOIN events e ON e.id = tr.event_id WHERE e.` + where,
		`DELETE s FROM event_stats s JOIN events e ON e.id = s.event_id WHERE e.` + where,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, cutoff.UTC()); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE `+where, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	purged, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return purged, nil
}
