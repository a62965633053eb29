package repository

import (
	"context"
	"database/sql"

	"github.com/guestgate/event-checkin/internal/model"
)

// TerminalRepo provides persistence for scan terminals. Lookups used by
// the scan path exclude soft-deleted terminals; whether an existing
// terminal is active is the ledger's decision so it can report
// "disabled" distinctly from "unknown".
type TerminalRepo struct {
	db *sql.DB
}

// NewTerminalRepo returns a new TerminalRepo bound to the given database.
func NewTerminalRepo(db *sql.DB) *TerminalRepo { return &TerminalRepo{db: db} }

const terminalCols = `id, event_id, code, name, is_active, deleted_at, created_at, updated_at`

func scanTerminal(row interface{ Scan(...any) error }) (model.Terminal, error) {
	var t model.Terminal
	var deletedAt sql.NullTime
	err := row.Scan(&t.ID, &t.EventID, &t.Code, &t.Name, &t.IsActive,
		&deletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Terminal{}, err
	}
	if deletedAt.Valid {
		v := deletedAt.Time
		t.DeletedAt = &v
	}
	return t, nil
}

// Create registers a terminal on an event.
func (r *TerminalRepo) Create(ctx context.Context, t *model.Terminal) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO terminals (event_id, code, name, is_active) VALUES (?,?,?,?)`,
		t.EventID, t.Code, t.Name, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByCodeTx returns a live terminal of an event by code, inside the
// caller's transaction so the activity check and the scan commit see
// the same row.
func (r *TerminalRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, eventID uint64, code string) (model.Terminal, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+terminalCols+` FROM terminals
		 WHERE event_id = ? AND code = ? AND deleted_at IS NULL`, eventID, code)
	t, err := scanTerminal(row)
	if err == sql.ErrNoRows {
		return model.Terminal{}, ErrTerminalNotFound
	}
	return t, err
}

// GetByID returns a live terminal scoped to its event.
func (r *TerminalRepo) GetByID(ctx context.Context, eventID, terminalID uint64) (model.Terminal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+terminalCols+` FROM terminals
		 WHERE id = ? AND event_id = ? AND deleted_at IS NULL`, terminalID, eventID)
	t, err := scanTerminal(row)
	if err == sql.ErrNoRows {
		return model.Terminal{}, ErrTerminalNotFound
	}
	return t, err
}

// ListByEvent returns all live terminals of an event ordered by code.
func (r *TerminalRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Terminal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+terminalCols+` FROM terminals
		 WHERE event_id = ? AND deleted_at IS NULL ORDER BY code`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Terminal, 0)
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update changes a terminal's name and active flag.
func (r *TerminalRepo) Update(ctx context.Context, eventID, terminalID uint64, name string, isActive bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE terminals SET name = ?, is_active = ?
		 WHERE id = ? AND event_id = ? AND deleted_at IS NULL`,
		name, isActive, terminalID, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		// Distinguishing "missing" from "unchanged" needs a read; the
		// update matched nothing only when the row is gone or deleted.
		if _, gerr := r.GetByID(ctx, eventID, terminalID); gerr != nil {
			return gerr
		}
	}
	return err
}

// SoftDelete stamps deleted_at on a terminal; deleted terminals are
// rejected on scan.
func (r *TerminalRepo) SoftDelete(ctx context.Context, eventID, terminalID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE terminals SET deleted_at = UTC_TIMESTAMP()
		 WHERE id = ? AND event_id = ? AND deleted_at IS NULL`, terminalID, eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrTerminalNotFound
	}
	return err
}
