package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/guestgate/event-checkin/internal/model"
)

// InvitationRepo provides persistence for invitations. The scan and
// reverse paths lock the invitation row (GetForUpdateTx), making the
// row-level lock the only concurrency control for the scanned counter:
// two terminals scanning the same invitation serialize inside MySQL,
// not in this process.
type InvitationRepo struct {
	db *sql.DB
}

// NewInvitationRepo returns a new InvitationRepo bound to the given database.
func NewInvitationRepo(db *sql.DB) *InvitationRepo { return &InvitationRepo{db: db} }

const invitationCols = `id, event_id, label, people_count, scanned_count, email, phone, qr_token, created_at, updated_at`

func scanInvitation(row interface{ Scan(...any) error }) (model.Invitation, error) {
	var inv model.Invitation
	var email, phone, token sql.NullString
	err := row.Scan(&inv.ID, &inv.EventID, &inv.Label, &inv.PeopleCount, &inv.ScannedCount,
		&email, &phone, &token, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return model.Invitation{}, err
	}
	if email.Valid {
		v := email.String
		inv.Email = &v
	}
	if phone.Valid {
		v := phone.String
		inv.Phone = &v
	}
	if token.Valid {
		v := token.String
		inv.QRToken = &v
	}
	return inv, nil
}

// CreateTx inserts an invitation within the caller's transaction and
// populates the generated ID. The QR token is set afterwards via
// UpdateQRTokenTx because it embeds the generated ID.
func (r *InvitationRepo) CreateTx(ctx context.Context, tx *sql.Tx, inv *model.Invitation) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO invitations (event_id, label, people_count, scanned_count, email, phone)
		 VALUES (?,?,?,0,?,?)`,
		inv.EventID, inv.Label, inv.PeopleCount, inv.Email, inv.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	return nil
}

// GetByID returns an invitation scoped to its event.
func (r *InvitationRepo) GetByID(ctx context.Context, eventID, invitationID uint64) (model.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationCols+` FROM invitations WHERE id = ? AND event_id = ?`,
		invitationID, eventID)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return model.Invitation{}, ErrInvitationNotFound
	}
	return inv, err
}

// GetForUpdateTx locks and returns an invitation row scoped to its
// event. Scan counter transitions happen only under this lock.
func (r *InvitationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, eventID, invitationID uint64) (model.Invitation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+invitationCols+` FROM invitations WHERE id = ? AND event_id = ? FOR UPDATE`,
		invitationID, eventID)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return model.Invitation{}, ErrInvitationNotFound
	}
	return inv, err
}

// ListByEvent returns all invitations of an event ordered by label.
func (r *InvitationRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Invitation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invitationCols+` FROM invitations WHERE event_id = ? ORDER BY label`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// SumPeopleTx returns, for the given invitation IDs of one event, the
// per-invitation head-counts. Missing IDs are simply absent from the
// map; the caller decides whether that is an error.
func (r *InvitationRepo) SumPeopleTx(ctx context.Context, tx *sql.Tx, eventID uint64, ids []uint64) (map[uint64]uint32, error) {
	people := make(map[uint64]uint32, len(ids))
	if len(ids) == 0 {
		return people, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, eventID)
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT id, people_count FROM invitations
		 WHERE event_id = ? AND id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var count uint32
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		people[id] = count
	}
	return people, rows.Err()
}

// UpdateBaseTx changes an invitation's label, head-count and contact
// fields within the caller's transaction.
func (r *InvitationRepo) UpdateBaseTx(ctx context.Context, tx *sql.Tx, inv *model.Invitation) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE invitations SET label = ?, people_count = ?, email = ?, phone = ? WHERE id = ?`,
		inv.Label, inv.PeopleCount, inv.Email, inv.Phone, inv.ID)
	return err
}

// AddScannedTx shifts the scanned counter by delta. The caller has
// already validated the precondition under the row lock.
func (r *InvitationRepo) AddScannedTx(ctx context.Context, tx *sql.Tx, invitationID uint64, delta int32) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE invitations SET scanned_count = scanned_count + ? WHERE id = ?`,
		delta, invitationID)
	return err
}

// UpdateQRTokenTx stores a freshly generated QR token.
func (r *InvitationRepo) UpdateQRTokenTx(ctx context.Context, tx *sql.Tx, invitationID uint64, token string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE invitations SET qr_token = ? WHERE id = ?`, token, invitationID)
	return err
}

// DeleteTx removes an invitation row within the caller's transaction.
// Allocations must have been removed first.
func (r *InvitationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, invitationID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, invitationID)
	return err
}
