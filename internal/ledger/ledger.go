// Package ledger implements the seat and scan accounting of the
// service. Every operation that can change a capacity-sensitive
// counter lives here and runs as a single database transaction: the
// transaction boundary is the unit of atomicity, and row-level locks
// taken inside it are the only concurrency control. No application
// mutex guards these paths, so correctness holds across multiple
// processes sharing the database.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/guestgate/event-checkin/internal/qrtoken"
	"github.com/guestgate/event-checkin/internal/repository"
)

// Ledger bundles the repositories and the QR codec behind the public
// operations. Handlers never touch counters directly.
type Ledger struct {
	db          *sql.DB
	codec       *qrtoken.Codec
	events      *repository.EventRepo
	stats       *repository.StatsRepo
	tables      *repository.TableRepo
	allocations *repository.AllocationRepo
	invitations *repository.InvitationRepo
	terminals   *repository.TerminalRepo

	now func() time.Time
}

// New constructs a Ledger. All dependencies must be non-nil.
func New(db *sql.DB, codec *qrtoken.Codec,
	events *repository.EventRepo, stats *repository.StatsRepo,
	tables *repository.TableRepo, allocations *repository.AllocationRepo,
	invitations *repository.InvitationRepo, terminals *repository.TerminalRepo) *Ledger {
	if db == nil || codec == nil || events == nil || stats == nil ||
		tables == nil || allocations == nil || invitations == nil || terminals == nil {
		panic("nil dependency passed to ledger.New")
	}
	return &Ledger{
		db:          db,
		codec:       codec,
		events:      events,
		stats:       stats,
		tables:      tables,
		allocations: allocations,
		invitations: invitations,
		terminals:   terminals,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// inTx runs fn inside a transaction, rolling back on error and
// committing otherwise. A failed precondition inside fn aborts the
// whole transaction, so partial writes never survive.
func (l *Ledger) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// signToken builds a fresh signed QR token for an invitation. The
// timestamp records generation time; it is carried in the payload but
// not validated on decode.
func (l *Ledger) signToken(invitationID, eventID uint64) (string, error) {
	return l.codec.Encode(qrtoken.Payload{
		InvitationID: invitationID,
		EventID:      eventID,
		Ts:           l.now().Unix(),
	})
}
