package ledger

import (
	"context"
	"database/sql"

	"github.com/guestgate/event-checkin/internal/model"
)

// RecomputeStats rebuilds the event's stats row from the live
// aggregates and returns it. This is the reconciliation path used by
// the stats endpoint: whatever the incremental counters say, the
// recomputed values win, repairing any drift.
func (l *Ledger) RecomputeStats(ctx context.Context, eventID uint64) (model.EventStats, error) {
	var stats model.EventStats
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		stats, err = l.stats.RecomputeTx(ctx, tx, eventID)
		return err
	})
	if err != nil {
		return model.EventStats{}, err
	}
	return stats, nil
}
