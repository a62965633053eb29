// Package sweeper runs the periodic background pass that advances
// event lifecycle status by comparing clock time against each event's
// schedule, and purges soft-deleted events once their retention window
// has passed. The pass is idempotent: both the status updates and the
// purge are conditional writes, so running it again immediately, or
// concurrently from another process, changes nothing more.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/guestgate/event-checkin/internal/model"
	"github.com/guestgate/event-checkin/internal/repository"
)

// StatusAt returns the lifecycle status an event should hold at the
// given instant. The progression is monotonic: a finished or cancelled
// event never moves back, whatever its schedule says.
func StatusAt(ev model.Event, now time.Time) string {
	switch ev.Status {
	case model.EventCancelled:
		return model.EventCancelled
	case model.EventFinished:
		return model.EventFinished
	}
	if !now.Before(ev.EndsAt()) {
		return model.EventFinished
	}
	if !now.Before(ev.StartsAt) {
		return model.EventOngoing
	}
	return model.EventUpcoming
}

// Sweeper owns the ticker loop. It is started once from main and runs
// until its context is cancelled.
type Sweeper struct {
	events    *repository.EventRepo
	interval  time.Duration
	retention time.Duration
}

// New constructs a Sweeper. retentionDays bounds how long soft-deleted
// events survive before the purge removes them for good.
func New(events *repository.EventRepo, interval time.Duration, retentionDays int) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		events:    events,
		interval:  interval,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Run executes one pass immediately, then on every tick until ctx is
// cancelled. Errors are logged and the loop keeps going; a transient
// database failure only delays the next pass.
func (s *Sweeper) Run(ctx context.Context) {
	s.pass(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *Sweeper) pass(ctx context.Context) {
	now := time.Now().UTC()
	if n, err := s.events.AdvanceStatuses(ctx, now); err != nil {
		log.Printf("sweeper: advance statuses failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: advanced %d event(s)", n)
	}
	cutoff := now.Add(-s.retention)
	if n, err := s.events.PurgeDeletedBefore(ctx, cutoff); err != nil {
		log.Printf("sweeper: purge failed: %v", err)
	} else if n > 0 {
		log.Printf("sweeper: purged %d soft-deleted event(s)", n)
	}
}
