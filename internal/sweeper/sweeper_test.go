package sweeper

import (
	"testing"
	"time"

	"github.com/guestgate/event-checkin/internal/model"
)

func TestStatusAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	ev := model.Event{
		Status:      model.EventUpcoming,
		StartsAt:    start,
		DurationMin: 240, // ends 22:00
	}
	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"well before start", start.Add(-24 * time.Hour), model.EventUpcoming},
		{"one second before start", start.Add(-time.Second), model.EventUpcoming},
		{"exactly at start", start, model.EventOngoing},
		{"mid event", start.Add(2 * time.Hour), model.EventOngoing},
		{"exactly at end", start.Add(4 * time.Hour), model.EventFinished},
		{"after end", start.Add(30 * 24 * time.Hour), model.EventFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusAt(ev, tt.now); got != tt.want {
				t.Errorf("StatusAt = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusAtIsIdempotent(t *testing.T) {
	// Applying the computed status and sweeping again at the same
	// instant must not change anything: the sweep can run twice in a
	// row, or from two processes, with the same outcome.
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	for _, initial := range []string{model.EventUpcoming, model.EventOngoing, model.EventFinished} {
		ev := model.Event{Status: initial, StartsAt: start, DurationMin: 120}
		for _, now := range []time.Time{
			start.Add(-time.Hour), start, start.Add(time.Hour), start.Add(3 * time.Hour),
		} {
			first := StatusAt(ev, now)
			ev2 := ev
			ev2.Status = first
			if second := StatusAt(ev2, now); second != first {
				t.Errorf("status %s at %v: first pass %s, second pass %s",
					initial, now, first, second)
			}
		}
	}
}

func TestStatusAtNeverRegresses(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	finished := model.Event{Status: model.EventFinished, StartsAt: start, DurationMin: 120}
	if got := StatusAt(finished, start.Add(-time.Hour)); got != model.EventFinished {
		t.Errorf("finished event regressed to %s", got)
	}
	cancelled := model.Event{Status: model.EventCancelled, StartsAt: start, DurationMin: 120}
	for _, now := range []time.Time{start.Add(-time.Hour), start.Add(time.Hour), start.Add(5 * time.Hour)} {
		if got := StatusAt(cancelled, now); got != model.EventCancelled {
			t.Errorf("cancelled event at %v became %s", now, got)
		}
	}
}
