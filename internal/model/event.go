package model

import "time"

// Event status values. Status moves forward in time only:
// UPCOMING -> ONGOING -> FINISHED. CANCELLED is terminal and reachable
// from any non-finished state by explicit organizer action.
const (
	EventUpcoming  = "UPCOMING"
	EventOngoing   = "ONGOING"
	EventFinished  = "FINISHED"
	EventCancelled = "CANCELLED"
)

// Event represents a single occasion being run through the check-in
// system. Terminals reference events by their short Code while the
// admin API uses numeric IDs. Events are soft-deleted: DeletedAt is set
// on delete and the row is purged for real once the retention window
// has passed.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user ID of the organizer who created the event.
//  Code        – short unique code used by scan terminals.
//  Name        – display name of the event.
//  StartsAt    – when the event begins.
//  DurationMin – planned duration in minutes; StartsAt plus DurationMin
//                is the moment the event counts as finished.
//  Status      – lifecycle status (see constants above).
//  DeletedAt   – soft-deletion timestamp (nil while live).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Event struct {
	ID          uint64     // events.id
	OwnerID     uint64     // events.owner_id
	Code        string     // events.code
	Name        string     // events.name
	StartsAt    time.Time  // events.starts_at
	DurationMin uint32     // events.duration_min
	Status      string     // events.status
	DeletedAt   *time.Time // events.deleted_at (nullable)
	CreatedAt   time.Time  // events.created_at
	UpdatedAt   time.Time  // events.updated_at
}

// EndsAt returns the moment the event is considered over.
func (e Event) EndsAt() time.Time {
	return e.StartsAt.Add(time.Duration(e.DurationMin) * time.Minute)
}

// EventStats mirrors the event_stats table: denormalized aggregate
// counters kept for fast dashboard reads. Every ledger transaction that
// changes the underlying rows adjusts these counters in the same
// transaction; the recompute endpoint rebuilds them from live aggregates
// as a safety net against drift.
//
// Fields:
//  EventID            – event the counters belong to (primary key).
//  TotalInvitations   – number of invitations on the event.
//  TotalCapacity      – sum of table capacities.
//  TotalPeople        – sum of invitation people counts.
//  TotalScanned       – sum of invitation scanned counts.
//  TotalAssignedSeats – sum of seats assigned across all allocations.
//  AvailableSeats     – TotalCapacity minus TotalAssignedSeats.
//  UpdatedAt          – last update timestamp.
type EventStats struct {
	EventID            uint64    `json:"event_id"`             // event_stats.event_id
	TotalInvitations   uint32    `json:"total_invitations"`    // event_stats.total_invitations
	TotalCapacity      uint32    `json:"total_capacity"`       // event_stats.total_capacity
	TotalPeople        uint32    `json:"total_people"`         // event_stats.total_people
	TotalScanned       uint32    `json:"total_scanned"`        // event_stats.total_scanned
	TotalAssignedSeats uint32    `json:"total_assigned_seats"` // event_stats.total_assigned_seats
	AvailableSeats     uint32    `json:"available_seats"`      // event_stats.available_seats
	UpdatedAt          time.Time `json:"updated_at"`           // event_stats.updated_at
}
