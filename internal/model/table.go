package model

import "time"

// GuestTable represents a physical table at an event venue. Table names
// are unique per event. Capacity can only be reduced down to the number
// of seats already allocated, and a table can only be deleted once no
// allocation references it.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – owning event.
//  Name      – unique table name within the event.
//  Capacity  – number of seats, at least 1.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type GuestTable struct {
	ID        uint64    // event_tables.id
	EventID   uint64    // event_tables.event_id
	Name      string    // event_tables.name
	Capacity  uint32    // event_tables.capacity
	CreatedAt time.Time // event_tables.created_at
	UpdatedAt time.Time // event_tables.updated_at
}
