package model

import "time"

// Terminal is a registered scanning device bound to one event. Scans
// are rejected when the terminal is inactive or soft-deleted. Terminal
// codes are unique per event and act as the device's credential on the
// public scan endpoints.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the terminal is bound to.
//  Code      – unique code per event, presented on every scan request.
//  Name      – display name (e.g. "Entrée principale").
//  IsActive  – whether the terminal may scan.
//  DeletedAt – soft-deletion timestamp (nil while live).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Terminal struct {
	ID        uint64     // terminals.id
	EventID   uint64     // terminals.event_id
	Code      string     // terminals.code
	Name      string     // terminals.name
	IsActive  bool       // terminals.is_active
	DeletedAt *time.Time // terminals.deleted_at (nullable)
	CreatedAt time.Time  // terminals.created_at
	UpdatedAt time.Time  // terminals.updated_at
}
