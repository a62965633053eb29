package model

import "time"

// Invitation is a guest or group entry sharing a single scannable QR
// code. PeopleCount is the head-count the invitation admits and
// ScannedCount how many of them have been checked in so far. The
// invariant 0 <= ScannedCount <= PeopleCount holds after every scan or
// reverse operation.
//
// Fields:
//  ID           – primary key identifier.
//  EventID      – owning event.
//  Label        – display label (guest or group name).
//  PeopleCount  – admitted head-count, at least 1.
//  ScannedCount – people checked in so far.
//  Email        – optional contact email.
//  Phone        – optional contact phone.
//  QRToken      – signed QR token, nil until generated. Regenerated
//                 whenever label, people count or allocations change so
//                 the signed payload stays authoritative.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Invitation struct {
	ID           uint64    // invitations.id
	EventID      uint64    // invitations.event_id
	Label        string    // invitations.label
	PeopleCount  uint32    // invitations.people_count
	ScannedCount uint32    // invitations.scanned_count
	Email        *string   // invitations.email (nullable)
	Phone        *string   // invitations.phone (nullable)
	QRToken      *string   // invitations.qr_token (nullable)
	CreatedAt    time.Time // invitations.created_at
	UpdatedAt    time.Time // invitations.updated_at
}

// TableAllocation binds an invitation to a table with a number of
// seats. For a fixed table the sum of SeatsAssigned across its
// allocations never exceeds that table's capacity; for a fixed
// invitation it never exceeds PeopleCount.
//
// Fields:
//  ID            – primary key identifier.
//  TableID       – table the seats belong to.
//  InvitationID  – invitation occupying the seats.
//  SeatsAssigned – seats taken by this allocation, at least 1.
//  CreatedAt     – creation timestamp.
type TableAllocation struct {
	ID            uint64    // table_allocations.id
	TableID       uint64    // table_allocations.table_id
	InvitationID  uint64    // table_allocations.invitation_id
	SeatsAssigned uint32    // table_allocations.seats_assigned
	CreatedAt     time.Time // table_allocations.created_at
}
