package ledger

import "github.com/guestgate/event-checkin/internal/model"

// The precondition checks are plain functions over counters so the
// capacity rules can be exercised without a database. Every mutating
// ledger operation runs them inside its transaction, after the
// relevant rows are locked.

// checkScan validates the scan transition: allowed only while the
// scanned count is below the head-count.
func checkScan(inv model.Invitation) error {
	if inv.ScannedCount >= inv.PeopleCount {
		return &CapacityReachedError{Invitation: inv}
	}
	return nil
}

// checkReverse validates the reverse transition: allowed only while at
// least one scan has been recorded.
func checkReverse(inv model.Invitation) error {
	if inv.ScannedCount == 0 {
		return ErrNothingToReverse
	}
	return nil
}

// checkTableCapacity rejects an allocation batch (or capacity change)
// when occupied + required seats exceed the table's capacity.
func checkTableCapacity(t model.GuestTable, occupied, required uint32) error {
	if occupied+required > t.Capacity {
		return &TableCapacityError{
			TableName: t.Name,
			Capacity:  t.Capacity,
			Occupied:  occupied,
			Required:  required,
		}
	}
	return nil
}

// checkInvitationSeats rejects an allocation set whose seats together
// exceed the invitation's own head-count.
func checkInvitationSeats(peopleCount, seatsWanted uint32) error {
	if seatsWanted > peopleCount {
		return &InvitationSeatsError{PeopleCount: peopleCount, SeatsWanted: seatsWanted}
	}
	return nil
}
