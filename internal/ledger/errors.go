package ledger

import (
	"errors"
	"fmt"

	"github.com/guestgate/event-checkin/internal/model"
)

// ErrNothingToReverse is reported when a reverse is attempted on an
// invitation whose scanned count is already zero. It is an expected
// business condition, not a fault: state is left unchanged.
var ErrNothingToReverse = errors.New("nothing to reverse")

// ErrTerminalDisabled is reported when the terminal exists but is
// deactivated. The scan is rejected before any counter is touched.
var ErrTerminalDisabled = errors.New("terminal disabled")

// ErrTableNotEmpty is reported when deleting a table that still has
// allocations referencing it. Only an empty table may be removed.
var ErrTableNotEmpty = errors.New("table still has allocated seats")

// CapacityReachedError is reported when a scan would push an
// invitation past its head-count. It carries the invitation so the
// terminal can show the operator who is at the door and the current
// numbers.
type CapacityReachedError struct {
	Invitation model.Invitation
}

func (e *CapacityReachedError) Error() string {
	return fmt.Sprintf("capacity reached: %q %d/%d scanned",
		e.Invitation.Label, e.Invitation.ScannedCount, e.Invitation.PeopleCount)
}

// TableCapacityError is reported when an allocation batch or a
// capacity reduction would exceed a table's capacity. The whole batch
// is rejected; no partial allocation happens.
type TableCapacityError struct {
	TableName string
	Capacity  uint32
	Occupied  uint32
	Required  uint32
}

func (e *TableCapacityError) Error() string {
	return fmt.Sprintf("table %q capacity exceeded: %d occupied + %d required > %d",
		e.TableName, e.Occupied, e.Required, e.Capacity)
}

// InvitationSeatsError is reported when an invitation's allocations
// would together exceed its own head-count.
type InvitationSeatsError struct {
	PeopleCount uint32
	SeatsWanted uint32
}

func (e *InvitationSeatsError) Error() string {
	return fmt.Sprintf("allocations want %d seats for a %d-person invitation",
		e.SeatsWanted, e.PeopleCount)
}
