package ledger

import (
	"errors"
	"testing"

	"github.com/guestgate/event-checkin/internal/model"
)

func TestCheckScanSequence(t *testing.T) {
	// A four-person invitation admits exactly four scans; the fifth
	// reports capacity reached with the state unchanged.
	inv := model.Invitation{Label: "Famille Martin", PeopleCount: 4, ScannedCount: 0}
	for i := 0; i < 4; i++ {
		if err := checkScan(inv); err != nil {
			t.Fatalf("scan %d: unexpected error %v", i+1, err)
		}
		inv.ScannedCount++
	}
	err := checkScan(inv)
	var capErr *CapacityReachedError
	if !errors.As(err, &capErr) {
		t.Fatalf("scan 5: error = %v, want CapacityReachedError", err)
	}
	if capErr.Invitation.ScannedCount != 4 || capErr.Invitation.PeopleCount != 4 {
		t.Errorf("error snapshot = %d/%d, want 4/4",
			capErr.Invitation.ScannedCount, capErr.Invitation.PeopleCount)
	}
}

func TestCheckReverse(t *testing.T) {
	tests := []struct {
		name    string
		scanned uint32
		wantErr bool
	}{
		{"nothing scanned", 0, true},
		{"one scanned", 1, false},
		{"fully scanned", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := model.Invitation{PeopleCount: 3, ScannedCount: tt.scanned}
			err := checkReverse(inv)
			if tt.wantErr && !errors.Is(err, ErrNothingToReverse) {
				t.Errorf("error = %v, want ErrNothingToReverse", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckTableCapacity(t *testing.T) {
	table := model.GuestTable{Name: "Table d'honneur", Capacity: 10}
	tests := []struct {
		name     string
		occupied uint32
		required uint32
		wantErr  bool
	}{
		{"empty table full batch", 0, 10, false},
		{"8 occupied plus 3 rejected", 8, 3, true},
		{"8 occupied plus 2 fits exactly", 8, 2, false},
		{"full table any batch", 10, 1, true},
		{"zero required always fits", 10, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkTableCapacity(table, tt.occupied, tt.required)
			if tt.wantErr {
				var capErr *TableCapacityError
				if !errors.As(err, &capErr) {
					t.Fatalf("error = %v, want TableCapacityError", err)
				}
				if capErr.Occupied != tt.occupied || capErr.Required != tt.required || capErr.Capacity != 10 {
					t.Errorf("error detail = %d+%d>%d, want %d+%d>10",
						capErr.Occupied, capErr.Required, capErr.Capacity, tt.occupied, tt.required)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckInvitationSeats(t *testing.T) {
	if err := checkInvitationSeats(4, 4); err != nil {
		t.Errorf("4 seats for 4 people: unexpected error %v", err)
	}
	if err := checkInvitationSeats(4, 5); err == nil {
		t.Error("5 seats for 4 people: expected error")
	}
	var seatsErr *InvitationSeatsError
	if err := checkInvitationSeats(2, 7); !errors.As(err, &seatsErr) {
		t.Fatalf("error = %v, want InvitationSeatsError", err)
	} else if seatsErr.PeopleCount != 2 || seatsErr.SeatsWanted != 7 {
		t.Errorf("error detail = %+v, want 2/7", seatsErr)
	}
}

func TestSumSeats(t *testing.T) {
	allocs := []AllocationInput{
		{TableID: 1, SeatsAssigned: 2},
		{TableID: 3, SeatsAssigned: 1},
		{TableID: 2, SeatsAssigned: 4},
	}
	if got := sumSeats(allocs); got != 7 {
		t.Errorf("sumSeats = %d, want 7", got)
	}
	if got := sumSeats(nil); got != 0 {
		t.Errorf("sumSeats(nil) = %d, want 0", got)
	}
}
