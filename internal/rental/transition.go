package rental

import (
	"fmt"

	"github.com/aoideee/library-rentals/internal/data"
)

// transition is the only place a reservation's status changes. An ACTIVE
// reservation may become RETURNED or OVERDUE; every other move is a conflict.
func transition(r *data.Reservation, next data.Status) error {
	if r.Status.Terminal() {
		return fmt.Errorf("%w: reservation %d is already %s", ErrConflict, r.ID, r.Status)
	}

	switch next {
	case data.StatusReturned, data.StatusOverdue:
		r.Status = next
		return nil
	default:
		return fmt.Errorf("%w: reservation %d cannot move from %s to %s", ErrConflict, r.ID, r.Status, next)
	}
}
