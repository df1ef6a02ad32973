package rental

import (
	"time"

	"machinery-rental-backend/internal/model"
)

// Status is the derived lifecycle state of a rental. It is computed against
// wall-clock time at query time and never stored, so reports cannot go stale.
type Status string

const (
	StatusActive   Status = "active"
	StatusOverdue  Status = "overdue"
	StatusReturned Status = "returned"
)

// StatusAt classifies a rental at the given instant. Returned is terminal;
// an open rental becomes overdue the moment now reaches its end.
func StatusAt(r model.Rental, now time.Time) Status {
	if !r.IsActive {
		return StatusReturned
	}
	if !now.Before(r.EndAt) {
		return StatusOverdue
	}
	return StatusActive
}
