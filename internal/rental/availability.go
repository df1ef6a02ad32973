package rental

import (
	"time"

	"github.com/google/uuid"

	"machinery-rental-backend/internal/model"
)

// Decision is the outcome of an availability check. Conflicts is the number
// of open rentals overlapping the candidate interval; it is reported back on
// rejection so a caller can adjust dates.
type Decision struct {
	Admit     bool `json:"admit"`
	Conflicts int  `json:"conflicts"`
}

// Overlaps reports whether the half-open intervals [start, end) and
// [bStart, bEnd) intersect. Exactly-touching intervals do not overlap, so a
// rental ending at an instant never blocks one starting at that instant.
func Overlaps(start, end, bStart, bEnd time.Time) bool {
	return start.Before(bEnd) && end.After(bStart)
}

// Check decides whether a candidate interval can be admitted for a machinery
// with the given stock, counting the open rentals that overlap it. A rental
// whose ID equals excludeID is skipped, so an edit of an existing rental does
// not conflict with itself. Zero stock always rejects.
func Check(stock int, existing []model.Rental, start, end time.Time, excludeID uuid.UUID) Decision {
	if !end.After(start) {
		return Decision{Admit: false}
	}

	conflicts := 0
	for _, r := range existing {
		if excludeID != uuid.Nil && r.ID == excludeID {
			continue
		}
		if Overlaps(start, end, r.StartAt, r.EndAt) {
			conflicts++
		}
	}

	return Decision{
		Admit:     conflicts < stock,
		Conflicts: conflicts,
	}
}
