package booking

import (
	"time"

	"github.com/fleetrent/service-rental/internal/domain"
)

// DateRange is a half-open rental period [Start, End): the car is picked up
// on Start and returned on End, so End itself is free for the next renter.
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange validates that the period is non-empty and well-ordered.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, domain.NewValidationError("start and end dates are required")
	}
	if !end.After(start) {
		return DateRange{}, domain.NewValidationError("end date must be after start date")
	}
	return DateRange{start: start.UTC(), end: end.UTC()}, nil
}

func (r DateRange) Start() time.Time { return r.start }
func (r DateRange) End() time.Time   { return r.end }

// Days returns the number of chargeable rental days, rounding any partial
// day up to a full one.
func (r DateRange) Days() int64 {
	d := r.end.Sub(r.start)
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Overlaps reports whether two half-open ranges share at least one instant.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}
