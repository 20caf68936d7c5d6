package booking

import "github.com/fleetrent/service-rental/internal/domain"

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates and converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", domain.NewValidationError("invalid booking status: " + raw)
	}
	return s, nil
}

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// BlocksCar reports whether a booking in this status holds the car,
// i.e. counts toward overlap checks and the rented ledger.
func (s Status) BlocksCar() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo reports whether the booking may move from s to next.
// Terminal statuses reject every transition; non-terminal statuses may
// move to any other valid status.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	return s != next
}

func (s Status) String() string { return string(s) }
