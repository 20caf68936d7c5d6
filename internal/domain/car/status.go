package car

import "github.com/fleetrent/service-rental/internal/domain"

// Status is the fleet availability state of a car.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusRented      Status = "rented"
	StatusMaintenance Status = "maintenance"
)

// ParseStatus validates and converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", domain.NewValidationError("invalid car status: " + raw)
	}
	return s, nil
}

// IsValid reports whether the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusRented, StatusMaintenance:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// DeriveStatus computes the status a car should hold given the number of
// confirmed bookings currently recorded against it. A manually set
// maintenance status survives as long as no confirmed booking exists;
// a single confirmed booking always forces rented.
func DeriveStatus(current Status, confirmedCount int64) Status {
	if confirmedCount > 0 {
		return StatusRented
	}
	if current == StatusMaintenance {
		return StatusMaintenance
	}
	return StatusAvailable
}
