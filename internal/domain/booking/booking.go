package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/domain"
)

// Booking is a reservation of one car by one customer for a date range.
type Booking struct {
	id             uuid.UUID
	carID          uuid.UUID
	userID         uuid.UUID
	customerName   string
	period         DateRange
	totalCostCents int64
	status         Status
	version        int
	createdAt      time.Time
	updatedAt      time.Time
}

// NewBooking creates a booking priced from the daily rate. Bookings are
// confirmed on creation; there is no separate confirmation step.
func NewBooking(carID, userID uuid.UUID, customerName string, period DateRange, dailyRateCents, suppliedCostCents int64) (*Booking, error) {
	if carID == uuid.Nil {
		return nil, domain.NewValidationError("car id is required")
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user id is required")
	}

	quoted := Quote(period, dailyRateCents)
	if err := ValidateQuotedCost(suppliedCostCents, quoted); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:             uuid.New(),
		carID:          carID,
		userID:         userID,
		customerName:   customerName,
		period:         period,
		totalCostCents: quoted,
		status:         StatusConfirmed,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds a Booking from persisted state without validation.
func Reconstruct(
	id, carID, userID uuid.UUID,
	customerName string,
	period DateRange,
	totalCostCents int64,
	status Status,
	version int,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:             id,
		carID:          carID,
		userID:         userID,
		customerName:   customerName,
		period:         period,
		totalCostCents: totalCostCents,
		status:         status,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (b *Booking) ID() uuid.UUID         { return b.id }
func (b *Booking) CarID() uuid.UUID      { return b.carID }
func (b *Booking) UserID() uuid.UUID     { return b.userID }
func (b *Booking) CustomerName() string  { return b.customerName }
func (b *Booking) Period() DateRange     { return b.period }
func (b *Booking) TotalCostCents() int64 { return b.totalCostCents }
func (b *Booking) Status() Status        { return b.status }
func (b *Booking) Version() int          { return b.version }
func (b *Booking) CreatedAt() time.Time  { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time  { return b.updatedAt }

// IsOwnedBy reports whether the booking belongs to the given user.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool {
	return b.userID == userID
}

// TransitionTo moves the booking to the given status, enforcing the
// lifecycle rules.
func (b *Booking) TransitionTo(next Status) error {
	if !next.IsValid() {
		return domain.NewValidationError("invalid booking status: " + next.String())
	}
	if !b.status.CanTransitionTo(next) {
		return domain.NewInvalidStateError(b.status.String(), next.String())
	}
	b.status = next
	b.updatedAt = time.Now().UTC()
	return nil
}
