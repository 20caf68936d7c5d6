package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/domain"
)

// ListFilter narrows the admin booking listing.
type ListFilter struct {
	Status Status
	CarID  uuid.UUID
	UserID uuid.UUID
	Page   int
	Limit  int
}

// StatusCount is one row of the booking statistics breakdown.
type StatusCount struct {
	Status Status
	Count  int64
}

// Repository is the persistence port for bookings. Mutations that touch the
// availability ledger run inside a single database transaction that holds a
// row lock on the car.
type Repository interface {
	// CreateLocked locks the car row, verifies availability, invokes build
	// with the locked car to construct and price the booking, checks the
	// period against every blocking booking of that car, persists the
	// result and recomputes the car status. Returns the built booking.
	CreateLocked(ctx context.Context, carID uuid.UUID, period DateRange, build BuildFunc) (*Booking, error)

	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[*Booking], error)
	List(ctx context.Context, filter ListFilter) (*domain.PaginatedResult[*Booking], error)

	// UpdateStatus persists a status change and recomputes the car status
	// under the car row lock. Transitions into a blocking status re-run
	// the overlap check before committing.
	UpdateStatus(ctx context.Context, b *Booking) error

	// Delete removes the booking and recomputes the car status under the
	// car row lock.
	Delete(ctx context.Context, b *Booking) error

	CountByStatus(ctx context.Context) ([]StatusCount, error)
}

// BuildFunc constructs the booking once the car is locked. It receives the
// car's daily rate so pricing reflects the rate read under the lock.
type BuildFunc func(dailyRateCents int64) (*Booking, error)
