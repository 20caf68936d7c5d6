package car

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/domain"
)

// SearchFilter narrows the car listing. Zero values mean no filtering.
type SearchFilter struct {
	// Search matches make, model or license plate.
	Search       string
	Status       Status
	Make         string
	Model        string
	MinRateCents int64
	MaxRateCents int64
	Page         int
	Limit        int
}

// Repository is the persistence port for cars.
type Repository interface {
	Create(ctx context.Context, c *Car) error
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)
	Search(ctx context.Context, filter SearchFilter) (*domain.PaginatedResult[*Car], error)
	Update(ctx context.Context, c *Car) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SetStatusDerived reloads the car under a row lock, recomputes its
	// status from the confirmed booking count and persists the result.
	SetStatusDerived(ctx context.Context, id uuid.UUID) (*Car, error)
}
