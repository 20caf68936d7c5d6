package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/domain"
)

// Repository is the persistence port for users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page, limit int) (*domain.PaginatedResult[*User], error)
	Update(ctx context.Context, u *User) error
}
