package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetrent/service-rental/internal/domain"
	userDomain "github.com/fleetrent/service-rental/internal/domain/user"
)

// UserService handles account administration.
type UserService struct {
	users  userDomain.Repository
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users userDomain.Repository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// ListUsers retrieves users with pagination (admin).
func (s *UserService) ListUsers(ctx context.Context, page, limit int) (*domain.PaginatedResult[UserDTO], error) {
	result, err := s.users.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	return mapPaginated(result, toUserDTO), nil
}

// PromoteToAdmin grants a user the admin role (admin).
func (s *UserService) PromoteToAdmin(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role() == userDomain.RoleAdmin {
		return nil, domain.NewValidationError("user is already an admin")
	}

	if err := u.Promote(userDomain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user promoted to admin", zap.String("user_id", userID.String()))
	dto := toUserDTO(u)
	return &dto, nil
}
