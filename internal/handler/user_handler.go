package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/application"
	"github.com/fleetrent/service-rental/internal/auth"
	"github.com/fleetrent/service-rental/internal/middleware"
	"github.com/fleetrent/service-rental/internal/response"
)

// UserHandler handles HTTP requests for account administration.
type UserHandler struct {
	service *application.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *application.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers all user admin routes on the given router group.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	users := r.Group("/users")
	users.Use(middleware.Auth(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.PUT("/:id/promote", h.Promote)
	}
}

// ListUsers handles GET /api/v1/users (admin).
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// Promote handles PUT /api/v1/users/:id/promote (admin).
func (h *UserHandler) Promote(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user ID")
		return
	}

	result, err := h.service.PromoteToAdmin(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
