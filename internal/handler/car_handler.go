package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/application"
	"github.com/fleetrent/service-rental/internal/auth"
	carDomain "github.com/fleetrent/service-rental/internal/domain/car"
	"github.com/fleetrent/service-rental/internal/middleware"
	"github.com/fleetrent/service-rental/internal/response"
)

// CarHandler handles HTTP requests for fleet operations.
type CarHandler struct {
	service *application.CarService
}

// NewCarHandler creates a new CarHandler.
func NewCarHandler(service *application.CarService) *CarHandler {
	return &CarHandler{service: service}
}

// RegisterRoutes registers all car routes on the given router group.
// Listing and reading cars is public; mutations are admin only.
func (h *CarHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.Auth(jwtManager)
	adminMW := middleware.RequireRole(auth.RoleAdmin)

	cars := r.Group("/cars")
	{
		cars.GET("", h.SearchCars)
		cars.GET("/:id", h.GetCar)
		cars.POST("", authMW, adminMW, h.CreateCar)
		cars.PUT("/:id", authMW, adminMW, h.UpdateCar)
		cars.DELETE("/:id", authMW, adminMW, h.DeleteCar)
		cars.POST("/:id/maintenance", authMW, adminMW, h.StartMaintenance)
		cars.DELETE("/:id/maintenance", authMW, adminMW, h.EndMaintenance)
	}
}

// SearchCars handles GET /api/v1/cars.
func (h *CarHandler) SearchCars(c *gin.Context) {
	page, limit := parsePagination(c)
	filter := carDomain.SearchFilter{
		Search: c.Query("search"),
		Make:   c.Query("make"),
		Model:  c.Query("model"),
		Page:   page,
		Limit:  limit,
	}

	if raw := c.Query("status"); raw != "" {
		status, err := carDomain.ParseStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = status
	}
	if raw := c.Query("min_rate_cents"); raw != "" {
		rate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || rate < 0 {
			response.BadRequest(c, "invalid min_rate_cents")
			return
		}
		filter.MinRateCents = rate
	}
	if raw := c.Query("max_rate_cents"); raw != "" {
		rate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || rate < 0 {
			response.BadRequest(c, "invalid max_rate_cents")
			return
		}
		filter.MaxRateCents = rate
	}

	result, err := h.service.SearchCars(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetCar handles GET /api/v1/cars/:id.
func (h *CarHandler) GetCar(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid car ID")
		return
	}

	result, err := h.service.GetCar(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateCar handles POST /api/v1/cars (admin).
func (h *CarHandler) CreateCar(c *gin.Context) {
	var req application.CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateCar(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateCar handles PUT /api/v1/cars/:id (admin).
func (h *CarHandler) UpdateCar(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid car ID")
		return
	}

	var req application.UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateCar(c.Request.Context(), carID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteCar handles DELETE /api/v1/cars/:id (admin).
func (h *CarHandler) DeleteCar(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid car ID")
		return
	}

	if err := h.service.DeleteCar(c.Request.Context(), carID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "car deleted"})
}

// StartMaintenance handles POST /api/v1/cars/:id/maintenance (admin).
func (h *CarHandler) StartMaintenance(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid car ID")
		return
	}

	if err := h.service.StartMaintenance(c.Request.Context(), carID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.GetCar(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// EndMaintenance handles DELETE /api/v1/cars/:id/maintenance (admin).
func (h *CarHandler) EndMaintenance(c *gin.Context) {
	carID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid car ID")
		return
	}

	if err := h.service.EndMaintenance(c.Request.Context(), carID); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.GetCar(c.Request.Context(), carID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
