package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetrent/service-rental/internal/application"
	"github.com/fleetrent/service-rental/internal/auth"
	"github.com/fleetrent/service-rental/internal/middleware"
	"github.com/fleetrent/service-rental/internal/response"
)

// ReportHandler handles HTTP requests for admin reports.
type ReportHandler struct {
	service *application.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(service *application.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// RegisterRoutes registers all report routes on the given router group.
func (h *ReportHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	reports := r.Group("/reports")
	reports.Use(middleware.Auth(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		reports.GET("/revenue", h.Revenue)
		reports.GET("/popular-cars", h.PopularCars)
		reports.GET("/car-utilization", h.CarUtilization)
	}
}

// Revenue handles GET /api/v1/reports/revenue (admin). Defaults to the
// last 30 days.
func (h *ReportHandler) Revenue(c *gin.Context) {
	from, to, ok := parseReportWindow(c)
	if !ok {
		return
	}

	result, err := h.service.RevenueReport(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PopularCars handles GET /api/v1/reports/popular-cars (admin).
func (h *ReportHandler) PopularCars(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	result, err := h.service.PopularCars(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CarUtilization handles GET /api/v1/reports/car-utilization (admin).
func (h *ReportHandler) CarUtilization(c *gin.Context) {
	from, to, ok := parseReportWindow(c)
	if !ok {
		return
	}

	result, err := h.service.CarUtilization(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseReportWindow reads the start_date/end_date query parameters,
// defaulting to the last 30 days. Writes the error response itself.
func parseReportWindow(c *gin.Context) (from, to time.Time, ok bool) {
	to = time.Now().UTC()
	from = to.AddDate(0, 0, -30)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "invalid start_date, expected RFC3339")
			return from, to, false
		}
		from = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "invalid end_date, expected RFC3339")
			return from, to, false
		}
		to = parsed
	}
	if !to.After(from) {
		response.BadRequest(c, "end_date must be after start_date")
		return from, to, false
	}
	return from, to, true
}
