package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RevenueReportDTO summarizes booking revenue over a period. Cancelled
// bookings do not count toward revenue.
type RevenueReportDTO struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	TotalRevenueCents int64     `json:"total_revenue_cents"`
	BookingCount      int64     `json:"booking_count"`
}

// PopularCarDTO is one row of the most-booked-cars report.
type PopularCarDTO struct {
	CarID        uuid.UUID `json:"car_id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	LicensePlate string    `json:"license_plate"`
	BookingCount int64     `json:"booking_count"`
}

// CarUtilizationDTO is one row of the per-car utilization report: how many
// of the window's days the car was booked for.
type CarUtilizationDTO struct {
	CarID           uuid.UUID `json:"car_id"`
	Make            string    `json:"make"`
	Model           string    `json:"model"`
	LicensePlate    string    `json:"license_plate"`
	BookedDays      float64   `json:"booked_days"`
	UtilizationRate float64   `json:"utilization_rate"`
}

// ReportService produces admin reports straight from the database.
type ReportService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(db *gorm.DB, logger *zap.Logger) *ReportService {
	return &ReportService{db: db, logger: logger}
}

// RevenueReport sums confirmed and completed booking revenue for bookings
// created in the period.
func (s *ReportService) RevenueReport(ctx context.Context, from, to time.Time) (*RevenueReportDTO, error) {
	var row struct {
		Total int64
		Count int64
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(total_cost_cents), 0) AS total, COUNT(*) AS count
		FROM bookings
		WHERE status IN ('confirmed', 'completed') AND created_at >= ? AND created_at < ?`,
		from, to,
	).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute revenue report: %w", err)
	}

	return &RevenueReportDTO{
		From:              from,
		To:                to,
		TotalRevenueCents: row.Total,
		BookingCount:      row.Count,
	}, nil
}

// PopularCars returns the most-booked cars, busiest first.
func (s *ReportService) PopularCars(ctx context.Context, limit int) ([]PopularCarDTO, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	var rows []PopularCarDTO
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.id AS car_id, c.make, c.model, c.license_plate, COUNT(b.id) AS booking_count
		FROM cars c
		JOIN bookings b ON b.car_id = c.id AND b.status <> 'cancelled'
		GROUP BY c.id, c.make, c.model, c.license_plate
		ORDER BY booking_count DESC, c.make, c.model
		LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute popular cars report: %w", err)
	}
	return rows, nil
}

// CarUtilization returns booked days per car within the window. Booking
// periods are clamped to the window edges; cancelled bookings are ignored.
func (s *ReportService) CarUtilization(ctx context.Context, from, to time.Time) ([]CarUtilizationDTO, error) {
	windowDays := to.Sub(from).Hours() / 24
	if windowDays <= 0 {
		return nil, fmt.Errorf("utilization window is empty")
	}

	var rows []CarUtilizationDTO
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			c.id AS car_id,
			c.make,
			c.model,
			c.license_plate,
			COALESCE(SUM(
				GREATEST(0, EXTRACT(EPOCH FROM (LEAST(b.end_date, ?::timestamptz) - GREATEST(b.start_date, ?::timestamptz))) / 86400)
			), 0) AS booked_days
		FROM cars c
		LEFT JOIN bookings b
			ON b.car_id = c.id
			AND b.status <> 'cancelled'
			AND b.start_date < ?
			AND b.end_date > ?
		GROUP BY c.id, c.make, c.model, c.license_plate
		ORDER BY booked_days DESC, c.make, c.model`,
		to, from, to, from,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute utilization report: %w", err)
	}

	for i := range rows {
		rows[i].UtilizationRate = rows[i].BookedDays / windowDays
	}
	return rows, nil
}
