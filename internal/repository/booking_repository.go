package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fleetrent/service-rental/internal/domain"
	bookingDomain "github.com/fleetrent/service-rental/internal/domain/booking"
	carDomain "github.com/fleetrent/service-rental/internal/domain/car"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	CarID          uuid.UUID `gorm:"type:uuid;index;not null"`
	UserID         uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerName   string    `gorm:"not null;size:200"`
	StartDate      time.Time `gorm:"not null;index"`
	EndDate        time.Time `gorm:"not null;index"`
	TotalCostCents int64     `gorm:"not null"`
	Status         string    `gorm:"not null;size:20;index"`
	Version        int       `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

func blockingStatuses() []string {
	return []string{
		string(bookingDomain.StatusPending),
		string(bookingDomain.StatusConfirmed),
	}
}

// GormBookingRepository is the GORM-based implementation of booking.Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// CreateLocked creates a booking while holding a row lock on the car, so two
// concurrent requests for the same car serialize and the overlap check sees
// every committed booking.
func (r *GormBookingRepository) CreateLocked(
	ctx context.Context,
	carID uuid.UUID,
	period bookingDomain.DateRange,
	build bookingDomain.BuildFunc,
) (*bookingDomain.Booking, error) {
	var created *bookingDomain.Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carModel, err := lockCar(tx, carID)
		if err != nil {
			return err
		}
		if carModel.Status != string(carDomain.StatusAvailable) {
			return domain.NewConflictError("car is not available for booking")
		}

		overlapping, err := hasOverlappingBooking(tx, carID, period, uuid.Nil)
		if err != nil {
			return err
		}
		if overlapping {
			return domain.NewConflictError("car is already booked for the selected dates")
		}

		bk, err := build(carModel.DailyRateCents)
		if err != nil {
			return err
		}

		if err := tx.Create(toBookingModel(bk)).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		if _, err := reconcileCarStatus(tx, carModel); err != nil {
			return err
		}

		created = bk
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves bookings for a specific user with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[*bookingDomain.Booking], error) {
	page, limit = normalizePaging(page, limit)

	query := r.db.WithContext(ctx).Model(&BookingModel{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	if err := query.
		Order("start_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find user bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, err
	}
	return domain.NewPaginatedResult(bookings, total, page, limit), nil
}

// List retrieves bookings matching the filter with pagination (admin).
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter) (*domain.PaginatedResult[*bookingDomain.Booking], error) {
	page, limit := normalizePaging(filter.Page, filter.Limit)

	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.CarID != uuid.Nil {
		query = query.Where("car_id = ?", filter.CarID)
	}
	if filter.UserID != uuid.Nil {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, err
	}
	return domain.NewPaginatedResult(bookings, total, page, limit), nil
}

// UpdateStatus persists a status change under the car row lock. Moving into
// a blocking status re-runs the overlap check so a reactivated booking gets
// the same date validation a new one does.
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, bk *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carModel, err := lockCar(tx, bk.CarID())
		if err != nil {
			return err
		}

		if bk.Status().BlocksCar() {
			overlapping, err := hasOverlappingBooking(tx, bk.CarID(), bk.Period(), bk.ID())
			if err != nil {
				return err
			}
			if overlapping {
				return domain.NewConflictError("car is already booked for the selected dates")
			}
		}

		result := tx.Model(&BookingModel{}).
			Where("id = ? AND version = ?", bk.ID(), bk.Version()).
			Updates(map[string]interface{}{
				"status":     string(bk.Status()),
				"version":    bk.Version() + 1,
				"updated_at": bk.UpdatedAt(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update booking status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("booking was modified by another transaction")
		}

		_, err = reconcileCarStatus(tx, carModel)
		return err
	})
}

// Delete removes the booking and recomputes the car status under the car
// row lock.
func (r *GormBookingRepository) Delete(ctx context.Context, bk *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		carModel, err := lockCar(tx, bk.CarID())
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", bk.ID()).Delete(&BookingModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewNotFoundError("Booking", bk.ID().String())
		}

		_, err = reconcileCarStatus(tx, carModel)
		return err
	})
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) ([]bookingDomain.StatusCount, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Order("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make([]bookingDomain.StatusCount, len(results))
	for i, sc := range results {
		counts[i] = bookingDomain.StatusCount{
			Status: bookingDomain.Status(sc.Status),
			Count:  sc.Count,
		}
	}
	return counts, nil
}

// hasOverlappingBooking reports whether any blocking booking of the car
// shares at least one instant with the period. Ranges are half-open, so a
// booking ending exactly when another starts does not overlap. excludeID
// skips the booking being modified.
func hasOverlappingBooking(tx *gorm.DB, carID uuid.UUID, period bookingDomain.DateRange, excludeID uuid.UUID) (bool, error) {
	query := tx.Model(&BookingModel{}).
		Where("car_id = ? AND status IN ?", carID, blockingStatuses()).
		Where("start_date < ? AND end_date > ?", period.End(), period.Start())
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return count > 0, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:             bk.ID(),
		CarID:          bk.CarID(),
		UserID:         bk.UserID(),
		CustomerName:   bk.CustomerName(),
		StartDate:      bk.Period().Start(),
		EndDate:        bk.Period().End(),
		TotalCostCents: bk.TotalCostCents(),
		Status:         string(bk.Status()),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	period, err := bookingDomain.NewDateRange(m.StartDate, m.EndDate)
	if err != nil {
		return nil, err
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.CarID,
		m.UserID,
		m.CustomerName,
		period,
		m.TotalCostCents,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
