package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetrent/service-rental/internal/domain"
	carDomain "github.com/fleetrent/service-rental/internal/domain/car"
)

// CarModel is the GORM model for the cars table.
type CarModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Make           string    `gorm:"not null;size:100"`
	Model          string    `gorm:"not null;size:100"`
	Year           int       `gorm:"not null"`
	LicensePlate   string    `gorm:"uniqueIndex;not null;size:20"`
	DailyRateCents int64     `gorm:"not null"`
	Status         string    `gorm:"not null;size:20;index"`
	ImageURL       string    `gorm:"size:500"`
	Version        int       `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CarModel) TableName() string {
	return "cars"
}

// GormCarRepository is the GORM-based implementation of car.Repository.
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository.
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// Create persists a new car. A duplicate license plate maps to a conflict.
func (r *GormCarRepository) Create(ctx context.Context, c *carDomain.Car) error {
	model := toCarModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
			return domain.NewConflictError("license plate is already registered")
		}
		return fmt.Errorf("failed to create car: %w", err)
	}
	return nil
}

// FindByID retrieves a car by its unique identifier.
func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	var model CarModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Car", id.String())
		}
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}
	return toDomainCar(&model)
}

// Search retrieves cars matching the filter with pagination.
func (r *GormCarRepository) Search(ctx context.Context, filter carDomain.SearchFilter) (*domain.PaginatedResult[*carDomain.Car], error) {
	page, limit := normalizePaging(filter.Page, filter.Limit)

	query := r.db.WithContext(ctx).Model(&CarModel{})
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("make ILIKE ? OR model ILIKE ? OR license_plate ILIKE ?", pattern, pattern, pattern)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Make != "" {
		query = query.Where("make ILIKE ?", "%"+filter.Make+"%")
	}
	if filter.Model != "" {
		query = query.Where("model ILIKE ?", "%"+filter.Model+"%")
	}
	if filter.MinRateCents > 0 {
		query = query.Where("daily_rate_cents >= ?", filter.MinRateCents)
	}
	if filter.MaxRateCents > 0 {
		query = query.Where("daily_rate_cents <= ?", filter.MaxRateCents)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count cars: %w", err)
	}

	var models []CarModel
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search cars: %w", err)
	}

	cars := make([]*carDomain.Car, len(models))
	for i, m := range models {
		c, err := toDomainCar(&m)
		if err != nil {
			return nil, err
		}
		cars[i] = c
	}

	return domain.NewPaginatedResult(cars, total, page, limit), nil
}

// Update persists changes to an existing car with optimistic locking.
func (r *GormCarRepository) Update(ctx context.Context, c *carDomain.Car) error {
	model := toCarModel(c)
	model.Version = c.Version() + 1

	result := r.db.WithContext(ctx).
		Model(&CarModel{}).
		Where("id = ? AND version = ?", model.ID, c.Version()).
		Updates(map[string]interface{}{
			"make":             model.Make,
			"model":            model.Model,
			"year":             model.Year,
			"license_plate":    model.LicensePlate,
			"daily_rate_cents": model.DailyRateCents,
			"status":           model.Status,
			"image_url":        model.ImageURL,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update car: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("car was modified by another transaction")
	}
	return nil
}

// Delete removes a car. Cars with any bookings on record cannot be removed.
func (r *GormCarRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCar(tx, id); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&BookingModel{}).Where("car_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count car bookings: %w", err)
		}
		if count > 0 {
			return domain.NewConflictError("car has bookings on record")
		}

		if err := tx.Where("id = ?", id).Delete(&CarModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete car: %w", err)
		}
		return nil
	})
}

// SetStatusDerived reloads the car under a row lock, recomputes its status
// from the confirmed booking count and persists the result.
func (r *GormCarRepository) SetStatusDerived(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	var updated *carDomain.Car
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := lockCar(tx, id)
		if err != nil {
			return err
		}

		c, err := reconcileCarStatus(tx, model)
		if err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// lockCar reads the car row with SELECT ... FOR UPDATE inside tx.
func lockCar(tx *gorm.DB, id uuid.UUID) (*CarModel, error) {
	var model CarModel
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Car", id.String())
		}
		return nil, fmt.Errorf("failed to lock car: %w", err)
	}
	return &model, nil
}

// reconcileCarStatus recomputes and persists the car status from the number
// of confirmed bookings. The caller must hold the car row lock in tx.
func reconcileCarStatus(tx *gorm.DB, model *CarModel) (*carDomain.Car, error) {
	count, err := countConfirmedBookings(tx, model.ID)
	if err != nil {
		return nil, err
	}

	c, err := toDomainCar(model)
	if err != nil {
		return nil, err
	}

	if !c.ApplyDerivedStatus(count) {
		return c, nil
	}

	if err := tx.Model(&CarModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":     string(c.Status()),
			"updated_at": c.UpdatedAt(),
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to update car status: %w", err)
	}
	return c, nil
}

func countConfirmedBookings(tx *gorm.DB, carID uuid.UUID) (int64, error) {
	var count int64
	if err := tx.Model(&BookingModel{}).
		Where("car_id = ? AND status = ?", carID, "confirmed").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}
	return count, nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// --- Conversion Helpers ---

func toCarModel(c *carDomain.Car) *CarModel {
	return &CarModel{
		ID:             c.ID(),
		Make:           c.Make(),
		Model:          c.Model(),
		Year:           c.Year(),
		LicensePlate:   c.LicensePlate(),
		DailyRateCents: c.DailyRateCents(),
		Status:         string(c.Status()),
		ImageURL:       c.ImageURL(),
		Version:        c.Version(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}

func toDomainCar(m *CarModel) (*carDomain.Car, error) {
	status, err := carDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return carDomain.Reconstruct(
		m.ID,
		m.Make,
		m.Model,
		m.Year,
		m.LicensePlate,
		m.DailyRateCents,
		status,
		m.ImageURL,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
