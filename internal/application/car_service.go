package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetrent/service-rental/internal/domain"
	carDomain "github.com/fleetrent/service-rental/internal/domain/car"
)

// CreateCarRequest holds the data needed to add a car to the fleet.
type CreateCarRequest struct {
	Make           string `json:"make" binding:"required"`
	Model          string `json:"model" binding:"required"`
	Year           int    `json:"year" binding:"required"`
	LicensePlate   string `json:"license_plate" binding:"required"`
	DailyRateCents int64  `json:"daily_rate_cents" binding:"required"`
	ImageURL       string `json:"image_url"`
}

// UpdateCarRequest holds a partial car update. Nil fields keep their
// current value. Status allows a manual override (e.g. maintenance); the
// derived status is recomputed afterwards, so a car with confirmed
// bookings stays rented.
type UpdateCarRequest struct {
	Make           *string `json:"make"`
	Model          *string `json:"model"`
	Year           *int    `json:"year"`
	LicensePlate   *string `json:"license_plate"`
	DailyRateCents *int64  `json:"daily_rate_cents"`
	ImageURL       *string `json:"image_url"`
	Status         *string `json:"status"`
}

// CarDTO is the response representation of a car.
type CarDTO struct {
	ID             uuid.UUID `json:"id"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	LicensePlate   string    `json:"license_plate"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	Status         string    `json:"status"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CarService is the application service orchestrating fleet use cases.
type CarService struct {
	cars   carDomain.Repository
	logger *zap.Logger
}

// NewCarService creates a new CarService.
func NewCarService(cars carDomain.Repository, logger *zap.Logger) *CarService {
	return &CarService{cars: cars, logger: logger}
}

// CreateCar adds a car to the fleet (admin).
func (s *CarService) CreateCar(ctx context.Context, req CreateCarRequest) (*CarDTO, error) {
	c, err := carDomain.NewCar(req.Make, req.Model, req.Year, req.LicensePlate, req.DailyRateCents, req.ImageURL)
	if err != nil {
		return nil, err
	}
	if err := s.cars.Create(ctx, c); err != nil {
		return nil, err
	}
	dto := toCarDTO(c)
	return &dto, nil
}

// GetCar retrieves a single car by ID.
func (s *CarService) GetCar(ctx context.Context, carID uuid.UUID) (*CarDTO, error) {
	c, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	dto := toCarDTO(c)
	return &dto, nil
}

// SearchCars retrieves cars matching the filter with pagination.
func (s *CarService) SearchCars(ctx context.Context, filter carDomain.SearchFilter) (*domain.PaginatedResult[CarDTO], error) {
	result, err := s.cars.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mapPaginated(result, toCarDTO), nil
}

// UpdateCar applies a partial update to a car (admin).
func (s *CarService) UpdateCar(ctx context.Context, carID uuid.UUID, req UpdateCarRequest) (*CarDTO, error) {
	c, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}

	carMake := valueOr(req.Make, c.Make())
	model := valueOr(req.Model, c.Model())
	year := valueOr(req.Year, c.Year())
	plate := valueOr(req.LicensePlate, c.LicensePlate())
	rate := valueOr(req.DailyRateCents, c.DailyRateCents())
	imageURL := valueOr(req.ImageURL, c.ImageURL())

	if err := c.Update(carMake, model, year, plate, rate, imageURL); err != nil {
		return nil, err
	}
	if req.Status != nil {
		status, err := carDomain.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		if err := c.SetStatus(status); err != nil {
			return nil, err
		}
	}

	if err := s.cars.Update(ctx, c); err != nil {
		return nil, err
	}

	// A manual status override must not hide confirmed bookings.
	if req.Status != nil {
		c, err = s.cars.SetStatusDerived(ctx, carID)
		if err != nil {
			return nil, err
		}
	}

	dto := toCarDTO(c)
	return &dto, nil
}

func valueOr[T any](v *T, fallback T) T {
	if v != nil {
		return *v
	}
	return fallback
}

// DeleteCar removes a car from the fleet (admin). Cars with bookings on
// record are refused.
func (s *CarService) DeleteCar(ctx context.Context, carID uuid.UUID) error {
	return s.cars.Delete(ctx, carID)
}

// StartMaintenance takes a car out of service. Cars held by an active
// booking stay rented; the derived status wins.
func (s *CarService) StartMaintenance(ctx context.Context, carID uuid.UUID) error {
	c, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return err
	}
	if err := c.SetStatus(carDomain.StatusMaintenance); err != nil {
		return err
	}
	if err := s.cars.Update(ctx, c); err != nil {
		return err
	}

	// Recompute so a car with active bookings shows rented, not maintenance.
	if _, err := s.cars.SetStatusDerived(ctx, carID); err != nil {
		return err
	}

	s.logger.Info("car entered maintenance", zap.String("car_id", carID.String()))
	return nil
}

// EndMaintenance returns a car to service, recomputing its status from the
// booking ledger.
func (s *CarService) EndMaintenance(ctx context.Context, carID uuid.UUID) error {
	c, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		return err
	}
	if err := c.SetStatus(carDomain.StatusAvailable); err != nil {
		return err
	}
	if err := s.cars.Update(ctx, c); err != nil {
		return err
	}

	if _, err := s.cars.SetStatusDerived(ctx, carID); err != nil {
		return err
	}

	s.logger.Info("car left maintenance", zap.String("car_id", carID.String()))
	return nil
}

func toCarDTO(c *carDomain.Car) CarDTO {
	return CarDTO{
		ID:             c.ID(),
		Make:           c.Make(),
		Model:          c.Model(),
		Year:           c.Year(),
		LicensePlate:   c.LicensePlate(),
		DailyRateCents: c.DailyRateCents(),
		Status:         c.Status().String(),
		ImageURL:       c.ImageURL(),
		CreatedAt:      c.CreatedAt(),
		UpdatedAt:      c.UpdatedAt(),
	}
}
