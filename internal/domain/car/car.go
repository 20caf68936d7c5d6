package car

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetrent/service-rental/internal/domain"
)

const minModelYear = 1980

// Car is a rentable vehicle in the fleet.
type Car struct {
	id             uuid.UUID
	make           string
	model          string
	year           int
	licensePlate   string
	dailyRateCents int64
	status         Status
	imageURL       string
	version        int
	createdAt      time.Time
	updatedAt      time.Time
}

// NewCar validates the inputs and creates a new available car.
func NewCar(carMake, model string, year int, licensePlate string, dailyRateCents int64, imageURL string) (*Car, error) {
	carMake = strings.TrimSpace(carMake)
	model = strings.TrimSpace(model)
	licensePlate = strings.ToUpper(strings.TrimSpace(licensePlate))

	if carMake == "" {
		return nil, domain.NewValidationError("make is required")
	}
	if model == "" {
		return nil, domain.NewValidationError("model is required")
	}
	if licensePlate == "" {
		return nil, domain.NewValidationError("license plate is required")
	}
	currentYear := time.Now().Year()
	if year < minModelYear || year > currentYear+1 {
		return nil, domain.NewValidationError("year is out of range")
	}
	if dailyRateCents <= 0 {
		return nil, domain.NewValidationError("daily rate must be positive")
	}

	now := time.Now().UTC()
	return &Car{
		id:             uuid.New(),
		make:           carMake,
		model:          model,
		year:           year,
		licensePlate:   licensePlate,
		dailyRateCents: dailyRateCents,
		status:         StatusAvailable,
		imageURL:       imageURL,
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// Reconstruct rebuilds a Car from persisted state without validation.
func Reconstruct(
	id uuid.UUID,
	carMake, model string,
	year int,
	licensePlate string,
	dailyRateCents int64,
	status Status,
	imageURL string,
	version int,
	createdAt, updatedAt time.Time,
) *Car {
	return &Car{
		id:             id,
		make:           carMake,
		model:          model,
		year:           year,
		licensePlate:   licensePlate,
		dailyRateCents: dailyRateCents,
		status:         status,
		imageURL:       imageURL,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (c *Car) ID() uuid.UUID         { return c.id }
func (c *Car) Make() string          { return c.make }
func (c *Car) Model() string         { return c.model }
func (c *Car) Year() int             { return c.year }
func (c *Car) LicensePlate() string  { return c.licensePlate }
func (c *Car) DailyRateCents() int64 { return c.dailyRateCents }
func (c *Car) Status() Status        { return c.status }
func (c *Car) ImageURL() string      { return c.imageURL }
func (c *Car) Version() int          { return c.version }
func (c *Car) CreatedAt() time.Time  { return c.createdAt }
func (c *Car) UpdatedAt() time.Time  { return c.updatedAt }

// IsAvailable reports whether new bookings may be taken against the car.
func (c *Car) IsAvailable() bool {
	return c.status == StatusAvailable
}

// SetStatus moves the car to the given status.
func (c *Car) SetStatus(status Status) error {
	if !status.IsValid() {
		return domain.NewValidationError("invalid car status: " + status.String())
	}
	c.status = status
	c.updatedAt = time.Now().UTC()
	return nil
}

// ApplyDerivedStatus recomputes the status from the confirmed booking count
// and reports whether it changed.
func (c *Car) ApplyDerivedStatus(confirmedCount int64) bool {
	next := DeriveStatus(c.status, confirmedCount)
	if next == c.status {
		return false
	}
	c.status = next
	c.updatedAt = time.Now().UTC()
	return true
}

// Update replaces the mutable attributes of the car.
func (c *Car) Update(carMake, model string, year int, licensePlate string, dailyRateCents int64, imageURL string) error {
	carMake = strings.TrimSpace(carMake)
	model = strings.TrimSpace(model)
	licensePlate = strings.ToUpper(strings.TrimSpace(licensePlate))

	if carMake == "" {
		return domain.NewValidationError("make is required")
	}
	if model == "" {
		return domain.NewValidationError("model is required")
	}
	if licensePlate == "" {
		return domain.NewValidationError("license plate is required")
	}
	currentYear := time.Now().Year()
	if year < minModelYear || year > currentYear+1 {
		return domain.NewValidationError("year is out of range")
	}
	if dailyRateCents <= 0 {
		return domain.NewValidationError("daily rate must be positive")
	}

	c.make = carMake
	c.model = model
	c.year = year
	c.licensePlate = licensePlate
	c.dailyRateCents = dailyRateCents
	c.imageURL = imageURL
	c.updatedAt = time.Now().UTC()
	return nil
}
