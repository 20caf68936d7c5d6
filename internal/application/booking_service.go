package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetrent/service-rental/internal/domain"
	bookingDomain "github.com/fleetrent/service-rental/internal/domain/booking"
	carDomain "github.com/fleetrent/service-rental/internal/domain/car"
	userDomain "github.com/fleetrent/service-rental/internal/domain/user"
	"github.com/fleetrent/service-rental/internal/events"
	"github.com/fleetrent/service-rental/internal/kafka"
)

// EventPublisher publishes CloudEvents to the bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CarID          uuid.UUID `json:"car_id" binding:"required"`
	StartDate      time.Time `json:"start_date" binding:"required"`
	EndDate        time.Time `json:"end_date" binding:"required"`
	TotalCostCents int64     `json:"total_cost_cents"`
}

// UpdateBookingStatusRequest holds the data for a status change.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CarSummaryDTO is the embedded car representation in booking responses.
type CarSummaryDTO struct {
	ID           uuid.UUID `json:"id"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	LicensePlate string    `json:"license_plate"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID      `json:"id"`
	CarID          uuid.UUID      `json:"car_id"`
	UserID         uuid.UUID      `json:"user_id"`
	CustomerName   string         `json:"customer_name"`
	CustomerEmail  string         `json:"customer_email,omitempty"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	TotalCostCents int64          `json:"total_cost_cents"`
	Status         string         `json:"status"`
	Car            *CarSummaryDTO `json:"car,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings bookingDomain.Repository
	cars     carDomain.Repository
	users    userDomain.Repository
	producer EventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	cars carDomain.Repository,
	users userDomain.Repository,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		cars:     cars,
		users:    users,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking books a car for the given user. The car row is locked for
// the duration of the availability and overlap checks, so concurrent
// requests for the same car cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	period, err := bookingDomain.NewDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	bk, err := s.bookings.CreateLocked(ctx, req.CarID, period, func(dailyRateCents int64) (*bookingDomain.Booking, error) {
		return bookingDomain.NewBooking(req.CarID, userID, u.Name(), period, dailyRateCents, req.TotalCostCents)
	})
	if err != nil {
		return nil, err
	}

	evt := events.BookingConfirmedEvent{
		BookingID:      bk.ID(),
		CarID:          bk.CarID(),
		UserID:         bk.UserID(),
		StartDate:      bk.Period().Start(),
		EndDate:        bk.Period().End(),
		TotalCostCents: bk.TotalCostCents(),
	}
	s.publishEvent(ctx, events.TypeBookingConfirmed, evt)

	return s.toDTOWithCar(ctx, bk), nil
}

// GetBooking retrieves a single booking. Customers may only read their own.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !bk.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	return s.toDTOWithCar(ctx, bk), nil
}

// GetUserBookings retrieves paginated bookings for a specific user. Each
// item carries the car summary.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	result, err := s.bookings.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := mapPaginated(result, toBookingDTO)
	s.attachCarSummaries(ctx, dtos.Items)
	return dtos, nil
}

// ListBookings returns a paginated, filtered list of all bookings (admin).
// Each item carries the car summary and the customer's email.
func (s *BookingService) ListBookings(ctx context.Context, filter bookingDomain.ListFilter) (*domain.PaginatedResult[BookingDTO], error) {
	result, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	dtos := mapPaginated(result, toBookingDTO)
	s.attachCarSummaries(ctx, dtos.Items)
	s.attachCustomerEmails(ctx, dtos.Items)
	return dtos, nil
}

// UpdateBookingStatus moves a booking through its lifecycle (admin).
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, req UpdateBookingStatusRequest) (*BookingDTO, error) {
	next, err := bookingDomain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	from := bk.Status()

	if err := bk.TransitionTo(next); err != nil {
		return nil, err
	}

	if err := s.bookings.UpdateStatus(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingStatusChangedEvent{
		BookingID: bk.ID(),
		CarID:     bk.CarID(),
		From:      from.String(),
		To:        next.String(),
	}
	s.publishEvent(ctx, events.TypeBookingStatusChanged, evt)

	return s.toDTOWithCar(ctx, bk), nil
}

// DeleteBooking removes a booking. Customers may only delete their own.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID, requesterID uuid.UUID, isAdmin bool) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if !isAdmin && !bk.IsOwnedBy(requesterID) {
		return domain.NewForbiddenError("booking does not belong to this user")
	}

	if err := s.bookings.Delete(ctx, bk); err != nil {
		return err
	}

	evt := events.BookingDeletedEvent{
		BookingID: bk.ID(),
		CarID:     bk.CarID(),
		Status:    bk.Status().String(),
	}
	s.publishEvent(ctx, events.TypeBookingDeleted, evt)

	return nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	stats := &BookingStatsDTO{ByStatus: make(map[string]int64)}
	for _, c := range counts {
		stats.ByStatus[c.Status.String()] = c.Count
		stats.TotalBookings += c.Count
	}
	return stats, nil
}

// --- Helpers ---

func (s *BookingService) toDTOWithCar(ctx context.Context, bk *bookingDomain.Booking) *BookingDTO {
	dto := toBookingDTO(bk)

	c, err := s.cars.FindByID(ctx, bk.CarID())
	if err != nil {
		s.logger.Warn("failed to load car for booking response",
			zap.String("booking_id", bk.ID().String()),
			zap.String("car_id", bk.CarID().String()),
			zap.Error(err),
		)
		return &dto
	}

	dto.Car = &CarSummaryDTO{
		ID:           c.ID(),
		Make:         c.Make(),
		Model:        c.Model(),
		LicensePlate: c.LicensePlate(),
	}
	return &dto
}

// attachCarSummaries loads the car summary for each item, deduplicating
// lookups within the page. A car that fails to load only logs a warning so
// the listing still renders.
func (s *BookingService) attachCarSummaries(ctx context.Context, items []BookingDTO) {
	cache := make(map[uuid.UUID]*CarSummaryDTO)
	for i := range items {
		summary, seen := cache[items[i].CarID]
		if !seen {
			c, err := s.cars.FindByID(ctx, items[i].CarID)
			if err != nil {
				s.logger.Warn("failed to load car for booking list",
					zap.String("booking_id", items[i].ID.String()),
					zap.String("car_id", items[i].CarID.String()),
					zap.Error(err),
				)
				cache[items[i].CarID] = nil
				continue
			}
			summary = &CarSummaryDTO{
				ID:           c.ID(),
				Make:         c.Make(),
				Model:        c.Model(),
				LicensePlate: c.LicensePlate(),
			}
			cache[items[i].CarID] = summary
		}
		if summary != nil {
			items[i].Car = summary
		}
	}
}

// attachCustomerEmails fills in the customer email for the admin listing,
// deduplicating lookups within the page.
func (s *BookingService) attachCustomerEmails(ctx context.Context, items []BookingDTO) {
	cache := make(map[uuid.UUID]string)
	for i := range items {
		email, seen := cache[items[i].UserID]
		if !seen {
			u, err := s.users.FindByID(ctx, items[i].UserID)
			if err != nil {
				s.logger.Warn("failed to load user for booking list",
					zap.String("booking_id", items[i].ID.String()),
					zap.String("user_id", items[i].UserID.String()),
					zap.Error(err),
				)
				cache[items[i].UserID] = ""
				continue
			}
			email = u.Email()
			cache[items[i].UserID] = email
		}
		items[i].CustomerEmail = email
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		CarID:          bk.CarID(),
		UserID:         bk.UserID(),
		CustomerName:   bk.CustomerName(),
		StartDate:      bk.Period().Start(),
		EndDate:        bk.Period().End(),
		TotalCostCents: bk.TotalCostCents(),
		Status:         bk.Status().String(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func mapPaginated[T, U any](in *domain.PaginatedResult[T], f func(T) U) *domain.PaginatedResult[U] {
	items := make([]U, len(in.Items))
	for i, item := range in.Items {
		items[i] = f(item)
	}
	return domain.NewPaginatedResult(items, in.Total, in.Page, in.Limit)
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.EventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
