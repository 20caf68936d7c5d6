package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetrent/service-rental/internal/domain"
	bookingDomain "github.com/fleetrent/service-rental/internal/domain/booking"
	carDomain "github.com/fleetrent/service-rental/internal/domain/car"
	userDomain "github.com/fleetrent/service-rental/internal/domain/user"
	"github.com/fleetrent/service-rental/internal/kafka"
)

// --- In-memory fakes ---

type fakeCarRepo struct {
	cars map[uuid.UUID]*carDomain.Car
}

func newFakeCarRepo() *fakeCarRepo {
	return &fakeCarRepo{cars: make(map[uuid.UUID]*carDomain.Car)}
}

func (r *fakeCarRepo) Create(_ context.Context, c *carDomain.Car) error {
	r.cars[c.ID()] = c
	return nil
}

func (r *fakeCarRepo) FindByID(_ context.Context, id uuid.UUID) (*carDomain.Car, error) {
	c, ok := r.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("Car", id.String())
	}
	return c, nil
}

func (r *fakeCarRepo) Search(_ context.Context, filter carDomain.SearchFilter) (*domain.PaginatedResult[*carDomain.Car], error) {
	var items []*carDomain.Car
	for _, c := range r.cars {
		items = append(items, c)
	}
	return domain.NewPaginatedResult(items, int64(len(items)), 1, 20), nil
}

func (r *fakeCarRepo) Update(_ context.Context, c *carDomain.Car) error {
	r.cars[c.ID()] = c
	return nil
}

func (r *fakeCarRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.cars, id)
	return nil
}

func (r *fakeCarRepo) SetStatusDerived(_ context.Context, id uuid.UUID) (*carDomain.Car, error) {
	c, ok := r.cars[id]
	if !ok {
		return nil, domain.NewNotFoundError("Car", id.String())
	}
	return c, nil
}

type fakeBookingRepo struct {
	cars     *fakeCarRepo
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newFakeBookingRepo(cars *fakeCarRepo) *fakeBookingRepo {
	return &fakeBookingRepo{cars: cars, bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) recomputeCar(carID uuid.UUID) {
	c, ok := r.cars.cars[carID]
	if !ok {
		return
	}
	var count int64
	for _, bk := range r.bookings {
		if bk.CarID() == carID && bk.Status() == bookingDomain.StatusConfirmed {
			count++
		}
	}
	c.ApplyDerivedStatus(count)
}

func (r *fakeBookingRepo) CreateLocked(ctx context.Context, carID uuid.UUID, period bookingDomain.DateRange, build bookingDomain.BuildFunc) (*bookingDomain.Booking, error) {
	c, err := r.cars.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !c.IsAvailable() {
		return nil, domain.NewConflictError("car is not available for booking")
	}
	for _, bk := range r.bookings {
		if bk.CarID() == carID && bk.Status().BlocksCar() && bk.Period().Overlaps(period) {
			return nil, domain.NewConflictError("car is already booked for the selected dates")
		}
	}

	bk, err := build(c.DailyRateCents())
	if err != nil {
		return nil, err
	}
	r.bookings[bk.ID()] = bk
	r.recomputeCar(carID)
	return bk, nil
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[*bookingDomain.Booking], error) {
	var items []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.UserID() == userID {
			items = append(items, bk)
		}
	}
	return domain.NewPaginatedResult(items, int64(len(items)), 1, 20), nil
}

func (r *fakeBookingRepo) List(_ context.Context, filter bookingDomain.ListFilter) (*domain.PaginatedResult[*bookingDomain.Booking], error) {
	var items []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if filter.Status != "" && bk.Status() != filter.Status {
			continue
		}
		items = append(items, bk)
	}
	return domain.NewPaginatedResult(items, int64(len(items)), 1, 20), nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, bk *bookingDomain.Booking) error {
	if bk.Status().BlocksCar() {
		for _, other := range r.bookings {
			if other.ID() != bk.ID() && other.CarID() == bk.CarID() &&
				other.Status().BlocksCar() && other.Period().Overlaps(bk.Period()) {
				return domain.NewConflictError("car is already booked for the selected dates")
			}
		}
	}
	r.bookings[bk.ID()] = bk
	r.recomputeCar(bk.CarID())
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, bk *bookingDomain.Booking) error {
	delete(r.bookings, bk.ID())
	r.recomputeCar(bk.CarID())
	return nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) ([]bookingDomain.StatusCount, error) {
	counts := make(map[bookingDomain.Status]int64)
	for _, bk := range r.bookings {
		counts[bk.Status()]++
	}
	var out []bookingDomain.StatusCount
	for s, c := range counts {
		out = append(out, bookingDomain.StatusCount{Status: s, Count: c})
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*userDomain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *userDomain.User) error {
	r.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *fakeUserRepo) List(_ context.Context, page, limit int) (*domain.PaginatedResult[*userDomain.User], error) {
	var items []*userDomain.User
	for _, u := range r.users {
		items = append(items, u)
	}
	return domain.NewPaginatedResult(items, int64(len(items)), 1, 20), nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *userDomain.User) error {
	r.users[u.ID()] = u
	return nil
}

type fakePublisher struct {
	published []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.published = append(p.published, event)
	return nil
}

// --- Test fixture ---

type bookingFixture struct {
	svc       *BookingService
	cars      *fakeCarRepo
	bookings  *fakeBookingRepo
	users     *fakeUserRepo
	publisher *fakePublisher
	car       *carDomain.Car
	user      *userDomain.User
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	cars := newFakeCarRepo()
	bookings := newFakeBookingRepo(cars)
	users := newFakeUserRepo()
	publisher := &fakePublisher{}

	c, err := carDomain.NewCar("Toyota", "Camry", 2022, "B 1234 XYZ", 4500, "")
	require.NoError(t, err)
	require.NoError(t, cars.Create(context.Background(), c))

	u, err := userDomain.NewUser("Alice", "alice@example.com", "s3cretpass")
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), u))

	svc := NewBookingService(bookings, cars, users, publisher, zap.NewNop())
	return &bookingFixture{
		svc:       svc,
		cars:      cars,
		bookings:  bookings,
		users:     users,
		publisher: publisher,
		car:       c,
		user:      u,
	}
}

func bookingDates(startDay, endDay int) (time.Time, time.Time) {
	return time.Date(2026, 9, startDay, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, endDay, 0, 0, 0, 0, time.UTC)
}

// --- Tests ---

func TestCreateBooking(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID:     f.car.ID(),
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", dto.Status)
	assert.Equal(t, int64(3*4500), dto.TotalCostCents)
	assert.Equal(t, "Alice", dto.CustomerName)
	require.NotNil(t, dto.Car)
	assert.Equal(t, "B 1234 XYZ", dto.Car.LicensePlate)

	// The car is now rented and an event went out.
	assert.Equal(t, carDomain.StatusRented, f.car.Status())
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "booking.confirmed", f.publisher.published[0].Type)
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 5)

	_, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	// Overlapping dates are refused even though the renter differs.
	u2, err := userDomain.NewUser("Bob", "bob@example.com", "s3cretpass")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u2))

	overlapStart, overlapEnd := bookingDates(3, 7)
	_, err = f.svc.CreateBooking(context.Background(), u2.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: overlapStart, EndDate: overlapEnd,
	})
	var conflictErr *domain.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

func TestCreateBookingRejectsCostMismatch(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 3)

	_, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID:          f.car.ID(),
		StartDate:      start,
		EndDate:        end,
		TotalCostCents: 1,
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateBookingRejectsUnknownCar(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 3)

	_, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: uuid.New(), StartDate: start, EndDate: end,
	})
	var notFoundErr *domain.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestCreateBookingRejectsBadDates(t *testing.T) {
	f := newBookingFixture(t)
	end, start := bookingDates(1, 3) // reversed

	_, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteBookingRestoresAvailability(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	require.Equal(t, carDomain.StatusRented, f.car.Status())

	require.NoError(t, f.svc.DeleteBooking(context.Background(), dto.ID, f.user.ID(), false))
	assert.Equal(t, carDomain.StatusAvailable, f.car.Status())

	// The delete event carries the last status of the booking.
	require.Len(t, f.publisher.published, 2)
	assert.Equal(t, "booking.deleted", f.publisher.published[1].Type)
}

func TestDeleteBookingForbiddenForOtherUser(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	err = f.svc.DeleteBooking(context.Background(), dto.ID, uuid.New(), false)
	var forbiddenErr *domain.ForbiddenError
	assert.ErrorAs(t, err, &forbiddenErr)

	// An admin may delete any booking.
	require.NoError(t, f.svc.DeleteBooking(context.Background(), dto.ID, uuid.New(), true))
}

func TestUpdateBookingStatus(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateBookingStatus(context.Background(), dto.ID, UpdateBookingStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)

	// Completing the booking frees the car.
	assert.Equal(t, carDomain.StatusAvailable, f.car.Status())

	// Terminal bookings reject further transitions.
	_, err = f.svc.UpdateBookingStatus(context.Background(), dto.ID, UpdateBookingStatusRequest{Status: "pending"})
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestUpdateBookingStatusRejectsUnknownStatus(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateBookingStatus(context.Background(), dto.ID, UpdateBookingStatusRequest{Status: "archived"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReactivatingBookingRechecksOverlap(t *testing.T) {
	f := newBookingFixture(t)

	// First booking gets cancelled, freeing the dates.
	start, end := bookingDates(1, 5)
	first, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(context.Background(), first.ID, UpdateBookingStatusRequest{Status: "pending"})
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(context.Background(), first.ID, UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	// Second booking takes the same dates.
	_, err = f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	// The cancelled booking is terminal, so reactivation fails on the
	// state machine before any overlap could slip through.
	_, err = f.svc.UpdateBookingStatus(context.Background(), first.ID, UpdateBookingStatusRequest{Status: "confirmed"})
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestPendingToConfirmedRechecksOverlap(t *testing.T) {
	f := newBookingFixture(t)

	// Park the first booking in pending, then cancel it so its dates free up.
	start, end := bookingDates(1, 5)
	first, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(context.Background(), first.ID, UpdateBookingStatusRequest{Status: "completed"})
	require.NoError(t, err)

	// A new booking takes the dates.
	second, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	// Pushing the second booking back to pending and forward again must
	// not conflict with itself.
	_, err = f.svc.UpdateBookingStatus(context.Background(), second.ID, UpdateBookingStatusRequest{Status: "pending"})
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(context.Background(), second.ID, UpdateBookingStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
}

func TestGetUserBookingsIncludesCarSummary(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	_, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	result, err := f.svc.GetUserBookings(context.Background(), f.user.ID(), 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	require.NotNil(t, item.Car)
	assert.Equal(t, "Toyota", item.Car.Make)
	assert.Equal(t, "B 1234 XYZ", item.Car.LicensePlate)
}

func TestListBookingsIncludesCarAndCustomer(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	_, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	result, err := f.svc.ListBookings(context.Background(), bookingDomain.ListFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	require.NotNil(t, item.Car)
	assert.Equal(t, "Camry", item.Car.Model)
	assert.Equal(t, "Alice", item.CustomerName)
	assert.Equal(t, "alice@example.com", item.CustomerEmail)
}

func TestGetBookingOwnership(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), dto.ID, f.user.ID(), false)
	assert.NoError(t, err)

	_, err = f.svc.GetBooking(context.Background(), dto.ID, uuid.New(), false)
	var forbiddenErr *domain.ForbiddenError
	assert.ErrorAs(t, err, &forbiddenErr)

	_, err = f.svc.GetBooking(context.Background(), dto.ID, uuid.New(), true)
	assert.NoError(t, err)
}

func TestGetBookingStats(t *testing.T) {
	f := newBookingFixture(t)
	start, end := bookingDates(1, 4)

	dto, err := f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	_, err = f.svc.UpdateBookingStatus(context.Background(), dto.ID, UpdateBookingStatusRequest{Status: "completed"})
	require.NoError(t, err)

	start2, end2 := bookingDates(10, 12)
	_, err = f.svc.CreateBooking(context.Background(), f.user.ID(), CreateBookingRequest{
		CarID: f.car.ID(), StartDate: start2, EndDate: end2,
	})
	require.NoError(t, err)

	stats, err := f.svc.GetBookingStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["completed"])
	assert.Equal(t, int64(1), stats.ByStatus["confirmed"])
}
