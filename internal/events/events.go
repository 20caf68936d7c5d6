package events

import (
	"time"

	"github.com/google/uuid"
)

// EventSource identifies this service in published CloudEvents.
const EventSource = "service-rental"

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicFleetEvents   = "fleet.events"
)

// Published event types.
const (
	TypeBookingConfirmed     = "booking.confirmed"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingDeleted       = "booking.deleted"
)

// Consumed event types.
const (
	TypeCarMaintenanceStarted = "car.maintenance_started"
	TypeCarMaintenanceEnded   = "car.maintenance_ended"
)

// BookingConfirmedEvent is published when a booking is created.
type BookingConfirmedEvent struct {
	BookingID      uuid.UUID `json:"booking_id"`
	CarID          uuid.UUID `json:"car_id"`
	UserID         uuid.UUID `json:"user_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	TotalCostCents int64     `json:"total_cost_cents"`
}

// BookingStatusChangedEvent is published when a booking changes status.
type BookingStatusChangedEvent struct {
	BookingID uuid.UUID `json:"booking_id"`
	CarID     uuid.UUID `json:"car_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// BookingDeletedEvent is published when a booking is removed.
type BookingDeletedEvent struct {
	BookingID uuid.UUID `json:"booking_id"`
	CarID     uuid.UUID `json:"car_id"`
	Status    string    `json:"status"`
}

// CarMaintenanceEvent is consumed from the fleet topic when a car enters or
// leaves the workshop.
type CarMaintenanceEvent struct {
	CarID  uuid.UUID `json:"car_id"`
	Reason string    `json:"reason,omitempty"`
}
