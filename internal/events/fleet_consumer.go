package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fleetrent/service-rental/internal/kafka"
)

// MaintenanceService moves cars in and out of maintenance.
type MaintenanceService interface {
	StartMaintenance(ctx context.Context, carID uuid.UUID) error
	EndMaintenance(ctx context.Context, carID uuid.UUID) error
}

// FleetEventConsumer listens to fleet events and keeps car maintenance
// status in sync with the workshop.
type FleetEventConsumer struct {
	consumer *kafka.Consumer
	service  MaintenanceService
	logger   *zap.Logger
}

// NewFleetEventConsumer creates a new FleetEventConsumer.
func NewFleetEventConsumer(
	brokers []string,
	groupID string,
	service MaintenanceService,
	logger *zap.Logger,
) *FleetEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicFleetEvents, logger)
	return &FleetEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming fleet events. This blocks until the context is cancelled.
func (c *FleetEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *FleetEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *FleetEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from fleet topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case TypeCarMaintenanceStarted:
		return c.handleMaintenance(ctx, cloudEvent, true)
	case TypeCarMaintenanceEnded:
		return c.handleMaintenance(ctx, cloudEvent, false)
	default:
		c.logger.Debug("ignoring unhandled fleet event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *FleetEventConsumer) handleMaintenance(ctx context.Context, cloudEvent kafka.CloudEvent, starting bool) error {
	var evt CarMaintenanceEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse CarMaintenanceEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing car maintenance event",
		zap.String("car_id", evt.CarID.String()),
		zap.Bool("starting", starting),
		zap.String("reason", evt.Reason),
	)

	var err error
	if starting {
		err = c.service.StartMaintenance(ctx, evt.CarID)
	} else {
		err = c.service.EndMaintenance(ctx, evt.CarID)
	}
	if err != nil {
		c.logger.Error("failed to apply maintenance event",
			zap.String("car_id", evt.CarID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}
