package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing transaction events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishTransactionCompleted publishes TransactionCompleted event
func (ep *EventPublisher) PublishTransactionCompleted(ctx context.Context, event *models.TransactionCompletedEvent) error {
	key := fmt.Sprintf("transaction-%d", event.TransactionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTransactionFailed publishes TransactionFailed event
func (ep *EventPublisher) PublishTransactionFailed(ctx context.Context, event *models.TransactionFailedEvent) error {
	key := fmt.Sprintf("transaction-%d", event.TransactionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// relayPublishTimeout bounds how long a broadcast may hold up its caller
const relayPublishTimeout = 2 * time.Second

// StockEventRelay sends broadcasts through Kafka so listeners of every
// instance receive them. When the write fails or does not finish within the
// publish timeout the event goes to the local listeners only.
type StockEventRelay struct {
	producer       *Producer
	local          service.StockNotifier
	publishTimeout time.Duration
	logger         *zap.Logger
}

// NewStockEventRelay creates a relay publishing with producer and falling back to local
func NewStockEventRelay(producer *Producer, local service.StockNotifier) *StockEventRelay {
	return &StockEventRelay{
		producer:       producer,
		local:          local,
		publishTimeout: relayPublishTimeout,
		logger:         util.GetLogger(),
	}
}

// BroadcastEvent publishes the event for all instances
func (r *StockEventRelay) BroadcastEvent(ctx context.Context, eventName string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to marshal notification payload", zap.String("event", eventName), zap.Error(err))
		return
	}

	event := &models.NotificationEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventName,
			Timestamp: time.Now(),
		},
		Payload: data,
	}

	publishCtx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	if err := r.producer.PublishEvent(publishCtx, eventName, event); err != nil {
		r.logger.Warn("Falling back to local broadcast", zap.String("event", eventName), zap.Error(err))
		r.local.BroadcastEvent(ctx, eventName, payload)
	}
}

// SendToClient delivers to a listener of this instance
func (r *StockEventRelay) SendToClient(ctx context.Context, clientID, eventName string, payload interface{}) bool {
	return r.local.SendToClient(ctx, clientID, eventName, payload)
}

// EventHandler handles incoming events
type EventHandler struct {
	onNotification func(context.Context, *models.NotificationEvent) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnNotification registers a handler for relayed notifier events
func (eh *EventHandler) OnNotification(handler func(context.Context, *models.NotificationEvent) error) {
	eh.onNotification = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventProductStockUpdated:
		if eh.onNotification != nil {
			var event models.NotificationEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal notification event: %w", err)
			}
			return eh.onNotification(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
