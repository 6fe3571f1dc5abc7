package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// StockEventWorker delivers notifications relayed through Kafka to the
// listeners connected to this instance
type StockEventWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewStockEventWorker creates a new stock event worker
func NewStockEventWorker(consumer *broker.Consumer, local service.StockNotifier) *StockEventWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnNotification(Deliver(local))

	return &StockEventWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Deliver returns a handler broadcasting relayed events to local listeners
func Deliver(local service.StockNotifier) func(context.Context, *models.NotificationEvent) error {
	return func(ctx context.Context, event *models.NotificationEvent) error {
		local.BroadcastEvent(ctx, event.EventType, event.Payload)
		return nil
	}
}

// Start starts the worker
func (w *StockEventWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock event worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockEventWorker) Stop() error {
	w.logger.Info("Stopping stock event worker")
	return w.consumer.Close()
}
