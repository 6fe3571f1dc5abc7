package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventProductStockUpdated  = "product_stock_updated"
	EventTransactionCompleted = "transaction_completed"
	EventTransactionFailed    = "transaction_failed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockUpdatedPayload is broadcast to real-time listeners after a stock movement
type StockUpdatedPayload struct {
	ProductID     int64     `json:"productId"`
	Name          string    `json:"name"`
	Stock         int       `json:"stock"`
	PreviousStock int       `json:"previousStock"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NotificationEvent carries a notifier broadcast across instances
type NotificationEvent struct {
	BaseEvent
	Payload json.RawMessage `json:"payload"`
}

// TransactionCompletedEvent published when a payment is approved and stock debited
type TransactionCompletedEvent struct {
	BaseEvent
	TransactionID    int64           `json:"transaction_id"`
	UserID           int64           `json:"user_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	GatewayReference string          `json:"gateway_reference"`
}

// TransactionFailedEvent published when a payment ends failed
type TransactionFailedEvent struct {
	BaseEvent
	TransactionID int64  `json:"transaction_id"`
	UserID        int64  `json:"user_id"`
	Reason        string `json:"reason"`
}
