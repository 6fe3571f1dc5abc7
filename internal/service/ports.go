package service

import (
	"context"
	"time"

	"storefront/internal/models"
)

// ProductRepository reads and partially updates catalog products.
// Lookups by id return nil, nil when the product does not exist.
type ProductRepository interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByName(ctx context.Context, name string) ([]models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error)
}

type OfferRepository interface {
	GetActiveOffersByProduct(ctx context.Context, productID int64, at time.Time) ([]models.Offer, error)
}

// InventoryRepository owns stock levels and the movement ledger.
// MutateStock locks the product, applies mutation, stores the new stock and
// appends entry in one unit of work; on any error nothing is written.
type InventoryRepository interface {
	MutateStock(ctx context.Context, productID int64, mutation models.StockMutation, entry *models.InventoryHistory) (*models.Product, error)
	GetHistoryByProduct(ctx context.Context, productID int64) ([]models.InventoryHistory, error)
	GetHistoryByTransaction(ctx context.Context, transactionID int64) ([]models.InventoryHistory, error)
}

// TransactionRepository persists transactions with their items.
// CreateTransaction resolves method by (user, type), creating it when absent.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction, method *models.PaymentMethodInput) error
	GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, txn *models.Transaction) error
}

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetPaymentMethodsByUser(ctx context.Context, userID int64) ([]models.PaymentMethod, error)
}

// PaymentGateway charges and verifies payments with an external processor
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)
	VerifyPayment(ctx context.Context, gatewayTransactionID string) (*models.PaymentResponse, error)
}

// StockNotifier delivers best-effort events to connected listeners
type StockNotifier interface {
	BroadcastEvent(ctx context.Context, eventName string, payload interface{})
	SendToClient(ctx context.Context, clientID, eventName string, payload interface{}) bool
}

type TransactionEventPublisher interface {
	PublishTransactionCompleted(ctx context.Context, event *models.TransactionCompletedEvent) error
	PublishTransactionFailed(ctx context.Context, event *models.TransactionFailedEvent) error
}

// IdempotencyStore guards process-payment requests carrying an idempotency key
type IdempotencyStore interface {
	GetTransactionID(ctx context.Context, key string) (int64, bool, error)
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Bind(ctx context.Context, key string, transactionID int64) error
	Release(ctx context.Context, key, token string) error
}
