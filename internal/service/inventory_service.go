package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// InventoryService applies stock movements and keeps the ledger
type InventoryService struct {
	inventory InventoryRepository
	notifier  StockNotifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(inventory InventoryRepository, notifier StockNotifier) *InventoryService {
	return &InventoryService{
		inventory: inventory,
		notifier:  notifier,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// UpdateStock moves stock of a product and returns the updated product
func (is *InventoryService) UpdateStock(ctx context.Context, productID int64, req models.UpdateStockRequest) (*models.Product, error) {
	product, _, err := is.move(ctx, productID, req.Quantity, req.MovementType, req.TransactionID)
	return product, err
}

// CreateHistory applies a movement and returns its ledger entry
func (is *InventoryService) CreateHistory(ctx context.Context, req models.CreateInventoryHistoryRequest) (*models.InventoryHistory, error) {
	if req.ProductID <= 0 {
		return nil, models.ValidationError("Product ID is required")
	}
	_, entry, err := is.move(ctx, req.ProductID, req.Quantity, req.MovementType, req.TransactionID)
	return entry, err
}

// HistoryByProduct returns the ledger of a product
func (is *InventoryService) HistoryByProduct(ctx context.Context, productID int64) ([]models.InventoryHistory, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.HistoryByProduct")
	defer span.End()

	return is.inventory.GetHistoryByProduct(ctx, productID)
}

// HistoryByTransaction returns the ledger entries tagged with a transaction
func (is *InventoryService) HistoryByTransaction(ctx context.Context, transactionID int64) ([]models.InventoryHistory, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.HistoryByTransaction")
	defer span.End()

	return is.inventory.GetHistoryByTransaction(ctx, transactionID)
}

func (is *InventoryService) move(ctx context.Context, productID int64, quantity int, movementType models.MovementType, transactionID *int64) (*models.Product, *models.InventoryHistory, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Move")
	defer span.End()

	logger := util.LoggerFromContext(ctx, is.logger)

	entry := &models.InventoryHistory{
		Quantity:      quantity,
		MovementType:  movementType,
		TransactionID: transactionID,
	}

	product, err := is.inventory.MutateStock(ctx, productID, models.Movement(quantity, movementType), entry)
	if err != nil {
		util.RecordError(span, err)
		util.StockMovementFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		logger.Warn("Stock movement rejected",
			zap.Int64("product_id", productID),
			zap.Int("quantity", quantity),
			zap.String("movement_type", string(movementType)),
			zap.Error(err))
		return nil, nil, err
	}

	util.StockMovementsTotal.WithLabelValues(string(movementType)).Inc()
	logger.Info("Stock updated",
		zap.Int64("product_id", productID),
		zap.Int("previous_stock", entry.PreviousStock),
		zap.Int("new_stock", entry.NewStock),
		zap.String("movement_type", string(movementType)))

	is.notifier.BroadcastEvent(ctx, models.EventProductStockUpdated, models.StockUpdatedPayload{
		ProductID:     product.ID,
		Name:          product.Name,
		Stock:         product.Stock,
		PreviousStock: entry.PreviousStock,
		UpdatedAt:     is.now(),
	})

	return product, entry, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
