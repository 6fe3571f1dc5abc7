package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionService runs the purchase workflow: record, charge, debit stock
type TransactionService struct {
	transactions   TransactionRepository
	users          UserRepository
	products       *ProductService
	inventory      *InventoryService
	gateway        PaymentGateway
	eventPublisher TransactionEventPublisher
	idempotency    IdempotencyStore
	gatewayTimeout time.Duration
	logger         *zap.Logger
}

// NewTransactionService creates a new transaction service.
// eventPublisher and idempotency may be nil.
func NewTransactionService(
	transactions TransactionRepository,
	users UserRepository,
	products *ProductService,
	inventory *InventoryService,
	gateway PaymentGateway,
	eventPublisher TransactionEventPublisher,
	idempotency IdempotencyStore,
	gatewayTimeout time.Duration,
) *TransactionService {
	return &TransactionService{
		transactions:   transactions,
		users:          users,
		products:       products,
		inventory:      inventory,
		gateway:        gateway,
		eventPublisher: eventPublisher,
		idempotency:    idempotency,
		gatewayTimeout: gatewayTimeout,
		logger:         util.GetLogger(),
	}
}

// Create records a transaction without charging it
func (ts *TransactionService) Create(ctx context.Context, req *models.CreateTransactionRequest) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Create")
	defer span.End()

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	txn, err := ts.createTransaction(ctx, req.UserID, req.PaymentMethod, req.Items, req.TotalAmount, req.Status)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return txn, nil
}

// ProcessPayment validates the request, records a pending transaction, charges it
// through the gateway and, once approved, debits stock for every item.
// A non-empty idempotencyKey makes repeated calls return the first completed transaction.
func (ts *TransactionService) ProcessPayment(ctx context.Context, req *models.ProcessPaymentRequest, idempotencyKey string) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.ProcessPayment")
	defer span.End()

	method := resolvePaymentMethod(req.PaymentMethod, req.Type)
	if err := validatePaymentRequest(req, method); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && ts.idempotency != nil {
		existing, release, err := ts.claimIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		defer release()
	}

	txn, err := ts.processPayment(ctx, req, method)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}

	if idempotencyKey != "" && ts.idempotency != nil {
		if err := ts.idempotency.Bind(ctx, idempotencyKey, txn.ID); err != nil {
			ts.logger.Error("Failed to bind idempotency key",
				zap.String("idempotency_key", idempotencyKey),
				zap.Int64("transaction_id", txn.ID),
				zap.Error(err))
		}
	}
	return txn, nil
}

func (ts *TransactionService) claimIdempotencyKey(ctx context.Context, key string) (*models.Transaction, func(), error) {
	txID, found, err := ts.idempotency.GetTransactionID(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if found {
		ts.logger.Info("Duplicate payment request detected",
			zap.String("idempotency_key", key),
			zap.Int64("transaction_id", txID))
		txn, err := ts.FindOne(ctx, txID)
		return txn, nil, err
	}

	token, ok, err := ts.idempotency.Acquire(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock idempotency key: %w", err)
	}
	if !ok {
		return nil, nil, models.ConflictError("A request with this idempotency key is already being processed")
	}

	release := func() {
		if err := ts.idempotency.Release(context.WithoutCancel(ctx), key, token); err != nil {
			ts.logger.Warn("Failed to release idempotency lock",
				zap.String("idempotency_key", key),
				zap.Error(err))
		}
	}

	// a request holding the lock may have bound the key after the first lookup
	txID, found, err = ts.idempotency.GetTransactionID(ctx, key)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if found {
		release()
		ts.logger.Info("Duplicate payment request detected after lock",
			zap.String("idempotency_key", key),
			zap.Int64("transaction_id", txID))
		txn, err := ts.FindOne(ctx, txID)
		return txn, nil, err
	}
	return nil, release, nil
}

func (ts *TransactionService) processPayment(ctx context.Context, req *models.ProcessPaymentRequest, method *models.PaymentMethodInput) (*models.Transaction, error) {
	logger := util.LoggerFromContext(ctx, ts.logger)

	if err := ts.checkStock(ctx, req.Products); err != nil {
		return nil, err
	}

	txn, err := ts.createTransaction(ctx, req.UserID, method, req.Products, req.TotalAmount, models.TransactionStatusPending)
	if err != nil {
		return nil, err
	}

	// The pending transaction exists from here on; later failures must leave it terminal.
	ctx = context.WithoutCancel(ctx)

	resp, err := ts.charge(ctx, &models.PaymentRequest{
		Amount:        req.TotalAmount,
		PaymentMethod: *method,
		Reference:     strconv.FormatInt(txn.ID, 10),
		Currency:      models.PaymentCurrency,
		Description:   models.PaymentDescription,
	})
	if err != nil {
		util.PaymentGatewayErrorsTotal.Inc()
		logger.Error("Payment gateway call failed",
			zap.Int64("transaction_id", txn.ID),
			zap.Error(err))
		ts.markFailed(ctx, txn, nil, "gateway_error")
		return nil, models.GatewayError(err)
	}

	if resp.Status != models.GatewayStatusApproved {
		util.PaymentsDeclinedTotal.Inc()
		logger.Warn("Payment declined",
			zap.Int64("transaction_id", txn.ID),
			zap.String("gateway_status", string(resp.Status)),
			zap.String("gateway_message", resp.Message))
		ts.markFailed(ctx, txn, resp, "payment_declined")
		return nil, models.PaymentDeclinedError("Payment failed")
	}

	util.PaymentsApprovedTotal.Inc()
	txn.Status = models.TransactionStatusCompleted
	setGatewayOutcome(txn, resp)
	if err := ts.transactions.UpdateTransactionStatus(ctx, txn); err != nil {
		util.TransactionsRefundRequiredTotal.Inc()
		logger.Error("Failed to record approved payment; refund required",
			zap.Int64("transaction_id", txn.ID),
			zap.String("gateway_reference", resp.TransactionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	logger.Info("Payment approved",
		zap.Int64("transaction_id", txn.ID),
		zap.String("gateway_reference", resp.TransactionID))

	if err := ts.debitStock(ctx, txn); err != nil {
		return nil, err
	}

	ts.publishCompleted(ctx, txn)
	return txn, nil
}

// checkStock rejects requests whose products are missing or whose summed
// quantities exceed current stock, before any charge is attempted
func (ts *TransactionService) checkStock(ctx context.Context, items []models.ItemInput) error {
	wanted := make(map[int64]int, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if _, ok := wanted[item.ProductID]; !ok {
			ids = append(ids, item.ProductID)
		}
		wanted[item.ProductID] += item.Qty()
	}

	products, err := ts.products.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	stock := make(map[int64]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}

	for _, id := range ids {
		available, ok := stock[id]
		if !ok {
			return models.NotFoundError(fmt.Sprintf("Product %d not found", id))
		}
		if available <= 0 || available < wanted[id] {
			util.StockMovementFailuresTotal.WithLabelValues("insufficient_stock").Inc()
			return models.InsufficientStockError("Not enough stock")
		}
	}
	return nil
}

func (ts *TransactionService) charge(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.Charge")
	defer span.End()

	if ts.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ts.gatewayTimeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		util.PaymentGatewayLatency.Observe(time.Since(start).Seconds())
	}()

	resp, err := ts.gateway.CreatePayment(ctx, req)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("payment gateway returned an empty response")
	}
	return resp, nil
}

// debitStock applies an out movement per item. If one fails, the earlier debits
// are reversed and the transaction is marked failed.
func (ts *TransactionService) debitStock(ctx context.Context, txn *models.Transaction) error {
	logger := util.LoggerFromContext(ctx, ts.logger)

	applied := make([]models.TransactionItem, 0, len(txn.Items))
	for _, item := range txn.Items {
		_, err := ts.inventory.UpdateStock(ctx, item.ProductID, models.UpdateStockRequest{
			Quantity:      item.Quantity,
			MovementType:  models.MovementOut,
			TransactionID: &txn.ID,
		})
		if err != nil {
			util.TransactionsRefundRequiredTotal.Inc()
			logger.Error("Stock debit failed after payment approval; compensating",
				zap.Int64("transaction_id", txn.ID),
				zap.Int64("product_id", item.ProductID),
				zap.Error(err))
			ts.compensate(ctx, txn, applied)
			ts.markFailed(ctx, txn, nil, "stock_debit_failed")
			return err
		}
		applied = append(applied, item)
	}
	return nil
}

func (ts *TransactionService) compensate(ctx context.Context, txn *models.Transaction, applied []models.TransactionItem) {
	for i := len(applied) - 1; i >= 0; i-- {
		item := applied[i]
		if _, err := ts.inventory.UpdateStock(ctx, item.ProductID, models.UpdateStockRequest{
			Quantity:      item.Quantity,
			MovementType:  models.MovementIn,
			TransactionID: &txn.ID,
		}); err != nil {
			ts.logger.Error("Failed to reverse stock debit",
				zap.Int64("transaction_id", txn.ID),
				zap.Int64("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

// markFailed persists the failed status on a best-effort basis. The gateway
// reference, when already set, is kept.
func (ts *TransactionService) markFailed(ctx context.Context, txn *models.Transaction, resp *models.PaymentResponse, reason string) {
	txn.Status = models.TransactionStatusFailed
	if resp != nil {
		setGatewayOutcome(txn, resp)
	}

	if err := ts.transactions.UpdateTransactionStatus(ctx, txn); err != nil {
		ts.logger.Error("Failed to mark transaction failed; it stays pending",
			zap.Int64("transaction_id", txn.ID),
			zap.Error(err))
	}

	if ts.eventPublisher == nil {
		return
	}
	event := &models.TransactionFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTransactionFailed,
			Timestamp: time.Now(),
		},
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Reason:        reason,
	}
	if err := ts.eventPublisher.PublishTransactionFailed(ctx, event); err != nil {
		ts.logger.Error("Failed to publish TransactionFailed event", zap.Error(err))
	}
}

func (ts *TransactionService) publishCompleted(ctx context.Context, txn *models.Transaction) {
	if ts.eventPublisher == nil {
		return
	}
	event := &models.TransactionCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTransactionCompleted,
			Timestamp: time.Now(),
		},
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		TotalAmount:   txn.TotalAmount,
	}
	if txn.GatewayReference != nil {
		event.GatewayReference = *txn.GatewayReference
	}
	if err := ts.eventPublisher.PublishTransactionCompleted(ctx, event); err != nil {
		ts.logger.Error("Failed to publish TransactionCompleted event", zap.Error(err))
	}
}

func setGatewayOutcome(txn *models.Transaction, resp *models.PaymentResponse) {
	if resp.TransactionID != "" {
		ref := resp.TransactionID
		txn.GatewayReference = &ref
	}
	if details, err := json.Marshal(resp); err == nil {
		txn.GatewayDetails.JSONText = details
		txn.GatewayDetails.Valid = true
	}
}

// createTransaction prices the items and stores the transaction with them
func (ts *TransactionService) createTransaction(
	ctx context.Context,
	userID int64,
	method *models.PaymentMethodInput,
	inputs []models.ItemInput,
	total decimal.Decimal,
	status models.TransactionStatus,
) (*models.Transaction, error) {
	user, err := ts.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, models.NotFoundError(fmt.Sprintf("User %d not found", userID))
	}

	items, err := ts.priceItems(ctx, inputs)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		UserID:      userID,
		TotalAmount: total,
		Status:      status,
		Items:       items,
	}
	if err := ts.transactions.CreateTransaction(ctx, txn, method); err != nil {
		return nil, err
	}

	util.TransactionsCreatedTotal.Inc()
	ts.logger.Info("Transaction created",
		zap.Int64("transaction_id", txn.ID),
		zap.Int64("user_id", userID),
		zap.String("status", string(status)),
		zap.Int("items", len(items)))
	return txn, nil
}

// priceItems records list price and best offer per item. The charged unit price
// is the requested one, or the discounted price when none was requested.
func (ts *TransactionService) priceItems(ctx context.Context, inputs []models.ItemInput) ([]models.TransactionItem, error) {
	items := make([]models.TransactionItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := ts.products.FindOne(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", in.ProductID))
		}

		quote := models.Quote(product.Price, product.Offers)
		item := models.TransactionItem{
			ProductID:       in.ProductID,
			OfferID:         quote.OfferID,
			Quantity:        in.Qty(),
			UnitPrice:       quote.DiscountedPrice,
			OriginalPrice:   product.Price,
			DiscountApplied: quote.DiscountApplied,
		}
		if in.UnitPrice.Valid {
			item.UnitPrice = in.UnitPrice.Decimal
		}
		item.ComputeSubtotal()
		items = append(items, item)
	}
	return items, nil
}

// FindOne returns a transaction with its items
func (ts *TransactionService) FindOne(ctx context.Context, id int64) (*models.Transaction, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.FindOne")
	defer span.End()

	txn, err := ts.transactions.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, models.NotFoundError(fmt.Sprintf("Transaction %d not found", id))
	}
	return txn, nil
}

// VerifyPayment re-confirms a transaction's charge with the gateway
func (ts *TransactionService) VerifyPayment(ctx context.Context, id int64) (*models.PaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.VerifyPayment")
	defer span.End()

	txn, err := ts.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.GatewayReference == nil || *txn.GatewayReference == "" {
		return nil, models.ValidationError("Transaction has no gateway reference to verify")
	}

	if ts.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ts.gatewayTimeout)
		defer cancel()
	}

	resp, err := ts.gateway.VerifyPayment(ctx, *txn.GatewayReference)
	if err != nil {
		util.PaymentGatewayErrorsTotal.Inc()
		util.RecordError(span, err)
		return nil, models.GatewayError(err)
	}
	return resp, nil
}

// UpdateStock moves stock of one product
func (ts *TransactionService) UpdateStock(ctx context.Context, productID int64, req models.UpdateStockRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "TransactionService.UpdateStock")
	defer span.End()

	return ts.inventory.UpdateStock(ctx, productID, req)
}
