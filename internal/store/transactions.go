package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// CreateTransaction inserts a transaction and its items, resolving the payment method
func (s *Store) CreateTransaction(ctx context.Context, txn *models.Transaction, method *models.PaymentMethodInput) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userExists bool
	if err := tx.GetContext(ctx, &userExists,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", txn.UserID); err != nil {
		return err
	}
	if !userExists {
		return models.NotFoundError(fmt.Sprintf("User %d not found", txn.UserID))
	}

	if method != nil {
		pm, err := findOrCreatePaymentMethod(ctx, tx, txn.UserID, method)
		if err != nil {
			return err
		}
		txn.PaymentMethodID = &pm.ID
		txn.PaymentMethod = pm
	}

	err = tx.GetContext(ctx, txn, `
		INSERT INTO transactions (user_id, payment_method_id, total_amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		txn.UserID, txn.PaymentMethodID, txn.TotalAmount, txn.Status)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for i := range txn.Items {
		item := &txn.Items[i]
		item.TransactionID = txn.ID
		err = tx.GetContext(ctx, item, `
			INSERT INTO transaction_items (transaction_id, product_id, offer_id, quantity, unit_price, original_price, discount_applied)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, subtotal`,
			item.TransactionID, item.ProductID, item.OfferID, item.Quantity, item.UnitPrice, item.OriginalPrice, item.DiscountApplied)
		if err != nil {
			return fmt.Errorf("failed to insert transaction item: %w", err)
		}
	}

	return tx.Commit()
}

func findOrCreatePaymentMethod(ctx context.Context, tx *sqlx.Tx, userID int64, method *models.PaymentMethodInput) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	err := tx.GetContext(ctx, &pm,
		"SELECT * FROM payment_methods WHERE user_id = $1 AND type = $2", userID, method.Type)
	if err == nil {
		return &pm, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	details := types.JSONText("{}")
	if len(method.Details) > 0 {
		details = types.JSONText(method.Details)
	}
	err = tx.GetContext(ctx, &pm, `
		INSERT INTO payment_methods (user_id, type, details)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, type) DO UPDATE SET type = EXCLUDED.type
		RETURNING *`,
		userID, method.Type, details)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}
	return &pm, nil
}

// GetTransactionByID retrieves a transaction with items and payment method, nil when absent
func (s *Store) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.GetContext(ctx, &txn, "SELECT * FROM transactions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	txn.Items = []models.TransactionItem{}
	if err := s.db.SelectContext(ctx, &txn.Items,
		"SELECT * FROM transaction_items WHERE transaction_id = $1 ORDER BY id", id); err != nil {
		return nil, err
	}

	if txn.PaymentMethodID != nil {
		var pm models.PaymentMethod
		if err := s.db.GetContext(ctx, &pm,
			"SELECT * FROM payment_methods WHERE id = $1", *txn.PaymentMethodID); err != nil {
			return nil, err
		}
		txn.PaymentMethod = &pm
	}

	return &txn, nil
}

// UpdateTransactionStatus persists status and gateway outcome
func (s *Store) UpdateTransactionStatus(ctx context.Context, txn *models.Transaction) error {
	err := s.db.GetContext(ctx, &txn.UpdatedAt, `
		UPDATE transactions
		SET status = $1, gateway_reference = $2, gateway_details = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`,
		txn.Status, txn.GatewayReference, txn.GatewayDetails, txn.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFoundError(fmt.Sprintf("Transaction %d not found", txn.ID))
	}
	return err
}
