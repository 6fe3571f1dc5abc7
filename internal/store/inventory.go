package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

// MutateStock applies mutation to the locked product row and appends the ledger
// entry in the same database transaction (FOR UPDATE lock)
func (s *Store) MutateStock(ctx context.Context, productID int64, mutation models.StockMutation, entry *models.InventoryHistory) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if entry.TransactionID != nil {
		var exists bool
		err = tx.GetContext(ctx, &exists,
			"SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)", *entry.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("failed to check transaction: %w", err)
		}
		if !exists {
			return nil, models.NotFoundError(fmt.Sprintf("Transaction %d not found", *entry.TransactionID))
		}
	}

	var previous int
	err = tx.GetContext(ctx, &previous,
		"SELECT stock FROM products WHERE id = $1 FOR UPDATE", productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", productID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	updated, err := mutation(previous)
	if err != nil {
		return nil, err
	}

	var product models.Product
	err = tx.GetContext(ctx, &product,
		"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2 RETURNING "+productColumns,
		updated, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	entry.ProductID = productID
	entry.PreviousStock = previous
	entry.NewStock = updated
	err = tx.GetContext(ctx, entry, `
		INSERT INTO inventory_history (product_id, transaction_id, quantity, previous_stock, new_stock, movement_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, product_id, transaction_id, quantity, previous_stock, new_stock, movement_type, created_at`,
		entry.ProductID, entry.TransactionID, entry.Quantity, entry.PreviousStock, entry.NewStock, entry.MovementType)
	if err != nil {
		return nil, fmt.Errorf("failed to append inventory history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock movement: %w", err)
	}
	return &product, nil
}

// GetHistoryByProduct retrieves the ledger of a product, oldest first
func (s *Store) GetHistoryByProduct(ctx context.Context, productID int64) ([]models.InventoryHistory, error) {
	records := []models.InventoryHistory{}
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM inventory_history WHERE product_id = $1 ORDER BY id", productID)
	return records, err
}

// GetHistoryByTransaction retrieves the ledger entries tagged with a transaction
func (s *Store) GetHistoryByTransaction(ctx context.Context, transactionID int64) ([]models.InventoryHistory, error) {
	records := []models.InventoryHistory{}
	err := s.db.SelectContext(ctx, &records,
		"SELECT * FROM inventory_history WHERE transaction_id = $1 ORDER BY id", transactionID)
	return records, err
}
