package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, description, image_url, sku, price, stock, category, created_at, updated_at`

// GetProducts retrieves all products
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, "SELECT "+productColumns+" FROM products ORDER BY id")
	return products, err
}

// GetProductByID retrieves a product by ID, nil when absent
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByName retrieves products with exactly this name
func (s *Store) GetProductsByName(ctx context.Context, name string) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE name = $1 ORDER BY id", name)
	return products, err
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT "+productColumns+" FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	products := []models.Product{}
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// UpdateProduct writes the set fields of update and returns the refreshed product
func (s *Store) UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.ImageURL != nil {
		add("image_url", *update.ImageURL)
	}
	if update.SKU != nil {
		add("sku", *update.SKU)
	}
	if update.Price != nil {
		add("price", *update.Price)
	}
	if update.Stock != nil {
		add("stock", *update.Stock)
	}
	if update.Category != nil {
		add("category", *update.Category)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), productColumns)

	var product models.Product
	err := s.db.GetContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

// GetActiveOffersByProduct retrieves active offers whose window contains at
func (s *Store) GetActiveOffersByProduct(ctx context.Context, productID int64, at time.Time) ([]models.Offer, error) {
	offers := []models.Offer{}
	err := s.db.SelectContext(ctx, &offers, `
		SELECT id, product_id, discount_percentage, discount_amount, start_date, end_date,
		       description, is_active, created_at, updated_at
		FROM offer_products
		WHERE product_id = $1 AND is_active AND start_date <= $2 AND end_date >= $2
		ORDER BY id`, productID, at)
	return offers, err
}
