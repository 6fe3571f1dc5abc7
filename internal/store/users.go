package store

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"
)

// GetUserByID retrieves a user, nil when absent
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPaymentMethodsByUser retrieves the stored payment methods of a user
func (s *Store) GetPaymentMethodsByUser(ctx context.Context, userID int64) ([]models.PaymentMethod, error) {
	methods := []models.PaymentMethod{}
	err := s.db.SelectContext(ctx, &methods,
		"SELECT * FROM payment_methods WHERE user_id = $1 ORDER BY id", userID)
	return methods, err
}
