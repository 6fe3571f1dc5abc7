package memory

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutateStockWritesLedger(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(models.Product{Name: "Mouse", Price: decimal.NewFromInt(10), Stock: 5})
	ctx := context.Background()

	entry := &models.InventoryHistory{Quantity: 2, MovementType: models.MovementOut}
	updated, err := s.MutateStock(ctx, p.ID, models.Movement(2, models.MovementOut), entry)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, 5, entry.PreviousStock)
	assert.Equal(t, 3, entry.NewStock)
	assert.NotZero(t, entry.ID)

	_, err = s.MutateStock(ctx, p.ID, models.Movement(9, models.MovementOut), &models.InventoryHistory{})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	stored, err := s.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Stock)

	history, err := s.GetHistoryByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = s.MutateStock(ctx, 999, models.Movement(1, models.MovementIn), &models.InventoryHistory{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMutateStockConcurrentDebits(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(models.Product{Name: "Cable", Stock: 50})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := 0
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MutateStock(ctx, p.ID, models.Movement(1, models.MovementOut), &models.InventoryHistory{Quantity: 1, MovementType: models.MovementOut})
			if err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stored, _ := s.GetProductByID(ctx, p.ID)
	assert.Equal(t, 0, stored.Stock)
	assert.Equal(t, 30, failures)

	history, _ := s.GetHistoryByProduct(ctx, p.ID)
	assert.Len(t, history, 50)
}

func TestCreateTransactionReusesPaymentMethod(t *testing.T) {
	s := NewStore()
	u := s.AddUser(models.User{Name: "Ana", Email: "ana@example.com"})
	p := s.AddProduct(models.Product{Name: "Lamp", Price: decimal.NewFromInt(40), Stock: 3})
	ctx := context.Background()
	method := &models.PaymentMethodInput{Type: models.PaymentTypeNequi, Details: json.RawMessage(`{"token":{"number":"3001234567"}}`)}

	for i := 0; i < 2; i++ {
		txn := &models.Transaction{
			UserID: u.ID,
			Status: models.TransactionStatusPending,
			Items:  []models.TransactionItem{{ProductID: p.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(40)}},
		}
		require.NoError(t, s.CreateTransaction(ctx, txn, method))
		require.NotNil(t, txn.PaymentMethodID)
	}

	methods, err := s.GetPaymentMethodsByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	txn, err := s.GetTransactionByID(ctx, 2)
	require.NoError(t, err)
	require.Len(t, txn.Items, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(txn.Items[0].Subtotal))
	require.NotNil(t, txn.PaymentMethod)
	assert.Equal(t, models.PaymentTypeNequi, txn.PaymentMethod.Type)

	missing, err := s.GetTransactionByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	err = s.CreateTransaction(ctx, &models.Transaction{UserID: 77}, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
