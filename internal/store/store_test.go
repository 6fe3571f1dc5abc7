package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("Integration test - set INTEGRATION_TESTS=1 to run against a postgres container")
	}

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("storefront_test"),
		postgres.WithUsername("app"),
		postgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}

	s, err := NewStore(dsn, Options{MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func seedProduct(t *testing.T, s *Store, name string, stock int) int64 {
	t.Helper()
	var id int64
	err := s.GetDB().Get(&id, `
		INSERT INTO products (name, sku, price, stock, category)
		VALUES ($1, $2, $3, $4, 'test') RETURNING id`,
		name, name[:3], decimal.NewFromInt(50), stock)
	require.NoError(t, err)
	return id
}

func seedUser(t *testing.T, s *Store, email string) int64 {
	t.Helper()
	var id int64
	err := s.GetDB().Get(&id, "INSERT INTO users (name, email) VALUES ('Test', $1) RETURNING id", email)
	require.NoError(t, err)
	return id
}

func TestMutateStock(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	productID := seedProduct(t, s, "Keyboard", 5)

	entry := &models.InventoryHistory{Quantity: 3, MovementType: models.MovementOut}
	product, err := s.MutateStock(ctx, productID, models.Movement(3, models.MovementOut), entry)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Stock)
	assert.Equal(t, 5, entry.PreviousStock)
	assert.Equal(t, 2, entry.NewStock)
	assert.NotZero(t, entry.ID)

	_, err = s.MutateStock(ctx, productID, models.Movement(9, models.MovementOut), &models.InventoryHistory{Quantity: 9, MovementType: models.MovementOut})
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	history, err := s.GetHistoryByProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, -3, history[0].NewStock-history[0].PreviousStock)

	_, err = s.MutateStock(ctx, 424242, models.Movement(1, models.MovementIn), &models.InventoryHistory{Quantity: 1, MovementType: models.MovementIn})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMutateStockUnknownTransaction(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	productID := seedProduct(t, s, "Monitor", 4)

	missing := int64(987654)
	entry := &models.InventoryHistory{Quantity: 2, MovementType: models.MovementIn, TransactionID: &missing}
	_, err := s.MutateStock(ctx, productID, models.Movement(2, models.MovementIn), entry)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.EqualError(t, err, "Transaction 987654 not found")

	product, err := s.GetProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)

	history, err := s.GetHistoryByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMutateStockSerializesConcurrentDebits(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	productID := seedProduct(t, s, "Cable", 20)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.MutateStock(ctx, productID, models.Movement(1, models.MovementOut),
				&models.InventoryHistory{Quantity: 1, MovementType: models.MovementOut})
		}()
	}
	wg.Wait()

	product, err := s.GetProductByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)

	history, err := s.GetHistoryByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Len(t, history, 20)
}

func TestTransactionRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	userID := seedUser(t, s, "roundtrip@example.com")
	p1 := seedProduct(t, s, "Lamp", 10)
	p2 := seedProduct(t, s, "Desk", 10)

	method := &models.PaymentMethodInput{Type: models.PaymentTypeCard, Details: json.RawMessage(`{"token":{"cardNumber":"4242"}}`)}
	txn := &models.Transaction{
		UserID:      userID,
		TotalAmount: decimal.NewFromInt(130),
		Status:      models.TransactionStatusPending,
		Items: []models.TransactionItem{
			{ProductID: p1, Quantity: 2, UnitPrice: decimal.NewFromInt(40), OriginalPrice: decimal.NewFromInt(50), DiscountApplied: decimal.NewFromInt(10)},
			{ProductID: p2, Quantity: 1, UnitPrice: decimal.NewFromInt(50), OriginalPrice: decimal.NewFromInt(50)},
		},
	}
	require.NoError(t, s.CreateTransaction(ctx, txn, method))
	assert.NotZero(t, txn.ID)
	require.NotNil(t, txn.PaymentMethodID)

	got, err := s.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, p1, got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(got.Items[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(80).Equal(got.Items[0].Subtotal))
	require.NotNil(t, got.PaymentMethod)
	assert.Equal(t, models.PaymentTypeCard, got.PaymentMethod.Type)

	ref := "gw-123"
	got.Status = models.TransactionStatusCompleted
	got.GatewayReference = &ref
	require.NoError(t, got.GatewayDetails.Scan([]byte(`{"status":"APPROVED"}`)))
	require.NoError(t, s.UpdateTransactionStatus(ctx, got))

	again, err := s.GetTransactionByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusCompleted, again.Status)
	require.NotNil(t, again.GatewayReference)
	assert.Equal(t, "gw-123", *again.GatewayReference)

	second := &models.Transaction{
		UserID: userID, Status: models.TransactionStatusPending,
		Items: []models.TransactionItem{{ProductID: p1, Quantity: 1, UnitPrice: decimal.NewFromInt(50), OriginalPrice: decimal.NewFromInt(50)}},
	}
	require.NoError(t, s.CreateTransaction(ctx, second, method))
	assert.Equal(t, *txn.PaymentMethodID, *second.PaymentMethodID)

	methods, err := s.GetPaymentMethodsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	missing, err := s.GetTransactionByID(ctx, 999999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateProductAndOffers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	productID := seedProduct(t, s, "Chair", 4)

	stock := 9
	name := "Office Chair"
	product, err := s.UpdateProduct(ctx, productID, models.ProductUpdate{Stock: &stock, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 9, product.Stock)
	assert.Equal(t, "Office Chair", product.Name)

	_, err = s.UpdateProduct(ctx, 999999, models.ProductUpdate{Stock: &stock})
	assert.ErrorIs(t, err, models.ErrNotFound)

	byName, err := s.GetProductsByName(ctx, "Office Chair")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	now := time.Now().UTC()
	s.GetDB().MustExec(`
		INSERT INTO offer_products (product_id, discount_percentage, start_date, end_date, is_active)
		VALUES ($1, 10, $2, $3, TRUE), ($1, 20, $2, $3, FALSE), ($1, 30, $4, $4, TRUE)`,
		productID, now.Add(-time.Hour), now.Add(time.Hour), now.Add(-48*time.Hour))

	offers, err := s.GetActiveOffersByProduct(ctx, productID, now)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(offers[0].DiscountPercentage.Decimal))
	assert.False(t, offers[0].DiscountAmount.Valid)
}
