// Package memory keeps storefront state in process. It backs the service
// tests and the STORAGE_DRIVER=memory demo mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/jmoiron/sqlx/types"
)

type Store struct {
	mu sync.Mutex

	products       map[int64]models.Product
	offers         []models.Offer
	users          map[int64]models.User
	paymentMethods []models.PaymentMethod
	transactions   map[int64]models.Transaction
	items          map[int64][]models.TransactionItem
	history        []models.InventoryHistory

	seq map[string]int64
	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:     make(map[int64]models.Product),
		users:        make(map[int64]models.User),
		transactions: make(map[int64]models.Transaction),
		items:        make(map[int64][]models.TransactionItem),
		seq:          make(map[string]int64),
		now:          time.Now,
	}
}

func (s *Store) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// AddProduct inserts p, assigning an id when it has none
func (s *Store) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		p.ID = s.next("products")
	} else if p.ID > s.seq["products"] {
		s.seq["products"] = p.ID
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Offers = nil
	s.products[p.ID] = p
	return p
}

// AddOffer inserts o, assigning an id when it has none
func (s *Store) AddOffer(o models.Offer) models.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == 0 {
		o.ID = s.next("offers")
	} else if o.ID > s.seq["offers"] {
		s.seq["offers"] = o.ID
	}
	now := s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	s.offers = append(s.offers, o)
	return o
}

// AddUser inserts u, assigning an id when it has none
func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = s.next("users")
	} else if u.ID > s.seq["users"] {
		s.seq["users"] = u.ID
	}
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	return u
}

func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) GetProductsByName(ctx context.Context, name string) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := []models.Product{}
	for _, p := range s.products {
		if p.Name == name {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := []models.Product{}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !seen[id] {
			seen[id] = true
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, update models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", id))
	}
	update.Apply(&p)
	p.UpdatedAt = s.now()
	s.products[id] = p
	return &p, nil
}

func (s *Store) GetActiveOffersByProduct(ctx context.Context, productID int64, at time.Time) ([]models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offers := []models.Offer{}
	for _, o := range s.offers {
		if o.ProductID == productID && o.IsValid(at) {
			offers = append(offers, o)
		}
	}
	return offers, nil
}

func (s *Store) MutateStock(ctx context.Context, productID int64, mutation models.StockMutation, entry *models.InventoryHistory) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, models.NotFoundError(fmt.Sprintf("Product %d not found", productID))
	}
	if entry.TransactionID != nil {
		if _, ok := s.transactions[*entry.TransactionID]; !ok {
			return nil, models.NotFoundError(fmt.Sprintf("Transaction %d not found", *entry.TransactionID))
		}
	}

	previous := p.Stock
	updated, err := mutation(previous)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p.Stock = updated
	p.UpdatedAt = now
	s.products[productID] = p

	entry.ID = s.next("inventory_history")
	entry.ProductID = productID
	entry.PreviousStock = previous
	entry.NewStock = updated
	entry.CreatedAt = now
	s.history = append(s.history, *entry)

	return &p, nil
}

func (s *Store) GetHistoryByProduct(ctx context.Context, productID int64) ([]models.InventoryHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []models.InventoryHistory{}
	for _, h := range s.history {
		if h.ProductID == productID {
			records = append(records, h)
		}
	}
	return records, nil
}

func (s *Store) GetHistoryByTransaction(ctx context.Context, transactionID int64) ([]models.InventoryHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := []models.InventoryHistory{}
	for _, h := range s.history {
		if h.TransactionID != nil && *h.TransactionID == transactionID {
			records = append(records, h)
		}
	}
	return records, nil
}

func (s *Store) CreateTransaction(ctx context.Context, txn *models.Transaction, method *models.PaymentMethodInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[txn.UserID]; !ok {
		return models.NotFoundError(fmt.Sprintf("User %d not found", txn.UserID))
	}
	for _, item := range txn.Items {
		if _, ok := s.products[item.ProductID]; !ok {
			return models.NotFoundError(fmt.Sprintf("Product %d not found", item.ProductID))
		}
	}

	now := s.now()
	if method != nil {
		pm := s.findOrCreatePaymentMethod(txn.UserID, method, now)
		txn.PaymentMethodID = &pm.ID
		txn.PaymentMethod = &pm
	}

	txn.ID = s.next("transactions")
	txn.CreatedAt, txn.UpdatedAt = now, now

	items := make([]models.TransactionItem, len(txn.Items))
	for i := range txn.Items {
		txn.Items[i].ID = s.next("transaction_items")
		txn.Items[i].TransactionID = txn.ID
		txn.Items[i].ComputeSubtotal()
		items[i] = txn.Items[i]
	}

	stored := *txn
	stored.Items = nil
	stored.PaymentMethod = nil
	s.transactions[txn.ID] = stored
	s.items[txn.ID] = items
	return nil
}

func (s *Store) findOrCreatePaymentMethod(userID int64, method *models.PaymentMethodInput, now time.Time) models.PaymentMethod {
	for _, pm := range s.paymentMethods {
		if pm.UserID == userID && pm.Type == method.Type {
			return pm
		}
	}

	details := types.JSONText("{}")
	if len(method.Details) > 0 {
		details = types.JSONText(append([]byte(nil), method.Details...))
	}
	pm := models.PaymentMethod{
		ID:        s.next("payment_methods"),
		UserID:    userID,
		Type:      method.Type,
		Details:   details,
		CreatedAt: now,
	}
	s.paymentMethods = append(s.paymentMethods, pm)
	return pm
}

func (s *Store) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	txn.Items = append([]models.TransactionItem{}, s.items[id]...)
	if txn.PaymentMethodID != nil {
		for _, pm := range s.paymentMethods {
			if pm.ID == *txn.PaymentMethodID {
				pm := pm
				txn.PaymentMethod = &pm
				break
			}
		}
	}
	return &txn, nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.transactions[txn.ID]
	if !ok {
		return models.NotFoundError(fmt.Sprintf("Transaction %d not found", txn.ID))
	}
	stored.Status = txn.Status
	stored.GatewayReference = txn.GatewayReference
	stored.GatewayDetails = txn.GatewayDetails
	stored.UpdatedAt = s.now()
	txn.UpdatedAt = stored.UpdatedAt
	s.transactions[txn.ID] = stored
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) GetPaymentMethodsByUser(ctx context.Context, userID int64) ([]models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods := []models.PaymentMethod{}
	for _, pm := range s.paymentMethods {
		if pm.UserID == userID {
			methods = append(methods, pm)
		}
	}
	return methods, nil
}
