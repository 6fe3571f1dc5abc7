package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"productId"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	ImageURL    string          `db:"image_url" json:"imageUrl"`
	SKU         string          `db:"sku" json:"sku"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Category    string          `db:"category" json:"category"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
	Offers      []Offer         `db:"-" json:"offers,omitempty"`
}

// ProductUpdate is a partial product write; nil fields are left untouched
type ProductUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Category    *string          `json:"category,omitempty"`
}

// Apply copies the set fields onto p
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ImageURL != nil {
		p.ImageURL = *u.ImageURL
	}
	if u.SKU != nil {
		p.SKU = *u.SKU
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
}

// User represents a customer account
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// PaymentMethod is a stored payment instrument of a user
type PaymentMethod struct {
	ID        int64          `db:"id" json:"paymentMethodId"`
	UserID    int64          `db:"user_id" json:"userId"`
	Type      PaymentType    `db:"type" json:"type"`
	Details   types.JSONText `db:"details" json:"details,omitempty"`
	IsDefault bool           `db:"is_default" json:"isDefault"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// TransactionStatus is the lifecycle state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Valid reports whether s is a known status
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected from s
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Transaction represents a purchase and its payment outcome
type Transaction struct {
	ID               int64             `db:"id" json:"transactionId"`
	UserID           int64             `db:"user_id" json:"userId"`
	PaymentMethodID  *int64            `db:"payment_method_id" json:"paymentMethodId,omitempty"`
	TotalAmount      decimal.Decimal   `db:"total_amount" json:"totalAmount"`
	Status           TransactionStatus `db:"status" json:"status"`
	GatewayReference *string           `db:"gateway_reference" json:"gatewayReference,omitempty"`
	GatewayDetails   types.NullJSONText `db:"gateway_details" json:"gatewayDetails,omitempty"`
	CreatedAt        time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time         `db:"updated_at" json:"updatedAt"`
	Items            []TransactionItem `db:"-" json:"items"`
	PaymentMethod    *PaymentMethod    `db:"-" json:"paymentMethod,omitempty"`
}

// TransactionItem is an immutable purchase line
type TransactionItem struct {
	ID              int64           `db:"id" json:"itemId"`
	TransactionID   int64           `db:"transaction_id" json:"transactionId"`
	ProductID       int64           `db:"product_id" json:"productId"`
	OfferID         *int64          `db:"offer_id" json:"offerId,omitempty"`
	Quantity        int             `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unitPrice"`
	OriginalPrice   decimal.Decimal `db:"original_price" json:"originalPrice"`
	DiscountApplied decimal.Decimal `db:"discount_applied" json:"discountApplied"`
	Subtotal        decimal.Decimal `db:"subtotal" json:"subtotal"`
}

// ComputeSubtotal sets Subtotal to quantity x unit price
func (i *TransactionItem) ComputeSubtotal() {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MovementType is the direction of a stock change
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// InventoryHistory is one append-only ledger entry
type InventoryHistory struct {
	ID            int64        `db:"id" json:"recordId"`
	ProductID     int64        `db:"product_id" json:"productId"`
	TransactionID *int64       `db:"transaction_id" json:"transactionId,omitempty"`
	Quantity      int          `db:"quantity" json:"quantity"`
	PreviousStock int          `db:"previous_stock" json:"previousStock"`
	NewStock      int          `db:"new_stock" json:"newStock"`
	MovementType  MovementType `db:"movement_type" json:"movementType"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}
