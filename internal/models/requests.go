package models

import "github.com/shopspring/decimal"

// ItemInput is a requested purchase line
type ItemInput struct {
	ProductID int64               `json:"productId"`
	Quantity  *int                `json:"quantity,omitempty"`
	UnitPrice decimal.NullDecimal `json:"unitPrice"`
}

// Qty returns the requested quantity, 1 when omitted
func (i ItemInput) Qty() int {
	if i.Quantity == nil {
		return 1
	}
	return *i.Quantity
}

// ProcessPaymentRequest asks to charge and fulfil a purchase
type ProcessPaymentRequest struct {
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Type          PaymentType         `json:"type"`
	PaymentMethod *PaymentMethodInput `json:"paymentMethod"`
	Products      []ItemInput         `json:"products"`
	UserID        int64               `json:"userId"`
}

// CreateTransactionRequest records a transaction without charging it
type CreateTransactionRequest struct {
	UserID        int64               `json:"userId"`
	PaymentMethod *PaymentMethodInput `json:"paymentMethod,omitempty"`
	Items         []ItemInput         `json:"items"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Status        TransactionStatus   `json:"status,omitempty"`
}

// UpdateStockRequest moves stock of one product
type UpdateStockRequest struct {
	Quantity      int          `json:"quantity"`
	MovementType  MovementType `json:"movementType"`
	TransactionID *int64       `json:"transactionId,omitempty"`
}

// CreateInventoryHistoryRequest applies a movement and returns its ledger entry
type CreateInventoryHistoryRequest struct {
	ProductID     int64        `json:"productId"`
	Quantity      int          `json:"quantity"`
	MovementType  MovementType `json:"movementType"`
	TransactionID *int64       `json:"transactionId,omitempty"`
}
