package service

import (
	"fmt"

	"storefront/internal/models"
)

// resolvePaymentMethod returns the submitted method with its type defaulted to fallback
func resolvePaymentMethod(method *models.PaymentMethodInput, fallback models.PaymentType) *models.PaymentMethodInput {
	if method == nil {
		return nil
	}
	resolved := *method
	if resolved.Type == "" {
		resolved.Type = fallback
	}
	return &resolved
}

// validatePaymentRequest checks a process-payment request before anything is written.
// The first failing rule wins.
func validatePaymentRequest(req *models.ProcessPaymentRequest, method *models.PaymentMethodInput) error {
	if !req.TotalAmount.IsPositive() {
		return models.ValidationError("Payment amount must be greater than zero")
	}
	if method == nil {
		return models.ValidationError("Payment method is required")
	}
	if err := method.ParseDetails().Validate(); err != nil {
		return err
	}
	if len(req.Products) == 0 {
		return models.ValidationError("At least one product must be included")
	}
	return validateItems(req.Products)
}

func validateItems(items []models.ItemInput) error {
	for _, item := range items {
		if item.ProductID <= 0 {
			return models.ValidationError("Product ID is required for every item")
		}
		if item.Qty() <= 0 {
			return models.ValidationError("Quantity must be greater than zero")
		}
		if item.UnitPrice.Valid && item.UnitPrice.Decimal.IsNegative() {
			return models.ValidationError(fmt.Sprintf("Unit price of product %d must not be negative", item.ProductID))
		}
	}
	return nil
}

// validateCreateRequest checks a create-transaction request and defaults its status
func validateCreateRequest(req *models.CreateTransactionRequest) error {
	if req.UserID <= 0 {
		return models.ValidationError("User ID is required")
	}
	if len(req.Items) == 0 {
		return models.ValidationError("Transaction must have at least one item")
	}
	if req.TotalAmount.IsNegative() {
		return models.ValidationError("Total amount must not be negative")
	}
	if req.Status == "" {
		req.Status = models.TransactionStatusPending
	}
	if !req.Status.Valid() {
		return models.ValidationError(fmt.Sprintf("Invalid transaction status %q", req.Status))
	}
	return validateItems(req.Items)
}
