package models

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentType tags the payment method variant
type PaymentType string

const (
	PaymentTypeCard  PaymentType = "CARD"
	PaymentTypeNequi PaymentType = "NEQUI"
)

var nequiPhonePattern = regexp.MustCompile(`^3[0-9]{9}$`)

// PaymentMethodInput is a payment method as submitted by a client
type PaymentMethodInput struct {
	Type    PaymentType     `json:"type"`
	Details json.RawMessage `json:"details,omitempty"`
}

// PaymentDetails is one of CardDetails, NequiDetails or OpaqueDetails
type PaymentDetails interface {
	Validate() error
	paymentDetails()
}

// TokenValue accepts a JSON string or number
type TokenValue string

func (v *TokenValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TokenValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = TokenValue(n.String())
	return nil
}

func (v TokenValue) empty() bool {
	return strings.TrimSpace(string(v)) == ""
}

type CardToken struct {
	CardNumber     TokenValue `json:"cardNumber"`
	ExpiryMonth    TokenValue `json:"expiryMonth"`
	ExpiryYear     TokenValue `json:"expiryYear"`
	CardholderName TokenValue `json:"cardholderName"`
	CVC            TokenValue `json:"cvc,omitempty"`
}

type CardDetails struct {
	Token *CardToken `json:"token"`
}

func (CardDetails) paymentDetails() {}

func (d CardDetails) Validate() error {
	if d.Token == nil || d.Token.CardNumber.empty() {
		return ValidationError("Card data is required for card payments")
	}
	t := d.Token
	if t.CardNumber.empty() || t.ExpiryMonth.empty() || t.ExpiryYear.empty() || t.CardholderName.empty() {
		return ValidationError("All card details are required: number, expiration date and CVC")
	}
	return nil
}

type NequiToken struct {
	Number TokenValue `json:"number"`
}

type NequiDetails struct {
	Token *NequiToken `json:"token"`
}

func (NequiDetails) paymentDetails() {}

func (d NequiDetails) Validate() error {
	if d.Token == nil || d.Token.Number.empty() {
		return ValidationError("Phone number is required for Nequi payments")
	}
	if !nequiPhonePattern.MatchString(string(d.Token.Number)) {
		return ValidationError("Phone number must be valid for Nequi (10 digits starting with 3)")
	}
	return nil
}

// OpaqueDetails holds details of payment types without a known schema
type OpaqueDetails struct {
	Raw json.RawMessage
}

func (OpaqueDetails) paymentDetails() {}

func (OpaqueDetails) Validate() error { return nil }

// ParseDetails decodes Details into the variant selected by Type.
// Undecodable card or nequi details count as missing.
func (p PaymentMethodInput) ParseDetails() PaymentDetails {
	switch p.Type {
	case PaymentTypeCard:
		var d CardDetails
		if len(p.Details) > 0 {
			if err := json.Unmarshal(p.Details, &d); err != nil {
				return CardDetails{}
			}
		}
		return d
	case PaymentTypeNequi:
		var d NequiDetails
		if len(p.Details) > 0 {
			if err := json.Unmarshal(p.Details, &d); err != nil {
				return NequiDetails{}
			}
		}
		return d
	default:
		return OpaqueDetails{Raw: p.Details}
	}
}

// GatewayStatus is the outcome reported by the payment gateway
type GatewayStatus string

const (
	GatewayStatusApproved GatewayStatus = "APPROVED"
	GatewayStatusDeclined GatewayStatus = "DECLINED"
	GatewayStatusError    GatewayStatus = "ERROR"
	GatewayStatusPending  GatewayStatus = "PENDING"
)

const (
	PaymentCurrency    = "COP"
	PaymentDescription = "Buy in store"
)

// PaymentRequest is sent to the gateway to charge a transaction
type PaymentRequest struct {
	Amount        decimal.Decimal    `json:"amount"`
	PaymentMethod PaymentMethodInput `json:"paymentMethod"`
	Reference     string             `json:"reference"`
	Currency      string             `json:"currency"`
	Description   string             `json:"description"`
}

// PaymentResponse is the gateway's answer for a charge or verification
type PaymentResponse struct {
	Status        GatewayStatus `json:"status"`
	Message       string        `json:"message"`
	TransactionID string        `json:"transactionId"`
	Reference     string        `json:"reference"`
}
