package models

import "errors"

// Error kinds. Match with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPaymentDeclined   = errors.New("payment declined")
	ErrGateway           = errors.New("payment gateway error")
	ErrConflict          = errors.New("conflict")
)

// Error is a classified domain error carrying a user-visible message
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches the error kind
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func ValidationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func NotFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func InsufficientStockError(msg string) error {
	return &Error{Kind: ErrInsufficientStock, Message: msg}
}

func PaymentDeclinedError(msg string) error {
	return &Error{Kind: ErrPaymentDeclined, Message: msg}
}

func ConflictError(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// GatewayError wraps a transport or remote failure of the payment gateway
func GatewayError(cause error) error {
	return &Error{Kind: ErrGateway, Message: cause.Error(), Cause: cause}
}
