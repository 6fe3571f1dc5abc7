package models

// StockMutation computes a new stock level from the current one
type StockMutation func(current int) (int, error)

// ApplyMovement returns the stock after moving quantity units in the given direction.
// Stock never goes below zero.
func ApplyMovement(current, quantity int, movementType MovementType) (int, error) {
	if quantity <= 0 {
		return current, ValidationError("Quantity must be greater than zero")
	}

	switch movementType {
	case MovementOut:
		if current <= 0 || current < quantity {
			return current, InsufficientStockError("Not enough stock")
		}
		return current - quantity, nil
	case MovementIn:
		return current + quantity, nil
	default:
		return current, ValidationError("Movement type must be 'in' or 'out'")
	}
}

// Movement returns the StockMutation for ApplyMovement
func Movement(quantity int, movementType MovementType) StockMutation {
	return func(current int) (int, error) {
		return ApplyMovement(current, quantity, movementType)
	}
}
