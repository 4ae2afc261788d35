package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrStockNotFound         = errors.New("product stock not found")
	ErrDuplicateOrderNumber  = errors.New("order number already exists")
	ErrAlreadyCancelled      = errors.New("order already cancelled")
	ErrCannotCancelCompleted = errors.New("cannot cancel a picked up order")
	ErrNoItems               = errors.New("order must have at least one item")
	ErrInvalidQuantity       = errors.New("item quantity must be positive")
	ErrTotalMismatch         = errors.New("order amounts are inconsistent")
	ErrUnknownStatus         = errors.New("unknown order status")
)

// InsufficientStockError membawa detail kekurangan supaya caller bisa
// menampilkan required vs available per produk.
type InsufficientStockError struct {
	ProductID string
	Required  int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: required %d, available %d",
		e.ProductID, e.Required, e.Available)
}

type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
