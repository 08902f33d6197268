package inventory

import (
	"context"
	"errors"
)

var (
	ErrInvalidAmount     = errors.New("inventory: amount must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Ledger is the authoritative quantity-on-hand per product. Decrement is the
// only mutator and is invoked exclusively by order acceptance. A Decrement
// that would drive the quantity negative fails with ErrInsufficientStock and
// leaves the quantity unchanged; it never clamps to zero silently.
//
// Implementations must make Decrement atomic with respect to concurrent
// Decrement calls on the same product.
type Ledger interface {
	CurrentQuantity(ctx context.Context, productID string) (int, error)
	Decrement(ctx context.Context, productID string, amount int) error
}
