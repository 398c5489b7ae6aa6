package pricing

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNoItems is returned when a quote is requested for an empty item list.
var ErrNoItems = errors.New("order must contain at least one item")

// ErrQuantityOutOfRange is returned for a line item quantity outside
// 1..MaxQuantity.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

// ErrAmountTooLarge is returned when an order subtotal exceeds MaxAmount.
var ErrAmountTooLarge = errors.New("order amount too large")

// NotFoundError indicates a line item references an unknown coffee.
type NotFoundError struct {
	CoffeeID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Coffee with ID %d not found", e.CoffeeID)
}

// UnavailableError indicates a line item references a coffee that is off
// the menu.
type UnavailableError struct {
	CoffeeID int64
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("Coffee with ID %d is not available", e.CoffeeID)
}
