package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

var (
	// ErrNotFound is returned when an order does not exist or is not
	// visible to the requesting user.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidStatus is returned for status values outside the known set.
	ErrInvalidStatus = errors.New("invalid status value")
)

// Status is the fulfilment state of an order. Any status may be overwritten
// by any other.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every recognized status.
var Statuses = []Status{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}

// Valid reports whether s is a recognized status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order is a persisted customer order.
type Order struct {
	ID             int64
	Number         string
	UserID         int64
	Username       string
	Email          string
	Status         Status
	TotalPrice     decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []Item
}

// Item is a persisted order line.
type Item struct {
	ID                int64
	OrderID           int64
	CoffeeID          int64
	CoffeeName        string
	CoffeeDescription string
	Quantity          int
	CupSize           pricing.CupSize
	SugarLevel        pricing.SugarLevel
	UnitPrice         decimal.Decimal
	ItemTotal         decimal.Decimal
	CreatedAt         time.Time
}

// Summary is an order header in a history listing.
type Summary struct {
	ID             int64
	Number         string
	UserID         int64
	Status         Status
	TotalPrice     decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalPrice     decimal.Decimal
	ItemCount      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Tx is the set of order writes performed inside one storage transaction.
// Coffee lookups through a Tx see the transaction's snapshot.
type Tx interface {
	pricing.Catalog
	// LastNumber returns the number of the most recently inserted order, or
	// "" when there are none. It serializes concurrent callers until the
	// transaction ends.
	LastNumber(ctx context.Context) (string, error)
	// Insert stores the header and fills in ID and timestamps.
	Insert(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, orderID int64, items []pricing.PricedItem) error
}

// Repository defines persistence operations for orders.
type Repository interface {
	// InTx runs fn in a transaction. Any error from fn rolls back every write.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Get loads an order with its items. A non-nil owner restricts the
	// lookup to that user's orders.
	Get(ctx context.Context, id int64, owner *int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, page paging.Page) ([]Summary, error)
	SetStatus(ctx context.Context, id int64, status Status) error
}
