// Package catalog describes the coffee menu: categories and the products
// listed under them.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/paging"
)

var (
	// ErrNotFound is returned when a requested coffee does not exist.
	ErrNotFound = errors.New("coffee not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
)

// Coffee is a purchasable menu entry.
type Coffee struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	CategoryID    *int64
	CategoryName  string
	IsAvailable   bool
	AverageRating decimal.Decimal
	TotalReviews  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category groups coffees on the menu. ProductCount only counts available
// coffees.
type Category struct {
	ID           int64
	Name         string
	Description  string
	ProductCount int
}

// Filter narrows a coffee listing. A nil Available matches every coffee and
// a zero CategoryID matches every category.
type Filter struct {
	Available  *bool
	CategoryID int64
	Page       paging.Page
}

// Repository defines read operations for the menu.
type Repository interface {
	ListCoffees(ctx context.Context, f Filter) ([]Coffee, error)
	Coffee(ctx context.Context, id int64) (*Coffee, error)
	ListCategories(ctx context.Context) ([]Category, error)
	Category(ctx context.Context, id int64) (*Category, error)
}
