// Package favorite keeps the coffees a user has starred along with their
// preferred cup size and sugar level.
package favorite

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

var (
	ErrNotFound        = errors.New("favorite not found")
	ErrAlreadyFavorite = errors.New("coffee already in favorites")
)

// Favorite links a user to a coffee. Empty preferences mean unset.
type Favorite struct {
	ID             int64
	UserID         int64
	CoffeeID       int64
	PreferredSize  pricing.CupSize
	PreferredSugar pricing.SugarLevel
	CreatedAt      time.Time

	// Populated by listings.
	CoffeeName        string
	CoffeeDescription string
	Price             decimal.Decimal
	AverageRating     decimal.Decimal
	CategoryName      string
}

// Repository defines persistence operations for favorites. Create returns
// ErrAlreadyFavorite when the pair already exists.
type Repository interface {
	Create(ctx context.Context, f *Favorite) error
	Exists(ctx context.Context, userID, coffeeID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]Favorite, error)
	Delete(ctx context.Context, id, userID int64) error
}

// Service manages favorites.
type Service struct {
	favorites Repository
	catalog   pricing.Catalog
}

// NewService creates a favorite Service.
func NewService(favorites Repository, catalog pricing.Catalog) *Service {
	return &Service{favorites: favorites, catalog: catalog}
}

// Add stars a coffee for the user. Unknown coffees return catalog.ErrNotFound.
func (s *Service) Add(ctx context.Context, f *Favorite) error {
	if _, err := s.catalog.Coffee(ctx, f.CoffeeID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.ErrNotFound
		}
		return errors.Wrap(err, "get coffee")
	}

	exists, err := s.favorites.Exists(ctx, f.UserID, f.CoffeeID)
	if err != nil {
		return errors.Wrap(err, "check favorite")
	}
	if exists {
		return ErrAlreadyFavorite
	}

	if err := s.favorites.Create(ctx, f); err != nil {
		if errors.Is(err, ErrAlreadyFavorite) {
			return err
		}
		return errors.Wrap(err, "create favorite")
	}
	return nil
}

// List returns the user's favorites, most recent first.
func (s *Service) List(ctx context.Context, userID int64) ([]Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}

// Remove deletes a favorite owned by the user.
func (s *Service) Remove(ctx context.Context, id, userID int64) error {
	return s.favorites.Delete(ctx, id, userID)
}
