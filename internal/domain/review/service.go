package review

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

// Service manages reviews.
type Service struct {
	reviews Repository
	catalog pricing.Catalog
}

// NewService creates a review Service.
func NewService(reviews Repository, catalog pricing.Catalog) *Service {
	return &Service{reviews: reviews, catalog: catalog}
}

// Create stores a review and returns it as persisted. Unknown coffees
// return catalog.ErrNotFound.
func (s *Service) Create(ctx context.Context, r *Review) (*Review, error) {
	if _, err := s.coffee(ctx, r.CoffeeID); err != nil {
		return nil, err
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create review")
	}
	return s.reviews.Get(ctx, r.ID)
}

// ByCoffee returns the coffee with a page of its reviews, newest first.
func (s *Service) ByCoffee(ctx context.Context, coffeeID int64, page paging.Page) (*catalog.Coffee, []Review, error) {
	c, err := s.coffee(ctx, coffeeID)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.reviews.ListByCoffee(ctx, coffeeID, page)
	if err != nil {
		return nil, nil, err
	}
	return c, reviews, nil
}

// ByUser returns a page of the user's reviews, newest first.
func (s *Service) ByUser(ctx context.Context, userID int64, page paging.Page) ([]Review, error) {
	return s.reviews.ListByUser(ctx, userID, page)
}

// Update changes the user's own review.
func (s *Service) Update(ctx context.Context, id, userID int64, u Update) (*Review, error) {
	if u.Empty() {
		return nil, ErrNothingToUpdate
	}
	if err := s.reviews.Update(ctx, id, userID, u); err != nil {
		return nil, err
	}
	return s.reviews.Get(ctx, id)
}

// Delete removes the user's own review.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	return s.reviews.Delete(ctx, id, userID)
}

func (s *Service) coffee(ctx context.Context, id int64) (*catalog.Coffee, error) {
	c, err := s.catalog.Coffee(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "get coffee")
	}
	return c, nil
}
