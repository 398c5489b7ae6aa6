// Package review stores customer ratings of coffees. Every write keeps the
// coffee's average rating and review count in step with its reviews.
package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/coffee-shop/internal/domain/paging"
)

var (
	// ErrNotFound is returned when a review does not exist or belongs to
	// another user.
	ErrNotFound        = errors.New("review not found or unauthorized")
	ErrAlreadyReviewed = errors.New("you have already reviewed this coffee")
	ErrNothingToUpdate = errors.New("no fields to update")
)

// Rating bounds.
const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

// Review is one user's rating of one coffee.
type Review struct {
	ID        int64
	UserID    int64
	CoffeeID  int64
	OrderID   *int64
	Rating    int
	Comment   *string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Populated by lookups depending on the listing.
	Username          string
	Email             string
	CoffeeName        string
	CoffeeDescription string
	CategoryName      string
}

// Update holds the fields to change. Nil fields are left as is.
type Update struct {
	Rating  *int
	Comment *string
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u.Rating == nil && u.Comment == nil
}

// Repository defines persistence operations for reviews. Writes recompute
// the reviewed coffee's rating aggregates in the same transaction.
type Repository interface {
	// Create returns ErrAlreadyReviewed when the user already reviewed the coffee.
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, id, userID int64, u Update) error
	Delete(ctx context.Context, id, userID int64) error
	Get(ctx context.Context, id int64) (*Review, error)
	ListByCoffee(ctx context.Context, coffeeID int64, page paging.Page) ([]Review, error)
	ListByUser(ctx context.Context, userID int64, page paging.Page) ([]Review, error)
}
