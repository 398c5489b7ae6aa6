//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/review"
)

func coffeeRating(t *testing.T, id int64) (string, int) {
	t.Helper()
	c, err := NewCatalogRepository(testPool).Coffee(context.Background(), id)
	require.NoError(t, err)
	return c.AverageRating.StringFixed(2), c.TotalReviews
}

func TestReviewRepository_RatingAggregates(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewReviewRepository(testPool)

	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	carol := createUser(t, "carol")
	coffeeID := createCoffee(t, "Flat White", "4.10", nil, true)

	comment := "Smooth"
	ra := &review.Review{UserID: alice, CoffeeID: coffeeID, Rating: 5, Comment: &comment}
	require.NoError(t, repo.Create(ctx, ra))
	require.NoError(t, repo.Create(ctx, &review.Review{UserID: bob, CoffeeID: coffeeID, Rating: 4}))
	require.NoError(t, repo.Create(ctx, &review.Review{UserID: carol, CoffeeID: coffeeID, Rating: 4}))

	avg, total := coffeeRating(t, coffeeID)
	assert.Equal(t, "4.33", avg)
	assert.Equal(t, 3, total)

	err := repo.Create(ctx, &review.Review{UserID: alice, CoffeeID: coffeeID, Rating: 1})
	require.ErrorIs(t, err, review.ErrAlreadyReviewed)

	rating := 2
	require.NoError(t, repo.Update(ctx, ra.ID, alice, review.Update{Rating: &rating}))
	avg, _ = coffeeRating(t, coffeeID)
	assert.Equal(t, "3.33", avg)

	got, err := repo.Get(ctx, ra.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Rating)
	require.NotNil(t, got.Comment)
	assert.Equal(t, "Smooth", *got.Comment)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Flat White", got.CoffeeName)

	require.ErrorIs(t, repo.Update(ctx, ra.ID, bob, review.Update{Rating: &rating}), review.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, ra.ID, bob), review.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, ra.ID, alice))
	avg, total = coffeeRating(t, coffeeID)
	assert.Equal(t, "4.00", avg)
	assert.Equal(t, 2, total)

	list, err := repo.ListByCoffee(ctx, coffeeID, paging.Page{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.ListByUser(ctx, bob, paging.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Flat White", list[0].CoffeeName)
}

func TestReviewRepository_CreateErrors(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewReviewRepository(testPool)
	userID := createUser(t, "dave")
	coffeeID := createCoffee(t, "Cortado", "3.60", nil, true)

	err := repo.Create(ctx, &review.Review{UserID: userID, CoffeeID: 9999, Rating: 3})
	require.ErrorIs(t, err, catalog.ErrNotFound)

	missingOrder := int64(9999)
	err = repo.Create(ctx, &review.Review{UserID: userID, CoffeeID: coffeeID, OrderID: &missingOrder, Rating: 3})
	require.ErrorIs(t, err, order.ErrNotFound)

	_, total := coffeeRating(t, coffeeID)
	assert.Zero(t, total)
}
