//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/paging"
)

func TestCatalogRepository(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)

	espresso := createCategory(t, "Espresso")
	tea := createCategory(t, "Tea")
	createCoffee(t, "Doppio", "3.00", &espresso, true)
	createCoffee(t, "Americano", "3.25", &espresso, true)
	createCoffee(t, "Ristretto", "3.10", &espresso, false)
	orphan := createCoffee(t, "Mystery", "9.99", nil, true)

	t.Run("available coffees ordered by name", func(t *testing.T) {
		available := true
		coffees, err := repo.ListCoffees(ctx, catalog.Filter{Available: &available, Page: paging.Page{Limit: 50}})
		require.NoError(t, err)
		require.Len(t, coffees, 3)
		assert.Equal(t, "Americano", coffees[0].Name)
		assert.Equal(t, "Espresso", coffees[0].CategoryName)
		assert.Equal(t, "Mystery", coffees[2].Name)
		assert.Nil(t, coffees[2].CategoryID)
	})

	t.Run("unavailable coffees", func(t *testing.T) {
		available := false
		coffees, err := repo.ListCoffees(ctx, catalog.Filter{Available: &available, Page: paging.Page{Limit: 50}})
		require.NoError(t, err)
		require.Len(t, coffees, 1)
		assert.Equal(t, "Ristretto", coffees[0].Name)
	})

	t.Run("zero limit lists everything", func(t *testing.T) {
		coffees, err := repo.ListCoffees(ctx, catalog.Filter{})
		require.NoError(t, err)
		assert.Len(t, coffees, 4)

		coffees, err = repo.ListCoffees(ctx, catalog.Filter{Page: paging.Page{Offset: 3}})
		require.NoError(t, err)
		require.Len(t, coffees, 1)
		assert.Equal(t, "Ristretto", coffees[0].Name)
	})

	t.Run("by category with paging", func(t *testing.T) {
		coffees, err := repo.ListCoffees(ctx, catalog.Filter{CategoryID: espresso, Page: paging.Page{Limit: 2, Offset: 1}})
		require.NoError(t, err)
		require.Len(t, coffees, 2)
		assert.Equal(t, "Doppio", coffees[0].Name)
		assert.Equal(t, "Ristretto", coffees[1].Name)
	})

	t.Run("categories count available products", func(t *testing.T) {
		categories, err := repo.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 2)
		assert.Equal(t, "Espresso", categories[0].Name)
		assert.Equal(t, 2, categories[0].ProductCount)
		assert.Equal(t, 0, categories[1].ProductCount)

		c, err := repo.Category(ctx, tea)
		require.NoError(t, err)
		assert.Equal(t, "Tea", c.Name)

		_, err = repo.Category(ctx, 9999)
		require.ErrorIs(t, err, catalog.ErrCategoryNotFound)
	})

	t.Run("coffee lookup", func(t *testing.T) {
		c, err := repo.Coffee(ctx, orphan)
		require.NoError(t, err)
		assert.Equal(t, "9.99", c.Price.StringFixed(2))
		assert.True(t, c.IsAvailable)

		_, err = repo.Coffee(ctx, 9999)
		require.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestCatalogRepository_Upsert(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)

	cat := &catalog.Category{Name: "Tea", Description: "Leaves"}
	require.NoError(t, repo.UpsertCategory(ctx, cat))
	firstID := cat.ID

	again := &catalog.Category{Name: "Tea"}
	require.NoError(t, repo.UpsertCategory(ctx, again))
	assert.Equal(t, firstID, again.ID)
	assert.Equal(t, "Leaves", again.Description, "empty description keeps the stored one")

	c := &catalog.Coffee{Name: "Sencha", Description: "Green", Price: decimal.RequireFromString("2.75"), CategoryID: &cat.ID, IsAvailable: true}
	require.NoError(t, repo.UpsertCoffee(ctx, c))
	require.NotZero(t, c.ID)

	updated := &catalog.Coffee{Name: "Sencha", Description: "Steamed green", Price: decimal.RequireFromString("3.10"), CategoryID: &cat.ID}
	require.NoError(t, repo.UpsertCoffee(ctx, updated))
	assert.Equal(t, c.ID, updated.ID)

	got, err := repo.Coffee(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "3.10", got.Price.StringFixed(2))
	assert.Equal(t, "Steamed green", got.Description)
	assert.False(t, got.IsAvailable)

	var names []string
	require.NoError(t, repo.CoffeeNames(ctx, func(name string) { names = append(names, name) }))
	assert.Equal(t, []string{"Sencha"}, names)

	ok, err := repo.CoffeeExists(ctx, "Sencha")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.CoffeeExists(ctx, "Matcha")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, countRows(t, "coffee_products"))
}
