package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/paging"
)

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/categories", nil, false)
	require.Equal(t, http.StatusOK, code)

	cats := decodeData[[]categoryResponse](t, resp)
	require.Len(t, cats, 1)
	assert.Equal(t, "Espresso", cats[0].Name)
	assert.Equal(t, 2, cats[0].ProductCount)
}

func TestListCategoryCoffees(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/categories/1/coffees?limit=5&offset=2", nil, false)
	require.Equal(t, http.StatusOK, code)

	data := decodeData[categoryCoffeesResponse](t, resp)
	assert.Equal(t, int64(1), data.Category.ID)
	assert.Len(t, data.Coffees, 2, "unavailable coffees are hidden")
	assert.Equal(t, pagination{Limit: 5, Offset: 2, Count: 2}, data.Pagination)
	assert.Equal(t, int64(1), env.catalog.lastFilter.CategoryID)
}

func TestListCategoryCoffees_DefaultPage(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/categories/1/coffees?limit=junk", nil, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 50, decodeData[categoryCoffeesResponse](t, resp).Pagination.Limit)
}

func TestListCategoryCoffees_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/categories/99/coffees", nil, false)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Category not found", resp.Message)
}

func TestListCoffees(t *testing.T) {
	env := newTestEnv(t)

	t.Run("DefaultAvailable", func(t *testing.T) {
		code, resp := env.do(t, http.MethodGet, "/api/coffees", nil, false)
		require.Equal(t, http.StatusOK, code)
		coffees := decodeData[[]coffeeResponse](t, resp)
		assert.Len(t, coffees, 2)
		for _, c := range coffees {
			assert.True(t, c.IsAvailable)
		}
	})
	t.Run("Unavailable", func(t *testing.T) {
		code, resp := env.do(t, http.MethodGet, "/api/coffees?is_available=false", nil, false)
		require.Equal(t, http.StatusOK, code)
		coffees := decodeData[[]coffeeResponse](t, resp)
		require.Len(t, coffees, 1)
		assert.Equal(t, "Seasonal", coffees[0].Name)
	})
	t.Run("WholeMenuByDefault", func(t *testing.T) {
		code, _ := env.do(t, http.MethodGet, "/api/coffees", nil, false)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, paging.Page{}, env.catalog.lastFilter.Page)

		code, _ = env.do(t, http.MethodGet, "/api/coffees?offset=5", nil, false)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, paging.Page{Offset: 5}, env.catalog.lastFilter.Page)
	})
	t.Run("ExplicitLimit", func(t *testing.T) {
		code, _ := env.do(t, http.MethodGet, "/api/coffees?limit=5&offset=10", nil, false)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, paging.Page{Limit: 5, Offset: 10}, env.catalog.lastFilter.Page)

		code, _ = env.do(t, http.MethodGet, "/api/coffees?limit=500", nil, false)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, paging.Page{Limit: paging.MaxLimit}, env.catalog.lastFilter.Page)
	})
	t.Run("BadFilter", func(t *testing.T) {
		code, _ := env.do(t, http.MethodGet, "/api/coffees?is_available=maybe", nil, false)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestGetCoffee(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/coffees/2", nil, false)
	require.Equal(t, http.StatusOK, code)

	c := decodeData[coffeeResponse](t, resp)
	assert.Equal(t, "Latte", c.Name)
	assert.Equal(t, 4.5, c.Price)
	assert.Equal(t, 4.5, c.AverageRating)
	assert.Equal(t, "Espresso", c.CategoryName)
	assert.Equal(t, "2025-01-02T03:04:05Z", c.CreatedAt)

	code, resp = env.do(t, http.MethodGet, "/api/coffees/404", nil, false)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Coffee not found", resp.Message)
}

func TestCalculateCupPrice(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/coffees/calculate-price", map[string]any{
		"coffee_id": 1, "cup_size": "large",
	}, false)
	require.Equal(t, http.StatusOK, code)

	p := decodeData[cupPriceResponse](t, resp)
	assert.Equal(t, "Espresso", p.CoffeeName)
	assert.Equal(t, 3.5, p.BasePrice)
	assert.Equal(t, 1.6, p.SizeModifier)
	assert.Equal(t, 5.6, p.CalculatedPrice)
}

func TestCalculateCupPrice_Errors(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/coffees/calculate-price", map[string]any{
		"coffee_id": 3, "cup_size": "small",
	}, false)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Coffee with ID 3 is not available", resp.Message)

	code, resp = env.do(t, http.MethodPost, "/api/coffees/calculate-price", map[string]any{
		"coffee_id": 1, "cup_size": "venti",
	}, false)
	assert.Equal(t, http.StatusBadRequest, code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "cup_size", resp.Errors[0].Field)
}
