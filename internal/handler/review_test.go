package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/review"
)

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/reviews", map[string]any{
		"coffee_id": 1, "rating": 5, "comment": "  great  ", "order_id": 4,
	}, true)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Review submitted successfully", resp.Message)

	rv := decodeData[reviewResponse](t, resp)
	assert.Equal(t, int64(21), rv.ID)
	require.NotNil(t, rv.Comment)
	assert.Equal(t, "great", *rv.Comment)
	require.NotNil(t, env.reviews.created.OrderID)
	assert.Equal(t, int64(4), *env.reviews.created.OrderID)
	assert.Equal(t, testClaims.ID, env.reviews.created.UserID)
}

func TestCreateReview_Errors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
		err  error
		code int
		msg  string
	}{
		{"RatingTooHigh", map[string]any{"coffee_id": 1, "rating": 6}, nil, http.StatusBadRequest, "Validation failed"},
		{"LongComment", map[string]any{"coffee_id": 1, "rating": 4, "comment": strings.Repeat("a", 1001)}, nil, http.StatusBadRequest, "Validation failed"},
		{"UnknownCoffee", map[string]any{"coffee_id": 9, "rating": 4}, catalog.ErrNotFound, http.StatusNotFound, "Coffee not found"},
		{"Duplicate", map[string]any{"coffee_id": 1, "rating": 4}, review.ErrAlreadyReviewed, http.StatusConflict, "You have already reviewed this coffee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.reviews.err = tt.err

			code, resp := env.do(t, http.MethodPost, "/api/reviews", tt.body, true)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, resp.Message)
		})
	}
}

func TestListCoffeeReviews(t *testing.T) {
	env := newTestEnv(t)
	env.reviews.coffee = &catalog.Coffee{ID: 1, Name: "Espresso", AverageRating: decimal.RequireFromString("4.33"), TotalReviews: 3}
	env.reviews.list = []review.Review{{ID: 1, CoffeeID: 1, Rating: 4, Username: "bob"}}

	code, resp := env.do(t, http.MethodGet, "/api/reviews/coffee/1", nil, false)
	require.Equal(t, http.StatusOK, code)

	data := decodeData[coffeeReviewsResponse](t, resp)
	assert.Equal(t, coffeeRatingResponse{ID: 1, Name: "Espresso", AverageRating: 4.33, TotalReviews: 3}, data.Coffee)
	require.Len(t, data.Reviews, 1)
	assert.Equal(t, "bob", data.Reviews[0].Username)
	assert.Equal(t, paging.Page{Limit: 10}, env.reviews.page)

	env.reviews.err = catalog.ErrNotFound
	code, resp = env.do(t, http.MethodGet, "/api/reviews/coffee/9", nil, false)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Coffee not found", resp.Message)
}

func TestListUserReviews(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/reviews/user?limit=3", nil, true)
	require.Equal(t, http.StatusOK, code)

	data := decodeData[userReviewsResponse](t, resp)
	assert.NotNil(t, data.Reviews)
	assert.Equal(t, pagination{Limit: 3}, data.Pagination)
}

func TestUpdateReview(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPatch, "/api/reviews/8", map[string]any{"rating": 2}, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Review updated successfully", resp.Message)
	assert.Equal(t, 2, decodeData[reviewResponse](t, resp).Rating)
	assert.Nil(t, env.reviews.update.Comment)

	code, resp = env.do(t, http.MethodPatch, "/api/reviews/8", map[string]any{}, true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "No fields to update", resp.Message)

	code, _ = env.do(t, http.MethodPatch, "/api/reviews/8", map[string]any{"rating": 0}, true)
	assert.Equal(t, http.StatusBadRequest, code)

	env.reviews.err = review.ErrNotFound
	code, resp = env.do(t, http.MethodPatch, "/api/reviews/8", map[string]any{"comment": "meh"}, true)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Review not found or unauthorized", resp.Message)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodDelete, "/api/reviews/8", nil, true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Review deleted successfully", resp.Message)

	env.reviews.err = review.ErrNotFound
	code, _ = env.do(t, http.MethodDelete, "/api/reviews/8", nil, true)
	assert.Equal(t, http.StatusNotFound, code)
}
