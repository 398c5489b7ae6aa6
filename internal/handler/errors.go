package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/favorite"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
	"github.com/xenking/coffee-shop/internal/domain/review"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{pricing.ErrNoItems, http.StatusBadRequest, "Order must contain at least one item"},
	{pricing.ErrQuantityOutOfRange, http.StatusBadRequest, "Quantity must be between 1 and 1000"},
	{pricing.ErrAmountTooLarge, http.StatusBadRequest, "Order total exceeds the maximum allowed amount"},
	{catalog.ErrNotFound, http.StatusNotFound, "Coffee not found"},
	{catalog.ErrCategoryNotFound, http.StatusNotFound, "Category not found"},
	{order.ErrNotFound, http.StatusNotFound, "Order not found"},
	{order.ErrInvalidStatus, http.StatusBadRequest, "Invalid status value"},
	{favorite.ErrNotFound, http.StatusNotFound, "Favorite not found"},
	{favorite.ErrAlreadyFavorite, http.StatusConflict, "Coffee already in favorites"},
	{review.ErrNotFound, http.StatusNotFound, "Review not found or unauthorized"},
	{review.ErrAlreadyReviewed, http.StatusConflict, "You have already reviewed this coffee"},
	{review.ErrNothingToUpdate, http.StatusBadRequest, "No fields to update"},
	{user.ErrEmailTaken, http.StatusConflict, "Email already registered"},
	{user.ErrUsernameTaken, http.StatusConflict, "Username already taken"},
	{user.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{user.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
}

// fail writes the response for err. Unknown errors are logged and hidden
// behind a generic 500.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound    *pricing.NotFoundError
		unavailable *pricing.UnavailableError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	case errors.As(err, &unavailable):
		writeError(w, http.StatusNotFound, unavailable.Error())
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			writeError(w, m.status, m.message)
			return
		}
	}

	zctx.From(r.Context()).Error("Request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
