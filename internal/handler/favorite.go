package handler

import (
	"net/http"

	"github.com/xenking/coffee-shop/internal/domain/favorite"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

type favoriteRequest struct {
	CoffeeID       int64  `json:"coffee_id" validate:"required,min=1"`
	PreferredSize  string `json:"preferred_size" validate:"omitempty,oneof=small medium large"`
	PreferredSugar string `json:"preferred_sugar" validate:"omitempty,oneof=none low medium high"`
}

type favoriteResponse struct {
	ID                int64    `json:"id"`
	CoffeeID          int64    `json:"coffee_id"`
	PreferredSize     *string  `json:"preferred_size"`
	PreferredSugar    *string  `json:"preferred_sugar"`
	CreatedAt         string   `json:"created_at,omitempty"`
	CoffeeName        string   `json:"coffee_name,omitempty"`
	CoffeeDescription string   `json:"coffee_description,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	AverageRating     *float64 `json:"average_rating,omitempty"`
	CategoryName      string   `json:"category_name,omitempty"`
}

func optional[T ~string](v T) *string {
	if v == "" {
		return nil
	}
	s := string(v)
	return &s
}

// AddFavorite stars a coffee for the caller.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if !bind(w, r, &req) {
		return
	}

	f := &favorite.Favorite{
		UserID:         claimsFrom(r.Context()).ID,
		CoffeeID:       req.CoffeeID,
		PreferredSize:  pricing.CupSize(req.PreferredSize),
		PreferredSugar: pricing.SugarLevel(req.PreferredSugar),
	}
	if err := h.favorites.Add(r.Context(), f); err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Coffee added to favorites", favoriteResponse{
		ID:             f.ID,
		CoffeeID:       f.CoffeeID,
		PreferredSize:  optional(f.PreferredSize),
		PreferredSugar: optional(f.PreferredSugar),
	})
}

// ListFavorites returns the caller's favorites with coffee details.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := h.favorites.List(r.Context(), claimsFrom(r.Context()).ID)
	if err != nil {
		fail(w, r, err)
		return
	}

	out := make([]favoriteResponse, len(favs))
	for i, f := range favs {
		price := money(f.Price)
		rating := money(f.AverageRating)
		out[i] = favoriteResponse{
			ID:                f.ID,
			CoffeeID:          f.CoffeeID,
			PreferredSize:     optional(f.PreferredSize),
			PreferredSugar:    optional(f.PreferredSugar),
			CreatedAt:         timestamp(f.CreatedAt),
			CoffeeName:        f.CoffeeName,
			CoffeeDescription: f.CoffeeDescription,
			Price:             &price,
			AverageRating:     &rating,
			CategoryName:      f.CategoryName,
		}
	}
	writeData(w, http.StatusOK, "", out)
}

// RemoveFavorite deletes one of the caller's favorites.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "favorite")
	if !ok {
		return
	}
	if err := h.favorites.Remove(r.Context(), id, claimsFrom(r.Context()).ID); err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Coffee removed from favorites", nil)
}
