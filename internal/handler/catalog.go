package handler

import (
	"net/http"
	"strconv"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

const defaultCategoryCoffeesLimit = 50

type categoryResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProductCount int    `json:"product_count"`
}

func newCategoryResponse(c catalog.Category) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: c.ProductCount,
	}
}

type coffeeResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	CategoryID    *int64  `json:"category_id"`
	CategoryName  string  `json:"category_name,omitempty"`
	IsAvailable   bool    `json:"is_available"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func newCoffeeResponse(c catalog.Coffee) coffeeResponse {
	return coffeeResponse{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Price:         money(c.Price),
		CategoryID:    c.CategoryID,
		CategoryName:  c.CategoryName,
		IsAvailable:   c.IsAvailable,
		AverageRating: money(c.AverageRating),
		TotalReviews:  c.TotalReviews,
		CreatedAt:     timestamp(c.CreatedAt),
		UpdatedAt:     timestamp(c.UpdatedAt),
	}
}

func newCoffeeResponses(cs []catalog.Coffee) []coffeeResponse {
	out := make([]coffeeResponse, len(cs))
	for i, c := range cs {
		out[i] = newCoffeeResponse(c)
	}
	return out
}

// ListCategories returns every category with its available product count.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	out := make([]categoryResponse, len(cs))
	for i, c := range cs {
		out[i] = newCategoryResponse(c)
	}
	writeData(w, http.StatusOK, "", out)
}

type categoryCoffeesResponse struct {
	Category   categoryResponse `json:"category"`
	Coffees    []coffeeResponse `json:"coffees"`
	Pagination pagination       `json:"pagination"`
}

// ListCategoryCoffees returns a page of the available coffees of a category.
func (h *Handler) ListCategoryCoffees(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "category")
	if !ok {
		return
	}
	ctx := r.Context()

	category, err := h.catalog.Category(ctx, id)
	if err != nil {
		fail(w, r, err)
		return
	}

	page := pageQuery(r, defaultCategoryCoffeesLimit)
	available := true
	coffees, err := h.catalog.ListCoffees(ctx, catalog.Filter{
		Available:  &available,
		CategoryID: id,
		Page:       page,
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "", categoryCoffeesResponse{
		Category:   newCategoryResponse(*category),
		Coffees:    newCoffeeResponses(coffees),
		Pagination: newPagination(page, len(coffees)),
	})
}

// ListCoffees returns coffees ordered by name. The is_available query
// parameter defaults to true; "false" lists coffees off the menu. The whole
// menu is returned unless the caller asks for a limit.
func (h *Handler) ListCoffees(w http.ResponseWriter, r *http.Request) {
	available := true
	if raw := r.URL.Query().Get("is_available"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeValidation(w, []fieldError{{Field: "is_available", Message: "is_available must be true or false"}})
			return
		}
		available = v
	}

	coffees, err := h.catalog.ListCoffees(r.Context(), catalog.Filter{
		Available: &available,
		Page:      menuPage(r),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", newCoffeeResponses(coffees))
}

// GetCoffee returns a single coffee, available or not.
func (h *Handler) GetCoffee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "coffee")
	if !ok {
		return
	}
	c, err := h.catalog.Coffee(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", newCoffeeResponse(*c))
}

func menuPage(r *http.Request) paging.Page {
	if !r.URL.Query().Has("limit") {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		return paging.Page{Offset: max(offset, 0)}
	}
	return pageQuery(r, paging.MaxLimit)
}

type cupPriceRequest struct {
	CoffeeID int64  `json:"coffee_id" validate:"required,min=1"`
	CupSize  string `json:"cup_size" validate:"required,oneof=small medium large"`
}

type cupPriceResponse struct {
	CoffeeID        int64   `json:"coffee_id"`
	CoffeeName      string  `json:"coffee_name"`
	CupSize         string  `json:"cup_size"`
	BasePrice       float64 `json:"base_price"`
	SizeModifier    float64 `json:"size_modifier"`
	CalculatedPrice float64 `json:"calculated_price"`
}

// CalculateCupPrice prices one cup of a coffee in the requested size.
func (h *Handler) CalculateCupPrice(w http.ResponseWriter, r *http.Request) {
	var req cupPriceRequest
	if !bind(w, r, &req) {
		return
	}

	p, err := pricing.PriceCup(r.Context(), h.catalog, req.CoffeeID, pricing.CupSize(req.CupSize))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", cupPriceResponse{
		CoffeeID:        p.CoffeeID,
		CoffeeName:      p.CoffeeName,
		CupSize:         string(p.CupSize),
		BasePrice:       money(p.BasePrice),
		SizeModifier:    money(p.SizeModifier),
		CalculatedPrice: money(p.CalculatedPrice),
	})
}
