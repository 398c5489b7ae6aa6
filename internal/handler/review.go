package handler

import (
	"net/http"
	"strings"

	"github.com/xenking/coffee-shop/internal/domain/review"
)

const defaultReviewsLimit = 10

type createReviewRequest struct {
	CoffeeID int64   `json:"coffee_id" validate:"required,min=1"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Comment  *string `json:"comment" validate:"omitempty,max=1000"`
	OrderID  *int64  `json:"order_id" validate:"omitempty,min=1"`
}

func (r *createReviewRequest) normalize() {
	r.Comment = trimComment(r.Comment)
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func (r *updateReviewRequest) normalize() {
	r.Comment = trimComment(r.Comment)
}

func trimComment(c *string) *string {
	if c == nil {
		return nil
	}
	s := strings.TrimSpace(*c)
	return &s
}

type reviewResponse struct {
	ID                int64   `json:"id"`
	UserID            int64   `json:"user_id"`
	CoffeeID          int64   `json:"coffee_id"`
	OrderID           *int64  `json:"order_id"`
	Rating            int     `json:"rating"`
	Comment           *string `json:"comment"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	Username          string  `json:"username,omitempty"`
	Email             string  `json:"email,omitempty"`
	CoffeeName        string  `json:"coffee_name,omitempty"`
	CoffeeDescription string  `json:"coffee_description,omitempty"`
	CategoryName      string  `json:"category_name,omitempty"`
}

func newReviewResponse(rv *review.Review) reviewResponse {
	return reviewResponse{
		ID:                rv.ID,
		UserID:            rv.UserID,
		CoffeeID:          rv.CoffeeID,
		OrderID:           rv.OrderID,
		Rating:            rv.Rating,
		Comment:           rv.Comment,
		CreatedAt:         timestamp(rv.CreatedAt),
		UpdatedAt:         timestamp(rv.UpdatedAt),
		Username:          rv.Username,
		Email:             rv.Email,
		CoffeeName:        rv.CoffeeName,
		CoffeeDescription: rv.CoffeeDescription,
		CategoryName:      rv.CategoryName,
	}
}

func newReviewResponses(rvs []review.Review) []reviewResponse {
	out := make([]reviewResponse, len(rvs))
	for i := range rvs {
		out[i] = newReviewResponse(&rvs[i])
	}
	return out
}

// CreateReview rates a coffee for the caller.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if !bind(w, r, &req) {
		return
	}

	rv, err := h.reviews.Create(r.Context(), &review.Review{
		UserID:   claimsFrom(r.Context()).ID,
		CoffeeID: req.CoffeeID,
		OrderID:  req.OrderID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, "Review submitted successfully", newReviewResponse(rv))
}

type coffeeRatingResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

type coffeeReviewsResponse struct {
	Coffee     coffeeRatingResponse `json:"coffee"`
	Reviews    []reviewResponse     `json:"reviews"`
	Pagination pagination           `json:"pagination"`
}

// ListCoffeeReviews returns a page of a coffee's reviews with its rating
// summary.
func (h *Handler) ListCoffeeReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "coffeeId", "coffee")
	if !ok {
		return
	}
	page := pageQuery(r, defaultReviewsLimit)

	c, rvs, err := h.reviews.ByCoffee(r.Context(), id, page)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", coffeeReviewsResponse{
		Coffee: coffeeRatingResponse{
			ID:            c.ID,
			Name:          c.Name,
			AverageRating: money(c.AverageRating),
			TotalReviews:  c.TotalReviews,
		},
		Reviews:    newReviewResponses(rvs),
		Pagination: newPagination(page, len(rvs)),
	})
}

type userReviewsResponse struct {
	Reviews    []reviewResponse `json:"reviews"`
	Pagination pagination       `json:"pagination"`
}

// ListUserReviews returns a page of the caller's reviews.
func (h *Handler) ListUserReviews(w http.ResponseWriter, r *http.Request) {
	page := pageQuery(r, defaultReviewsLimit)
	rvs, err := h.reviews.ByUser(r.Context(), claimsFrom(r.Context()).ID, page)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", userReviewsResponse{
		Reviews:    newReviewResponses(rvs),
		Pagination: newPagination(page, len(rvs)),
	})
}

// UpdateReview changes the rating or comment of the caller's review.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "review")
	if !ok {
		return
	}
	var req updateReviewRequest
	if !bind(w, r, &req) {
		return
	}

	rv, err := h.reviews.Update(r.Context(), id, claimsFrom(r.Context()).ID, review.Update{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Review updated successfully", newReviewResponse(rv))
}

// DeleteReview removes the caller's review.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "review")
	if !ok {
		return
	}
	if err := h.reviews.Delete(r.Context(), id, claimsFrom(r.Context()).ID); err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Review deleted successfully", nil)
}
