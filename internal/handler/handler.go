// Package handler exposes the coffee shop over a JSON HTTP API.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/favorite"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
	"github.com/xenking/coffee-shop/internal/domain/review"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

// Users is the account service used by the auth endpoints and middleware.
type Users interface {
	Register(ctx context.Context, req user.RegisterRequest) (*user.Session, error)
	Login(ctx context.Context, email, password string) (*user.Session, error)
	Authenticate(token string) (*user.Claims, error)
}

// Orders is the order service.
type Orders interface {
	PlaceOrder(ctx context.Context, userID int64, items []pricing.LineItem) (*order.Placement, error)
	PreviewPrice(ctx context.Context, items []pricing.LineItem) (*pricing.Quote, error)
	GetOrder(ctx context.Context, id int64, owner *int64) (*order.Order, error)
	ListOrders(ctx context.Context, userID int64, page paging.Page) ([]order.Summary, error)
	SetStatus(ctx context.Context, id int64, status order.Status) error
}

// Favorites is the favorite service.
type Favorites interface {
	Add(ctx context.Context, f *favorite.Favorite) error
	List(ctx context.Context, userID int64) ([]favorite.Favorite, error)
	Remove(ctx context.Context, id, userID int64) error
}

// Reviews is the review service.
type Reviews interface {
	Create(ctx context.Context, r *review.Review) (*review.Review, error)
	ByCoffee(ctx context.Context, coffeeID int64, page paging.Page) (*catalog.Coffee, []review.Review, error)
	ByUser(ctx context.Context, userID int64, page paging.Page) ([]review.Review, error)
	Update(ctx context.Context, id, userID int64, u review.Update) (*review.Review, error)
	Delete(ctx context.Context, id, userID int64) error
}

var (
	_ Users     = (*user.Service)(nil)
	_ Orders    = (*order.Service)(nil)
	_ Favorites = (*favorite.Service)(nil)
	_ Reviews   = (*review.Service)(nil)
)

// Handler serves the /api routes.
type Handler struct {
	users     Users
	catalog   catalog.Repository
	orders    Orders
	favorites Favorites
	reviews   Reviews
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	users Users,
	catalog catalog.Repository,
	orders Orders,
	favorites Favorites,
	reviews Reviews,
) *Handler {
	return &Handler{
		users:     users,
		catalog:   catalog,
		orders:    orders,
		favorites: favorites,
		reviews:   reviews,
	}
}

// RouterConfig holds the middlewares applied to route groups.
type RouterConfig struct {
	// AuthLimiter throttles the register and login endpoints. Nil disables it.
	AuthLimiter func(http.Handler) http.Handler
}

// Router returns the API routes mounted under /api. Unknown routes answer
// with a JSON 404.
func (h *Handler) Router(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthLimiter != nil {
				r.Use(cfg.AuthLimiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Get("/categories", h.ListCategories)
		r.Get("/categories/{id}/coffees", h.ListCategoryCoffees)

		r.Get("/coffees", h.ListCoffees)
		r.Get("/coffees/{id}", h.GetCoffee)
		r.Post("/coffees/calculate-price", h.CalculateCupPrice)

		r.Get("/reviews/coffee/{coffeeId}", h.ListCoffeeReviews)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/orders", h.PlaceOrder)
			r.Post("/orders/calculate-price", h.PreviewOrderPrice)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{id}", h.GetOrder)
			r.Patch("/orders/{id}/status", h.SetOrderStatus)

			r.Post("/favorites", h.AddFavorite)
			r.Get("/favorites", h.ListFavorites)
			r.Delete("/favorites/{id}", h.RemoveFavorite)

			r.Post("/reviews", h.CreateReview)
			r.Get("/reviews/user", h.ListUserReviews)
			r.Patch("/reviews/{id}", h.UpdateReview)
			r.Delete("/reviews/{id}", h.DeleteReview)
		})
	})

	return r
}
