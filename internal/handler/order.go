package handler

import (
	"net/http"

	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

const defaultOrdersLimit = 10

type lineItemRequest struct {
	CoffeeID   int64  `json:"coffee_id" validate:"required,min=1"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=1000"`
	CupSize    string `json:"cup_size" validate:"required,oneof=small medium large"`
	SugarLevel string `json:"sugar_level" validate:"required,oneof=none low medium high"`
}

type orderRequest struct {
	Items []lineItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (req orderRequest) lineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = pricing.LineItem{
			CoffeeID:   it.CoffeeID,
			Quantity:   it.Quantity,
			CupSize:    pricing.CupSize(it.CupSize),
			SugarLevel: pricing.SugarLevel(it.SugarLevel),
		}
	}
	return items
}

type pricedItemResponse struct {
	CoffeeID     int64   `json:"coffee_id"`
	CoffeeName   string  `json:"coffee_name"`
	Quantity     int     `json:"quantity"`
	CupSize      string  `json:"cup_size"`
	SugarLevel   string  `json:"sugar_level"`
	BasePrice    float64 `json:"base_price"`
	SizeModifier float64 `json:"size_modifier"`
	UnitPrice    float64 `json:"unit_price"`
	ItemTotal    float64 `json:"item_total"`
}

type discountResponse struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

type quoteResponse struct {
	Items         []pricedItemResponse `json:"items"`
	Subtotal      float64              `json:"subtotal"`
	TotalQuantity int                  `json:"total_quantity"`
	Discount      discountResponse     `json:"discount"`
	FinalTotal    float64              `json:"final_total"`
}

func newQuoteResponse(q *pricing.Quote) quoteResponse {
	items := make([]pricedItemResponse, len(q.Items))
	for i, it := range q.Items {
		items[i] = pricedItemResponse{
			CoffeeID:     it.CoffeeID,
			CoffeeName:   it.CoffeeName,
			Quantity:     it.Quantity,
			CupSize:      string(it.CupSize),
			SugarLevel:   string(it.SugarLevel),
			BasePrice:    money(it.BasePrice),
			SizeModifier: money(it.SizeModifier),
			UnitPrice:    money(it.UnitPrice),
			ItemTotal:    money(it.ItemTotal),
		}
	}
	return quoteResponse{
		Items:         items,
		Subtotal:      money(q.Subtotal),
		TotalQuantity: q.TotalQuantity,
		Discount: discountResponse{
			Amount: money(q.Discount.Amount),
			Type:   string(q.Discount.Type),
		},
		FinalTotal: money(q.FinalTotal),
	}
}

type orderItemResponse struct {
	ID                int64   `json:"id"`
	OrderID           int64   `json:"order_id"`
	CoffeeID          int64   `json:"coffee_id"`
	CoffeeName        string  `json:"coffee_name"`
	CoffeeDescription string  `json:"coffee_description,omitempty"`
	Quantity          int     `json:"quantity"`
	CupSize           string  `json:"cup_size"`
	SugarLevel        string  `json:"sugar_level"`
	UnitPrice         float64 `json:"unit_price"`
	ItemTotal         float64 `json:"item_total"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	OrderNumber    string              `json:"order_number"`
	UserID         int64               `json:"user_id"`
	Username       string              `json:"username,omitempty"`
	Email          string              `json:"email,omitempty"`
	Status         string              `json:"status"`
	TotalPrice     float64             `json:"total_price"`
	DiscountAmount float64             `json:"discount_amount"`
	FinalPrice     float64             `json:"final_price"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
	Items          []orderItemResponse `json:"items"`
	Quote          *quoteResponse      `json:"quote,omitempty"`
}

func newOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:                it.ID,
			OrderID:           it.OrderID,
			CoffeeID:          it.CoffeeID,
			CoffeeName:        it.CoffeeName,
			CoffeeDescription: it.CoffeeDescription,
			Quantity:          it.Quantity,
			CupSize:           string(it.CupSize),
			SugarLevel:        string(it.SugarLevel),
			UnitPrice:         money(it.UnitPrice),
			ItemTotal:         money(it.ItemTotal),
		}
	}
	return orderResponse{
		ID:             o.ID,
		OrderNumber:    o.Number,
		UserID:         o.UserID,
		Username:       o.Username,
		Email:          o.Email,
		Status:         string(o.Status),
		TotalPrice:     money(o.TotalPrice),
		DiscountAmount: money(o.DiscountAmount),
		FinalPrice:     money(o.FinalPrice),
		CreatedAt:      timestamp(o.CreatedAt),
		UpdatedAt:      timestamp(o.UpdatedAt),
		Items:          items,
	}
}

type orderSummaryResponse struct {
	ID             int64   `json:"id"`
	OrderNumber    string  `json:"order_number"`
	UserID         int64   `json:"user_id"`
	Status         string  `json:"status"`
	TotalPrice     float64 `json:"total_price"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalPrice     float64 `json:"final_price"`
	ItemCount      int     `json:"item_count"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type orderListResponse struct {
	Orders     []orderSummaryResponse `json:"orders"`
	Pagination pagination             `json:"pagination"`
}

// PlaceOrder prices the items and stores the order for the caller.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !bind(w, r, &req) {
		return
	}
	claims := claimsFrom(r.Context())

	p, err := h.orders.PlaceOrder(r.Context(), claims.ID, req.lineItems())
	if err != nil {
		fail(w, r, err)
		return
	}

	resp := newOrderResponse(p.Order)
	resp.Username = claims.Username
	resp.Email = claims.Email
	quote := newQuoteResponse(p.Quote)
	resp.Quote = &quote
	writeData(w, http.StatusCreated, "Order created successfully", resp)
}

// PreviewOrderPrice quotes the items without storing anything.
func (h *Handler) PreviewOrderPrice(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !bind(w, r, &req) {
		return
	}

	q, err := h.orders.PreviewPrice(r.Context(), req.lineItems())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", newQuoteResponse(q))
}

// ListOrders returns a page of the caller's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := pageQuery(r, defaultOrdersLimit)
	orders, err := h.orders.ListOrders(r.Context(), claimsFrom(r.Context()).ID, page)
	if err != nil {
		fail(w, r, err)
		return
	}

	out := make([]orderSummaryResponse, len(orders))
	for i, o := range orders {
		out[i] = orderSummaryResponse{
			ID:             o.ID,
			OrderNumber:    o.Number,
			UserID:         o.UserID,
			Status:         string(o.Status),
			TotalPrice:     money(o.TotalPrice),
			DiscountAmount: money(o.DiscountAmount),
			FinalPrice:     money(o.FinalPrice),
			ItemCount:      o.ItemCount,
			CreatedAt:      timestamp(o.CreatedAt),
			UpdatedAt:      timestamp(o.UpdatedAt),
		}
	}
	writeData(w, http.StatusOK, "", orderListResponse{
		Orders:     out,
		Pagination: newPagination(page, len(out)),
	})
}

// GetOrder returns one of the caller's orders with its items.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}
	owner := claimsFrom(r.Context()).ID

	o, err := h.orders.GetOrder(r.Context(), id, &owner)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "", newOrderResponse(o))
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetOrderStatus overwrites the status of an order.
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "order")
	if !ok {
		return
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if !order.Status(req.Status).Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	if err := h.orders.SetStatus(r.Context(), id, order.Status(req.Status)); err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Order status updated successfully", nil)
}
