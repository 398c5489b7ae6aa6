package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/coffee-shop/internal/domain/paging"
	"github.com/xenking/coffee-shop/internal/domain/pricing"
)

const instrumentationName = "github.com/xenking/coffee-shop/internal/domain/order"

// Option configures a Service.
type Option func(*options)

type options struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithMeterProvider sets the provider used for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider sets the provider used for placement spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// Placement is the result of a successfully placed order.
type Placement struct {
	Order *Order
	Quote *pricing.Quote
}

// Service encapsulates order placement and lookup.
type Service struct {
	orders  Repository
	catalog pricing.Catalog

	tracer    trace.Tracer
	placed    metric.Int64Counter
	previewed metric.Int64Counter
}

// NewService creates an order Service. The catalog is used for previews;
// placement prices against the transaction instead.
func NewService(orders Repository, catalog pricing.Catalog, opts ...Option) (*Service, error) {
	o := options{
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders committed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.placed counter")
	}
	previewed, err := meter.Int64Counter("orders.previewed",
		metric.WithDescription("Price previews computed"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orders.previewed counter")
	}

	return &Service{
		orders:    orders,
		catalog:   catalog,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		placed:    placed,
		previewed: previewed,
	}, nil
}

// PlaceOrder prices items and persists the order with the next order number
// in a single transaction. Pricing errors are returned unchanged and leave
// nothing behind.
func (s *Service) PlaceOrder(ctx context.Context, userID int64, items []pricing.LineItem) (*Placement, error) {
	ctx, span := s.tracer.Start(ctx, "order.Place",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int("order.lines", len(items)),
		),
	)
	defer span.End()

	if len(items) == 0 {
		return nil, pricing.ErrNoItems
	}

	var result *Placement
	err := s.orders.InTx(ctx, func(ctx context.Context, tx Tx) error {
		last, err := tx.LastNumber(ctx)
		if err != nil {
			return errors.Wrap(err, "read last order number")
		}
		number, err := NextNumber(last)
		if err != nil {
			return err
		}

		quote, err := pricing.Price(ctx, tx, items)
		if err != nil {
			return err
		}

		o := &Order{
			Number:         number,
			UserID:         userID,
			Status:         StatusPending,
			TotalPrice:     quote.Subtotal,
			DiscountAmount: quote.Discount.Amount,
			FinalPrice:     quote.FinalTotal,
		}
		if err := tx.Insert(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.InsertItems(ctx, o.ID, quote.Items); err != nil {
			return errors.Wrap(err, "insert order items")
		}

		o.Items = itemsFromQuote(o, quote)
		result = &Placement{Order: o, Quote: quote}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.number", result.Order.Number),
		attribute.String("order.discount", string(result.Quote.Discount.Type)),
	)
	s.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("discount", string(result.Quote.Discount.Type)),
	))
	return result, nil
}

// PreviewPrice quotes items against the current catalog without writing.
func (s *Service) PreviewPrice(ctx context.Context, items []pricing.LineItem) (*pricing.Quote, error) {
	quote, err := pricing.Price(ctx, s.catalog, items)
	if err != nil {
		return nil, err
	}
	s.previewed.Add(ctx, 1)
	return quote, nil
}

// GetOrder loads an order. A non-nil owner hides orders of other users
// behind ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, id int64, owner *int64) (*Order, error) {
	return s.orders.Get(ctx, id, owner)
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64, page paging.Page) ([]Summary, error) {
	return s.orders.ListByUser(ctx, userID, page)
}

// SetStatus overwrites the status of an order. Transitions are not
// restricted.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.orders.SetStatus(ctx, id, status)
}

func itemsFromQuote(o *Order, q *pricing.Quote) []Item {
	items := make([]Item, len(q.Items))
	for i, p := range q.Items {
		items[i] = Item{
			OrderID:    o.ID,
			CoffeeID:   p.CoffeeID,
			CoffeeName: p.CoffeeName,
			Quantity:   p.Quantity,
			CupSize:    p.CupSize,
			SugarLevel: p.SugarLevel,
			UnitPrice:  p.UnitPrice,
			ItemTotal:  p.ItemTotal,
			CreatedAt:  o.CreatedAt,
		}
	}
	return items
}
