// Package pricing computes line-item prices, discounts and totals for coffee
// orders. It has no side effects: the same catalog state and items always
// produce the same quote.
package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

// CupSize selects the price multiplier applied to a coffee's base price.
type CupSize string

const (
	CupSmall  CupSize = "small"
	CupMedium CupSize = "medium"
	CupLarge  CupSize = "large"
)

// SugarLevel is recorded on line items but never affects price.
type SugarLevel string

const (
	SugarNone   SugarLevel = "none"
	SugarLow    SugarLevel = "low"
	SugarMedium SugarLevel = "medium"
	SugarHigh   SugarLevel = "high"
)

var sizeModifiers = map[CupSize]decimal.Decimal{
	CupSmall:  decimal.NewFromInt(1),
	CupMedium: decimal.RequireFromString("1.2"),
	CupLarge:  decimal.RequireFromString("1.6"),
}

// SizeModifier returns the multiplier for size. Unknown sizes price as small.
func SizeModifier(size CupSize) decimal.Decimal {
	if m, ok := sizeModifiers[size]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// Order limits. Amounts must fit the NUMERIC(10,2) money columns.
const MaxQuantity = 1000

var MaxAmount = decimal.RequireFromString("99999999.99")

// Catalog resolves coffees by id. Implementations return catalog.ErrNotFound
// for unknown ids.
type Catalog interface {
	Coffee(ctx context.Context, id int64) (*catalog.Coffee, error)
}

// LineItem is a requested coffee in an order.
type LineItem struct {
	CoffeeID   int64
	Quantity   int
	CupSize    CupSize
	SugarLevel SugarLevel
}

// PricedItem is a LineItem resolved against the catalog.
type PricedItem struct {
	LineItem
	CoffeeName   string
	BasePrice    decimal.Decimal
	SizeModifier decimal.Decimal
	UnitPrice    decimal.Decimal
	ItemTotal    decimal.Decimal
}

// Quote is the full price breakdown of a list of line items.
type Quote struct {
	Items         []PricedItem
	Subtotal      decimal.Decimal
	TotalQuantity int
	Discount      Discount
	FinalTotal    decimal.Decimal
}

// Price resolves every item against c in request order and computes the
// quote. The first unknown or unavailable coffee, out of range quantity or
// subtotal above MaxAmount aborts the whole computation.
func Price(ctx context.Context, c Catalog, items []LineItem) (*Quote, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	q := &Quote{
		Items:    make([]PricedItem, 0, len(items)),
		Subtotal: decimal.Zero,
	}
	for _, item := range items {
		if item.Quantity < 1 || item.Quantity > MaxQuantity {
			return nil, errors.Wrapf(ErrQuantityOutOfRange, "coffee %d quantity %d", item.CoffeeID, item.Quantity)
		}
		coffee, err := lookup(ctx, c, item.CoffeeID)
		if err != nil {
			return nil, err
		}

		priced := priceItem(item, coffee)
		q.Items = append(q.Items, priced)
		q.Subtotal = q.Subtotal.Add(priced.ItemTotal)
		q.TotalQuantity += item.Quantity
		if q.Subtotal.GreaterThan(MaxAmount) {
			return nil, errors.Wrapf(ErrAmountTooLarge, "subtotal %s", q.Subtotal)
		}
	}

	q.Discount = CalculateDiscount(q.Subtotal, q.TotalQuantity)
	q.FinalTotal = q.Subtotal.Sub(q.Discount.Amount).Round(2)

	return q, nil
}

// CupPrice is the price of a single cup of one coffee.
type CupPrice struct {
	CoffeeID        int64
	CoffeeName      string
	CupSize         CupSize
	BasePrice       decimal.Decimal
	SizeModifier    decimal.Decimal
	CalculatedPrice decimal.Decimal
}

// PriceCup quotes one cup of the coffee identified by id.
func PriceCup(ctx context.Context, c Catalog, id int64, size CupSize) (*CupPrice, error) {
	coffee, err := lookup(ctx, c, id)
	if err != nil {
		return nil, err
	}

	mod := SizeModifier(size)
	return &CupPrice{
		CoffeeID:        coffee.ID,
		CoffeeName:      coffee.Name,
		CupSize:         size,
		BasePrice:       coffee.Price,
		SizeModifier:    mod,
		CalculatedPrice: coffee.Price.Mul(mod).Round(2),
	}, nil
}

func lookup(ctx context.Context, c Catalog, id int64) (*catalog.Coffee, error) {
	coffee, err := c.Coffee(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &NotFoundError{CoffeeID: id}
		}
		return nil, errors.Wrapf(err, "get coffee %d", id)
	}
	if !coffee.IsAvailable {
		return nil, &UnavailableError{CoffeeID: id}
	}
	return coffee, nil
}

func priceItem(item LineItem, coffee *catalog.Coffee) PricedItem {
	mod := SizeModifier(item.CupSize)
	unit := coffee.Price.Mul(mod).Round(2)

	return PricedItem{
		LineItem:     item,
		CoffeeName:   coffee.Name,
		BasePrice:    coffee.Price,
		SizeModifier: mod,
		UnitPrice:    unit,
		ItemTotal:    unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2),
	}
}
