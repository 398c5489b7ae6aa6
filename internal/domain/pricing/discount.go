package pricing

import "github.com/shopspring/decimal"

// DiscountType names the rule that produced a discount.
type DiscountType string

const (
	DiscountNone     DiscountType = "none"
	DiscountQuantity DiscountType = "quantity"
	DiscountValue    DiscountType = "value"
)

// Discount rules. Only the larger of the two candidates applies.
const QuantityDiscountMinItems = 5

var (
	QuantityDiscountRate   = decimal.RequireFromString("0.10")
	ValueDiscountThreshold = decimal.NewFromInt(15)
	ValueDiscountAmount    = decimal.RequireFromString("2.00")
)

// Discount is the amount taken off an order subtotal.
type Discount struct {
	Amount decimal.Decimal
	Type   DiscountType
}

// CalculateDiscount picks the larger of the quantity discount (10% of the
// subtotal for five or more cups) and the value discount (2.00 off a
// subtotal above 15.00). Ties go to the value discount.
func CalculateDiscount(subtotal decimal.Decimal, totalQuantity int) Discount {
	quantity := decimal.Zero
	if totalQuantity >= QuantityDiscountMinItems {
		quantity = subtotal.Mul(QuantityDiscountRate)
	}

	value := decimal.Zero
	if subtotal.GreaterThan(ValueDiscountThreshold) {
		value = ValueDiscountAmount
	}

	amount := decimal.Max(quantity, value).Round(2)
	if amount.IsZero() {
		return Discount{Amount: decimal.Zero, Type: DiscountNone}
	}

	typ := DiscountValue
	if quantity.GreaterThan(value) {
		typ = DiscountQuantity
	}
	return Discount{Amount: amount, Type: typ}
}
