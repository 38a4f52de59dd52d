// Package pricing computes sale totals from line items, discount and freight.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// DiscountType enumerates supported discount modes.
type DiscountType string

const (
	DiscountNone    DiscountType = "NONE"
	DiscountPercent DiscountType = "PERCENT"
	DiscountValue   DiscountType = "VALUE"
)

var hundred = decimal.NewFromInt(100)

// Line is the priced part of a cart item.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Totals is the result of Compute.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ParseDiscountType normalises an optional discount type, defaulting to NONE.
func ParseDiscountType(raw string) (DiscountType, error) {
	t := DiscountType(shared.FoldUpper(raw))
	switch t {
	case "", DiscountNone:
		return DiscountNone, nil
	case DiscountPercent, DiscountValue:
		return t, nil
	}
	return "", shared.Invalidf("unknown discount type %q", raw)
}

// Compute returns subtotal, discount and total for the given lines.
// The discount never exceeds the subtotal and the total is never negative.
func Compute(lines []Line, discountType DiscountType, discountValue, freight decimal.Decimal) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, shared.Invalidf("at least one item is required")
	}
	if discountValue.IsNegative() {
		return Totals{}, shared.Invalidf("discount value must be >= 0")
	}
	if freight.IsNegative() {
		return Totals{}, shared.Invalidf("freight must be >= 0")
	}

	subtotal := decimal.Zero
	for i, line := range lines {
		if line.Quantity <= 0 {
			return Totals{}, shared.Invalidf("item %d: quantity must be > 0", i)
		}
		if line.Price.IsNegative() {
			return Totals{}, shared.Invalidf("item %d: price must be >= 0", i)
		}
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	subtotal = subtotal.Round(2)

	var discount decimal.Decimal
	switch discountType {
	case DiscountNone, "":
		discount = decimal.Zero
	case DiscountPercent:
		discount = decimal.Min(subtotal.Mul(discountValue).Div(hundred).Round(2), subtotal)
	case DiscountValue:
		discount = decimal.Min(discountValue.Round(2), subtotal)
	default:
		return Totals{}, shared.Invalidf("unknown discount type %q", discountType)
	}

	total := decimal.Max(subtotal.Sub(discount).Add(freight.Round(2)), decimal.Zero)
	return Totals{Subtotal: subtotal, Discount: discount, Total: total}, nil
}
