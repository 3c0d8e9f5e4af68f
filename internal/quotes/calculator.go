package quotes

import "github.com/shopspring/decimal"

// Totals holds the derived amounts of a quote. They are never persisted.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal multiplies exactly and rounds half away from zero to two places.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// Compute sums the line totals and subtracts the discount. A discount above the
// subtotal yields a negative total.
func Compute(items []LineItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total())
	}
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount),
	}
}
