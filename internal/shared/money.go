package shared

import (
	"github.com/shopspring/decimal"
)

// Money renders a decimal with exactly two fraction digits in JSON.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MarshalJSON encodes the amount as a quoted fixed-point string, e.g. "25.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

// Quantity renders a decimal quantity without trailing zeros.
type Quantity struct {
	decimal.Decimal
}

// MarshalJSON encodes the quantity as a quoted decimal string, e.g. "2" or "1.5".
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}
