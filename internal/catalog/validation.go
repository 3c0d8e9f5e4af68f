package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

var maxPrice = decimal.New(1, 10)

func normalize(i Item) Item {
	i.Code = strings.TrimSpace(i.Code)
	i.Name = strings.TrimSpace(i.Name)
	i.Description = strings.TrimSpace(i.Description)
	return i
}

func validate(i Item) error {
	verr := &shared.ValidationError{Reason: shared.ReasonInvalidField}
	if i.Name == "" {
		verr.Add("nome", "is required")
	}
	if i.Kind == KindProduct && utf8.RuneCountInString(i.Name) > 150 {
		verr.Add("nome", "must be at most 150 characters")
	}
	if i.Price.IsNegative() {
		verr.Add("preco", "must be greater than or equal to 0")
	}
	if i.Price.GreaterThanOrEqual(maxPrice) {
		verr.Add("preco", "is too large")
	}
	if !i.Price.Equal(i.Price.Round(2)) {
		verr.Add("preco", "must have at most 2 decimal places")
	}
	return verr.Err()
}
