package companies

import (
	"strings"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

func normalize(c Company) Company {
	c.Name = strings.TrimSpace(c.Name)
	c.TaxID = strings.TrimSpace(c.TaxID)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	return c
}

func validate(c Company) error {
	if c.Name == "" {
		return shared.NewValidationError(shared.ReasonInvalidField, "nome", "is required")
	}
	return nil
}
