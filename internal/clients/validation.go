package clients

import (
	"strings"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

func normalize(c Client) Client {
	c.LegalName = strings.TrimSpace(c.LegalName)
	c.TradeName = strings.TrimSpace(c.TradeName)
	c.TaxID = strings.TrimSpace(c.TaxID)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Address = strings.TrimSpace(c.Address)
	c.CityState = strings.TrimSpace(c.CityState)
	c.PostalCode = strings.TrimSpace(c.PostalCode)
	return c
}

func validate(c Client) error {
	verr := &shared.ValidationError{Reason: shared.ReasonInvalidField}
	if c.LegalName == "" {
		verr.Add("razao_social", "is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		verr.Add("email", "must be a valid email")
	}
	return verr.Err()
}
