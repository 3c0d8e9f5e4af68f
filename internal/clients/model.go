package clients

import (
	"time"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Client is a customer of a company.
type Client struct {
	ID         int64     `json:"id"`
	CompanyID  int64     `json:"empresa_id"`
	LegalName  string    `json:"razao_social"`
	TradeName  string    `json:"nome_fantasia"`
	TaxID      string    `json:"cpf_cnpj"`
	Phone      string    `json:"telefone"`
	Email      string    `json:"email"`
	Address    string    `json:"endereco"`
	CityState  string    `json:"cidade_uf"`
	PostalCode string    `json:"cep"`
	CreatedAt  time.Time `json:"criado_em"`
	UpdatedAt  time.Time `json:"atualizado_em"`
}

func (c Client) searchKey() string {
	return shared.SearchKey(c.LegalName, c.TradeName, c.TaxID)
}

// ListFilter narrows client listings.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Suggestion is the autocomplete view of a client.
type Suggestion struct {
	ID        int64  `json:"id"`
	Label     string `json:"label"`
	TradeName string `json:"nome_fantasia"`
	TaxID     string `json:"cpf_cnpj"`
	Email     string `json:"email"`
	Phone     string `json:"telefone"`
	Address   string `json:"endereco"`
}

func suggestionOf(c Client) Suggestion {
	return Suggestion{
		ID:        c.ID,
		Label:     c.LegalName,
		TradeName: c.TradeName,
		TaxID:     c.TaxID,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
	}
}
