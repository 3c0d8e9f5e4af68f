package companies

import "time"

// Company is a tenant. Every client, catalog item and quote belongs to exactly one.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nome"`
	TaxID     string    `json:"cnpj"`
	Phone     string    `json:"telefone"`
	Address   string    `json:"endereco"`
	CreatedAt time.Time `json:"criado_em"`
	UpdatedAt time.Time `json:"atualizado_em"`
}
