package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Kind distinguishes the two sellable entity types.
type Kind string

const (
	KindProduct Kind = "produto"
	KindService Kind = "servico"
)

// ParseKind validates a wire value.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindProduct, KindService:
		return Kind(s), true
	default:
		return "", false
	}
}

func (k Kind) table() string {
	if k == KindService {
		return "services"
	}
	return "products"
}

// Item is a product or a service offered by a company.
type Item struct {
	ID          int64
	CompanyID   int64
	Kind        Kind
	Code        string
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (i Item) searchKey() string {
	return shared.SearchKey(i.Code, i.Name)
}

// ItemView is the JSON shape of an Item.
type ItemView struct {
	ID          int64        `json:"id"`
	Kind        Kind         `json:"tipo"`
	Code        string       `json:"codigo"`
	Name        string       `json:"nome"`
	Description string       `json:"descricao"`
	Price       shared.Money `json:"preco"`
	CreatedAt   time.Time    `json:"criado_em"`
	UpdatedAt   time.Time    `json:"atualizado_em"`
}

// View converts the item for transport.
func (i Item) View() ItemView {
	return ItemView{
		ID:          i.ID,
		Kind:        i.Kind,
		Code:        i.Code,
		Name:        i.Name,
		Description: i.Description,
		Price:       shared.NewMoney(i.Price),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Search  string
	Page    int
	PerPage int
}

// Suggestion is the autocomplete view used by the quote editor.
type Suggestion struct {
	ID    int64        `json:"id"`
	Label string       `json:"label"`
	Kind  Kind         `json:"tipo"`
	Price shared.Money `json:"preco"`
}
