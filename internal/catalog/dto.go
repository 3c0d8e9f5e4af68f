package catalog

import "github.com/shopspring/decimal"

// ItemForm is the create/update payload for products and services.
type ItemForm struct {
	Code        string          `json:"codigo" validate:"max=50"`
	Name        string          `json:"nome" validate:"required,max=200"`
	Description string          `json:"descricao"`
	Price       decimal.Decimal `json:"preco"`
}

func (f ItemForm) toItem(kind Kind, companyID int64) Item {
	return Item{
		CompanyID:   companyID,
		Kind:        kind,
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
	}
}
