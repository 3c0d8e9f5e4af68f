package companies

// CompanyForm is the create/update payload.
type CompanyForm struct {
	Name    string `json:"nome" validate:"required,max=150"`
	TaxID   string `json:"cnpj" validate:"max=20"`
	Phone   string `json:"telefone" validate:"max=20"`
	Address string `json:"endereco" validate:"max=255"`
}

func (f CompanyForm) toCompany() Company {
	return Company{
		Name:    f.Name,
		TaxID:   f.TaxID,
		Phone:   f.Phone,
		Address: f.Address,
	}
}
