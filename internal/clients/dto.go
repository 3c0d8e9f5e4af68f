package clients

// ClientForm is the create/update payload.
type ClientForm struct {
	LegalName  string `json:"razao_social" validate:"required,max=200"`
	TradeName  string `json:"nome_fantasia" validate:"max=200"`
	TaxID      string `json:"cpf_cnpj" validate:"max=50"`
	Phone      string `json:"telefone" validate:"max=50"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Address    string `json:"endereco" validate:"max=255"`
	CityState  string `json:"cidade_uf" validate:"max=100"`
	PostalCode string `json:"cep" validate:"max=20"`
}

func (f ClientForm) toClient(companyID int64) Client {
	return Client{
		CompanyID:  companyID,
		LegalName:  f.LegalName,
		TradeName:  f.TradeName,
		TaxID:      f.TaxID,
		Phone:      f.Phone,
		Email:      f.Email,
		Address:    f.Address,
		CityState:  f.CityState,
		PostalCode: f.PostalCode,
	}
}
