package quotes

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/catalog"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

const dateLayout = "2006-01-02"

// QuoteForm is the create/edit payload. Items replace the stored ones wholesale.
type QuoteForm struct {
	ClientID           int64           `json:"cliente" validate:"required,gt=0"`
	Requester          string          `json:"solicitante" validate:"max=200"`
	DeliveryForecast   *string         `json:"previsao_entrega" validate:"omitempty,datetime=2006-01-02"`
	PaymentTerms       string          `json:"forma_pagamento" validate:"max=100"`
	DueDate            *string         `json:"vencimento" validate:"omitempty,datetime=2006-01-02"`
	Notes              string          `json:"observacao"`
	Responsible        string          `json:"responsavel" validate:"max=200"`
	Discount           decimal.Decimal `json:"desconto"`
	ServiceDescription string          `json:"servicos_descricao"`
	Scope              string          `json:"escopo"`
	PlaceOfUse         string          `json:"local_uso" validate:"max=255"`
	Items              []ItemForm      `json:"itens"`
}

// ItemForm is one line of a payload. The reference is given as tipo plus id_item;
// the older produto/servico fields are still accepted.
type ItemForm struct {
	Kind      string              `json:"tipo"`
	ItemID    *int64              `json:"id_item"`
	ProductID *int64              `json:"produto"`
	ServiceID *int64              `json:"servico"`
	Quantity  decimal.Decimal     `json:"quantidade"`
	UnitPrice decimal.NullDecimal `json:"valor_unitario"`
}

// draftItem is a validated line waiting for its price snapshot.
type draftItem struct {
	Ref       LineItemRef
	Quantity  decimal.Decimal
	UnitPrice decimal.NullDecimal
}

var maxAmount = decimal.New(1, 10)

// Ref resolves the line's reference, enforcing exactly one of product or service.
func (f ItemForm) Ref() (LineItemRef, error) {
	var refs []LineItemRef
	if f.ItemID != nil {
		kind, ok := catalog.ParseKind(strings.TrimSpace(f.Kind))
		if !ok {
			return LineItemRef{}, shared.NewValidationError(shared.ReasonInvalidField, "tipo", "must be one of: produto servico")
		}
		refs = appendRef(refs, LineItemRef{kind: kind, id: *f.ItemID})
	}
	if f.ProductID != nil {
		refs = appendRef(refs, ProductRef(*f.ProductID))
	}
	if f.ServiceID != nil {
		refs = appendRef(refs, ServiceRef(*f.ServiceID))
	}
	switch {
	case len(refs) == 0:
		return LineItemRef{}, shared.NewValidationError(shared.ReasonMissingReference, "id_item", "a product or a service is required")
	case len(refs) > 1:
		return LineItemRef{}, shared.NewValidationError(shared.ReasonAmbiguousReference, "id_item", "references both a product and a service")
	case refs[0].IsZero():
		return LineItemRef{}, shared.NewValidationError(shared.ReasonMissingReference, "id_item", "must be a positive id")
	}
	return refs[0], nil
}

func appendRef(refs []LineItemRef, ref LineItemRef) []LineItemRef {
	for _, existing := range refs {
		if existing == ref {
			return refs
		}
	}
	return append(refs, ref)
}

func (f ItemForm) draft(field string) (draftItem, *shared.ValidationError) {
	ref, err := f.Ref()
	if err != nil {
		verr := err.(*shared.ValidationError)
		for i := range verr.Fields {
			verr.Fields[i].Field = field + "." + verr.Fields[i].Field
		}
		return draftItem{}, verr
	}
	verr := &shared.ValidationError{Reason: shared.ReasonInvalidField}
	validateQuantity(verr, field+".quantidade", f.Quantity)
	if f.UnitPrice.Valid {
		validateAmount(verr, field+".valor_unitario", f.UnitPrice.Decimal)
	}
	if !verr.Empty() {
		return draftItem{}, verr
	}
	return draftItem{Ref: ref, Quantity: f.Quantity, UnitPrice: f.UnitPrice}, nil
}

func validateQuantity(verr *shared.ValidationError, field string, q decimal.Decimal) {
	switch {
	case !q.IsPositive():
		verr.Add(field, "must be greater than 0")
	case !q.Equal(q.Round(3)):
		verr.Add(field, "must have at most 3 decimal places")
	case q.GreaterThanOrEqual(decimal.New(1, 11)):
		verr.Add(field, "is too large")
	}
}

func validateAmount(verr *shared.ValidationError, field string, d decimal.Decimal) {
	switch {
	case d.IsNegative():
		verr.Add(field, "must be greater than or equal to 0")
	case !d.Equal(d.Round(2)):
		verr.Add(field, "must have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxAmount):
		verr.Add(field, "is too large")
	}
}

// toQuote validates the header and every item, collecting all field errors.
// The first reference problem decides the reported reason.
func (f QuoteForm) toQuote(tenant shared.TenantContext) (Quote, []draftItem, error) {
	verr := &shared.ValidationError{Reason: shared.ReasonInvalidField}
	q := Quote{
		CompanyID:          tenant.CompanyID,
		ClientID:           f.ClientID,
		CreatedBy:          tenant.UserID,
		Requester:          strings.TrimSpace(f.Requester),
		PaymentTerms:       strings.TrimSpace(f.PaymentTerms),
		Notes:              strings.TrimSpace(f.Notes),
		Responsible:        strings.TrimSpace(f.Responsible),
		Discount:           f.Discount,
		ServiceDescription: strings.TrimSpace(f.ServiceDescription),
		Scope:              strings.TrimSpace(f.Scope),
		PlaceOfUse:         strings.TrimSpace(f.PlaceOfUse),
	}
	if q.ClientID <= 0 {
		verr.Add("cliente", "is required")
	}
	validateAmount(verr, "desconto", q.Discount)
	q.DeliveryForecast = parseDate(verr, "previsao_entrega", f.DeliveryForecast)
	q.DueDate = parseDate(verr, "vencimento", f.DueDate)

	drafts := make([]draftItem, 0, len(f.Items))
	refReason := ""
	for i, item := range f.Items {
		d, itemErr := item.draft("itens[" + strconv.Itoa(i) + "]")
		if itemErr != nil {
			if refReason == "" && itemErr.Reason != shared.ReasonInvalidField {
				refReason = itemErr.Reason
			}
			verr.Fields = append(verr.Fields, itemErr.Fields...)
			continue
		}
		drafts = append(drafts, d)
	}
	if refReason != "" {
		verr.Reason = refReason
	}
	if err := verr.Err(); err != nil {
		return Quote{}, nil, err
	}
	return q, drafts, nil
}

func parseDate(verr *shared.ValidationError, field string, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*raw))
	if err != nil {
		verr.Add(field, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// QuoteView is the detail response.
type QuoteView struct {
	ID                 int64          `json:"id"`
	Number             int64          `json:"numero"`
	Year               int            `json:"ano"`
	ClientID           int64          `json:"cliente"`
	ClientName         string         `json:"cliente_nome"`
	Requester          string         `json:"solicitante"`
	DeliveryForecast   *string        `json:"previsao_entrega"`
	PaymentTerms       string         `json:"forma_pagamento"`
	DueDate            *string        `json:"vencimento"`
	Notes              string         `json:"observacao"`
	Responsible        string         `json:"responsavel"`
	ServiceDescription string         `json:"servicos_descricao"`
	Scope              string         `json:"escopo"`
	PlaceOfUse         string         `json:"local_uso"`
	CreatedAt          time.Time      `json:"criado_em"`
	Items              []LineItemView `json:"itens"`
	Subtotal           shared.Money   `json:"subtotal"`
	Discount           shared.Money   `json:"desconto"`
	Total              shared.Money   `json:"total"`
}

// LineItemView is one entry of QuoteView.Items.
type LineItemView struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"id_item"`
	Name      string          `json:"nome"`
	Kind      catalog.Kind    `json:"tipo"`
	Quantity  shared.Quantity `json:"quantidade"`
	UnitPrice shared.Money    `json:"valor_unitario"`
	Total     shared.Money    `json:"total"`
}

// ItemView is returned by the single item endpoints together with the refreshed quote totals.
type ItemView struct {
	Item     LineItemView `json:"item"`
	QuoteID  int64        `json:"orcamento"`
	Subtotal shared.Money `json:"subtotal"`
	Total    shared.Money `json:"total"`
}

// ListEntryView is one row of the quote listing.
type ListEntryView struct {
	ID               int64        `json:"id"`
	Number           int64        `json:"numero"`
	Year             int          `json:"ano"`
	ClientID         int64        `json:"cliente"`
	ClientName       string       `json:"cliente_nome"`
	Requester        string       `json:"solicitante"`
	DeliveryForecast *string      `json:"previsao_entrega"`
	Subtotal         shared.Money `json:"subtotal"`
	Total            shared.Money `json:"total"`
	CreatedAt        time.Time    `json:"criado_em"`
}

func viewOfItem(item LineItem) LineItemView {
	return LineItemView{
		ID:        item.ID,
		ItemID:    item.Ref.ID(),
		Name:      item.Name,
		Kind:      item.Ref.Kind(),
		Quantity:  shared.Quantity{Decimal: item.Quantity},
		UnitPrice: shared.NewMoney(item.UnitPrice),
		Total:     shared.NewMoney(item.Total()),
	}
}

// View renders the quote with freshly computed totals.
func (q Quote) View() QuoteView {
	totals := q.Totals()
	items := make([]LineItemView, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, viewOfItem(item))
	}
	return QuoteView{
		ID:                 q.ID,
		Number:             q.Number,
		Year:               q.Year,
		ClientID:           q.ClientID,
		ClientName:         q.ClientName,
		Requester:          q.Requester,
		DeliveryForecast:   formatDate(q.DeliveryForecast),
		PaymentTerms:       q.PaymentTerms,
		DueDate:            formatDate(q.DueDate),
		Notes:              q.Notes,
		Responsible:        q.Responsible,
		ServiceDescription: q.ServiceDescription,
		Scope:              q.Scope,
		PlaceOfUse:         q.PlaceOfUse,
		CreatedAt:          q.CreatedAt,
		Items:              items,
		Subtotal:           shared.NewMoney(totals.Subtotal),
		Discount:           shared.NewMoney(totals.Discount),
		Total:              shared.NewMoney(totals.Total),
	}
}

// View renders a listing row.
func (e ListEntry) View() ListEntryView {
	return ListEntryView{
		ID:               e.ID,
		Number:           e.Number,
		Year:             e.Year,
		ClientID:         e.ClientID,
		ClientName:       e.ClientName,
		Requester:        e.Requester,
		DeliveryForecast: formatDate(e.DeliveryForecast),
		Subtotal:         shared.NewMoney(e.Subtotal),
		Total:            shared.NewMoney(e.Total()),
		CreatedAt:        e.CreatedAt,
	}
}
