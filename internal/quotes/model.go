package quotes

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/catalog"
)

// LineItemRef points a line item at exactly one product or service.
// The zero value references nothing and is rejected by validation.
type LineItemRef struct {
	kind catalog.Kind
	id   int64
}

// ProductRef references a product.
func ProductRef(id int64) LineItemRef {
	return LineItemRef{kind: catalog.KindProduct, id: id}
}

// ServiceRef references a service.
func ServiceRef(id int64) LineItemRef {
	return LineItemRef{kind: catalog.KindService, id: id}
}

// Kind reports which catalog the reference points into.
func (r LineItemRef) Kind() catalog.Kind { return r.kind }

// ID is the referenced product or service id.
func (r LineItemRef) ID() int64 { return r.id }

// IsZero reports whether the reference is unset.
func (r LineItemRef) IsZero() bool { return r.kind == "" || r.id <= 0 }

// columns splits the reference into the nullable storage pair.
func (r LineItemRef) columns() (productID, serviceID *int64) {
	id := r.id
	if r.kind == catalog.KindService {
		return nil, &id
	}
	return &id, nil
}

func refFromColumns(productID, serviceID *int64) LineItemRef {
	if serviceID != nil {
		return ServiceRef(*serviceID)
	}
	if productID != nil {
		return ProductRef(*productID)
	}
	return LineItemRef{}
}

// Quote is a priced proposal issued by a company to one of its clients.
type Quote struct {
	ID                 int64
	CompanyID          int64
	ClientID           int64
	ClientName         string
	CreatedBy          int64
	Number             int64
	Year               int
	Month              int
	Requester          string
	DeliveryForecast   *time.Time
	PaymentTerms       string
	DueDate            *time.Time
	Notes              string
	Responsible        string
	Discount           decimal.Decimal
	ServiceDescription string
	Scope              string
	PlaceOfUse         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Items              []LineItem
}

// Totals recomputes the quote totals from its items.
func (q Quote) Totals() Totals {
	return Compute(q.Items, q.Discount)
}

// LineItem is one priced entry of a quote. UnitPrice is a snapshot taken when the item was written.
type LineItem struct {
	ID        int64
	QuoteID   int64
	CompanyID int64
	Ref       LineItemRef
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// Total is quantity times unit price rounded to cents.
func (i LineItem) Total() decimal.Decimal {
	return LineTotal(i.Quantity, i.UnitPrice)
}

// ListFilter narrows the quote listing.
type ListFilter struct {
	ClientID int64
	Year     int
	Search   string
	Page     int
	PerPage  int
}

// ListEntry is a quote row in listings, with its totals computed in SQL.
type ListEntry struct {
	ID               int64
	Number           int64
	Year             int
	ClientID         int64
	ClientName       string
	Requester        string
	DeliveryForecast *time.Time
	Discount         decimal.Decimal
	Subtotal         decimal.Decimal
	CreatedAt        time.Time
}

// Total applies the discount to the listed subtotal.
func (e ListEntry) Total() decimal.Decimal {
	return e.Subtotal.Sub(e.Discount)
}
