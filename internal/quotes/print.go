package quotes

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/catalog"
	"github.com/odyssey-erp/orcamento/internal/clients"
	"github.com/odyssey-erp/orcamento/internal/companies"
	"github.com/odyssey-erp/orcamento/internal/shared"
	"github.com/odyssey-erp/orcamento/report"
)

const printTemplate = "templates/print/quote.html"

// CompanyLookup loads the issuing company of the current tenant.
type CompanyLookup interface {
	Current(ctx context.Context, tenant shared.TenantContext) (companies.Company, error)
}

// ClientLookup loads a client of the current tenant.
type ClientLookup interface {
	Get(ctx context.Context, tenant shared.TenantContext, id int64) (clients.Client, error)
}

// PDFRenderer turns HTML into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) (report.Document, error)
}

// Printer renders the printable summary of a quote.
type Printer struct {
	tmpl      *template.Template
	companies CompanyLookup
	clients   ClientLookup
	pdf       PDFRenderer
}

type printData struct {
	Company companies.Company
	Client  clients.Client
	Quote   Quote
	Totals  Totals
}

// NewPrinter parses the quote template from templates.
func NewPrinter(templates fs.FS, companies CompanyLookup, clients ClientLookup, pdf PDFRenderer) (*Printer, error) {
	tmpl, err := template.New("quote.html").Funcs(template.FuncMap{
		"money": formatBRL,
		"qty":   formatQuantity,
		"date":  formatPrintDate,
		"kind":  kindLabel,
		"inc":   func(i int) int { return i + 1 },
	}).ParseFS(templates, printTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse print template: %w", err)
	}
	return &Printer{tmpl: tmpl, companies: companies, clients: clients, pdf: pdf}, nil
}

// HTML renders the quote as a standalone page.
func (p *Printer) HTML(ctx context.Context, tenant shared.TenantContext, q Quote) ([]byte, error) {
	company, err := p.companies.Current(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	client, err := p.clients.Get(ctx, tenant, q.ClientID)
	if err != nil {
		return nil, fmt.Errorf("load client: %w", err)
	}
	var buf bytes.Buffer
	data := printData{Company: company, Client: client, Quote: q, Totals: q.Totals()}
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render quote: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF renders the quote page and converts it through the PDF renderer.
func (p *Printer) PDF(ctx context.Context, tenant shared.TenantContext, q Quote) (report.Document, error) {
	html, err := p.HTML(ctx, tenant, q)
	if err != nil {
		return report.Document{}, err
	}
	doc, err := p.pdf.RenderHTML(ctx, html)
	if err != nil {
		return report.Document{}, fmt.Errorf("render quote pdf: %w", err)
	}
	return doc, nil
}

// formatBRL renders 1234.5 as "R$ 1.234,50".
func formatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + b.String() + "," + frac
}

func formatQuantity(d decimal.Decimal) string {
	return strings.Replace(d.String(), ".", ",", 1)
}

func formatPrintDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("02/01/2006")
	case *time.Time:
		if t == nil {
			return ""
		}
		return t.Format("02/01/2006")
	default:
		return ""
	}
}

func kindLabel(k catalog.Kind) string {
	if k == catalog.KindService {
		return "Serviço"
	}
	return "Produto"
}
