package dashboard

import (
	"time"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Counts holds the number of records a company owns.
type Counts struct {
	Clients  int64 `json:"clientes"`
	Products int64 `json:"produtos"`
	Services int64 `json:"servicos"`
	Quotes   int64 `json:"orcamentos"`
}

// MonthBucket aggregates the quotes created in one calendar month of the summary year.
type MonthBucket struct {
	Month int          `json:"mes"`
	Label string       `json:"rotulo"`
	Count int64        `json:"quantidade"`
	Value shared.Money `json:"valor"`
}

// Alert is a quote whose delivery forecast falls within the alert window.
type Alert struct {
	QuoteID          int64  `json:"id"`
	Number           int64  `json:"numero"`
	Year             int    `json:"ano"`
	ClientName       string `json:"cliente"`
	DeliveryForecast string `json:"previsao_entrega"`
	DaysLeft         int    `json:"dias_restantes"`
}

// Summary is the dashboard payload.
type Summary struct {
	CompanyID   int64         `json:"empresa_id"`
	Year        int           `json:"ano"`
	Counts      Counts        `json:"totais"`
	TotalValue  shared.Money  `json:"orcamentos_valor_total"`
	Monthly     []MonthBucket `json:"mensal"`
	Alerts      []Alert       `json:"alertas"`
	GeneratedAt time.Time     `json:"gerado_em"`
}

var monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}
