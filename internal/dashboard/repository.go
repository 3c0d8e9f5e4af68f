package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MonthRow is one aggregated month as returned by storage. Months without quotes are absent.
type MonthRow struct {
	Month int
	Count int64
	Value decimal.Decimal
}

// AlertRow is a quote due for delivery.
type AlertRow struct {
	QuoteID          int64
	Number           int64
	Year             int
	ClientName       string
	DeliveryForecast time.Time
}

// Repository runs the read-only aggregation queries, always filtered by company.
type Repository interface {
	Counts(ctx context.Context, companyID int64) (Counts, error)
	TotalValue(ctx context.Context, companyID int64) (decimal.Decimal, error)
	Monthly(ctx context.Context, companyID int64, year int) ([]MonthRow, error)
	UpcomingDeliveries(ctx context.Context, companyID int64, from, to time.Time) ([]AlertRow, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Counts(ctx context.Context, companyID int64) (Counts, error) {
	const query = `SELECT
  (SELECT COUNT(*) FROM clients WHERE company_id = $1),
  (SELECT COUNT(*) FROM products WHERE company_id = $1),
  (SELECT COUNT(*) FROM services WHERE company_id = $1),
  (SELECT COUNT(*) FROM quotes WHERE company_id = $1)`
	var c Counts
	err := r.pool.QueryRow(ctx, query, companyID).Scan(&c.Clients, &c.Products, &c.Services, &c.Quotes)
	return c, err
}

func (r *repository) TotalValue(ctx context.Context, companyID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(ROUND(quantity * unit_price, 2)), 0) FROM quote_items WHERE company_id = $1`, companyID).Scan(&total)
	return total, err
}

func (r *repository) Monthly(ctx context.Context, companyID int64, year int) ([]MonthRow, error) {
	const query = `SELECT q.month::int AS month,
  COUNT(DISTINCT q.id),
  COALESCE(SUM(ROUND(i.quantity * i.unit_price, 2)), 0)
FROM quotes q
LEFT JOIN quote_items i ON i.quote_id = q.id
WHERE q.company_id = $1 AND q.year = $2
GROUP BY q.month
ORDER BY q.month`
	rows, err := r.pool.Query(ctx, query, companyID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthRow
	for rows.Next() {
		var row MonthRow
		if err := rows.Scan(&row.Month, &row.Count, &row.Value); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repository) UpcomingDeliveries(ctx context.Context, companyID int64, from, to time.Time) ([]AlertRow, error) {
	const query = `SELECT q.id, q.number, q.year, c.legal_name, q.delivery_forecast
FROM quotes q
JOIN clients c ON c.company_id = q.company_id AND c.id = q.client_id
WHERE q.company_id = $1 AND q.delivery_forecast BETWEEN $2::date AND $3::date
ORDER BY q.delivery_forecast, q.number`
	rows, err := r.pool.Query(ctx, query, companyID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AlertRow
	for rows.Next() {
		var row AlertRow
		if err := rows.Scan(&row.QuoteID, &row.Number, &row.Year, &row.ClientName, &row.DeliveryForecast); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
