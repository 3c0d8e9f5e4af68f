package quotes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/catalog"
	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Repository reads quotes and opens write transactions. Every query filters by company id.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, id int64) (Quote, error)
	List(ctx context.Context, companyID int64, filter ListFilter) ([]ListEntry, int, error)
	GetItem(ctx context.Context, companyID, itemID int64) (LineItem, error)
}

// TxRepository exposes the writes that make up one atomic quote change.
type TxRepository interface {
	AssignNumber(ctx context.Context, companyID int64, year int) (int64, error)
	CheckClient(ctx context.Context, companyID, clientID int64) error
	CatalogPrice(ctx context.Context, companyID int64, ref LineItemRef) (decimal.Decimal, error)
	CreateQuote(ctx context.Context, q Quote) (int64, error)
	LockQuote(ctx context.Context, companyID, id int64) error
	UpdateQuote(ctx context.Context, q Quote) error
	DeleteQuote(ctx context.Context, companyID, id int64) error
	InsertItem(ctx context.Context, item LineItem) (int64, error)
	UpdateItem(ctx context.Context, item LineItem) error
	DeleteItem(ctx context.Context, companyID, itemID int64) error
	DeleteItems(ctx context.Context, companyID, quoteID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

type txRepo struct {
	tx pgx.Tx
}

// NewRepository builds the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// WithTx wraps fn in a read committed transaction. The numbering counter row lock
// serializes creators, and read committed lets a waiter see the committed counter
// instead of failing with a serialization error.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const quoteColumns = `q.id, q.company_id, q.client_id, c.legal_name, q.created_by, q.number, q.year, q.requester,
q.delivery_forecast, q.payment_terms, q.due_date, q.notes, q.responsible, q.discount,
q.service_description, q.scope, q.place_of_use, q.created_at, q.updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (Quote, error) {
	var q Quote
	err := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+`
FROM quotes q JOIN clients c ON c.company_id = q.company_id AND c.id = q.client_id
WHERE q.company_id = $1 AND q.id = $2`, companyID, id).Scan(
		&q.ID, &q.CompanyID, &q.ClientID, &q.ClientName, &q.CreatedBy, &q.Number, &q.Year, &q.Requester,
		&q.DeliveryForecast, &q.PaymentTerms, &q.DueDate, &q.Notes, &q.Responsible, &q.Discount,
		&q.ServiceDescription, &q.Scope, &q.PlaceOfUse, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return Quote{}, db.ClassifyError(err)
	}

	items, err := r.items(ctx, companyID, `i.quote_id = $2`, id)
	if err != nil {
		return Quote{}, fmt.Errorf("load quote items: %w", err)
	}
	q.Items = items
	return q, nil
}

const itemSelect = `SELECT i.id, i.quote_id, i.company_id, i.product_id, i.service_id,
COALESCE(p.name, s.name, ''), i.quantity, i.unit_price, i.created_at
FROM quote_items i
LEFT JOIN products p ON p.company_id = i.company_id AND p.id = i.product_id
LEFT JOIN services s ON s.company_id = i.company_id AND s.id = i.service_id
WHERE i.company_id = $1 AND `

func (r *repository) items(ctx context.Context, companyID int64, cond string, arg int64) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx, itemSelect+cond+` ORDER BY i.id`, companyID, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var (
			item                 LineItem
			productID, serviceID *int64
		)
		if err := rows.Scan(&item.ID, &item.QuoteID, &item.CompanyID, &productID, &serviceID,
			&item.Name, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Ref = refFromColumns(productID, serviceID)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, companyID, itemID int64) (LineItem, error) {
	items, err := r.items(ctx, companyID, `i.id = $2`, itemID)
	if err != nil {
		return LineItem{}, err
	}
	if len(items) == 0 {
		return LineItem{}, shared.ErrNotFound
	}
	return items[0], nil
}

func (r *repository) List(ctx context.Context, companyID int64, filter ListFilter) ([]ListEntry, int, error) {
	where := ` WHERE q.company_id = $1`
	args := []interface{}{companyID}
	argPos := 1

	if filter.ClientID > 0 {
		argPos++
		where += ` AND q.client_id = $` + strconv.Itoa(argPos)
		args = append(args, filter.ClientID)
	}
	if filter.Year > 0 {
		argPos++
		where += ` AND q.year = $` + strconv.Itoa(argPos)
		args = append(args, filter.Year)
	}
	if filter.Search != "" {
		argPos++
		where += ` AND c.search_key LIKE $` + strconv.Itoa(argPos)
		args = append(args, shared.LikePattern(filter.Search))
	}

	from := ` FROM quotes q JOIN clients c ON c.company_id = q.company_id AND c.id = q.client_id`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	query := `SELECT q.id, q.number, q.year, q.client_id, c.legal_name, q.requester, q.delivery_forecast, q.discount,
COALESCE((SELECT SUM(ROUND(i.quantity * i.unit_price, 2)) FROM quote_items i WHERE i.quote_id = q.id), 0),
q.created_at` + from + where + ` ORDER BY q.created_at DESC, q.id DESC`
	argPos++
	query += ` LIMIT $` + strconv.Itoa(argPos)
	args = append(args, perPage)
	argPos++
	query += ` OFFSET $` + strconv.Itoa(argPos)
	args = append(args, shared.Offset(page, perPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]ListEntry, 0)
	for rows.Next() {
		var e ListEntry
		if err := rows.Scan(&e.ID, &e.Number, &e.Year, &e.ClientID, &e.ClientName, &e.Requester,
			&e.DeliveryForecast, &e.Discount, &e.Subtotal, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ============================================================================
// TRANSACTIONAL OPERATIONS
// ============================================================================

func (t *txRepo) AssignNumber(ctx context.Context, companyID int64, year int) (int64, error) {
	number, err := AssignNumber(ctx, t.tx, companyID, year)
	if err != nil {
		return 0, db.ClassifyError(err)
	}
	return number, nil
}

func (t *txRepo) CheckClient(ctx context.Context, companyID, clientID int64) error {
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM clients WHERE company_id = $1 AND id = $2`, companyID, clientID).Scan(&id)
	if err != nil {
		return fmt.Errorf("client %d: %w", clientID, db.ClassifyError(err))
	}
	return nil
}

// CatalogPrice returns the current price of the referenced item and locks it against
// deletion until the transaction ends.
func (t *txRepo) CatalogPrice(ctx context.Context, companyID int64, ref LineItemRef) (decimal.Decimal, error) {
	table := "products"
	if ref.Kind() == catalog.KindService {
		table = "services"
	}
	var price decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT price FROM `+table+` WHERE company_id = $1 AND id = $2 FOR SHARE`, companyID, ref.ID()).Scan(&price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s %d: %w", ref.Kind(), ref.ID(), db.ClassifyError(err))
	}
	return price, nil
}

func (t *txRepo) CreateQuote(ctx context.Context, q Quote) (int64, error) {
	const query = `INSERT INTO quotes (company_id, client_id, created_by, number, year, month, requester, delivery_forecast,
payment_terms, due_date, notes, responsible, discount, service_description, scope, place_of_use, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17) RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		q.CompanyID, q.ClientID, q.CreatedBy, q.Number, q.Year, q.Month, q.Requester, q.DeliveryForecast,
		q.PaymentTerms, q.DueDate, q.Notes, q.Responsible, q.Discount, q.ServiceDescription, q.Scope, q.PlaceOfUse,
		q.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, db.ClassifyError(err)
	}
	return id, nil
}

// LockQuote takes the row lock every item mutation of the quote queues on.
func (t *txRepo) LockQuote(ctx context.Context, companyID, id int64) error {
	var locked int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM quotes WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, id).Scan(&locked)
	return db.ClassifyError(err)
}

func (t *txRepo) UpdateQuote(ctx context.Context, q Quote) error {
	const query = `UPDATE quotes SET client_id = $1, requester = $2, delivery_forecast = $3, payment_terms = $4,
due_date = $5, notes = $6, responsible = $7, discount = $8, service_description = $9, scope = $10,
place_of_use = $11, updated_at = $12
WHERE company_id = $13 AND id = $14`
	tag, err := t.tx.Exec(ctx, query,
		q.ClientID, q.Requester, q.DeliveryForecast, q.PaymentTerms, q.DueDate, q.Notes, q.Responsible,
		q.Discount, q.ServiceDescription, q.Scope, q.PlaceOfUse, time.Now(), q.CompanyID, q.ID,
	)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteQuote(ctx context.Context, companyID, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM quotes WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) InsertItem(ctx context.Context, item LineItem) (int64, error) {
	productID, serviceID := item.Ref.columns()
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO quote_items (quote_id, company_id, product_id, service_id, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		item.QuoteID, item.CompanyID, productID, serviceID, item.Quantity, item.UnitPrice,
	).Scan(&id)
	if err != nil {
		return 0, db.ClassifyError(err)
	}
	return id, nil
}

func (t *txRepo) UpdateItem(ctx context.Context, item LineItem) error {
	productID, serviceID := item.Ref.columns()
	tag, err := t.tx.Exec(ctx, `UPDATE quote_items SET product_id = $1, service_id = $2, quantity = $3, unit_price = $4
WHERE company_id = $5 AND id = $6`,
		productID, serviceID, item.Quantity, item.UnitPrice, item.CompanyID, item.ID,
	)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteItem(ctx context.Context, companyID, itemID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM quote_items WHERE company_id = $1 AND id = $2`, companyID, itemID)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteItems(ctx context.Context, companyID, quoteID int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM quote_items WHERE company_id = $1 AND quote_id = $2`, companyID, quoteID)
	return db.ClassifyError(err)
}
