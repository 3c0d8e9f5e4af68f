package clients

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Repository persists clients. Every method is scoped by company id.
type Repository interface {
	List(ctx context.Context, companyID int64, filter ListFilter) ([]Client, int, error)
	Get(ctx context.Context, companyID, id int64) (Client, error)
	Create(ctx context.Context, client Client) (Client, error)
	Update(ctx context.Context, client Client) error
	Delete(ctx context.Context, companyID, id int64) error
	Search(ctx context.Context, companyID int64, term string, limit int) ([]Client, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const clientColumns = `id, company_id, legal_name, trade_name, tax_id, phone, email, address, city_state, postal_code, created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CompanyID, &c.LegalName, &c.TradeName, &c.TaxID, &c.Phone, &c.Email, &c.Address, &c.CityState, &c.PostalCode, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectClients(rows pgx.Rows) ([]Client, error) {
	defer rows.Close()
	clients := make([]Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *repository) List(ctx context.Context, companyID int64, filter ListFilter) ([]Client, int, error) {
	where := ` WHERE company_id = $1`
	args := []interface{}{companyID}
	argPos := 1

	if filter.Search != "" {
		argPos++
		where += ` AND search_key LIKE $` + strconv.Itoa(argPos)
		args = append(args, shared.LikePattern(filter.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	query := `SELECT ` + clientColumns + ` FROM clients` + where + ` ORDER BY legal_name, id`
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
	clients, err := collectClients(rows)
	return clients, total, err
}

func (r *repository) Get(ctx context.Context, companyID, id int64) (Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE company_id = $1 AND id = $2`, companyID, id))
	if err != nil {
		return Client{}, db.ClassifyError(err)
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, client Client) (Client, error) {
	const query = `INSERT INTO clients (company_id, legal_name, trade_name, tax_id, phone, email, address, city_state, postal_code, search_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`
	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		client.CompanyID, client.LegalName, client.TradeName, client.TaxID, client.Phone,
		client.Email, client.Address, client.CityState, client.PostalCode, client.searchKey(), now,
	).Scan(&client.ID)
	if err != nil {
		return Client{}, db.ClassifyError(err)
	}
	client.CreatedAt = now
	client.UpdatedAt = now
	return client, nil
}

func (r *repository) Update(ctx context.Context, client Client) error {
	const query = `UPDATE clients SET legal_name = $1, trade_name = $2, tax_id = $3, phone = $4, email = $5,
address = $6, city_state = $7, postal_code = $8, search_key = $9, updated_at = NOW()
WHERE company_id = $10 AND id = $11`
	tag, err := r.pool.Exec(ctx, query,
		client.LegalName, client.TradeName, client.TaxID, client.Phone, client.Email,
		client.Address, client.CityState, client.PostalCode, client.searchKey(), client.CompanyID, client.ID,
	)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Search(ctx context.Context, companyID int64, term string, limit int) ([]Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE company_id = $1`
	args := []interface{}{companyID}
	if term != "" {
		query += ` AND search_key LIKE $2`
		args = append(args, shared.LikePattern(term))
	}
	query += ` ORDER BY legal_name, id LIMIT ` + strconv.Itoa(limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectClients(rows)
}
