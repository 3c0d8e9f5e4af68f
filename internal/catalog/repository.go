package catalog

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Repository persists products and services. Table names come from Kind, never from input.
type Repository interface {
	List(ctx context.Context, companyID int64, kind Kind, filter ListFilter) ([]Item, int, error)
	Get(ctx context.Context, companyID int64, kind Kind, id int64) (Item, error)
	Create(ctx context.Context, item Item) (Item, error)
	Update(ctx context.Context, item Item) error
	Delete(ctx context.Context, companyID int64, kind Kind, id int64) error
	Search(ctx context.Context, companyID int64, term string, limit int) ([]Item, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, company_id, code, name, description, price, created_at, updated_at`

func scanItem(row pgx.Row, kind Kind) (Item, error) {
	item := Item{Kind: kind}
	err := row.Scan(&item.ID, &item.CompanyID, &item.Code, &item.Name, &item.Description, &item.Price, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

func (r *repository) List(ctx context.Context, companyID int64, kind Kind, filter ListFilter) ([]Item, int, error) {
	where := ` WHERE company_id = $1`
	args := []interface{}{companyID}
	argPos := 1

	if filter.Search != "" {
		argPos++
		where += ` AND search_key LIKE $` + strconv.Itoa(argPos)
		args = append(args, shared.LikePattern(filter.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+kind.table()+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := shared.NormalizePage(filter.Page, filter.PerPage)
	query := `SELECT ` + itemColumns + ` FROM ` + kind.table() + where + ` ORDER BY name, id`
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

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows, kind)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, companyID int64, kind Kind, id int64) (Item, error) {
	item, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM `+kind.table()+` WHERE company_id = $1 AND id = $2`, companyID, id), kind)
	if err != nil {
		return Item{}, db.ClassifyError(err)
	}
	return item, nil
}

func (r *repository) Create(ctx context.Context, item Item) (Item, error) {
	query := `INSERT INTO ` + item.Kind.table() + ` (company_id, code, name, description, price, search_key, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`
	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		item.CompanyID, item.Code, item.Name, item.Description, item.Price, item.searchKey(), now,
	).Scan(&item.ID)
	if err != nil {
		return Item{}, db.ClassifyError(err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func (r *repository) Update(ctx context.Context, item Item) error {
	query := `UPDATE ` + item.Kind.table() + ` SET code = $1, name = $2, description = $3, price = $4, search_key = $5, updated_at = NOW()
WHERE company_id = $6 AND id = $7`
	tag, err := r.pool.Exec(ctx, query,
		item.Code, item.Name, item.Description, item.Price, item.searchKey(), item.CompanyID, item.ID,
	)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID int64, kind Kind, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+kind.table()+` WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Search matches both products and services in one pass, products first on equal names.
func (r *repository) Search(ctx context.Context, companyID int64, term string, limit int) ([]Item, error) {
	filter := ``
	args := []interface{}{companyID}
	if term != "" {
		filter = ` AND search_key LIKE $2`
		args = append(args, shared.LikePattern(term))
	}
	query := `SELECT * FROM (
  SELECT 'produto' AS kind, ` + itemColumns + ` FROM products WHERE company_id = $1` + filter + `
  UNION ALL
  SELECT 'servico' AS kind, ` + itemColumns + ` FROM services WHERE company_id = $1` + filter + `
) AS catalog ORDER BY name, kind, id LIMIT ` + strconv.Itoa(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.Kind, &item.ID, &item.CompanyID, &item.Code, &item.Name, &item.Description, &item.Price, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
