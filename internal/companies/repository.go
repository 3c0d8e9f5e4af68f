package companies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// Repository persists companies and user memberships.
type Repository interface {
	CreateWithOwner(ctx context.Context, company Company, ownerID int64) (Company, error)
	Get(ctx context.Context, id int64) (Company, error)
	Update(ctx context.Context, company Company) error
	ListForUser(ctx context.Context, userID int64) ([]Company, error)
	IsMember(ctx context.Context, userID, companyID int64) (bool, error)
	FirstForUser(ctx context.Context, userID int64) (int64, error)
	Link(ctx context.Context, userID, companyID int64) error
	ListIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const companyColumns = `id, name, tax_id, phone, address, created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) CreateWithOwner(ctx context.Context, company Company, ownerID int64) (Company, error) {
	now := time.Now()
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `INSERT INTO companies (name, tax_id, phone, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`
		if err := tx.QueryRow(ctx, insert, company.Name, company.TaxID, company.Phone, company.Address, now).Scan(&company.ID); err != nil {
			return fmt.Errorf("insert company: %w", err)
		}
		const link = `INSERT INTO user_companies (user_id, company_id) VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, link, ownerID, company.ID); err != nil {
			return fmt.Errorf("link owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return Company{}, db.ClassifyError(err)
	}
	company.CreatedAt = now
	company.UpdatedAt = now
	return company, nil
}

func (r *repository) Get(ctx context.Context, id int64) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return Company{}, db.ClassifyError(err)
	}
	return c, nil
}

func (r *repository) Update(ctx context.Context, company Company) error {
	const query = `UPDATE companies SET name = $1, tax_id = $2, phone = $3, address = $4, updated_at = NOW() WHERE id = $5`
	tag, err := r.pool.Exec(ctx, query, company.Name, company.TaxID, company.Phone, company.Address, company.ID)
	if err != nil {
		return db.ClassifyError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListForUser(ctx context.Context, userID int64) ([]Company, error) {
	const query = `SELECT c.id, c.name, c.tax_id, c.phone, c.address, c.created_at, c.updated_at
FROM companies c
JOIN user_companies uc ON uc.company_id = c.id
WHERE uc.user_id = $1
ORDER BY uc.created_at, c.id`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *repository) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_companies WHERE user_id = $1 AND company_id = $2)`, userID, companyID).Scan(&exists)
	return exists, err
}

func (r *repository) FirstForUser(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT company_id FROM user_companies WHERE user_id = $1 ORDER BY created_at, company_id LIMIT 1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNoTenantSelected
	}
	return id, err
}

func (r *repository) Link(ctx context.Context, userID, companyID int64) error {
	const query = `INSERT INTO user_companies (user_id, company_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, userID, companyID)
	return db.ClassifyError(err)
}

func (r *repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}
