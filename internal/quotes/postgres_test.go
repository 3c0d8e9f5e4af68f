package quotes

import (
	"context"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/odyssey-erp/orcamento/internal/dashboard"
	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// ============================================================================
// POSTGRES INTEGRATION SUITE
// ============================================================================

// PostgresSuite runs the quote service against a real database. It only runs when
// ORCAMENTO_TEST_PG_DSN points at a disposable database.
type PostgresSuite struct {
	suite.Suite
	pool    *pgxpool.Pool
	service *Service
	tenant  shared.TenantContext
	ctx     context.Context
}

func TestPostgresSuite(t *testing.T) {
	dsn := os.Getenv("ORCAMENTO_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("ORCAMENTO_TEST_PG_DSN not set")
	}
	suite.Run(t, &PostgresSuite{})
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	pool, err := db.New(s.ctx, os.Getenv("ORCAMENTO_TEST_PG_DSN"))
	s.Require().NoError(err)
	s.pool = pool

	migrator, err := db.NewMigrator(pool, discardLogger())
	s.Require().NoError(err)
	s.Require().NoError(migrator.Up())
	s.Require().NoError(migrator.Close())

	s.service = NewService(NewRepository(pool), discardLogger(), nil, nil)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE quote_items, quotes, quote_number_sequences, products, services, clients, user_companies, companies RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)

	_, err = s.pool.Exec(s.ctx, `INSERT INTO companies (name) VALUES ('Empresa A'), ('Empresa B')`)
	s.Require().NoError(err)
	_, err = s.pool.Exec(s.ctx, `INSERT INTO clients (company_id, legal_name) VALUES (1, 'Cliente A'), (2, 'Cliente B')`)
	s.Require().NoError(err)
	_, err = s.pool.Exec(s.ctx, `INSERT INTO products (company_id, name, price) VALUES (1, 'Cimento', 32.90), (2, 'Areia', 80)`)
	s.Require().NoError(err)
	_, err = s.pool.Exec(s.ctx, `INSERT INTO services (company_id, name, price) VALUES (1, 'Instalação', 150)`)
	s.Require().NoError(err)

	s.tenant = shared.TenantContext{CompanyID: 1, UserID: 10}
	s.service.clock = time.Now
}

func (s *PostgresSuite) TestCreateAndReadBack() {
	t := s.T()
	quote, err := s.service.Create(s.ctx, s.tenant, exampleForm())
	require.NoError(t, err)

	assert.Equal(t, int64(1), quote.Number)
	assert.Equal(t, "Cliente A", quote.ClientName)
	require.Len(t, quote.Items, 2)
	assert.Equal(t, "Cimento", quote.Items[0].Name)
	assert.Equal(t, "25.00", quote.Totals().Subtotal.StringFixed(2))
	assert.Equal(t, "22.00", quote.Totals().Total.StringFixed(2))

	entries, pagination, err := s.service.List(s.ctx, s.tenant, ListFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, pagination.Total)
	assert.Equal(t, "22.00", entries[0].Total().StringFixed(2))
}

func (s *PostgresSuite) TestConcurrentCreatesAreRaceFree() {
	t := s.T()
	const n = 20
	numbers := make([]int64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := s.service.Create(s.ctx, s.tenant, QuoteForm{ClientID: 1})
			numbers[i], errs[i] = q.Number, err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	for i, number := range numbers {
		assert.Equal(t, int64(i+1), number)
	}
}

func (s *PostgresSuite) TestDeletedNumbersAreNotReused() {
	t := s.T()
	var ids []int64
	for i := 0; i < 3; i++ {
		q, err := s.service.Create(s.ctx, s.tenant, exampleForm())
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	require.NoError(t, s.service.Delete(s.ctx, s.tenant, ids[1]))

	var items int
	require.NoError(t, s.pool.QueryRow(s.ctx, `SELECT COUNT(*) FROM quote_items WHERE quote_id = $1`, ids[1]).Scan(&items))
	assert.Zero(t, items)

	q, err := s.service.Create(s.ctx, s.tenant, QuoteForm{ClientID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), q.Number)
}

func (s *PostgresSuite) TestCounterSeedsFromExistingQuotes() {
	t := s.T()
	s.service.clock = func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
	_, err := s.pool.Exec(s.ctx, `INSERT INTO quotes (company_id, client_id, created_by, number, year, month) VALUES (1, 1, 10, 41, 2025, 6)`)
	require.NoError(t, err)

	q, err := s.service.Create(s.ctx, s.tenant, QuoteForm{ClientID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(42), q.Number)
}

func (s *PostgresSuite) TestNewYearsEveQuoteStaysInDecember() {
	t := s.T()
	brt := time.FixedZone("BRT", -3*60*60)
	s.service.clock = func() time.Time { return time.Date(2024, 12, 31, 22, 30, 0, 0, brt) }
	q, err := s.service.Create(s.ctx, s.tenant, exampleForm())
	require.NoError(t, err)

	var year, month int
	require.NoError(t, s.pool.QueryRow(s.ctx, `SELECT year, month FROM quotes WHERE id = $1`, q.ID).Scan(&year, &month))
	assert.Equal(t, 2024, year)
	assert.Equal(t, 12, month)

	repo := dashboard.NewRepository(s.pool)
	rows, err := repo.Monthly(s.ctx, 1, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12, rows[0].Month)
	assert.Equal(t, int64(1), rows[0].Count)

	next, err := repo.Monthly(s.ctx, 1, 2025)
	require.NoError(t, err)
	assert.Empty(t, next)
}

func (s *PostgresSuite) TestCrossTenantReferencesRejected() {
	t := s.T()
	_, err := s.service.Create(s.ctx, s.tenant, QuoteForm{ClientID: 2})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	form := QuoteForm{ClientID: 1, Items: []ItemForm{{ProductID: int64p(2), Quantity: dec("1")}}}
	_, err = s.service.Create(s.ctx, s.tenant, form)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	var quotes int
	require.NoError(t, s.pool.QueryRow(s.ctx, `SELECT COUNT(*) FROM quotes`).Scan(&quotes))
	assert.Zero(t, quotes)
}

func (s *PostgresSuite) TestStorageRejectsDoubleReference() {
	t := s.T()
	q, err := s.service.Create(s.ctx, s.tenant, QuoteForm{ClientID: 1})
	require.NoError(t, err)

	_, err = s.pool.Exec(s.ctx, `INSERT INTO quote_items (quote_id, company_id, product_id, service_id, quantity, unit_price) VALUES ($1, 1, 1, 1, 1, 1)`, q.ID)
	assert.ErrorIs(t, db.ClassifyError(err), shared.ErrValidation)
}

func (s *PostgresSuite) TestReferencedCatalogItemCannotBeDeleted() {
	t := s.T()
	_, err := s.service.Create(s.ctx, s.tenant, exampleForm())
	require.NoError(t, err)

	_, err = s.pool.Exec(s.ctx, `DELETE FROM products WHERE company_id = 1 AND id = 1`)
	assert.ErrorIs(t, db.ClassifyError(err), shared.ErrConflict)
}
