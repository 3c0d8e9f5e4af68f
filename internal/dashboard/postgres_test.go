package dashboard

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

// ============================================================================
// POSTGRES INTEGRATION SUITE
// ============================================================================

// PostgresSuite runs the aggregation queries against a real database. It only runs
// when ORCAMENTO_TEST_PG_DSN points at a disposable database.
type PostgresSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	repo  Repository
	ctx   context.Context
	today time.Time
}

func TestPostgresSuite(t *testing.T) {
	if os.Getenv("ORCAMENTO_TEST_PG_DSN") == "" {
		t.Skip("ORCAMENTO_TEST_PG_DSN not set")
	}
	suite.Run(t, &PostgresSuite{})
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	pool, err := db.New(s.ctx, os.Getenv("ORCAMENTO_TEST_PG_DSN"))
	s.Require().NoError(err)
	s.pool = pool

	migrator, err := db.NewMigrator(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.Require().NoError(migrator.Up())
	s.Require().NoError(migrator.Close())

	s.repo = NewRepository(pool)
	s.today = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE quote_items, quotes, quote_number_sequences, products, services, clients, user_companies, companies RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)

	s.exec(`INSERT INTO companies (name) VALUES ('Empresa A'), ('Empresa B')`)
	s.exec(`INSERT INTO clients (company_id, legal_name) VALUES (1, 'Cliente A'), (2, 'Cliente B')`)
	s.exec(`INSERT INTO products (company_id, name, price) VALUES (1, 'Cimento', 10), (2, 'Areia', 80)`)
	s.exec(`INSERT INTO services (company_id, name, price) VALUES (1, 'Instalação', 150)`)
}

func (s *PostgresSuite) exec(query string, args ...any) {
	_, err := s.pool.Exec(s.ctx, query, args...)
	s.Require().NoError(err)
}

func (s *PostgresSuite) insertQuote(companyID, clientID, number int64, year, month int, forecast *time.Time) int64 {
	var id int64
	err := s.pool.QueryRow(s.ctx, `INSERT INTO quotes (company_id, client_id, created_by, number, year, month, delivery_forecast)
VALUES ($1, $2, 10, $3, $4, $5, $6) RETURNING id`, companyID, clientID, number, year, month, forecast).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *PostgresSuite) insertItem(quoteID, companyID, productID int64, quantity, price string) {
	s.exec(`INSERT INTO quote_items (quote_id, company_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4::numeric, $5::numeric)`,
		quoteID, companyID, productID, quantity, price)
}

func (s *PostgresSuite) day(offset int) *time.Time {
	d := s.today.AddDate(0, 0, offset)
	return &d
}

func (s *PostgresSuite) TestMonthlyCountsOnlyRequestedYear() {
	t := s.T()
	march := s.insertQuote(1, 1, 1, 2025, 3, nil)
	s.insertItem(march, 1, 1, "2", "10.00")
	s.insertQuote(1, 1, 2, 2025, 3, nil)
	july := s.insertQuote(1, 1, 3, 2025, 7, nil)
	s.insertItem(july, 1, 1, "1.5", "3.33")
	lastYear := s.insertQuote(1, 1, 1, 2024, 3, nil)
	s.insertItem(lastYear, 1, 1, "1", "99.00")
	other := s.insertQuote(2, 2, 1, 2025, 3, nil)
	s.insertItem(other, 2, 2, "1", "80.00")

	rows, err := s.repo.Monthly(s.ctx, 1, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 3, rows[0].Month)
	assert.Equal(t, int64(2), rows[0].Count, "quote without items still counts")
	assert.Equal(t, "20.00", rows[0].Value.StringFixed(2))
	assert.Equal(t, 7, rows[1].Month)
	assert.Equal(t, int64(1), rows[1].Count)
	assert.Equal(t, "5.00", rows[1].Value.StringFixed(2))
}

func (s *PostgresSuite) TestUpcomingDeliveriesWindowIsInclusive() {
	t := s.T()
	s.insertQuote(1, 1, 1, 2025, 5, s.day(-1))
	dueToday := s.insertQuote(1, 1, 2, 2025, 5, s.day(0))
	lastDay := s.insertQuote(1, 1, 3, 2025, 5, s.day(AlertWindowDays))
	s.insertQuote(1, 1, 4, 2025, 5, s.day(AlertWindowDays+1))
	s.insertQuote(1, 1, 5, 2025, 5, nil)
	s.insertQuote(2, 2, 1, 2025, 5, s.day(1))

	rows, err := s.repo.UpcomingDeliveries(s.ctx, 1, s.today, *s.day(AlertWindowDays))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, dueToday, rows[0].QuoteID)
	assert.Equal(t, "Cliente A", rows[0].ClientName)
	assert.Equal(t, lastDay, rows[1].QuoteID)
	assert.Equal(t, "2025-05-13", rows[1].DeliveryForecast.Format(time.DateOnly))
}

func (s *PostgresSuite) TestCountsAndTotalValueAreCompanyScoped() {
	t := s.T()
	current := s.insertQuote(1, 1, 1, 2025, 2, nil)
	s.insertItem(current, 1, 1, "2", "10.00")
	previous := s.insertQuote(1, 1, 1, 2024, 11, nil)
	s.insertItem(previous, 1, 1, "1", "99.00")
	other := s.insertQuote(2, 2, 1, 2025, 2, nil)
	s.insertItem(other, 2, 2, "1", "80.00")

	counts, err := s.repo.Counts(s.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Counts{Clients: 1, Products: 1, Services: 1, Quotes: 2}, counts)

	total, err := s.repo.TotalValue(s.ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "119.00", total.StringFixed(2))

	empty, err := s.repo.TotalValue(s.ctx, 99)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func (s *PostgresSuite) TestSummaryFromDatabase() {
	t := s.T()
	s.insertQuote(1, 1, 1, 2024, 5, nil)
	due := s.insertQuote(1, 1, 1, 2025, 5, s.day(2))
	s.insertItem(due, 1, 1, "3", "10.00")
	s.insertQuote(1, 1, 2, 2025, 5, s.day(AlertWindowDays+1))

	svc := NewService(s.repo, nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	summary, err := svc.Summary(s.ctx, shared.TenantContext{CompanyID: 1, UserID: 10}, s.today)
	require.NoError(t, err)

	assert.Equal(t, 2025, summary.Year)
	assert.Equal(t, int64(3), summary.Counts.Quotes)
	require.Len(t, summary.Monthly, 12)
	assert.Equal(t, int64(2), summary.Monthly[4].Count)
	assert.Equal(t, "30.00", summary.Monthly[4].Value.StringFixed(2))
	require.Len(t, summary.Alerts, 1)
	assert.Equal(t, due, summary.Alerts[0].QuoteID)
	assert.Equal(t, 2, summary.Alerts[0].DaysLeft)
}
