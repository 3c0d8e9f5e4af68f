package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/orcamento/internal/companies"
	"github.com/odyssey-erp/orcamento/internal/dashboard"
	"github.com/odyssey-erp/orcamento/internal/observability"
	"github.com/odyssey-erp/orcamento/internal/shared"
	"github.com/odyssey-erp/orcamento/internal/tenant"
	"github.com/odyssey-erp/orcamento/jobs"
	_ "github.com/odyssey-erp/orcamento/testing"
)

type memberships map[int64][]int64

func (m memberships) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	for _, id := range m[userID] {
		if id == companyID {
			return true, nil
		}
	}
	return false, nil
}

func (m memberships) DefaultCompany(ctx context.Context, userID int64) (int64, error) {
	if len(m[userID]) == 0 {
		return 0, shared.ErrNoTenantSelected
	}
	return m[userID][0], nil
}

func (m memberships) ListForUser(ctx context.Context, userID int64) ([]companies.Company, error) {
	out := []companies.Company{}
	for _, id := range m[userID] {
		out = append(out, companies.Company{ID: id, Name: "Empresa"})
	}
	return out, nil
}

type emptyDashboard struct{}

func (emptyDashboard) Counts(context.Context, int64) (dashboard.Counts, error) {
	return dashboard.Counts{}, nil
}

func (emptyDashboard) TotalValue(context.Context, int64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (emptyDashboard) Monthly(context.Context, int64, int) ([]dashboard.MonthRow, error) {
	return nil, nil
}

func (emptyDashboard) UpcomingDeliveries(context.Context, int64, time.Time, time.Time) ([]dashboard.AlertRow, error) {
	return nil, nil
}

func newTestRouter(t *testing.T, cfg *Config, health ...HealthCheck) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := tenant.NewResolver(tenant.NewSelectionStore(client, time.Hour), memberships{1: {10}, 2: nil}, "", logger)
	dashSvc := dashboard.NewService(emptyDashboard{}, nil, nil, nil, logger)

	return NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          observability.NewMetrics(),
		Health:           health,
		Resolver:         resolver,
		TenantHandler:    tenant.NewHandler(logger, resolver),
		DashboardHandler: dashboard.NewHandler(logger, dashSvc),
		JobHandler:       jobs.NewHandler(nil, logger),
	})
}

func do(h http.Handler, method, path string, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set(tenant.DefaultUserHeader, userID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t, nil, HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }})
	rr := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestHealthzDegraded(t *testing.T) {
	h := newTestRouter(t, nil, HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("down") }})
	rr := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"unavailable"}}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, nil)
	do(h, http.MethodGet, "/healthz", "")
	rr := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "orcamento_http_requests_total")
}

func TestBusinessRoutesRequireUser(t *testing.T) {
	h := newTestRouter(t, nil)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/dashboard", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/tenant/empresas", "abc").Code)
}

func TestTenantScopedRoutes(t *testing.T) {
	h := newTestRouter(t, nil)

	rr := do(h, http.MethodGet, "/dashboard", "1")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"mensal"`)

	rr = do(h, http.MethodGet, "/dashboard", "2")
	assert.Equal(t, http.StatusPreconditionRequired, rr.Code)

	rr = do(h, http.MethodGet, "/tenant/empresas", "2")
	assert.Equal(t, http.StatusOK, rr.Code, "listing companies must not need a selected company")

	rr = do(h, http.MethodGet, "/jobs/health", "2")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUnknownRouteIsProblem(t *testing.T) {
	h := newTestRouter(t, nil)
	rr := do(h, http.MethodGet, "/nope", "1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, &Config{RateLimitPerMinute: 2})
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/healthz", "").Code)
}
