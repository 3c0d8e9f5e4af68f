package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/orcamento/internal/catalog"
	"github.com/odyssey-erp/orcamento/internal/clients"
	"github.com/odyssey-erp/orcamento/internal/companies"
	"github.com/odyssey-erp/orcamento/internal/dashboard"
	"github.com/odyssey-erp/orcamento/internal/observability"
	"github.com/odyssey-erp/orcamento/internal/platform/httpx"
	"github.com/odyssey-erp/orcamento/internal/quotes"
	"github.com/odyssey-erp/orcamento/internal/tenant"
	"github.com/odyssey-erp/orcamento/jobs"
)

// HealthCheck probes one backing service for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Health  []HealthCheck

	Resolver         *tenant.Resolver
	TenantHandler    *tenant.Handler
	CompaniesHandler *companies.Handler
	ClientsHandler   *clients.Handler
	CatalogHandler   *catalog.Handler
	QuotesHandler    *quotes.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router. Every business route requires an
// authenticated user; everything but company creation and selection also
// requires a resolved company.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", healthHandler(params.Logger, params.Health))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(params.Resolver.RequireUser)

		if params.TenantHandler != nil {
			r.Route("/tenant", params.TenantHandler.MountRoutes)
		}
		if params.CompaniesHandler != nil {
			params.CompaniesHandler.MountRoutes(r)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}

		r.Group(func(r chi.Router) {
			r.Use(params.Resolver.RequireTenant)

			if params.CompaniesHandler != nil {
				params.CompaniesHandler.MountTenantRoutes(r)
			}
			if params.ClientsHandler != nil {
				r.Route("/clientes", params.ClientsHandler.MountRoutes)
			}
			if params.CatalogHandler != nil {
				params.CatalogHandler.MountRoutes(r)
			}
			if params.QuotesHandler != nil {
				params.QuotesHandler.MountRoutes(r)
			}
			if params.DashboardHandler != nil {
				params.DashboardHandler.MountRoutes(r)
			}
		})
	})

	return r
}

func healthHandler(logger *slog.Logger, checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failing := map[string]string{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				logger.Warn("health check failed", slog.String("check", hc.Name), slog.Any("error", err))
				failing[hc.Name] = "unavailable"
			}
		}
		if len(failing) > 0 {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": failing})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
