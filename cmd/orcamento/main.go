package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/orcamento/internal/app"
	"github.com/odyssey-erp/orcamento/internal/catalog"
	"github.com/odyssey-erp/orcamento/internal/clients"
	"github.com/odyssey-erp/orcamento/internal/companies"
	"github.com/odyssey-erp/orcamento/internal/dashboard"
	"github.com/odyssey-erp/orcamento/internal/observability"
	"github.com/odyssey-erp/orcamento/internal/platform/cache"
	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/quotes"
	"github.com/odyssey-erp/orcamento/internal/tenant"
	"github.com/odyssey-erp/orcamento/jobs"
	"github.com/odyssey-erp/orcamento/report"
	"github.com/odyssey-erp/orcamento/web"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.DBAutoMigrate {
		if err := migrateUp(dbpool, logger); err != nil {
			logger.Error("auto migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	companyService := companies.NewService(companies.NewRepository(dbpool), logger)
	resolver := tenant.NewResolver(tenant.NewSelectionStore(redisClient, cfg.TenantSelectionTTL), companyService, cfg.AuthUserHeader, logger)

	clientService := clients.NewService(clients.NewRepository(dbpool))
	catalogService := catalog.NewService(catalog.NewRepository(dbpool))

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), companyService, dashboardCache, metrics, logger)

	quoteService := quotes.NewService(quotes.NewRepository(dbpool), logger, metrics, dashboardService)
	pdfClient := report.NewClient(cfg.GotenbergURL)
	printer, err := quotes.NewPrinter(web.Templates, companyService, clientService, pdfClient)
	if err != nil {
		logger.Error("parse print templates", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Metrics:          metrics,
		Health:           healthChecks(dbpool.Ping, redisClient, pdfClient),
		Resolver:         resolver,
		TenantHandler:    tenant.NewHandler(logger, resolver),
		CompaniesHandler: companies.NewHandler(logger, companyService),
		ClientsHandler:   clients.NewHandler(logger, clientService),
		CatalogHandler:   catalog.NewHandler(logger, catalogService),
		QuotesHandler:    quotes.NewHandler(logger, quoteService, printer),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("pdf", pdfClient.Enabled()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func migrateUp(pool *pgxpool.Pool, logger *slog.Logger) error {
	migrator, err := db.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			logger.Warn("close migrator", slog.Any("error", err))
		}
	}()
	return migrator.Up()
}

func healthChecks(pingDB func(context.Context) error, redisClient *redis.Client, pdf *report.Client) []app.HealthCheck {
	checks := []app.HealthCheck{
		{Name: "postgres", Check: pingDB},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}
	if pdf.Enabled() {
		checks = append(checks, app.HealthCheck{Name: "gotenberg", Check: pdf.Ping})
	}
	return checks
}
