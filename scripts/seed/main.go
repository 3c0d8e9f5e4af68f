// Command seed loads a demo company with clients, catalog items and quotes.
// It goes through the domain services so every validation and numbering rule applies.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/orcamento/internal/app"
	"github.com/odyssey-erp/orcamento/internal/catalog"
	"github.com/odyssey-erp/orcamento/internal/clients"
	"github.com/odyssey-erp/orcamento/internal/companies"
	"github.com/odyssey-erp/orcamento/internal/platform/db"
	"github.com/odyssey-erp/orcamento/internal/quotes"
	"github.com/odyssey-erp/orcamento/internal/shared"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	userID, err := strconv.ParseInt(getenv("SEED_USER_ID", "1"), 10, 64)
	if err != nil || userID <= 0 {
		logger.Error("SEED_USER_ID must be a positive integer")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	s := seeder{
		companies: companies.NewService(companies.NewRepository(pool), logger),
		clients:   clients.NewService(clients.NewRepository(pool)),
		catalog:   catalog.NewService(catalog.NewRepository(pool)),
		quotes:    quotes.NewService(quotes.NewRepository(pool), logger, nil, nil),
		logger:    logger,
	}
	if err := s.run(ctx, userID); err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.String("at", time.Now().Format(time.RFC3339)))
}

type seeder struct {
	companies *companies.Service
	clients   *clients.Service
	catalog   *catalog.Service
	quotes    *quotes.Service
	logger    *slog.Logger
}

func (s seeder) run(ctx context.Context, userID int64) error {
	company, err := s.companies.Create(ctx, userID, companies.CompanyForm{
		Name:    "Oficina Demonstração Ltda",
		TaxID:   "12.345.678/0001-90",
		Phone:   "(11) 4002-8922",
		Address: "Rua das Oficinas, 100 - São Paulo/SP",
	})
	if err != nil {
		return fmt.Errorf("company: %w", err)
	}
	tenant := shared.TenantContext{CompanyID: company.ID, UserID: userID}
	s.logger.Info("seeded company", slog.Int64("company_id", company.ID))

	var clientIDs []int64
	for _, form := range []clients.ClientForm{
		{LegalName: "Construtora Horizonte S.A.", TradeName: "Horizonte", TaxID: "98.765.432/0001-10", Email: "compras@horizonte.example", CityState: "Campinas/SP"},
		{LegalName: "João da Silva", TaxID: "123.456.789-09", Phone: "(11) 98888-7777", CityState: "São Paulo/SP"},
	} {
		c, err := s.clients.Create(ctx, tenant, form)
		if err != nil {
			return fmt.Errorf("client %s: %w", form.LegalName, err)
		}
		clientIDs = append(clientIDs, c.ID)
	}

	product, err := s.catalog.Create(ctx, tenant, catalog.KindProduct, catalog.ItemForm{
		Code: "PAR-001", Name: "Parafuso sextavado M8", Price: decimal.RequireFromString("2.35"),
	})
	if err != nil {
		return fmt.Errorf("product: %w", err)
	}
	service, err := s.catalog.Create(ctx, tenant, catalog.KindService, catalog.ItemForm{
		Code: "MO-H", Name: "Mão de obra (hora)", Price: decimal.RequireFromString("120.00"),
	})
	if err != nil {
		return fmt.Errorf("service: %w", err)
	}

	delivery := time.Now().AddDate(0, 0, 2).Format(time.DateOnly)
	for i, clientID := range clientIDs {
		q, err := s.quotes.Create(ctx, tenant, quotes.QuoteForm{
			ClientID:         clientID,
			Requester:        "Compras",
			DeliveryForecast: &delivery,
			PaymentTerms:     "30 dias",
			Discount:         decimal.NewFromInt(int64(i * 10)),
			Items: []quotes.ItemForm{
				{Kind: string(catalog.KindProduct), ItemID: &product.ID, Quantity: decimal.NewFromInt(40)},
				{Kind: string(catalog.KindService), ItemID: &service.ID, Quantity: decimal.RequireFromString("2.5")},
			},
		})
		if err != nil {
			return fmt.Errorf("quote for client %d: %w", clientID, err)
		}
		s.logger.Info("seeded quote", slog.Int64("number", q.Number), slog.Int("year", q.Year), slog.String("total", q.Totals().Total.StringFixed(2)))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
